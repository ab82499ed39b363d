// Package ulink is an embeddable client for the ULink link-management
// service: deep-link creation and resolution, deferred post-install
// attribution, and installation/session tracking.
package ulink

import (
	"ulink/config"
	"ulink/internal/domain/entity"
	domainerrors "ulink/internal/domain/errors"
	"ulink/internal/domain/repository"
	"ulink/internal/domain/service"
	"ulink/internal/infra/lifecycle"
	"ulink/internal/infra/persistence"
)

// Public aliases for the domain types exchanged with host applications.
type (
	Config    = config.Config
	LogConfig = config.Log

	Store              = repository.Store
	SecureStore        = repository.SecureStore
	DeviceInfoProvider = service.DeviceInfoProvider
	LifecycleNotifier  = service.LifecycleNotifier

	DeviceSnapshot    = entity.DeviceSnapshot
	DeviceFingerprint = entity.DeviceFingerprint

	LinkType          = entity.LinkType
	SocialMediaTags   = entity.SocialMediaTags
	ResolvedLinkData  = entity.ResolvedLinkData
	CreateLinkRequest = entity.CreateLinkRequest
	CreateLinkResult  = entity.CreateLinkResult

	InstallationIdentity = entity.InstallationIdentity
	InstallationInfo     = entity.InstallationInfo
	Session              = entity.Session
	SessionState         = entity.SessionState
	LogEntry             = entity.LogEntry
)

// Link types.
const (
	LinkTypeDynamic = entity.LinkTypeDynamic
	LinkTypeUnified = entity.LinkTypeUnified
)

// Session lifecycle states.
const (
	SessionIdle         = entity.SessionIdle
	SessionInitializing = entity.SessionInitializing
	SessionActive       = entity.SessionActive
	SessionEnding       = entity.SessionEnding
	SessionFailed       = entity.SessionFailed
)

// Error sentinels and typed errors surfaced by the engine.
var (
	ErrNotInitialized       = domainerrors.ErrNotInitialized
	ErrInitializationFailed = domainerrors.ErrInitializationFailed
	ErrInvalidConfiguration = domainerrors.ErrInvalidConfiguration
	ErrInvalidResponse      = domainerrors.ErrInvalidResponse
	ErrInvalidParameters    = domainerrors.ErrInvalidParameters
	ErrSession              = domainerrors.ErrSession
	ErrInstallation         = domainerrors.ErrInstallation
	ErrPersistence          = domainerrors.ErrPersistence
	ErrDeferredLink         = domainerrors.ErrDeferredLink
)

type (
	NetworkError   = domainerrors.NetworkError
	HTTPError      = domainerrors.HTTPError
	BootstrapError = domainerrors.BootstrapError
)

// HostLifecycle is the built-in lifecycle notifier; platform adapters
// call its Notify methods to report foreground/background/terminate.
type HostLifecycle = lifecycle.Notifier

// NewHostLifecycle creates an empty lifecycle notifier.
func NewHostLifecycle() *HostLifecycle {
	return lifecycle.NewNotifier()
}

// MemoryStore is the built-in in-memory store, suitable for tests and
// ephemeral embedders. It satisfies both Store and SecureStore.
type MemoryStore = persistence.MemoryStore

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return persistence.NewMemoryStore()
}

// LoadConfig loads <name>.yaml through koanf with ULINK_* environment
// overrides, then normalizes and validates it.
func LoadConfig(name string, configPath ...string) (*Config, error) {
	return config.LoadWithEnv(name, configPath...)
}
