// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers
// and the host-supplied storage adapters.
package repository

import "github.com/pkg/errors"

// Domain-specific errors for local persistence.
var (
	// ErrKeyNotFound is returned when a key has no stored value.
	ErrKeyNotFound = errors.New("key not found")
)

// Persisted keys used by the engine. Host-supplied stores only ever see
// these names, so collisions with host data stay unlikely.
const (
	KeyInstallationID        = "ulink.installation_id"
	KeyInstallationToken     = "ulink.installation_token"
	KeyLastLinkData          = "ulink.last_link_data"
	KeyLastLinkSavedAt       = "ulink.last_link_saved_at"
	KeyDeferredCheckComplete = "ulink.deferred_check_completed"
	KeyPersistentDeviceID    = "ulink.persistent_device_id"
)

// Store is the general-purpose key-value store used for the installation
// id, the installation token and cached link data. Implementations must be
// safe for concurrent use.
type Store interface {
	// Get retrieves the value for key, or ErrKeyNotFound.
	Get(key string) (string, error)

	// Set persists the value for key, overwriting any previous value.
	Set(key, value string) error

	// Delete removes the value for key. Deleting an absent key is not an
	// error.
	Delete(key string) error
}

// SecureStore is the secure persistent store holding the per-device
// identifier that survives app reinstalls (keychain, keystore).
// Implementations must be safe for concurrent use.
type SecureStore interface {
	// Get retrieves the value for key, or ErrKeyNotFound.
	Get(key string) (string, error)

	// Set persists the value for key in secure storage.
	Set(key, value string) error

	// Delete removes the value for key.
	Delete(key string) error
}
