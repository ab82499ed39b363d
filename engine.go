package ulink

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ulink/internal/infra/bus"
	logs "ulink/internal/infra/log"
	"ulink/internal/infra/qrcode"
	"ulink/internal/infra/transport"
	"ulink/internal/usecase"
	"ulink/internal/usecase/impl"
)

const terminateTimeout = 5 * time.Second

// Options carries the host-supplied collaborators. Store, SecureStore and
// DeviceInfo are required; Lifecycle and Logger are optional.
type Options struct {
	// Store is the general-purpose key-value store for the installation
	// id, token and cached link data.
	Store Store

	// SecureStore holds the persistent device id (keychain, keystore).
	SecureStore SecureStore

	// DeviceInfo supplies device/app environment snapshots.
	DeviceInfo DeviceInfoProvider

	// Lifecycle is the host lifecycle signal source. When nil, the
	// engine performs no lifecycle-driven retries or session endings.
	Lifecycle LifecycleNotifier

	// Logger overrides the config-built slog logger.
	Logger *slog.Logger
}

// Engine is the SDK's stateful orchestration core. A single instance is
// shared by the whole process, owned by the host's composition root.
type Engine struct {
	cfg    *Config
	logger *slog.Logger
	events *bus.Bus

	installation usecase.InstallationUsecase
	bootstrap    usecase.BootstrapUsecase
	session      usecase.SessionUsecase
	links        usecase.LinkUsecase
	deferred     usecase.DeferredLinkUsecase
	lastLink     usecase.LastLinkUsecase

	mu         sync.Mutex
	pendingURL string
}

// New constructs an engine from the config and host collaborators. No
// network activity happens until Initialize.
func New(cfg *Config, opts Options) (*Engine, error) {
	if cfg == nil {
		return nil, ErrInvalidConfiguration.WrapMessage("config is nil")
	}
	conf := *cfg
	conf.Normalize()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if opts.Store == nil {
		return nil, ErrInvalidConfiguration.WrapMessage("Store is required")
	}
	if opts.SecureStore == nil {
		return nil, ErrInvalidConfiguration.WrapMessage("SecureStore is required")
	}
	if opts.DeviceInfo == nil {
		return nil, ErrInvalidConfiguration.WrapMessage("DeviceInfo is required")
	}

	events := bus.New()

	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = logs.New(logs.Params{Config: &conf})
		if err != nil {
			return nil, err
		}
	}
	if conf.Debug {
		logger = slog.New(logs.NewBusHandler(logger.Handler(), events.Logs))
	}

	api := transport.New(&conf, logger)
	installation := impl.NewInstallationService(opts.Store, opts.SecureStore, logger)
	session := impl.NewSessionService(&conf, api, opts.DeviceInfo, installation, logger)
	bootstrap := impl.NewBootstrapService(api, api, installation, session, opts.DeviceInfo, events, logger)
	lastLink := impl.NewLastLinkService(&conf, opts.Store, logger)
	links := impl.NewLinkService(&conf, api, bootstrap, lastLink, qrcode.NewQRCodeService(conf.QRErrorCorrectionLevel), events, logger)
	deferred := impl.NewDeferredService(opts.Store, api, opts.DeviceInfo, installation, links, logger)

	engine := &Engine{
		cfg:          &conf,
		logger:       logger,
		events:       events,
		installation: installation,
		bootstrap:    bootstrap,
		session:      session,
		links:        links,
		deferred:     deferred,
		lastLink:     lastLink,
	}
	if opts.Lifecycle != nil {
		engine.registerLifecycle(opts.Lifecycle)
	}

	return engine, nil
}

// Initialize bootstraps the installation. Any number of concurrent calls
// share a single network attempt; after the first success it returns
// immediately.
func (e *Engine) Initialize(ctx context.Context) error {
	if err := e.bootstrap.Initialize(ctx); err != nil {
		return err
	}
	e.afterBootstrap()

	return nil
}

// afterBootstrap runs the post-init continuations: the one-shot deferred
// check and any deep link that arrived before initialization finished.
// Both run detached so they cannot fail the initialization sequence.
func (e *Engine) afterBootstrap() {
	if e.cfg.AutoCheckDeferredLink {
		go e.deferred.Check(context.Background())
	}

	if e.cfg.EnableDeepLinkIntegration {
		e.mu.Lock()
		pending := e.pendingURL
		e.pendingURL = ""
		e.mu.Unlock()
		if pending != "" {
			go func() {
				if err := e.links.HandleDeepLink(context.Background(), pending); err != nil {
					e.logger.Warn("Handling pending deep link failed", slog.Any("error", err))
				}
			}()
		}
	}
}

func (e *Engine) registerLifecycle(notifier LifecycleNotifier) {
	notifier.OnBecameActive(func() {
		go e.onForeground()
	})
	notifier.OnEnteredBackground(func() {
		go e.onBackground()
	})
	notifier.OnWillTerminate(func() {
		e.Terminate()
	})
}

// onForeground retries a failed bootstrap or restarts an ended session.
// Failures are logged only; lifecycle reactions must not crash the host.
func (e *Engine) onForeground() {
	ctx := context.Background()

	if !e.bootstrap.Completed() {
		e.bootstrap.RetrySilently(ctx)
		if e.bootstrap.Completed() {
			e.afterBootstrap()
		}

		return
	}

	switch e.session.State() {
	case SessionIdle, SessionFailed:
		if err := e.session.Start(ctx, nil); err != nil {
			e.logger.Warn("Foreground session start failed", slog.Any("error", err))
		}
	default:
		// An active or transitioning session needs no action.
	}
}

func (e *Engine) onBackground() {
	if _, err := e.session.End(context.Background()); err != nil {
		e.logger.Warn("Background session end failed", slog.Any("error", err))
	}
}

// Terminate ends any active session synchronously, bounded by a short
// timeout so process exit is not held up indefinitely.
func (e *Engine) Terminate() {
	ctx, cancel := context.WithTimeout(context.Background(), terminateTimeout)
	defer cancel()
	if _, err := e.session.End(ctx); err != nil {
		e.logger.Warn("Terminate session end failed", slog.Any("error", err))
	}
}

// CreateLink creates a dynamic or unified link. Failures are reported in
// the result rather than returned.
func (e *Engine) CreateLink(ctx context.Context, req CreateLinkRequest) CreateLinkResult {
	return e.links.CreateLink(ctx, req)
}

// CreateLinkQRCode creates a link and renders its short URL as a PNG QR
// code of the given pixel size.
func (e *Engine) CreateLinkQRCode(ctx context.Context, req CreateLinkRequest, size int) ([]byte, CreateLinkResult) {
	return e.links.CreateLinkQRCode(ctx, req, size)
}

// ProcessURL resolves a raw incoming URL without publishing events. A
// backend "no match" yields (nil, nil).
func (e *Engine) ProcessURL(ctx context.Context, rawURL string) (*ResolvedLinkData, error) {
	return e.links.ProcessURL(ctx, rawURL)
}

// HandleDeepLink resolves rawURL and publishes the result on the matching
// event stream. A URL arriving before initialization completes is held
// and resolved right after the first successful bootstrap when deep-link
// integration is enabled.
func (e *Engine) HandleDeepLink(ctx context.Context, rawURL string) error {
	if e.cfg.EnableDeepLinkIntegration && !e.bootstrap.Completed() {
		e.mu.Lock()
		e.pendingURL = rawURL
		e.mu.Unlock()

		// The bootstrap may have completed between the gate check and
		// the store, after the initialization continuation already
		// drained an empty slot. Re-check and reclaim the URL so it is
		// not stranded.
		if !e.bootstrap.Completed() {
			e.logger.Debug("Deep link held until initialization", slog.String("url", rawURL))

			return nil
		}

		e.mu.Lock()
		pending := e.pendingURL
		e.pendingURL = ""
		e.mu.Unlock()
		if pending == "" {
			// The initialization continuation claimed it.
			return nil
		}
		rawURL = pending
	}

	return e.links.HandleDeepLink(ctx, rawURL)
}

// CheckDeferredLink triggers the one-shot deferred attribution check
// manually. Only useful when AutoCheckDeferredLink is off.
func (e *Engine) CheckDeferredLink(ctx context.Context) error {
	if err := e.bootstrap.EnsureCompleted(); err != nil {
		return err
	}
	e.deferred.Check(ctx)

	return nil
}

// StartSession opens a session explicitly.
func (e *Engine) StartSession(ctx context.Context, metadata map[string]string) error {
	if err := e.bootstrap.EnsureCompleted(); err != nil {
		return err
	}

	return e.session.Start(ctx, metadata)
}

// EndSession closes the current session. Returns false when none is open.
func (e *Engine) EndSession(ctx context.Context) (bool, error) {
	return e.session.End(ctx)
}

// WaitForSession blocks until the in-flight session transition resolves
// or timeout elapses; non-positive timeout uses the configured default.
func (e *Engine) WaitForSession(timeout time.Duration) bool {
	return e.session.WaitForSession(timeout)
}

// SessionState returns the session state machine's current state.
func (e *Engine) SessionState() SessionState {
	return e.session.State()
}

// CurrentSession returns the current session when one exists.
func (e *Engine) CurrentSession() (Session, bool) {
	return e.session.Current()
}

// Identity returns the current installation identity.
func (e *Engine) Identity() (InstallationIdentity, error) {
	return e.installation.Identity()
}

// InstallationInfo returns the snapshot from the last successful
// bootstrap.
func (e *Engine) InstallationInfo() (InstallationInfo, bool) {
	return e.bootstrap.InstallationInfo()
}

// LastLink loads the persisted last-resolved link under the configured
// TTL and read-once policy.
func (e *Engine) LastLink() (*ResolvedLinkData, error) {
	return e.lastLink.Load()
}

// ClearLastLink removes any persisted last-link data.
func (e *Engine) ClearLastLink() error {
	return e.lastLink.Clear()
}

// OnDynamicLink subscribes to resolved dynamic links. The latest event is
// replayed to late subscribers; call cancel to unsubscribe.
func (e *Engine) OnDynamicLink() (<-chan ResolvedLinkData, func()) {
	return e.events.Dynamic.Subscribe()
}

// OnUnifiedLink subscribes to resolved unified links.
func (e *Engine) OnUnifiedLink() (<-chan ResolvedLinkData, func()) {
	return e.events.Unified.Subscribe()
}

// OnReinstall subscribes to the one-shot reinstall detection event.
func (e *Engine) OnReinstall() (<-chan InstallationInfo, func()) {
	return e.events.Reinstall.Subscribe()
}

// OnLog subscribes to the SDK log stream. Entries are published only when
// Debug is enabled in the config.
func (e *Engine) OnLog() (<-chan LogEntry, func()) {
	return e.events.Logs.Subscribe()
}
