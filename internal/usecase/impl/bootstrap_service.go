package impl

import (
	"context"
	"log/slog"
	"sync"

	"ulink/internal/domain/entity"
	domainerrors "ulink/internal/domain/errors"
	"ulink/internal/domain/service"
	"ulink/internal/errors"
	"ulink/internal/infra/bus"
	"ulink/internal/usecase"

	"golang.org/x/sync/singleflight"
)

// bootstrapService implements the BootstrapUsecase interface. A
// singleflight group guarantees exactly one bootstrap network call across
// any number of concurrent initializers; waiters share the outcome.
type bootstrapService struct {
	api          service.APIClient
	carrier      service.IdentityCarrier
	installation usecase.InstallationUsecase
	session      usecase.SessionUsecase
	device       service.DeviceInfoProvider
	eventBus     *bus.Bus
	logger       *slog.Logger

	group singleflight.Group

	mu        sync.RWMutex
	completed bool
	lastErr   error
	info      *entity.InstallationInfo
}

// NewBootstrapService is the constructor for bootstrapService.
func NewBootstrapService(
	api service.APIClient,
	carrier service.IdentityCarrier,
	installation usecase.InstallationUsecase,
	session usecase.SessionUsecase,
	device service.DeviceInfoProvider,
	eventBus *bus.Bus,
	logger *slog.Logger,
) usecase.BootstrapUsecase {
	return &bootstrapService{
		api:          api,
		carrier:      carrier,
		installation: installation,
		session:      session,
		device:       device,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Initialize runs the bootstrap once. The fast path after a prior success
// issues no network call; concurrent callers block on the in-flight
// attempt and receive its outcome.
func (srv *bootstrapService) Initialize(ctx context.Context) error {
	if srv.Completed() {
		return nil
	}

	_, err, _ := srv.group.Do("bootstrap", func() (any, error) {
		// A waiter may arrive after the winning attempt finished.
		if srv.Completed() {
			return nil, nil
		}

		return nil, srv.bootstrap(ctx)
	})

	return err
}

// RetrySilently re-runs a failed bootstrap, logging instead of returning
// failures. Used by lifecycle-driven retries to protect host stability.
func (srv *bootstrapService) RetrySilently(ctx context.Context) {
	if srv.Completed() {
		return
	}
	if err := srv.Initialize(ctx); err != nil {
		srv.logger.Warn("Silent bootstrap retry failed", slog.Any("error", err))
	}
}

func (srv *bootstrapService) bootstrap(ctx context.Context) error {
	installationID, err := srv.installation.GetOrCreateInstallationID()
	if err != nil {
		return srv.fail(0, errors.Wrap(err, "installation id").Error())
	}
	srv.carrier.SetInstallationID(installationID)

	deviceID, err := srv.installation.GetPersistentDeviceID()
	if err == nil && deviceID != "" {
		srv.carrier.SetDeviceID(deviceID)
	}

	token, err := srv.installation.GetInstallationToken()
	if err == nil && token != "" {
		srv.carrier.SetInstallationToken(token)
	}

	snap, err := srv.device.Snapshot(ctx)
	if err != nil {
		srv.logger.Warn("Device snapshot failed, bootstrapping without metadata", slog.Any("error", err))
	}
	if snap.Platform != "" {
		srv.carrier.SetPlatform(snap.Platform)
	}

	var resp entity.BootstrapResponse
	status, err := srv.api.PostJSON(ctx, pathBootstrap, entity.BootstrapRequest{
		InstallationID:     installationID,
		PersistentDeviceID: deviceID,
		Device:             snap,
	}, &resp)
	if err != nil {
		message := err.Error()
		if resp.Error != "" {
			message = resp.Error
		}

		return srv.fail(status, message)
	}
	if !resp.Success {
		return srv.fail(status, resp.Error)
	}

	if resp.InstallationToken != "" {
		if err := srv.installation.SaveInstallationToken(resp.InstallationToken); err != nil {
			srv.logger.Warn("Saving installation token failed", slog.Any("error", err))
		}
		srv.carrier.SetInstallationToken(resp.InstallationToken)
	}

	if resp.SessionID != "" {
		srv.session.Adopt(resp.SessionID)
	}

	info := entity.InstallationInfo{
		InstallationID:      installationID,
		IsReinstall:         resp.IsReinstall,
		ReinstallDetectedAt: resp.ReinstallDetectedAt,
		PersistentDeviceID:  deviceID,
	}
	if resp.IsReinstall {
		info.PreviousInstallationID = resp.PreviousInstallationID
	}

	srv.mu.Lock()
	srv.completed = true
	srv.lastErr = nil
	srv.info = &info
	srv.mu.Unlock()

	if resp.IsReinstall {
		srv.eventBus.Reinstall.Publish(info)
	}
	srv.logger.Info("Bootstrap completed",
		slog.String("installation_id", installationID),
		slog.Bool("is_reinstall", resp.IsReinstall))

	return nil
}

func (srv *bootstrapService) fail(status int, message string) error {
	err := &domainerrors.BootstrapError{Status: status, Message: message}

	srv.mu.Lock()
	srv.lastErr = err
	srv.mu.Unlock()

	srv.logger.Error("Bootstrap failed", slog.Int("status", status), slog.String("message", message))

	return err
}

// EnsureCompleted gates link-creation, link-resolution and deferred-match
// operations behind a successful bootstrap.
func (srv *bootstrapService) EnsureCompleted() error {
	srv.mu.RLock()
	defer srv.mu.RUnlock()

	if srv.completed {
		return nil
	}
	if srv.lastErr != nil {
		return domainerrors.ErrInitializationFailed
	}

	return domainerrors.ErrNotInitialized
}

// Completed reports whether a bootstrap has succeeded at least once.
func (srv *bootstrapService) Completed() bool {
	srv.mu.RLock()
	defer srv.mu.RUnlock()

	return srv.completed
}

// InstallationInfo returns the snapshot from the last successful
// bootstrap.
func (srv *bootstrapService) InstallationInfo() (entity.InstallationInfo, bool) {
	srv.mu.RLock()
	defer srv.mu.RUnlock()

	if srv.info == nil {
		return entity.InstallationInfo{}, false
	}

	return *srv.info, true
}
