package impl

import (
	"context"
	"log/slog"
	"sync"

	"ulink/internal/domain/entity"
	"ulink/internal/domain/repository"
	"ulink/internal/domain/service"
	"ulink/internal/usecase"
)

const deferredFlagConsumed = "true"

// deferredService implements the DeferredLinkUsecase interface. The check
// runs at most once per installation and never propagates failures; it is
// detached from the bootstrap continuation.
type deferredService struct {
	store        repository.Store
	api          service.APIClient
	device       service.DeviceInfoProvider
	installation usecase.InstallationUsecase
	links        usecase.LinkUsecase
	logger       *slog.Logger

	// Serializes concurrent checks so only the first one can win the
	// one-shot flag.
	mu sync.Mutex
}

// NewDeferredService is the constructor for deferredService.
func NewDeferredService(
	store repository.Store,
	api service.APIClient,
	device service.DeviceInfoProvider,
	installation usecase.InstallationUsecase,
	links usecase.LinkUsecase,
	logger *slog.Logger,
) usecase.DeferredLinkUsecase {
	return &deferredService{
		store:        store,
		api:          api,
		device:       device,
		installation: installation,
		links:        links,
		logger:       logger,
	}
}

// Check runs the fingerprint match once. No match and errors alike
// consume the one-shot flag so the attempt is never repeated.
func (srv *deferredService) Check(ctx context.Context) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if flag, err := srv.store.Get(repository.KeyDeferredCheckComplete); err == nil && flag == deferredFlagConsumed {
		srv.logger.Debug("Deferred link check already completed")

		return
	}
	defer func() {
		if err := srv.store.Set(repository.KeyDeferredCheckComplete, deferredFlagConsumed); err != nil {
			srv.logger.Warn("Marking deferred check consumed failed", slog.Any("error", err))
		}
	}()

	installationID, err := srv.installation.GetOrCreateInstallationID()
	if err != nil {
		srv.logger.Warn("Deferred link check skipped", slog.Any("error", err))

		return
	}

	snap, err := srv.device.Snapshot(ctx)
	if err != nil {
		srv.logger.Warn("Device snapshot failed for deferred match", slog.Any("error", err))
	}

	var resp entity.DeferredMatchResponse
	status, err := srv.api.PostJSON(ctx, pathDeferredMatch, entity.DeferredMatchRequest{
		InstallationID: installationID,
		Fingerprint:    entity.FingerprintFromSnapshot(snap),
	}, &resp)
	if err != nil {
		srv.logger.Warn("Deferred match request failed", slog.Any("error", err), slog.Int("status", status))

		return
	}
	if !resp.Success || !resp.Matched || resp.URL == "" {
		srv.logger.Debug("No deferred link match")

		return
	}

	srv.logger.Info("Deferred link matched",
		slog.String("url", resp.URL),
		slog.String("match_type", resp.MatchType))
	if err := srv.links.HandleDeferredDeepLink(ctx, resp.URL, resp.MatchType); err != nil {
		srv.logger.Warn("Handling deferred deep link failed", slog.Any("error", err))
	}
}
