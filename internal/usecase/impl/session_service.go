package impl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ulink/config"
	"ulink/internal/domain/entity"
	domainerrors "ulink/internal/domain/errors"
	"ulink/internal/domain/service"
	"ulink/internal/usecase"
)

// sessionService implements the SessionUsecase interface. All state
// transitions are serialized through mu; at most one transition is in
// flight, represented by an open inflight channel that is closed when the
// transition resolves.
type sessionService struct {
	cfg          *config.Config
	api          service.APIClient
	device       service.DeviceInfoProvider
	installation usecase.InstallationUsecase
	logger       *slog.Logger

	mu           sync.Mutex
	state        entity.SessionState
	current      *entity.Session
	inflight     chan struct{}
	lastStartErr error
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(
	cfg *config.Config,
	api service.APIClient,
	device service.DeviceInfoProvider,
	installation usecase.InstallationUsecase,
	logger *slog.Logger,
) usecase.SessionUsecase {
	return &sessionService{
		cfg:          cfg,
		api:          api,
		device:       device,
		installation: installation,
		logger:       logger,
		state:        entity.SessionIdle,
	}
}

// Start opens a session. A concurrent Start while initializing waits for
// the in-flight transition and shares its outcome instead of issuing a
// second network call.
func (srv *sessionService) Start(ctx context.Context, metadata map[string]string) error {
	for {
		srv.mu.Lock()
		switch srv.state {
		case entity.SessionActive:
			srv.mu.Unlock()

			return nil
		case entity.SessionInitializing:
			ch := srv.inflight
			srv.mu.Unlock()
			<-ch
			srv.mu.Lock()
			err := srv.lastStartErr
			srv.mu.Unlock()

			return err
		case entity.SessionEnding:
			// Let the in-flight end resolve, then try again.
			ch := srv.inflight
			srv.mu.Unlock()
			<-ch

			continue
		default: // idle or failed
			srv.state = entity.SessionInitializing
			srv.inflight = make(chan struct{})
			srv.mu.Unlock()

			return srv.doStart(ctx, metadata)
		}
	}
}

func (srv *sessionService) doStart(ctx context.Context, metadata map[string]string) error {
	installationID, err := srv.installation.GetOrCreateInstallationID()
	if err != nil {
		return srv.resolveStart(nil, domainerrors.ErrSession.WrapMessage(err.Error()))
	}

	snap, err := srv.device.Snapshot(ctx)
	if err != nil {
		srv.logger.Warn("Device snapshot failed, starting session without metadata", slog.Any("error", err))
	}

	var resp entity.SessionStartResponse
	status, err := srv.api.PostJSON(ctx, pathSessionStart, entity.SessionStartRequest{
		InstallationID: installationID,
		Device:         snap,
		Metadata:       metadata,
	}, &resp)
	if err != nil {
		srv.logger.Error("Session start failed", slog.Any("error", err), slog.Int("status", status))

		return srv.resolveStart(nil, domainerrors.ErrSession.WrapMessage(err.Error()))
	}
	if !resp.Success || resp.SessionID == "" {
		srv.logger.Error("Session start rejected", slog.String("error", resp.Error))

		return srv.resolveStart(nil, domainerrors.ErrSession.WrapMessage(resp.Error))
	}

	session := &entity.Session{
		SessionID:      resp.SessionID,
		InstallationID: installationID,
		StartedAt:      time.Now(),
	}
	srv.logger.Info("Session started", slog.String("session_id", resp.SessionID))

	return srv.resolveStart(session, nil)
}

// resolveStart finishes the initializing transition and releases waiters.
func (srv *sessionService) resolveStart(session *entity.Session, err error) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.state != entity.SessionInitializing {
		// Superseded by an adopted session; waiters were already
		// released.
		return err
	}

	if err != nil {
		srv.state = entity.SessionFailed
		srv.current = nil
	} else {
		srv.state = entity.SessionActive
		srv.current = session
	}
	srv.lastStartErr = err
	close(srv.inflight)
	srv.inflight = nil

	return err
}

// End closes the current session best-effort. A backend failure still
// clears local state; ending is opportunistic.
func (srv *sessionService) End(ctx context.Context) (bool, error) {
	srv.mu.Lock()
	if srv.current == nil || srv.state != entity.SessionActive {
		srv.mu.Unlock()

		return false, nil
	}
	session := *srv.current
	srv.state = entity.SessionEnding
	srv.inflight = make(chan struct{})
	srv.mu.Unlock()

	var resp entity.SessionEndResponse
	_, err := srv.api.PostJSON(ctx, fmt.Sprintf(pathSessionEnd, session.SessionID), nil, &resp)

	endedAt := time.Now()
	duration := endedAt.Sub(session.StartedAt)
	session.EndedAt = &endedAt
	session.Duration = &duration

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if err != nil {
		srv.logger.Warn("Session end failed",
			slog.Any("error", err),
			slog.String("session_id", session.SessionID),
			slog.Duration("duration", duration))
		srv.state = entity.SessionFailed
	} else {
		srv.state = entity.SessionIdle
		srv.logger.Info("Session ended",
			slog.String("session_id", session.SessionID),
			slog.Duration("duration", duration))
	}
	srv.current = nil
	close(srv.inflight)
	srv.inflight = nil

	return true, nil
}

// Adopt installs a server-opened session as the current active session.
func (srv *sessionService) Adopt(sessionID string) {
	installationID, err := srv.installation.GetOrCreateInstallationID()
	if err != nil {
		srv.logger.Warn("Adopting session without installation id", slog.Any("error", err))
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.current = &entity.Session{
		SessionID:      sessionID,
		InstallationID: installationID,
		StartedAt:      time.Now(),
	}
	srv.state = entity.SessionActive
	srv.lastStartErr = nil
	if srv.inflight != nil {
		close(srv.inflight)
		srv.inflight = nil
	}
}

// WaitForSession suspends the caller until the in-flight transition
// resolves or the timeout elapses. On timeout the answer reflects the
// last known state without altering the state machine.
func (srv *sessionService) WaitForSession(timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = srv.cfg.SessionWaitTimeout
	}

	srv.mu.Lock()
	switch srv.state {
	case entity.SessionActive:
		srv.mu.Unlock()

		return true
	case entity.SessionInitializing:
	default:
		srv.mu.Unlock()

		return false
	}
	ch := srv.inflight
	srv.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
	}

	return srv.State() == entity.SessionActive
}

// State returns the current lifecycle state.
func (srv *sessionService) State() entity.SessionState {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	return srv.state
}

// Current returns the current session when one exists.
func (srv *sessionService) Current() (entity.Session, bool) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.current == nil {
		return entity.Session{}, false
	}

	return *srv.current, true
}
