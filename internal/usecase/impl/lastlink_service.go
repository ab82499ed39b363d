package impl

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"ulink/config"
	"ulink/internal/domain/entity"
	domainerrors "ulink/internal/domain/errors"
	"ulink/internal/domain/repository"
	"ulink/internal/errors"
	"ulink/internal/usecase"
)

// lastLinkService implements the LastLinkUsecase interface with the
// configured redaction, TTL and read-once policy.
type lastLinkService struct {
	cfg    *config.Config
	store  repository.Store
	logger *slog.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewLastLinkService is the constructor for lastLinkService.
func NewLastLinkService(
	cfg *config.Config,
	store repository.Store,
	logger *slog.Logger,
) usecase.LastLinkUsecase {
	return &lastLinkService{
		cfg:    cfg,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Save writes the sanitized data plus a save timestamp.
func (srv *lastLinkService) Save(data entity.ResolvedLinkData) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	sanitized := srv.sanitize(data)
	payload, err := json.Marshal(sanitized)
	if err != nil {
		return domainerrors.ErrPersistence.WrapMessage(err.Error())
	}

	if err := srv.store.Set(repository.KeyLastLinkData, string(payload)); err != nil {
		return domainerrors.ErrPersistence.WrapMessage(err.Error())
	}
	savedAt := strconv.FormatInt(srv.now().UnixMilli(), 10)
	if err := srv.store.Set(repository.KeyLastLinkSavedAt, savedAt); err != nil {
		return domainerrors.ErrPersistence.WrapMessage(err.Error())
	}

	return nil
}

// sanitize applies the configured redaction to a private copy.
func (srv *lastLinkService) sanitize(data entity.ResolvedLinkData) entity.ResolvedLinkData {
	out := data.Clone()

	if srv.cfg.RedactAllParametersInLastLink {
		out.Parameters = nil
		out.Metadata = nil

		return out
	}

	for _, key := range srv.cfg.RedactedParameterKeysInLastLink {
		delete(out.Parameters, key)
		delete(out.Metadata, key)
	}

	return out
}

// Load returns the persisted data, enforcing TTL expiry and
// clear-on-read. Expired or corrupted entries are cleared, not surfaced.
func (srv *lastLinkService) Load() (*entity.ResolvedLinkData, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	payload, err := srv.store.Get(repository.KeyLastLinkData)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domainerrors.ErrPersistence.WrapMessage(err.Error())
	}

	if srv.cfg.LastLinkTTL > 0 && srv.expired() {
		srv.logger.Debug("Last link expired, clearing")
		srv.clearLocked()

		return nil, nil
	}

	var data entity.ResolvedLinkData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		srv.logger.Warn("Corrupted last link data, clearing", slog.Any("error", err))
		srv.clearLocked()

		return nil, nil
	}

	if srv.cfg.ClearLastLinkOnRead {
		srv.clearLocked()
	}

	return &data, nil
}

// expired reports whether the saved timestamp is older than the TTL. A
// missing or unreadable timestamp counts as expired, since the age cannot
// be verified.
func (srv *lastLinkService) expired() bool {
	raw, err := srv.store.Get(repository.KeyLastLinkSavedAt)
	if err != nil {
		return true
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return true
	}

	return srv.now().Sub(time.UnixMilli(millis)) > srv.cfg.LastLinkTTL
}

// Clear removes any persisted data.
func (srv *lastLinkService) Clear() error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.clearLocked()

	return nil
}

func (srv *lastLinkService) clearLocked() {
	if err := srv.store.Delete(repository.KeyLastLinkData); err != nil {
		srv.logger.Warn("Clearing last link data failed", slog.Any("error", err))
	}
	if err := srv.store.Delete(repository.KeyLastLinkSavedAt); err != nil {
		srv.logger.Warn("Clearing last link timestamp failed", slog.Any("error", err))
	}
}
