package impl

import (
	"log/slog"
	"sync"

	"ulink/internal/domain/entity"
	domainerrors "ulink/internal/domain/errors"
	"ulink/internal/domain/repository"
	"ulink/internal/errors"
	"ulink/internal/usecase"

	"github.com/google/uuid"
)

// installationService implements the InstallationUsecase interface.
type installationService struct {
	store  repository.Store
	secure repository.SecureStore
	logger *slog.Logger

	// Serializes first-run id generation so concurrent callers cannot
	// both generate and persist distinct ids.
	mu sync.Mutex
}

// NewInstallationService is the constructor for installationService.
func NewInstallationService(
	store repository.Store,
	secure repository.SecureStore,
	logger *slog.Logger,
) usecase.InstallationUsecase {
	return &installationService{
		store:  store,
		secure: secure,
		logger: logger,
	}
}

// GetOrCreateInstallationID reads the installation id, generating one on
// first run.
func (srv *installationService) GetOrCreateInstallationID() (string, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	id, err := srv.store.Get(repository.KeyInstallationID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, repository.ErrKeyNotFound) {
		return "", domainerrors.ErrInstallation.WrapMessage(err.Error())
	}

	id = uuid.NewString()
	if err := srv.store.Set(repository.KeyInstallationID, id); err != nil {
		return "", domainerrors.ErrInstallation.WrapMessage(err.Error())
	}
	srv.logger.Info("Generated installation id", slog.String("installation_id", id))

	return id, nil
}

// GetPersistentDeviceID reads or creates the device-scoped UUID in the
// secure store. A write failure is non-fatal: the fresh id is returned
// unpersisted and creation retries on the next call.
func (srv *installationService) GetPersistentDeviceID() (string, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	id, err := srv.secure.Get(repository.KeyPersistentDeviceID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, repository.ErrKeyNotFound) {
		srv.logger.Warn("Secure store read failed", slog.Any("error", err))
	}

	id = uuid.NewString()
	if err := srv.secure.Set(repository.KeyPersistentDeviceID, id); err != nil {
		srv.logger.Warn("Secure store write failed, device id not persisted", slog.Any("error", err))
	}

	return id, nil
}

// SaveInstallationToken persists the server-issued token.
func (srv *installationService) SaveInstallationToken(token string) error {
	if err := srv.store.Set(repository.KeyInstallationToken, token); err != nil {
		return domainerrors.ErrPersistence.WrapMessage(err.Error())
	}

	return nil
}

// GetInstallationToken returns the persisted token, or empty when absent.
func (srv *installationService) GetInstallationToken() (string, error) {
	token, err := srv.store.Get(repository.KeyInstallationToken)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", domainerrors.ErrPersistence.WrapMessage(err.Error())
	}

	return token, nil
}

// Identity assembles the current installation identity snapshot.
func (srv *installationService) Identity() (entity.InstallationIdentity, error) {
	id, err := srv.GetOrCreateInstallationID()
	if err != nil {
		return entity.InstallationIdentity{}, err
	}
	token, err := srv.GetInstallationToken()
	if err != nil {
		return entity.InstallationIdentity{}, err
	}
	deviceID, err := srv.GetPersistentDeviceID()
	if err != nil {
		return entity.InstallationIdentity{}, err
	}

	return entity.InstallationIdentity{
		InstallationID:     id,
		InstallationToken:  token,
		PersistentDeviceID: deviceID,
	}, nil
}
