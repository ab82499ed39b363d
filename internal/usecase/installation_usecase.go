// Package usecase contains the application-specific business rules of the
// SDK core.
package usecase

import "ulink/internal/domain/entity"

// InstallationUsecase manages the identifiers tying this app instance to
// the backend.
type InstallationUsecase interface {
	// GetOrCreateInstallationID reads the installation id from the
	// general store, generating and persisting a new UUID on first run.
	// Generation is idempotent across concurrent first-run callers.
	GetOrCreateInstallationID() (string, error)

	// GetPersistentDeviceID reads or creates the device-scoped UUID in
	// the secure store. A secure-store write failure is non-fatal: a
	// fresh id is returned anyway and creation is retried on the next
	// call.
	GetPersistentDeviceID() (string, error)

	// SaveInstallationToken persists the server-issued token.
	SaveInstallationToken(token string) error

	// GetInstallationToken returns the persisted token, or empty when
	// none was issued yet.
	GetInstallationToken() (string, error)

	// Identity assembles the current installation identity snapshot.
	Identity() (entity.InstallationIdentity, error)
}
