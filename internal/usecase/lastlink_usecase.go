package usecase

import "ulink/internal/domain/entity"

// LastLinkUsecase persists the most recently handled deep link with the
// configured redaction, TTL and read-once policy.
type LastLinkUsecase interface {
	// Save writes the sanitized data plus a save timestamp.
	Save(data entity.ResolvedLinkData) error

	// Load returns the persisted data, enforcing TTL expiry and
	// clear-on-read. Expired or corrupted entries are cleared and
	// reported as absent.
	Load() (*entity.ResolvedLinkData, error)

	// Clear removes any persisted data. Clearing an empty store is a
	// no-op.
	Clear() error
}
