package usecase

import "context"

// DeferredLinkUsecase runs the fingerprint-based post-install attribution
// check. The check runs at most once per installation, guarded by a
// persisted one-shot flag, and never fails the initialization sequence.
type DeferredLinkUsecase interface {
	// Check builds the device fingerprint, queries the match endpoint
	// and feeds any matched URL through the deferred deep-link path.
	// No match and errors alike consume the one-shot flag and exit
	// quietly.
	Check(ctx context.Context)
}
