package usecase

import (
	"context"

	"ulink/internal/domain/entity"
)

// BootstrapUsecase coordinates installation registration with the
// backend. Exactly one bootstrap is in flight across arbitrarily many
// concurrent Initialize callers; all of them observe the shared outcome.
type BootstrapUsecase interface {
	// Initialize runs the bootstrap once. If a previous attempt
	// succeeded it returns immediately without a network call; if an
	// attempt is in flight the caller waits for its outcome.
	Initialize(ctx context.Context) error

	// RetrySilently re-runs a failed bootstrap on lifecycle signals.
	// Failures are logged, never returned, so a transient backend outage
	// cannot crash the host application.
	RetrySilently(ctx context.Context)

	// EnsureCompleted fails fast with ErrNotInitialized before the first
	// attempt and ErrInitializationFailed after a failed one. Called as
	// a guard at the top of every gated operation.
	EnsureCompleted() error

	// Completed reports whether a bootstrap has succeeded at least once.
	Completed() bool

	// InstallationInfo returns the snapshot produced by the last
	// successful bootstrap.
	InstallationInfo() (entity.InstallationInfo, bool)
}
