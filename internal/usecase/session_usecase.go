package usecase

import (
	"context"
	"time"

	"ulink/internal/domain/entity"
)

// SessionUsecase drives the session lifecycle state machine:
// idle -> initializing -> active -> ending -> idle, with failed reachable
// from initializing or ending. At most one session is current and only
// one transition may be in flight.
type SessionUsecase interface {
	// Start opens a session. A concurrent Start while one is already
	// initializing does not issue a second network call; it waits for
	// the in-flight transition and shares its outcome.
	Start(ctx context.Context, metadata map[string]string) error

	// End closes the current session best-effort. Returns false when no
	// session is current. A backend failure still clears local state and
	// is logged rather than returned.
	End(ctx context.Context) (bool, error)

	// Adopt installs a server-opened session (from bootstrap) as the
	// current active session without a network call.
	Adopt(sessionID string)

	// WaitForSession returns true immediately when active, false when no
	// transition is in flight, and otherwise suspends the caller until
	// the transition resolves or timeout elapses.
	WaitForSession(timeout time.Duration) bool

	// State returns the current lifecycle state.
	State() entity.SessionState

	// Current returns the current session when one exists.
	Current() (entity.Session, bool)
}
