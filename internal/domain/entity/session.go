package entity

import "time"

// SessionState is the lifecycle state of the current session.
type SessionState string

const (
	SessionIdle         SessionState = "idle"
	SessionInitializing SessionState = "initializing"
	SessionActive       SessionState = "active"
	SessionEnding       SessionState = "ending"
	SessionFailed       SessionState = "failed"
)

// Session represents a backend-tracked usage session. At most one session
// is open at a time; EndedAt and Duration are set together when it ends.
type Session struct {
	SessionID      string         `json:"session_id"`
	InstallationID string         `json:"installation_id"`
	StartedAt      time.Time      `json:"started_at"`
	EndedAt        *time.Time     `json:"ended_at,omitempty"`
	Duration       *time.Duration `json:"duration,omitempty"`
}
