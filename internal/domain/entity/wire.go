package entity

import "time"

// Wire-level request and response bodies for the ULink backend. Every
// response carries an explicit success flag; the SDK never infers success
// from payload shape.

// BootstrapRequest registers an installation with the backend.
type BootstrapRequest struct {
	InstallationID     string         `json:"installation_id"`
	PersistentDeviceID string         `json:"persistent_device_id,omitempty"`
	Device             DeviceSnapshot `json:"device"`
}

// BootstrapResponse is the backend's answer to a bootstrap call. A session
// id here means the backend opened an implicit session for this launch.
type BootstrapResponse struct {
	Success                bool       `json:"success"`
	Error                  string     `json:"error,omitempty"`
	InstallationToken      string     `json:"installation_token,omitempty"`
	SessionID              string     `json:"session_id,omitempty"`
	IsReinstall            bool       `json:"is_reinstall,omitempty"`
	PreviousInstallationID string     `json:"previous_installation_id,omitempty"`
	ReinstallDetectedAt    *time.Time `json:"reinstall_detected_at,omitempty"`
}

// SessionStartRequest opens a session.
type SessionStartRequest struct {
	InstallationID string            `json:"installation_id"`
	Device         DeviceSnapshot    `json:"device"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// SessionStartResponse returns the opened session.
type SessionStartResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// SessionEndResponse acknowledges a session end.
type SessionEndResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ResolveResponse carries the resolution of an incoming URL.
type ResolveResponse struct {
	Success         bool              `json:"success"`
	Error           string            `json:"error,omitempty"`
	Slug            string            `json:"slug,omitempty"`
	Type            LinkType          `json:"type,omitempty"`
	IOSURL          string            `json:"ios_url,omitempty"`
	AndroidURL      string            `json:"android_url,omitempty"`
	WebURL          string            `json:"web_url,omitempty"`
	FallbackURL     string            `json:"fallback_url,omitempty"`
	Parameters      map[string]string `json:"parameters,omitempty"`
	SocialMediaTags *SocialMediaTags  `json:"social_media_tags,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// CreateLinkResponse returns the created link.
type CreateLinkResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	LinkID   string `json:"link_id,omitempty"`
	ShortURL string `json:"short_url,omitempty"`
}

// DeferredMatchRequest submits the device fingerprint for post-install
// attribution.
type DeferredMatchRequest struct {
	InstallationID string            `json:"installation_id"`
	Fingerprint    DeviceFingerprint `json:"fingerprint"`
}

// DeferredMatchResponse reports whether a pre-install click matched.
type DeferredMatchResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Matched   bool   `json:"matched"`
	URL       string `json:"url,omitempty"`        // Deep link to feed back through resolution when matched.
	MatchType string `json:"match_type,omitempty"` // e.g. exact, probabilistic.
}
