// Package entity contains the core business objects of the SDK.
package entity

import "time"

// InstallationIdentity groups the identifiers that tie this app instance
// to the link-management backend.
type InstallationIdentity struct {
	// InstallationID is a stable UUID generated on first run.
	InstallationID string `json:"installation_id"`
	// InstallationToken is opaque and server-issued, replaced on each
	// successful bootstrap.
	InstallationToken string `json:"installation_token,omitempty"`
	// PersistentDeviceID is a device-scoped UUID kept in secure storage;
	// it survives reinstall.
	PersistentDeviceID string `json:"persistent_device_id,omitempty"`
}

// InstallationInfo is the immutable snapshot produced by a successful
// bootstrap. Reinstall detection is derived server-side from the
// persistent device id.
type InstallationInfo struct {
	InstallationID         string     `json:"installation_id"`
	IsReinstall            bool       `json:"is_reinstall"`
	PreviousInstallationID string     `json:"previous_installation_id,omitempty"` // Set only when IsReinstall is true.
	ReinstallDetectedAt    *time.Time `json:"reinstall_detected_at,omitempty"`
	PersistentDeviceID     string     `json:"persistent_device_id,omitempty"`
}
