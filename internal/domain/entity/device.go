package entity

// DeviceSnapshot is the point-in-time device and app environment submitted
// with bootstrap and session-start calls. It is collected by the host
// application's device-info adapter.
type DeviceSnapshot struct {
	Platform         string  `json:"platform"` // ios, android, ...
	OSVersion        string  `json:"os_version,omitempty"`
	DeviceModel      string  `json:"device_model,omitempty"`
	AppVersion       string  `json:"app_version,omitempty"`
	AppBuild         string  `json:"app_build,omitempty"`
	BundleID         string  `json:"bundle_id,omitempty"`
	Locale           string  `json:"locale,omitempty"`
	Language         string  `json:"language,omitempty"`
	Timezone         string  `json:"timezone,omitempty"`
	ScreenResolution string  `json:"screen_resolution,omitempty"` // e.g. 1170x2532
	NetworkType      string  `json:"network_type,omitempty"`      // wifi, cellular, ...
	BatteryLevel     float64 `json:"battery_level,omitempty"`
	VendorID         string  `json:"vendor_id,omitempty"` // Stable vendor identifier when the platform exposes one.
}

// DeviceFingerprint is the attribute set submitted for deferred-link
// matching. The backend matches it probabilistically against pre-install
// link clicks.
type DeviceFingerprint struct {
	DeviceModel      string `json:"device_model,omitempty"`
	OSVersion        string `json:"os_version,omitempty"`
	Platform         string `json:"platform"`
	ScreenResolution string `json:"screen_resolution,omitempty"`
	Timezone         string `json:"timezone,omitempty"`
	Language         string `json:"language,omitempty"`
	VendorID         string `json:"vendor_id,omitempty"`
}

// FingerprintFromSnapshot projects the fingerprint fields out of a full
// device snapshot.
func FingerprintFromSnapshot(snap DeviceSnapshot) DeviceFingerprint {
	return DeviceFingerprint{
		DeviceModel:      snap.DeviceModel,
		OSVersion:        snap.OSVersion,
		Platform:         snap.Platform,
		ScreenResolution: snap.ScreenResolution,
		Timezone:         snap.Timezone,
		Language:         snap.Language,
		VendorID:         snap.VendorID,
	}
}
