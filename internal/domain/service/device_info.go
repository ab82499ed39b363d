package service

import (
	"context"

	"ulink/internal/domain/entity"
)

// DeviceInfoProvider supplies the device and app environment snapshot
// attached to bootstrap, session and deferred-match calls. Implemented by
// a host-specific adapter outside the core.
type DeviceInfoProvider interface {
	// Snapshot collects the current device/app environment. Providers
	// that gather fields asynchronously should respect ctx.
	Snapshot(ctx context.Context) (entity.DeviceSnapshot, error)
}
