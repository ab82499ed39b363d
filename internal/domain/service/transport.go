// Package service defines the interfaces for the SDK's external
// collaborators: the HTTP transport, the device-info provider and the
// host lifecycle notification source.
package service

import (
	"context"
	"net/url"
)

// APIClient is the JSON transport to the link-management backend. A
// transport-level failure (DNS, connection, timeout) is reported as a
// NetworkError; a non-2xx HTTP response is reported as an HTTPError whose
// body is still decoded into out on a best-effort basis, so callers can
// read error detail from the payload.
type APIClient interface {
	// PostJSON sends body as JSON to path and decodes the response into
	// out. Returns the HTTP status code alongside any error.
	PostJSON(ctx context.Context, path string, body any, out any) (int, error)

	// GetJSON issues a GET to path with the given query parameters and
	// decodes the response into out.
	GetJSON(ctx context.Context, path string, query url.Values, out any) (int, error)
}

// IdentityCarrier receives the identity values sent as request headers
// once they become known. Header values are omitted until set.
type IdentityCarrier interface {
	SetInstallationID(id string)
	SetInstallationToken(token string)
	SetDeviceID(id string)
	SetPlatform(platform string)
}
