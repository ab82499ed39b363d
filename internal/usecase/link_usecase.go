package usecase

import (
	"context"

	"ulink/internal/domain/entity"
)

// LinkUsecase covers link creation, URL resolution and deep-link event
// distribution. All operations are gated on a completed bootstrap.
type LinkUsecase interface {
	// CreateLink creates a dynamic or unified link. Failures come back
	// as a structured result, not an error.
	CreateLink(ctx context.Context, req entity.CreateLinkRequest) entity.CreateLinkResult

	// CreateLinkQRCode creates a link and renders its short URL as a PNG
	// QR code of the given size in pixels.
	CreateLinkQRCode(ctx context.Context, req entity.CreateLinkRequest, size int) ([]byte, entity.CreateLinkResult)

	// ProcessURL resolves a raw incoming URL. A backend "no match"
	// yields (nil, nil); transport and protocol failures are returned.
	ProcessURL(ctx context.Context, rawURL string) (*entity.ResolvedLinkData, error)

	// HandleDeepLink resolves the URL, classifies the result by link
	// type, publishes it on the matching broadcast topic and, when
	// configured, persists the sanitized result as the last link.
	HandleDeepLink(ctx context.Context, rawURL string) error

	// HandleDeferredDeepLink is HandleDeepLink for a deferred-match hit;
	// the published data is stamped with IsDeferred and the
	// server-reported match type.
	HandleDeferredDeepLink(ctx context.Context, rawURL, matchType string) error
}
