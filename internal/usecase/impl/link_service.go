package impl

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"time"

	"ulink/config"
	"ulink/internal/domain/entity"
	"ulink/internal/domain/service"
	"ulink/internal/infra/bus"
	"ulink/internal/usecase"
)

// linkService implements the LinkUsecase interface: link creation, URL
// resolution and event distribution.
type linkService struct {
	cfg       *config.Config
	api       service.APIClient
	bootstrap usecase.BootstrapUsecase
	lastLink  usecase.LastLinkUsecase
	qr        service.QRCodeService
	eventBus  *bus.Bus
	logger    *slog.Logger
}

// NewLinkService is the constructor for linkService.
func NewLinkService(
	cfg *config.Config,
	api service.APIClient,
	bootstrap usecase.BootstrapUsecase,
	lastLink usecase.LastLinkUsecase,
	qr service.QRCodeService,
	eventBus *bus.Bus,
	logger *slog.Logger,
) usecase.LinkUsecase {
	return &linkService{
		cfg:       cfg,
		api:       api,
		bootstrap: bootstrap,
		lastLink:  lastLink,
		qr:        qr,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// CreateLink creates a dynamic or unified link. Failures are reported in
// the result, not returned.
func (srv *linkService) CreateLink(ctx context.Context, req entity.CreateLinkRequest) entity.CreateLinkResult {
	if err := srv.bootstrap.EnsureCompleted(); err != nil {
		return entity.CreateLinkResult{Error: err.Error()}
	}
	if req.Type != entity.LinkTypeDynamic && req.Type != entity.LinkTypeUnified {
		return entity.CreateLinkResult{Error: "link type must be dynamic or unified"}
	}

	var resp entity.CreateLinkResponse
	status, err := srv.api.PostJSON(ctx, pathLinks, req, &resp)
	if err != nil {
		srv.logger.Error("Create link failed", slog.Any("error", err), slog.Int("status", status))
		message := err.Error()
		if resp.Error != "" {
			message = resp.Error
		}

		return entity.CreateLinkResult{Error: message}
	}
	if !resp.Success {
		return entity.CreateLinkResult{Error: resp.Error}
	}
	srv.logger.Debug("Link created", slog.String("short_url", resp.ShortURL))

	return entity.CreateLinkResult{
		Success:  true,
		ShortURL: resp.ShortURL,
		LinkID:   resp.LinkID,
	}
}

// CreateLinkQRCode creates a link and renders its short URL as a PNG QR
// code.
func (srv *linkService) CreateLinkQRCode(ctx context.Context, req entity.CreateLinkRequest, size int) ([]byte, entity.CreateLinkResult) {
	result := srv.CreateLink(ctx, req)
	if !result.Success {
		return nil, result
	}

	png, err := srv.qr.GenerateLinkQR(result.ShortURL, size)
	if err != nil {
		srv.logger.Error("QR code encoding failed", slog.Any("error", err))

		return nil, entity.CreateLinkResult{Error: "qr code encoding failed: " + err.Error()}
	}

	return png, result
}

// ProcessURL resolves a raw incoming URL. A backend "no match" yields
// (nil, nil); transport and protocol failures are returned.
func (srv *linkService) ProcessURL(ctx context.Context, rawURL string) (*entity.ResolvedLinkData, error) {
	if err := srv.bootstrap.EnsureCompleted(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("url", rawURL)

	var resp entity.ResolveResponse
	status, err := srv.api.GetJSON(ctx, pathResolve, query, &resp)
	if err != nil {
		srv.logger.Error("Resolve failed", slog.Any("error", err), slog.Int("status", status), slog.String("url", rawURL))

		return nil, err
	}
	if !resp.Success {
		srv.logger.Debug("URL did not resolve", slog.String("url", rawURL), slog.String("error", resp.Error))

		return nil, nil
	}

	linkType := resp.Type
	if linkType == "" {
		linkType = entity.LinkTypeDynamic
	}

	data := &entity.ResolvedLinkData{
		Slug:            resp.Slug,
		IOSURL:          resp.IOSURL,
		AndroidURL:      resp.AndroidURL,
		WebURL:          resp.WebURL,
		FallbackURL:     resp.FallbackURL,
		Parameters:      resp.Parameters,
		SocialMediaTags: resp.SocialMediaTags,
		Metadata:        resp.Metadata,
		Type:            linkType,
		ResolvedAt:      time.Now(),
		RawResponse:     rawMap(resp),
	}

	return data, nil
}

// HandleDeepLink resolves, classifies and publishes an incoming URL.
func (srv *linkService) HandleDeepLink(ctx context.Context, rawURL string) error {
	return srv.handle(ctx, rawURL, false, "")
}

// HandleDeferredDeepLink is the deferred-match variant of HandleDeepLink.
func (srv *linkService) HandleDeferredDeepLink(ctx context.Context, rawURL, matchType string) error {
	return srv.handle(ctx, rawURL, true, matchType)
}

func (srv *linkService) handle(ctx context.Context, rawURL string, isDeferred bool, matchType string) error {
	data, err := srv.ProcessURL(ctx, rawURL)
	if err != nil {
		return err
	}
	if data == nil {
		// Nothing resolved: no publication, no persistence.
		return nil
	}

	data.IsDeferred = isDeferred
	if isDeferred {
		data.MatchType = matchType
	}

	if data.Type == entity.LinkTypeUnified {
		srv.eventBus.Unified.Publish(*data)
	} else {
		srv.eventBus.Dynamic.Publish(*data)
	}
	srv.logger.Info("Deep link handled",
		slog.String("url", rawURL),
		slog.String("type", string(data.Type)),
		slog.Bool("is_deferred", isDeferred))

	if srv.cfg.PersistLastLinkData {
		if err := srv.lastLink.Save(*data); err != nil {
			srv.logger.Warn("Persisting last link failed", slog.Any("error", err))
		}
	}

	return nil
}

// rawMap keeps the decoded response available to subscribers that need
// fields the typed model does not carry.
func rawMap(resp entity.ResolveResponse) map[string]any {
	payload, err := json.Marshal(resp)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil
	}

	return out
}
