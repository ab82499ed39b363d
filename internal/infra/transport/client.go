// Package transport implements the JSON API client for the ULink backend.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"ulink/config"
	domainerrors "ulink/internal/domain/errors"
	"ulink/internal/errors"
)

// Client identification reported with every request.
const (
	ClientName    = "ulink-go"
	ClientVersion = "1.0.0"
)

// Request headers understood by the backend.
const (
	HeaderAppKey            = "X-App-Key"
	HeaderInstallationToken = "X-Installation-Token"
	HeaderInstallationID    = "X-Installation-Id"
	HeaderDeviceID          = "X-Device-Id"
	HeaderClient            = "X-ULink-Client"
	HeaderClientVersion     = "X-ULink-Client-Version"
	HeaderClientPlatform    = "X-ULink-Client-Platform"
)

// Client is the net/http-backed service.APIClient. Identity headers are
// filled in as they become known (installation id before bootstrap, token
// after); absent values are simply not sent.
type Client struct {
	baseURL string
	apiKey  string
	httpCli *http.Client
	logger  *slog.Logger

	mu                sync.RWMutex
	installationID    string
	installationToken string
	deviceID          string
	platform          string
}

// New creates a client for the configured base URL.
func New(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpCli: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:  logger,
	}
}

// SetInstallationID records the installation id header value.
func (c *Client) SetInstallationID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.installationID = id
}

// SetInstallationToken records the installation token header value.
func (c *Client) SetInstallationToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.installationToken = token
}

// SetDeviceID records the persistent device id header value.
func (c *Client) SetDeviceID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deviceID = id
}

// SetPlatform records the client platform header value.
func (c *Client) SetPlatform(platform string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.platform = platform
}

// PostJSON sends body as JSON to path and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, body any, out any) (int, error) {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// GetJSON issues a GET to path with query parameters and decodes the
// response into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) (int, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) (int, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, errors.Wrap(err, "marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, errors.Wrap(err, "build request")
	}
	c.setHeaders(req)

	c.logger.Debug("Sending request", slog.String("method", method), slog.String("path", path))

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return 0, &domainerrors.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &domainerrors.NetworkError{Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Decode error detail on a best-effort basis; the typed error
		// carries the raw body either way.
		if out != nil {
			_ = json.Unmarshal(raw, out)
		}
		c.logger.Debug("Request failed", slog.String("path", path), slog.Int("status", resp.StatusCode))

		return resp.StatusCode, &domainerrors.HTTPError{Status: resp.StatusCode, Body: string(raw)}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, domainerrors.ErrInvalidResponse.WrapMessage(err.Error())
		}
	}

	return resp.StatusCode, nil
}

func (c *Client) setHeaders(req *http.Request) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderAppKey, c.apiKey)
	req.Header.Set(HeaderClient, ClientName)
	req.Header.Set(HeaderClientVersion, ClientVersion)
	if c.installationToken != "" {
		req.Header.Set(HeaderInstallationToken, c.installationToken)
	}
	if c.installationID != "" {
		req.Header.Set(HeaderInstallationID, c.installationID)
	}
	if c.deviceID != "" {
		req.Header.Set(HeaderDeviceID, c.deviceID)
	}
	if c.platform != "" {
		req.Header.Set(HeaderClientPlatform, c.platform)
	}
}
