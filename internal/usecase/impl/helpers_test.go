package impl

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	"ulink/config"
	"ulink/internal/domain/entity"
	"ulink/internal/domain/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := &config.Config{
		APIKey:  "k1",
		BaseURL: "https://api.ulink.test",
	}
	cfg.Normalize()

	return cfg
}

// fakeStore is an in-memory Store/SecureStore with optional failure
// injection.
type fakeStore struct {
	mu      sync.Mutex
	values  map[string]string
	failSet error
	failGet error
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string]string)}
}

func (s *fakeStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return "", s.failGet
	}
	v, ok := s.values[key]
	if !ok {
		return "", repository.ErrKeyNotFound
	}

	return v, nil
}

func (s *fakeStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	s.values[key] = value

	return nil
}

func (s *fakeStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)

	return nil
}

func (s *fakeStore) value(t *testing.T, key string) (string, bool) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]

	return v, ok
}

// fakeAPIClient satisfies service.APIClient and service.IdentityCarrier.
// Per-path handlers are swappable; call counts are tracked per path.
type fakeAPIClient struct {
	mu       sync.Mutex
	postFn   func(path string, body any, out any) (int, error)
	getFn    func(path string, query url.Values, out any) (int, error)
	calls    map[string]int
	identity map[string]string
}

func newFakeAPIClient() *fakeAPIClient {
	return &fakeAPIClient{
		calls:    make(map[string]int),
		identity: make(map[string]string),
	}
}

func (c *fakeAPIClient) PostJSON(_ context.Context, path string, body any, out any) (int, error) {
	c.mu.Lock()
	c.calls[path]++
	fn := c.postFn
	c.mu.Unlock()
	if fn == nil {
		return 200, nil
	}

	return fn(path, body, out)
}

func (c *fakeAPIClient) GetJSON(_ context.Context, path string, query url.Values, out any) (int, error) {
	c.mu.Lock()
	c.calls[path]++
	fn := c.getFn
	c.mu.Unlock()
	if fn == nil {
		return 200, nil
	}

	return fn(path, query, out)
}

func (c *fakeAPIClient) callCount(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls[path]
}

func (c *fakeAPIClient) SetInstallationID(id string) { c.setIdentity("installation_id", id) }

func (c *fakeAPIClient) SetInstallationToken(token string) {
	c.setIdentity("installation_token", token)
}

func (c *fakeAPIClient) SetDeviceID(id string) { c.setIdentity("device_id", id) }

func (c *fakeAPIClient) SetPlatform(platform string) { c.setIdentity("platform", platform) }

func (c *fakeAPIClient) setIdentity(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity[key] = value
}

// fakeDeviceInfo satisfies service.DeviceInfoProvider.
type fakeDeviceInfo struct {
	snap entity.DeviceSnapshot
	err  error
}

func (d *fakeDeviceInfo) Snapshot(context.Context) (entity.DeviceSnapshot, error) {
	return d.snap, d.err
}

// fakeBootstrap satisfies usecase.BootstrapUsecase for gating tests.
type fakeBootstrap struct {
	err error
}

func (b *fakeBootstrap) Initialize(context.Context) error { return b.err }
func (b *fakeBootstrap) RetrySilently(context.Context)    {}
func (b *fakeBootstrap) EnsureCompleted() error           { return b.err }
func (b *fakeBootstrap) Completed() bool                  { return b.err == nil }
func (b *fakeBootstrap) InstallationInfo() (entity.InstallationInfo, bool) {
	return entity.InstallationInfo{}, false
}

// fakeLinks records deferred deep-link invocations.
type fakeLinks struct {
	mu        sync.Mutex
	deferred  []string
	matchType string
}

func (l *fakeLinks) CreateLink(context.Context, entity.CreateLinkRequest) entity.CreateLinkResult {
	return entity.CreateLinkResult{}
}

func (l *fakeLinks) CreateLinkQRCode(context.Context, entity.CreateLinkRequest, int) ([]byte, entity.CreateLinkResult) {
	return nil, entity.CreateLinkResult{}
}

func (l *fakeLinks) ProcessURL(context.Context, string) (*entity.ResolvedLinkData, error) {
	return nil, nil
}

func (l *fakeLinks) HandleDeepLink(context.Context, string) error { return nil }

func (l *fakeLinks) HandleDeferredDeepLink(_ context.Context, rawURL, matchType string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deferred = append(l.deferred, rawURL)
	l.matchType = matchType

	return nil
}

func (l *fakeLinks) deferredCalls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.deferred...)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}

	return cond()
}
