package ulink

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ulink/internal/usecase"
)

// staleGate wraps a bootstrap and reports Completed()==false for a fixed
// number of reads, reproducing a reader that observed the flag just
// before it flipped.
type staleGate struct {
	usecase.BootstrapUsecase

	mu         sync.Mutex
	staleReads int
}

func (g *staleGate) Completed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.staleReads > 0 {
		g.staleReads--

		return false
	}

	return g.BootstrapUsecase.Completed()
}

type hostDeviceInfo struct{}

func (hostDeviceInfo) Snapshot(context.Context) (DeviceSnapshot, error) {
	return DeviceSnapshot{
		Platform:    "ios",
		OSVersion:   "17.4",
		DeviceModel: "iPhone15,2",
	}, nil
}

// fakeBackend serves the SDK endpoints with configurable response bodies
// and per-endpoint call counts.
type fakeBackend struct {
	mu        sync.Mutex
	calls     map[string]int
	bootstrap map[string]any
	resolve   map[string]any
	deferred  map[string]any
	link      map[string]any
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls: make(map[string]int),
		bootstrap: map[string]any{
			"success":            true,
			"installation_token": "tok-1",
			"session_id":         "s1",
		},
		resolve: map[string]any{
			"success":    true,
			"slug":       "abc",
			"web_url":    "https://example.com/page",
			"parameters": map[string]string{"campaign": "launch"},
		},
		deferred: map[string]any{
			"success": true,
			"matched": false,
		},
		link: map[string]any{
			"success":   true,
			"link_id":   "l1",
			"short_url": "https://u.link/abc",
		},
	}
}

func (b *fakeBackend) respond(w http.ResponseWriter, name string, body map[string]any) {
	b.mu.Lock()
	b.calls[name]++
	payload, _ := json.Marshal(body)
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}

func (b *fakeBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/sdk/bootstrap", func(w http.ResponseWriter, _ *http.Request) {
		b.respond(w, "bootstrap", b.bootstrap)
	})
	mux.HandleFunc("/sdk/sessions/start", func(w http.ResponseWriter, _ *http.Request) {
		b.respond(w, "session_start", map[string]any{"success": true, "session_id": "s2"})
	})
	mux.HandleFunc("/sdk/sessions/", func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/end"))
		b.respond(w, "session_end", map[string]any{"success": true})
	})
	mux.HandleFunc("/sdk/links", func(w http.ResponseWriter, _ *http.Request) {
		b.respond(w, "link", b.link)
	})
	mux.HandleFunc("/sdk/resolve", func(w http.ResponseWriter, _ *http.Request) {
		b.respond(w, "resolve", b.resolve)
	})
	mux.HandleFunc("/sdk/deferred/match", func(w http.ResponseWriter, _ *http.Request) {
		b.respond(w, "deferred", b.deferred)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func (b *fakeBackend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.calls[name]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, backend *fakeBackend, mutate func(*Config, *Options)) *Engine {
	t.Helper()
	srv := backend.server(t)
	cfg := &Config{
		APIKey:  "k1",
		BaseURL: srv.URL,
	}
	opts := Options{
		Store:       NewMemoryStore(),
		SecureStore: NewMemoryStore(),
		DeviceInfo:  hostDeviceInfo{},
		Logger:      discardLogger(),
	}
	if mutate != nil {
		mutate(cfg, &opts)
	}

	engine, err := New(cfg, opts)
	require.NoError(t, err)

	return engine
}

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

func TestNewRequiresCollaborators(t *testing.T) {
	cfg := &Config{APIKey: "k1", BaseURL: "https://api.ulink.test"}

	_, err := New(nil, Options{})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = New(cfg, Options{SecureStore: NewMemoryStore(), DeviceInfo: hostDeviceInfo{}})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = New(cfg, Options{Store: NewMemoryStore(), DeviceInfo: hostDeviceInfo{}})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = New(cfg, Options{Store: NewMemoryStore(), SecureStore: NewMemoryStore()})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = New(&Config{BaseURL: "https://api.ulink.test"}, Options{
		Store:       NewMemoryStore(),
		SecureStore: NewMemoryStore(),
		DeviceInfo:  hostDeviceInfo{},
	})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestEngineInitialize(t *testing.T) {
	backend := newFakeBackend()
	engine := newTestEngine(t, backend, nil)

	require.NoError(t, engine.Initialize(context.Background()))
	assert.Equal(t, 1, backend.count("bootstrap"))

	// The backend-opened session is adopted without a session call.
	assert.Equal(t, SessionActive, engine.SessionState())
	session, ok := engine.CurrentSession()
	require.True(t, ok)
	assert.Equal(t, "s1", session.SessionID)
	assert.Equal(t, 0, backend.count("session_start"))

	identity, err := engine.Identity()
	require.NoError(t, err)
	assert.NotEmpty(t, identity.InstallationID)
	assert.Equal(t, "tok-1", identity.InstallationToken)

	info, ok := engine.InstallationInfo()
	require.True(t, ok)
	assert.Equal(t, identity.InstallationID, info.InstallationID)

	// Repeated initialization is a no-op.
	require.NoError(t, engine.Initialize(context.Background()))
	assert.Equal(t, 1, backend.count("bootstrap"))
}

func TestEngineConcurrentInitialize(t *testing.T) {
	backend := newFakeBackend()
	engine := newTestEngine(t, backend, nil)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, engine.Initialize(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, backend.count("bootstrap"))
}

func TestEngineInitializeFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.bootstrap = map[string]any{"success": false, "error": "unknown api key"}
	engine := newTestEngine(t, backend, nil)

	err := engine.Initialize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInitializationFailed)

	var bootErr *BootstrapError
	require.ErrorAs(t, err, &bootErr)
	assert.Equal(t, "unknown api key", bootErr.Message)

	// Gated operations now report the failed initialization.
	assert.ErrorIs(t, engine.StartSession(context.Background(), nil), ErrInitializationFailed)
}

func TestEngineGatedOperationsBeforeInitialize(t *testing.T) {
	backend := newFakeBackend()
	engine := newTestEngine(t, backend, nil)

	assert.ErrorIs(t, engine.StartSession(context.Background(), nil), ErrNotInitialized)
	assert.ErrorIs(t, engine.CheckDeferredLink(context.Background()), ErrNotInitialized)

	result := engine.CreateLink(context.Background(), CreateLinkRequest{Type: LinkTypeDynamic})
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)

	_, err := engine.ProcessURL(context.Background(), "https://u.link/abc")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestEngineReinstallEvent(t *testing.T) {
	backend := newFakeBackend()
	backend.bootstrap = map[string]any{
		"success":                  true,
		"session_id":               "s1",
		"is_reinstall":             true,
		"previous_installation_id": "old-1",
	}
	engine := newTestEngine(t, backend, nil)

	events, cancel := engine.OnReinstall()
	defer cancel()

	require.NoError(t, engine.Initialize(context.Background()))

	select {
	case info := <-events:
		assert.True(t, info.IsReinstall)
		assert.Equal(t, "old-1", info.PreviousInstallationID)
	case <-time.After(time.Second):
		t.Fatal("no reinstall event")
	}

	assert.Equal(t, SessionActive, engine.SessionState())
	session, ok := engine.CurrentSession()
	require.True(t, ok)
	assert.Equal(t, "s1", session.SessionID)

	// Exactly one event: the topic retains only that publication.
	info, ok := engine.InstallationInfo()
	require.True(t, ok)
	assert.True(t, info.IsReinstall)
}

func TestEnginePendingDeepLink(t *testing.T) {
	backend := newFakeBackend()
	engine := newTestEngine(t, backend, func(cfg *Config, _ *Options) {
		cfg.EnableDeepLinkIntegration = true
	})

	events, cancel := engine.OnDynamicLink()
	defer cancel()

	// Before initialization the URL is held, not resolved.
	require.NoError(t, engine.HandleDeepLink(context.Background(), "https://u.link/abc"))
	assert.Equal(t, 0, backend.count("resolve"))

	require.NoError(t, engine.Initialize(context.Background()))

	select {
	case data := <-events:
		assert.Equal(t, "abc", data.Slug)
		assert.False(t, data.IsDeferred)
	case <-time.After(time.Second):
		t.Fatal("pending deep link never resolved")
	}
	assert.Equal(t, 1, backend.count("resolve"))
}

func TestEngineDeepLinkWhileBootstrapCompletes(t *testing.T) {
	backend := newFakeBackend()
	engine := newTestEngine(t, backend, func(cfg *Config, _ *Options) {
		cfg.EnableDeepLinkIntegration = true
	})

	require.NoError(t, engine.Initialize(context.Background()))

	// The gate check observes a pre-completion value while the
	// initialization continuation has already drained an empty pending
	// slot; the URL must still be handled, not stranded.
	engine.bootstrap = &staleGate{BootstrapUsecase: engine.bootstrap, staleReads: 1}

	events, cancel := engine.OnDynamicLink()
	defer cancel()

	require.NoError(t, engine.HandleDeepLink(context.Background(), "https://u.link/abc"))

	select {
	case data := <-events:
		assert.Equal(t, "abc", data.Slug)
	case <-time.After(time.Second):
		t.Fatal("deep link lost across bootstrap completion")
	}
	assert.Equal(t, 1, backend.count("resolve"))

	// Nothing stale is left behind to fire on a redundant initialize.
	require.NoError(t, engine.Initialize(context.Background()))
	assert.Equal(t, 1, backend.count("resolve"))
}

func TestEngineAutoDeferredCheck(t *testing.T) {
	backend := newFakeBackend()
	backend.deferred = map[string]any{
		"success":    true,
		"matched":    true,
		"url":        "https://u.link/welcome",
		"match_type": "probabilistic",
	}
	engine := newTestEngine(t, backend, func(cfg *Config, _ *Options) {
		cfg.AutoCheckDeferredLink = true
	})

	events, cancel := engine.OnDynamicLink()
	defer cancel()

	require.NoError(t, engine.Initialize(context.Background()))

	select {
	case data := <-events:
		assert.True(t, data.IsDeferred)
		assert.Equal(t, "probabilistic", data.MatchType)
		assert.Equal(t, "abc", data.Slug)
	case <-time.After(time.Second):
		t.Fatal("deferred link never delivered")
	}
	assert.Equal(t, 1, backend.count("deferred"))

	// The check is one-shot per installation.
	assert.NoError(t, engine.CheckDeferredLink(context.Background()))
	assert.Equal(t, 1, backend.count("deferred"))
}

func TestEngineSessionLifecycle(t *testing.T) {
	backend := newFakeBackend()
	lifecycle := NewHostLifecycle()
	engine := newTestEngine(t, backend, func(_ *Config, opts *Options) {
		opts.Lifecycle = lifecycle
	})

	require.NoError(t, engine.Initialize(context.Background()))
	require.Equal(t, SessionActive, engine.SessionState())

	lifecycle.NotifyEnteredBackground()
	require.True(t, waitFor(t, time.Second, func() bool {
		return engine.SessionState() == SessionIdle
	}))
	assert.Equal(t, 1, backend.count("session_end"))

	lifecycle.NotifyBecameActive()
	require.True(t, waitFor(t, time.Second, func() bool {
		return engine.SessionState() == SessionActive
	}))
	assert.Equal(t, 1, backend.count("session_start"))

	session, ok := engine.CurrentSession()
	require.True(t, ok)
	assert.Equal(t, "s2", session.SessionID)

	lifecycle.NotifyWillTerminate()
	assert.Equal(t, SessionIdle, engine.SessionState())
	assert.Equal(t, 2, backend.count("session_end"))
}

func TestEngineExplicitSession(t *testing.T) {
	backend := newFakeBackend()
	backend.bootstrap = map[string]any{"success": true}
	engine := newTestEngine(t, backend, nil)

	require.NoError(t, engine.Initialize(context.Background()))
	assert.Equal(t, SessionIdle, engine.SessionState())

	require.NoError(t, engine.StartSession(context.Background(), map[string]string{"source": "test"}))
	assert.True(t, engine.WaitForSession(time.Second))

	ended, err := engine.EndSession(context.Background())
	require.NoError(t, err)
	assert.True(t, ended)
	assert.Equal(t, SessionIdle, engine.SessionState())
}

func TestEngineCreateLinkAndQRCode(t *testing.T) {
	backend := newFakeBackend()
	engine := newTestEngine(t, backend, nil)
	require.NoError(t, engine.Initialize(context.Background()))

	result := engine.CreateLink(context.Background(), CreateLinkRequest{
		Type:        LinkTypeDynamic,
		FallbackURL: "https://example.com",
	})
	require.True(t, result.Success)
	assert.Equal(t, "https://u.link/abc", result.ShortURL)

	png, result := engine.CreateLinkQRCode(context.Background(), CreateLinkRequest{Type: LinkTypeDynamic}, 256)
	require.True(t, result.Success)
	require.NotEmpty(t, png)
	// PNG magic bytes.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestEngineLastLink(t *testing.T) {
	backend := newFakeBackend()
	engine := newTestEngine(t, backend, func(cfg *Config, _ *Options) {
		cfg.EnableDeepLinkIntegration = true
		cfg.PersistLastLinkData = true
		cfg.RedactedParameterKeysInLastLink = []string{"campaign"}
	})
	require.NoError(t, engine.Initialize(context.Background()))

	require.NoError(t, engine.HandleDeepLink(context.Background(), "https://u.link/abc"))

	stored, err := engine.LastLink()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "abc", stored.Slug)
	assert.NotContains(t, stored.Parameters, "campaign")

	require.NoError(t, engine.ClearLastLink())
	stored, err = engine.LastLink()
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestEngineLogStreamInDebug(t *testing.T) {
	backend := newFakeBackend()
	engine := newTestEngine(t, backend, func(cfg *Config, _ *Options) {
		cfg.Debug = true
	})

	logs, cancel := engine.OnLog()
	defer cancel()

	require.NoError(t, engine.Initialize(context.Background()))

	select {
	case entry := <-logs:
		assert.NotEmpty(t, entry.Message)
		assert.NotEmpty(t, entry.Level)
		assert.NotZero(t, entry.TimestampMillis)
	case <-time.After(time.Second):
		t.Fatal("no log entries published")
	}
}
