package dirauth_test

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/dirauth/internal/dirauth/devprovider"
	"github.com/aussiebroadwan/dirauth/pkg/dirauth"
	"github.com/aussiebroadwan/dirauth/pkg/tokencache"
)

/*
 * Common constants and helpers for end-to-end acquisition tests. These run
 * the real engine against the real SQLite token cache, with the dev provider
 * minting tokens in place of a live directory service.
 */

const (
	testUsername = "alice@tabs.example.com"
	testPassword = "Admin123!"
	testTenant   = "tabs.example.com"
	testClientID = "e2e-client"
	testResource = "https://api.tabs.example.com"
)

// TestMain pins the cache master key before any test touches the cache, so
// every store in the process seals and opens with the same key.
func TestMain(m *testing.M) {
	os.Setenv("DIRAUTH_MASTER_KEY", "e2e-master-key")
	os.Exit(m.Run())
}

// fakeClock is a settable clock shared by the provider and the engine.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	cache    *tokencache.Store
	provider *devprovider.Provider
	engine   *dirauth.Engine
	clock    *fakeClock
}

// newTestEnv wires a full acquisition stack over a cache file. Calling it
// twice with the same file simulates a process restart against a persisted
// cache.
func newTestEnv(t *testing.T, cacheFile string, opts devprovider.Options) *testEnv {
	t.Helper()

	cache, err := tokencache.Open(fmt.Sprintf("file:%s?_busy_timeout=5000", cacheFile))
	require.NoError(t, err)
	require.NoError(t, cache.ApplyMigrations())
	t.Cleanup(func() { _ = cache.Close() })

	clock := newFakeClock()
	opts.Now = clock.Now
	if opts.SigningSecret == nil {
		opts.SigningSecret = []byte("e2e-signing-secret")
	}
	if opts.Users == nil {
		opts.Users = map[string]string{testUsername: testPassword}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := devprovider.New(opts, logger)

	engine := dirauth.NewEngine(provider,
		dirauth.WithLogger(logger),
		dirauth.WithClock(clock.Now),
	)
	t.Cleanup(engine.Close)

	return &testEnv{cache: cache, provider: provider, engine: engine, clock: clock}
}

func (env *testEnv) config() dirauth.Config {
	return dirauth.Config{
		AuthorityEndpoint: "https://login.tabs.example.com",
		Tenant:            testTenant,
		ClientID:          testClientID,
		Resource:          testResource,
		Cache:             env.cache,
	}
}

func cacheFilePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cache.db")
}

func strPtr(s string) *string { return &s }
