package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/federationstudio/blob-direct/internal/testutil"
	"github.com/federationstudio/blob-direct/pkg/appview"
	"github.com/federationstudio/blob-direct/pkg/cache"
	"github.com/federationstudio/blob-direct/pkg/resolver"
	"github.com/federationstudio/blob-direct/pkg/server"
)

const (
	testDID      = "did:plc:abc123"
	testHomepage = "https://github.com/federationstudio/blob-direct"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// setupServer wires the full pipeline against a mock AppView and a
// redis-backed cache.
func setupServer(t *testing.T, mock *testutil.MockAppView, redisClient *redis.Client) *server.Server {
	t.Helper()

	client, err := appview.New(appview.Config{
		BaseURL:   mock.URL(),
		PDSURL:    mock.URL(),
		UserAgent: "blob-direct-test/1.0",
		Timeout:   5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create appview client: %v", err)
	}

	store := cache.NewRedisStore(redisClient, "blobdirect")
	resolvers := resolver.New(client, store, resolver.DefaultConfig())
	dispatcher := resolver.NewDispatcher(resolvers, testHomepage)

	return server.New(server.Config{Host: "127.0.0.1", Port: "0"}, dispatcher)
}

func doRequest(s *server.Server, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

// TestFullResolveFlow runs handle → profile → redirect through the HTTP
// surface with the cache in redis: Parse → Resolve Identity → Resolve
// Media → Cache Store.
func TestFullResolveFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAppView()
	defer mock.Close()

	mock.SetHandle(testDID)
	mock.SetProfile(testDID, "https://cdn.example/img/avatar/plain/"+testDID+"/cidX@jpeg", "")

	s := setupServer(t, mock, redisClient)

	// Request 1: cold cache, both identity and avatar resolved upstream.
	t.Log("Request 1: full flow - cache miss")
	rec1 := doRequest(s, "/alice.bsky.social/avatar@png")
	if rec1.Code != http.StatusFound {
		t.Fatalf("Request 1 status = %d, want 302", rec1.Code)
	}
	want := "https://cdn.example/img/avatar/plain/" + testDID + "/cidX@png"
	if got := rec1.Header().Get("Location"); got != want {
		t.Errorf("Request 1 Location = %q, want %q", got, want)
	}
	if mock.GetPathCount(testutil.PathResolveHandle) != 1 {
		t.Errorf("resolveHandle calls = %d, want 1", mock.GetPathCount(testutil.PathResolveHandle))
	}
	if mock.GetPathCount(testutil.PathGetProfile) != 1 {
		t.Errorf("getProfile calls = %d, want 1", mock.GetPathCount(testutil.PathGetProfile))
	}

	// Both layers are now in redis, keyed under the namespace.
	ctx := context.Background()
	if err := redisClient.Get(ctx, "blobdirect:identity:alice.bsky.social").Err(); err != nil {
		t.Errorf("identity not cached in redis: %v", err)
	}
	if err := redisClient.Get(ctx, "blobdirect:avatar:"+testDID).Err(); err != nil {
		t.Errorf("avatar not cached in redis: %v", err)
	}

	// Request 2: warm cache, no upstream traffic at all.
	t.Log("Request 2: warm cache")
	mock.Reset()
	rec2 := doRequest(s, "/alice.bsky.social/avatar@png")
	if rec2.Code != http.StatusFound {
		t.Fatalf("Request 2 status = %d, want 302", rec2.Code)
	}
	if got := rec2.Header().Get("Location"); got != want {
		t.Errorf("Request 2 Location = %q, want %q", got, want)
	}
	if n := mock.GetRequestCount(); n != 0 {
		t.Errorf("upstream requests on warm cache = %d, want 0", n)
	}
}

// TestThumbnailServedFromCanonicalEntry verifies the size variant reuses
// the cached full-size entry instead of refetching.
func TestThumbnailServedFromCanonicalEntry(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAppView()
	defer mock.Close()
	mock.SetProfile(testDID, "https://cdn.example/img/avatar/plain/"+testDID+"/cidX@jpeg", "")

	s := setupServer(t, mock, redisClient)

	rec1 := doRequest(s, "/"+testDID+"/avatar")
	if rec1.Code != http.StatusFound {
		t.Fatalf("warm-up status = %d, want 302", rec1.Code)
	}

	mock.Reset()
	rec2 := doRequest(s, "/"+testDID+"/avatar-thumb@webp")
	if rec2.Code != http.StatusFound {
		t.Fatalf("thumb status = %d, want 302", rec2.Code)
	}
	want := "https://cdn.example/img/avatar_thumbnail/plain/" + testDID + "/cidX@webp"
	if got := rec2.Header().Get("Location"); got != want {
		t.Errorf("thumb Location = %q, want %q", got, want)
	}
	if n := mock.GetRequestCount(); n != 0 {
		t.Errorf("upstream requests for size variant = %d, want 0", n)
	}
}

// TestUpstreamFailureLeavesNoCacheEntry verifies failed lookups are
// never written to the cache and later requests retry upstream.
func TestUpstreamFailureLeavesNoCacheEntry(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAppView()
	defer mock.Close()
	mock.FailWith(testutil.PathResolveHandle, 502)

	s := setupServer(t, mock, redisClient)

	rec := doRequest(s, "/alice.bsky.social/avatar")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	ctx := context.Background()
	if err := redisClient.Get(ctx, "blobdirect:identity:alice.bsky.social").Err(); err != redis.Nil {
		t.Errorf("identity key present after failure: %v", err)
	}

	// Upstream recovers; the next request succeeds without a poisoned
	// cache in the way.
	mock.Reset()
	mock.SetHandle(testDID)
	mock.SetProfile(testDID, "https://cdn.example/img/avatar/plain/"+testDID+"/cidX@jpeg", "")

	rec2 := doRequest(s, "/alice.bsky.social/avatar")
	if rec2.Code != http.StatusFound {
		t.Errorf("status after recovery = %d, want 302", rec2.Code)
	}
}

// TestRedisUnavailableFailsOpen verifies cache backend loss degrades to
// upstream resolution instead of request failure.
func TestRedisUnavailableFailsOpen(t *testing.T) {
	redisClient, cleanup := setupRedis(t)

	mock := testutil.NewMockAppView()
	defer mock.Close()
	mock.SetProfile(testDID, "https://cdn.example/img/avatar/plain/"+testDID+"/cidX@jpeg", "")

	s := setupServer(t, mock, redisClient)

	// Kill redis before the first request.
	cleanup()

	rec := doRequest(s, "/"+testDID+"/avatar")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302 despite cache backend loss", rec.Code)
	}
	want := "https://cdn.example/img/avatar/plain/" + testDID + "/cidX@jpeg"
	if got := rec.Header().Get("Location"); got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
}

// TestBlobRedirectCached verifies the verified blob target lands in
// redis and is replayed without touching the PDS again.
func TestBlobRedirectCached(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAppView()
	defer mock.Close()
	mock.SetBlobRedirect("https://storage.example/blobs/bafyreiblob")

	s := setupServer(t, mock, redisClient)

	rec1 := doRequest(s, "/"+testDID+"/blob/bafyreiblob")
	if rec1.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec1.Code)
	}
	if got := rec1.Header().Get("Location"); got != "https://storage.example/blobs/bafyreiblob" {
		t.Errorf("Location = %q", got)
	}

	mock.Reset()
	rec2 := doRequest(s, "/"+testDID+"/blob/bafyreiblob")
	if rec2.Code != http.StatusFound {
		t.Fatalf("repeat status = %d, want 302", rec2.Code)
	}
	if n := mock.GetPathCount(testutil.PathGetBlob); n != 0 {
		t.Errorf("getBlob calls on warm cache = %d, want 0", n)
	}
}

// TestCacheExpiration verifies an expired entry forces a fresh upstream
// resolution.
func TestCacheExpiration(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAppView()
	defer mock.Close()
	mock.SetProfile(testDID, "https://cdn.example/img/avatar/plain/"+testDID+"/cidX@jpeg", "")

	client, err := appview.New(appview.Config{
		BaseURL:   mock.URL(),
		PDSURL:    mock.URL(),
		UserAgent: "blob-direct-test/1.0",
		Timeout:   5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create appview client: %v", err)
	}

	store := cache.NewRedisStore(redisClient, "blobdirect")
	cfg := resolver.DefaultConfig()
	cfg.ProfileTTL = time.Second
	resolvers := resolver.New(client, store, cfg)
	dispatcher := resolver.NewDispatcher(resolvers, testHomepage)
	s := server.New(server.Config{Host: "127.0.0.1", Port: "0"}, dispatcher)

	rec1 := doRequest(s, "/"+testDID+"/avatar")
	if rec1.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec1.Code)
	}
	if n := mock.GetPathCount(testutil.PathGetProfile); n != 1 {
		t.Fatalf("getProfile calls = %d, want 1", n)
	}

	time.Sleep(1500 * time.Millisecond)

	rec2 := doRequest(s, "/"+testDID+"/avatar")
	if rec2.Code != http.StatusFound {
		t.Fatalf("status after expiry = %d, want 302", rec2.Code)
	}
	if n := mock.GetPathCount(testutil.PathGetProfile); n != 2 {
		t.Errorf("getProfile calls after expiry = %d, want 2", n)
	}
}
