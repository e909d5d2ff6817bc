package resolver

import (
	"context"
	"testing"

	"github.com/federationstudio/blob-direct/internal/testutil"
)

func TestResolveIdentity_CanonicalPassthrough(t *testing.T) {
	mock := testutil.NewMockAppView()
	defer mock.Close()

	store := newRecordingStore()
	resolvers := newTestResolvers(t, mock, store)

	did, err := resolvers.ResolveIdentity(context.Background(), "did:plc:abc123")
	if err != nil {
		t.Fatalf("ResolveIdentity() error = %v", err)
	}
	if did != "did:plc:abc123" {
		t.Errorf("ResolveIdentity() = %q, want input unchanged", did)
	}

	if gets, puts := store.counts(); gets != 0 || puts != 0 {
		t.Errorf("cache accessed for canonical input: gets=%d puts=%d", gets, puts)
	}
	if n := mock.GetRequestCount(); n != 0 {
		t.Errorf("upstream called for canonical input: %d requests", n)
	}
}

func TestResolveIdentity_HandleResolvedAndCached(t *testing.T) {
	mock := testutil.NewMockAppView()
	defer mock.Close()
	mock.SetHandle("did:plc:abc123")

	store := newRecordingStore()
	resolvers := newTestResolvers(t, mock, store)
	ctx := context.Background()

	did, err := resolvers.ResolveIdentity(ctx, "alice.bsky.social")
	if err != nil {
		t.Fatalf("ResolveIdentity() error = %v", err)
	}
	if did != "did:plc:abc123" {
		t.Errorf("ResolveIdentity() = %q, want %q", did, "did:plc:abc123")
	}

	if value, ok := store.value("identity:alice.bsky.social"); !ok || value != "did:plc:abc123" {
		t.Errorf("identity not cached: value=%q ok=%v", value, ok)
	}

	// Second resolution is served from cache with no upstream call.
	mock.Reset()
	did2, err := resolvers.ResolveIdentity(ctx, "alice.bsky.social")
	if err != nil {
		t.Fatalf("second ResolveIdentity() error = %v", err)
	}
	if did2 != did {
		t.Errorf("second resolution = %q, want %q", did2, did)
	}
	if n := mock.GetRequestCount(); n != 0 {
		t.Errorf("upstream called on cache hit: %d requests", n)
	}
}

func TestResolveIdentity_UpstreamFailureIsNotFound(t *testing.T) {
	mock := testutil.NewMockAppView()
	defer mock.Close()
	// No handle configured: resolveHandle answers 404.

	store := newRecordingStore()
	resolvers := newTestResolvers(t, mock, store)

	_, err := resolvers.ResolveIdentity(context.Background(), "gone.bsky.social")
	if err == nil {
		t.Fatal("ResolveIdentity() expected error")
	}

	// Failure must not be cached.
	if _, puts := store.counts(); puts != 0 {
		t.Errorf("cache written on failed resolution: puts=%d", puts)
	}
}

func TestResolveIdentity_CacheErrorFailsOpen(t *testing.T) {
	mock := testutil.NewMockAppView()
	defer mock.Close()
	mock.SetHandle("did:plc:abc123")

	store := newRecordingStore()
	store.getErr = context.DeadlineExceeded

	resolvers := newTestResolvers(t, mock, store)

	did, err := resolvers.ResolveIdentity(context.Background(), "alice.bsky.social")
	if err != nil {
		t.Fatalf("ResolveIdentity() error = %v", err)
	}
	if did != "did:plc:abc123" {
		t.Errorf("ResolveIdentity() = %q, want upstream result despite cache error", did)
	}
	if n := mock.GetPathCount(testutil.PathResolveHandle); n != 1 {
		t.Errorf("upstream calls = %d, want 1", n)
	}
}
