package resolver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/federationstudio/blob-direct/internal/testutil"
	"github.com/federationstudio/blob-direct/pkg/appview"
	"github.com/federationstudio/blob-direct/pkg/cache"
)

// recordingStore is an in-memory cache.Store that counts operations, so
// tests can assert which pipeline steps touched the cache.
type recordingStore struct {
	mu     sync.Mutex
	data   map[string]string
	ttls   map[string]time.Duration
	gets   int
	puts   int
	getErr error
	putErr error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (s *recordingStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return "", s.getErr
	}
	value, ok := s.data[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return value, nil
}

func (s *recordingStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.data[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *recordingStore) counts() (gets, puts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets, s.puts
}

func (s *recordingStore) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	return value, ok
}

// newTestResolvers wires a resolver set to a mock AppView and the given
// store.
func newTestResolvers(t *testing.T, mock *testutil.MockAppView, store cache.Store) *Resolvers {
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

	return New(client, store, DefaultConfig())
}
