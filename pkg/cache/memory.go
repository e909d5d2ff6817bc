package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore implements Store in process memory. It serves single-node
// deployments without a redis instance and keeps unit tests hermetic.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates an in-process store. Expired entries are purged
// in the background every cleanupInterval.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// Get retrieves a value by key. Returns ErrCacheMiss if the key doesn't
// exist or has expired.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	value, found := s.cache.Get(key)
	if !found {
		CacheMisses.WithLabelValues("memory").Inc()
		return "", ErrCacheMiss
	}

	CacheHits.WithLabelValues("memory").Inc()
	return value.(string), nil
}

// Put stores a value with the given TTL. Entries with a non-positive TTL
// are not cached.
func (s *MemoryStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	s.cache.Set(key, value, ttl)
	return nil
}
