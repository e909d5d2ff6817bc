// Package cache provides the read-through cache used by the resolution
// pipeline, with a redis backend for deployments and an in-process
// backend for single-node use and tests.
//
// Values are plain strings only: either a fully-formed target URL or a
// canonical identity. Keeping the value shape provider-agnostic is
// deliberate; resolvers never cache structured data or error states.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss indicates the requested key was not found in the store.
var ErrCacheMiss = errors.New("cache miss")

// Store is the provider-agnostic get/put-with-TTL capability consumed by
// the resolvers. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or ErrCacheMiss if absent or expired.
	Get(ctx context.Context, key string) (string, error)

	// Put stores value under key for the given TTL. Writes are idempotent
	// last-write-wins puts of freshly computed canonical values.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
}
