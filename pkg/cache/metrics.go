package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (redis, memory).
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blobdirect_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks cache misses by layer.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blobdirect_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"layer"},
	)

	// CacheErrors tracks cache operation errors. A get error is handled as
	// a miss by the resolvers, so this counter is the only place provider
	// failures remain visible.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blobdirect_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "put"
	)
)
