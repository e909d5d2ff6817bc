// Package metrics documents the Prometheus metrics exposed by the
// redirect proxy. All metrics are defined in their respective packages
// (cache, appview, resolver, server) to maintain modularity and avoid
// circular dependencies.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the proxy. All
// metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - blobdirect_cache_hits_total{layer} (Counter): Cache hits by layer (redis, memory)
//   - blobdirect_cache_misses_total{layer} (Counter): Cache misses by layer
//   - blobdirect_cache_errors_total{operation} (Counter): Cache operation errors
//
// Upstream Metrics (pkg/appview):
//   - blobdirect_upstream_requests_total{endpoint, status} (Counter): Upstream requests
//   - blobdirect_upstream_request_duration_seconds{endpoint} (Histogram): Upstream latency
//
// Resolution Metrics (pkg/resolver):
//   - blobdirect_resolutions_total{resolver, outcome} (Counter): Resolutions by
//     resolver and outcome (hit, miss, not_found)
//
// Request Metrics (pkg/server):
//   - blobdirect_requests_total{outcome} (Counter): Requests by outcome (redirect, not_found)
//   - blobdirect_request_duration_seconds (Histogram): End-to-end request duration
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(blobdirect_cache_hits_total[5m])) /
//   (sum(rate(blobdirect_cache_hits_total[5m])) + sum(rate(blobdirect_cache_misses_total[5m])))
//
//   # Not-Found Ratio
//   sum(rate(blobdirect_requests_total{outcome="not_found"}[5m])) /
//   sum(rate(blobdirect_requests_total[5m]))
