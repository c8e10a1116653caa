// Package metrics exposes the Prometheus registry used by the feed client.
// All metrics are defined in their respective packages (cache, fetch, feed)
// to maintain modularity and avoid circular dependencies.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the feed client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves every registered metric in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - feed_cache_hits_total{layer} (Counter): Fresh entries served
//   - feed_cache_misses_total{layer} (Counter): Absent or stale entries
//   - feed_cache_evictions_total{layer} (Counter): FIFO evictions
//   - feed_cache_entries{layer} (Gauge): Current number of entries
//   - feed_cache_errors_total{operation} (Counter): Backend errors
//
// Upstream Metrics (pkg/fetch):
//   - feed_upstream_requests_total{status} (Counter): Attempts by HTTP status or error class
//   - feed_upstream_request_duration_seconds (Histogram): Attempt duration
//   - feed_upstream_retries_total{error_class} (Counter): Retries by error class
//   - feed_upstream_retry_backoff_seconds{error_class} (Histogram): Backoff duration
//   - feed_upstream_retry_exhausted_total{error_class} (Counter): Requests that used every retry
//
// Service Metrics (pkg/feed):
//   - feed_requests_total{category, outcome} (Counter): FetchProducts calls by outcome
//   - feed_request_duration_seconds{category} (Histogram): FetchProducts duration
//   - feed_hot_subfetch_failures_total{category} (Counter): Absorbed Hot sub-fetch failures
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(feed_cache_hits_total[5m])) /
//   (sum(rate(feed_cache_hits_total[5m])) + sum(rate(feed_cache_misses_total[5m])))
//
//   # Upstream failure classes
//   sum by (error_class) (rate(feed_upstream_retry_exhausted_total[5m]))
//
//   # Categories dropping out of Hot
//   rate(feed_hot_subfetch_failures_total[15m]) > 0
