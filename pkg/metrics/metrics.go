// Package metrics exposes the Prometheus registry used by git-notes.
// All metrics are defined in their respective packages (cache, client,
// ratelimit) via promauto and land in the default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by git-notes.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - gitnotes_cache_hits_total{family} (Counter): Fresh entries served
//   - gitnotes_cache_misses_total{family} (Counter): Reads that needed a fetch
//   - gitnotes_cache_dedup_total{family} (Counter): Callers that shared an in-flight fetch
//   - gitnotes_cache_invalidations_total{prefix} (Counter): Entries marked stale
//   - gitnotes_cache_fetch_errors_total{family} (Counter): Failed fetches after retries
//   - gitnotes_cache_retries_total{family} (Counter): Retry attempts
//   - gitnotes_cache_store_errors_total{operation} (Counter): Redis store failures
//
// Request Metrics (pkg/client):
//   - gitnotes_github_requests_total{method, status} (Counter): Requests by method and HTTP status
//   - gitnotes_github_request_duration_seconds{method} (Histogram): Request duration
//   - gitnotes_github_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - gitnotes_github_rate_limit_remaining (Gauge): Requests left in the window
//   - gitnotes_github_rate_limit_blocks_total (Counter): Requests blocked locally
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(gitnotes_cache_hits_total[5m])) /
//   (sum(rate(gitnotes_cache_hits_total[5m])) + sum(rate(gitnotes_cache_misses_total[5m])))
//
//   # Rate Limit Budget
//   gitnotes_github_rate_limit_remaining < 100
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(gitnotes_github_request_duration_seconds_bucket[5m]))
