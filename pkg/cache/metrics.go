package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks reads served from a fresh entry
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitnotes_cache_hits_total",
			Help: "Total number of query cache hits",
		},
		[]string{"family"},
	)

	// CacheMisses tracks reads that required a fetch
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitnotes_cache_misses_total",
			Help: "Total number of query cache misses",
		},
		[]string{"family"},
	)

	// DedupedFetches tracks callers that shared another caller's in-flight fetch
	DedupedFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitnotes_cache_dedup_total",
			Help: "Total number of fetches served by a concurrent in-flight request",
		},
		[]string{"family"},
	)

	// Invalidations tracks entries marked stale
	Invalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitnotes_cache_invalidations_total",
			Help: "Total number of cache entries invalidated",
		},
		[]string{"prefix"},
	)

	// FetchErrors tracks fetches that failed after all retries
	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitnotes_cache_fetch_errors_total",
			Help: "Total number of failed cache fetches",
		},
		[]string{"family"},
	)

	// FetchRetries tracks retry attempts
	FetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitnotes_cache_retries_total",
			Help: "Total number of fetch retry attempts",
		},
		[]string{"family"},
	)

	// StoreErrors tracks store operation errors
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitnotes_cache_store_errors_total",
			Help: "Total number of cache store operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "scan"
	)
)
