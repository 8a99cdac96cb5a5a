// Package cache implements the query cache behind the gist client.
//
// Every logical request (resource family + filter + pagination position) maps
// to a deterministic Key. The Manager serves fresh entries directly, collapses
// concurrent misses for the same key into a single underlying fetch, and keeps
// a per-entry state machine:
//
//	fresh ──invalidate/expire──▶ stale ──fetch-start──▶ fetching
//	  ▲                                                   │
//	  └────────────────fetch-success──────────────────────┤
//	                                                      ▼
//	                                    error ◀──fetch-failure
//
// # Basic Usage
//
//	manager := cache.NewManager(cache.NewMemoryStore(), logger)
//
//	key := cache.Key{
//		Family: cache.FamilyGistDetail,
//		Filter: map[string]string{"id": "aa5a315d61ae9438b18d"},
//	}
//
//	gist, err := cache.Get(ctx, manager, key, func(ctx context.Context) (*gist.Gist, error) {
//		return api.Get(ctx, "aa5a315d61ae9438b18d")
//	})
//
// # Mutations
//
// State-changing operations never read through the cache. After they succeed
// the caller writes the known result with SetData and marks dependent
// families stale with Invalidate:
//
//	_ = manager.SetData(ctx, starKey, true)
//	_, _ = manager.Invalidate(ctx, cache.FamilyStarred.Prefix())
//
// # Storage
//
// Entries live in a Store. MemoryStore is the default; RedisStore shares
// entries between processes. Neither evicts entries on its own.
//
// # Metrics
//
//   - gitnotes_cache_hits_total{family}
//   - gitnotes_cache_misses_total{family}
//   - gitnotes_cache_dedup_total{family} - callers that waited on another caller's fetch
//   - gitnotes_cache_invalidations_total{prefix}
//   - gitnotes_cache_fetch_errors_total{family}
//   - gitnotes_cache_retries_total{family}
//   - gitnotes_cache_store_errors_total{operation}
package cache
