package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// FetchFunc performs the underlying request for a key and returns the JSON
// encoded value.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Manager is the query cache: per-key freshness, request deduplication,
// optimistic writes and prefix invalidation on top of a Store.
type Manager struct {
	store    Store
	group    singleflight.Group
	policies map[Family]Policy
	now      func() time.Time
	logger   zerolog.Logger

	// mu serialises read-modify-write cycles on stored entries.
	mu sync.Mutex
}

// NewManager creates a cache manager over store with the default policies.
func NewManager(store Store, logger zerolog.Logger) *Manager {
	if store == nil {
		panic("cache store cannot be nil")
	}
	return &Manager{
		store:    store,
		policies: DefaultPolicies(),
		now:      time.Now,
		logger:   logger.With().Str("component", "cache").Logger(),
	}
}

// SetPolicy overrides the policy of one family.
func (m *Manager) SetPolicy(family Family, policy Policy) {
	m.policies[family] = policy
}

// Policy returns the policy of a family.
func (m *Manager) Policy(family Family) Policy {
	return m.policies[family]
}

// SetClock replaces the time source (for testing).
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// Fetch returns the value for key, calling fn only when no fresh entry exists.
//
// Concurrent calls for the same key share one call to fn and observe the
// same result. When fn fails the previously cached value (possibly nil) is
// returned together with the error.
func (m *Manager) Fetch(ctx context.Context, key Key, fn FetchFunc) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	k := key.String()
	family := string(key.Family)

	entry, err := m.load(ctx, k)
	if err != nil {
		m.logger.Warn().Err(err).Str("key", k).Msg("Cache get error")
	}
	if entry != nil && m.isFresh(ctx, k, entry) {
		CacheHits.WithLabelValues(family).Inc()
		m.logger.Debug().Str("key", k).Msg("Cache hit")
		return entry.Data, nil
	}
	CacheMisses.WithLabelValues(family).Inc()

	// The fetch outlives any single caller: followers still need the result
	// when the leader's context is cancelled.
	fetchCtx := context.WithoutCancel(ctx)
	leader := false
	v, err, shared := m.group.Do(k, func() (any, error) {
		leader = true
		// A flight that completed between our read and Do already stored
		// a fresh value.
		if current, _ := m.load(fetchCtx, k); current != nil &&
			current.State == StateFresh && !current.IsExpired(m.now()) {
			return current.Data, nil
		}
		return m.refresh(fetchCtx, key, k, fn)
	})
	// shared is also set for the caller that ran the flight.
	if shared && !leader {
		DedupedFetches.WithLabelValues(family).Inc()
	}

	data, _ := v.([]byte)
	return data, err
}

// Get is the typed form of Fetch: fn's result is stored as JSON and decoded
// for every caller. On failure the previous value (or the zero value) is
// returned with the error.
func Get[T any](ctx context.Context, m *Manager, key Key, fn func(context.Context) (T, error)) (T, error) {
	var out T

	data, fetchErr := m.Fetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key.Family, err)
		}
		return encoded, nil
	})

	if data != nil {
		if err := json.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("%w: decode %s: %v", ErrInvalidEntry, key, err)
		}
	}
	return out, fetchErr
}

// Peek returns the entry stored under key without fetching.
func (m *Manager) Peek(ctx context.Context, key Key) (*Entry, error) {
	entry, err := m.load(ctx, key.String())
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrCacheMiss
	}
	return entry, nil
}

// SetData writes a known value into key's slot as a fresh entry without
// contacting the origin.
func (m *Manager) SetData(ctx context.Context, key Key, value any) error {
	if err := key.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key.Family, err)
	}

	k := key.String()
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, err := m.load(ctx, k)
	if err != nil {
		m.logger.Warn().Err(err).Str("key", k).Msg("Cache get error")
	}
	if entry == nil {
		entry = newEntry()
	}
	if err := entry.Apply(EventFetchSuccess); err != nil {
		return err
	}

	now := m.now()
	entry.Data = data
	entry.Err = ""
	entry.FetchedAt = now
	entry.Deadline = now.Add(m.policies[key.Family].StaleTime)
	entry.Generation++

	if err := m.store.Set(ctx, k, entry); err != nil {
		return fmt.Errorf("store %s: %w", k, err)
	}

	m.logger.Debug().Str("key", k).Msg("Cache slot written")
	return nil
}

// Invalidate marks every entry under prefix stale so its next read
// re-fetches. It returns the number of entries touched.
func (m *Manager) Invalidate(ctx context.Context, prefix string) (int, error) {
	keys, err := m.store.Keys(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("list keys under %q: %w", prefix, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	count := 0
	for _, k := range keys {
		entry, err := m.store.Get(ctx, k)
		if errors.Is(err, ErrCacheMiss) {
			continue
		}
		if err != nil {
			return count, fmt.Errorf("load %s: %w", k, err)
		}

		if err := entry.Apply(EventInvalidate); err != nil {
			return count, err
		}
		entry.InvalidatedAt = now
		entry.Generation++

		if err := m.store.Set(ctx, k, entry); err != nil {
			return count, fmt.Errorf("store %s: %w", k, err)
		}
		count++
	}

	Invalidations.WithLabelValues(prefix).Add(float64(count))
	m.logger.Debug().
		Str("prefix", prefix).
		Int("entries", count).
		Msg("Cache entries invalidated")

	return count, nil
}

// Clear removes every entry.
func (m *Manager) Clear(ctx context.Context) error {
	keys, err := m.store.Keys(ctx, "")
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		if err := m.store.Delete(ctx, k); err != nil {
			return err
		}
	}

	m.logger.Debug().Int("entries", len(keys)).Msg("Cache cleared")
	return nil
}

// refresh runs one fetch for key and records the outcome. It returns the
// previous value alongside the error when the fetch fails.
func (m *Manager) refresh(ctx context.Context, key Key, k string, fn FetchFunc) ([]byte, error) {
	policy := m.policies[key.Family]

	var previous []byte
	var generation uint64
	m.update(ctx, k, func(entry *Entry) error {
		previous = entry.Data
		generation = entry.Generation
		return entry.Apply(EventFetchStart)
	})

	m.logger.Debug().Str("key", k).Msg("Fetching")
	data, fetchErr := retryWithBackoff(ctx, m.logger, key.Family, policy, fn)

	if fetchErr != nil {
		FetchErrors.WithLabelValues(string(key.Family)).Inc()
		m.logger.Warn().Err(fetchErr).Str("key", k).Msg("Fetch failed")

		m.update(ctx, k, func(entry *Entry) error {
			entry.Err = fetchErr.Error()
			return entry.Apply(EventFetchFailure)
		})
		return previous, fetchErr
	}

	m.update(ctx, k, func(entry *Entry) error {
		changed := entry.Generation != generation
		if changed && entry.State == StateFresh {
			// SetData wrote a newer value while the request was in flight.
			return nil
		}

		if err := entry.Apply(EventFetchSuccess); err != nil {
			return err
		}
		now := m.now()
		entry.Data = data
		entry.Err = ""
		entry.FetchedAt = now
		entry.Deadline = now.Add(policy.StaleTime)

		// The response may predate a mutation that invalidated the key
		// mid-flight.
		if changed {
			return entry.Apply(EventInvalidate)
		}
		return nil
	})

	return data, nil
}

// update applies fn to the entry stored under k (creating it if needed) and
// writes it back. Store failures are logged; the fetch result still reaches
// the caller.
func (m *Manager) update(ctx context.Context, k string, fn func(*Entry) error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, err := m.load(ctx, k)
	if err != nil {
		m.logger.Warn().Err(err).Str("key", k).Msg("Cache get error")
	}
	if entry == nil {
		entry = newEntry()
	}

	if err := fn(entry); err != nil {
		m.logger.Warn().Err(err).Str("key", k).Str("state", string(entry.State)).Msg("Cache state transition rejected")
		return
	}

	if err := m.store.Set(ctx, k, entry); err != nil {
		m.logger.Warn().Err(err).Str("key", k).Msg("Cache set error")
	}
}

// isFresh reports whether entry may be served, moving expired fresh entries
// to stale.
func (m *Manager) isFresh(ctx context.Context, k string, entry *Entry) bool {
	if entry.State != StateFresh {
		return false
	}
	if !entry.IsExpired(m.now()) {
		return true
	}

	m.update(ctx, k, func(e *Entry) error {
		if e.State != StateFresh {
			return nil
		}
		return e.Apply(EventExpire)
	})
	return false
}

// load returns the stored entry, nil on a miss.
func (m *Manager) load(ctx context.Context, k string) (*Entry, error) {
	entry, err := m.store.Get(ctx, k)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}
