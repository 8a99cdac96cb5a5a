package cache

import (
	"fmt"
	"time"
)

// State is the lifecycle state of a cache entry.
type State string

const (
	// StateFresh entries are served without contacting GitHub.
	StateFresh State = "fresh"

	// StateStale entries are re-fetched on their next read.
	StateStale State = "stale"

	// StateFetching entries have a fetch in flight.
	StateFetching State = "fetching"

	// StateError entries hold the cause of the last failed fetch.
	StateError State = "error"
)

// Event drives state transitions.
type Event string

const (
	EventFetchStart   Event = "fetch-start"
	EventFetchSuccess Event = "fetch-success"
	EventFetchFailure Event = "fetch-failure"
	EventInvalidate   Event = "invalidate"
	EventExpire       Event = "expire"
)

var transitions = map[State]map[Event]State{
	StateFresh: {
		EventFetchStart:   StateFetching,
		EventFetchSuccess: StateFresh,
		EventInvalidate:   StateStale,
		EventExpire:       StateStale,
	},
	StateStale: {
		EventFetchStart:   StateFetching,
		EventFetchSuccess: StateFresh,
		EventInvalidate:   StateStale,
		EventExpire:       StateStale,
	},
	StateFetching: {
		EventFetchStart:   StateFetching,
		EventFetchSuccess: StateFresh,
		EventFetchFailure: StateError,
		// invalidation is recorded on the entry and applied once the fetch lands
		EventInvalidate: StateFetching,
		EventExpire:     StateFetching,
	},
	StateError: {
		EventFetchStart:   StateFetching,
		EventFetchSuccess: StateFresh,
		EventInvalidate:   StateStale,
		EventExpire:       StateError,
	},
}

// Transition returns the state reached from s on ev.
func Transition(s State, ev Event) (State, error) {
	next, ok := transitions[s][ev]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, s, ev)
	}
	return next, nil
}

// Entry is a cached value and its metadata.
type Entry struct {
	// Data is the JSON encoded value (nil until the first successful fetch)
	Data []byte `json:"data,omitempty"`

	// State is the lifecycle state
	State State `json:"state"`

	// FetchedAt is when Data was stored
	FetchedAt time.Time `json:"fetched_at"`

	// Deadline is when a fresh entry expires (FetchedAt + StaleTime)
	Deadline time.Time `json:"deadline"`

	// InvalidatedAt is the time of the last invalidation
	InvalidatedAt time.Time `json:"invalidated_at"`

	// Generation counts invalidations and direct writes; a fetch that
	// started under an older generation does not land as fresh
	Generation uint64 `json:"generation"`

	// Err is the message of the last failed fetch
	Err string `json:"error,omitempty"`
}

// newEntry returns the entry created on first access to a key.
func newEntry() *Entry {
	return &Entry{State: StateStale}
}

// Apply moves the entry to the state reached on ev.
func (e *Entry) Apply(ev Event) error {
	next, err := Transition(e.State, ev)
	if err != nil {
		return err
	}
	e.State = next
	return nil
}

// HasData reports whether the entry holds a previously fetched value.
func (e *Entry) HasData() bool {
	return e.Data != nil
}

// IsExpired returns true if the freshness deadline has passed at now.
func (e *Entry) IsExpired(now time.Time) bool {
	return now.After(e.Deadline)
}

// TTL returns the time until the deadline.
// Returns 0 if already expired.
func (e *Entry) TTL(now time.Time) time.Duration {
	ttl := e.Deadline.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

func (e *Entry) clone() *Entry {
	c := *e
	if e.Data != nil {
		c.Data = append([]byte(nil), e.Data...)
	}
	return &c
}
