package cache

import "errors"

var (
	// ErrCacheMiss indicates the requested key was not found in the store
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the stored entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrInvalidKey indicates a key that does not match its family's field set
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrInvalidTransition indicates an event that is not allowed in the entry's state
	ErrInvalidTransition = errors.New("invalid state transition")
)
