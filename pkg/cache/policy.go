package cache

import "time"

// Policy controls freshness and retry behaviour of one family.
type Policy struct {
	// StaleTime is how long a fetched value is served without re-fetching.
	StaleTime time.Duration

	// Retries is the number of additional attempts after a failed fetch.
	Retries int

	// RetryDelay is the initial backoff before the first retry.
	RetryDelay time.Duration
}

// DefaultRetryDelay is the first backoff step when a family allows retries.
const DefaultRetryDelay = 1 * time.Second

// DefaultPolicies returns the per-family policies.
//
// List families stay fresh for 5 minutes, detail and current-user for 10.
// Only current-user is retried, once. Star status is never retried because
// a 404 there means "not starred".
func DefaultPolicies() map[Family]Policy {
	return map[Family]Policy{
		FamilyGistList:    {StaleTime: 5 * time.Minute},
		FamilyStarred:     {StaleTime: 5 * time.Minute},
		FamilyUserGists:   {StaleTime: 5 * time.Minute},
		FamilyGistDetail:  {StaleTime: 10 * time.Minute},
		FamilyStarStatus:  {StaleTime: 5 * time.Minute},
		FamilyCurrentUser: {StaleTime: 10 * time.Minute, Retries: 1, RetryDelay: DefaultRetryDelay},
	}
}
