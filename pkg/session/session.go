// Package session holds the explicit per-process session context: the access
// token, the signed-in user and the current search query.
//
// A session starts empty. Login installs a credential; Logout clears it and
// runs the registered teardown hooks (e.g. clearing the query cache). Nothing
// is persisted.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Sternrassler/git-notes/pkg/client"
	"github.com/Sternrassler/git-notes/pkg/gist"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Errors returned by the session.
var (
	// ErrNotLoggedIn wraps client.ErrNoToken so an API client reading the
	// session as its token source falls back to anonymous requests.
	ErrNotLoggedIn = fmt.Errorf("not logged in: %w", client.ErrNoToken)
	ErrEmptyToken  = errors.New("access token is empty")
)

// TeardownFunc runs on logout.
type TeardownFunc func(ctx context.Context) error

// Session is safe for concurrent use.
type Session struct {
	mu       sync.RWMutex
	token    string
	user     *gist.User
	query    string
	teardown []TeardownFunc
	logger   zerolog.Logger
}

// New creates an empty session.
func New(logger zerolog.Logger) *Session {
	return &Session{logger: logger.With().Str("component", "session").Logger()}
}

// Login installs a credential, replacing any previous one.
func (s *Session) Login(token string, user gist.User) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()

	s.logger.Info().Str("login", user.Login).Msg("Session started")
	return nil
}

// OnLogout registers a hook run by Logout, in registration order.
func (s *Session) OnLogout(fn TeardownFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown = append(s.teardown, fn)
}

// Logout clears the credential and search query, then runs the teardown
// hooks. Every hook runs; their errors are joined.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.query = ""
	hooks := append([]TeardownFunc(nil), s.teardown...)
	s.mu.Unlock()

	var errs []error
	for i, fn := range hooks {
		if err := fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("logout hook %d: %w", i, err))
		}
	}

	s.logger.Info().Int("hooks", len(hooks)).Msg("Session ended")
	return errors.Join(errs...)
}

// IsLoggedIn reports whether a credential is held.
func (s *Session) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// AccessToken returns the held token or "".
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Token implements oauth2.TokenSource. It fails with ErrNotLoggedIn while
// signed out.
func (s *Session) Token() (*oauth2.Token, error) {
	token := s.AccessToken()
	if token == "" {
		return nil, ErrNotLoggedIn
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

// User returns the signed-in user.
func (s *Session) User() (gist.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return gist.User{}, false
	}
	return *s.user, true
}

// SearchQuery returns the current search text.
func (s *Session) SearchQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// SetSearchQuery replaces the search text.
func (s *Session) SetSearchQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
}
