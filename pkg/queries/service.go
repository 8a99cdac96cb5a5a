// Package queries is the per-family query layer: every read goes through the
// cache with its family's freshness and retry policy, and every mutation
// bypasses the cache and then corrects it.
package queries

import (
	"context"
	"errors"

	"github.com/Sternrassler/git-notes/pkg/cache"
	"github.com/Sternrassler/git-notes/pkg/gist"
	"github.com/Sternrassler/git-notes/pkg/pagination"
	"github.com/Sternrassler/git-notes/pkg/session"
	"github.com/rs/zerolog"
)

// Errors returned for invalid query input.
var (
	ErrUsernameRequired = errors.New("username is required")
	ErrIDRequired       = errors.New("gist id is required")
)

// listFilter is the filter value of the public gist listing.
const listFilter = "all"

// GistAPI is the endpoint set the service reads and mutates through.
// *gist.API implements it.
type GistAPI interface {
	ListPublic(ctx context.Context, params pagination.Params) (gist.Page[[]gist.Gist], error)
	ListStarred(ctx context.Context, params pagination.Params) (gist.Page[[]gist.Gist], error)
	ListByUser(ctx context.Context, username string, params pagination.Params) (gist.Page[[]gist.Gist], error)
	Get(ctx context.Context, id string) (gist.Gist, error)
	Create(ctx context.Context, req gist.CreateRequest) (gist.Gist, error)
	Fork(ctx context.Context, id string) (gist.Gist, error)
	IsStarred(ctx context.Context, id string) (bool, error)
	Star(ctx context.Context, id string) error
	Unstar(ctx context.Context, id string) error
	CurrentUser(ctx context.Context) (gist.User, error)
	FileContent(ctx context.Context, rawURL string) (string, error)
}

// GistPage is one cached page of gists.
type GistPage = gist.Page[[]gist.Gist]

// Service binds the endpoints, the cache and the session.
type Service struct {
	api     GistAPI
	cache   *cache.Manager
	session *session.Session
	logger  zerolog.Logger
}

// NewService creates the query layer. Logging out of sess clears the cache.
func NewService(api GistAPI, manager *cache.Manager, sess *session.Session, logger zerolog.Logger) *Service {
	if api == nil || manager == nil || sess == nil {
		panic("queries: api, cache and session are required")
	}

	s := &Service{
		api:     api,
		cache:   manager,
		session: sess,
		logger:  logger.With().Str("component", "queries").Logger(),
	}
	sess.OnLogout(manager.Clear)
	return s
}

// Session returns the session the service reads credentials from.
func (s *Service) Session() *session.Session {
	return s.session
}

// Gists returns a page of public gists.
func (s *Service) Gists(ctx context.Context, params pagination.Params) (GistPage, error) {
	return cache.Get(ctx, s.cache, ListKey(params), func(ctx context.Context) (GistPage, error) {
		return s.api.ListPublic(ctx, params.Normalize())
	})
}

// SearchGists returns a page of public gists narrowed by the session's
// search query. Pagination describes the unfiltered page.
func (s *Service) SearchGists(ctx context.Context, params pagination.Params) (GistPage, error) {
	page, err := s.Gists(ctx, params)
	page.Data = gist.Filter(page.Data, s.session.SearchQuery())
	return page, err
}

// StarredGists returns a page of the signed-in user's starred gists.
func (s *Service) StarredGists(ctx context.Context, params pagination.Params) (GistPage, error) {
	login, ok := s.login()
	if !ok {
		return GistPage{}, session.ErrNotLoggedIn
	}
	return cache.Get(ctx, s.cache, StarredKey(login, params), func(ctx context.Context) (GistPage, error) {
		return s.api.ListStarred(ctx, params.Normalize())
	})
}

// UserGists returns a page of username's gists. An empty username is
// rejected without a request.
func (s *Service) UserGists(ctx context.Context, username string, params pagination.Params) (GistPage, error) {
	if username == "" {
		return GistPage{}, ErrUsernameRequired
	}
	return cache.Get(ctx, s.cache, UserGistsKey(username, params), func(ctx context.Context) (GistPage, error) {
		return s.api.ListByUser(ctx, username, params.Normalize())
	})
}

// Gist returns a gist's detail.
func (s *Service) Gist(ctx context.Context, id string) (gist.Gist, error) {
	if id == "" {
		return gist.Gist{}, ErrIDRequired
	}
	return cache.Get(ctx, s.cache, DetailKey(id), func(ctx context.Context) (gist.Gist, error) {
		return s.api.Get(ctx, id)
	})
}

// IsStarred reports whether the signed-in user starred a gist.
func (s *Service) IsStarred(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrIDRequired
	}
	login, ok := s.login()
	if !ok {
		return false, session.ErrNotLoggedIn
	}
	return cache.Get(ctx, s.cache, StarStatusKey(login, id), func(ctx context.Context) (bool, error) {
		return s.api.IsStarred(ctx, id)
	})
}

// CurrentUser returns the signed-in user's profile.
func (s *Service) CurrentUser(ctx context.Context) (gist.User, error) {
	login, ok := s.login()
	if !ok {
		return gist.User{}, session.ErrNotLoggedIn
	}
	return cache.Get(ctx, s.cache, CurrentUserKey(login), func(ctx context.Context) (gist.User, error) {
		return s.api.CurrentUser(ctx)
	})
}

// FileContent downloads a file's raw text. Raw content is not cached.
func (s *Service) FileContent(ctx context.Context, rawURL string) (string, error) {
	return s.api.FileContent(ctx, rawURL)
}

// Star stars a gist, records the new star status and marks the starred
// listing stale.
func (s *Service) Star(ctx context.Context, id string) error {
	return s.setStar(ctx, id, true)
}

// Unstar removes a star, records the new star status and marks the starred
// listing stale.
func (s *Service) Unstar(ctx context.Context, id string) error {
	return s.setStar(ctx, id, false)
}

func (s *Service) setStar(ctx context.Context, id string, starred bool) error {
	if id == "" {
		return ErrIDRequired
	}
	login, ok := s.login()
	if !ok {
		return session.ErrNotLoggedIn
	}

	var err error
	if starred {
		err = s.api.Star(ctx, id)
	} else {
		err = s.api.Unstar(ctx, id)
	}
	if err != nil {
		return err
	}

	s.write(ctx, StarStatusKey(login, id), starred)
	s.invalidatePrefix(ctx, StarredPrefix(login))
	return nil
}

// Fork forks a gist. The user and public listings are marked stale.
func (s *Service) Fork(ctx context.Context, id string) (gist.Gist, error) {
	if id == "" {
		return gist.Gist{}, ErrIDRequired
	}
	if !s.session.IsLoggedIn() {
		return gist.Gist{}, session.ErrNotLoggedIn
	}

	fork, err := s.api.Fork(ctx, id)
	if err != nil {
		return gist.Gist{}, err
	}

	if fork.ID != "" {
		s.write(ctx, DetailKey(fork.ID), fork)
	}
	s.invalidate(ctx, cache.FamilyUserGists, cache.FamilyGistList)
	return fork, nil
}

// Create creates a gist. The public and user listings are marked stale.
func (s *Service) Create(ctx context.Context, req gist.CreateRequest) (gist.Gist, error) {
	if !s.session.IsLoggedIn() {
		return gist.Gist{}, session.ErrNotLoggedIn
	}

	created, err := s.api.Create(ctx, req)
	if err != nil {
		return gist.Gist{}, err
	}

	if created.ID != "" {
		s.write(ctx, DetailKey(created.ID), created)
	}
	s.invalidate(ctx, cache.FamilyGistList, cache.FamilyUserGists)
	return created, nil
}

// login returns the signed-in user's login. Private families are keyed by
// it.
func (s *Service) login() (string, bool) {
	if !s.session.IsLoggedIn() {
		return "", false
	}
	user, ok := s.session.User()
	if !ok || user.Login == "" {
		return "", false
	}
	return user.Login, true
}

// write stores a value known from a mutation response. The mutation already
// succeeded, so cache failures are logged rather than returned.
func (s *Service) write(ctx context.Context, key cache.Key, value any) {
	if err := s.cache.SetData(ctx, key, value); err != nil {
		s.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to write mutation result to cache")
	}
}

func (s *Service) invalidate(ctx context.Context, families ...cache.Family) {
	for _, family := range families {
		s.invalidatePrefix(ctx, family.Prefix())
	}
}

func (s *Service) invalidatePrefix(ctx context.Context, prefix string) {
	if _, err := s.cache.Invalidate(ctx, prefix); err != nil {
		s.logger.Warn().Err(err).Str("prefix", prefix).Msg("Failed to invalidate cache entries")
	}
}
