package gist

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Sternrassler/git-notes/pkg/client"
	"github.com/Sternrassler/git-notes/pkg/pagination"
)

// Transport is the subset of the REST client the endpoints need.
// *client.Client implements it.
type Transport interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) (http.Header, error)
	SendJSON(ctx context.Context, method, path string, body, out any) (http.Header, error)
	GetRaw(ctx context.Context, rawURL string) (string, error)
}

// API exposes the gist endpoints.
type API struct {
	t Transport
}

// NewAPI creates the endpoint set over t.
func NewAPI(t Transport) *API {
	if t == nil {
		panic("gist transport cannot be nil")
	}
	return &API{t: t}
}

// ListPublic returns one page of public gists.
func (a *API) ListPublic(ctx context.Context, params pagination.Params) (Page[[]Gist], error) {
	return a.list(ctx, "gists/public", params)
}

// ListStarred returns one page of the current user's starred gists.
func (a *API) ListStarred(ctx context.Context, params pagination.Params) (Page[[]Gist], error) {
	return a.list(ctx, "gists/starred", params)
}

// ListByUser returns one page of username's gists.
func (a *API) ListByUser(ctx context.Context, username string, params pagination.Params) (Page[[]Gist], error) {
	if username == "" {
		return Page[[]Gist]{}, fmt.Errorf("list user gists: username is required")
	}
	return a.list(ctx, "users/"+url.PathEscape(username)+"/gists", params)
}

func (a *API) list(ctx context.Context, path string, params pagination.Params) (Page[[]Gist], error) {
	params = params.Normalize()

	var gists []Gist
	header, err := a.t.GetJSON(ctx, path, params.Values(), &gists)
	if err != nil {
		return Page[[]Gist]{}, fmt.Errorf("list %s: %w", path, err)
	}
	if gists == nil {
		gists = []Gist{}
	}

	return Page[[]Gist]{
		Data:       gists,
		Pagination: pagination.Resolve(header.Get("Link"), params.Page, params.PerPage),
	}, nil
}

// Get returns a gist with its files.
func (a *API) Get(ctx context.Context, id string) (Gist, error) {
	var g Gist
	if _, err := a.t.GetJSON(ctx, gistPath(id), nil, &g); err != nil {
		return Gist{}, fmt.Errorf("get gist %s: %w", id, err)
	}
	return g, nil
}

// Create creates a gist owned by the authenticated user.
func (a *API) Create(ctx context.Context, req CreateRequest) (Gist, error) {
	if err := req.Validate(); err != nil {
		return Gist{}, err
	}
	var g Gist
	if _, err := a.t.SendJSON(ctx, http.MethodPost, "gists", req, &g); err != nil {
		return Gist{}, fmt.Errorf("create gist: %w", err)
	}
	return g, nil
}

// Fork forks a gist into the authenticated user's account.
func (a *API) Fork(ctx context.Context, id string) (Gist, error) {
	var g Gist
	if _, err := a.t.SendJSON(ctx, http.MethodPost, gistPath(id)+"/forks", nil, &g); err != nil {
		return Gist{}, fmt.Errorf("fork gist %s: %w", id, err)
	}
	return g, nil
}

// IsStarred reports whether the authenticated user starred the gist.
// GitHub answers 404 for "not starred", which is not an error here.
func (a *API) IsStarred(ctx context.Context, id string) (bool, error) {
	_, err := a.t.GetJSON(ctx, gistPath(id)+"/star", nil, nil)
	if client.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check star %s: %w", id, err)
	}
	return true, nil
}

// Star stars a gist.
func (a *API) Star(ctx context.Context, id string) error {
	if _, err := a.t.SendJSON(ctx, http.MethodPut, gistPath(id)+"/star", nil, nil); err != nil {
		return fmt.Errorf("star gist %s: %w", id, err)
	}
	return nil
}

// Unstar removes the star from a gist.
func (a *API) Unstar(ctx context.Context, id string) error {
	if _, err := a.t.SendJSON(ctx, http.MethodDelete, gistPath(id)+"/star", nil, nil); err != nil {
		return fmt.Errorf("unstar gist %s: %w", id, err)
	}
	return nil
}

// CurrentUser returns the authenticated user.
func (a *API) CurrentUser(ctx context.Context) (User, error) {
	var u User
	if _, err := a.t.GetJSON(ctx, "user", nil, &u); err != nil {
		return User{}, fmt.Errorf("get current user: %w", err)
	}
	return u, nil
}

// FileContent downloads a file's raw text from its raw_url.
func (a *API) FileContent(ctx context.Context, rawURL string) (string, error) {
	return a.t.GetRaw(ctx, rawURL)
}

func gistPath(id string) string {
	return "gists/" + url.PathEscape(id)
}
