package queries

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/git-notes/pkg/gist"
	"github.com/Sternrassler/git-notes/pkg/pagination"
)

var errUpstream = errors.New("upstream unavailable")

// fakeAPI is an in-memory GistAPI that counts calls per operation.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	// pages per listing, 1-based
	public  [][]gist.Gist
	starred [][]gist.Gist
	byUser  map[string][][]gist.Gist

	stars map[string]bool

	delay        time.Duration
	failGet      bool
	userFailures int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls:  make(map[string]int),
		byUser: make(map[string][][]gist.Gist),
		stars:  make(map[string]bool),
	}
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	delay := f.delay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
}

func makePages(prefix string, pages, perPage int) [][]gist.Gist {
	out := make([][]gist.Gist, pages)
	for p := range out {
		for i := 0; i < perPage; i++ {
			id := fmt.Sprintf("%s-%d-%d", prefix, p+1, i)
			desc := "gist " + id
			out[p] = append(out[p], gist.Gist{
				ID:          id,
				Description: &desc,
				Owner:       &gist.User{Login: prefix},
				Files:       map[string]gist.File{id + ".go": {Filename: id + ".go"}},
			})
		}
	}
	return out
}

func pageOf(path string, pages [][]gist.Gist, p pagination.Params) gist.Page[[]gist.Gist] {
	p = p.Normalize()
	desc := pagination.Descriptor{Page: p.Page, PerPage: p.PerPage}
	if p.Page < len(pages) {
		desc.Next = fmt.Sprintf("https://api.github.com/%s?page=%d&per_page=%d", path, p.Page+1, p.PerPage)
		desc.Last = fmt.Sprintf("https://api.github.com/%s?page=%d&per_page=%d", path, len(pages), p.PerPage)
		total := len(pages)
		desc.TotalPages = &total
	}
	var data []gist.Gist
	if p.Page >= 1 && p.Page <= len(pages) {
		data = pages[p.Page-1]
	}
	if data == nil {
		data = []gist.Gist{}
	}
	return gist.Page[[]gist.Gist]{Data: data, Pagination: desc}
}

func (f *fakeAPI) ListPublic(_ context.Context, p pagination.Params) (gist.Page[[]gist.Gist], error) {
	f.record("public")
	return pageOf("gists/public", f.public, p), nil
}

func (f *fakeAPI) ListStarred(_ context.Context, p pagination.Params) (gist.Page[[]gist.Gist], error) {
	f.record("starred")
	return pageOf("gists/starred", f.starred, p), nil
}

func (f *fakeAPI) ListByUser(_ context.Context, username string, p pagination.Params) (gist.Page[[]gist.Gist], error) {
	f.record("user")
	f.mu.Lock()
	pages := f.byUser[username]
	f.mu.Unlock()
	return pageOf("users/"+username+"/gists", pages, p), nil
}

func (f *fakeAPI) Get(_ context.Context, id string) (gist.Gist, error) {
	f.record("get")
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return gist.Gist{}, errUpstream
	}
	return gist.Gist{ID: id}, nil
}

func (f *fakeAPI) Create(_ context.Context, req gist.CreateRequest) (gist.Gist, error) {
	f.record("create")
	return gist.Gist{ID: "created", Description: &req.Description}, nil
}

func (f *fakeAPI) Fork(_ context.Context, id string) (gist.Gist, error) {
	f.record("fork")
	return gist.Gist{ID: id + "-fork"}, nil
}

func (f *fakeAPI) IsStarred(_ context.Context, id string) (bool, error) {
	f.record("isStarred")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stars[id], nil
}

func (f *fakeAPI) Star(_ context.Context, id string) error {
	f.record("star")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stars[id] = true
	return nil
}

func (f *fakeAPI) Unstar(_ context.Context, id string) error {
	f.record("unstar")
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.stars, id)
	return nil
}

func (f *fakeAPI) CurrentUser(context.Context) (gist.User, error) {
	f.record("user:current")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userFailures > 0 {
		f.userFailures--
		return gist.User{}, errUpstream
	}
	return gist.User{ID: 1, Login: "octocat"}, nil
}

func (f *fakeAPI) FileContent(_ context.Context, rawURL string) (string, error) {
	f.record("raw")
	return "content of " + rawURL, nil
}
