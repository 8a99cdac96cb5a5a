package queries

import (
	"context"

	"github.com/Sternrassler/git-notes/pkg/gist"
	"github.com/Sternrassler/git-notes/pkg/pagination"
)

// GistIterator walks a listing page by page through the cache.
type GistIterator = pagination.Iterator[[]gist.Gist]

// InfiniteGists returns a forward-only iterator over public gists.
func (s *Service) InfiniteGists(perPage int) *GistIterator {
	return pagination.NewIterator(pageFetcher(s.Gists), perPage)
}

// InfiniteStarredGists returns a forward-only iterator over starred gists.
func (s *Service) InfiniteStarredGists(perPage int) *GistIterator {
	return pagination.NewIterator(pageFetcher(s.StarredGists), perPage)
}

// InfiniteUserGists returns a forward-only iterator over username's gists.
func (s *Service) InfiniteUserGists(username string, perPage int) *GistIterator {
	return pagination.NewIterator(pageFetcher(func(ctx context.Context, p pagination.Params) (GistPage, error) {
		return s.UserGists(ctx, username, p)
	}), perPage)
}

// AllUserGists reads every page of username's gists, fetching pages in
// parallel when the listing advertises its last page.
func (s *Service) AllUserGists(ctx context.Context, username string, perPage int, cfg pagination.Config) ([]gist.Gist, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}

	fetcher := pagination.NewBatchFetcher(pageFetcher(func(ctx context.Context, p pagination.Params) (GistPage, error) {
		return s.UserGists(ctx, username, p)
	}), cfg)

	pages, err := fetcher.FetchAll(ctx, perPage)

	var all []gist.Gist
	for _, page := range pages {
		all = append(all, page...)
	}
	return all, err
}

func pageFetcher(list func(context.Context, pagination.Params) (GistPage, error)) pagination.Fetcher[[]gist.Gist] {
	return func(ctx context.Context, p pagination.Params) ([]gist.Gist, pagination.Descriptor, error) {
		page, err := list(ctx, p)
		if err != nil {
			return nil, pagination.Descriptor{}, err
		}
		return page.Data, page.Pagination, nil
	}
}
