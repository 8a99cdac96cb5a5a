package pagination

import (
	"context"
	"errors"
)

// ErrDone is returned by Iterator.Next once the last page has been read.
var ErrDone = errors.New("no more pages")

// Fetcher loads a single page of a listing.
type Fetcher[T any] func(ctx context.Context, p Params) (T, Descriptor, error)

// Iterator walks a listing forward, one page per call. The page number of
// each request after the first is taken from the previous response's next
// relation; a response without one ends the sequence.
//
// An Iterator is not safe for concurrent use.
type Iterator[T any] struct {
	fetch   Fetcher[T]
	perPage int

	nextPage int
	done     bool
	pages    int
}

// NewIterator returns an iterator starting at page 1.
func NewIterator[T any](fetch Fetcher[T], perPage int) *Iterator[T] {
	it := &Iterator[T]{
		fetch:   fetch,
		perPage: Params{PerPage: perPage}.Normalize().PerPage,
	}
	it.Reset()
	return it
}

// Next fetches the following page. After the final page it returns ErrDone
// without issuing a request. A failed fetch leaves the cursor in place so the
// same page can be requested again.
func (it *Iterator[T]) Next(ctx context.Context) (T, Descriptor, error) {
	var zero T
	if it.done {
		return zero, Descriptor{}, ErrDone
	}

	data, desc, err := it.fetch(ctx, Params{Page: it.nextPage, PerPage: it.perPage})
	if err != nil {
		return zero, Descriptor{}, err
	}
	it.pages++

	if next, ok := desc.NextPage(); ok {
		it.nextPage = next
	} else {
		it.done = true
	}

	return data, desc, nil
}

// Done reports whether the sequence has ended.
func (it *Iterator[T]) Done() bool {
	return it.done
}

// PageParam returns the page number the next call will request.
func (it *Iterator[T]) PageParam() int {
	return it.nextPage
}

// Pages returns the number of pages fetched since the last reset.
func (it *Iterator[T]) Pages() int {
	return it.pages
}

// Reset rewinds the iterator to the first page.
func (it *Iterator[T]) Reset() {
	it.nextPage = DefaultPage
	it.done = false
	it.pages = 0
}
