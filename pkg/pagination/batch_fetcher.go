package pagination

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel page requests.
	// GitHub discourages aggressive parallelism; keep this small.
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
	// MaxPages caps the number of pages read for one listing (0 = no cap)
	MaxPages int
}

// DefaultConfig returns a conservative configuration for the GitHub API.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
		MaxPages:       100,
	}
}

// PageResult represents the result of fetching a single page
type PageResult[T any] struct {
	PageNumber int
	Data       T
	Error      error
}

// BatchFetcher reads every page of a listing.
type BatchFetcher[T any] struct {
	fetch  Fetcher[T]
	config Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[T any](fetch Fetcher[T], config Config) *BatchFetcher[T] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &BatchFetcher[T]{
		fetch:  fetch,
		config: config,
	}
}

// FetchAll returns every page of the listing in page order.
//
// The first page is always fetched on its own. When its last relation
// reveals the total page count and its next relation is page 2, the
// remaining pages are fetched by a worker pool; otherwise the listing is
// walked sequentially through next relations.
// On a worker error the pages fetched so far are returned with the error.
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context, perPage int) ([]T, error) {
	start := time.Now()

	it := NewIterator(bf.fetch, perPage)
	first, desc, err := it.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	totalPages, known := desc.Total()
	if !desc.HasNext() {
		log.Debug().
			Int("pages", 1).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return []T{first}, nil
	}

	// Workers enumerate pages 2..N by counting. That matches the listing only
	// when page 1's next relation is page 2; otherwise follow the relations.
	if next, ok := desc.NextPage(); !known || !ok || next != 2 {
		return bf.fetchSequential(ctx, it, first, start)
	}

	if bf.config.MaxPages > 0 && totalPages > bf.config.MaxPages {
		log.Warn().
			Int("total_pages", totalPages).
			Int("max_pages", bf.config.MaxPages).
			Msg("Listing truncated to page cap")
		totalPages = bf.config.MaxPages
	}

	log.Debug().
		Int("total_pages", totalPages).
		Int("workers", bf.config.MaxConcurrency).
		Msg("Starting parallel page fetch")

	results := map[int]T{1: first}
	perPage = desc.PerPage

	pageQueue := make(chan int, totalPages)
	pageResults := make(chan PageResult[T], totalPages)

	for page := 2; page <= totalPages; page++ {
		pageQueue <- page
	}
	close(pageQueue)

	var wg sync.WaitGroup
	for i := 0; i < bf.config.MaxConcurrency; i++ {
		wg.Add(1)
		go bf.worker(ctx, perPage, pageQueue, pageResults, &wg, i)
	}

	go func() {
		wg.Wait()
		close(pageResults)
	}()

	var firstErr error
	for result := range pageResults {
		if result.Error != nil {
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}
		results[result.PageNumber] = result.Data
	}

	ordered := orderPages(results)
	if firstErr != nil {
		log.Warn().
			Err(firstErr).
			Int("fetched_pages", len(ordered)).
			Int("total_pages", totalPages).
			Msg("Worker error - returning partial results")
		return ordered, fmt.Errorf("partial listing (%d/%d pages): %w", len(ordered), totalPages, firstErr)
	}

	log.Debug().
		Int("pages", len(ordered)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return ordered, nil
}

func (bf *BatchFetcher[T]) fetchSequential(ctx context.Context, it *Iterator[T], first T, start time.Time) ([]T, error) {
	pages := []T{first}
	for {
		if bf.config.MaxPages > 0 && len(pages) >= bf.config.MaxPages {
			log.Warn().Int("max_pages", bf.config.MaxPages).Msg("Listing truncated to page cap")
			return pages, nil
		}

		data, _, err := it.Next(ctx)
		if errors.Is(err, ErrDone) {
			break
		}
		if err != nil {
			return pages, fmt.Errorf("partial listing (%d pages): %w", len(pages), err)
		}
		pages = append(pages, data)
	}

	log.Debug().
		Int("pages", len(pages)).
		Dur("duration", time.Since(start)).
		Msg("Sequential fetch complete")
	return pages, nil
}

// worker processes pages from the queue
func (bf *BatchFetcher[T]) worker(ctx context.Context, perPage int, pageQueue <-chan int, results chan<- PageResult[T], wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	pagesProcessed := 0

	for pageNum := range pageQueue {
		if err := ctx.Err(); err != nil {
			results <- PageResult[T]{PageNumber: pageNum, Error: err}
			return
		}

		pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		data, _, err := bf.fetch(pageCtx, Params{Page: pageNum, PerPage: perPage})
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Int("page", pageNum).
				Msg("Page fetch failed")
			results <- PageResult[T]{PageNumber: pageNum, Error: err}
			return
		}

		results <- PageResult[T]{PageNumber: pageNum, Data: data}
		pagesProcessed++
	}

	if pagesProcessed > 0 {
		log.Debug().
			Int("worker_id", workerID).
			Int("pages_processed", pagesProcessed).
			Msg("Worker completed")
	}
}

func orderPages[T any](results map[int]T) []T {
	keys := make([]int, 0, len(results))
	for page := range results {
		keys = append(keys, page)
	}
	sort.Ints(keys)

	ordered := make([]T, 0, len(keys))
	for _, page := range keys {
		ordered = append(ordered, results[page])
	}
	return ordered
}
