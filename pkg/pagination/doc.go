// Package pagination derives pagination cursors from GitHub Link headers and
// walks paginated gist listings.
//
// GitHub paginates list endpoints with page/per_page query parameters and
// advertises neighbouring pages in the Link response header:
//
//	Link: <https://api.github.com/gists/public?page=2&per_page=30>; rel="next",
//	      <https://api.github.com/gists/public?page=50&per_page=30>; rel="last"
//
// Resolve turns that header into a Descriptor. Relation URLs are the source of
// truth for page numbers: the next page is always taken from the next
// relation, never computed by adding one to the current page.
//
// Example usage:
//
//	desc := pagination.Resolve(resp.Header.Get("Link"), 1, 30)
//	if next, ok := desc.NextPage(); ok {
//		// request page `next`
//	}
//
// For continuous listing, Iterator chains pages until a response carries no
// next relation. BatchFetcher fetches a complete listing with a worker pool
// when the total page count is known.
package pagination
