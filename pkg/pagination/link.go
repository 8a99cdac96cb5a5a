package pagination

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Relation names understood by Resolve.
const (
	RelFirst = "first"
	RelPrev  = "prev"
	RelNext  = "next"
	RelLast  = "last"
)

// linkEntryPattern matches one whole, trimmed Link entry.
var linkEntryPattern = regexp.MustCompile(`^<([^<>]+)>;\s*rel="([^"]+)"$`)

// Descriptor is the pagination state of one list response.
//
// Page and PerPage always reflect the request that produced the response.
// TotalPages is nil when the total is unknown; it is never zero.
type Descriptor struct {
	First      string `json:"first,omitempty"`
	Prev       string `json:"prev,omitempty"`
	Next       string `json:"next,omitempty"`
	Last       string `json:"last,omitempty"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	TotalPages *int   `json:"total_pages,omitempty"`
}

// Resolve parses a Link header value into a Descriptor for the request made
// with currentPage and perPage. An empty header yields a single-page
// descriptor without relation URLs. Malformed entries and unknown relations
// are skipped.
func Resolve(linkHeader string, currentPage, perPage int) Descriptor {
	desc := Descriptor{
		Page:    currentPage,
		PerPage: perPage,
	}

	if strings.TrimSpace(linkHeader) == "" {
		return desc
	}

	for _, part := range strings.Split(linkHeader, ",") {
		match := linkEntryPattern.FindStringSubmatch(strings.TrimSpace(part))
		if match == nil {
			continue
		}
		target, rel := match[1], match[2]
		if !validTarget(target) {
			continue
		}

		switch rel {
		case RelFirst:
			desc.First = target
		case RelPrev:
			desc.Prev = target
		case RelNext:
			desc.Next = target
		case RelLast:
			desc.Last = target
			if total, ok := PageFromURL(target); ok {
				desc.TotalPages = &total
			}
		}
	}

	return desc
}

func validTarget(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// PageFromURL extracts the numeric page query parameter from a relation URL.
// It returns false when the URL does not parse or carries no usable page.
func PageFromURL(rawURL string) (int, bool) {
	if rawURL == "" {
		return 0, false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, false
	}
	page, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

// NextPage returns the page number carried by the next relation.
func (d Descriptor) NextPage() (int, bool) {
	return PageFromURL(d.Next)
}

// PrevPage returns the page number carried by the prev relation.
func (d Descriptor) PrevPage() (int, bool) {
	return PageFromURL(d.Prev)
}

// HasNext reports whether the server advertised a following page.
func (d Descriptor) HasNext() bool {
	return d.Next != ""
}

// Total returns the total page count when it is known.
func (d Descriptor) Total() (int, bool) {
	if d.TotalPages == nil {
		return 0, false
	}
	return *d.TotalPages, true
}
