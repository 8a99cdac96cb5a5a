package pagination

import (
	"net/url"

	"github.com/google/go-querystring/query"
)

// Defaults applied when a listing is requested without explicit values.
const (
	DefaultPage    = 1
	DefaultPerPage = 10
	// MaxPerPage is the largest page size GitHub accepts.
	MaxPerPage = 100
)

// Params selects one page of a listing.
type Params struct {
	Page    int `url:"page,omitempty" json:"page,omitempty"`
	PerPage int `url:"per_page,omitempty" json:"per_page,omitempty"`
}

// Normalize fills in defaults and clamps out-of-range values.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Values encodes the normalized params as query parameters.
func (p Params) Values() url.Values {
	v, err := query.Values(p.Normalize())
	if err != nil {
		// query.Values only fails for non-struct input.
		return url.Values{}
	}
	return v
}
