package cache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Sternrassler/git-notes/pkg/pagination"
)

// Family is a resource family. Its value doubles as the key prefix shared by
// every entry of the family.
type Family string

// Resource families served by the gist client.
const (
	FamilyGistList    Family = "gists:list"
	FamilyStarred     Family = "gists:starred"
	FamilyUserGists   Family = "gists:byUsername"
	FamilyGistDetail  Family = "gists:detail"
	FamilyStarStatus  Family = "gists:starStatus"
	FamilyCurrentUser Family = "user:current"
)

// PrefixGists covers every gist family.
const PrefixGists = "gists"

type familySpec struct {
	fields    []string
	paginated bool
}

// Families holding data private to the signed-in user carry a "login" field
// so identities sharing one store never see each other's slots.
var families = map[Family]familySpec{
	FamilyGistList:    {fields: []string{"filter"}, paginated: true},
	FamilyStarred:     {fields: []string{"login"}, paginated: true},
	FamilyUserGists:   {fields: []string{"username"}, paginated: true},
	FamilyGistDetail:  {fields: []string{"id"}},
	FamilyStarStatus:  {fields: []string{"id", "login"}},
	FamilyCurrentUser: {fields: []string{"login"}},
}

// Prefix returns the invalidation prefix of the family.
func (f Family) Prefix() string {
	return string(f)
}

// Fields returns the filter fields every key of the family carries.
func (f Family) Fields() []string {
	return append([]string(nil), families[f].fields...)
}

// Paginated reports whether keys of the family carry a page position.
func (f Family) Paginated() bool {
	return families[f].paginated
}

// Key identifies one cache slot.
type Key struct {
	// Family is the resource family (e.g., FamilyGistList)
	Family Family

	// Filter holds the family's discriminator fields (e.g., {"username": "octocat"})
	Filter map[string]string

	// Page is the pagination position; nil for non-paginated families
	Page *pagination.Params
}

// Validate checks that the key carries exactly the family's field set.
func (k Key) Validate() error {
	spec, ok := families[k.Family]
	if !ok {
		return fmt.Errorf("%w: unknown family %q", ErrInvalidKey, k.Family)
	}

	if len(k.Filter) != len(spec.fields) {
		return fmt.Errorf("%w: %s expects fields %v, got %d", ErrInvalidKey, k.Family, spec.fields, len(k.Filter))
	}
	for _, field := range spec.fields {
		if _, ok := k.Filter[field]; !ok {
			return fmt.Errorf("%w: %s missing field %q", ErrInvalidKey, k.Family, field)
		}
	}

	if spec.paginated && k.Page == nil {
		return fmt.Errorf("%w: %s requires a page", ErrInvalidKey, k.Family)
	}
	if !spec.paginated && k.Page != nil {
		return fmt.Errorf("%w: %s is not paginated", ErrInvalidKey, k.Family)
	}

	return nil
}

// String generates a deterministic cache key string.
// Format: family:field1=val1:field2=val2:page=N:per_page=M
//
// Example:
//
//	gists:byUsername:username=octocat:page=1:per_page=10
func (k Key) String() string {
	parts := []string{string(k.Family)}

	if len(k.Filter) > 0 {
		fields := make([]string, 0, len(k.Filter))
		for field := range k.Filter {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		for _, field := range fields {
			parts = append(parts, fmt.Sprintf("%s=%s", field, k.Filter[field]))
		}
	}

	if k.Page != nil {
		p := k.Page.Normalize()
		parts = append(parts, fmt.Sprintf("page=%d", p.Page), fmt.Sprintf("per_page=%d", p.PerPage))
	}

	return strings.Join(parts, ":")
}

// matchesPrefix reports whether key lies under prefix. Prefixes match whole
// segments only, so "gists:list" does not cover "gists:listing".
func matchesPrefix(key, prefix string) bool {
	if prefix == "" || key == prefix {
		return true
	}
	return strings.HasPrefix(key, prefix+":")
}
