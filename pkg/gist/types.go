// Package gist provides the GitHub Gist endpoints and domain types.
package gist

import (
	"sort"
	"time"

	"github.com/Sternrassler/git-notes/pkg/pagination"
)

// User is a GitHub account as embedded in gist responses or returned by
// /user.
type User struct {
	ID        int64   `json:"id"`
	Login     string  `json:"login"`
	Name      *string `json:"name,omitempty"`
	Email     *string `json:"email,omitempty"`
	AvatarURL string  `json:"avatar_url"`
	HTMLURL   string  `json:"html_url"`
	Type      string  `json:"type,omitempty"`
}

// File is one named file of a gist.
type File struct {
	Filename string  `json:"filename"`
	Type     string  `json:"type,omitempty"`
	Language *string `json:"language,omitempty"`
	RawURL   string  `json:"raw_url"`
	Size     int64   `json:"size"`

	// Content is only populated on detail responses and may be truncated.
	Content   string `json:"content,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Gist is a GitHub-hosted snippet container with one or more named files.
type Gist struct {
	ID          string          `json:"id"`
	URL         string          `json:"url"`
	HTMLURL     string          `json:"html_url"`
	ForksURL    string          `json:"forks_url,omitempty"`
	Files       map[string]File `json:"files"`
	Public      bool            `json:"public"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Description *string         `json:"description"`
	Comments    int             `json:"comments"`
	Owner       *User           `json:"owner,omitempty"`
	Truncated   bool            `json:"truncated,omitempty"`
}

// OwnerLogin returns the owner's login, or "" for anonymous gists.
func (g Gist) OwnerLogin() string {
	if g.Owner == nil {
		return ""
	}
	return g.Owner.Login
}

// DescriptionText returns the description or "".
func (g Gist) DescriptionText() string {
	if g.Description == nil {
		return ""
	}
	return *g.Description
}

// Filenames returns the gist's file names in sorted order.
func (g Gist) Filenames() []string {
	names := make([]string, 0, len(g.Files))
	for name := range g.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileContent is the per-file payload of a create request.
type FileContent struct {
	Content string `json:"content" validate:"required"`
}

// CreateRequest is the payload of POST /gists.
type CreateRequest struct {
	Description string                 `json:"description"`
	Public      bool                   `json:"public"`
	Files       map[string]FileContent `json:"files" validate:"required,min=1,dive,keys,required,endkeys"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Data       T                     `json:"data"`
	Pagination pagination.Descriptor `json:"pagination"`
}
