package cache

import (
	"errors"
	"testing"

	"github.com/Sternrassler/git-notes/pkg/pagination"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "current user",
			key:  Key{Family: FamilyCurrentUser, Filter: map[string]string{"login": "octocat"}},
			want: "user:current:login=octocat",
		},
		{
			name: "gist detail",
			key: Key{
				Family: FamilyGistDetail,
				Filter: map[string]string{"id": "abc123"},
			},
			want: "gists:detail:id=abc123",
		},
		{
			name: "public list with page",
			key: Key{
				Family: FamilyGistList,
				Filter: map[string]string{"filter": "all"},
				Page:   &pagination.Params{Page: 2, PerPage: 30},
			},
			want: "gists:list:filter=all:page=2:per_page=30",
		},
		{
			name: "page defaults are applied",
			key: Key{
				Family: FamilyStarred,
				Filter: map[string]string{"login": "octocat"},
				Page:   &pagination.Params{},
			},
			want: "gists:starred:login=octocat:page=1:per_page=10",
		},
		{
			name: "star status is scoped to the viewer",
			key: Key{
				Family: FamilyStarStatus,
				Filter: map[string]string{"login": "alice", "id": "abc"},
			},
			want: "gists:starStatus:id=abc:login=alice",
		},
		{
			name: "user gists",
			key: Key{
				Family: FamilyUserGists,
				Filter: map[string]string{"username": "octocat"},
				Page:   &pagination.Params{Page: 1, PerPage: 10},
			},
			want: "gists:byUsername:username=octocat:page=1:per_page=10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("Key.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestKey_Determinism ensures filter insertion order does not change the key
func TestKey_Determinism(t *testing.T) {
	a := map[string]string{}
	a["username"] = "octocat"

	k1 := Key{Family: FamilyUserGists, Filter: a, Page: &pagination.Params{Page: 3, PerPage: 10}}
	k2 := Key{Family: FamilyUserGists, Filter: map[string]string{"username": "octocat"}, Page: &pagination.Params{Page: 3, PerPage: 10}}

	for i := 0; i < 10; i++ {
		if k1.String() != k2.String() {
			t.Fatalf("keys differ: %s vs %s", k1, k2)
		}
	}
}

func TestKey_Validate(t *testing.T) {
	page := &pagination.Params{Page: 1, PerPage: 10}

	tests := []struct {
		name    string
		key     Key
		wantErr bool
	}{
		{"valid detail", Key{Family: FamilyGistDetail, Filter: map[string]string{"id": "x"}}, false},
		{"valid list", Key{Family: FamilyGistList, Filter: map[string]string{"filter": "all"}, Page: page}, false},
		{"valid current user", Key{Family: FamilyCurrentUser, Filter: map[string]string{"login": "octocat"}}, false},
		{"current user without login", Key{Family: FamilyCurrentUser}, true},
		{"star status without login", Key{Family: FamilyStarStatus, Filter: map[string]string{"id": "x"}}, true},
		{"unknown family", Key{Family: "repos:list"}, true},
		{"missing field", Key{Family: FamilyGistDetail}, true},
		{"wrong field", Key{Family: FamilyGistDetail, Filter: map[string]string{"name": "x"}}, true},
		{"extra field", Key{Family: FamilyStarStatus, Filter: map[string]string{"id": "x", "login": "y", "user": "z"}}, true},
		{"list without page", Key{Family: FamilyStarred, Filter: map[string]string{"login": "y"}}, true},
		{"detail with page", Key{Family: FamilyGistDetail, Filter: map[string]string{"id": "x"}, Page: page}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidKey) {
				t.Errorf("error should wrap ErrInvalidKey: %v", err)
			}
		})
	}
}

func TestMatchesPrefix(t *testing.T) {
	tests := []struct {
		key, prefix string
		want        bool
	}{
		{"gists:starred:page=1:per_page=10", "gists:starred", true},
		{"gists:starStatus:id=1", "gists:starred", false},
		{"gists:starStatus:id=1", "gists", true},
		{"user:current", "gists", false},
		{"user:current", "user:current", true},
		{"user:current", "", true},
	}
	for _, tt := range tests {
		if got := matchesPrefix(tt.key, tt.prefix); got != tt.want {
			t.Errorf("matchesPrefix(%q, %q) = %v, want %v", tt.key, tt.prefix, got, tt.want)
		}
	}
}
