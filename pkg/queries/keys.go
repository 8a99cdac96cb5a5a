package queries

import (
	"github.com/Sternrassler/git-notes/pkg/cache"
	"github.com/Sternrassler/git-notes/pkg/pagination"
)

// ListKey is the cache key of a public listing page.
func ListKey(params pagination.Params) cache.Key {
	p := params.Normalize()
	return cache.Key{Family: cache.FamilyGistList, Filter: map[string]string{"filter": listFilter}, Page: &p}
}

// StarredKey is the cache key of login's starred listing page.
func StarredKey(login string, params pagination.Params) cache.Key {
	p := params.Normalize()
	return cache.Key{Family: cache.FamilyStarred, Filter: map[string]string{"login": login}, Page: &p}
}

// StarredPrefix covers every cached starred page of login.
func StarredPrefix(login string) string {
	return cache.FamilyStarred.Prefix() + ":login=" + login
}

// UserGistsKey is the cache key of a user listing page.
func UserGistsKey(username string, params pagination.Params) cache.Key {
	p := params.Normalize()
	return cache.Key{Family: cache.FamilyUserGists, Filter: map[string]string{"username": username}, Page: &p}
}

// DetailKey is the cache key of a gist detail.
func DetailKey(id string) cache.Key {
	return cache.Key{Family: cache.FamilyGistDetail, Filter: map[string]string{"id": id}}
}

// StarStatusKey is the cache key of a gist's star status as seen by login.
func StarStatusKey(login, id string) cache.Key {
	return cache.Key{Family: cache.FamilyStarStatus, Filter: map[string]string{"id": id, "login": login}}
}

// CurrentUserKey is the cache key of login's profile.
func CurrentUserKey(login string) cache.Key {
	return cache.Key{Family: cache.FamilyCurrentUser, Filter: map[string]string{"login": login}}
}
