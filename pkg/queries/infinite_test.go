package queries

import (
	"context"
	"testing"

	"github.com/Sternrassler/git-notes/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfiniteGists_FollowsNextRelation(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	it := f.svc.InfiniteGists(2)

	var ids []string
	for {
		page, _, err := it.Next(ctx)
		if err == pagination.ErrDone {
			break
		}
		require.NoError(t, err)
		for _, g := range page {
			ids = append(ids, g.ID)
		}
	}

	assert.Len(t, ids, 6)
	assert.Equal(t, "pub-1-0", ids[0])
	assert.Equal(t, "pub-3-1", ids[5])
	assert.True(t, it.Done())
	assert.Equal(t, 3, f.api.count("public"))

	_, _, err := it.Next(ctx)
	assert.ErrorIs(t, err, pagination.ErrDone)
	assert.Equal(t, 3, f.api.count("public"), "no request after the last page")

	it.Reset()
	_, _, err = it.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, f.api.count("public"), "restarted pages come from the cache")
}

func TestInfiniteUserGists(t *testing.T) {
	f := newFixture(t, false)
	it := f.svc.InfiniteUserGists("octocat", 2)

	pages := 0
	for !it.Done() {
		_, _, err := it.Next(context.Background())
		require.NoError(t, err)
		pages++
	}
	assert.Equal(t, 3, pages)
}

func TestInfiniteStarredGists_RequiresLogin(t *testing.T) {
	f := newFixture(t, false)
	_, _, err := f.svc.InfiniteStarredGists(2).Next(context.Background())
	assert.Error(t, err)
}

func TestAllUserGists(t *testing.T) {
	f := newFixture(t, false)

	all, err := f.svc.AllUserGists(context.Background(), "octocat", 2, pagination.DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, all, 6)
	assert.Equal(t, "octocat-1-0", all[0].ID)
	assert.Equal(t, "octocat-3-1", all[5].ID)
	assert.Equal(t, 3, f.api.count("user"))

	_, err = f.svc.AllUserGists(context.Background(), "", 2, pagination.DefaultConfig())
	assert.ErrorIs(t, err, ErrUsernameRequired)
}
