package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRegisterOrTouchCreatesWithAutoSit(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.RegisterOrTouch(ctx, 1, 100))

	u, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.UserID)
	assert.Equal(t, int64(100), u.ChatID)
	assert.True(t, u.AutoSit, "auto-sit defaults to enabled")
	assert.False(t, u.LastSeenAt.IsZero())
}

func TestRegisterOrTouchKeepsOptOut(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.RegisterOrTouch(ctx, 1, 100))
	require.NoError(t, repo.SetAutoSit(ctx, 1, false))

	// A later touch updates the chat but must not flip the flag back.
	require.NoError(t, repo.RegisterOrTouch(ctx, 1, 200))

	u, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(200), u.ChatID)
	assert.False(t, u.AutoSit)
}

func TestGetUnknownUser(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetAutoSitUnknownUser(t *testing.T) {
	repo := openTestRepo(t)
	err := repo.SetAutoSit(context.Background(), 42, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAll(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.RegisterOrTouch(ctx, 1, 100))
	require.NoError(t, repo.RegisterOrTouch(ctx, 2, 200))
	require.NoError(t, repo.SetAutoSit(ctx, 2, false))

	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	byID := map[int64]RegisteredUser{}
	for _, u := range users {
		byID[u.UserID] = u
	}
	assert.True(t, byID[1].AutoSit)
	assert.False(t, byID[2].AutoSit)
}
