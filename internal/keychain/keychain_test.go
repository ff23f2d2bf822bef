package keychain

import (
	"context"
	"portalsync/internal/components/chrono"
	"portalsync/internal/db"
	"portalsync/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func (c *clock) Location() *time.Location {
	return time.UTC
}

var _ chrono.TimeAPI = (*clock)(nil)

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.Get(ctx, SESSION_TOKEN)
	require.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, store.Set(ctx, SESSION_TOKEN, "tok-1"))
	value, err := store.Get(ctx, SESSION_TOKEN)
	require.NoError(t, err)
	require.Equal(t, "tok-1", value)

	require.NoError(t, store.Set(ctx, SESSION_TOKEN, "tok-2"))
	value, err = store.Get(ctx, SESSION_TOKEN)
	require.NoError(t, err)
	require.Equal(t, "tok-2", value)

	require.NoError(t, store.Clear(ctx, SESSION_TOKEN))
	_, err = store.Get(ctx, SESSION_TOKEN)
	require.ErrorIs(t, err, model.ErrNotFound)

	// clearing twice is fine
	require.NoError(t, store.Clear(ctx, SESSION_TOKEN))
}

func TestSQLite(t *testing.T) {
	database, err := db.OpenDB(context.Background(), db.Options{File: db.MEMORY})
	require.NoError(t, err)
	defer database.Close()

	c := &clock{now: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)}
	store := NewSQLite(db.New(database), time.Hour, c)
	testStore(t, store)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, SESSION_TOKEN, "tok-3"))
	c.now = c.now.Add(59 * time.Minute)
	_, err = store.Get(ctx, SESSION_TOKEN)
	require.NoError(t, err)

	c.now = c.now.Add(time.Minute)
	_, err = store.Get(ctx, SESSION_TOKEN)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory(0))

	store := NewMemory(20 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, SESSION_TOKEN, "tok"))
	require.Eventually(t, func() bool {
		_, err := store.Get(ctx, SESSION_TOKEN)
		return err != nil
	}, time.Second, 5*time.Millisecond)
}
