package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolutionCache_StoreLookupInvalidate(t *testing.T) {
	ctx := context.Background()
	cache := NewResolutionCache(setupTestRedis(t))

	rec := testRecord("wind-farm-alpha", time.Now().UTC())

	t.Run("miss before store", func(t *testing.T) {
		got, err := cache.Lookup(ctx, "wind-farm-alpha")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("hit after store", func(t *testing.T) {
		require.NoError(t, cache.Store(ctx, rec))

		got, err := cache.Lookup(ctx, "wind-farm-alpha")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "wind-farm-alpha", got.Name)
	})

	t.Run("invalidate drops every entry", func(t *testing.T) {
		require.NoError(t, cache.Store(ctx, testRecord("wind-farm-beta", time.Now().UTC())))
		require.NoError(t, cache.Invalidate(ctx))

		for _, name := range []string{"wind-farm-alpha", "wind-farm-beta"} {
			got, err := cache.Lookup(ctx, name)
			require.NoError(t, err)
			assert.Nil(t, got, "expected %s to be evicted", name)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessionRepository(setupTestRedis(t))

	t.Run("no active project by default", func(t *testing.T) {
		name, err := sessions.ActiveProject(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, "", name)
	})

	t.Run("set and read active project", func(t *testing.T) {
		require.NoError(t, sessions.SetActiveProject(ctx, "sess-1", "wind-farm-alpha"))

		name, err := sessions.ActiveProject(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, "wind-farm-alpha", name)
	})

	t.Run("history keeps insertion order", func(t *testing.T) {
		require.NoError(t, sessions.AddToHistory(ctx, "sess-1", "wind-farm-alpha"))
		require.NoError(t, sessions.AddToHistory(ctx, "sess-1", "wind-farm-beta"))

		items, err := sessions.History(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"wind-farm-alpha", "wind-farm-beta"}, items)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		name, err := sessions.ActiveProject(ctx, "sess-2")
		require.NoError(t, err)
		assert.Equal(t, "", name)
	})
}
