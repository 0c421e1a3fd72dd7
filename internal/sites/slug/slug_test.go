package slug

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windscape-energy/go-site-backend/internal/sites/domain"
	"github.com/windscape-energy/go-site-backend/internal/sites/repository"
)

func setupStore(t *testing.T) *repository.RecordRepository {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return repository.NewRecordRepository(client)
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Wind Farm Alpha", "wind-farm-alpha"},
		{"  Panhandle   Site 7  ", "panhandle-site-7"},
		{"north_ridge (phase 2)", "north-ridge-phase-2"},
		{"ALLCAPS", "allcaps"},
		{"---", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "input %q", tc.in)
	}
}

func TestEnsureUnique(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	n := NewNormalizer(store)

	t.Run("free name returned unchanged", func(t *testing.T) {
		name, err := n.EnsureUnique(ctx, "wind-farm-alpha")
		require.NoError(t, err)
		assert.Equal(t, "wind-farm-alpha", name)
	})

	t.Run("taken name gets a numeric suffix", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &domain.ProjectRecord{
			Name:      "wind-farm-beta",
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}))

		name, err := n.EnsureUnique(ctx, "wind-farm-beta")
		require.NoError(t, err)
		assert.Equal(t, "wind-farm-beta-2", name)
	})

	t.Run("suffix search skips taken variants", func(t *testing.T) {
		for _, taken := range []string{"wind-farm-gamma", "wind-farm-gamma-2", "wind-farm-gamma-3"} {
			require.NoError(t, store.Save(ctx, &domain.ProjectRecord{
				Name:      taken,
				CreatedAt: time.Now().UTC(),
				UpdatedAt: time.Now().UTC(),
			}))
		}

		name, err := n.EnsureUnique(ctx, "wind-farm-gamma")
		require.NoError(t, err)
		assert.Equal(t, "wind-farm-gamma-4", name)
	})
}
