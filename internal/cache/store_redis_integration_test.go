//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderscope/pkg/platform/sentinel"
	"orderscope/pkg/testutil/containers"
)

func TestRedisStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	require.NoError(t, rc.FlushAll(ctx))

	store, err := NewRedisStore(rc.Client)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "osc:search:shop-a:abc", []byte(`{"v":1}`), time.Minute))
		got, err := store.Get(ctx, "osc:search:shop-a:abc")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"v":1}`), got)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Get(ctx, "osc:search:shop-a:missing")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("ttl expiry", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "osc:search:shop-a:short", []byte("v"), time.Second))
		time.Sleep(1500 * time.Millisecond)
		_, err := store.Get(ctx, "osc:search:shop-a:short")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("pattern invalidation scans the keyspace", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		for _, key := range []string{
			"osc:search:shop-a:k1",
			"osc:groups:shop-a:k2",
			"osc:search:shop-b:k3",
		} {
			require.NoError(t, store.Set(ctx, key, []byte("v"), time.Minute))
		}

		removed, err := store.DeletePattern(ctx, "osc:*:shop-a:*")
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		_, err = store.Get(ctx, "osc:search:shop-b:k3")
		assert.NoError(t, err)
	})
}
