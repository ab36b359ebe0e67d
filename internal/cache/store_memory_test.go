package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderscope/pkg/platform/sentinel"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Now()
	store.now = func() time.Time { return base }

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, sentinel.ErrExpired)

	// Expired read reaps the entry; a second read is a plain miss.
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStoreValueIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	value := []byte("original")
	require.NoError(t, store.Set(ctx, "k", value, time.Minute))
	value[0] = 'X'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestMemoryStoreDeletePattern(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "osc:search:shop-a:aaa", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "osc:groups:shop-a:bbb", []byte("2"), time.Minute))
	require.NoError(t, store.Set(ctx, "osc:search:shop-b:ccc", []byte("3"), time.Minute))

	removed, err := store.DeletePattern(ctx, "osc:*:shop-a:*")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = store.Set(ctx, "shared", []byte("v"), time.Minute)
				_, _ = store.Get(ctx, "shared")
				_ = store.Delete(ctx, "shared")
			}
		}()
	}
	wg.Wait()
}
