package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/cache"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	defer store.Close()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []byte(`{"a":1}`), time.Minute))

	val, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"a":1}`), val)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Set(ctx, "short", []byte("v"), 20*time.Millisecond))
	time.Sleep(50 * time.Millisecond)

	_, ok, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok, "expired entries must read as misses")
}

func TestMemoryStoreDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	defer store.Close()

	keys := []string{
		"tripweaver_flight_jfk_lax_all",
		"tripweaver_flight_bos_sfo_all",
		"tripweaver_hotel_paris_all",
		"tripweaver_prov_serpapi_flight_jfk_lax_self",
	}
	for _, k := range keys {
		require.NoError(t, store.Set(ctx, k, []byte("v"), time.Minute))
	}

	n, err := store.DeleteByPattern(ctx, "tripweaver_flight_*")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Hotel and provider-scoped keys survive.
	_, ok, _ := store.Get(ctx, "tripweaver_hotel_paris_all")
	assert.True(t, ok)
	_, ok, _ = store.Get(ctx, "tripweaver_prov_serpapi_flight_jfk_lax_self")
	assert.True(t, ok)

	n, err = store.DeleteByPattern(ctx, "tripweaver_prov_*_flight_*")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
