package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/modelmux/modelmux/internal/store/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := cache.NewMemoryCache()
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, c.Set(ctx, "k", payload{Name: "x", Count: 3}, time.Minute))

	var got payload
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, payload{Name: "x", Count: 3}, got)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := cache.NewMemoryCache()
	ctx := context.Background()

	var got string
	err := c.Get(ctx, "absent", &got)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := cache.NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", -time.Second))

	var got string
	err := c.Get(ctx, "k", &got)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := cache.NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	var got string
	assert.ErrorIs(t, c.Get(ctx, "k", &got), cache.ErrCacheMiss)
}
