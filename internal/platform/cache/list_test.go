package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *ListCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewListCache(client, "tabs", time.Minute)
}

func TestFetchJSONPopulatesAndReuses(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	key, err := c.Key(ctx, "organizations", "page=1")
	require.NoError(t, err)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]int{"total": 42}, nil
	}

	var out map[string]int
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 42, out["total"])
}

func TestBumpInvalidatesOldKeys(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	before, err := c.Key(ctx, "organizations", "page=1")
	require.NoError(t, err)
	require.NoError(t, c.Bump(ctx))
	after, err := c.Key(ctx, "organizations", "page=1")
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestNilCacheFallsThroughToLoader(t *testing.T) {
	var c *ListCache
	var out map[string]string
	err := c.FetchJSON(context.Background(), "k", &out, func(context.Context) (any, error) {
		return map[string]string{"name": "Chess Guild"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Chess Guild", out["name"])
}
