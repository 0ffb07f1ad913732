package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Minute), mr
}

func TestVersionInitialisesToOne(t *testing.T) {
	c, _ := newTestCache(t)
	ver, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)
}

func TestFetchJSONPopulatesOnce(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "analysis", "horizontal", "1")
	require.NoError(t, err)

	calls := 0
	loader := func(context.Context) (interface{}, error) {
		calls++
		return map[string]int{"value": 42}, nil
	}

	var first map[string]int
	require.NoError(t, c.FetchJSON(ctx, key, &first, loader))
	var second map[string]int
	require.NoError(t, c.FetchJSON(ctx, key, &second, loader))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 42, second["value"])
}

func TestBumpInvalidatesBuiltKeys(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	before, err := c.BuildKey(ctx, "analysis", "vertical", "1")
	require.NoError(t, err)

	require.NoError(t, c.Bump(ctx))

	after, err := c.BuildKey(ctx, "analysis", "vertical", "1")
	require.NoError(t, err)
	// A recalculation batch bumps the version, so every report key changes
	// and stale payloads are never served.
	assert.NotEqual(t, before, after)
}

func TestFetchJSONPropagatesLoaderError(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	wantErr := errors.New("boom")
	var dest map[string]int
	err := c.FetchJSON(ctx, "some:key", &dest, func(context.Context) (interface{}, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestNilCacheDegradesToLoader(t *testing.T) {
	var c *Cache
	var dest map[string]int
	err := c.FetchJSON(context.Background(), "k", &dest, func(context.Context) (interface{}, error) {
		return map[string]int{"value": 7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, dest["value"])
}
