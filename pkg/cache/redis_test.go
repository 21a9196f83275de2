package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/trailmap/pkg/cache"
)

func newRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	c := cache.NewRedisCacheFromClient(client, cache.WithRedisPrefix("test:"))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)
	require.NoError(t, c.Ping(ctx))

	_, hit, err := c.Get(ctx, "layout:abc")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "layout:abc", []byte(`{"width":390}`), 0))
	assert.True(t, mr.Exists("test:layout:abc"), "key should carry the prefix")

	data, hit, err := c.Get(ctx, "layout:abc")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, `{"width":390}`, string(data))

	require.NoError(t, c.Delete(ctx, "layout:abc"))
	_, hit, err = c.Get(ctx, "layout:abc")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)

	require.NoError(t, c.Set(ctx, "page:1", []byte("p"), cache.TTLPage))
	assert.Equal(t, cache.TTLPage, mr.TTL("test:page:1"))

	mr.FastForward(cache.TTLPage + time.Second)
	_, hit, err := c.Get(ctx, "page:1")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCacheServerError(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)
	mr.SetError("LOADING server is loading")

	_, _, err := c.Get(ctx, "k")
	assert.Error(t, err)
}
