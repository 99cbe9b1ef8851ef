package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/connecta/internal/cache"
	"github.com/oggyb/connecta/internal/config"
)

func setupCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	c := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestGetSetDel(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)
	require.NoError(t, c.Ping(ctx))

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	mr.FastForward(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok, "expired")

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	require.NoError(t, c.Del(ctx, "k"))
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestIncrDecr(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	n, err := c.Incr(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.Decr(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestDecrOrDelete(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	_, _ = c.Incr(ctx, "n")
	_, _ = c.Incr(ctx, "n")

	n, err := c.DecrOrDelete(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.DecrOrDelete(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.False(t, mr.Exists("n"), "removed at zero")

	n, err = c.DecrOrDelete(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.False(t, mr.Exists("n"))
}

func TestSetIfGeneration(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	gen, err := c.Generation(ctx, "v:gen")
	require.NoError(t, err)
	assert.Zero(t, gen)

	ok, err := c.SetIfGeneration(ctx, "v", "v:gen", gen, "7", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	val, _, _ := c.Get(ctx, "v")
	assert.Equal(t, "7", val)

	require.NoError(t, c.Invalidate(ctx, "v", "v:gen"))
	assert.False(t, mr.Exists("v"))

	// a value computed before the invalidation is refused
	ok, err = c.SetIfGeneration(ctx, "v", "v:gen", gen, "7", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("v"))

	gen, err = c.Generation(ctx, "v:gen")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	ok, _ = c.SetIfGeneration(ctx, "v", "v:gen", gen, "8", time.Minute)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("v"))
}

func TestKeys(t *testing.T) {
	c, _ := setupCache(t)
	assert.Equal(t, "typingStatus:a_b:a", c.KeyForTyping("a_b", "a"))
	assert.Equal(t, "presence:online:a", c.KeyForOnline("a"))
	assert.Equal(t, "likes:pending:a", c.KeyForLikeRequests("a"))
	assert.Equal(t, "likes:pending:a:gen", c.KeyForLikeRequestsGen("a"))
}
