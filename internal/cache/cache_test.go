package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type input struct {
	Image       string `json:"image"`
	Description string `json:"description"`
}

type result struct {
	Main string `json:"main"`
}

func newCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client, time.Minute, zaptest.NewLogger(t).Sugar()), mr
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	in := input{Image: "https://img/1.jpg", Description: "Vase"}

	var out result
	assert.False(t, c.Get(ctx, "classification", in, &out))

	c.Set(ctx, "classification", in, result{Main: "Decoration"})
	require.True(t, c.Get(ctx, "classification", in, &out))
	assert.Equal(t, "Decoration", out.Main)

	// Namespaces do not share entries.
	assert.False(t, c.Get(ctx, "colors", in, &out))

	key, err := Key("classification", in)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(2 * time.Minute)
	assert.False(t, c.Get(ctx, "classification", in, &out))
}

func TestCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	in := input{Description: "Vase"}
	key, err := Key("classification", in)
	require.NoError(t, err)
	require.NoError(t, mr.Set(key, "not json"))

	var out result
	assert.False(t, c.Get(ctx, "classification", in, &out))
	assert.False(t, mr.Exists(key))
}

func TestKey(t *testing.T) {
	a, err := Key("colors", input{Description: "Vase"})
	require.NoError(t, err)
	b, err := Key("colors", input{Description: "Vase"})
	require.NoError(t, err)
	c, err := Key("colors", input{Description: "Lamp"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "colors:"))
	assert.Len(t, a, len("colors:")+64)
}

func TestDisabled(t *testing.T) {
	ctx := context.Background()

	var nilCache *Cache
	var out result
	assert.False(t, nilCache.Get(ctx, "x", "in", &out))
	nilCache.Set(ctx, "x", "in", result{})
	assert.NoError(t, nilCache.Ping(ctx))
	assert.NoError(t, nilCache.Close())

	c := New(nil, 0, zaptest.NewLogger(t).Sugar())
	assert.Equal(t, DefaultTTL, c.ttl)
	c.Set(ctx, "x", "in", result{Main: "A"})
	assert.False(t, c.Get(ctx, "x", "in", &out))

	assert.Nil(t, NewClient(Config{Enabled: false, Address: "localhost:6379"}))
	assert.NotNil(t, NewClient(Config{Enabled: true, Address: "localhost:6379"}))
}

func TestPing(t *testing.T) {
	c, mr := newCache(t)
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}
