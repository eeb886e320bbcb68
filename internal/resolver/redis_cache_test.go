package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb, ttl), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()

	_, hit, err := c.Get(ctx, 1, SourceDriver)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, 1, SourceDriver, []model.Phone{"+15550000001"}))

	key := "phones:1:driver"
	require.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	got, hit, err := c.Get(ctx, 1, SourceDriver)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []model.Phone{"+15550000001"}, got)

	// sources do not share a key
	_, hit, err = c.Get(ctx, 1, SourceCustomField)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCacheEmptyListIsHit(t *testing.T) {
	c, _ := newRedisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 2, SourceCustomField, nil))

	got, hit, err := c.Get(ctx, 2, SourceCustomField)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Empty(t, got)
}

func TestRedisCacheExpires(t *testing.T) {
	c, mr := newRedisCache(t, time.Second)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 3, SourceDriver, []model.Phone{"+15550000001"}))
	mr.FastForward(2 * time.Second)

	_, hit, err := c.Get(ctx, 3, SourceDriver)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCacheCorruptValue(t *testing.T) {
	c, mr := newRedisCache(t, time.Minute)
	require.NoError(t, mr.Set("phones:4:driver", "not-json"))

	_, hit, err := c.Get(context.Background(), 4, SourceDriver)
	require.Error(t, err)
	assert.False(t, hit)
}

func TestMemoryCacheCopies(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	in := []model.Phone{"+15550000001"}
	require.NoError(t, c.Set(ctx, 5, SourceDriver, in))
	in[0] = "+19999999999"

	got, hit, err := c.Get(ctx, 5, SourceDriver)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []model.Phone{"+15550000001"}, got)
}
