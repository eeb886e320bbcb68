package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps phone lists as JSON arrays with a TTL.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

var _ Cache = (*RedisCache)(nil)

func (c *RedisCache) Get(ctx context.Context, unitID int64, source Source) ([]model.Phone, bool, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(unitID, source)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var phones []model.Phone
	if err := json.Unmarshal(raw, &phones); err != nil {
		return nil, false, err
	}
	return phones, true, nil
}

func (c *RedisCache) Set(ctx context.Context, unitID int64, source Source, phones []model.Phone) error {
	if phones == nil {
		phones = []model.Phone{}
	}
	b, err := json.Marshal(phones)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKey(unitID, source), b, c.ttl).Err()
}
