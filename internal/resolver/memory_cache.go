package resolver

import (
	"context"
	"time"

	"github.com/jmehdipour/unit-notifier/internal/model"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is the in-process backend for single-node deployments.
type MemoryCache struct {
	c *gocache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{c: gocache.New(ttl, 2*ttl)}
}

var _ Cache = (*MemoryCache)(nil)

func (m *MemoryCache) Get(_ context.Context, unitID int64, source Source) ([]model.Phone, bool, error) {
	v, ok := m.c.Get(cacheKey(unitID, source))
	if !ok {
		return nil, false, nil
	}
	phones, _ := v.([]model.Phone)
	// callers may append to the result
	return append([]model.Phone(nil), phones...), true, nil
}

func (m *MemoryCache) Set(_ context.Context, unitID int64, source Source, phones []model.Phone) error {
	m.c.SetDefault(cacheKey(unitID, source), append([]model.Phone(nil), phones...))
	return nil
}
