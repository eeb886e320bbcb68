package resolver

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmehdipour/unit-notifier/internal/fleet"
	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	drivers    []fleet.Driver
	fields     []fleet.CustomField
	driverErr  error
	fieldErr   error
	driverHits atomic.Int32
	fieldHits  atomic.Int32
}

func (f *fakeSession) UnitDrivers(context.Context, int64) ([]fleet.Driver, error) {
	f.driverHits.Add(1)
	return f.drivers, f.driverErr
}

func (f *fakeSession) UnitCustomFields(context.Context, int64) ([]fleet.CustomField, error) {
	f.fieldHits.Add(1)
	return f.fields, f.fieldErr
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, int64, Source) ([]model.Phone, bool, error) {
	return nil, false, errors.New("cache down")
}

func (brokenCache) Set(context.Context, int64, Source, []model.Phone) error {
	return errors.New("cache down")
}

func TestResolveMergesAndDedups(t *testing.T) {
	s := &fakeSession{
		drivers: []fleet.Driver{{Phone: "+15550000001"}, {Phone: ""}, {Phone: "+15550000002"}},
		fields: []fleet.CustomField{
			{Name: "to_number", Value: "+15550000002, +15550000003,,"},
			{Name: "other", Value: "+19999999999"},
		},
	}
	r := New(NewMemoryCache(time.Minute), false, nil)

	got, err := r.Resolve(context.Background(), 7, s)
	require.NoError(t, err)
	assert.Equal(t, []model.Phone{"+15550000001", "+15550000002", "+15550000003"}, got)
}

func TestResolveUsesCache(t *testing.T) {
	s := &fakeSession{
		drivers: []fleet.Driver{{Phone: "+15550000001"}},
		fields:  []fleet.CustomField{{Name: "to_number", Value: "+15550000009"}},
	}
	r := New(NewMemoryCache(time.Minute), false, nil)
	ctx := context.Background()

	first, err := r.Resolve(ctx, 7, s)
	require.NoError(t, err)
	second, err := r.Resolve(ctx, 7, s)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, s.driverHits.Load())
	assert.EqualValues(t, 1, s.fieldHits.Load())
}

func TestResolveEmptyUnit(t *testing.T) {
	r := New(NewMemoryCache(time.Minute), false, nil)

	got, err := r.Resolve(context.Background(), 7, &fakeSession{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveSwallowsSourceFailure(t *testing.T) {
	s := &fakeSession{
		driverErr: fleet.ErrUpstream,
		fields:    []fleet.CustomField{{Name: "to_number", Value: "+15550000003"}},
	}
	r := New(NewMemoryCache(time.Minute), false, nil)

	got, err := r.Resolve(context.Background(), 7, s)
	require.NoError(t, err)
	assert.Equal(t, []model.Phone{"+15550000003"}, got)
}

func TestResolveAllSourcesFail(t *testing.T) {
	s := &fakeSession{driverErr: fleet.ErrUpstream, fieldErr: fleet.ErrUpstream}

	lenient := New(NewMemoryCache(time.Minute), false, nil)
	got, err := lenient.Resolve(context.Background(), 7, s)
	require.NoError(t, err)
	assert.Empty(t, got)

	strict := New(NewMemoryCache(time.Minute), true, nil)
	_, err = strict.Resolve(context.Background(), 7, s)
	require.ErrorIs(t, err, fleet.ErrUpstream)
}

func TestResolveFailedSourceNotCached(t *testing.T) {
	s := &fakeSession{driverErr: fleet.ErrUpstream}
	cache := NewMemoryCache(time.Minute)
	r := New(cache, false, nil)

	_, err := r.Resolve(context.Background(), 7, s)
	require.NoError(t, err)

	_, hit, err := cache.Get(context.Background(), 7, SourceDriver)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestResolveCacheErrorsAreMisses(t *testing.T) {
	s := &fakeSession{drivers: []fleet.Driver{{Phone: "+15550000001"}}}
	r := New(brokenCache{}, false, nil)

	got, err := r.Resolve(context.Background(), 7, s)
	require.NoError(t, err)
	assert.Equal(t, []model.Phone{"+15550000001"}, got)
	assert.EqualValues(t, 1, s.driverHits.Load())
}
