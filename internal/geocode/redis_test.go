package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodspot/internal/geo"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	values map[string]string
	ttl    map[string]time.Duration
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	f.ttl[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	store := newFakeRedis()
	c := &RedisCache{store: store}
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "kochi")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "kochi", geo.Point{Latitude: 9.93, Longitude: 76.26}))
	assert.Contains(t, store.values, "foodspot:geocode:kochi")
	assert.Zero(t, store.ttl["foodspot:geocode:kochi"])

	p, ok, err := c.Get(ctx, "kochi")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 9.93, p.Latitude)
}

func TestRedisCacheErrors(t *testing.T) {
	store := newFakeRedis()
	store.err = errors.New("connection reset")
	c := &RedisCache{store: store}

	_, _, err := c.Get(context.Background(), "kochi")
	assert.Error(t, err)
	assert.Error(t, c.Set(context.Background(), "kochi", geo.Point{}))

	store.err = nil
	store.values["foodspot:geocode:bad"] = "not json"
	_, _, err = c.Get(context.Background(), "bad")
	assert.Error(t, err)
}

func TestGeocoderFallsThroughOnCacheError(t *testing.T) {
	store := newFakeRedis()
	store.err = errors.New("down")

	g := New(
		WithCache(&RedisCache{store: store}),
		WithHTTPClient(stubClient(`[{"lat":"1","lon":"2"}]`)),
	)
	p, err := g.Resolve(context.Background(), "somewhere")
	require.NoError(t, err)
	assert.Equal(t, geo.Point{Latitude: 1, Longitude: 2}, p)
}
