package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"foodspot/internal/geo"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "foodspot:geocode:"

type cmdable interface {
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
}

// RedisCache shares resolved places between API instances. Entries have
// no TTL, matching MemoryCache.
type RedisCache struct {
	store cmdable
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{store: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (geo.Point, bool, error) {
	raw, err := c.store.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return geo.Point{}, false, nil
	}
	if err != nil {
		return geo.Point{}, false, fmt.Errorf("redis get %q: %w", key, err)
	}

	var p geo.Point
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return geo.Point{}, false, fmt.Errorf("decode cached point %q: %w", key, err)
	}
	return p, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, p geo.Point) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode point: %w", err)
	}
	if err := c.store.Set(ctx, redisKeyPrefix+key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}
