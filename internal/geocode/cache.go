package geocode

import (
	"context"
	"strings"
	"sync"

	"foodspot/internal/geo"
)

// Cache stores resolved places keyed by Normalize(query).
type Cache interface {
	Get(ctx context.Context, key string) (geo.Point, bool, error)
	Set(ctx context.Context, key string, p geo.Point) error
}

// Normalize lower-cases query, trims it and collapses inner whitespace.
func Normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// MemoryCache lives for the life of the process and never evicts.
type MemoryCache struct {
	mu     sync.RWMutex
	points map[string]geo.Point
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{points: make(map[string]geo.Point)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (geo.Point, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.points[key]
	return p, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, p geo.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points[key] = p
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.points)
}
