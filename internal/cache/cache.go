// Package cache provides route-result caching. Keys embed the network
// generation, so entries computed against a stale graph are never served
// after a weather sweep; they simply age out via TTL.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/nvuppala/route-planner-service/internal/models"
)

// Cache defines the interface for route-result caching implementations.
// Get returns cached data if present and not expired, Set stores data with TTL.
type Cache interface {
	Get(ctx context.Context, key string) (models.RouteResult, bool, error)
	Set(ctx context.Context, key string, value models.RouteResult, ttl time.Duration) error
}

// InMemoryCache implements Cache using a mutex-guarded map with TTL-based
// expiration. Expired entries are removed on access. Safe for concurrent use.
type InMemoryCache struct {
	mu   sync.Mutex
	data map[string]cacheEntry
}

// cacheEntry stores a cached route result with expiration timestamp.
type cacheEntry struct {
	value     models.RouteResult
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache instance.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data: make(map[string]cacheEntry),
	}
}

// Get retrieves a cached route result for the key if present and not expired.
// Returns (result, true, nil) on cache hit, (zero, false, nil) on miss or
// expiration. Expired entries are removed on access.
func (c *InMemoryCache) Get(ctx context.Context, key string) (models.RouteResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return models.RouteResult{}, false, nil
	}

	if time.Now().After(entry.expiresAt) {
		delete(c.data, key)
		return models.RouteResult{}, false, nil
	}

	return entry.value, true, nil
}

// Set stores a route result in cache with the specified TTL duration.
func (c *InMemoryCache) Set(ctx context.Context, key string, value models.RouteResult, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}
