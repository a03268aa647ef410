package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"aidgate/internal/lookup/models"
	"aidgate/pkg/requestcontext"
)

type entry struct {
	value     models.MinimalResult
	expiresAt time.Time
}

// InMemoryCache implements Cache with lazy eviction: expired entries are
// deleted on the Get that observes them. No background sweep.
type InMemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
}

func NewInMemoryCache(ttl time.Duration) *InMemoryCache {
	return &InMemoryCache{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

func (c *InMemoryCache) Get(ctx context.Context, key string) (*models.MinimalResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !requestcontext.Now(ctx).Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	value := e.value
	return &value, true, nil
}

func (c *InMemoryCache) Set(ctx context.Context, key string, result *models.MinimalResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     *result,
		expiresAt: requestcontext.Now(ctx).Add(c.ttl),
	}
	return nil
}

func (c *InMemoryCache) Invalidate(ctx context.Context, nationalID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := invalidationPrefix(nationalID)
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}
