// Package cache memoizes public search responses for a short TTL so repeated
// lookups of the same identifier skip the backend round-trip. Any write to a
// beneficiary or package row must invalidate the affected identifier;
// forgetting to do so is a stale-read bug, not a crash.
package cache

import (
	"context"
	"fmt"

	"aidgate/internal/lookup/models"
)

// Cache is the result cache port. Keys come from Key so pagination is always
// part of the key; a cached page can never be served for a different page size.
type Cache interface {
	// Get returns the cached result for key, or ok=false on miss or expiry.
	Get(ctx context.Context, key string) (*models.MinimalResult, bool, error)

	// Set stores the result under key for the store's configured TTL.
	Set(ctx context.Context, key string, result *models.MinimalResult) error

	// Invalidate purges every cached entry for the national ID across all
	// pagination variants.
	Invalidate(ctx context.Context, nationalID string) error
}

// Key builds the cache key for one search request.
func Key(nationalID string, page, pageSize int) string {
	return fmt.Sprintf("search:%s:%d:%d", nationalID, page, pageSize)
}

// invalidationPrefix covers every pagination variant for one identifier.
func invalidationPrefix(nationalID string) string {
	return fmt.Sprintf("search:%s:", nationalID)
}
