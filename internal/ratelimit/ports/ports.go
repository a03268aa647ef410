// Package ports defines shared interfaces for the ratelimit module.
// Interfaces are placed here when consumed by multiple services to avoid duplication.
package ports

import (
	"context"
	"time"

	"aidgate/internal/ratelimit/models"
)

// CounterStore manages per-source hourly/daily admission counters and blocks.
// Implementations must make Admit atomic per source so concurrent searches
// cannot both slip past the limit.
type CounterStore interface {
	// Admit increments both window counters when each is strictly below its
	// maximum and reports whether the request was admitted. Counters are
	// never pushed past their maxima.
	Admit(ctx context.Context, source string, maxHourly, maxDaily int) (*models.CounterState, bool, error)

	// BlockedUntil returns the active block expiry for the source, or nil.
	BlockedUntil(ctx context.Context, source string) (*time.Time, error)

	// Block marks the source blocked until the given time.
	Block(ctx context.Context, source string, until time.Time) error

	// Reset clears counters and any block for a source.
	Reset(ctx context.Context, source string) error
}

// AttemptStore appends and completes search attempt records.
type AttemptStore interface {
	// Append persists a new attempt and returns its ID.
	Append(ctx context.Context, attempt models.SearchAttempt) (string, error)

	// MarkFound completes the found flag once the backend lookup resolves.
	MarkFound(ctx context.Context, attemptID string) error

	// ListSuspicious returns attempts flagged suspicious since the cutoff,
	// newest first, for abuse review.
	ListSuspicious(ctx context.Context, since time.Time) ([]models.SearchAttempt, error)
}
