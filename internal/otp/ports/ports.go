// Package ports defines shared interfaces for the otp module.
package ports

import (
	"context"
	"time"

	"aidgate/internal/otp/models"
)

// CodeStore persists issued codes. Stores are pure I/O; expiry and attempt
// decisions belong to the service.
type CodeStore interface {
	// Create persists a newly issued code and returns its ID.
	Create(ctx context.Context, code *models.Code) (string, error)

	// LatestActive returns the newest unused, unexpired code for the phone
	// and purpose, or sentinel.ErrNotFound.
	LatestActive(ctx context.Context, phone string, purpose models.Purpose, now time.Time) (*models.Code, error)

	// IncrementAttempts bumps the attempt counter atomically and returns the
	// new count.
	IncrementAttempts(ctx context.Context, id string, now time.Time) (int, error)

	// MarkUsed consumes the code. A used code never verifies again.
	MarkUsed(ctx context.Context, id string, now time.Time) error

	// DeleteExpired removes codes that expired before the cutoff and returns
	// how many were removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}
