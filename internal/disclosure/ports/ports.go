// Package ports defines shared interfaces for the disclosure module.
// Interfaces are placed here when consumed by multiple services to avoid duplication.
package ports

import (
	"context"
	"time"

	"aidgate/internal/disclosure/models"
	registry "aidgate/internal/registry/models"
)

// CredentialStore persists PIN credentials. Stores are pure I/O; lockout
// decisions belong to the service. The two Atomic methods exist so concurrent
// wrong-PIN attempts cannot race past the lockout threshold.
type CredentialStore interface {
	// Get returns the credential for the beneficiary, or sentinel.ErrNotFound.
	Get(ctx context.Context, beneficiaryID string) (*models.PinCredential, error)

	// Create inserts a new credential, or sentinel.ErrConflict when one
	// already exists.
	Create(ctx context.Context, credential *models.PinCredential) error

	// RecordFailureAtomic increments the failure counter in one step and
	// returns the updated record.
	RecordFailureAtomic(ctx context.Context, beneficiaryID string, now time.Time) (*models.PinCredential, error)

	// ApplyLockAtomic sets the lock expiry iff the failure count has reached
	// the threshold and no lock is active. Reports whether this call applied
	// the lock.
	ApplyLockAtomic(ctx context.Context, beneficiaryID string, lockedUntil time.Time, threshold int) (bool, error)

	// ClearFailures resets the failure counter and any lock after a
	// successful verification.
	ClearFailures(ctx context.Context, beneficiaryID string, now time.Time) error
}

// Directory resolves the full beneficiary record for disclosure.
type Directory interface {
	SearchByNationalID(ctx context.Context, nationalID string) (*registry.Beneficiary, []registry.Package, error)
}
