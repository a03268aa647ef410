// Package registry exposes the beneficiary data service this core consumes.
// The relational store behind it is external; adapters here are thin I/O.
package registry

import (
	"context"

	"aidgate/internal/registry/models"
)

// Directory is the read/write port onto the beneficiary registry. Lookups
// return the beneficiary with every package row; projection down to the
// public minimal result is the lookup service's job, never the directory's.
type Directory interface {
	// SearchByNationalID returns the beneficiary and its packages, or
	// sentinel.ErrNotFound when no record matches.
	SearchByNationalID(ctx context.Context, nationalID string) (*models.Beneficiary, []models.Package, error)

	// UpdateBeneficiary applies a partial update. Callers own cache
	// invalidation for the affected national ID.
	UpdateBeneficiary(ctx context.Context, beneficiaryID string, fields models.UpdateFields) (*models.Beneficiary, error)
}
