// Package ports defines shared interfaces for the lookup module.
// Interfaces are placed here when consumed by multiple services to avoid duplication.
package ports

import (
	"context"

	ratelimit "aidgate/internal/ratelimit/models"
	registry "aidgate/internal/registry/models"
)

// Limiter gates searches per source address. The attempt ID in the decision
// ties the limiter's record to the lookup outcome.
type Limiter interface {
	CheckAndRecord(ctx context.Context, source, nationalID string) (*ratelimit.Decision, error)
	MarkFound(ctx context.Context, attemptID string) error
}

// Directory resolves a national ID against the beneficiary registry.
type Directory interface {
	SearchByNationalID(ctx context.Context, nationalID string) (*registry.Beneficiary, []registry.Package, error)
}

// CredentialChecker reports whether a beneficiary has a PIN on file. The
// lookup service only needs the flag, never the credential itself.
type CredentialChecker interface {
	HasPin(ctx context.Context, beneficiaryID string) (bool, error)
}
