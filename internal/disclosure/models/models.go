// Package models holds the PIN credential state machine types. The credential
// record owns lockout bookkeeping; all transition logic lives in the service.
package models

import (
	"time"

	registry "aidgate/internal/registry/models"
)

// PinCredential is one beneficiary's PIN record with failure bookkeeping.
// The raw PIN never appears here, only the Argon2id hash and its salt.
type PinCredential struct {
	BeneficiaryID  string
	Hash           string
	Salt           string
	FailedAttempts int
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsLockedAt reports whether the credential is locked at the given time.
func (c *PinCredential) IsLockedAt(now time.Time) bool {
	return c.LockedUntil != nil && now.Before(*c.LockedUntil)
}

// RemainingAttempts returns how many verification attempts are left before
// lockout, never below zero.
func (c *PinCredential) RemainingAttempts(maxAttempts int) int {
	return max(maxAttempts-c.FailedAttempts, 0)
}

// VerifyStatus is the outcome of one PIN verification attempt.
type VerifyStatus string

const (
	VerifyOK            VerifyStatus = "ok"
	VerifyWrongPin      VerifyStatus = "wrong_pin"
	VerifyNoPin         VerifyStatus = "no_pin"
	VerifyAccountLocked VerifyStatus = "account_locked"
)

// VerifyResult carries the verification outcome. Disclosure and Token are set
// only on VerifyOK; LockedUntil only when the account is locked.
type VerifyResult struct {
	Status            VerifyStatus    `json:"status"`
	RemainingAttempts int             `json:"remaining_attempts,omitempty"`
	LockedUntil       *time.Time      `json:"locked_until,omitempty"`
	Token             string          `json:"token,omitempty"`
	Disclosure        *FullDisclosure `json:"disclosure,omitempty"`
}

// CreateStatus is the outcome of a PIN creation request.
type CreateStatus string

const (
	CreateOK     CreateStatus = "created"
	CreateExists CreateStatus = "pin_exists"
)

// CreateResult carries the creation outcome.
type CreateResult struct {
	Status CreateStatus `json:"status"`
}

// FullDisclosure is the post-verification view: the complete beneficiary
// record, every package, and the aggregate delivery stats.
type FullDisclosure struct {
	Beneficiary registry.Beneficiary  `json:"beneficiary"`
	Packages    []registry.Package    `json:"packages"`
	Stats       registry.PackageStats `json:"stats"`
}
