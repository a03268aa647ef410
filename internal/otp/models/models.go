// Package models holds the one-time code records and purpose enum.
package models

import (
	"time"

	"aidgate/pkg/derrors"
)

// Purpose identifies the flow an OTP belongs to. A code issued for one
// purpose never verifies another.
type Purpose string

const (
	PurposeRegistration  Purpose = "registration"
	PurposeLogin         Purpose = "login"
	PurposePasswordReset Purpose = "password_reset"
	PurposePhoneChange   Purpose = "phone_change"
	PurposeDataUpdate    Purpose = "data_update"
)

// ParsePurpose validates a raw purpose string.
func ParsePurpose(raw string) (Purpose, error) {
	switch Purpose(raw) {
	case PurposeRegistration, PurposeLogin, PurposePasswordReset, PurposePhoneChange, PurposeDataUpdate:
		return Purpose(raw), nil
	}
	return "", derrors.Newf(derrors.CodeValidation, "unknown otp purpose %q", raw)
}

// Code is one issued OTP. The code value is excluded from JSON so it can
// never leak through a response or a serialized log payload.
type Code struct {
	ID            string    `json:"id"`
	Phone         string    `json:"phone"`
	Purpose       Purpose   `json:"purpose"`
	Code          string    `json:"-"`
	BeneficiaryID string    `json:"beneficiary_id,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"`
	Used          bool      `json:"used"`
	Attempts      int       `json:"attempts"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsExpiredAt reports whether the code is past its expiry.
func (c *Code) IsExpiredAt(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// IssueResult is returned to the caller after a code is issued. It carries
// the record ID and expiry, never the code itself.
type IssueResult struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifyStatus is the outcome of one OTP verification attempt.
type VerifyStatus string

const (
	VerifyOK        VerifyStatus = "ok"
	VerifyWrongCode VerifyStatus = "wrong_code"
	VerifyNoCode    VerifyStatus = "no_code"
	VerifyLocked    VerifyStatus = "locked"
)

// VerifyResult carries the verification outcome. BeneficiaryID is set on
// success when the code was issued for a known beneficiary.
type VerifyResult struct {
	Status            VerifyStatus `json:"status"`
	RemainingAttempts int          `json:"remaining_attempts,omitempty"`
	BeneficiaryID     string       `json:"beneficiary_id,omitempty"`
}
