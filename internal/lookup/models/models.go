package models

import (
	"strings"
	"time"

	ratelimit "aidgate/internal/ratelimit/models"
	registry "aidgate/internal/registry/models"
)

// MinimalResult is the restricted pre-disclosure search response. This
// projection boundary is the anti-enumeration contract: never sensitive
// fields, never the package history, at most one in-delivery summary. It is
// enforced in the lookup service, not left to any UI.
type MinimalResult struct {
	BeneficiaryID string                     `json:"beneficiary_id"`
	Name          string                     `json:"name"`
	NationalID    string                     `json:"national_id"`
	Status        registry.BeneficiaryStatus `json:"status"`
	InDelivery    *PackageSummary            `json:"in_delivery,omitempty"`
	HasPin        bool                       `json:"has_pin"`
}

// PackageSummary is the single surfaced in-progress package.
type PackageSummary struct {
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	ScheduledDate  *time.Time `json:"scheduled_date,omitempty"`
}

// Denial is returned when the rate limiter refuses the search. The message
// distinguishes an exhausted window from an active block and states the
// concrete wait when known.
type Denial struct {
	Reason       ratelimit.DenyReason `json:"reason"`
	Message      string               `json:"message"`
	BlockedUntil *time.Time           `json:"blocked_until,omitempty"`
	RetryAfter   int                  `json:"retry_after,omitempty"`
}

// Outcome is the gateway's answer to one admitted-or-denied search. Exactly
// one of Result and Denial is set; not-found and validation failures are
// errors, not outcomes.
type Outcome struct {
	Result *MinimalResult `json:"result,omitempty"`
	Denial *Denial        `json:"denial,omitempty"`
}

// Query captures the search input after handler-level decoding.
type Query struct {
	NationalID    string
	SourceAddress string
	Page          int
	PageSize      int
}

// MaskNationalID hides all but the last three digits for logs and audit
// records. Raw identifiers stay out of anything that outlives the request.
func MaskNationalID(nationalID string) string {
	if len(nationalID) <= 3 {
		return "***"
	}
	return strings.Repeat("*", len(nationalID)-3) + nationalID[len(nationalID)-3:]
}
