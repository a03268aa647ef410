package models

import (
	"strings"
	"time"
)

// SearchAttempt records one public search call. Created on every call,
// admitted or not; retained for rate-limit windows and abuse review.
// Immutable after creation except for the found flag, which the gateway
// completes once the backend lookup resolves.
type SearchAttempt struct {
	ID                string    `json:"id"`
	SourceAddress     string    `json:"source_address"`
	Timestamp         time.Time `json:"timestamp"`
	IdentifierQueried string    `json:"identifier_queried"`
	Found             bool      `json:"found"`
	Suspicious        bool      `json:"suspicious"`
	DeviceLabel       string    `json:"device_label,omitempty"`
}

// CounterState is the post-admission view of a source's counters.
type CounterState struct {
	SourceAddress string     `json:"source_address"`
	CountHourly   int        `json:"count_hourly"`
	CountDaily    int        `json:"count_daily"`
	BlockedUntil  *time.Time `json:"blocked_until,omitempty"`
}

// DenyReason distinguishes an exhausted window from an active block.
type DenyReason string

const (
	ReasonRateLimited DenyReason = "rate_limited"
	ReasonBlocked     DenyReason = "blocked"
)

// Decision is the outcome of a rate-limit check for one search call.
type Decision struct {
	Allowed         bool       `json:"allowed"`
	Reason          DenyReason `json:"reason,omitempty"`
	HourlyRemaining int        `json:"hourly_remaining"`
	DailyRemaining  int        `json:"daily_remaining"`
	BlockedUntil    *time.Time `json:"blocked_until,omitempty"`
	RetryAfter      int        `json:"retry_after,omitempty"` // seconds, only set when denied
	AttemptID       string     `json:"-"`
}

// SanitizeKeySegment escapes delimiter characters in counter key segments
// to prevent key collision attacks where user-controlled identifiers
// containing ':' could manipulate adjacent counters.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}
