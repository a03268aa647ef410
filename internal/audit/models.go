package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. Events never carry
// raw PINs or OTP codes.
type Event struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Action        Action    `json:"action"`
	Subject       string    `json:"subject"` // beneficiary ID or masked identifier
	SourceAddress string    `json:"source_address,omitempty"`
	Outcome       string    `json:"outcome"`
	Reason        string    `json:"reason,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
}

// Action identifies the audited operation.
type Action string

const (
	ActionSearchPerformed    Action = "search_performed"
	ActionPinCreated         Action = "pin_created"
	ActionPinVerified        Action = "pin_verified"
	ActionPinLocked          Action = "pin_locked"
	ActionOTPIssued          Action = "otp_issued"
	ActionOTPVerified        Action = "otp_verified"
	ActionOTPLocked          Action = "otp_locked"
	ActionBeneficiaryUpdated Action = "beneficiary_updated"
)

// Outcome values shared across events.
const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeFailure = "failure"
)
