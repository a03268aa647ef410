// Package sms wraps the external SMS gateway. The core owns phone number
// normalization; the gateway itself is an opaque HTTP collaborator.
package sms

import "context"

// Sender dispatches a text to a phone number already normalized to
// international form.
type Sender interface {
	Send(ctx context.Context, phoneE164, text string) (*Receipt, error)
}

// Receipt is the gateway's acknowledgment of an accepted message.
type Receipt struct {
	MessageID string `json:"message_id"`
}
