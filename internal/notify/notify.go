// Package notify delivers transactional email through a pluggable
// workflow provider.
package notify

import (
	"context"
	"log"
)

// Workflow identifiers understood by the provider.
const (
	WorkflowWelcome     = "welcome-user"
	WorkflowVerifyEmail = "verify-email"
)

// Message is one workflow trigger for one recipient.
type Message struct {
	Workflow      string         `json:"workflow"`
	RecipientID   string         `json:"recipientId"`
	Email         string         `json:"email"`
	FullName      string         `json:"fullName"`
	Payload       map[string]any `json:"payload,omitempty"`
	TransactionID string         `json:"transactionId"`
}

// Sender delivers a message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender logs messages instead of delivering them. Used when no
// provider is configured, typically in development.
type LogSender struct{}

// Send logs the message and reports success.
func (LogSender) Send(_ context.Context, msg Message) error {
	log.Printf("notification not delivered (no provider configured): workflow=%s recipient=%s txn=%s",
		msg.Workflow, msg.Email, msg.TransactionID)
	return nil
}
