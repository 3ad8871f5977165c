// Package responder provides the gateway to the external service that turns
// a user message plus conversation context into a reply. Backends are
// interchangeable: a workflow webhook (canonical), or a model API called
// directly.
package responder

import (
	"context"
	"fmt"
)

// HistoryEntry is one prior turn-half in provider-agnostic form.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Payload is everything a responder receives for one turn. Field names are
// part of the outbound wire contract of the webhook backend.
type Payload struct {
	Message        string         `json:"message"`
	ChatInput      string         `json:"chatInput"`
	MessageID      string         `json:"messageId"`
	ConversationID string         `json:"conversationId"`
	History        []HistoryEntry `json:"conversationHistory"`
	UserID         string         `json:"userId"`
	Timestamp      string         `json:"timestamp"`
	Source         string         `json:"source"`
}

// Responder produces a reply for a turn. A single synchronous attempt, no
// retry, no circuit breaking.
type Responder interface {
	Send(ctx context.Context, payload Payload) (string, error)

	// Name identifies the backend for logs and metrics.
	Name() string
}

// GatewayError wraps any failure of a responder call. Callers treat every
// sub-cause (network error, non-success status, unusable content) the same
// way; the cause is kept only for diagnostics.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("responder gateway failure: %v", e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
