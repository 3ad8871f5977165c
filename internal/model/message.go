package model

import (
	"time"
)

// Role represents the half of a turn a message belongs to.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Status represents the delivery state of a message.
type Status string

const (
	StatusSent     Status = "sent"
	StatusReceived Status = "received"
	StatusError    Status = "error"
)

// Message represents one persisted turn-half within a conversation.
// Messages are append-only: once written they are never updated or removed.
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Owner          string `json:"owner"`

	Role   Role   `json:"role"`
	Status Status `json:"status"`
	Body   string `json:"body"`

	// OriginMessageID back-references the user message that triggered a
	// bot or error message. Nil for user messages.
	OriginMessageID *string `json:"origin_message_id,omitempty"`

	// CreatedAt is the ordering key within a conversation.
	CreatedAt time.Time `json:"created_at"`
}

// SendChatRequest is the request body for POST /chat.
type SendChatRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"userId,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}
