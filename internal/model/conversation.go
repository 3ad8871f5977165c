// Package model defines data structures for the chat relay.
package model

import (
	"time"
)

// Conversation represents a named, owned thread of messages.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultTitle synthesizes a conversation title from its creation time,
// rendered the way the pl-PL locale formats timestamps:
// "Rozmowa 2.01.2006, 15:04:05".
func DefaultTitle(t time.Time) string {
	return "Rozmowa " + t.Format("2.01.2006, 15:04:05")
}

// CreateConversationRequest is the request to create a new conversation.
type CreateConversationRequest struct {
	Title  string `json:"title"`
	UserID string `json:"userId,omitempty"`
}
