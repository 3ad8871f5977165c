// Package store defines the persistence contracts for conversations and
// messages. Backends (in-memory, Postgres) implement the same interfaces and
// are selected by configuration; callers never special-case a backend.
package store

import (
	"context"
	"errors"

	"github.com/relaykit/chat-relay/internal/model"
)

var (
	// ErrNotFound is returned when a referenced conversation does not exist.
	ErrNotFound = errors.New("conversation not found")

	// ErrAccessDenied is returned when a conversation exists but belongs to
	// a different owner. Distinct from ErrNotFound.
	ErrAccessDenied = errors.New("access denied")
)

// ConversationRegistry is the durable catalog of conversation records.
type ConversationRegistry interface {
	// Create inserts a new conversation. An empty title is replaced with a
	// default synthesized from the creation timestamp.
	Create(ctx context.Context, owner, title string) (*model.Conversation, error)

	// Get fetches a conversation by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*model.Conversation, error)

	// List returns conversations belonging to an owner, most recently
	// created first.
	List(ctx context.Context, owner string, limit int) ([]model.Conversation, error)
}

// Authorize checks that a conversation may be read or appended to by owner.
// Ownership is immutable after creation.
func Authorize(conv *model.Conversation, owner string) error {
	if conv.Owner != owner {
		return ErrAccessDenied
	}
	return nil
}

// AppendInput carries the fields of a message to be inserted.
type AppendInput struct {
	ConversationID  string
	Owner           string
	Role            model.Role
	Status          model.Status
	Body            string
	OriginMessageID *string
}

// MessageStore is the append-only log of chat messages.
type MessageStore interface {
	// Append inserts a message and returns it with its assigned id and
	// timestamp. Each insert is independent and atomic; concurrent appends
	// to the same conversation must not corrupt each other.
	Append(ctx context.Context, in AppendInput) (*model.Message, error)

	// Recent returns at most limit of the most recent messages for a
	// conversation, oldest-first. The store orders newest-first for the
	// limit cutoff and then reverses: limit-then-reverse, never
	// reverse-then-limit.
	Recent(ctx context.Context, conversationID, owner string, limit int) ([]model.Message, error)

	// All returns every message of a conversation, oldest-first.
	All(ctx context.Context, conversationID, owner string) ([]model.Message, error)

	// RecentByOwner returns the most recent messages across all of an
	// owner's conversations, newest-first.
	RecentByOwner(ctx context.Context, owner string, limit int) ([]model.Message, error)
}

// Store is a full storage backend.
type Store interface {
	ConversationRegistry
	MessageStore

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close()
}
