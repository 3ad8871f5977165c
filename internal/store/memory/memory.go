// Package memory provides a volatile in-process storage backend. It is a
// conformant Store implementation used for development and tests; nothing
// survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relaykit/chat-relay/internal/model"
	"github.com/relaykit/chat-relay/internal/store"
)

// Store keeps conversations and messages in maps guarded by a single RWMutex.
// The lock serializes individual inserts only; it is never held across an
// external call, so concurrent turns on one conversation may still interleave.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*model.Conversation
	messages      map[string][]entry
	seq           uint64
}

// entry pairs a message with an insertion sequence used to break
// created_at ties deterministically.
type entry struct {
	msg model.Message
	seq uint64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		conversations: make(map[string]*model.Conversation),
		messages:      make(map[string][]entry),
	}
}

// Create inserts a new conversation.
func (s *Store) Create(ctx context.Context, owner, title string) (*model.Conversation, error) {
	now := time.Now()
	if title == "" {
		title = model.DefaultTitle(now)
	}

	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Title:     title,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	clone := *conv
	s.mu.Unlock()

	return &clone, nil
}

// Get retrieves a conversation by id. The clone is taken under the read lock:
// Append mutates UpdatedAt on the stored record, so the pointer must not be
// dereferenced after the lock is released.
func (s *Store) Get(ctx context.Context, id string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, exists := s.conversations[id]
	if !exists {
		return nil, store.ErrNotFound
	}

	clone := *conv
	return &clone, nil
}

// List returns an owner's conversations, most recently created first.
func (s *Store) List(ctx context.Context, owner string, limit int) ([]model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var convs []model.Conversation
	for _, conv := range s.conversations {
		if conv.Owner == owner {
			convs = append(convs, *conv)
		}
	}

	sort.Slice(convs, func(i, j int) bool {
		return convs[i].CreatedAt.After(convs[j].CreatedAt)
	})

	if limit > 0 && len(convs) > limit {
		convs = convs[:limit]
	}
	return convs, nil
}

// Append inserts a message. The whole insert happens under the write lock,
// so two concurrent appends cannot observe each other half-written.
func (s *Store) Append(ctx context.Context, in store.AppendInput) (*model.Message, error) {
	msg := model.Message{
		ID:              uuid.Must(uuid.NewV7()).String(),
		ConversationID:  in.ConversationID,
		Owner:           in.Owner,
		Role:            in.Role,
		Status:          in.Status,
		Body:            in.Body,
		OriginMessageID: in.OriginMessageID,
		CreatedAt:       time.Now(),
	}

	s.mu.Lock()
	s.seq++
	s.messages[in.ConversationID] = append(s.messages[in.ConversationID], entry{msg: msg, seq: s.seq})
	if conv, ok := s.conversations[in.ConversationID]; ok {
		conv.UpdatedAt = msg.CreatedAt
	}
	s.mu.Unlock()

	clone := msg
	return &clone, nil
}

// Recent returns the limit most recent messages of a conversation,
// oldest-first: cut newest-first, then reverse.
func (s *Store) Recent(ctx context.Context, conversationID, owner string, limit int) ([]model.Message, error) {
	s.mu.RLock()
	entries := s.ownedEntries(conversationID, owner)
	s.mu.RUnlock()

	sortNewestFirst(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	msgs := make([]model.Message, len(entries))
	for i, e := range entries {
		msgs[len(entries)-1-i] = e.msg
	}
	return msgs, nil
}

// All returns every message of a conversation, oldest-first.
func (s *Store) All(ctx context.Context, conversationID, owner string) ([]model.Message, error) {
	s.mu.RLock()
	entries := s.ownedEntries(conversationID, owner)
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].msg.CreatedAt.Equal(entries[j].msg.CreatedAt) {
			return entries[i].seq < entries[j].seq
		}
		return entries[i].msg.CreatedAt.Before(entries[j].msg.CreatedAt)
	})

	msgs := make([]model.Message, len(entries))
	for i, e := range entries {
		msgs[i] = e.msg
	}
	return msgs, nil
}

// RecentByOwner returns the most recent messages across all of an owner's
// conversations, newest-first.
func (s *Store) RecentByOwner(ctx context.Context, owner string, limit int) ([]model.Message, error) {
	s.mu.RLock()
	var entries []entry
	for _, convEntries := range s.messages {
		for _, e := range convEntries {
			if e.msg.Owner == owner {
				entries = append(entries, e)
			}
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	msgs := make([]model.Message, len(entries))
	for i, e := range entries {
		msgs[i] = e.msg
	}
	return msgs, nil
}

// Ping always succeeds for the in-memory backend.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory backend.
func (s *Store) Close() {}

// ownedEntries copies the entries of a conversation filtered by owner.
// Callers must hold at least the read lock.
func (s *Store) ownedEntries(conversationID, owner string) []entry {
	var out []entry
	for _, e := range s.messages[conversationID] {
		if e.msg.Owner == owner {
			out = append(out, e)
		}
	}
	return out
}

func sortNewestFirst(entries []entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].msg.CreatedAt.Equal(entries[j].msg.CreatedAt) {
			return entries[i].seq > entries[j].seq
		}
		return entries[i].msg.CreatedAt.After(entries[j].msg.CreatedAt)
	})
}
