// Package postgres provides the durable storage backend on top of pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaykit/chat-relay/internal/model"
	"github.com/relaykit/chat-relay/internal/store"
)

// Store persists conversations and messages in PostgreSQL. The pool is safe
// for concurrent use; each insert is a single implicit transaction, which is
// the only serialization the relay relies on.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a connection pool, verifies connectivity and applies pending
// schema migrations.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrateUp(databaseURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &Store{pool: pool}, nil
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

	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversations (id, title, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		conv.ID, conv.Title, conv.Owner, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}

	return conv, nil
}

// Get retrieves a conversation by id.
func (s *Store) Get(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, owner_id, created_at, updated_at
		 FROM conversations WHERE id = $1`,
		id).Scan(&conv.ID, &conv.Title, &conv.Owner, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// List returns an owner's conversations, most recently created first.
func (s *Store) List(ctx context.Context, owner string, limit int) ([]model.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, owner_id, created_at, updated_at
		 FROM conversations WHERE owner_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		owner, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var convs []model.Conversation
	for rows.Next() {
		var conv model.Conversation
		if err := rows.Scan(&conv.ID, &conv.Title, &conv.Owner, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// Append inserts a message.
func (s *Store) Append(ctx context.Context, in store.AppendInput) (*model.Message, error) {
	msg := &model.Message{
		ID:              uuid.Must(uuid.NewV7()).String(),
		ConversationID:  in.ConversationID,
		Owner:           in.Owner,
		Role:            in.Role,
		Status:          in.Status,
		Body:            in.Body,
		OriginMessageID: in.OriginMessageID,
		CreatedAt:       time.Now(),
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_messages
		   (id, conversation_id, owner_id, role, status, body, origin_message_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		msg.ID, msg.ConversationID, msg.Owner, string(msg.Role), string(msg.Status),
		msg.Body, msg.OriginMessageID, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	return msg, nil
}

// Recent returns the limit most recent messages of a conversation,
// oldest-first. The query orders newest-first for the cutoff and the result
// is reversed afterwards.
func (s *Store) Recent(ctx context.Context, conversationID, owner string, limit int) ([]model.Message, error) {
	msgs, err := s.queryMessages(ctx,
		`SELECT id, conversation_id, owner_id, role, status, body, origin_message_id, created_at
		 FROM chat_messages WHERE conversation_id = $1 AND owner_id = $2
		 ORDER BY created_at DESC LIMIT $3`,
		conversationID, owner, limit)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// All returns every message of a conversation, oldest-first.
func (s *Store) All(ctx context.Context, conversationID, owner string) ([]model.Message, error) {
	return s.queryMessages(ctx,
		`SELECT id, conversation_id, owner_id, role, status, body, origin_message_id, created_at
		 FROM chat_messages WHERE conversation_id = $1 AND owner_id = $2
		 ORDER BY created_at ASC`,
		conversationID, owner)
}

// RecentByOwner returns the most recent messages across all of an owner's
// conversations, newest-first.
func (s *Store) RecentByOwner(ctx context.Context, owner string, limit int) ([]model.Message, error) {
	return s.queryMessages(ctx,
		`SELECT id, conversation_id, owner_id, role, status, body, origin_message_id, created_at
		 FROM chat_messages WHERE owner_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		owner, limit)
}

// Ping reports database reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) queryMessages(ctx context.Context, query string, args ...any) ([]model.Message, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Owner, &msg.Role, &msg.Status,
			&msg.Body, &msg.OriginMessageID, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
