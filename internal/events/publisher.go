package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/relaykit/chat-relay/internal/model"
)

// Publisher emits persisted messages onto the chat turn stream.
type Publisher struct {
	client *Client
	source string
}

// NewPublisher creates a publisher backed by the given client.
func NewPublisher(client *Client, source string) *Publisher {
	return &Publisher{client: client, source: source}
}

// MessageCreated publishes a stored message to chat.<conversationID>.<role>.
func (p *Publisher) MessageCreated(ctx context.Context, msg *model.Message) error {
	event := model.MessageEvent{
		Message:   msg,
		Source:    p.source,
		EmittedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s.%s", SubjectPrefix, msg.ConversationID, msg.Role)
	if _, err := p.client.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}
