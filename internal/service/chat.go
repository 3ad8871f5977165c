package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/relaykit/chat-relay/internal/model"
	"github.com/relaykit/chat-relay/internal/responder"
	"github.com/relaykit/chat-relay/internal/store"
	"github.com/relaykit/chat-relay/pkg/logger"
	"github.com/relaykit/chat-relay/pkg/metrics"
)

const (
	// ApologyBody is the fixed substitute persisted when the responder
	// gateway fails.
	ApologyBody = "Sorry, AI service is currently unavailable. Please try again."

	// UnavailableMarker is the response text returned to callers on
	// gateway failure.
	UnavailableMarker = "AI service unavailable"

	// recentMessagesLimit caps the cross-conversation listing endpoint.
	recentMessagesLimit = 50

	// conversationsLimit caps the conversation listing endpoint.
	conversationsLimit = 100
)

// EventPublisher receives fan-out notifications for persisted messages.
type EventPublisher interface {
	MessageCreated(ctx context.Context, msg *model.Message) error
}

// ChatService orchestrates a chat turn: authorize, resolve or create the
// conversation, assemble history, persist the user turn, call the responder,
// persist the outcome. No lock is held across any of these steps; concurrent
// turns on the same conversation may read the same history window, which is
// accepted rather than serialized.
type ChatService struct {
	conversations store.ConversationRegistry
	messages      store.MessageStore
	assembler     *Assembler
	responder     responder.Responder
	publisher     EventPublisher
	logger        *logger.Logger
	window        int
	source        string
}

// NewChatService creates the orchestrator. publisher may be nil when event
// fan-out is not configured.
func NewChatService(
	conversations store.ConversationRegistry,
	messages store.MessageStore,
	resp responder.Responder,
	publisher EventPublisher,
	log *logger.Logger,
	window int,
	source string,
) *ChatService {
	if window <= 0 {
		window = DefaultWindow
	}
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		assembler:     NewAssembler(messages),
		responder:     resp,
		publisher:     publisher,
		logger:        log,
		window:        window,
		source:        source,
	}
}

// SendInput is one inbound user turn.
type SendInput struct {
	Owner          string
	Body           string
	ConversationID string
}

// SendResult is the terminal outcome of a turn that produced writes: either
// a bot reply or the persisted error substitute.
type SendResult struct {
	Success        bool
	ConversationID string
	UserMessageID  string
	BotMessageID   string
	Reply          string

	// GatewayCause carries the underlying responder failure for
	// diagnostics when Success is false.
	GatewayCause error
}

// Send runs the orchestration sequence for one turn. Validation,
// authorization and lookup failures return an *Error before any write;
// responder failures are recovered into an error message and a failed
// SendResult.
func (s *ChatService) Send(ctx context.Context, in SendInput) (*SendResult, error) {
	if in.Body == "" {
		return nil, newError(CodeValidation, "message_required", nil)
	}
	if in.Owner == "" {
		return nil, newError(CodeValidation, "owner_required", nil)
	}

	conv, err := s.resolveConversation(ctx, in)
	if err != nil {
		return nil, err
	}

	// History is read before the new user message is persisted, so the
	// active turn never duplicates into its own context.
	transcript, err := s.assembler.Assemble(ctx, conv.ID, in.Owner, s.window)
	if err != nil {
		return nil, newError(CodeInternal, "history_read_failed", err)
	}

	userMsg, err := s.append(ctx, store.AppendInput{
		ConversationID: conv.ID,
		Owner:          in.Owner,
		Role:           model.RoleUser,
		Status:         model.StatusSent,
		Body:           in.Body,
	})
	if err != nil {
		return nil, newError(CodeInternal, "user_write_failed", err)
	}

	payload := responder.Payload{
		Message:        in.Body,
		ChatInput:      transcript.Text,
		MessageID:      userMsg.ID,
		ConversationID: conv.ID,
		History:        transcript.Entries,
		UserID:         in.Owner,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Source:         s.source,
	}

	start := time.Now()
	reply, gwErr := s.responder.Send(ctx, payload)
	if gwErr != nil {
		metrics.RecordResponderCall(s.responder.Name(), "error", time.Since(start).Seconds())
		return s.recoverGatewayFailure(ctx, conv.ID, in.Owner, userMsg.ID, gwErr)
	}
	metrics.RecordResponderCall(s.responder.Name(), "success", time.Since(start).Seconds())

	botMsg, err := s.append(ctx, store.AppendInput{
		ConversationID:  conv.ID,
		Owner:           in.Owner,
		Role:            model.RoleBot,
		Status:          model.StatusReceived,
		Body:            reply,
		OriginMessageID: &userMsg.ID,
	})
	if err != nil {
		return nil, newError(CodeInternal, "bot_write_failed", err)
	}

	return &SendResult{
		Success:        true,
		ConversationID: conv.ID,
		UserMessageID:  userMsg.ID,
		BotMessageID:   botMsg.ID,
		Reply:          reply,
	}, nil
}

// RecentMessages returns the latest messages across all of an owner's
// conversations, newest-first.
func (s *ChatService) RecentMessages(ctx context.Context, owner string) ([]model.Message, error) {
	if owner == "" {
		return nil, newError(CodeValidation, "owner_required", nil)
	}
	msgs, err := s.messages.RecentByOwner(ctx, owner, recentMessagesLimit)
	if err != nil {
		return nil, newError(CodeInternal, "message_read_failed", err)
	}
	return msgs, nil
}

// ListConversations returns an owner's conversations, most recent first.
func (s *ChatService) ListConversations(ctx context.Context, owner string) ([]model.Conversation, error) {
	if owner == "" {
		return nil, newError(CodeValidation, "owner_required", nil)
	}
	convs, err := s.conversations.List(ctx, owner, conversationsLimit)
	if err != nil {
		return nil, newError(CodeInternal, "conversation_read_failed", err)
	}
	return convs, nil
}

// ConversationMessages returns every message of a conversation, oldest-first,
// enforcing ownership.
func (s *ChatService) ConversationMessages(ctx context.Context, conversationID, owner string) ([]model.Message, error) {
	if owner == "" {
		return nil, newError(CodeValidation, "owner_required", nil)
	}

	conv, err := s.conversations.Get(ctx, conversationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(CodeNotFound, "conversation_missing", err)
	}
	if err != nil {
		return nil, newError(CodeInternal, "conversation_read_failed", err)
	}
	if err := store.Authorize(conv, owner); err != nil {
		return nil, newError(CodeAuthorization, "owner_mismatch", err)
	}

	msgs, err := s.messages.All(ctx, conversationID, owner)
	if err != nil {
		return nil, newError(CodeInternal, "message_read_failed", err)
	}
	return msgs, nil
}

// CreateConversation explicitly creates a conversation for an owner.
func (s *ChatService) CreateConversation(ctx context.Context, owner, title string) (*model.Conversation, error) {
	if owner == "" {
		return nil, newError(CodeValidation, "owner_required", nil)
	}
	conv, err := s.conversations.Create(ctx, owner, title)
	if err != nil {
		return nil, newError(CodeInternal, "conversation_write_failed", err)
	}
	metrics.ConversationsTotal.Inc()
	return conv, nil
}

func (s *ChatService) resolveConversation(ctx context.Context, in SendInput) (*model.Conversation, error) {
	if in.ConversationID == "" {
		conv, err := s.conversations.Create(ctx, in.Owner, "")
		if err != nil {
			return nil, newError(CodeInternal, "conversation_write_failed", err)
		}
		metrics.ConversationsTotal.Inc()
		return conv, nil
	}

	conv, err := s.conversations.Get(ctx, in.ConversationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(CodeNotFound, "conversation_missing", err)
	}
	if err != nil {
		return nil, newError(CodeInternal, "conversation_read_failed", err)
	}
	if err := store.Authorize(conv, in.Owner); err != nil {
		return nil, newError(CodeAuthorization, "owner_mismatch", err)
	}
	return conv, nil
}

// recoverGatewayFailure persists the fixed apology as the turn's bot half and
// reports the failure through the result rather than as an error.
func (s *ChatService) recoverGatewayFailure(ctx context.Context, conversationID, owner, userMessageID string, cause error) (*SendResult, error) {
	s.logger.Warn("responder gateway failed",
		zap.String("conversation_id", conversationID),
		zap.Error(cause),
	)

	errMsg, err := s.append(ctx, store.AppendInput{
		ConversationID:  conversationID,
		Owner:           owner,
		Role:            model.RoleBot,
		Status:          model.StatusError,
		Body:            ApologyBody,
		OriginMessageID: &userMessageID,
	})
	if err != nil {
		return nil, newError(CodeInternal, "error_write_failed", err)
	}

	return &SendResult{
		Success:        false,
		ConversationID: conversationID,
		UserMessageID:  userMessageID,
		BotMessageID:   errMsg.ID,
		Reply:          UnavailableMarker,
		GatewayCause:   cause,
	}, nil
}

func (s *ChatService) append(ctx context.Context, in store.AppendInput) (*model.Message, error) {
	msg, err := s.messages.Append(ctx, in)
	if err != nil {
		return nil, err
	}

	metrics.RecordMessage(string(msg.Role), string(msg.Status))

	if s.publisher != nil {
		if err := s.publisher.MessageCreated(ctx, msg); err != nil {
			s.logger.Warn("failed to publish message event",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}
	return msg, nil
}
