package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/relaykit/chat-relay/internal/middleware"
	"github.com/relaykit/chat-relay/internal/model"
	"github.com/relaykit/chat-relay/internal/service"
	"github.com/relaykit/chat-relay/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	chatService *service.ChatService
	logger      *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(chatSvc *service.ChatService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		chatService: chatSvc,
		logger:      log,
	}
}

// Create handles POST /chat/conversations
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.CreateConversationRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	owner := middleware.GetOwner(ctx)
	if owner == "" {
		owner = req.UserID
	}
	if owner == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.chatService.CreateConversation(ctx, owner, req.Title)
	if err != nil {
		h.logger.Error("failed to create conversation", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":      true,
		"conversation": conv,
	})
}

// List handles GET /chat/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner := middleware.GetOwner(ctx)
	if owner == "" {
		owner = r.URL.Query().Get("userId")
	}
	if owner == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	conversations, err := h.chatService.ListConversations(ctx, owner)
	if err != nil {
		h.logger.Error("failed to list conversations", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"conversations": conversations,
		"count":         len(conversations),
	})
}

// Messages handles GET /chat/conversations/{id}
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	owner := middleware.GetOwner(ctx)
	if owner == "" {
		owner = r.URL.Query().Get("userId")
	}
	if owner == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	messages, err := h.chatService.ConversationMessages(ctx, conversationID, owner)
	if err != nil {
		h.logger.Error("failed to get conversation messages", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"conversationId": conversationID,
		"messages":       messages,
		"count":          len(messages),
	})
}
