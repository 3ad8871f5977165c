package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/relaykit/chat-relay/internal/middleware"
	"github.com/relaykit/chat-relay/internal/model"
	"github.com/relaykit/chat-relay/internal/service"
	"github.com/relaykit/chat-relay/pkg/logger"
)

// ChatHandler handles the chat endpoints.
type ChatHandler struct {
	chatService *service.ChatService
	logger      *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatSvc *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatSvc,
		logger:      log,
	}
}

// sendResponse is the body for POST /chat outcomes. On a gateway failure the
// same shape is returned with success=false and the unavailability marker in
// the response field.
type sendResponse struct {
	Success        bool   `json:"success"`
	ConversationID string `json:"conversationId"`
	UserMessage    string `json:"userMessage"`
	BotMessage     string `json:"botMessage"`
	Response       string `json:"response"`
	Error          string `json:"error,omitempty"`
}

// Send handles POST /chat
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.SendChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	owner := middleware.GetOwner(ctx)
	if owner == "" {
		owner = req.UserID
	}
	if owner == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := middleware.ValidateMessageBody(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ConversationID != "" {
		if err := middleware.ValidateConversationID(req.ConversationID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	result, err := h.chatService.Send(ctx, service.SendInput{
		Owner:          owner,
		Body:           req.Message,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		h.logger.Error("chat turn failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	if !result.Success {
		detail := ""
		if result.GatewayCause != nil {
			detail = result.GatewayCause.Error()
		}
		writeJSON(w, http.StatusServiceUnavailable, &sendResponse{
			Success:        false,
			ConversationID: result.ConversationID,
			UserMessage:    result.UserMessageID,
			BotMessage:     result.BotMessageID,
			Response:       result.Reply,
			Error:          detail,
		})
		return
	}

	writeJSON(w, http.StatusOK, &sendResponse{
		Success:        true,
		ConversationID: result.ConversationID,
		UserMessage:    result.UserMessageID,
		BotMessage:     result.BotMessageID,
		Response:       result.Reply,
	})
}

// Recent handles GET /chat
func (h *ChatHandler) Recent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner := middleware.GetOwner(ctx)
	if owner == "" {
		owner = r.URL.Query().Get("userId")
	}
	if owner == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	messages, err := h.chatService.RecentMessages(ctx, owner)
	if err != nil {
		h.logger.Error("failed to list recent messages", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"messages": messages,
		"count":    len(messages),
	})
}
