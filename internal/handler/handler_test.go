package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/chat-relay/internal/middleware"
	"github.com/relaykit/chat-relay/internal/responder"
	"github.com/relaykit/chat-relay/internal/service"
	"github.com/relaykit/chat-relay/internal/store/memory"
	"github.com/relaykit/chat-relay/pkg/logger"
)

type stubResponder struct {
	reply string
	err   error
}

func (r *stubResponder) Send(_ context.Context, _ responder.Payload) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.reply, nil
}

func (r *stubResponder) Name() string { return "stub" }

func newRouter(t *testing.T, resp responder.Responder, jwtSecret string) (*chi.Mux, *memory.Store) {
	t.Helper()

	st := memory.New()
	svc := service.NewChatService(st, st, resp, nil, logger.NewNop(), 10, "test")
	chatHandler := NewChatHandler(svc, logger.NewNop())
	convHandler := NewConversationHandler(svc, logger.NewNop())

	r := chi.NewRouter()
	r.Route("/chat", func(r chi.Router) {
		if jwtSecret != "" {
			r.Use(middleware.Auth(jwtSecret))
		}
		r.Post("/", chatHandler.Send)
		r.Get("/", chatHandler.Recent)
		r.Post("/conversations", convHandler.Create)
		r.Get("/conversations", convHandler.List)
		r.Get("/conversations/{id}", convHandler.Messages)
	})
	return r, st
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestSendChatNewConversation(t *testing.T) {
	router, st := newRouter(t, &stubResponder{reply: "hi there"}, "")

	rec := postJSON(t, router, "/chat", map[string]string{
		"message": "hello",
		"userId":  "user-1",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	require.Equal(t, "hi there", body["response"])
	require.NotEmpty(t, body["conversationId"])
	require.NotEmpty(t, body["userMessage"])
	require.NotEmpty(t, body["botMessage"])

	msgs, err := st.All(context.Background(), body["conversationId"].(string), "user-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "hello", msgs[0].Body)
	require.Equal(t, "hi there", msgs[1].Body)
}

func TestSendChatExistingConversation(t *testing.T) {
	router, _ := newRouter(t, &stubResponder{reply: "reply"}, "")

	first := postJSON(t, router, "/chat", map[string]string{
		"message": "first",
		"userId":  "user-1",
	})
	require.Equal(t, http.StatusOK, first.Code)
	convID := decodeBody(t, first)["conversationId"].(string)

	second := postJSON(t, router, "/chat", map[string]string{
		"message":        "second",
		"userId":         "user-1",
		"conversationId": convID,
	})
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, convID, decodeBody(t, second)["conversationId"])
}

func TestSendChatEmptyMessage(t *testing.T) {
	router, _ := newRouter(t, &stubResponder{reply: "x"}, "")

	rec := postJSON(t, router, "/chat", map[string]string{"userId": "user-1"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, false, body["success"])
	require.Equal(t, "Message is required", body["error"])
}

func TestSendChatMissingOwner(t *testing.T) {
	router, _ := newRouter(t, &stubResponder{reply: "x"}, "")

	rec := postJSON(t, router, "/chat", map[string]string{"message": "hello"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "userId is required", decodeBody(t, rec)["error"])
}

func TestSendChatMalformedConversationID(t *testing.T) {
	router, _ := newRouter(t, &stubResponder{reply: "x"}, "")

	rec := postJSON(t, router, "/chat", map[string]string{
		"message":        "hello",
		"userId":         "user-1",
		"conversationId": "not-a-uuid",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendChatUnknownConversation(t *testing.T) {
	router, _ := newRouter(t, &stubResponder{reply: "x"}, "")

	rec := postJSON(t, router, "/chat", map[string]string{
		"message":        "hello",
		"userId":         "user-1",
		"conversationId": "0190a8c0-0000-7000-8000-000000000000",
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "conversation not found", decodeBody(t, rec)["error"])
}

func TestSendChatForeignConversation(t *testing.T) {
	router, st := newRouter(t, &stubResponder{reply: "x"}, "")

	conv, err := st.Create(context.Background(), "owner-a", "")
	require.NoError(t, err)

	rec := postJSON(t, router, "/chat", map[string]string{
		"message":        "hello",
		"userId":         "owner-b",
		"conversationId": conv.ID,
	})

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "access denied", decodeBody(t, rec)["error"])

	// The denied turn must leave no trace in the conversation.
	msgs, err := st.All(context.Background(), conv.ID, "owner-a")
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestSendChatGatewayFailure(t *testing.T) {
	gwErr := &responder.GatewayError{Err: context.DeadlineExceeded}
	router, st := newRouter(t, &stubResponder{err: gwErr}, "")

	rec := postJSON(t, router, "/chat", map[string]string{
		"message": "hello",
		"userId":  "user-1",
	})

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, false, body["success"])
	require.Equal(t, service.UnavailableMarker, body["response"])
	require.NotEmpty(t, body["error"])

	convID := body["conversationId"].(string)
	msgs, err := st.All(context.Background(), convID, "user-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, service.ApologyBody, msgs[1].Body)
	require.Equal(t, "error", string(msgs[1].Status))
}

func TestRecentMessages(t *testing.T) {
	router, _ := newRouter(t, &stubResponder{reply: "pong"}, "")

	rec := postJSON(t, router, "/chat", map[string]string{
		"message": "ping",
		"userId":  "user-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/chat?userId=user-1", nil)
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, req)

	require.Equal(t, http.StatusOK, listRec.Code)
	body := decodeBody(t, listRec)
	require.Equal(t, true, body["success"])
	require.Equal(t, float64(2), body["count"])
	messages := body["messages"].([]interface{})
	require.Len(t, messages, 2)
}

func TestCreateConversationDefaultTitle(t *testing.T) {
	router, _ := newRouter(t, &stubResponder{reply: "x"}, "")

	rec := postJSON(t, router, "/chat/conversations", map[string]string{"userId": "user-1"})

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	conv := body["conversation"].(map[string]interface{})
	require.Contains(t, conv["title"], "Rozmowa ")
	require.Equal(t, "user-1", conv["owner"])
}

func TestListConversations(t *testing.T) {
	router, st := newRouter(t, &stubResponder{reply: "x"}, "")

	_, err := st.Create(context.Background(), "user-1", "alpha")
	require.NoError(t, err)
	_, err = st.Create(context.Background(), "user-2", "beta")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/chat/conversations?userId=user-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, float64(1), body["count"])
}

func TestConversationMessagesOwnership(t *testing.T) {
	router, st := newRouter(t, &stubResponder{reply: "x"}, "")

	conv, err := st.Create(context.Background(), "user-1", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/chat/conversations/"+conv.ID+"?userId=user-2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestSendChatAuthenticated(t *testing.T) {
	const secret = "test-secret"
	router, st := newRouter(t, &stubResponder{reply: "ok"}, secret)

	data, err := json.Marshal(map[string]string{"message": "hello"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(data))
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, "token-owner"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	// The token subject, not the request body, decides ownership.
	msgs, err := st.All(context.Background(), body["conversationId"].(string), "token-owner")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
}

func TestSendChatRejectsMissingToken(t *testing.T) {
	router, _ := newRouter(t, &stubResponder{reply: "ok"}, "test-secret")

	rec := postJSON(t, router, "/chat", map[string]string{
		"message": "hello",
		"userId":  "user-1",
	})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
