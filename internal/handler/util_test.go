package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relaykit/chat-relay/internal/service"
)

func TestWriteServiceErrorInternalIncludesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, &service.Error{
		Code:   service.CodeInternal,
		Reason: "message_write_failed",
		Err:    errors.New("connection pool exhausted"),
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, false, body["success"])
	require.Equal(t, "internal error", body["error"])
	require.Equal(t, "connection pool exhausted", body["details"])
}

func TestWriteServiceErrorUnclassified(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, errors.New("boom"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "internal error", body["error"])
	require.Equal(t, "boom", body["details"])
}

func TestWriteServiceErrorMapping(t *testing.T) {
	cases := []struct {
		code   service.Code
		status int
	}{
		{service.CodeValidation, http.StatusBadRequest},
		{service.CodeAuthorization, http.StatusForbidden},
		{service.CodeNotFound, http.StatusNotFound},
		{service.CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeServiceError(rec, &service.Error{Code: tc.code, Reason: "x"})
		require.Equal(t, tc.status, rec.Code, string(tc.code))
	}
}
