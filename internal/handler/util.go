// Package handler exposes the relay's HTTP endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/relaykit/chat-relay/internal/service"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// writeInternalError writes the generic internal failure envelope, keeping
// the raw cause in a details string for operator diagnosis.
func writeInternalError(w http.ResponseWriter, cause error) {
	body := map[string]interface{}{
		"success": false,
		"error":   "internal error",
	}
	if cause != nil {
		body["details"] = cause.Error()
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

// writeServiceError maps a classified service failure to an HTTP status.
func writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		writeInternalError(w, err)
		return
	}

	switch svcErr.Code {
	case service.CodeValidation:
		writeError(w, http.StatusBadRequest, reasonMessage(svcErr.Reason))
	case service.CodeAuthorization:
		writeError(w, http.StatusForbidden, "access denied")
	case service.CodeNotFound:
		writeError(w, http.StatusNotFound, "conversation not found")
	default:
		writeInternalError(w, svcErr.Err)
	}
}

// reasonMessage translates machine reasons into client-facing text.
func reasonMessage(reason string) string {
	switch reason {
	case "message_required":
		return "Message is required"
	case "owner_required":
		return "userId is required"
	default:
		return reason
	}
}
