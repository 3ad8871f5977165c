package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/relaykit/chat-relay/internal/model"
	"github.com/relaykit/chat-relay/internal/responder"
	"github.com/relaykit/chat-relay/internal/store"
)

// DefaultWindow is how many of the most recent messages are supplied to the
// responder as context.
const DefaultWindow = 10

// Transcript labels; the downstream workflows expect the Polish forms.
const (
	labelUser      = "Użytkownik"
	labelAssistant = "Asystent"
)

// Transcript is the bounded history of a conversation in both structured and
// rendered form. Both views are built from the same window so they can never
// disagree.
type Transcript struct {
	Entries []responder.HistoryEntry
	Text    string
}

// Assembler reads the recent window of a conversation and renders it for the
// responder.
type Assembler struct {
	messages store.MessageStore
}

// NewAssembler creates a history assembler over a message store.
func NewAssembler(messages store.MessageStore) *Assembler {
	return &Assembler{messages: messages}
}

// Assemble reads at most window recent messages, oldest-first, and maps them
// to provider-agnostic entries: user messages keep the "user" role, anything
// else becomes "assistant". Callers invoke this before persisting the turn's
// new user message, so the active turn never appears in its own context.
func (a *Assembler) Assemble(ctx context.Context, conversationID, owner string, window int) (Transcript, error) {
	if window <= 0 {
		window = DefaultWindow
	}

	msgs, err := a.messages.Recent(ctx, conversationID, owner, window)
	if err != nil {
		return Transcript{}, fmt.Errorf("failed to read history: %w", err)
	}

	entries := make([]responder.HistoryEntry, len(msgs))
	for i, msg := range msgs {
		role := "assistant"
		if msg.Role == model.RoleUser {
			role = "user"
		}
		entries[i] = responder.HistoryEntry{Role: role, Content: msg.Body}
	}

	return Transcript{
		Entries: entries,
		Text:    RenderTranscript(entries),
	}, nil
}

// RenderTranscript renders entries as "<label>: <content>" lines joined by
// newlines. No history renders as the empty string.
func RenderTranscript(entries []responder.HistoryEntry) string {
	if len(entries) == 0 {
		return ""
	}

	lines := make([]string, len(entries))
	for i, entry := range entries {
		label := labelAssistant
		if entry.Role == "user" {
			label = labelUser
		}
		lines[i] = label + ": " + entry.Content
	}
	return strings.Join(lines, "\n")
}
