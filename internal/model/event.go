package model

import (
	"time"
)

// MessageEvent is the fan-out notification emitted after a message has been
// persisted. Consumers (analytics, moderation, archival) subscribe to these
// rather than polling the store.
type MessageEvent struct {
	Message   *Message  `json:"message"`
	Source    string    `json:"source"`
	EmittedAt time.Time `json:"emitted_at"`
}
