package responder

import (
	"encoding/json"
	"strings"
)

// PlaceholderReply is used when a responder returns a body with no usable
// reply in it.
const PlaceholderReply = "No response from AI"

// DecodeReply extracts the reply text from a raw responder body. The decode
// is two-stage: any syntactically valid JSON is inspected for reply fields
// in a fixed priority order ("text", then "response", then the placeholder),
// and only a body that fails to parse at all is used as raw trimmed text.
func DecodeReply(body []byte) string {
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err == nil {
		if obj, ok := decoded.(map[string]interface{}); ok {
			if text, ok := obj["text"].(string); ok && text != "" {
				return text
			}
			if response, ok := obj["response"].(string); ok && response != "" {
				return response
			}
		}
		return PlaceholderReply
	}

	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}
	return PlaceholderReply
}
