package responder

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicResponder answers turns by calling the Anthropic Messages API
// directly instead of going through a workflow webhook.
type AnthropicResponder struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicResponder creates an Anthropic-backed responder.
func NewAnthropicResponder(apiKey, model string) (*AnthropicResponder, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}
	return &AnthropicResponder{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// Name returns the backend name.
func (r *AnthropicResponder) Name() string {
	return "anthropic"
}

// Send submits the history plus the new user message to the Messages API.
func (r *AnthropicResponder) Send(ctx context.Context, payload Payload) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(payload.History)+1)
	for _, entry := range payload.History {
		messages = append(messages, messageParam(entry.Role, entry.Content))
	}
	messages = append(messages, messageParam("user", payload.Message))

	resp, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(r.model),
		MaxTokens: anthropic.F(int64(4096)),
		Messages:  anthropic.F(messages),
	})
	if err != nil {
		return "", &GatewayError{Err: err}
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content += block.Text
		}
	}
	if content == "" {
		return "", &GatewayError{Err: errors.New("empty message response")}
	}
	return content, nil
}

func messageParam(role, content string) anthropic.MessageParam {
	paramRole := anthropic.MessageParamRoleAssistant
	if role == "user" {
		paramRole = anthropic.MessageParamRoleUser
	}
	return anthropic.MessageParam{
		Role: anthropic.F(paramRole),
		Content: anthropic.F([]anthropic.ContentBlockParamUnion{
			anthropic.TextBlockParam{
				Type: anthropic.F(anthropic.TextBlockParamTypeText),
				Text: anthropic.F(content),
			},
		}),
	}
}
