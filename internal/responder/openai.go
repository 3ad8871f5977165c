package responder

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
)

// OpenAIResponder answers turns by calling the OpenAI Chat Completions API
// directly instead of going through a workflow webhook.
type OpenAIResponder struct {
	client *openai.Client
	model  string
}

// NewOpenAIResponder creates an OpenAI-backed responder.
func NewOpenAIResponder(apiKey, model string) (*OpenAIResponder, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIResponder{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// Name returns the backend name.
func (r *OpenAIResponder) Name() string {
	return "openai"
}

// Send submits the history plus the new user message as a chat completion.
func (r *OpenAIResponder) Send(ctx context.Context, payload Payload) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(payload.History)+1)
	for _, entry := range payload.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    chatRole(entry.Role),
			Content: entry.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: payload.Message,
	})

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     r.model,
		Messages:  messages,
		MaxTokens: 4096,
	})
	if err != nil {
		return "", &GatewayError{Err: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &GatewayError{Err: errors.New("empty completion response")}
	}
	return resp.Choices[0].Message.Content, nil
}

func chatRole(role string) string {
	if role == "user" {
		return openai.ChatMessageRoleUser
	}
	return openai.ChatMessageRoleAssistant
}
