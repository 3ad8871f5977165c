package responder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookResponder posts the turn payload to a fixed workflow webhook and
// decodes whatever comes back. The downstream service is a black box: any
// non-success status is a failure.
type WebhookResponder struct {
	url    string
	client *http.Client
}

// NewWebhookResponder creates a webhook responder for the given endpoint.
// A timeout of zero means no client-side deadline.
func NewWebhookResponder(url string, timeout time.Duration) *WebhookResponder {
	return &WebhookResponder{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns the backend name.
func (r *WebhookResponder) Name() string {
	return "webhook"
}

// Send posts the payload and returns the decoded reply text.
func (r *WebhookResponder) Send(ctx context.Context, payload Payload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", &GatewayError{Err: fmt.Errorf("failed to marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(data))
	if err != nil {
		return "", &GatewayError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", &GatewayError{Err: fmt.Errorf("webhook request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &GatewayError{Err: fmt.Errorf("webhook failed with status: %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GatewayError{Err: fmt.Errorf("failed to read webhook response: %w", err)}
	}

	return DecodeReply(body), nil
}
