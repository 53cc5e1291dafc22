package bots

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Webhook forwards each user message to an HTTP endpoint and renders the
// messages it answers with.
//
// Request body:  {"session_id": "...", "endpoint_id": "...", "text": "..."}
// Response body: {"messages": [{"text": "...", "quick_replies": ["..."]}]}
type Webhook struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhook creates a webhook responder. A non-empty secret signs every
// request.
func NewWebhook(url, secret string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: timeout},
	}
}

type webhookRequest struct {
	SessionID  string `json:"session_id"`
	EndpointID string `json:"endpoint_id"`
	Text       string `json:"text"`
}

// MessagesPayload is the body a webhook answers with and a push carries.
type MessagesPayload struct {
	Messages []Reply `json:"messages"`
}

func (w *Webhook) Respond(ctx context.Context, in Incoming) ([]Reply, error) {
	body, err := json.Marshal(webhookRequest{SessionID: in.SessionID, EndpointID: in.EndpointID, Text: in.Text})
	if err != nil {
		return nil, fmt.Errorf("encoding webhook request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.secret != "" {
		setSignature(req, w.secret, body, time.Now())
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling webhook: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading webhook response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var payload MessagesPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding webhook response: %w", err)
	}
	return payload.Messages, nil
}
