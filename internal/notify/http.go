package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPSender triggers workflows on a Novu-compatible API. Each send
// first upserts the recipient as a subscriber, then fires the
// workflow event with an idempotency transaction id.
type HTTPSender struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewHTTPSender creates a sender for the given API. baseURL carries no
// trailing slash, e.g. "https://api.novu.co/v1".
func NewHTTPSender(apiKey, baseURL string) *HTTPSender {
	return &HTTPSender{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Send upserts the subscriber and triggers the workflow.
func (s *HTTPSender) Send(ctx context.Context, msg Message) error {
	if err := s.post(ctx, "/subscribers", map[string]any{
		"subscriberId": msg.RecipientID,
		"email":        msg.Email,
		"firstName":    msg.FullName,
	}); err != nil {
		return fmt.Errorf("failed to upsert subscriber: %w", err)
	}

	if err := s.post(ctx, "/events/trigger", map[string]any{
		"name": msg.Workflow,
		"to": map[string]any{
			"subscriberId": msg.RecipientID,
			"email":        msg.Email,
		},
		"payload":       msg.Payload,
		"transactionId": msg.TransactionID,
	}); err != nil {
		return fmt.Errorf("failed to trigger workflow %s: %w", msg.Workflow, err)
	}

	return nil
}

func (s *HTTPSender) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "ApiKey "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}
