package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookPusher delivers notifications by POSTing them to a push gateway,
// one request per device address. Gateway status codes are mapped onto the
// delivery failure taxonomy.
type WebhookPusher struct {
	url    string
	client *http.Client
}

// NewWebhookPusher creates a pusher targeting the configured gateway URL.
func NewWebhookPusher(url string, timeout time.Duration) *WebhookPusher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookPusher{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type webhookMessage struct {
	To           string  `json:"to"`
	Notification Payload `json:"notification"`
}

func (p *WebhookPusher) Push(ctx context.Context, address string, payload Payload) error {
	if p.url == "" {
		return &PushError{Class: FailureUnknown, Err: fmt.Errorf("push gateway not configured")}
	}
	body, err := json.Marshal(webhookMessage{To: address, Notification: payload})
	if err != nil {
		return &PushError{Class: FailureMalformed, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return &PushError{Class: FailureUnknown, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &PushError{Class: FailureUnknown, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return &PushError{Class: FailureUnregistered, Err: fmt.Errorf("gateway status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &PushError{Class: FailureQuotaExceeded, Err: fmt.Errorf("gateway status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusBadRequest:
		return &PushError{Class: FailureMalformed, Err: fmt.Errorf("gateway status %d", resp.StatusCode)}
	default:
		return &PushError{Class: FailureUnknown, Err: fmt.Errorf("gateway status %d", resp.StatusCode)}
	}
}
