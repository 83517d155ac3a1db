package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Webhook posts events as {"notify": {"title": ..., "message": ...}},
// the shape a Node-RED flow forwards to Home Assistant.
type Webhook struct {
	url    string
	client *resty.Client
}

// NewWebhook creates a webhook notifier.
func NewWebhook(url string) *Webhook {
	client := resty.New()
	client.SetTimeout(30 * time.Second)

	return &Webhook{url: url, client: client}
}

// Notify implements Notifier.
func (w *Webhook) Notify(ctx context.Context, e Event) error {
	res, err := w.client.R().
		SetContext(ctx).
		SetBody(map[string]Event{"notify": e}).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("webhook returned %s", res.Status())
	}
	return nil
}
