package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Notifier delivers a purchase event to an external webhook endpoint.  The
// endpoint is optional; a Notifier with an empty URL silently drops events.
// Delivery is best-effort: the consumer logs failures but never retries
// into the purchase path.
type Notifier struct {
	URL    string
	Client *http.Client
}

// NewNotifier returns a Notifier for the given endpoint.  A short client
// timeout keeps a slow webhook from backing up the consumer.
func NewNotifier(url string) *Notifier {
	return &Notifier{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify POSTs the event as JSON to the configured endpoint.  Non-2xx
// responses are reported as errors so the consumer can log them.
func (n *Notifier) Notify(ctx context.Context, ev TicketPurchasedEvent) error {
	if n.URL == "" {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Ticketing-Event", "ticket.purchased")

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
