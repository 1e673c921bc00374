// Package notify implements commands.Notifier: the outbound sink for
// the "{!}" alert text (spec §4.4/§6). It writes nothing to the audit
// trail.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// WebhookNotifier posts {"text": message} to a configured URL, in the
// shape most chat-webhook integrations (Slack, Discord, generic
// relays) accept.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
	Logger *slog.Logger
}

// New builds a WebhookNotifier with a sane default HTTP timeout.
func New(url string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
		Logger: slog.Default(),
	}
}

// Send posts message to the configured webhook URL.
func (n *WebhookNotifier) Send(ctx context.Context, message string) error {
	body, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier logs notifications instead of sending them anywhere,
// used when no webhook URL is configured (e.g. PAPER mode).
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Send(ctx context.Context, message string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification", slog.String("text", message))
	return nil
}
