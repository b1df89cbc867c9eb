package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// IsWebhookChannel reports whether a channel id is an HTTP endpoint rather than a chat id
func IsWebhookChannel(channelID string) bool {
	lower := strings.ToLower(channelID)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// WebhookSender posts messages to generic HTTP endpoints
type WebhookSender struct {
	client *resty.Client
}

// NewWebhookSender creates a webhook sender with the given request timeout
func NewWebhookSender(timeout time.Duration) *WebhookSender {
	return &WebhookSender{
		client: resty.New().SetTimeout(timeout),
	}
}

// Send posts msg as JSON to url
func (s *WebhookSender) Send(ctx context.Context, url string, msg Message) error {
	payload := map[string]interface{}{
		"text":       msg.Text,
		"parse_mode": msg.Format.String(),
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(url)

	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

// RoutingSender sends URL channels through a webhook sender and everything else through the chat transport
type RoutingSender struct {
	chat    Sender
	webhook Sender
}

// NewRoutingSender creates a routing sender. webhook may be nil to reject URL channels.
func NewRoutingSender(chat, webhook Sender) *RoutingSender {
	return &RoutingSender{chat: chat, webhook: webhook}
}

// Send implements Sender
func (r *RoutingSender) Send(ctx context.Context, channelID string, msg Message) error {
	if IsWebhookChannel(channelID) {
		if r.webhook == nil {
			return fmt.Errorf("webhook channels are not supported")
		}
		return r.webhook.Send(ctx, channelID, msg)
	}
	if r.chat == nil {
		return fmt.Errorf("chat transport is not configured")
	}
	return r.chat.Send(ctx, channelID, msg)
}
