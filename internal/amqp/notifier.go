package amqp

import (
	"context"
	"log/slog"

	"carteira/internal/core"
)

// AlertPublisher adapts the client to the limit engine's notifier port.
// Publish failures are logged and dropped; alert fan-out is best effort.
type AlertPublisher struct {
	client *Client
	userID string
}

func NewAlertPublisher(client *Client, userID string) *AlertPublisher {
	return &AlertPublisher{client: client, userID: userID}
}

func (p *AlertPublisher) Notify(ctx context.Context, n core.LimitNotification) {
	msg := &LimitAlertMessage{
		UserID:     p.userID,
		Category:   n.Category,
		Status:     string(n.Status),
		LimitCents: n.Limit.Cents,
		SpentCents: n.Spent.Cents,
		Percentage: n.Percentage,
		Message:    n.Message,
		Timestamp:  n.Timestamp,
	}
	if err := p.client.PublishLimitAlert(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish limit alert", "error", err)
	}
}
