package limits

import (
	"context"

	"carteira/internal/core"
	"carteira/internal/log"
)

// Notifier receives alerts raised by the engine. Implementations must
// not block; slow sinks should buffer internally.
type Notifier interface {
	Notify(ctx context.Context, n core.LimitNotification)
}

// LogNotifier writes alerts to the structured log. It is the fallback
// sink when no message broker is configured.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent(log.ComponentLimits)}
}

func (n *LogNotifier) Notify(ctx context.Context, alert core.LimitNotification) {
	n.logger.WarnContext(ctx, "limit alert",
		log.FieldCategory, alert.Category,
		log.FieldStatus, string(alert.Status),
		log.FieldSpentCents, alert.Spent.Cents,
		log.FieldLimitCents, alert.Limit.Cents,
		log.FieldPercentage, alert.Percentage)
}
