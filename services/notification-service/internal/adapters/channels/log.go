package channels

import (
	"context"
	"log/slog"

	"github.com/floroz/gavel-live/services/notification-service/internal/domain/notifications"
)

// Log writes notifications to the service log. Used when no external channel is configured.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Name() string { return "log" }

func (l *Log) Deliver(ctx context.Context, msg notifications.Message) error {
	attrs := []any{"auction_id", msg.AuctionID, "outcome", msg.Outcome.String(), "headline", msg.Headline}
	for _, f := range msg.Fields {
		attrs = append(attrs, f.Name, f.Value)
	}
	l.logger.InfoContext(ctx, "Auction notification", attrs...)
	return nil
}
