package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/floroz/gavel-live/pkg/bus"
	"github.com/floroz/gavel-live/pkg/contracts"
)

// ClosedHandler is the domain entry point for closure events
type ClosedHandler interface {
	HandleAuctionClosed(ctx context.Context, event contracts.AuctionClosed) error
}

// ClosedConsumer decodes auctions.closed messages for a ClosedHandler
type ClosedConsumer struct {
	handler ClosedHandler
	logger  *slog.Logger
}

func NewClosedConsumer(handler ClosedHandler, logger *slog.Logger) *ClosedConsumer {
	return &ClosedConsumer{handler: handler, logger: logger}
}

// Handle implements bus.Handler
func (c *ClosedConsumer) Handle(ctx context.Context, msg bus.Message) error {
	var event contracts.AuctionClosed
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		// If we can't parse it, we can't process it ever.
		return fmt.Errorf("failed to unmarshal event on %s: %w", msg.Topic, err)
	}
	if event.AuctionID <= 0 {
		return fmt.Errorf("event %s has no auction id", event.EventID)
	}

	c.logger.Info("Received message", "topic", msg.Topic, "auction_id", event.AuctionID, "outcome", event.Outcome)
	return c.handler.HandleAuctionClosed(ctx, event)
}
