package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/floroz/gavel-live/pkg/bus"
	"github.com/floroz/gavel-live/pkg/contracts"
)

// ClosedProcessor is the ledger entry point for closure events
type ClosedProcessor interface {
	ProcessAuctionClosed(ctx context.Context, event contracts.AuctionClosed) error
}

type ClosedConsumer struct {
	processor ClosedProcessor
	logger    *slog.Logger
}

func NewClosedConsumer(processor ClosedProcessor, logger *slog.Logger) *ClosedConsumer {
	return &ClosedConsumer{processor: processor, logger: logger}
}

// Handle implements bus.Handler. Errors are logged by the listener and the
// reconciler picks up whatever was missed.
func (c *ClosedConsumer) Handle(ctx context.Context, msg bus.Message) error {
	var event contracts.AuctionClosed
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event on %s: %w", msg.Topic, err)
	}
	if event.AuctionID <= 0 {
		return fmt.Errorf("event %s has no auction id", event.EventID)
	}

	c.logger.Debug("Received message", "topic", msg.Topic, "auction_id", event.AuctionID)
	return c.processor.ProcessAuctionClosed(ctx, event)
}
