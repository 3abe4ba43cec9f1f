package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/floroz/gavel-live/pkg/contracts"
)

const defaultDeliveryTimeout = 10 * time.Second

// Relay turns closure events into outbound notifications and winner mailbox entries.
type Relay struct {
	results  ResultReader
	mailbox  Mailbox
	channels []Channel
	timeout  time.Duration
	logger   *slog.Logger
}

type Option func(*Relay)

// WithDeliveryTimeout bounds each channel delivery.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewRelay(results ResultReader, mailbox Mailbox, channels []Channel, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		results:  results,
		mailbox:  mailbox,
		channels: channels,
		timeout:  defaultDeliveryTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleAuctionClosed delivers the stored result of event.AuctionID through every
// channel and, for settled auctions, queues a notice for the winner.
// Channel failures are logged and never returned.
func (r *Relay) HandleAuctionClosed(ctx context.Context, event contracts.AuctionClosed) error {
	logger := r.logger.With("auction_id", event.AuctionID, "event_id", event.EventID)

	result, err := r.results.GetResult(ctx, event.AuctionID)
	if errors.Is(err, contracts.ErrResultNotFound) {
		logger.Warn("Closed result missing, skipping notification")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load result %d: %w", event.AuctionID, err)
	}
	if event.Outcome.IsValid() && event.Outcome != result.Outcome {
		logger.Warn("Event outcome disagrees with stored result, using stored result",
			"event_outcome", event.Outcome, "stored_outcome", result.Outcome)
	}

	r.deliver(ctx, FormatClosed(result), logger)

	if !result.HasWinner() {
		return nil
	}
	if err := r.mailbox.Append(ctx, result.WinnerID, WinnerNotice(result)); err != nil {
		return fmt.Errorf("notify winner %d: %w", result.WinnerID, err)
	}
	logger.Info("Winner notified", "winner_id", result.WinnerID)
	return nil
}

// deliver fans msg out to all channels at once, each under its own timeout.
func (r *Relay) deliver(ctx context.Context, msg Message, logger *slog.Logger) {
	var g errgroup.Group
	for _, ch := range r.channels {
		g.Go(func() error {
			dctx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			start := time.Now()
			if err := ch.Deliver(dctx, msg); err != nil {
				logger.Error("Notification delivery failed", "channel", ch.Name(), "error", err)
				return nil
			}
			logger.Info("Notification delivered", "channel", ch.Name(), "latency", time.Since(start).String())
			return nil
		})
	}
	_ = g.Wait()
}
