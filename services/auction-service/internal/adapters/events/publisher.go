package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/floroz/gavel-live/pkg/bus"
	"github.com/floroz/gavel-live/pkg/contracts"
	"github.com/floroz/gavel-live/pkg/domainerr"
)

// Publisher implements auctions.EventPublisher as JSON on the event bus
type Publisher struct {
	bus bus.Publisher
}

func NewPublisher(p bus.Publisher) *Publisher {
	return &Publisher{bus: p}
}

func (p *Publisher) PublishAuctionClosed(ctx context.Context, event contracts.AuctionClosed) error {
	return p.publish(ctx, contracts.TopicAuctionClosed, event)
}

func (p *Publisher) PublishBidPlaced(ctx context.Context, event contracts.BidPlaced) error {
	return p.publish(ctx, contracts.BidTopic(event.AuctionID), event)
}

func (p *Publisher) publish(ctx context.Context, topic string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.bus.Publish(ctx, topic, body); err != nil {
		return domainerr.Infra(domainerr.ErrBusUnavailable, "publish "+topic, err)
	}
	return nil
}
