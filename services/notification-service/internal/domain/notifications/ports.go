package notifications

import (
	"context"

	"github.com/floroz/gavel-live/pkg/contracts"
)

// ResultReader loads the authoritative outcome of a closed auction
type ResultReader interface {
	// GetResult returns contracts.ErrResultNotFound when absent
	GetResult(ctx context.Context, auctionID int64) (*contracts.ClosedResult, error)
}

// Mailbox is the per-user queue drained by clients
type Mailbox interface {
	Append(ctx context.Context, userID int64, message string) error
}

// Channel is an outbound destination such as a chat webhook.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, msg Message) error
}
