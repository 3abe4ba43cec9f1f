package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/floroz/gavel-live/pkg/contracts"
)

// Repository persists results and winner totals. Writes run inside the caller's tx.
type Repository interface {
	// InsertResult reports false when the auction was already recorded.
	InsertResult(ctx context.Context, tx pgx.Tx, result *contracts.ClosedResult) (bool, error)
	IncrementBidderStats(ctx context.Context, tx pgx.Tx, userID, amount int64, wonAt time.Time) error
	GetBidderStats(ctx context.Context, userID int64) (*BidderStats, error)
	GetResult(ctx context.Context, auctionID int64) (*contracts.ClosedResult, error)
}

// ResultSource is the authoritative closed history in the shared store.
type ResultSource interface {
	GetResult(ctx context.Context, auctionID int64) (*contracts.ClosedResult, error)
	ListResults(ctx context.Context) ([]*contracts.ClosedResult, error)
}
