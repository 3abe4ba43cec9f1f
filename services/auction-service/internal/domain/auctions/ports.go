package auctions

import (
	"context"

	"github.com/floroz/gavel-live/pkg/contracts"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/users"
)

// BidDecider validates a bid against the latest auction snapshot and returns
// the bid to record. Repositories may call it several times under contention.
type BidDecider func(current *Auction) (*Bid, error)

// AuctionRepository defines the interface for auction persistence
type AuctionRepository interface {
	NextAuctionID(ctx context.Context) (int64, error)

	// CreateAuction stores the record and adds it to the active set in one batch
	CreateAuction(ctx context.Context, auction *Auction) error

	// GetAuction returns ErrAuctionNotFound when absent
	GetAuction(ctx context.Context, id int64) (*Auction, error)

	ActiveAuctionIDs(ctx context.Context) ([]int64, error)

	// RemoveFromActive is idempotent
	RemoveFromActive(ctx context.Context, id int64) error

	// Deactivate flips IsActive to false and moves the id from the active set to
	// the closing set, only if the auction is still active. The returned snapshot
	// is the state at the flip; won is false when another caller flipped first.
	Deactivate(ctx context.Context, id int64) (final *Auction, won bool, err error)

	// ClosingAuctionIDs lists flipped auctions whose result is not confirmed yet
	ClosingAuctionIDs(ctx context.Context) ([]int64, error)

	// FinishClosing drops id from the closing set once its result is stored. Idempotent.
	FinishClosing(ctx context.Context, id int64) error

	// ApplyBid runs decide on the latest snapshot and commits the returned bid
	// together with the new CurrentBid and LeaderID. Errors from decide are
	// returned unchanged and nothing is written.
	ApplyBid(ctx context.Context, auctionID int64, decide BidDecider) (*Bid, error)

	// ListBids returns bids by amount, highest first
	ListBids(ctx context.Context, auctionID int64) ([]*Bid, error)
}

// ResultRepository stores closed results
type ResultRepository interface {
	// SaveResult creates the result once; created is false when one already existed
	SaveResult(ctx context.Context, result *ClosedResult) (created bool, err error)

	// GetResult returns ErrResultNotFound when absent
	GetResult(ctx context.Context, auctionID int64) (*ClosedResult, error)

	ListResults(ctx context.Context) ([]*ClosedResult, error)
}

// UserDirectory resolves bidders, owners and winners
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (*users.User, error)
}

// EventPublisher defines the interface for publishing lifecycle events
type EventPublisher interface {
	PublishAuctionClosed(ctx context.Context, event contracts.AuctionClosed) error
	PublishBidPlaced(ctx context.Context, event contracts.BidPlaced) error
}
