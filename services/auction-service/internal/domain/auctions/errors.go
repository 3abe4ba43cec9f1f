package auctions

import (
	"fmt"

	"github.com/floroz/gavel-live/pkg/contracts"
	"github.com/floroz/gavel-live/pkg/domainerr"
)

// Validation errors
var (
	ErrInvalidTitle         = fmt.Errorf("%w: title is required", domainerr.ErrInvalidArgument)
	ErrInvalidStartingPrice = fmt.Errorf("%w: starting price must be positive", domainerr.ErrInvalidArgument)
	ErrInvalidDuration      = fmt.Errorf("%w: duration must be positive", domainerr.ErrInvalidArgument)
	ErrInvalidBidAmount     = fmt.Errorf("%w: bid amount must be positive", domainerr.ErrInvalidArgument)
)

// Lookup errors
var (
	ErrAuctionNotFound = fmt.Errorf("%w: auction not found", domainerr.ErrNotFound)
	// ErrAuctionClosed is an ErrAuctionNotFound: a closed auction no longer takes bids.
	ErrAuctionClosed  = fmt.Errorf("%w: auction is already closed", ErrAuctionNotFound)
	ErrResultNotFound = contracts.ErrResultNotFound
)

// Bid rejections
var (
	ErrBidTooLow    = fmt.Errorf("%w: bid must be higher than the current bid", domainerr.ErrConflict)
	ErrSelfBid      = fmt.Errorf("%w: owner cannot bid on their own auction", domainerr.ErrConflict)
	ErrAuctionEnded = fmt.Errorf("%w: auction has ended", domainerr.ErrConflict)
)

// ErrStoreContention is returned when a bid kept losing optimistic commits.
var ErrStoreContention = fmt.Errorf("%w: too many concurrent updates, retry", domainerr.ErrStoreUnavailable)
