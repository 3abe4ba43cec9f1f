package ledger

import (
	"fmt"
	"time"

	"github.com/floroz/gavel-live/pkg/domainerr"
)

var (
	ErrStatsNotFound  = fmt.Errorf("%w: bidder stats not found", domainerr.ErrNotFound)
	ErrRecordNotFound = fmt.Errorf("%w: auction not recorded", domainerr.ErrNotFound)
)

// BidderStats aggregates the auctions a user has won.
type BidderStats struct {
	UserID      int64     `json:"user_id"`
	AuctionsWon int64     `json:"auctions_won"`
	TotalSpent  int64     `json:"total_spent"`
	LastWonAt   time.Time `json:"last_won_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ReconcileReport summarizes one pass over the closed history.
type ReconcileReport struct {
	Scanned  int
	Recorded int
}
