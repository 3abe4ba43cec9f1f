package auctions

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/floroz/gavel-live/pkg/contracts"
)

// Auction is a timed sale. Bid fields only change while IsActive is true.
type Auction struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	OwnerID       int64     `json:"owner_id"`
	StartingPrice int64     `json:"starting_price"`
	CurrentBid    int64     `json:"current_bid"`
	LeaderID      int64     `json:"leader_id"` // 0 until a bid is accepted
	ClosesAt      time.Time `json:"closes_at"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasLeader reports whether any bid has been accepted.
func (a *Auction) HasLeader() bool {
	return a.LeaderID != 0
}

// Expired reports whether the deadline has passed at now.
func (a *Auction) Expired(now time.Time) bool {
	return !a.ClosesAt.After(now)
}

// Outcome is the result closing the auction now would produce.
func (a *Auction) Outcome() contracts.Outcome {
	if a.CurrentBid <= a.StartingPrice {
		return contracts.OutcomeVoid
	}
	return contracts.OutcomeSettled
}

// Bid is an accepted offer. Bids are append-only.
type Bid struct {
	ID        uuid.UUID `json:"id"`
	AuctionID int64     `json:"auction_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

type ClosedResult = contracts.ClosedResult

// CloseStatus is what CheckAndClose observed
type CloseStatus int

const (
	CloseStatusStillActive CloseStatus = iota
	CloseStatusClosed
	CloseStatusAlreadyClosed
)

func (s CloseStatus) String() string {
	switch s {
	case CloseStatusStillActive:
		return "STILL_ACTIVE"
	case CloseStatusClosed:
		return "CLOSED"
	case CloseStatusAlreadyClosed:
		return "ALREADY_CLOSED"
	default:
		return fmt.Sprintf("CloseStatus(%d)", int(s))
	}
}

// CloseReport describes a CheckAndClose call. Auction is set for
// StillActive, Result is set when this call performed the closure.
type CloseReport struct {
	Status  CloseStatus
	Auction *Auction
	Result  *ClosedResult
}

// Closed reports whether this call performed the transition.
func (r *CloseReport) Closed() bool {
	return r.Status == CloseStatusClosed
}

// AuctionSummary is the read projection of a still-active auction.
type AuctionSummary struct {
	ID            int64         `json:"id"`
	Title         string        `json:"title"`
	OwnerID       int64         `json:"owner_id"`
	StartingPrice int64         `json:"starting_price"`
	CurrentBid    int64         `json:"current_bid"`
	LeaderID      int64         `json:"leader_id,omitempty"`
	LeaderName    string        `json:"leader_name,omitempty"`
	ClosesAt      time.Time     `json:"closes_at"`
	Remaining     time.Duration `json:"-"`
	RemainingText string        `json:"remaining"`
}

// FormatRemaining renders d as "4m 5s", or "0m 0s" once elapsed.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0m 0s"
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}

type CreateAuctionCommand struct {
	OwnerID       int64
	Title         string
	StartingPrice int64
	Duration      time.Duration
}

type PlaceBidCommand struct {
	AuctionID int64
	UserID    int64
	Amount    int64
}
