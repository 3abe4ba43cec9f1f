package contracts

import (
	"fmt"
	"time"

	"github.com/floroz/gavel-live/pkg/domainerr"
)

// ErrResultNotFound is returned by result readers when an auction has no stored outcome.
var ErrResultNotFound = fmt.Errorf("%w: closed result not found", domainerr.ErrNotFound)

// Store key layout. Every service touching the shared store goes through these.
const (
	ActiveAuctionsKey   = "active_auctions"
	ClosingAuctionsKey  = "closing_auctions"
	NextAuctionIDKey    = "next_auction_id"
	NextUserIDKey       = "next_user_id"
	ClosedResultPattern = "closed:*"
)

func AuctionKey(id int64) string      { return fmt.Sprintf("auction:%d", id) }
func BidsKey(auctionID int64) string  { return fmt.Sprintf("bids:%d", auctionID) }
func ClosedResultKey(id int64) string { return fmt.Sprintf("closed:%d", id) }
func UserKey(id int64) string         { return fmt.Sprintf("user:%d", id) }
func MailboxKey(userID int64) string  { return fmt.Sprintf("user_notif:%d", userID) }

// ClosedResult is the stored, immutable outcome of an auction.
// Winner fields are zero for VOID outcomes.
type ClosedResult struct {
	AuctionID     int64     `json:"auction_id"`
	Title         string    `json:"title"`
	OwnerID       int64     `json:"owner_id"`
	Outcome       Outcome   `json:"outcome"`
	FinalAmount   int64     `json:"final_amount"`
	WinnerID      int64     `json:"winner_id,omitempty"`
	WinnerName    string    `json:"winner_name,omitempty"`
	WinnerContact string    `json:"winner_contact,omitempty"`
	ClosedAt      time.Time `json:"closed_at"`
}

// HasWinner reports whether the auction settled with a winning bidder.
func (r *ClosedResult) HasWinner() bool {
	return r.Outcome == OutcomeSettled && r.WinnerID != 0
}

// FormatAmount renders an amount of minor units as "1234.56".
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
