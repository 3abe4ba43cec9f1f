// Package contracts defines the payloads and key layout shared between the
// auction, notification and ledger services.
package contracts

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Topic names on the event bus
const (
	TopicAuctionClosed = "auctions.closed"
	bidTopicPrefix     = "auctions.bids."
)

// BidTopic returns the per-auction topic carrying accepted bids.
func BidTopic(auctionID int64) string {
	return bidTopicPrefix + strconv.FormatInt(auctionID, 10)
}

// AuctionIDFromBidTopic extracts the auction id from a BidTopic name.
func AuctionIDFromBidTopic(topic string) (int64, bool) {
	raw, ok := strings.CutPrefix(topic, bidTopicPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Outcome is the final state of a closed auction
type Outcome string

const (
	OutcomeSettled Outcome = "SETTLED"
	OutcomeVoid    Outcome = "VOID"
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	return string(o)
}

// IsValid checks if the outcome is one of the known values
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeSettled, OutcomeVoid:
		return true
	default:
		return false
	}
}

// AuctionClosed is published once per auction, right after its result is stored.
// It is a hint only: the stored ClosedResult is authoritative.
type AuctionClosed struct {
	EventID    uuid.UUID `json:"event_id"`
	AuctionID  int64     `json:"auction_id"`
	Outcome    Outcome   `json:"outcome"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BidPlaced is published on BidTopic after a bid has been committed.
type BidPlaced struct {
	BidID     uuid.UUID `json:"bid_id"`
	AuctionID int64     `json:"auction_id"`
	Title     string    `json:"title"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}
