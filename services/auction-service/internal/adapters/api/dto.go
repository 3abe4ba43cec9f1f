package api

import (
	"time"

	"github.com/floroz/gavel-live/pkg/contracts"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/auctions"
)

const defaultDuration = 5 * time.Minute

type RegisterRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	Contact     string `json:"contact"`
}

type CreateAuctionRequest struct {
	OwnerID       int64  `json:"owner_id" binding:"required"`
	Title         string `json:"title" binding:"required"`
	StartingPrice int64  `json:"starting_price"`
	// One of the two; five minutes when both are absent
	DurationSeconds *int64 `json:"duration_seconds,omitempty"`
	DurationMinutes *int64 `json:"duration_minutes,omitempty"`
}

func (r CreateAuctionRequest) Duration() time.Duration {
	switch {
	case r.DurationSeconds != nil:
		return time.Duration(*r.DurationSeconds) * time.Second
	case r.DurationMinutes != nil:
		return time.Duration(*r.DurationMinutes) * time.Minute
	default:
		return defaultDuration
	}
}

type CreateAuctionResponse struct {
	AuctionID int64     `json:"auction_id"`
	ClosesAt  time.Time `json:"closes_at"`
}

type PlaceBidRequest struct {
	AuctionID int64 `json:"auction_id" binding:"required"`
	UserID    int64 `json:"user_id" binding:"required"`
	Amount    int64 `json:"amount"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	AuctionID int64  `json:"auction_id"`
	UserID    int64  `json:"user_id"`
	UserName  string `json:"user_name"`
	Amount    int64  `json:"amount"`
	Display   string `json:"display"`
	Timestamp string `json:"timestamp"`
}

func toBidResponse(b *auctions.Bid) BidResponse {
	return BidResponse{
		BidID:     b.ID.String(),
		AuctionID: b.AuctionID,
		UserID:    b.UserID,
		UserName:  b.UserName,
		Amount:    b.Amount,
		Display:   contracts.FormatAmount(b.Amount),
		Timestamp: b.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// HistoryEntry is one line of the closed auction history
type HistoryEntry struct {
	*contracts.ClosedResult
	Summary string `json:"summary"`
}

func toHistoryEntry(r *contracts.ClosedResult) HistoryEntry {
	winner := "N/A"
	if r.HasWinner() {
		winner = r.WinnerName
	}
	return HistoryEntry{
		ClosedResult: r,
		Summary:      "Winner: " + winner + ", Amount: " + contracts.FormatAmount(r.FinalAmount),
	}
}
