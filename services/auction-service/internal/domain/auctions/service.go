package auctions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/floroz/gavel-live/pkg/contracts"
	"github.com/floroz/gavel-live/pkg/domainerr"
)

// Service owns the auction lifecycle: creation, bid acceptance and closure.
type Service struct {
	auctions  AuctionRepository
	results   ResultRepository
	users     UserDirectory
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new auction service
func NewService(
	auctions AuctionRepository,
	results ResultRepository,
	users UserDirectory,
	publisher EventPublisher,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		auctions:  auctions,
		results:   results,
		users:     users,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateCreate(cmd CreateAuctionCommand) error {
	if strings.TrimSpace(cmd.Title) == "" {
		return ErrInvalidTitle
	}
	if cmd.StartingPrice <= 0 {
		return ErrInvalidStartingPrice
	}
	if cmd.Duration <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// CreateAuction opens a new auction closing Duration from now.
func (s *Service) CreateAuction(ctx context.Context, cmd CreateAuctionCommand) (*Auction, error) {
	if err := validateCreate(cmd); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUser(ctx, cmd.OwnerID); err != nil {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "load owner", err)
	}

	id, err := s.auctions.NextAuctionID(ctx)
	if err != nil {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "allocate auction id", err)
	}

	now := s.now()
	auction := &Auction{
		ID:            id,
		Title:         strings.TrimSpace(cmd.Title),
		OwnerID:       cmd.OwnerID,
		StartingPrice: cmd.StartingPrice,
		CurrentBid:    cmd.StartingPrice,
		ClosesAt:      now.Add(cmd.Duration),
		IsActive:      true,
		CreatedAt:     now,
	}
	if err := s.auctions.CreateAuction(ctx, auction); err != nil {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "save auction", err)
	}

	s.logger.Info("Auction created", "auction_id", id, "owner_id", cmd.OwnerID, "closes_at", auction.ClosesAt)
	return auction, nil
}

// PlaceBid accepts a bid if it beats the current bid of a running auction.
// Validation and the write are applied atomically against the latest state,
// so resubmitting an accepted bid is rejected as too low.
func (s *Service) PlaceBid(ctx context.Context, cmd PlaceBidCommand) (*Bid, error) {
	if cmd.Amount <= 0 {
		return nil, ErrInvalidBidAmount
	}

	bidder, err := s.users.GetUser(ctx, cmd.UserID)
	if err != nil {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "load bidder", err)
	}

	var title string
	bid, err := s.auctions.ApplyBid(ctx, cmd.AuctionID, func(current *Auction) (*Bid, error) {
		now := s.now()
		title = current.Title
		if !current.IsActive {
			return nil, ErrAuctionClosed
		}
		if current.OwnerID == cmd.UserID {
			return nil, ErrSelfBid
		}
		if current.Expired(now) {
			return nil, ErrAuctionEnded
		}
		if cmd.Amount <= current.CurrentBid {
			return nil, fmt.Errorf("%w (current bid is %s)", ErrBidTooLow, contracts.FormatAmount(current.CurrentBid))
		}
		return &Bid{
			ID:        uuid.New(),
			AuctionID: current.ID,
			UserID:    bidder.ID,
			UserName:  bidder.DisplayName,
			Amount:    cmd.Amount,
			Timestamp: now,
		}, nil
	})
	if err != nil {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "apply bid", err)
	}

	s.publishBidPlaced(ctx, title, bid)
	return bid, nil
}

// publishBidPlaced is best-effort: the bid is already committed.
func (s *Service) publishBidPlaced(ctx context.Context, title string, bid *Bid) {
	event := contracts.BidPlaced{
		BidID:     bid.ID,
		AuctionID: bid.AuctionID,
		Title:     title,
		UserID:    bid.UserID,
		UserName:  bid.UserName,
		Amount:    bid.Amount,
		Timestamp: bid.Timestamp,
	}
	if err := s.publisher.PublishBidPlaced(ctx, event); err != nil {
		s.logger.Warn("Failed to publish bid update", "auction_id", bid.AuctionID, "bid_id", bid.ID, "error", err)
	}
}

// GetAuction returns the current snapshot without triggering closure.
func (s *Service) GetAuction(ctx context.Context, id int64) (*Auction, error) {
	auction, err := s.auctions.GetAuction(ctx, id)
	if err != nil {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "load auction", err)
	}
	return auction, nil
}

// ListBids returns the bids of an auction, highest first.
func (s *Service) ListBids(ctx context.Context, auctionID int64) ([]*Bid, error) {
	bids, err := s.auctions.ListBids(ctx, auctionID)
	if err != nil {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "list bids", err)
	}
	if bids == nil {
		bids = []*Bid{}
	}
	return bids, nil
}

// ListClosedHistory returns every stored result ordered by auction id.
func (s *Service) ListClosedHistory(ctx context.Context) ([]*ClosedResult, error) {
	results, err := s.results.ListResults(ctx)
	if err != nil {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "list results", err)
	}
	if results == nil {
		results = []*ClosedResult{}
	}
	return results, nil
}

// GetResult returns the stored result of a closed auction.
func (s *Service) GetResult(ctx context.Context, auctionID int64) (*ClosedResult, error) {
	result, err := s.results.GetResult(ctx, auctionID)
	if err != nil {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "load result", err)
	}
	return result, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domainerr.ErrNotFound)
}
