package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/floroz/gavel-live/pkg/contracts"
	"github.com/floroz/gavel-live/pkg/database"
)

type Service struct {
	repo      Repository
	source    ResultSource
	txManager database.TransactionManager
	logger    *slog.Logger
}

func NewService(repo Repository, source ResultSource, txManager database.TransactionManager, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		source:    source,
		txManager: txManager,
		logger:    logger,
	}
}

// errAlreadyRecorded rolls back a RecordResult whose auction is in the ledger.
var errAlreadyRecorded = errors.New("already recorded")

// RecordResult copies result into the ledger. Recording the same auction twice is a no-op,
// so winner totals move at most once per auction.
func (s *Service) RecordResult(ctx context.Context, result *contracts.ClosedResult) (bool, error) {
	err := database.WithinTx(ctx, s.txManager, func(tx pgx.Tx) error {
		// the auction id is the idempotency key
		inserted, err := s.repo.InsertResult(ctx, tx, result)
		if err != nil {
			return fmt.Errorf("failed to insert result: %w", err)
		}
		if !inserted {
			return errAlreadyRecorded
		}

		if result.HasWinner() {
			if err := s.repo.IncrementBidderStats(ctx, tx, result.WinnerID, result.FinalAmount, result.ClosedAt); err != nil {
				return fmt.Errorf("failed to increment bidder stats: %w", err)
			}
		}
		return nil
	})
	if errors.Is(err, errAlreadyRecorded) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ProcessAuctionClosed records the stored result named by event.
// The event is only a hint, so a missing result is logged and acknowledged.
func (s *Service) ProcessAuctionClosed(ctx context.Context, event contracts.AuctionClosed) error {
	result, err := s.source.GetResult(ctx, event.AuctionID)
	if errors.Is(err, contracts.ErrResultNotFound) {
		s.logger.Warn("Closed result missing, skipping", "auction_id", event.AuctionID, "event_id", event.EventID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load result %d: %w", event.AuctionID, err)
	}

	recorded, err := s.RecordResult(ctx, result)
	if err != nil {
		return err
	}
	s.logger.Info("Auction result processed", "auction_id", result.AuctionID, "outcome", result.Outcome, "recorded", recorded)
	return nil
}

// Reconcile records every closed result the ledger has not seen yet.
func (s *Service) Reconcile(ctx context.Context) (ReconcileReport, error) {
	results, err := s.source.ListResults(ctx)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("list results: %w", err)
	}

	report := ReconcileReport{Scanned: len(results)}
	for _, r := range results {
		recorded, err := s.RecordResult(ctx, r)
		if err != nil {
			return report, fmt.Errorf("reconcile auction %d: %w", r.AuctionID, err)
		}
		if recorded {
			report.Recorded++
		}
	}
	return report, nil
}

func (s *Service) GetBidderStats(ctx context.Context, userID int64) (*BidderStats, error) {
	return s.repo.GetBidderStats(ctx, userID)
}

func (s *Service) GetResult(ctx context.Context, auctionID int64) (*contracts.ClosedResult, error) {
	return s.repo.GetResult(ctx, auctionID)
}
