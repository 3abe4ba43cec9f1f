package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/floroz/gavel-live/pkg/contracts"
	"github.com/floroz/gavel-live/services/ledger-service/internal/domain/ledger"
)

type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// InsertResult writes the result row once; a second insert for the same auction is ignored
func (r *LedgerRepository) InsertResult(ctx context.Context, tx pgx.Tx, result *contracts.ClosedResult) (bool, error) {
	query := `
		INSERT INTO auction_results (
			auction_id, title, owner_id, outcome, final_amount,
			winner_id, winner_name, winner_contact, closed_at
		)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6::BIGINT, 0), NULLIF($7::TEXT, ''), NULLIF($8::TEXT, ''), $9)
		ON CONFLICT (auction_id) DO NOTHING
	`
	tag, err := tx.Exec(ctx, query,
		result.AuctionID,       // $1
		result.Title,           // $2
		result.OwnerID,         // $3
		string(result.Outcome), // $4
		result.FinalAmount,     // $5
		result.WinnerID,        // $6
		result.WinnerName,      // $7
		result.WinnerContact,   // $8
		result.ClosedAt,        // $9
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert auction result: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// IncrementBidderStats adds one won auction to the user's totals atomically
func (r *LedgerRepository) IncrementBidderStats(ctx context.Context, tx pgx.Tx, userID, amount int64, wonAt time.Time) error {
	query := `
		INSERT INTO bidder_stats (user_id, auctions_won, total_spent, last_won_at, created_at, updated_at)
		VALUES ($1, 1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			auctions_won = bidder_stats.auctions_won + 1,
			total_spent = bidder_stats.total_spent + EXCLUDED.total_spent,
			last_won_at = GREATEST(bidder_stats.last_won_at, EXCLUDED.last_won_at),
			updated_at = NOW()
	`
	_, err := tx.Exec(ctx, query,
		userID, // $1
		amount, // $2
		wonAt,  // $3
	)
	if err != nil {
		return fmt.Errorf("failed to increment bidder stats: %w", err)
	}
	return nil
}

func (r *LedgerRepository) GetBidderStats(ctx context.Context, userID int64) (*ledger.BidderStats, error) {
	query := `
		SELECT user_id, auctions_won, total_spent, last_won_at, created_at, updated_at
		FROM bidder_stats
		WHERE user_id = $1
	`
	var stats ledger.BidderStats
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&stats.UserID,
		&stats.AuctionsWon,
		&stats.TotalSpent,
		&stats.LastWonAt,
		&stats.CreatedAt,
		&stats.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, ledger.ErrStatsNotFound)
		}
		return nil, fmt.Errorf("failed to get bidder stats: %w", err)
	}
	return &stats, nil
}

func (r *LedgerRepository) GetResult(ctx context.Context, auctionID int64) (*contracts.ClosedResult, error) {
	query := `
		SELECT auction_id, title, owner_id, outcome, final_amount,
			winner_id, winner_name, winner_contact, closed_at
		FROM auction_results
		WHERE auction_id = $1
	`
	var (
		result   contracts.ClosedResult
		outcome  string
		winnerID *int64
		name     *string
		contact  *string
	)
	err := r.pool.QueryRow(ctx, query, auctionID).Scan(
		&result.AuctionID,
		&result.Title,
		&result.OwnerID,
		&outcome,
		&result.FinalAmount,
		&winnerID,
		&name,
		&contact,
		&result.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("auction %d: %w", auctionID, ledger.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get auction result: %w", err)
	}

	result.Outcome = contracts.Outcome(outcome)
	if winnerID != nil {
		result.WinnerID = *winnerID
	}
	if name != nil {
		result.WinnerName = *name
	}
	if contact != nil {
		result.WinnerContact = *contact
	}
	return &result, nil
}
