package auctions

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/floroz/gavel-live/pkg/contracts"
	"github.com/floroz/gavel-live/pkg/domainerr"
)

// CheckAndClose closes the auction if its deadline has passed.
//
// It is safe to call concurrently and repeatedly: the active flag flip is the
// single linearization point, and only the caller whose flip commits computes,
// stores and publishes the result. The flip parks the id in the closing set
// until a result is stored, so a closure interrupted after the flip is
// completed by whichever sweep sees the id next.
func (s *Service) CheckAndClose(ctx context.Context, auctionID int64) (*CloseReport, error) {
	auction, err := s.auctions.GetAuction(ctx, auctionID)
	if err != nil && !errors.Is(err, ErrAuctionNotFound) {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "load auction", err)
	}

	if err != nil || !auction.IsActive {
		if rmErr := s.auctions.RemoveFromActive(ctx, auctionID); rmErr != nil {
			return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "remove from active set", rmErr)
		}
		if auction == nil {
			s.finishClosing(ctx, auctionID)
			return &CloseReport{Status: CloseStatusAlreadyClosed}, nil
		}
		return s.ensureResult(ctx, auction)
	}

	now := s.now()
	if !auction.Expired(now) {
		return &CloseReport{Status: CloseStatusStillActive, Auction: auction}, nil
	}

	final, won, err := s.auctions.Deactivate(ctx, auctionID)
	if err != nil {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "deactivate auction", err)
	}
	if !won {
		return &CloseReport{Status: CloseStatusAlreadyClosed}, nil
	}

	result, _, err := s.finalize(ctx, final)
	if err != nil {
		// id stays in the closing set for the next sweep
		return nil, err
	}
	s.finishClosing(ctx, auctionID)
	return &CloseReport{Status: CloseStatusClosed, Auction: final, Result: result}, nil
}

// finalize stores the result of a deactivated auction and announces it.
// Only the call that creates the result publishes the event.
func (s *Service) finalize(ctx context.Context, final *Auction) (*ClosedResult, bool, error) {
	result, err := s.buildResult(ctx, final)
	if err != nil {
		return nil, false, err
	}

	created, err := s.results.SaveResult(ctx, result)
	if err != nil {
		return nil, false, domainerr.Infra(domainerr.ErrStoreUnavailable, "save result", err)
	}
	if !created {
		existing, getErr := s.results.GetResult(ctx, final.ID)
		if getErr != nil {
			return nil, false, domainerr.Infra(domainerr.ErrStoreUnavailable, "load result", getErr)
		}
		return existing, false, nil
	}

	s.logger.Info("Auction closed",
		"auction_id", result.AuctionID,
		"outcome", result.Outcome.String(),
		"final_amount", result.FinalAmount,
		"winner_id", result.WinnerID,
	)

	event := contracts.AuctionClosed{
		EventID:    uuid.New(),
		AuctionID:  result.AuctionID,
		Outcome:    result.Outcome,
		OccurredAt: result.ClosedAt,
	}
	if err := s.publisher.PublishAuctionClosed(ctx, event); err != nil {
		s.logger.Error("Failed to publish auction closed event", "auction_id", result.AuctionID, "error", err)
	}
	return result, true, nil
}

// ensureResult completes an inactive auction whose closer failed before storing
// its result. Bid fields are frozen after the flip, so any caller computes the
// same outcome and the create-once write keeps the first. The closure belongs
// to the flip, so the report is always CloseStatusAlreadyClosed.
func (s *Service) ensureResult(ctx context.Context, inactive *Auction) (*CloseReport, error) {
	_, err := s.results.GetResult(ctx, inactive.ID)
	if err == nil {
		s.finishClosing(ctx, inactive.ID)
		return &CloseReport{Status: CloseStatusAlreadyClosed}, nil
	}
	if !errors.Is(err, ErrResultNotFound) {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "check closed result", err)
	}

	s.logger.Warn("Inactive auction has no result, completing closure", "auction_id", inactive.ID)
	result, _, err := s.finalize(ctx, inactive)
	if err != nil {
		return nil, err
	}
	s.finishClosing(ctx, inactive.ID)
	return &CloseReport{Status: CloseStatusAlreadyClosed, Auction: inactive, Result: result}, nil
}

// finishClosing only logs on error. A leftover id is retried by the next sweep.
func (s *Service) finishClosing(ctx context.Context, id int64) {
	if err := s.auctions.FinishClosing(ctx, id); err != nil {
		s.logger.Warn("Failed to clear closing auction", "auction_id", id, "error", err)
	}
}

// sweepIDs returns the active and closing ids, each once.
func (s *Service) sweepIDs(ctx context.Context) ([]int64, error) {
	active, err := s.auctions.ActiveAuctionIDs(ctx)
	if err != nil {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "list active auctions", err)
	}
	closing, err := s.auctions.ClosingAuctionIDs(ctx)
	if err != nil {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "list closing auctions", err)
	}

	seen := make(map[int64]struct{}, len(active)+len(closing))
	ids := make([]int64, 0, len(active)+len(closing))
	for _, id := range append(active, closing...) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// buildResult computes the outcome from the flipped snapshot. The winner is
// resolved now so the result carries current contact details.
func (s *Service) buildResult(ctx context.Context, final *Auction) (*ClosedResult, error) {
	result := &ClosedResult{
		AuctionID: final.ID,
		Title:     final.Title,
		OwnerID:   final.OwnerID,
		Outcome:   final.Outcome(),
		ClosedAt:  s.now(),
	}

	if result.Outcome == contracts.OutcomeVoid || !final.HasLeader() {
		result.Outcome = contracts.OutcomeVoid
		result.FinalAmount = final.StartingPrice
		return result, nil
	}

	result.FinalAmount = final.CurrentBid
	result.WinnerID = final.LeaderID

	winner, err := s.users.GetUser(ctx, final.LeaderID)
	switch {
	case err == nil:
		result.WinnerName = winner.DisplayName
		result.WinnerContact = winner.Contact
	case isNotFound(err):
		s.logger.Warn("Winner not found, closing without contact", "auction_id", final.ID, "winner_id", final.LeaderID)
	default:
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "load winner", err)
	}
	return result, nil
}

// ListActive sweeps every active or closing auction through CheckAndClose and
// returns summaries of the ones still running, ordered by id. Failures on a
// single auction are logged and skipped.
func (s *Service) ListActive(ctx context.Context) ([]*AuctionSummary, error) {
	ids, err := s.sweepIDs(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summaries := make([]*AuctionSummary, 0, len(ids))
	for _, id := range ids {
		report, err := s.CheckAndClose(ctx, id)
		if err != nil {
			s.logger.Error("Failed to check auction", "auction_id", id, "error", err)
			continue
		}
		if report.Status != CloseStatusStillActive {
			continue
		}
		summaries = append(summaries, s.summarize(ctx, report.Auction, now))
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}

func (s *Service) summarize(ctx context.Context, a *Auction, now time.Time) *AuctionSummary {
	remaining := a.ClosesAt.Sub(now)
	summary := &AuctionSummary{
		ID:            a.ID,
		Title:         a.Title,
		OwnerID:       a.OwnerID,
		StartingPrice: a.StartingPrice,
		CurrentBid:    a.CurrentBid,
		LeaderID:      a.LeaderID,
		ClosesAt:      a.ClosesAt,
		Remaining:     remaining,
		RemainingText: FormatRemaining(remaining),
	}
	if a.HasLeader() {
		if leader, err := s.users.GetUser(ctx, a.LeaderID); err == nil {
			summary.LeaderName = leader.DisplayName
		} else {
			s.logger.Warn("Failed to resolve leader", "auction_id", a.ID, "leader_id", a.LeaderID, "error", err)
		}
	}
	return summary
}

// SweepExpired closes every expired auction in the active set, completes any
// interrupted closure, and returns how many this call closed. It uses the same
// guard as the read path, so both can run at once.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	ids, err := s.sweepIDs(ctx)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return closed, ctx.Err()
		}
		report, err := s.CheckAndClose(ctx, id)
		if err != nil {
			s.logger.Error("Failed to check auction", "auction_id", id, "error", err)
			continue
		}
		if report.Closed() {
			closed++
		}
	}
	return closed, nil
}
