// Package memory is a concurrency-safe in-process implementation of every
// store port. Each operation holds one lock, which gives it the same
// all-or-nothing visibility as a Redis MULTI.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/floroz/gavel-live/services/auction-service/internal/domain/auctions"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/users"
)

type Store struct {
	mu            sync.RWMutex
	auctions      map[int64]auctions.Auction
	active        map[int64]struct{}
	closing       map[int64]struct{}
	bids          map[int64][]auctions.Bid
	results       map[int64]auctions.ClosedResult
	users         map[int64]users.User
	mailboxes     map[int64][]string
	nextAuctionID int64
	nextUserID    int64
}

func NewStore() *Store {
	return &Store{
		auctions:  make(map[int64]auctions.Auction),
		active:    make(map[int64]struct{}),
		closing:   make(map[int64]struct{}),
		bids:      make(map[int64][]auctions.Bid),
		results:   make(map[int64]auctions.ClosedResult),
		users:     make(map[int64]users.User),
		mailboxes: make(map[int64][]string),
	}
}

func (s *Store) NextAuctionID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAuctionID++
	return s.nextAuctionID, nil
}

func (s *Store) CreateAuction(ctx context.Context, auction *auctions.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.auctions[auction.ID]; exists {
		return fmt.Errorf("create auction %d: already exists", auction.ID)
	}
	s.auctions[auction.ID] = *auction
	if auction.IsActive {
		s.active[auction.ID] = struct{}{}
	}
	return nil
}

func (s *Store) GetAuction(ctx context.Context, id int64) (*auctions.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.auctions[id]
	if !ok {
		return nil, fmt.Errorf("get auction %d: %w", id, auctions.ErrAuctionNotFound)
	}
	return &a, nil
}

func (s *Store) ActiveAuctionIDs(ctx context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	return ids, nil
}

// AddToActive puts id back in the active set. This method is intended for tests only.
func (s *Store) AddToActive(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[id] = struct{}{}
}

func (s *Store) RemoveFromActive(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
	return nil
}

func (s *Store) Deactivate(ctx context.Context, id int64) (*auctions.Auction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[id]
	if !ok {
		delete(s.active, id)
		delete(s.closing, id)
		return nil, false, nil
	}
	if !a.IsActive {
		delete(s.active, id)
		return &a, false, nil
	}
	a.IsActive = false
	s.auctions[id] = a
	delete(s.active, id)
	s.closing[id] = struct{}{}
	return &a, true, nil
}

func (s *Store) ClosingAuctionIDs(ctx context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.closing))
	for id := range s.closing {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) FinishClosing(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.closing, id)
	return nil
}

func (s *Store) ApplyBid(ctx context.Context, auctionID int64, decide auctions.BidDecider) (*auctions.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return nil, fmt.Errorf("apply bid to auction %d: %w", auctionID, auctions.ErrAuctionNotFound)
	}

	snapshot := a
	bid, err := decide(&snapshot)
	if err != nil {
		return nil, err
	}

	a.CurrentBid = bid.Amount
	a.LeaderID = bid.UserID
	s.auctions[auctionID] = a
	s.bids[auctionID] = append(s.bids[auctionID], *bid)

	out := *bid
	return &out, nil
}

func (s *Store) ListBids(ctx context.Context, auctionID int64) ([]*auctions.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.bids[auctionID]
	out := make([]*auctions.Bid, 0, len(stored))
	for i := range stored {
		b := stored[i]
		out = append(out, &b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out, nil
}

func (s *Store) SaveResult(ctx context.Context, result *auctions.ClosedResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.results[result.AuctionID]; exists {
		return false, nil
	}
	s.results[result.AuctionID] = *result
	return true, nil
}

func (s *Store) GetResult(ctx context.Context, auctionID int64) (*auctions.ClosedResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[auctionID]
	if !ok {
		return nil, fmt.Errorf("get result %d: %w", auctionID, auctions.ErrResultNotFound)
	}
	return &r, nil
}

func (s *Store) ListResults(ctx context.Context) ([]*auctions.ClosedResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*auctions.ClosedResult, 0, len(s.results))
	for id := range s.results {
		r := s.results[id]
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AuctionID < out[j].AuctionID })
	return out, nil
}

func (s *Store) NextUserID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	return s.nextUserID, nil
}

func (s *Store) CreateUser(ctx context.Context, user *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("get user %d: %w", id, users.ErrUserNotFound)
	}
	return &u, nil
}

func (s *Store) Append(ctx context.Context, userID int64, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mailboxes[userID] = append(s.mailboxes[userID], message)
	return nil
}

func (s *Store) Drain(ctx context.Context, userID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := s.mailboxes[userID]
	delete(s.mailboxes, userID)
	return messages, nil
}
