// Package redisstore implements the store ports on Redis.
//
// Bid acceptance and closure both WATCH auction:{id}, so a flip racing a bid
// aborts one of the two transactions and the loser re-validates.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/floroz/gavel-live/pkg/contracts"
	pkgdb "github.com/floroz/gavel-live/pkg/database"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/auctions"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/users"
)

const defaultMaxRetries = 32

// Store implements every auction-service port. Closed results and mailboxes
// come from the shared pkg/database implementations.
type Store struct {
	*pkgdb.RedisResults
	*pkgdb.RedisMailbox

	rdb        *redis.Client
	maxRetries int
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{
		RedisResults: pkgdb.NewRedisResults(rdb),
		RedisMailbox: pkgdb.NewRedisMailbox(rdb),
		rdb:          rdb,
		maxRetries:   defaultMaxRetries,
	}
}

// WithMaxRetries bounds optimistic transaction attempts.
func (s *Store) WithMaxRetries(n int) *Store {
	if n > 0 {
		s.maxRetries = n
	}
	return s
}

// watch runs fn under WATCH key, retrying when another client touched the key.
func (s *Store) watch(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.rdb.Watch(ctx, fn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return auctions.ErrStoreContention
}

func (s *Store) NextAuctionID(ctx context.Context) (int64, error) {
	return s.rdb.Incr(ctx, contracts.NextAuctionIDKey).Result()
}

func (s *Store) CreateAuction(ctx context.Context, auction *auctions.Auction) error {
	key := contracts.AuctionKey(auction.ID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, encodeAuction(auction))
		if auction.IsActive {
			pipe.SAdd(ctx, contracts.ActiveAuctionsKey, auction.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create auction %d: %w", auction.ID, err)
	}
	return nil
}

func (s *Store) GetAuction(ctx context.Context, id int64) (*auctions.Auction, error) {
	return loadAuction(ctx, s.rdb, id)
}

// hashReader is satisfied by *redis.Client and by *redis.Tx inside WATCH.
type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func loadAuction(ctx context.Context, c hashReader, id int64) (*auctions.Auction, error) {
	fields, err := c.HGetAll(ctx, contracts.AuctionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get auction %d: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("get auction %d: %w", id, auctions.ErrAuctionNotFound)
	}
	a, err := decodeAuction(fields)
	if err != nil {
		return nil, fmt.Errorf("decode auction %d: %w", id, err)
	}
	return a, nil
}

func (s *Store) ActiveAuctionIDs(ctx context.Context) ([]int64, error) {
	return s.memberIDs(ctx, contracts.ActiveAuctionsKey)
}

func (s *Store) ClosingAuctionIDs(ctx context.Context) ([]int64, error) {
	return s.memberIDs(ctx, contracts.ClosingAuctionsKey)
}

func (s *Store) memberIDs(ctx context.Context, key string) ([]int64, error) {
	members, err := s.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", key, err)
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			// garbage in the set can never close; drop it
			s.rdb.SRem(ctx, key, m)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) RemoveFromActive(ctx context.Context, id int64) error {
	if err := s.rdb.SRem(ctx, contracts.ActiveAuctionsKey, id).Err(); err != nil {
		return fmt.Errorf("remove auction %d from active set: %w", id, err)
	}
	return nil
}

func (s *Store) FinishClosing(ctx context.Context, id int64) error {
	if err := s.rdb.SRem(ctx, contracts.ClosingAuctionsKey, id).Err(); err != nil {
		return fmt.Errorf("remove auction %d from closing set: %w", id, err)
	}
	return nil
}

// Deactivate is a compare-and-set on is_active. The winning flip moves the id
// to the closing set in the same MULTI.
func (s *Store) Deactivate(ctx context.Context, id int64) (*auctions.Auction, bool, error) {
	key := contracts.AuctionKey(id)
	var (
		final *auctions.Auction
		won   bool
	)

	err := s.watch(ctx, key, func(tx *redis.Tx) error {
		final, won = nil, false

		a, err := loadAuction(ctx, tx, id)
		if errors.Is(err, auctions.ErrAuctionNotFound) {
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.SRem(ctx, contracts.ActiveAuctionsKey, id)
				pipe.SRem(ctx, contracts.ClosingAuctionsKey, id)
				return nil
			})
			return err
		}
		if err != nil {
			return err
		}
		if !a.IsActive {
			final = a
			return tx.SRem(ctx, contracts.ActiveAuctionsKey, id).Err()
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldIsActive, encodeBool(false))
			pipe.SRem(ctx, contracts.ActiveAuctionsKey, id)
			pipe.SAdd(ctx, contracts.ClosingAuctionsKey, id)
			return nil
		})
		if err != nil {
			return err
		}

		a.IsActive = false
		final, won = a, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return final, won, nil
}

// ApplyBid re-reads the record under WATCH, lets decide validate it, and
// commits the record update together with the bid history entry.
func (s *Store) ApplyBid(ctx context.Context, auctionID int64, decide auctions.BidDecider) (*auctions.Bid, error) {
	key := contracts.AuctionKey(auctionID)
	var accepted *auctions.Bid

	err := s.watch(ctx, key, func(tx *redis.Tx) error {
		accepted = nil

		current, err := loadAuction(ctx, tx, auctionID)
		if err != nil {
			return err
		}
		bid, err := decide(current)
		if err != nil {
			return err
		}
		member, err := json.Marshal(bid)
		if err != nil {
			return fmt.Errorf("marshal bid: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				fieldCurrentBid, strconv.FormatInt(bid.Amount, 10),
				fieldLeaderID, strconv.FormatInt(bid.UserID, 10),
			)
			pipe.ZAdd(ctx, contracts.BidsKey(auctionID), redis.Z{
				Score:  float64(bid.Amount),
				Member: string(member),
			})
			return nil
		})
		if err != nil {
			return err
		}
		accepted = bid
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

func (s *Store) ListBids(ctx context.Context, auctionID int64) ([]*auctions.Bid, error) {
	members, err := s.rdb.ZRevRange(ctx, contracts.BidsKey(auctionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list bids for auction %d: %w", auctionID, err)
	}
	bids := make([]*auctions.Bid, 0, len(members))
	for _, m := range members {
		var b auctions.Bid
		if err := json.Unmarshal([]byte(m), &b); err != nil {
			return nil, fmt.Errorf("decode bid for auction %d: %w", auctionID, err)
		}
		bids = append(bids, &b)
	}
	return bids, nil
}

func (s *Store) NextUserID(ctx context.Context) (int64, error) {
	return s.rdb.Incr(ctx, contracts.NextUserIDKey).Result()
}

func (s *Store) CreateUser(ctx context.Context, user *users.User) error {
	if err := s.rdb.HSet(ctx, contracts.UserKey(user.ID), encodeUser(user)).Err(); err != nil {
		return fmt.Errorf("create user %d: %w", user.ID, err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*users.User, error) {
	fields, err := s.rdb.HGetAll(ctx, contracts.UserKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("get user %d: %w", id, users.ErrUserNotFound)
	}
	u, err := decodeUser(fields)
	if err != nil {
		return nil, fmt.Errorf("decode user %d: %w", id, err)
	}
	return u, nil
}
