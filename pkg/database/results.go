package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/floroz/gavel-live/pkg/contracts"
)

const scanBatch = 100

// RedisResults reads and writes closed results under closed:{id}.
// A result is written once and never modified.
type RedisResults struct {
	rdb *redis.Client
}

func NewRedisResults(rdb *redis.Client) *RedisResults {
	return &RedisResults{rdb: rdb}
}

// SaveResult creates the result with SETNX; created is false when one already existed.
func (r *RedisResults) SaveResult(ctx context.Context, result *contracts.ClosedResult) (bool, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return false, fmt.Errorf("marshal result: %w", err)
	}
	created, err := r.rdb.SetNX(ctx, contracts.ClosedResultKey(result.AuctionID), payload, 0).Result()
	if err != nil {
		return false, fmt.Errorf("save result %d: %w", result.AuctionID, err)
	}
	return created, nil
}

// GetResult returns contracts.ErrResultNotFound when absent.
func (r *RedisResults) GetResult(ctx context.Context, auctionID int64) (*contracts.ClosedResult, error) {
	raw, err := r.rdb.Get(ctx, contracts.ClosedResultKey(auctionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get result %d: %w", auctionID, contracts.ErrResultNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get result %d: %w", auctionID, err)
	}
	var result contracts.ClosedResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode result %d: %w", auctionID, err)
	}
	return &result, nil
}

// ListResults scans closed:* and loads the results in batches, sorted by auction id.
func (r *RedisResults) ListResults(ctx context.Context) ([]*contracts.ClosedResult, error) {
	var keys []string
	iter := r.rdb.Scan(ctx, 0, contracts.ClosedResultPattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan results: %w", err)
	}

	results := make([]*contracts.ClosedResult, 0, len(keys))
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		values, err := r.rdb.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, fmt.Errorf("load results: %w", err)
		}
		for i, v := range values {
			// deleted between SCAN and MGET
			raw, ok := v.(string)
			if !ok {
				continue
			}
			var result contracts.ClosedResult
			if err := json.Unmarshal([]byte(raw), &result); err != nil {
				return nil, fmt.Errorf("decode %s: %w", keys[start+i], err)
			}
			results = append(results, &result)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].AuctionID < results[j].AuctionID })
	return results, nil
}

// RedisMailbox is the per-user notification list under user_notif:{id}.
type RedisMailbox struct {
	rdb *redis.Client
}

func NewRedisMailbox(rdb *redis.Client) *RedisMailbox {
	return &RedisMailbox{rdb: rdb}
}

func (m *RedisMailbox) Append(ctx context.Context, userID int64, message string) error {
	if err := m.rdb.RPush(ctx, contracts.MailboxKey(userID), message).Err(); err != nil {
		return fmt.Errorf("append to mailbox %d: %w", userID, err)
	}
	return nil
}

// Drain reads and deletes the mailbox in one MULTI so concurrent appends are
// either returned now or kept for the next drain.
func (m *RedisMailbox) Drain(ctx context.Context, userID int64) ([]string, error) {
	key := contracts.MailboxKey(userID)
	var read *redis.StringSliceCmd
	_, err := m.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		read = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drain mailbox %d: %w", userID, err)
	}
	return read.Val(), nil
}
