package redisstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floroz/gavel-live/services/auction-service/internal/domain/auctions"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/users"
)

func stringify(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v.(string)
	}
	return out
}

func TestAuctionCodec(t *testing.T) {
	// Arrange
	closesAt := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	in := &auctions.Auction{
		ID:            12,
		Title:         "Vintage camera",
		OwnerID:       3,
		StartingPrice: 10000,
		CurrentBid:    15050,
		LeaderID:      7,
		ClosesAt:      closesAt,
		IsActive:      true,
		CreatedAt:     closesAt.Add(-5 * time.Minute),
	}

	// Act
	out, err := decodeAuction(stringify(encodeAuction(in)))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeAuction_Errors(t *testing.T) {
	valid := stringify(encodeAuction(&auctions.Auction{ID: 1, Title: "x", OwnerID: 1, StartingPrice: 1, CurrentBid: 1}))

	tests := []struct {
		name   string
		mutate func(map[string]string)
		errMsg string
	}{
		{name: "missing owner", mutate: func(f map[string]string) { delete(f, fieldOwnerID) }, errMsg: "owner_id missing"},
		{name: "bad bid", mutate: func(f map[string]string) { f[fieldCurrentBid] = "1.50" }, errMsg: "current_bid"},
		{name: "bad deadline", mutate: func(f map[string]string) { f[fieldClosesAt] = "soon" }, errMsg: "closes_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := make(map[string]string, len(valid))
			for k, v := range valid {
				fields[k] = v
			}
			tt.mutate(fields)

			_, err := decodeAuction(fields)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDecodeAuction_InactiveFlag(t *testing.T) {
	fields := stringify(encodeAuction(&auctions.Auction{ID: 1, IsActive: true}))
	fields[fieldIsActive] = "0"

	a, err := decodeAuction(fields)
	require.NoError(t, err)
	assert.False(t, a.IsActive)
	assert.False(t, a.HasLeader())
}

func TestUserCodec(t *testing.T) {
	in := &users.User{ID: 4, DisplayName: "Ana Lima", Contact: "ana.lima@gavel.local"}

	out, err := decodeUser(stringify(encodeUser(in)))

	require.NoError(t, err)
	assert.Equal(t, in, out)
}
