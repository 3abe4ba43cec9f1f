package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestOutcome_String tests the String method of Outcome
func TestOutcome_String(t *testing.T) {
	// Arrange
	outcome := OutcomeSettled

	// Act
	result := outcome.String()

	// Assert
	assert.Equal(t, "SETTLED", result)
}

// TestOutcome_IsValid tests the IsValid method of Outcome
func TestOutcome_IsValid(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    bool
	}{
		{name: "settled", outcome: OutcomeSettled, want: true},
		{name: "void", outcome: OutcomeVoid, want: true},
		{name: "unknown", outcome: Outcome("CANCELADO"), want: false},
		{name: "empty string", outcome: Outcome(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outcome.IsValid())
		})
	}
}

func TestBidTopic_RoundTrip(t *testing.T) {
	topic := BidTopic(42)
	assert.Equal(t, "auctions.bids.42", topic)

	id, ok := AuctionIDFromBidTopic(topic)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = AuctionIDFromBidTopic(TopicAuctionClosed)
	assert.False(t, ok)
	_, ok = AuctionIDFromBidTopic("auctions.bids.abc")
	assert.False(t, ok)
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{cents: 0, want: "0.00"},
		{cents: 5, want: "0.05"},
		{cents: 10000, want: "100.00"},
		{cents: 123456, want: "1234.56"},
		{cents: -250, want: "-2.50"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.cents))
		})
	}
}

func TestClosedResult_HasWinner(t *testing.T) {
	settled := &ClosedResult{Outcome: OutcomeSettled, WinnerID: 7}
	void := &ClosedResult{Outcome: OutcomeVoid}

	assert.True(t, settled.HasWinner())
	assert.False(t, void.HasWinner())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "auction:3", AuctionKey(3))
	assert.Equal(t, "bids:3", BidsKey(3))
	assert.Equal(t, "closed:3", ClosedResultKey(3))
	assert.Equal(t, "user:9", UserKey(9))
	assert.Equal(t, "user_notif:9", MailboxKey(9))
}
