package events_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/floroz/gavel-live/pkg/bus"
	"github.com/floroz/gavel-live/pkg/contracts"
	"github.com/floroz/gavel-live/services/ledger-service/internal/adapters/events"
)

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) ProcessAuctionClosed(ctx context.Context, event contracts.AuctionClosed) error {
	return m.Called(ctx, event).Error(0)
}

func TestClosedConsumer_Handle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("forwards decoded events", func(t *testing.T) {
		// Arrange
		processor := new(MockProcessor)
		consumer := events.NewClosedConsumer(processor, logger)
		event := contracts.AuctionClosed{EventID: uuid.New(), AuctionID: 11, Outcome: contracts.OutcomeVoid}
		body, err := json.Marshal(event)
		require.NoError(t, err)
		processor.On("ProcessAuctionClosed", mock.Anything, mock.MatchedBy(func(e contracts.AuctionClosed) bool {
			return e.AuctionID == 11 && e.EventID == event.EventID
		})).Return(nil)

		// Act
		err = consumer.Handle(context.Background(), bus.Message{Topic: contracts.TopicAuctionClosed, Body: body})

		// Assert
		require.NoError(t, err)
		processor.AssertExpectations(t)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		processor := new(MockProcessor)
		consumer := events.NewClosedConsumer(processor, logger)

		err := consumer.Handle(context.Background(), bus.Message{Topic: contracts.TopicAuctionClosed, Body: []byte("nope")})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal")
		processor.AssertNotCalled(t, "ProcessAuctionClosed", mock.Anything, mock.Anything)
	})
}
