package sweeper_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/floroz/gavel-live/services/auction-service/internal/adapters/sweeper"
)

type MockCloser struct {
	mock.Mock
	calls atomic.Int32
}

func (m *MockCloser) SweepExpired(ctx context.Context) (int, error) {
	m.calls.Add(1)
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweeper_RunsUntilCancelled(t *testing.T) {
	// Arrange
	closer := new(MockCloser)
	closer.On("SweepExpired", mock.Anything).Return(1, nil).Once()
	closer.On("SweepExpired", mock.Anything).Return(0, errors.New("redis down")).Once()
	closer.On("SweepExpired", mock.Anything).Return(0, nil)
	s := sweeper.NewSweeper(closer, 5*time.Millisecond, logger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// Act
	go func() { done <- s.Run(ctx) }()
	require.Eventually(t, func() bool {
		return closer.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)
	cancel()

	// Assert
	assert.NoError(t, <-done)
}

func TestSweeper_DisabledWithZeroInterval(t *testing.T) {
	closer := new(MockCloser)
	s := sweeper.NewSweeper(closer, 0, logger())

	err := s.Run(context.Background())

	assert.NoError(t, err)
	closer.AssertNotCalled(t, "SweepExpired", mock.Anything)
}
