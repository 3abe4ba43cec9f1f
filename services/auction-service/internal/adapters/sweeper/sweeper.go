package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// Closer closes every expired auction and reports how many it closed
type Closer interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Sweeper bounds closure latency by sweeping on a timer. The reader-triggered
// path stays in place; both go through the same flip guard.
type Sweeper struct {
	closer   Closer
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a new sweeper
func NewSweeper(closer Closer, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		closer:   closer,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the sweep loop. It returns immediately when the interval is not positive.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("Expiry sweeper disabled")
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	closed, err := s.closer.SweepExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("Error sweeping expired auctions", "error", err)
		}
		return
	}
	if closed > 0 {
		s.logger.Info("Closed expired auctions", "count", closed)
	}
}
