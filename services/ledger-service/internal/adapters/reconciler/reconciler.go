package reconciler

import (
	"context"
	"log/slog"
	"time"

	"github.com/floroz/gavel-live/services/ledger-service/internal/domain/ledger"
)

// Reconcile copies closed results the ledger has not recorded yet
type Reconcile interface {
	Reconcile(ctx context.Context) (ledger.ReconcileReport, error)
}

// Reconciler re-reads the closed history on a timer so results whose
// closure event was lost still reach the ledger.
type Reconciler struct {
	target   Reconcile
	interval time.Duration
	logger   *slog.Logger
}

func NewReconciler(target Reconcile, interval time.Duration, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		target:   target,
		interval: interval,
		logger:   logger,
	}
}

// Run passes once at start-up and then every interval. A non-positive
// interval runs the start-up pass only.
func (r *Reconciler) Run(ctx context.Context) error {
	r.pass(ctx)
	if r.interval <= 0 {
		r.logger.Info("Periodic reconciliation disabled")
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.pass(ctx)
		}
	}
}

func (r *Reconciler) pass(ctx context.Context) {
	report, err := r.target.Reconcile(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("Reconciliation failed", "error", err, "recorded", report.Recorded)
		}
		return
	}
	if report.Recorded > 0 {
		r.logger.Info("Recovered missed results", "scanned", report.Scanned, "recorded", report.Recorded)
	}
}
