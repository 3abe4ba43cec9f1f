package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/floroz/gavel-live/pkg/domainerr"
)

// lock_not_available, raised when SET LOCAL lock_timeout expires
const pgLockNotAvailable = "55P03"

// PostgresTransactionManager starts ledger transactions that give up waiting
// on row locks after lockTimeout.
type PostgresTransactionManager struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewPostgresTransactionManager returns a manager over pool. A zero
// lockTimeout waits on locks indefinitely.
func NewPostgresTransactionManager(pool *pgxpool.Pool, lockTimeout time.Duration) *PostgresTransactionManager {
	return &PostgresTransactionManager{pool: pool, lockTimeout: lockTimeout}
}

func (m *PostgresTransactionManager) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if m.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, lockTimeoutStatement(m.lockTimeout)); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("set lock timeout: %w", err)
		}
	}
	return tx, nil
}

func lockTimeoutStatement(d time.Duration) string {
	return fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", d.Milliseconds())
}

// WithinTx runs fn in a transaction from tm and commits when fn returns nil.
// Any error from fn rolls back and is returned as is, except lock timeouts,
// which are classified as ErrStoreUnavailable so the caller retries later.
func WithinTx(ctx context.Context, tm TransactionManager, fn func(tx pgx.Tx) error) error {
	tx, err := tm.BeginTx(ctx)
	if err != nil {
		return domainerr.Infra(domainerr.ErrStoreUnavailable, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		if IsLockTimeout(err) {
			return domainerr.Infra(domainerr.ErrStoreUnavailable, "lock wait timed out", err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return domainerr.Infra(domainerr.ErrStoreUnavailable, "failed to commit transaction", err)
	}
	return nil
}

// IsLockTimeout reports whether err is Postgres giving up on a row lock.
func IsLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable
}

// NewPostgresPool parses dsn, connects and pings.
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return pool, nil
}
