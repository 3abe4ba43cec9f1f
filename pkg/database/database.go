// Package database holds the storage helpers shared by the services: Postgres
// pools, transactions and migrations for the ledger, and the Redis client with
// the closed-result and mailbox stores every service reads.
package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TransactionManager starts Postgres transactions.
type TransactionManager interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
}
