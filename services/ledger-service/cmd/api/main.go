package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/floroz/gavel-live/pkg/config"
	pkgdb "github.com/floroz/gavel-live/pkg/database"
	"github.com/floroz/gavel-live/services/ledger-service/internal/adapters/api"
	"github.com/floroz/gavel-live/services/ledger-service/internal/adapters/database"
	"github.com/floroz/gavel-live/services/ledger-service/internal/domain/ledger"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load environment variables (local overrides .env)
	config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Initialize Postgres Connection Pool
	dbURL, err := config.Required("LEDGER_DB_URL")
	if err != nil {
		logger.Error("LEDGER_DB_URL is not set")
		os.Exit(1)
	}
	pool, err := pkgdb.NewPostgresPool(ctx, dbURL)
	if err != nil {
		logger.Error("Unable to connect to Postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Postgres Connected")

	// 2. The closed history backs on-demand reconciliation
	rdb, err := pkgdb.NewRedisClient(ctx, config.String("REDIS_ADDR", "localhost:6379"))
	if err != nil {
		logger.Error("Unable to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// 3. Initialize Dependencies
	txManager := pkgdb.NewPostgresTransactionManager(pool, 5*time.Second)
	service := ledger.NewService(database.NewLedgerRepository(pool), pkgdb.NewRedisResults(rdb), txManager, logger)
	router := api.NewRouter(api.NewHandler(service, logger), logger)

	// 4. Start Server
	addr := config.String("LEDGER_HTTP_ADDR", ":8081")
	srv := &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Starting Ledger API", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
