package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/floroz/gavel-live/pkg/bus"
	"github.com/floroz/gavel-live/pkg/config"
	"github.com/floroz/gavel-live/pkg/contracts"
	pkgdb "github.com/floroz/gavel-live/pkg/database"
	"github.com/floroz/gavel-live/services/ledger-service/internal/adapters/database"
	"github.com/floroz/gavel-live/services/ledger-service/internal/adapters/events"
	"github.com/floroz/gavel-live/services/ledger-service/internal/adapters/reconciler"
	"github.com/floroz/gavel-live/services/ledger-service/internal/domain/ledger"
	"github.com/floroz/gavel-live/services/ledger-service/migrations"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load environment variables (local overrides .env)
	config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutting down ledger worker...")
		cancel()
	}()

	reconcileInterval, err := config.Duration("LEDGER_RECONCILE_INTERVAL", 5*time.Minute)
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	autoMigrate, err := config.Bool("LEDGER_AUTO_MIGRATE", false)
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

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

	if autoMigrate {
		if err := pkgdb.Migrate(ctx, pool, migrations.FS); err != nil {
			logger.Error("Migration failed", "error", err)
			os.Exit(1)
		}
		logger.Info("Migrations applied")
	}

	// 2. Connect to the shared store
	rdb, err := pkgdb.NewRedisClient(ctx, config.String("REDIS_ADDR", "localhost:6379"))
	if err != nil {
		logger.Error("Unable to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()
	logger.Info("Redis Connected")

	// 3. Initialize Dependencies
	txManager := pkgdb.NewPostgresTransactionManager(pool, 5*time.Second)
	repo := database.NewLedgerRepository(pool)
	service := ledger.NewService(repo, pkgdb.NewRedisResults(rdb), txManager, logger)

	// 4. Event bus
	busKind := config.String("EVENT_BUS", bus.KindRedis)
	eventBus, err := bus.Open(bus.Options{
		Kind:        busKind,
		Redis:       rdb,
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
	}, logger)
	if err != nil {
		logger.Error("Failed to open event bus", "error", err, "kind", busKind)
		os.Exit(1)
	}
	defer eventBus.Close()

	consumer := events.NewClosedConsumer(service, logger)
	listener := bus.NewListener(eventBus, consumer.Handle, bus.ListenerConfig{
		Topics:  []string{contracts.TopicAuctionClosed},
		Workers: 1,
	}, logger)

	// 5. Run the consumer and the reconciler together
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting closure consumer...", "bus", busKind)
		return listener.Run(gctx)
	})
	g.Go(func() error {
		return reconciler.NewReconciler(service, reconcileInterval, logger).Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Ledger worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Ledger worker stopped")
}
