package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/floroz/gavel-live/pkg/bus"
	"github.com/floroz/gavel-live/pkg/config"
	pkgdb "github.com/floroz/gavel-live/pkg/database"
	"github.com/floroz/gavel-live/services/auction-service/internal/adapters/api"
	"github.com/floroz/gavel-live/services/auction-service/internal/adapters/events"
	"github.com/floroz/gavel-live/services/auction-service/internal/adapters/memory"
	"github.com/floroz/gavel-live/services/auction-service/internal/adapters/redisstore"
	"github.com/floroz/gavel-live/services/auction-service/internal/adapters/sweeper"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/auctions"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/users"
)

// store is everything the services need from a backend
type store interface {
	auctions.AuctionRepository
	auctions.ResultRepository
	auctions.UserDirectory
	users.Repository
	users.Mailbox
}

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
		logger.Info("Shutting down auction service...")
		cancel()
	}()

	sweepInterval, err := config.Duration("SWEEP_INTERVAL", 0)
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	maxRetries, err := config.Int("BID_MAX_RETRIES", 32)
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// 1. Initialize the durable store
	backend := config.String("STORE_BACKEND", "redis")
	var (
		st     store
		rdb    *redis.Client
		health api.HealthCheck
	)
	switch backend {
	case "redis":
		rdb, err = pkgdb.NewRedisClient(ctx, config.String("REDIS_ADDR", "localhost:6379"))
		if err != nil {
			logger.Error("Unable to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		logger.Info("Redis Connected")

		st = redisstore.NewStore(rdb).WithMaxRetries(maxRetries)
		health = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	case "memory":
		logger.Warn("Using in-memory store, state is lost on restart")
		st = memory.NewStore()
	default:
		logger.Error("Unknown STORE_BACKEND", "backend", backend)
		os.Exit(1)
	}

	// 2. Open the event bus
	busKind := config.String("EVENT_BUS", bus.KindRedis)
	if backend == "memory" && os.Getenv("EVENT_BUS") == "" {
		busKind = bus.KindMemory
	}
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
	logger.Info("Event bus ready", "kind", busKind)

	// 3. Initialize services (Domain Layer)
	userService := users.NewService(st, st)
	auctionService := auctions.NewService(st, st, st, events.NewPublisher(eventBus), logger)

	// 4. HTTP surface
	handler := api.NewHandler(auctionService, userService, health, logger)
	router := api.NewRouter(handler, splitList(os.Getenv("CORS_ORIGINS")), logger)

	addr := config.String("HTTP_ADDR", ":5000")
	// Use h2c for HTTP/2 without TLS (common for internal services / local dev)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting Auction Service API", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return sweeper.NewSweeper(auctionService, sweepInterval, logger).Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Auction service failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Auction service stopped")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
