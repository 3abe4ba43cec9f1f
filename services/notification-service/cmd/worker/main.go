package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/floroz/gavel-live/pkg/bus"
	"github.com/floroz/gavel-live/pkg/config"
	"github.com/floroz/gavel-live/pkg/contracts"
	pkgdb "github.com/floroz/gavel-live/pkg/database"
	"github.com/floroz/gavel-live/services/notification-service/internal/adapters/channels"
	"github.com/floroz/gavel-live/services/notification-service/internal/adapters/events"
	"github.com/floroz/gavel-live/services/notification-service/internal/domain/notifications"
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
		logger.Info("Shutting down notification worker...")
		cancel()
	}()

	workers, err := config.Int("NOTIFY_WORKERS", 4)
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	deliveryTimeout, err := config.Duration("NOTIFY_DELIVERY_TIMEOUT", 0)
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// 1. Connect to the shared store
	rdb, err := pkgdb.NewRedisClient(ctx, config.String("REDIS_ADDR", "localhost:6379"))
	if err != nil {
		logger.Error("Unable to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()
	logger.Info("Redis Connected")

	// 2. Outbound channels
	outbound := buildChannels(logger)

	// 3. Event bus
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

	// 4. Domain relay and consumer
	relay := notifications.NewRelay(
		pkgdb.NewRedisResults(rdb),
		pkgdb.NewRedisMailbox(rdb),
		outbound,
		logger,
		notifications.WithDeliveryTimeout(deliveryTimeout),
	)
	consumer := events.NewClosedConsumer(relay, logger)

	listener := bus.NewListener(eventBus, consumer.Handle, bus.ListenerConfig{
		Topics:  []string{contracts.TopicAuctionClosed},
		Workers: workers,
	}, logger)
	listener.OnStateChange(func(s bus.State) {
		logger.Info("Listener state changed", "state", s.String())
	})

	logger.Info("Notification worker started", "bus", busKind, "workers", workers)
	if err := listener.Run(ctx); err != nil {
		logger.Error("Notification worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Notification worker stopped")
}

// buildChannels enables every channel that has credentials and falls back to
// the log channel when none do.
func buildChannels(logger *slog.Logger) []notifications.Channel {
	var out []notifications.Channel

	if url := os.Getenv("DISCORD_WEBHOOK_URL"); url != "" {
		out = append(out, channels.NewDiscord(url, nil))
		logger.Info("Discord channel enabled")
	}

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		chatID, err := config.Int64("TELEGRAM_CHAT_ID", 0)
		switch {
		case err != nil || chatID == 0:
			logger.Warn("TELEGRAM_CHAT_ID missing or invalid, telegram disabled", "error", err)
		default:
			tg, err := channels.NewTelegram(token, chatID, os.Getenv("TELEGRAM_API_ENDPOINT"), nil)
			if err != nil {
				logger.Warn("Telegram login failed, telegram disabled", "error", err)
			} else {
				out = append(out, tg)
				logger.Info("Telegram channel enabled")
			}
		}
	}

	if len(out) == 0 {
		logger.Warn("No notification channels configured, logging results only")
		out = append(out, channels.NewLog(logger))
	}
	return out
}
