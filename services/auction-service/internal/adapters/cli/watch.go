package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/floroz/gavel-live/pkg/bus"
	"github.com/floroz/gavel-live/pkg/config"
	"github.com/floroz/gavel-live/pkg/contracts"
	pkgdb "github.com/floroz/gavel-live/pkg/database"
)

type WatchOptions struct {
	*RootOptions
	Bus         string
	RedisAddr   string
	RabbitMQURL string
	User        int64
}

// openBus connects to the event bus named by opts. Tests swap it for a memory bus.
var openBus = func(ctx context.Context, opts *WatchOptions, logger *slog.Logger) (bus.Bus, func(), error) {
	o := bus.Options{Kind: opts.Bus, RabbitMQURL: opts.RabbitMQURL}
	cleanup := func() {}
	if opts.Bus == "" || opts.Bus == bus.KindRedis {
		rdb, err := pkgdb.NewRedisClient(ctx, opts.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		o.Redis = rdb
		cleanup = func() { _ = rdb.Close() }
	}
	b, err := bus.Open(o, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return b, func() {
		_ = b.Close()
		cleanup()
	}, nil
}

func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <auction-id>...",
		Short: "Follow new bids on auctions as they happen",
		Long: `Follow new bids on auctions as they happen.

Updates are best effort: bids placed while disconnected are not replayed,
use "auctionctl bids" for the authoritative history.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topics := make([]string, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				topics = append(topics, contracts.BidTopic(id))
			}
			return watch(cmd, opts, topics)
		},
	}

	cmd.Flags().StringVar(&opts.Bus, "bus", config.String("EVENT_BUS", bus.KindRedis), "event bus (redis|rabbitmq)")
	cmd.Flags().StringVar(&opts.RedisAddr, "redis-addr", config.String("REDIS_ADDR", "localhost:6379"), "redis address or URL")
	cmd.Flags().StringVar(&opts.RabbitMQURL, "rabbitmq-url", os.Getenv("RABBITMQ_URL"), "RabbitMQ URL")
	cmd.Flags().Int64Var(&opts.User, "user", 0, "hide bids placed by this user")

	return cmd
}

func watch(cmd *cobra.Command, opts *WatchOptions, topics []string) error {
	ctx := cmd.Context()
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))

	b, closeBus, err := openBus(ctx, opts, logger)
	if err != nil {
		return fmt.Errorf("failed to open event bus: %w", err)
	}
	defer closeBus()

	out := opts.output(cmd)
	var mu sync.Mutex
	handler := func(ctx context.Context, msg bus.Message) error {
		var event contracts.BidPlaced
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("malformed bid event on %s: %w", msg.Topic, err)
		}
		if opts.User != 0 && event.UserID == opts.User {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		return out.Line(event, fmt.Sprintf("🚨 New bid on %s (ID: %d): %s by %s",
			event.Title, event.AuctionID, contracts.FormatAmount(event.Amount), event.UserName))
	}

	listener := bus.NewListener(b, handler, bus.ListenerConfig{Topics: topics, Workers: 1}, logger)
	listener.OnStateChange(func(s bus.State) {
		if s == bus.StateConnected {
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %d auction(s), Ctrl-C to stop\n", len(topics))
		}
	})
	return listener.Run(ctx)
}
