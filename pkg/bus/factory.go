package bus

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Transport kinds accepted by Open
const (
	KindRedis    = "redis"
	KindRabbitMQ = "rabbitmq"
	KindMemory   = "memory"
)

// Options selects and configures a transport.
type Options struct {
	Kind string
	// Redis is required for KindRedis.
	Redis *redis.Client
	// RabbitMQURL is required for KindRabbitMQ.
	RabbitMQURL string
}

// Open builds the bus named by opts.Kind. An empty kind means redis.
func Open(opts Options, logger *slog.Logger) (Bus, error) {
	switch opts.Kind {
	case "", KindRedis:
		if opts.Redis == nil {
			return nil, fmt.Errorf("redis bus requires a redis client")
		}
		return NewRedisBus(opts.Redis, logger), nil
	case KindRabbitMQ:
		if opts.RabbitMQURL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL is not set")
		}
		return NewRabbitMQBus(opts.RabbitMQURL, logger)
	case KindMemory:
		return NewMemoryBus(), nil
	default:
		return nil, fmt.Errorf("unknown event bus %q", opts.Kind)
	}
}
