package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBus maps topics onto Redis pub/sub channels.
// The client is shared with the store and is not closed by the bus.
type RedisBus struct {
	rdb    *redis.Client
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[*redisSubscription]struct{}
	closed bool
}

func NewRedisBus(rdb *redis.Client, logger *slog.Logger) *RedisBus {
	return &RedisBus{
		rdb:    rdb,
		logger: logger.With("component", "redis_bus"),
		subs:   make(map[*redisSubscription]struct{}),
	}
}

func (b *RedisBus) Publish(ctx context.Context, topic string, body []byte) error {
	if b.isClosed() {
		return ErrClosed
	}
	return b.rdb.Publish(ctx, topic, body).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, topics ...string) (Subscription, error) {
	if len(topics) == 0 {
		return nil, fmt.Errorf("subscribe: no topics")
	}
	if b.isClosed() {
		return nil, ErrClosed
	}

	ps := b.rdb.Subscribe(ctx, topics...)

	// wait for the server to confirm before handing the stream out
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &redisSubscription{
		bus:    b,
		ps:     ps,
		ch:     make(chan Message, subscriptionBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		cancel()
		_ = ps.Close()
		return nil, ErrClosed
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go sub.pump(subCtx)
	return sub, nil
}

// Close ends all subscriptions opened through the bus.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*redisSubscription, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		errs = append(errs, sub.Close())
	}
	return errors.Join(errs...)
}

func (b *RedisBus) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *RedisBus) forget(sub *redisSubscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

type redisSubscription struct {
	bus    *RedisBus
	ps     *redis.PubSub
	ch     chan Message
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) Messages() <-chan Message {
	return s.ch
}

// pump reads until the connection fails or the subscription is closed.
// go-redis would silently reconnect behind Channel(); reading directly lets
// the caller observe the disconnect.
func (s *redisSubscription) pump(ctx context.Context) {
	defer close(s.done)
	defer close(s.ch)

	for {
		msg, err := s.ps.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, redis.ErrClosed) {
				s.bus.logger.Warn("redis subscription lost", "error", err)
			}
			return
		}
		select {
		case s.ch <- Message{Topic: msg.Channel, Body: []byte(msg.Payload)}:
		case <-ctx.Done():
			return
		}
	}
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.ps.Close()
		<-s.done
		s.bus.forget(s)
	})
	return err
}
