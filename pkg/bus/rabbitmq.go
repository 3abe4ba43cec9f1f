package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the topic exchange every service publishes to.
const ExchangeName = "auction.events"

// RabbitMQBus publishes to a topic exchange using the topic as routing key.
// Each subscription owns an exclusive auto-delete queue, so a subscriber that
// is not connected misses messages exactly as with Redis pub/sub.
type RabbitMQBus struct {
	url    string
	logger *slog.Logger
	dial   func(url string) (*amqp.Connection, error)

	mu     sync.Mutex
	conn   *amqp.Connection
	pubCh  *amqp.Channel
	closed bool
}

// NewRabbitMQBus dials url and declares the exchange.
func NewRabbitMQBus(url string, logger *slog.Logger) (*RabbitMQBus, error) {
	b := &RabbitMQBus{
		url:    url,
		logger: logger.With("component", "rabbitmq_bus"),
		dial:   amqp.Dial,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.connectionLocked(); err != nil {
		return nil, err
	}
	return b, nil
}

// connectionLocked returns a live connection, redialing if the previous one dropped.
func (b *RabbitMQBus) connectionLocked() (*amqp.Connection, error) {
	if b.closed {
		return nil, ErrClosed
	}
	if b.conn != nil && !b.conn.IsClosed() {
		return b.conn, nil
	}

	conn, err := b.dial(b.url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := declareExchange(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	b.conn = conn
	b.pubCh = ch
	return conn, nil
}

func declareExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		ExchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
}

// Publish sends body with topic as routing key
func (b *RabbitMQBus) Publish(ctx context.Context, topic string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.connectionLocked(); err != nil {
		return err
	}
	if b.pubCh.IsClosed() {
		ch, err := b.conn.Channel()
		if err != nil {
			return fmt.Errorf("failed to reopen channel: %w", err)
		}
		b.pubCh = ch
	}

	return b.pubCh.PublishWithContext(ctx,
		ExchangeName, // exchange
		topic,        // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (b *RabbitMQBus) Subscribe(ctx context.Context, topics ...string) (Subscription, error) {
	if len(topics) == 0 {
		return nil, fmt.Errorf("subscribe: no topics")
	}

	b.mu.Lock()
	conn, err := b.connectionLocked()
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	deliveries, err := setupQueue(ch, topics)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}

	sub := &rabbitSubscription{
		ch:   ch,
		out:  make(chan Message, subscriptionBuffer),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go sub.pump(deliveries)
	return sub, nil
}

func setupQueue(ch *amqp.Channel, topics []string) (<-chan amqp.Delivery, error) {
	if err := declareExchange(ch); err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	for _, topic := range topics {
		if err := ch.QueueBind(q.Name, topic, ExchangeName, false, nil); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", topic, err)
		}
	}

	deliveries, err := ch.Consume(
		q.Name, // queue
		"",     // consumer tag
		true,   // auto-ack
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}
	return deliveries, nil
}

// Close closes the connection; open subscriptions end with it.
func (b *RabbitMQBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.conn == nil || b.conn.IsClosed() {
		return nil
	}
	if err := b.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	return nil
}

type rabbitSubscription struct {
	ch   *amqp.Channel
	out  chan Message
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func (s *rabbitSubscription) Messages() <-chan Message {
	return s.out
}

func (s *rabbitSubscription) pump(deliveries <-chan amqp.Delivery) {
	defer close(s.done)
	defer close(s.out)

	for {
		select {
		case <-s.stop:
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			select {
			case s.out <- Message{Topic: d.RoutingKey, Body: d.Body}:
			case <-s.stop:
				return
			}
		}
	}
}

func (s *rabbitSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		if cerr := s.ch.Close(); cerr != nil && !errors.Is(cerr, amqp.ErrClosed) {
			err = cerr
		}
		<-s.done
	})
	return err
}
