package bus

import (
	"context"
	"sync"
)

// MemoryBus delivers messages between goroutines of one process.
// A subscriber that falls behind loses messages instead of blocking publishers.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySubscription]struct{}
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[*memorySubscription]struct{})}
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	for sub := range b.subs[topic] {
		payload := make([]byte, len(body))
		copy(payload, body)
		sub.deliver(Message{Topic: topic, Body: payload})
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, topics ...string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	sub := &memorySubscription{
		bus:    b,
		topics: topics,
		ch:     make(chan Message, subscriptionBuffer),
	}
	for _, topic := range topics {
		if b.subs[topic] == nil {
			b.subs[topic] = make(map[*memorySubscription]struct{})
		}
		b.subs[topic][sub] = struct{}{}
	}
	return sub, nil
}

// Close ends every open subscription.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, set := range b.subs {
		for sub := range set {
			sub.closeLocked()
		}
	}
	b.subs = nil
	return nil
}

// Disconnect drops every current subscription as a lost connection would,
// leaving the bus usable for new subscribers.
func (b *MemoryBus) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, set := range b.subs {
		for sub := range set {
			sub.closeLocked()
		}
		delete(b.subs, topic)
	}
}

// Subscribers returns the number of live subscriptions on topic.
func (b *MemoryBus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

type memorySubscription struct {
	bus    *MemoryBus
	topics []string

	mu     sync.Mutex
	ch     chan Message
	closed bool
}

func (s *memorySubscription) Messages() <-chan Message {
	return s.ch
}

func (s *memorySubscription) deliver(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- msg:
	default:
	}
}

func (s *memorySubscription) Close() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	for _, topic := range s.topics {
		delete(s.bus.subs[topic], s)
	}
	s.closeLocked()
	return nil
}

// closeLocked requires the bus lock.
func (s *memorySubscription) closeLocked() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
