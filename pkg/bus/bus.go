// Package bus is a best-effort publish/subscribe transport.
//
// Delivery is at-most-once to subscribers connected at publish time; nothing is
// replayed. Anything that must survive a missed message belongs in the store.
package bus

import (
	"context"
	"errors"
)

// ErrClosed is returned when publishing or subscribing on a closed bus.
var ErrClosed = errors.New("bus closed")

// Message is a single payload received on a topic.
type Message struct {
	Topic string
	Body  []byte
}

// Subscription is a live stream of messages. Messages is closed when the
// underlying connection is lost or Close is called.
type Subscription interface {
	Messages() <-chan Message
	Close() error
}

type Publisher interface {
	Publish(ctx context.Context, topic string, body []byte) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, topics ...string) (Subscription, error)
}

// Bus combines both directions over one transport.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

const subscriptionBuffer = 64
