package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// State of a Listener's connection to the bus.
type State int32

const (
	StateDisconnected State = iota
	StateReconnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateReconnecting:
		return "reconnecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Handler processes one message. Returned errors are logged, never retried.
type Handler func(ctx context.Context, msg Message) error

// ListenerConfig tunes the reconnect loop and the handler pool.
type ListenerConfig struct {
	Topics []string
	// Workers bounds concurrently running handlers.
	Workers int
	// MaxAttempts is the number of consecutive failed subscribe attempts
	// after which Run gives up.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// StableAfter is how long a subscription must stay up without delivering
	// before its loss stops counting as a failed attempt.
	StableAfter time.Duration
}

func (c ListenerConfig) withDefaults() ListenerConfig {
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 10
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = 30 * time.Second
		if c.MaxBackoff < c.InitialBackoff {
			c.MaxBackoff = c.InitialBackoff
		}
	}
	if c.StableAfter <= 0 {
		c.StableAfter = 5 * time.Second
	}
	return c
}

// Listener keeps a subscription alive and dispatches messages to a handler.
//
// It moves Disconnected -> Reconnecting -> Connected and back to Disconnected
// when the stream ends. Reconnection is a loop with capped exponential backoff.
type Listener struct {
	sub     Subscriber
	handler Handler
	cfg     ListenerConfig
	logger  *slog.Logger

	state    atomic.Int32
	onChange func(State)
}

func NewListener(sub Subscriber, handler Handler, cfg ListenerConfig, logger *slog.Logger) *Listener {
	return &Listener{
		sub:     sub,
		handler: handler,
		cfg:     cfg.withDefaults(),
		logger:  logger.With("component", "bus_listener"),
	}
}

// OnStateChange registers fn to be called on every state transition.
// It must be set before Run.
func (l *Listener) OnStateChange(fn func(State)) {
	l.onChange = fn
}

// State returns the current connection state.
func (l *Listener) State() State {
	return State(l.state.Load())
}

func (l *Listener) setState(s State) {
	prev := State(l.state.Swap(int32(s)))
	if prev == s {
		return
	}
	l.logger.Info("Listener state changed", "from", prev.String(), "to", s.String())
	if l.onChange != nil {
		l.onChange(s)
	}
}

// Run blocks until ctx is cancelled (returning nil) or MaxAttempts consecutive
// attempts fail. A subscription that ends before delivering anything and
// before StableAfter elapses counts as a failed attempt.
func (l *Listener) Run(ctx context.Context) error {
	defer l.setState(StateDisconnected)

	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		l.setState(StateReconnecting)
		s, err := l.sub.Subscribe(ctx, l.cfg.Topics...)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			if failures >= l.cfg.MaxAttempts {
				return fmt.Errorf("subscribe failed after %d attempts: %w", failures, err)
			}
			delay := l.backoff(failures)
			l.logger.Warn("Subscribe failed, retrying", "attempt", failures, "backoff", delay, "error", err)
			if !sleep(ctx, delay) {
				return nil
			}
			continue
		}

		l.setState(StateConnected)
		started := time.Now()
		delivered := l.consume(ctx, s)
		_ = s.Close()

		if ctx.Err() != nil {
			return nil
		}
		l.setState(StateDisconnected)

		delay := l.backoff(1)
		if delivered || time.Since(started) >= l.cfg.StableAfter {
			failures = 0
		} else {
			failures++
			if failures >= l.cfg.MaxAttempts {
				return fmt.Errorf("subscription dropped after %d attempts", failures)
			}
			delay = l.backoff(failures)
		}
		l.logger.Warn("Subscription lost", "topics", l.cfg.Topics, "attempt", failures, "backoff", delay)
		if !sleep(ctx, delay) {
			return nil
		}
	}
}

// consume dispatches until the stream ends or ctx is done, then waits for
// in-flight handlers. It reports whether any message arrived.
func (l *Listener) consume(ctx context.Context, s Subscription) (delivered bool) {
	var g errgroup.Group
	g.SetLimit(l.cfg.Workers)
	defer func() { _ = g.Wait() }()

	msgs := s.Messages()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			delivered = true
			g.Go(func() error {
				l.dispatch(ctx, msg)
				return nil
			})
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Handler panicked", "topic", msg.Topic, "panic", r)
		}
	}()
	if err := l.handler(ctx, msg); err != nil {
		l.logger.Error("Failed to handle message", "topic", msg.Topic, "error", err)
	}
}

// backoff returns InitialBackoff doubled per failed attempt, capped at MaxBackoff.
func (l *Listener) backoff(attempt int) time.Duration {
	d := l.cfg.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= l.cfg.MaxBackoff {
			return l.cfg.MaxBackoff
		}
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
