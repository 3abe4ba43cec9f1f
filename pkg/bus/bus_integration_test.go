//go:build integration

package bus_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floroz/gavel-live/pkg/bus"
	"github.com/floroz/gavel-live/pkg/testhelpers"
)

func logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func expectMessage(t *testing.T, sub bus.Subscription) bus.Message {
	t.Helper()
	select {
	case msg, ok := <-sub.Messages():
		require.True(t, ok, "subscription closed")
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
		return bus.Message{}
	}
}

func exerciseBus(t *testing.T, b bus.Bus) {
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "auctions.closed", "auctions.bids.7")
	require.NoError(t, err)
	defer sub.Close()

	// rabbitmq binds asynchronously from the consumer's point of view
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, b.Publish(ctx, "auctions.bids.8", []byte("other auction")))
	require.NoError(t, b.Publish(ctx, "auctions.bids.7", []byte(`{"amount":150}`)))
	require.NoError(t, b.Publish(ctx, "auctions.closed", []byte(`{"auction_id":7}`)))

	first := expectMessage(t, sub)
	assert.Equal(t, "auctions.bids.7", first.Topic)
	assert.JSONEq(t, `{"amount":150}`, string(first.Body))

	second := expectMessage(t, sub)
	assert.Equal(t, "auctions.closed", second.Topic)

	require.NoError(t, sub.Close())
	_, ok := <-sub.Messages()
	assert.False(t, ok)
}

func TestRedisBus_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	tr := testhelpers.NewTestRedis(t)

	b := bus.NewRedisBus(tr.Client, logger())
	defer b.Close()

	exerciseBus(t, b)
}

func TestRabbitMQBus_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	url := testhelpers.NewTestRabbitMQ(t)

	b, err := bus.NewRabbitMQBus(url, logger())
	require.NoError(t, err)
	defer b.Close()

	exerciseBus(t, b)
}

func TestRedisBus_ListenerRecoversAfterClientKill(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	tr := testhelpers.NewTestRedis(t)
	b := bus.NewRedisBus(tr.Client, logger())
	defer b.Close()

	received := make(chan string, 4)
	l := bus.NewListener(b, func(_ context.Context, msg bus.Message) error {
		received <- string(msg.Body)
		return nil
	}, bus.ListenerConfig{
		Topics:         []string{"auctions.closed"},
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
	}, logger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()
	require.Eventually(t, func() bool { return l.State() == bus.StateConnected }, 5*time.Second, 10*time.Millisecond)

	// Drop every pub/sub connection server side
	require.NoError(t, tr.Client.Do(ctx, "CLIENT", "KILL", "TYPE", "pubsub").Err())

	require.Eventually(t, func() bool {
		n, err := tr.Client.PubSubNumSub(ctx, "auctions.closed").Result()
		return err == nil && n["auctions.closed"] == 1 && l.State() == bus.StateConnected
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, b.Publish(ctx, "auctions.closed", []byte("after reconnect")))
	select {
	case body := <-received:
		assert.Equal(t, "after reconnect", body)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not recover")
	}
}
