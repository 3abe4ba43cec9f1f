package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floroz/gavel-live/pkg/bus"
	"github.com/floroz/gavel-live/pkg/contracts"
	"github.com/floroz/gavel-live/services/auction-service/internal/adapters/api"
	"github.com/floroz/gavel-live/services/auction-service/internal/adapters/events"
	"github.com/floroz/gavel-live/services/auction-service/internal/adapters/memory"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/auctions"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/users"
)

type testEnv struct {
	server *httptest.Server
	store  *memory.Store
	bus    *bus.MemoryBus
	users  *users.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{store: memory.NewStore(), bus: bus.NewMemoryBus()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	auctionSvc := auctions.NewService(env.store, env.store, env.store, events.NewPublisher(env.bus), logger)
	env.users = users.NewService(env.store, env.store)
	handler := api.NewHandler(auctionSvc, env.users, nil, logger)

	env.server = httptest.NewServer(api.NewRouter(handler, nil, logger))
	t.Cleanup(func() {
		env.server.Close()
		_ = env.bus.Close()
	})
	return env
}

// run executes auctionctl with args against the test server and returns stdout
func (env *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--server", env.server.URL}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (env *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := env.run(t, args...)
	require.NoError(t, err)
	return out
}

func TestRegisterCommand(t *testing.T) {
	env := newTestEnv(t)

	t.Run("text output joins the arguments into one name", func(t *testing.T) {
		out := env.mustRun(t, "register", "Ana", "Lima")

		assert.Contains(t, out, "Registered Ana Lima with id 1 (contact ana.lima@gavel.local)")
	})

	t.Run("json output", func(t *testing.T) {
		out := env.mustRun(t, "--format", "json", "register", "Bob", "--contact", "bob@example.com")

		var user users.User
		require.NoError(t, json.Unmarshal([]byte(out), &user))
		assert.Equal(t, int64(2), user.ID)
		assert.Equal(t, "bob@example.com", user.Contact)
	})
}

func TestAuctionFlow(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	env.mustRun(t, "register", "Olga")
	env.mustRun(t, "register", "Alice")
	env.mustRun(t, "register", "Bob")

	// Act
	out := env.mustRun(t, "create", "--owner", "1", "--title", "Vintage camera", "--price", "150", "--minutes", "10")
	assert.Contains(t, out, "Auction 1 created")

	out = env.mustRun(t, "bid", "1", "175.50", "--user", "2")
	assert.Contains(t, out, "Bid of 175.50 accepted on auction 1")

	_, err := env.run(t, "bid", "1", "170", "--user", "3")

	// Assert
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)

	_, err = env.run(t, "bid", "1", "500", "--user", "1")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status, "owners cannot bid on their own auction")

	out = env.mustRun(t, "status", "--user", "1")
	assert.Contains(t, out, "ID: 1 | Vintage camera (yours)")
	assert.Contains(t, out, "Current bid: 175.50 by Alice")
	assert.Contains(t, out, "Time left: 9m")

	out = env.mustRun(t, "bids", "1")
	assert.Contains(t, out, "175.50")
	assert.Contains(t, out, "Alice")
}

func TestStatusCommandEmpty(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "status")

	assert.Equal(t, "No active auctions.\n", out)
}

func TestCreateCommandSeconds(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	env.mustRun(t, "register", "Olga")

	// Act
	out := env.mustRun(t, "--format", "json", "create", "--owner", "1", "--title", "Lamp", "--seconds", "30")

	// Assert
	var created api.CreateAuctionResponse
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	auction, err := env.store.GetAuction(context.Background(), created.AuctionID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Second), auction.ClosesAt, 5*time.Second)
}

func TestHistoryAndInbox(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustRun(t, "register", "Olga")
	env.mustRun(t, "register", "Alice")
	_, err := env.store.SaveResult(ctx, &contracts.ClosedResult{
		AuctionID:   7,
		Title:       "Lamp",
		OwnerID:     1,
		Outcome:     contracts.OutcomeSettled,
		FinalAmount: 4200,
		WinnerID:    2,
		WinnerName:  "Alice",
		ClosedAt:    time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, env.store.Append(ctx, 2, "Congratulations! You won 'Lamp' for 42.00."))

	// Act
	history := env.mustRun(t, "history")
	inbox := env.mustRun(t, "inbox", "2")
	again := env.mustRun(t, "inbox", "2")

	// Assert
	assert.Contains(t, history, "#7 Lamp [SETTLED] Winner: Alice, Amount: 42.00")
	assert.Contains(t, inbox, "Congratulations! You won 'Lamp' for 42.00.")
	assert.Equal(t, "No new notifications.\n", again, "reading the inbox drains it")
}

func TestInboxUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "inbox", "99")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestUnreachableServer(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--server", "http://127.0.0.1:1", "--timeout", "1s", "history"})

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "auction API unreachable")
}

func TestSeedCommand(t *testing.T) {
	// Arrange
	env := newTestEnv(t)

	// Act
	out := env.mustRun(t, "--format", "json", "seed", "--auctions", "4", "--seed", "42")

	// Assert
	var report SeedReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Users, len(seedUsers))
	assert.Len(t, report.Auctions, 4)
	assert.GreaterOrEqual(t, report.Bids, 8)

	ctx := context.Background()
	for _, id := range report.Auctions {
		auction, err := env.store.GetAuction(ctx, id)
		require.NoError(t, err)
		assert.True(t, auction.HasLeader())
		assert.NotEqual(t, auction.OwnerID, auction.LeaderID)
		assert.Greater(t, auction.CurrentBid, auction.StartingPrice)
	}
}

func TestWatchCommand(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	original := openBus
	openBus = func(context.Context, *WatchOptions, *slog.Logger) (bus.Bus, func(), error) {
		return env.bus, func() {}, nil
	}
	t.Cleanup(func() { openBus = original })

	env.mustRun(t, "register", "Olga")
	env.mustRun(t, "register", "Alice")
	env.mustRun(t, "register", "Bob")
	env.mustRun(t, "create", "--owner", "1", "--title", "Lamp", "--price", "10")

	out := &syncBuffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--server", env.server.URL, "watch", "1", "--user", "3"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return env.bus.Subscribers(contracts.BidTopic(1)) > 0
	}, 2*time.Second, 10*time.Millisecond)

	// Act
	env.mustRun(t, "bid", "1", "11", "--user", "2")
	env.mustRun(t, "bid", "1", "12", "--user", "3")
	env.mustRun(t, "bid", "1", "13", "--user", "2")

	// Assert
	require.Eventually(t, func() bool {
		return strings.Count(out.String(), "New bid on Lamp") == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "11.00 by Alice")
	assert.Contains(t, out.String(), "13.00 by Alice")
	assert.NotContains(t, out.String(), "by Bob", "own bids are hidden")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
