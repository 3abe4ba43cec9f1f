package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floroz/gavel-live/pkg/bus"
	"github.com/floroz/gavel-live/services/auction-service/internal/adapters/api"
	"github.com/floroz/gavel-live/services/auction-service/internal/adapters/events"
	"github.com/floroz/gavel-live/services/auction-service/internal/adapters/memory"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/auctions"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/users"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	store  *memory.Store
	now    time.Time
}

func newTestServer(t *testing.T, health api.HealthCheck) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{store: memory.NewStore(), now: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := bus.NewMemoryBus()
	t.Cleanup(func() { _ = b.Close() })

	auctionSvc := auctions.NewService(ts.store, ts.store, ts.store, events.NewPublisher(b), logger,
		auctions.WithClock(func() time.Time { return ts.now }))
	userSvc := users.NewService(ts.store, ts.store)

	handler := api.NewHandler(auctionSvc, userSvc, health, logger)
	ts.router = api.NewRouter(handler, nil, logger)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func (ts *testServer) register(t *testing.T, name string) int64 {
	t.Helper()
	rec, env := ts.do(t, http.MethodPost, "/register", map[string]any{"display_name": name})
	require.Equal(t, http.StatusCreated, rec.Code)
	var u users.User
	require.NoError(t, json.Unmarshal(env.Data, &u))
	return u.ID
}

func (ts *testServer) createAuction(t *testing.T, owner int64, price int64) int64 {
	t.Helper()
	rec, env := ts.do(t, http.MethodPost, "/auction/create", map[string]any{
		"owner_id":         owner,
		"title":            "Bicycle",
		"starting_price":   price,
		"duration_minutes": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	var resp api.CreateAuctionResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return resp.AuctionID
}

func TestAuctionFlow(t *testing.T) {
	// Arrange
	ts := newTestServer(t, nil)
	owner := ts.register(t, "Olivia Owner")
	alice := ts.register(t, "Alice")
	bob := ts.register(t, "Bob")
	id := ts.createAuction(t, owner, 10000)

	// Act: two bids then expiry
	rec, _ := ts.do(t, http.MethodPost, "/auction/bid", map[string]any{"auction_id": id, "user_id": alice, "amount": 15000})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env := ts.do(t, http.MethodPost, "/auction/bid", map[string]any{"auction_id": id, "user_id": bob, "amount": 20000})
	require.Equal(t, http.StatusOK, rec.Code)
	var bid api.BidResponse
	require.NoError(t, json.Unmarshal(env.Data, &bid))
	assert.Equal(t, "200.00", bid.Display)

	rec, env = ts.do(t, http.MethodGet, "/auction/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var active []auctions.AuctionSummary
	require.NoError(t, json.Unmarshal(env.Data, &active))
	require.Len(t, active, 1)
	assert.Equal(t, "Bob", active[0].LeaderName)
	assert.Equal(t, "2m 0s", active[0].RemainingText)

	ts.now = ts.now.Add(3 * time.Minute)
	rec, env = ts.do(t, http.MethodGet, "/auction/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &active))

	// Assert
	assert.Empty(t, active)

	rec, env = ts.do(t, http.MethodGet, "/auction/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "SETTLED", history[0]["outcome"])
	assert.Equal(t, "Bob", history[0]["winner_name"])
	assert.Equal(t, "Winner: Bob, Amount: 200.00", history[0]["summary"])

	rec, env = ts.do(t, http.MethodGet, "/auction/1/bids", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bids []api.BidResponse
	require.NoError(t, json.Unmarshal(env.Data, &bids))
	require.Len(t, bids, 2)
	assert.Equal(t, int64(20000), bids[0].Amount)

	rec, env = ts.do(t, http.MethodGet, "/auction/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Auction auctions.Auction      `json:"auction"`
		Result  auctions.ClosedResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.False(t, detail.Auction.IsActive)
	assert.Equal(t, bob, detail.Result.WinnerID)
}

func TestPlaceBid_ErrorMapping(t *testing.T) {
	ts := newTestServer(t, nil)
	owner := ts.register(t, "Owner")
	alice := ts.register(t, "Alice")
	id := ts.createAuction(t, owner, 100)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantError  string
	}{
		{
			name:       "bid too low",
			body:       map[string]any{"auction_id": id, "user_id": alice, "amount": 90},
			wantStatus: http.StatusConflict,
			wantError:  "bid must be higher",
		},
		{
			name:       "self bid",
			body:       map[string]any{"auction_id": id, "user_id": owner, "amount": 500},
			wantStatus: http.StatusConflict,
			wantError:  "owner cannot bid",
		},
		{
			name:       "unknown auction",
			body:       map[string]any{"auction_id": 999, "user_id": alice, "amount": 500},
			wantStatus: http.StatusNotFound,
			wantError:  "auction not found",
		},
		{
			name:       "non positive amount",
			body:       map[string]any{"auction_id": id, "user_id": alice, "amount": 0},
			wantStatus: http.StatusBadRequest,
			wantError:  "bid amount must be positive",
		},
		{
			name:       "invalid json",
			body:       `{invalid json}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request payload",
		},
		{
			name:       "missing auction id",
			body:       map[string]any{"user_id": alice, "amount": 500},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := ts.do(t, http.MethodPost, "/auction/bid", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, env.Error, tt.wantError)
		})
	}
}

func TestCreateAuction_Validation(t *testing.T) {
	ts := newTestServer(t, nil)
	owner := ts.register(t, "Owner")

	rec, env := ts.do(t, http.MethodPost, "/auction/create", map[string]any{
		"owner_id": owner, "title": "Lamp", "starting_price": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "starting price")

	rec, env = ts.do(t, http.MethodPost, "/auction/create", map[string]any{
		"owner_id": owner, "title": "Lamp", "starting_price": 100, "duration_seconds": -1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "duration")

	rec, _ = ts.do(t, http.MethodPost, "/auction/create", map[string]any{
		"owner_id": 404, "title": "Lamp", "starting_price": 100,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAuctionRequest_Duration(t *testing.T) {
	secs, mins := int64(30), int64(3)
	assert.Equal(t, 5*time.Minute, api.CreateAuctionRequest{}.Duration())
	assert.Equal(t, 30*time.Second, api.CreateAuctionRequest{DurationSeconds: &secs, DurationMinutes: &mins}.Duration())
	assert.Equal(t, 3*time.Minute, api.CreateAuctionRequest{DurationMinutes: &mins}.Duration())
}

func TestNotifications_DrainOnRead(t *testing.T) {
	ts := newTestServer(t, nil)
	alice := ts.register(t, "Alice")
	require.NoError(t, ts.store.Append(context.Background(), alice, "🏆 you won"))

	rec, env := ts.do(t, http.MethodGet, "/user/1/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []string
	require.NoError(t, json.Unmarshal(env.Data, &msgs))
	assert.Equal(t, []string{"🏆 you won"}, msgs)

	_, env = ts.do(t, http.MethodGet, "/user/1/notifications", nil)
	require.NoError(t, json.Unmarshal(env.Data, &msgs))
	assert.Empty(t, msgs)

	rec, _ = ts.do(t, http.MethodGet, "/user/abc/notifications", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = ts.do(t, http.MethodGet, "/user/42/notifications", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	healthy := newTestServer(t, func(context.Context) error { return nil })
	rec, _ := healthy.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	broken := newTestServer(t, func(context.Context) error { return errors.New("redis: connection refused") })
	rec, env := broken.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "store unreachable", env.Error)
}
