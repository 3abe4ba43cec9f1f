package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/floroz/gavel-live/services/auction-service/internal/adapters/api"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/auctions"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/users"
)

// APIError is a non-2xx answer from the auction API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// Client talks to the auction API over HTTP
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("auction API unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{Status: resp.StatusCode, Message: "unreadable response: " + err.Error()}
	}
	if resp.StatusCode >= 300 {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

func (c *Client) Register(ctx context.Context, displayName, contact string) (*users.User, error) {
	var user users.User
	err := c.do(ctx, http.MethodPost, "/register", api.RegisterRequest{
		DisplayName: displayName,
		Contact:     contact,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) CreateAuction(ctx context.Context, req api.CreateAuctionRequest) (*api.CreateAuctionResponse, error) {
	var out api.CreateAuctionResponse
	if err := c.do(ctx, http.MethodPost, "/auction/create", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PlaceBid(ctx context.Context, req api.PlaceBidRequest) (*api.BidResponse, error) {
	var out api.BidResponse
	if err := c.do(ctx, http.MethodPost, "/auction/bid", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ActiveStatus(ctx context.Context) ([]auctions.AuctionSummary, error) {
	out := []auctions.AuctionSummary{}
	if err := c.do(ctx, http.MethodGet, "/auction/status", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListBids(ctx context.Context, auctionID int64) ([]api.BidResponse, error) {
	out := []api.BidResponse{}
	path := "/auction/" + strconv.FormatInt(auctionID, 10) + "/bids"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) History(ctx context.Context) ([]api.HistoryEntry, error) {
	out := []api.HistoryEntry{}
	if err := c.do(ctx, http.MethodGet, "/auction/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Notifications(ctx context.Context, userID int64) ([]string, error) {
	out := []string{}
	path := "/user/" + strconv.FormatInt(userID, 10) + "/notifications"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// parseAmount reads "12", "12.5" or "12.50" as cents
func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || strings.ContainsAny(s, "+-") || (hasFrac && (frac == "" || len(frac) > 2)) {
		return 0, fmt.Errorf("invalid amount %q: use units with up to two decimals", s)
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	var cents int64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil || cents < 0 {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
	}
	return units*100 + cents, nil
}
