package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/floroz/gavel-live/services/auction-service/internal/domain/auctions"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/users"
)

type AuctionService interface {
	CreateAuction(ctx context.Context, cmd auctions.CreateAuctionCommand) (*auctions.Auction, error)
	PlaceBid(ctx context.Context, cmd auctions.PlaceBidCommand) (*auctions.Bid, error)
	ListActive(ctx context.Context) ([]*auctions.AuctionSummary, error)
	GetAuction(ctx context.Context, id int64) (*auctions.Auction, error)
	ListBids(ctx context.Context, auctionID int64) ([]*auctions.Bid, error)
	ListClosedHistory(ctx context.Context) ([]*auctions.ClosedResult, error)
	GetResult(ctx context.Context, auctionID int64) (*auctions.ClosedResult, error)
}

type UserService interface {
	Register(ctx context.Context, displayName, contact string) (*users.User, error)
	DrainMailbox(ctx context.Context, userID int64) ([]string, error)
}

// HealthCheck reports whether a backing dependency is reachable
type HealthCheck func(ctx context.Context) error

type Handler struct {
	auctions AuctionService
	users    UserService
	health   HealthCheck
	logger   *slog.Logger
}

func NewHandler(auctionSvc AuctionService, userSvc UserService, health HealthCheck, logger *slog.Logger) *Handler {
	return &Handler{
		auctions: auctionSvc,
		users:    userSvc,
		health:   health,
		logger:   logger,
	}
}

// Register handles POST /register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, "Register", err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.DisplayName, req.Contact)
	if err != nil {
		h.fail(c, "Register", err)
		return
	}
	jsonResponse(c, http.StatusCreated, user, "user registered")
}

// CreateAuction handles POST /auction/create
func (h *Handler) CreateAuction(c *gin.Context) {
	var req CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, "CreateAuction", err)
		return
	}

	auction, err := h.auctions.CreateAuction(c.Request.Context(), auctions.CreateAuctionCommand{
		OwnerID:       req.OwnerID,
		Title:         req.Title,
		StartingPrice: req.StartingPrice,
		Duration:      req.Duration(),
	})
	if err != nil {
		h.fail(c, "CreateAuction", err)
		return
	}
	jsonResponse(c, http.StatusCreated, CreateAuctionResponse{
		AuctionID: auction.ID,
		ClosesAt:  auction.ClosesAt,
	}, "auction created")
}

// PlaceBid handles POST /auction/bid
func (h *Handler) PlaceBid(c *gin.Context) {
	var req PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, "PlaceBid", err)
		return
	}

	bid, err := h.auctions.PlaceBid(c.Request.Context(), auctions.PlaceBidCommand{
		AuctionID: req.AuctionID,
		UserID:    req.UserID,
		Amount:    req.Amount,
	})
	if err != nil {
		h.fail(c, "PlaceBid", err)
		return
	}
	jsonResponse(c, http.StatusOK, toBidResponse(bid), "bid accepted")
}

// ActiveStatus handles GET /auction/status. Listing also closes expired auctions.
func (h *Handler) ActiveStatus(c *gin.Context) {
	summaries, err := h.auctions.ListActive(c.Request.Context())
	if err != nil {
		h.fail(c, "ActiveStatus", err)
		return
	}
	jsonResponse(c, http.StatusOK, summaries, "active auctions")
}

// GetAuction handles GET /auction/:id
func (h *Handler) GetAuction(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	auction, err := h.auctions.GetAuction(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "GetAuction", err)
		return
	}

	data := gin.H{"auction": auction}
	if !auction.IsActive {
		result, err := h.auctions.GetResult(c.Request.Context(), id)
		switch {
		case err == nil:
			data["result"] = result
		case !errors.Is(err, auctions.ErrResultNotFound):
			h.fail(c, "GetAuction", err)
			return
		}
	}
	jsonResponse(c, http.StatusOK, data, "auction")
}

// ListBids handles GET /auction/:id/bids
func (h *Handler) ListBids(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	bids, err := h.auctions.ListBids(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "ListBids", err)
		return
	}
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, toBidResponse(b))
	}
	jsonResponse(c, http.StatusOK, out, "bids")
}

// History handles GET /auction/history
func (h *Handler) History(c *gin.Context) {
	results, err := h.auctions.ListClosedHistory(c.Request.Context())
	if err != nil {
		h.fail(c, "History", err)
		return
	}
	out := make([]HistoryEntry, 0, len(results))
	for _, r := range results {
		out = append(out, toHistoryEntry(r))
	}
	jsonResponse(c, http.StatusOK, out, "closed auctions")
}

// Notifications handles GET /user/:id/notifications. Reading drains the mailbox.
func (h *Handler) Notifications(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	messages, err := h.users.DrainMailbox(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Notifications", err)
		return
	}
	jsonResponse(c, http.StatusOK, messages, "notifications")
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			h.logger.Warn("Health check failed", "error", err)
			jsonError(c, http.StatusServiceUnavailable, "store unreachable")
			return
		}
	}
	jsonResponse(c, http.StatusOK, gin.H{"healthy": true}, "ok")
}

func (h *Handler) idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		jsonError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
