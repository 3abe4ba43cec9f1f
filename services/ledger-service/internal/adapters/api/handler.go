package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/floroz/gavel-live/pkg/contracts"
	"github.com/floroz/gavel-live/pkg/domainerr"
	"github.com/floroz/gavel-live/services/ledger-service/internal/domain/ledger"
)

type LedgerService interface {
	GetBidderStats(ctx context.Context, userID int64) (*ledger.BidderStats, error)
	GetResult(ctx context.Context, auctionID int64) (*contracts.ClosedResult, error)
	Reconcile(ctx context.Context) (ledger.ReconcileReport, error)
}

type Handler struct {
	service LedgerService
	logger  *slog.Logger
}

func NewHandler(service LedgerService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// NewRouter exposes the ledger read endpoints.
func NewRouter(h *Handler, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	})

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.GET("/bidders/:id/stats", h.GetBidderStats)
	router.GET("/results/:id", h.GetResult)
	router.POST("/reconcile", h.Reconcile)
	return router
}

// GetBidderStats handles GET /bidders/:id/stats
func (h *Handler) GetBidderStats(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	stats, err := h.service.GetBidderStats(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "GetBidderStats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "data": stats})
}

// GetResult handles GET /results/:id
func (h *Handler) GetResult(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.service.GetResult(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "GetResult", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "data": result})
}

// Reconcile handles POST /reconcile
func (h *Handler) Reconcile(c *gin.Context) {
	report, err := h.service.Reconcile(c.Request.Context())
	if err != nil {
		h.fail(c, "Reconcile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   gin.H{"scanned": report.Scanned, "recorded": report.Recorded},
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"status": http.StatusBadRequest, "error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	status, message := http.StatusInternalServerError, "internal server error"
	if errors.Is(err, domainerr.ErrNotFound) {
		status, message = http.StatusNotFound, err.Error()
	} else {
		h.logger.Error(op+" failed", "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"status": status, "error": message})
}
