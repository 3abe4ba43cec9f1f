package api

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the routes. allowOrigins empty means any origin.
func NewRouter(h *Handler, allowOrigins []string, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Requested-With"},
		MaxAge:       12 * time.Hour,
	}
	if len(allowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowOrigins
	}
	router.Use(cors.New(corsCfg))

	router.GET("/health", h.Health)
	router.POST("/register", h.Register)

	auction := router.Group("/auction")
	{
		auction.POST("/create", h.CreateAuction)
		auction.POST("/bid", h.PlaceBid)
		auction.GET("/status", h.ActiveStatus)
		auction.GET("/history", h.History)
		auction.GET("/:id", h.GetAuction)
		auction.GET("/:id/bids", h.ListBids)
	}

	router.GET("/user/:id/notifications", h.Notifications)

	return router
}

// requestLogger logs incoming requests with timing
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("HTTP Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}
