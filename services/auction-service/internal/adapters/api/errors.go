package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/floroz/gavel-live/pkg/domainerr"
)

// mapErrorToHTTP maps error classes to a status code and public message
func mapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, domainerr.ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domainerr.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domainerr.ErrConflict):
		return http.StatusConflict, err.Error()
	case domainerr.IsRetryable(err):
		return http.StatusServiceUnavailable, "service temporarily unavailable, retry later"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func jsonResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func jsonError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"status": status,
		"error":  message,
	})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	status, message := mapErrorToHTTP(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", "error", err, "path", c.Request.URL.Path)
	} else {
		h.logger.Info(op+" rejected", "error", err.Error(), "status", status)
	}
	jsonError(c, status, message)
}

func (h *Handler) bindError(c *gin.Context, op string, err error) {
	h.logger.Warn(op+": binding error", "error", err.Error())
	jsonError(c, http.StatusBadRequest, fmt.Sprintf("invalid request payload: %v", err))
}
