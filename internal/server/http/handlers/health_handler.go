package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports store connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	checker HealthChecker
}

// NewHealthHandler constructs HealthHandler. A nil checker always reports healthy.
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Check returns 200 when the store answers and 503 otherwise.
func (h *HealthHandler) Check(c *gin.Context) {
	if h.checker != nil {
		if err := h.checker.HealthCheck(c.Request.Context()); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
