package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports liveness of the process and its backing services. A failed
// dependency turns the response into 503 so load balancers rotate us out.
func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			checks["postgres"] = "down"
			healthy = false
		} else {
			checks["postgres"] = "ok"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx).Err(); err != nil {
			checks["redis"] = "down"
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	word := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		word = "degraded"
	}
	c.JSON(status, gin.H{
		"success": healthy,
		"data": gin.H{
			"status": word,
			"checks": checks,
			"time":   time.Now().UTC(),
		},
	})
}
