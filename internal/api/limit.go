package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/issuedesk/backend/internal/middleware"
)

// LimitResponse is the body of GET /upload-media/limit.
type LimitResponse struct {
	Success       bool  `json:"success"`
	Limit         int   `json:"limit"`
	Remaining     int   `json:"remaining"`
	WindowSeconds int64 `json:"windowSeconds"`
}

// LimitHandler tells a client how many uploads it has left in the current window
type LimitHandler struct {
	limiter *middleware.RateLimiter
}

func NewLimitHandler(limiter *middleware.RateLimiter) *LimitHandler {
	return &LimitHandler{limiter: limiter}
}

// Limit does not count against the caller's quota
func (h *LimitHandler) Limit(c *gin.Context) {
	remaining, err := h.limiter.Remaining(c.Request.Context(), c.ClientIP())
	if err != nil {
		log.Printf("[RateLimit] Remaining lookup failed for %s: %v", c.ClientIP(), err)
		c.JSON(http.StatusServiceUnavailable, middleware.ErrorResponse{Success: false, Error: "Upload limit is unavailable"})
		return
	}
	cfg := h.limiter.Config()
	c.JSON(http.StatusOK, LimitResponse{
		Success:       true,
		Limit:         cfg.Limit,
		Remaining:     remaining,
		WindowSeconds: int64(cfg.Window.Seconds()),
	})
}
