package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pageza/issuedesk/backend/internal/middleware"
	"github.com/pageza/issuedesk/backend/internal/service"
)

// Dependencies are the collaborators of the HTTP handlers
type Dependencies struct {
	Media service.IMediaService
	// UploadLimiter is optional; nil disables upload rate limiting
	UploadLimiter *middleware.RateLimiter
	// MaxUploadSize bounds the request body of uploads
	MaxUploadSize int64
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	health := NewHealthHandler(deps.Media)
	media := NewMediaHandler(deps.Media, deps.MaxUploadSize)

	router.GET("/health", health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	upload := []gin.HandlerFunc{}
	if deps.UploadLimiter != nil {
		upload = append(upload, deps.UploadLimiter.Middleware())
	}
	upload = append(upload, media.UploadMedia)
	router.POST("/upload-media", upload...)
	if deps.UploadLimiter != nil {
		router.GET("/upload-media/limit", NewLimitHandler(deps.UploadLimiter).Limit)
	}

	router.NoRoute(middleware.NotFound())
}
