package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/issuedesk/backend/config"
	"github.com/pageza/issuedesk/backend/internal/service"
)

// HealthHandler reports liveness and storage provider state
type HealthHandler struct {
	media service.IMediaService
	now   func() time.Time
}

func NewHealthHandler(media service.IMediaService) *HealthHandler {
	return &HealthHandler{media: media, now: time.Now}
}

var providerFlags = map[string]string{
	string(config.ProviderCloudinary):  "cloudinaryInitialized",
	string(config.ProviderGoogleDrive): "googleDriveInitialized",
	string(config.ProviderS3):          "s3Initialized",
}

// Health always answers 200 while the process is up
func (h *HealthHandler) Health(c *gin.Context) {
	name := h.media.ProviderName()
	initialized := h.media.ProviderInitialized()

	body := gin.H{
		"status":              "OK",
		"timestamp":           h.now().UTC().Format(time.RFC3339Nano),
		"provider":            name,
		"providerInitialized": initialized,
	}
	if flag, ok := providerFlags[name]; ok {
		body[flag] = initialized
	}
	c.JSON(http.StatusOK, body)
}
