package api

import (
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/issuedesk/backend/internal/service"
	"github.com/pageza/issuedesk/backend/internal/types"
)

// multipartOverhead is the allowance for form boundaries and headers on top of the file itself.
const multipartOverhead = 1 << 20

// MediaHandler proxies uploads to the media service
type MediaHandler struct {
	media   service.IMediaService
	maxBody int64
}

func NewMediaHandler(media service.IMediaService, maxUploadSize int64) *MediaHandler {
	h := &MediaHandler{media: media}
	if maxUploadSize > 0 {
		h.maxBody = maxUploadSize + multipartOverhead
	}
	return h
}

// UploadMedia handles POST /upload-media with the file in the "file" field
func (h *MediaHandler) UploadMedia(c *gin.Context) {
	if h.maxBody > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		h.fail(c, formFileError(err))
		return
	}

	resp, err := h.media.Upload(c.Request.Context(), fh)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MediaHandler) fail(c *gin.Context, err error) {
	kind := types.KindOf(err)
	if kind.HTTPStatus() >= http.StatusInternalServerError {
		log.Printf("[MediaHandler] Upload failed (%s): %v", kind, err)
	}
	c.JSON(kind.HTTPStatus(), types.UploadResponse{Success: false, Error: err.Error()})
}

func formFileError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) || strings.Contains(err.Error(), "request body too large") {
		return types.NewUploadError(types.KindFileTooLarge, "File too large", err)
	}
	// Missing field, non-multipart body and malformed forms all mean no usable file.
	return types.NewUploadError(types.KindNoFileProvided, "No file uploaded", err)
}
