package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pageza/issuedesk/backend/config"
	"github.com/pageza/issuedesk/backend/internal/storage"
	"github.com/pageza/issuedesk/backend/internal/types"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "issuedesk_uploads_total",
		Help: "Media uploads by provider and outcome.",
	}, []string{"provider", "outcome"})

	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "issuedesk_upload_bytes_total",
		Help: "Bytes accepted for upload.",
	})
)

// Document types accepted next to any image, video or audio type.
var allowedDocumentTypes = map[string]bool{}

func init() {
	for _, t := range []string{
		"application/pdf",
		"text/plain",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	} {
		allowedDocumentTypes[t] = true
	}
}

// AllowedType reports whether uploads of mimeType are accepted.
func AllowedType(mimeType string) bool {
	for _, prefix := range []string{"image/", "video/", "audio/"} {
		if strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	return allowedDocumentTypes[mimeType]
}

// MediaService validates incoming files and forwards them to the storage provider.
type MediaService struct {
	provider  storage.Provider
	uploadDir string
	maxSize   int64
}

// NewMediaService creates the service. provider may be nil when no storage
// provider is configured; uploads then fail with ProviderNotConfigured.
func NewMediaService(provider storage.Provider, cfg *config.Config) *MediaService {
	return &MediaService{
		provider:  provider,
		uploadDir: cfg.UploadDir,
		maxSize:   cfg.MaxUploadSize,
	}
}

// ProviderName returns the configured provider name, empty when none.
func (s *MediaService) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

func (s *MediaService) ProviderInitialized() bool {
	return s.provider != nil
}

// Upload stores fh with the provider and describes the result.
func (s *MediaService) Upload(ctx context.Context, fh *multipart.FileHeader) (*types.UploadResponse, error) {
	resp, err := s.upload(ctx, fh)
	outcome := "success"
	if err != nil {
		outcome = string(types.KindOf(err))
	}
	uploadsTotal.WithLabelValues(s.ProviderName(), outcome).Inc()
	return resp, err
}

func (s *MediaService) upload(ctx context.Context, fh *multipart.FileHeader) (*types.UploadResponse, error) {
	if fh == nil {
		return nil, types.NewUploadError(types.KindNoFileProvided, "No file uploaded", nil)
	}
	if s.maxSize > 0 && fh.Size > s.maxSize {
		return nil, types.NewUploadError(types.KindFileTooLarge,
			fmt.Sprintf("File too large. Maximum size is %d MB", s.maxSize>>20), nil)
	}

	mimeType := detectMimeType(fh)
	if !AllowedType(mimeType) {
		return nil, types.NewUploadError(types.KindInvalidFileType,
			fmt.Sprintf("File type %s is not allowed", mimeType), nil)
	}
	if s.provider == nil {
		return nil, types.NewUploadError(types.KindProviderNotConfigured, "Storage provider not configured", nil)
	}

	tmpPath, err := s.saveTemp(fh)
	if err != nil {
		return nil, types.NewUploadError(types.KindUnknown, "Failed to store upload", err)
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			log.Printf("[MediaService] Failed to remove temp file %s: %v", tmpPath, err)
		}
	}()

	url, err := s.provider.UploadFile(ctx, tmpPath, fh.Filename, mimeType)
	if err != nil {
		log.Printf("[MediaService] %s upload of %s failed: %v", s.provider.Name(), fh.Filename, err)
		return nil, classifyProviderError(err)
	}

	uploadBytesTotal.Add(float64(fh.Size))
	log.Printf("[MediaService] Uploaded %s (%d bytes) via %s", fh.Filename, fh.Size, s.provider.Name())
	return &types.UploadResponse{
		Success:   true,
		MediaLink: url,
		FileName:  fh.Filename,
		FileSize:  fh.Size,
		MimeType:  mimeType,
	}, nil
}

func (s *MediaService) saveTemp(fh *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	path := filepath.Join(s.uploadDir, uuid.New().String()+filepath.Ext(fh.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", err
	}
	return path, dst.Close()
}

// detectMimeType prefers the part header and falls back to the file extension.
func detectMimeType(fh *multipart.FileHeader) string {
	t := fh.Header.Get("Content-Type")
	if t == "" || t == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(fh.Filename)); byExt != "" {
			t = byExt
		}
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	if t == "" {
		return "application/octet-stream"
	}
	return t
}

func classifyProviderError(err error) *types.UploadError {
	lower := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, storage.ErrQuotaExceeded), strings.Contains(lower, "quota"), strings.Contains(lower, "rate limit"):
		return types.NewUploadError(types.KindProviderQuotaExceeded, "Storage quota exceeded. Please try again later.", err)
	case errors.Is(err, context.DeadlineExceeded):
		return types.NewUploadError(types.KindTimeout, "Upload to storage provider timed out", err)
	default:
		return types.NewUploadError(types.KindUnknown, "Upload failed: "+err.Error(), err)
	}
}
