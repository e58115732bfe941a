package service

import (
	"context"
	"mime/multipart"

	"github.com/pageza/issuedesk/backend/internal/types"
)

// IMediaService defines the interface for media upload operations
type IMediaService interface {
	Upload(ctx context.Context, fh *multipart.FileHeader) (*types.UploadResponse, error)
	ProviderName() string
	ProviderInitialized() bool
}

var _ IMediaService = (*MediaService)(nil)
