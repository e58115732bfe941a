// Package storage uploads media files to the configured cloud provider.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/pageza/issuedesk/backend/config"
)

// Provider uploads a local file and returns a public retrieval URL.
type Provider interface {
	Name() string
	UploadFile(ctx context.Context, localPath, name, mimeType string) (string, error)
}

var (
	// ErrQuotaExceeded wraps provider quota and rate limit rejections.
	ErrQuotaExceeded = errors.New("storage provider quota exceeded")
	// ErrNotConfigured is returned by NewProvider when no provider has credentials.
	ErrNotConfigured = errors.New("storage provider not configured")
)

// NewProvider builds the provider selected by cfg.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch p := cfg.Provider(); p {
	case config.ProviderCloudinary:
		if !cfg.CloudinaryConfigured() {
			return nil, fmt.Errorf("%w: cloudinary credentials missing", ErrNotConfigured)
		}
		return NewCloudinary(cfg), nil
	case config.ProviderGoogleDrive:
		if !cfg.GoogleDriveConfigured() {
			return nil, fmt.Errorf("%w: google drive credentials missing", ErrNotConfigured)
		}
		return NewGoogleDrive(cfg)
	case config.ProviderS3:
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
		}
		return NewS3(s3cfg.Client, s3cfg.BucketName, s3cfg.PublicURL), nil
	case config.ProviderNone:
		return nil, ErrNotConfigured
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, p)
	}
}

func newHTTPClient() *resty.Client {
	return resty.New().SetRetryCount(0)
}
