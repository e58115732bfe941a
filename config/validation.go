package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// ValidateConfig checks the backend configuration. A missing storage provider
// is not an error: the server starts and reports the provider as uninitialized.
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	if port, err := strconv.Atoi(cfg.ServerPort); err != nil || port < 1 || port > 65535 {
		errs = append(errs, ValidationError{"SERVER_PORT", fmt.Sprintf("invalid port %q", cfg.ServerPort)})
	}
	if cfg.MaxUploadSize <= 0 {
		errs = append(errs, ValidationError{"MAX_UPLOAD_SIZE_MB", "must be positive"})
	}
	if cfg.UploadDir == "" {
		errs = append(errs, ValidationError{"UPLOAD_DIR", "must not be empty"})
	}
	if _, err := cron.ParseStandard(cfg.JanitorSchedule); err != nil {
		errs = append(errs, ValidationError{"UPLOAD_JANITOR_SCHEDULE", err.Error()})
	}
	if cfg.UploadRateLimit < 0 {
		errs = append(errs, ValidationError{"UPLOAD_RATE_LIMIT", "must not be negative"})
	}

	switch cfg.StorageProvider {
	case ProviderNone:
	case ProviderCloudinary:
		if !cfg.CloudinaryConfigured() {
			errs = append(errs, ValidationError{"STORAGE_PROVIDER", "cloudinary requires CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET"})
		}
	case ProviderGoogleDrive:
		if !cfg.GoogleDriveConfigured() {
			errs = append(errs, ValidationError{"STORAGE_PROVIDER", "googledrive requires GOOGLE_CLIENT_EMAIL and GOOGLE_PRIVATE_KEY"})
		}
	case ProviderS3:
		if !cfg.S3Configured() {
			errs = append(errs, ValidationError{"STORAGE_PROVIDER", "s3 requires S3_BUCKET_NAME"})
		}
	default:
		errs = append(errs, ValidationError{"STORAGE_PROVIDER", fmt.Sprintf("unknown provider %q", cfg.StorageProvider)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateClientConfig checks the client configuration.
func ValidateClientConfig(cfg *ClientConfig) error {
	var errs ValidationErrors

	if u, err := url.Parse(cfg.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{"ISSUEDESK_API_URL", fmt.Sprintf("invalid URL %q", cfg.APIBaseURL)})
	}
	switch cfg.StoreDriver {
	case StoreFile, StoreMemory, StoreSQLite:
	case StorePostgres, StoreRedis:
		if cfg.StoreDSN == "" {
			errs = append(errs, ValidationError{"ISSUEDESK_STORE_DSN", fmt.Sprintf("required for %s store", cfg.StoreDriver)})
		}
	default:
		errs = append(errs, ValidationError{"ISSUEDESK_STORE", fmt.Sprintf("unknown store %q", cfg.StoreDriver)})
	}
	if cfg.UploadTimeout <= 0 || cfg.HealthTimeout <= 0 {
		errs = append(errs, ValidationError{"ISSUEDESK_*_TIMEOUT", "timeouts must be positive"})
	}
	if cfg.CurrentUser == "" {
		errs = append(errs, ValidationError{"ISSUEDESK_USER", "must not be empty"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
