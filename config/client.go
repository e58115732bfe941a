package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StoreDriver selects the key-value backend of the client-side store.
type StoreDriver string

const (
	StoreFile     StoreDriver = "file"
	StoreSQLite   StoreDriver = "sqlite"
	StorePostgres StoreDriver = "postgres"
	StoreRedis    StoreDriver = "redis"
	StoreMemory   StoreDriver = "memory"
)

// Timeouts used by the upload client.
const (
	DefaultUploadTimeout = 30 * time.Second
	DefaultHealthTimeout = 5 * time.Second
)

// ClientConfig holds the configuration of the issuedesk client.
type ClientConfig struct {
	// APIBaseURL is the upload backend, defaulting to the local backend.
	APIBaseURL string
	// ContextHost is the host the client considers itself running on; used to
	// skip probing a loopback backend from a hosted deployment.
	ContextHost string

	StoreDriver StoreDriver
	// StoreDSN is the sqlite path, postgres DSN or redis URL for the store.
	StoreDSN string
	DataDir  string

	CurrentUser  string
	SupportAgent string

	UploadTimeout time.Duration
	HealthTimeout time.Duration
}

// LoadClientConfig builds a ClientConfig from ISSUEDESK_* environment variables.
func LoadClientConfig() (*ClientConfig, error) {
	loadDotEnv()

	dataDir := os.Getenv("ISSUEDESK_DATA_DIR")
	if dataDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locating config directory: %w", err)
		}
		dataDir = filepath.Join(dir, "issuedesk")
	}

	cfg := &ClientConfig{
		APIBaseURL:   getEnv("ISSUEDESK_API_URL", "http://localhost:3001"),
		ContextHost:  getEnv("ISSUEDESK_CONTEXT_HOST", "localhost"),
		StoreDriver:  StoreDriver(getEnv("ISSUEDESK_STORE", string(StoreFile))),
		StoreDSN:     os.Getenv("ISSUEDESK_STORE_DSN"),
		DataDir:      dataDir,
		CurrentUser:  getEnv("ISSUEDESK_USER", "Current User"),
		SupportAgent: getEnv("ISSUEDESK_SUPPORT_AGENT", "Support Team"),
	}

	var err error
	if cfg.UploadTimeout, err = getEnvDuration("ISSUEDESK_UPLOAD_TIMEOUT", DefaultUploadTimeout); err != nil {
		return nil, err
	}
	if cfg.HealthTimeout, err = getEnvDuration("ISSUEDESK_HEALTH_TIMEOUT", DefaultHealthTimeout); err != nil {
		return nil, err
	}

	if err := ValidateClientConfig(cfg); err != nil {
		return nil, fmt.Errorf("client configuration validation failed: %w", err)
	}
	return cfg, nil
}
