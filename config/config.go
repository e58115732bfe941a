package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Provider names the cloud storage backend that receives uploaded media.
type Provider string

const (
	ProviderNone        Provider = ""
	ProviderCloudinary  Provider = "cloudinary"
	ProviderGoogleDrive Provider = "googledrive"
	ProviderS3          Provider = "s3"
)

// Config holds all configuration for the upload backend
type Config struct {
	// Server configuration
	ServerPort     string
	ServerHost     string
	AllowedOrigins []string

	// Upload handling
	UploadDir        string
	MaxUploadSize    int64
	UploadTempMaxAge time.Duration
	JanitorSchedule  string

	// StorageProvider forces a provider; empty means pick the first configured one.
	StorageProvider Provider

	// Cloudinary configuration
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
	CloudinaryAPIURL    string

	// Google Drive configuration (service account)
	GoogleClientEmail    string
	GooglePrivateKey     string
	GoogleDriveFolderID  string
	GoogleTokenURL       string
	GoogleDriveUploadURL string
	GoogleDriveAPIURL    string

	// S3 configuration
	S3BucketName string
	AWSRegion    string

	// Redis backed upload rate limiting; disabled when RedisURL is empty
	RedisURL         string
	UploadRateLimit  int
	UploadRateWindow time.Duration
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	if env != Production {
		loadDotEnv()
	}

	cfg := &Config{}
	if err := loadConfig(cfg, env); err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadConfig(cfg *Config, env Environment) error {
	cfg.ServerPort = getEnv("SERVER_PORT", "3001")
	cfg.ServerHost = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"})

	cfg.UploadDir = getEnv("UPLOAD_DIR", filepath.Join(os.TempDir(), "issuedesk-uploads"))
	maxMB, err := getEnvInt("MAX_UPLOAD_SIZE_MB", 50)
	if err != nil {
		return err
	}
	cfg.MaxUploadSize = int64(maxMB) << 20
	if cfg.UploadTempMaxAge, err = getEnvDuration("UPLOAD_TEMP_MAX_AGE", time.Hour); err != nil {
		return err
	}
	cfg.JanitorSchedule = getEnv("UPLOAD_JANITOR_SCHEDULE", "@every 15m")

	cfg.StorageProvider = Provider(strings.ToLower(os.Getenv("STORAGE_PROVIDER")))

	cfg.CloudinaryCloudName = os.Getenv("CLOUDINARY_CLOUD_NAME")
	cfg.CloudinaryAPIKey = os.Getenv("CLOUDINARY_API_KEY")
	cfg.CloudinaryAPISecret = secretOrEnv(env, "cloudinary_api_secret", "CLOUDINARY_API_SECRET")
	cfg.CloudinaryFolder = getEnv("CLOUDINARY_FOLDER", "issue-tracker")
	cfg.CloudinaryAPIURL = getEnv("CLOUDINARY_API_URL", "https://api.cloudinary.com/v1_1")

	cfg.GoogleClientEmail = os.Getenv("GOOGLE_CLIENT_EMAIL")
	// Private keys in env files usually carry literal \n sequences.
	cfg.GooglePrivateKey = strings.ReplaceAll(secretOrEnv(env, "google_private_key", "GOOGLE_PRIVATE_KEY"), `\n`, "\n")
	cfg.GoogleDriveFolderID = os.Getenv("GOOGLE_DRIVE_FOLDER_ID")
	cfg.GoogleTokenURL = getEnv("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token")
	cfg.GoogleDriveUploadURL = getEnv("GOOGLE_DRIVE_UPLOAD_URL", "https://www.googleapis.com/upload/drive/v3")
	cfg.GoogleDriveAPIURL = getEnv("GOOGLE_DRIVE_API_URL", "https://www.googleapis.com/drive/v3")

	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.AWSRegion = getEnv("AWS_REGION", "us-east-1")

	cfg.RedisURL = secretOrEnv(env, "redis_url", "REDIS_URL")
	if cfg.UploadRateLimit, err = getEnvInt("UPLOAD_RATE_LIMIT", 30); err != nil {
		return err
	}
	if cfg.UploadRateWindow, err = getEnvDuration("UPLOAD_RATE_WINDOW", time.Hour); err != nil {
		return err
	}

	return nil
}

// CloudinaryConfigured reports whether every Cloudinary credential is present.
func (c *Config) CloudinaryConfigured() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// GoogleDriveConfigured reports whether the service account credentials are present.
func (c *Config) GoogleDriveConfigured() bool {
	return c.GoogleClientEmail != "" && c.GooglePrivateKey != ""
}

// S3Configured reports whether an S3 bucket is set.
func (c *Config) S3Configured() bool {
	return c.S3BucketName != ""
}

// Provider returns the storage provider uploads go to. An explicit
// STORAGE_PROVIDER wins; otherwise Cloudinary, Google Drive and S3 are tried in that order.
func (c *Config) Provider() Provider {
	if c.StorageProvider != ProviderNone {
		return c.StorageProvider
	}
	switch {
	case c.CloudinaryConfigured():
		return ProviderCloudinary
	case c.GoogleDriveConfigured():
		return ProviderGoogleDrive
	case c.S3Configured():
		return ProviderS3
	}
	return ProviderNone
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// secretOrEnv reads a Docker secret, falling back to the environment. CI only
// uses the environment.
func secretOrEnv(env Environment, secret, envKey string) string {
	if env != CI {
		if v := readSecret(secret); v != "" {
			return v
		}
	}
	return os.Getenv(envKey)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
