// Package client talks to the upload backend and falls back to simulated
// uploads when it cannot be used.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/pageza/issuedesk/backend/config"
	"github.com/pageza/issuedesk/backend/internal/mockdata"
	"github.com/pageza/issuedesk/backend/internal/models"
	"github.com/pageza/issuedesk/backend/internal/types"
)

// Client uploads media to the backend.
type Client struct {
	http          *resty.Client
	baseURL       string
	contextHost   string
	uploadTimeout time.Duration
	healthTimeout time.Duration
	mock          *mockdata.Generator
	logger        *log.Logger
	now           func() time.Time
}

type Option func(*Client)

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTimeouts overrides the upload and health-check bounds.
func WithTimeouts(upload, health time.Duration) Option {
	return func(c *Client) {
		if upload > 0 {
			c.uploadTimeout = upload
		}
		if health > 0 {
			c.healthTimeout = health
		}
	}
}

// WithContextHost sets the host the client believes it runs on.
func WithContextHost(host string) Option {
	return func(c *Client) { c.contextHost = host }
}

// New creates a Client for cfg. mock serves every fallback upload.
func New(cfg *config.ClientConfig, mock *mockdata.Generator, opts ...Option) *Client {
	c := &Client{
		http:          resty.New().SetRetryCount(0),
		baseURL:       strings.TrimRight(cfg.APIBaseURL, "/"),
		contextHost:   cfg.ContextHost,
		uploadTimeout: cfg.UploadTimeout,
		healthTimeout: cfg.HealthTimeout,
		mock:          mock,
		logger:        log.Default(),
		now:           time.Now,
	}
	if c.uploadTimeout <= 0 {
		c.uploadTimeout = config.DefaultUploadTimeout
	}
	if c.healthTimeout <= 0 {
		c.healthTimeout = config.DefaultHealthTimeout
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

// UploadFile performs a real upload. Every failure is an *types.UploadError.
func (c *Client) UploadFile(ctx context.Context, f File) (models.MediaFile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	if f.Open == nil {
		return models.MediaFile{}, types.NewUploadError(types.KindNoFileProvided, "", nil)
	}
	rc, err := f.Open()
	if err != nil {
		return models.MediaFile{}, types.NewUploadError(types.KindNoFileProvided, fmt.Sprintf("Failed to read %s", f.Name), err)
	}
	defer rc.Close()

	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartField("file", f.Name, f.Type, rc).
		Post(c.endpoint("/upload-media"))
	if err != nil {
		return models.MediaFile{}, transportError(ctx, err)
	}

	var body types.UploadResponse
	parseErr := json.Unmarshal(resp.Body(), &body)

	if !resp.IsSuccess() {
		msg := body.Error
		if parseErr != nil || msg == "" {
			msg = fmt.Sprintf("Upload failed with status %d", resp.StatusCode())
		}
		return models.MediaFile{}, classify(resp.StatusCode(), msg)
	}
	if parseErr != nil || !body.Success || body.MediaLink == "" {
		msg := body.Error
		if msg == "" {
			msg = "Upload failed: invalid response from server"
		}
		ue := classify(resp.StatusCode(), msg)
		ue.Err = parseErr
		return models.MediaFile{}, ue
	}

	mf := models.MediaFile{
		ID:         uuid.NewString(),
		Name:       body.FileName,
		URL:        body.MediaLink,
		Type:       body.MimeType,
		Size:       body.FileSize,
		UploadedAt: c.now(),
	}
	if mf.Name == "" {
		mf.Name = f.Name
	}
	if mf.Type == "" {
		mf.Type = f.Type
	}
	if mf.Size == 0 {
		mf.Size = f.Size
	}
	return mf, nil
}

// CheckHealth sends a single bounded probe and reports whether it got a 2xx.
func (c *Client) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	resp, err := c.http.R().SetContext(ctx).Get(c.endpoint("/health"))
	if err != nil {
		return false
	}
	return resp.IsSuccess()
}

// Health returns the decoded health body.
func (c *Client) Health(ctx context.Context) (*types.HealthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	resp, err := c.http.R().SetContext(ctx).Get(c.endpoint("/health"))
	if err != nil {
		return nil, transportError(ctx, err)
	}
	if !resp.IsSuccess() {
		return nil, classify(resp.StatusCode(), fmt.Sprintf("Health check failed with status %d", resp.StatusCode()))
	}

	var health types.HealthResponse
	if err := json.Unmarshal(resp.Body(), &health); err != nil {
		return nil, types.NewUploadError(types.KindUnknown, "Health check returned an invalid body", err)
	}
	return &health, nil
}

// Reachable is a cheap guess at whether the backend can be contacted at all.
// A loopback backend is unreachable from anywhere but a loopback host.
func (c *Client) Reachable() bool {
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Host == "" {
		return false
	}
	if isLoopback(u.Hostname()) && !isLoopback(c.contextHost) {
		return false
	}
	return true
}

// isLoopback accepts a bare host or host:port.
func isLoopback(host string) bool {
	host = strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// UploadFileWithFallback never fails: when the backend is unreachable,
// unhealthy or the upload errors, the result comes from the mock generator.
func (c *Client) UploadFileWithFallback(ctx context.Context, f File) models.MediaFile {
	if !c.Reachable() {
		c.logger.Printf("[UploadClient] Backend %s not reachable from %s, using mock upload", c.baseURL, c.contextHost)
		return c.mock.MockUpload(ctx, f.info())
	}
	if !c.CheckHealth(ctx) {
		c.logger.Printf("[UploadClient] Backend %s failed health check, using mock upload", c.baseURL)
		return c.mock.MockUpload(ctx, f.info())
	}

	mf, err := c.UploadFile(ctx, f)
	if err != nil {
		c.logger.Printf("[UploadClient] Upload of %s failed (%s): %v, using mock upload", f.Name, types.KindOf(err).Category(), err)
		return c.mock.MockUpload(ctx, f.info())
	}
	return mf
}

func transportError(ctx context.Context, err error) *types.UploadError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return types.NewUploadError(types.KindTimeout, "", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.NewUploadError(types.KindTimeout, "", err)
	}
	return types.NewUploadError(types.KindNetworkUnreachable, "", err)
}

// classify maps a failed response onto an error kind using its status and message text.
func classify(status int, message string) *types.UploadError {
	lower := strings.ToLower(message)
	kind := types.KindUnknown
	switch {
	case status == http.StatusBadRequest && strings.Contains(lower, "no file"):
		kind = types.KindNoFileProvided
	case status == http.StatusBadRequest && strings.Contains(lower, "type"):
		kind = types.KindInvalidFileType
	case status == http.StatusBadRequest && (strings.Contains(lower, "too large") || strings.Contains(lower, "size")):
		kind = types.KindFileTooLarge
	case status == http.StatusTooManyRequests || strings.Contains(lower, "quota") || strings.Contains(lower, "limit"):
		kind = types.KindProviderQuotaExceeded
	case status == http.StatusServiceUnavailable || strings.Contains(lower, "not configured") || strings.Contains(lower, "configuration"):
		kind = types.KindProviderNotConfigured
	}
	ue := types.NewUploadError(kind, message, nil)
	ue.StatusCode = status
	return ue
}
