package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pageza/issuedesk/backend/config"
)

// Cloudinary uploads through the signed upload REST endpoint.
type Cloudinary struct {
	http      *resty.Client
	apiURL    string
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
	now       func() time.Time
}

func NewCloudinary(cfg *config.Config) *Cloudinary {
	return &Cloudinary{
		http:      newHTTPClient(),
		apiURL:    strings.TrimRight(cfg.CloudinaryAPIURL, "/"),
		cloudName: cfg.CloudinaryCloudName,
		apiKey:    cfg.CloudinaryAPIKey,
		apiSecret: cfg.CloudinaryAPISecret,
		folder:    cfg.CloudinaryFolder,
		now:       time.Now,
	}
}

func (c *Cloudinary) Name() string { return string(config.ProviderCloudinary) }

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Cloudinary) UploadFile(ctx context.Context, localPath, name, mimeType string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	if c.folder != "" {
		params["folder"] = c.folder
	}
	form := map[string]string{
		"api_key":   c.apiKey,
		"signature": c.sign(params),
	}
	for k, v := range params {
		form[k] = v
	}

	// auto lets Cloudinary pick image, video or raw from the content.
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartField("file", name, mimeType, f).
		SetMultipartFormData(form).
		Post(fmt.Sprintf("%s/%s/auto/upload", c.apiURL, c.cloudName))
	if err != nil {
		return "", fmt.Errorf("cloudinary request failed: %w", err)
	}

	var body cloudinaryResponse
	_ = json.Unmarshal(resp.Body(), &body)

	if !resp.IsSuccess() {
		msg := resp.Status()
		if body.Error != nil && body.Error.Message != "" {
			msg = body.Error.Message
		}
		// 420 is Cloudinary's rate limit status.
		if resp.StatusCode() == 420 || resp.StatusCode() == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", ErrQuotaExceeded, msg)
		}
		return "", fmt.Errorf("cloudinary upload failed with status %d: %s", resp.StatusCode(), msg)
	}
	if body.SecureURL == "" {
		return "", fmt.Errorf("cloudinary response did not include a secure_url")
	}

	log.Printf("[Cloudinary] Uploaded %s as %s", name, body.PublicID)
	return body.SecureURL, nil
}

// sign computes the SHA-1 signature over the sorted parameters followed by the API secret.
func (c *Cloudinary) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "&") + c.apiSecret))
	return hex.EncodeToString(sum[:])
}
