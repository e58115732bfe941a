package storage

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/pageza/issuedesk/backend/config"
)

const (
	driveScope     = "https://www.googleapis.com/auth/drive.file"
	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// GoogleDrive uploads with a service account and shares each file publicly.
type GoogleDrive struct {
	http      *resty.Client
	email     string
	key       *rsa.PrivateKey
	folderID  string
	tokenURL  string
	uploadURL string
	apiURL    string
	now       func() time.Time

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewGoogleDrive parses the service account key from cfg.
func NewGoogleDrive(cfg *config.Config) (*GoogleDrive, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.GooglePrivateKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse google private key: %w", err)
	}
	return &GoogleDrive{
		http:      newHTTPClient(),
		email:     cfg.GoogleClientEmail,
		key:       key,
		folderID:  cfg.GoogleDriveFolderID,
		tokenURL:  cfg.GoogleTokenURL,
		uploadURL: strings.TrimRight(cfg.GoogleDriveUploadURL, "/"),
		apiURL:    strings.TrimRight(cfg.GoogleDriveAPIURL, "/"),
		now:       time.Now,
	}, nil
}

func (d *GoogleDrive) Name() string { return string(config.ProviderGoogleDrive) }

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// token returns a cached access token, exchanging a fresh assertion when it
// is missing or about to expire.
func (d *GoogleDrive) token(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if d.accessToken != "" && now.Add(time.Minute).Before(d.expiresAt) {
		return d.accessToken, nil
	}

	claims := jwt.MapClaims{
		"iss":   d.email,
		"scope": driveScope,
		"aud":   d.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(d.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign service account assertion: %w", err)
	}

	resp, err := d.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": jwtBearerGrant,
			"assertion":  assertion,
		}).
		Post(d.tokenURL)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}

	var tok tokenResponse
	if err := json.Unmarshal(resp.Body(), &tok); err != nil {
		return "", fmt.Errorf("invalid token response (status %d): %w", resp.StatusCode(), err)
	}
	if !resp.IsSuccess() || tok.AccessToken == "" {
		return "", fmt.Errorf("token exchange rejected: %s %s", tok.Error, tok.ErrorDescription)
	}

	d.accessToken = tok.AccessToken
	d.expiresAt = now.Add(time.Duration(tok.ExpiresIn) * time.Second)
	return d.accessToken, nil
}

type driveFile struct {
	ID string `json:"id"`
}

type driveErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

func driveError(op string, resp *resty.Response) error {
	var body driveErrorBody
	_ = json.Unmarshal(resp.Body(), &body)

	msg := body.Error.Message
	if msg == "" {
		msg = resp.Status()
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, msg)
	}
	for _, e := range body.Error.Errors {
		switch e.Reason {
		case "storageQuotaExceeded", "rateLimitExceeded", "userRateLimitExceeded":
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, msg)
		}
	}
	return fmt.Errorf("google drive %s failed with status %d: %s", op, resp.StatusCode(), msg)
}

func (d *GoogleDrive) UploadFile(ctx context.Context, localPath, name, mimeType string) (string, error) {
	token, err := d.token(ctx)
	if err != nil {
		return "", err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	var created driveFile
	resp, err := d.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", mimeType).
		SetQueryParam("uploadType", "media").
		SetBody(f).
		SetResult(&created).
		Post(d.uploadURL + "/files")
	if err != nil {
		return "", fmt.Errorf("google drive upload request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return "", driveError("upload", resp)
	}
	if created.ID == "" {
		return "", fmt.Errorf("google drive upload response did not include a file id")
	}

	meta := d.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]string{"name": name})
	if d.folderID != "" {
		meta.SetQueryParam("addParents", d.folderID)
	}
	if resp, err = meta.Patch(d.apiURL + "/files/" + created.ID); err != nil {
		return "", fmt.Errorf("google drive metadata request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return "", driveError("metadata update", resp)
	}

	resp, err = d.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]string{"role": "reader", "type": "anyone"}).
		Post(d.apiURL + "/files/" + created.ID + "/permissions")
	if err != nil {
		return "", fmt.Errorf("google drive permission request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return "", driveError("permission update", resp)
	}

	log.Printf("[GoogleDrive] Uploaded %s as %s", name, created.ID)
	return fmt.Sprintf("https://drive.google.com/uc?id=%s&export=view", created.ID), nil
}
