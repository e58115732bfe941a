package types

import "time"

// UploadResponse is the body of POST /upload-media. Failures set only Success
// and Error.
type UploadResponse struct {
	Success   bool   `json:"success"`
	MediaLink string `json:"mediaLink,omitempty"`
	FileName  string `json:"fileName,omitempty"`
	FileSize  int64  `json:"fileSize,omitempty"`
	MimeType  string `json:"mimeType,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status              string    `json:"status"`
	Timestamp           time.Time `json:"timestamp"`
	Provider            string    `json:"provider"`
	ProviderInitialized bool      `json:"providerInitialized"`
}
