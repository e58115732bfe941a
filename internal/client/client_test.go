package client

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/issuedesk/backend/config"
	"github.com/pageza/issuedesk/backend/internal/mockdata"
	"github.com/pageza/issuedesk/backend/internal/types"
)

func newTestClient(baseURL string, opts ...Option) *Client {
	cfg := &config.ClientConfig{
		APIBaseURL:    baseURL,
		ContextHost:   "localhost",
		UploadTimeout: 2 * time.Second,
		HealthTimeout: 200 * time.Millisecond,
	}
	opts = append([]Option{WithLogger(log.New(io.Discard, "", 0))}, opts...)
	return New(cfg, mockdata.New(mockdata.WithLatency(0, 0)), opts...)
}

type backend struct {
	healthStatus int
	uploadStatus int
	uploadBody   any
	uploads      atomic.Int32
	lastName     string
	lastType     string
}

func (b *backend) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(b.healthStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK", "timestamp": time.Now(), "provider": "cloudinary", "providerInitialized": true,
		})
	})
	mux.HandleFunc("/upload-media", func(w http.ResponseWriter, r *http.Request) {
		b.uploads.Add(1)
		if _, hdr, err := r.FormFile("file"); err == nil {
			b.lastName = hdr.Filename
			b.lastType = hdr.Header.Get("Content-Type")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(b.uploadStatus)
		json.NewEncoder(w).Encode(b.uploadBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func successBody() types.UploadResponse {
	return types.UploadResponse{
		Success: true, MediaLink: "https://x/y", FileName: "a.png", FileSize: 10, MimeType: "image/png",
	}
}

func TestUploadFileWithFallbackRealUpload(t *testing.T) {
	b := &backend{healthStatus: http.StatusOK, uploadStatus: http.StatusOK, uploadBody: successBody()}
	c := newTestClient(b.server(t).URL)

	mf := c.UploadFileWithFallback(context.Background(), FileFromBytes("a.png", "image/png", make([]byte, 10)))

	assert.Equal(t, "a.png", mf.Name)
	assert.Equal(t, int64(10), mf.Size)
	assert.Equal(t, "image/png", mf.Type)
	assert.Equal(t, "https://x/y", mf.URL)
	assert.Equal(t, int32(1), b.uploads.Load())
	assert.Equal(t, "a.png", b.lastName)
	assert.Equal(t, "image/png", b.lastType)
}

func TestUploadFileWithFallbackUnhealthySkipsUpload(t *testing.T) {
	b := &backend{healthStatus: http.StatusInternalServerError, uploadStatus: http.StatusOK, uploadBody: successBody()}
	c := newTestClient(b.server(t).URL)

	mf := c.UploadFileWithFallback(context.Background(), FileFromBytes("notes.txt", "text/plain", []byte("hello")))

	assert.True(t, mockdata.IsMockURL(mf.URL))
	assert.Equal(t, "notes.txt", mf.Name)
	assert.Equal(t, "text/plain", mf.Type)
	assert.Equal(t, int64(5), mf.Size)
	assert.Zero(t, b.uploads.Load())
}

func TestUploadFileWithFallbackNeverFails(t *testing.T) {
	b := &backend{
		healthStatus: http.StatusOK,
		uploadStatus: http.StatusBadRequest,
		uploadBody:   types.UploadResponse{Error: "File type application/x-msdownload is not allowed"},
	}
	c := newTestClient(b.server(t).URL)

	files := []File{
		FileFromBytes("empty.png", "image/png", nil),
		FileFromBytes("setup.exe", "application/x-msdownload", []byte("MZ")),
		{Name: "vanished.bin", Type: "application/octet-stream"},
	}
	for _, f := range files {
		mf := c.UploadFileWithFallback(context.Background(), f)
		assert.True(t, mockdata.IsMockURL(mf.URL), f.Name)
		assert.Equal(t, f.Name, mf.Name)
		assert.Equal(t, f.Size, mf.Size)
	}
}

func TestUploadFileWithFallbackHostedContextSkipsNetwork(t *testing.T) {
	b := &backend{healthStatus: http.StatusOK, uploadStatus: http.StatusOK, uploadBody: successBody()}
	c := newTestClient(b.server(t).URL, WithContextHost("issues.example.com"))

	assert.False(t, c.Reachable())
	mf := c.UploadFileWithFallback(context.Background(), FileFromBytes("a.png", "image/png", make([]byte, 10)))
	assert.True(t, mockdata.IsMockURL(mf.URL))
	assert.Zero(t, b.uploads.Load())
}

func TestCheckHealthHangingServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)

	start := time.Now()
	assert.False(t, c.CheckHealth(context.Background()))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCheckHealth(t *testing.T) {
	ok := &backend{healthStatus: http.StatusOK}
	assert.True(t, newTestClient(ok.server(t).URL).CheckHealth(context.Background()))

	down := &backend{healthStatus: http.StatusServiceUnavailable}
	assert.False(t, newTestClient(down.server(t).URL).CheckHealth(context.Background()))

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	assert.False(t, newTestClient(url).CheckHealth(context.Background()))
}

func TestUploadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		kind    types.ErrorKind
		message string
	}{
		{"quota", http.StatusTooManyRequests, types.UploadResponse{Error: "Upload quota exceeded"}, types.KindProviderQuotaExceeded, "Upload quota exceeded"},
		{"not configured", http.StatusInternalServerError, types.UploadResponse{Error: "Storage provider not configured"}, types.KindProviderNotConfigured, "Storage provider not configured"},
		{"no file", http.StatusBadRequest, types.UploadResponse{Error: "No file uploaded"}, types.KindNoFileProvided, "No file uploaded"},
		{"too large", http.StatusBadRequest, types.UploadResponse{Error: "File too large"}, types.KindFileTooLarge, "File too large"},
		{"non json", http.StatusBadGateway, "<html>bad gateway</html>", types.KindUnknown, "Upload failed with status 502"},
		{"success without link", http.StatusOK, types.UploadResponse{Success: true}, types.KindUnknown, "Upload failed: invalid response from server"},
		{"success false", http.StatusOK, types.UploadResponse{Success: false, MediaLink: "https://x/y"}, types.KindUnknown, "Upload failed: invalid response from server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &backend{healthStatus: http.StatusOK, uploadStatus: tt.status, uploadBody: tt.body}
			c := newTestClient(b.server(t).URL)

			_, err := c.UploadFile(context.Background(), FileFromBytes("a.png", "image/png", []byte("x")))
			require.Error(t, err)
			assert.Equal(t, tt.kind, types.KindOf(err))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestUploadFileTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).UploadFile(context.Background(), FileFromBytes("a.png", "image/png", []byte("x")))
	assert.True(t, types.IsKind(err, types.KindNetworkUnreachable))
	assert.Equal(t, "Unreachable", types.KindOf(err).Category())

	// The handler never reads the multipart body, so it cannot see the client
	// go away; release it before closing the server.
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	c := newTestClient(slow.URL, WithTimeouts(100*time.Millisecond, 0))
	_, err = c.UploadFile(context.Background(), FileFromBytes("a.png", "image/png", []byte("x")))
	assert.True(t, types.IsKind(err, types.KindTimeout))
}

func TestReachable(t *testing.T) {
	tests := []struct {
		base, host string
		want       bool
	}{
		{"http://localhost:3001", "localhost", true},
		{"http://localhost:3001", "localhost:3000", true},
		{"http://127.0.0.1:3001", "127.0.0.1:3000", true},
		{"http://localhost:3001", "[::1]:3000", true},
		{"http://localhost:3001", "app.localhost:8080", true},
		{"http://localhost:3001", "issues.example.com:443", false},
		{"http://127.0.0.1:3001", "127.0.0.1", true},
		{"http://localhost:3001", "issues.example.com", false},
		{"http://[::1]:3001", "issues.example.com", false},
		{"https://api.example.com", "issues.example.com", true},
		{"https://api.example.com", "localhost", true},
		{"not a url", "localhost", false},
	}
	for _, tt := range tests {
		c := newTestClient(tt.base, WithContextHost(tt.host))
		assert.Equal(t, tt.want, c.Reachable(), "%s from %s", tt.base, tt.host)
	}
}

func TestStatus(t *testing.T) {
	ok := &backend{healthStatus: http.StatusOK}
	st := newTestClient(ok.server(t).URL).Status(context.Background())
	assert.Equal(t, StateActive, st.State)
	assert.Equal(t, "cloudinary", st.Provider)

	down := &backend{healthStatus: http.StatusInternalServerError}
	st = newTestClient(down.server(t).URL).Status(context.Background())
	assert.Equal(t, StateDemo, st.State)
	assert.NotEmpty(t, st.Note)

	st = newTestClient("http://localhost:1", WithContextHost("issues.example.com")).Status(context.Background())
	assert.Equal(t, StateDemo, st.State)
	assert.Contains(t, st.String(), "not reachable")
}

func TestFileFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screenshot.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o600))

	f, err := FileFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "screenshot.png", f.Name)
	assert.Equal(t, "image/png", f.Type)
	assert.Equal(t, int64(9), f.Size)

	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, err = FileFromPath(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
