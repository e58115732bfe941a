package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/issuedesk/backend/config"
	"github.com/pageza/issuedesk/backend/internal/mocks"
	"github.com/pageza/issuedesk/backend/internal/storage"
	"github.com/pageza/issuedesk/backend/internal/types"
)

func fileHeader(t *testing.T, name, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, name))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{UploadDir: filepath.Join(t.TempDir(), "uploads"), MaxUploadSize: 1 << 20}
}

func TestMediaServiceUpload(t *testing.T) {
	provider := new(mocks.MockProvider)
	provider.On("Name").Return("cloudinary")

	var seenPath string
	provider.On("UploadFile", mock.Anything, mock.Anything, "shot.png", "image/png").
		Run(func(args mock.Arguments) {
			seenPath = args.String(1)
			data, err := os.ReadFile(seenPath)
			require.NoError(t, err)
			assert.Equal(t, "png-bytes", string(data))
		}).
		Return("https://res.cloudinary.com/demo/shot.png", nil)

	svc := NewMediaService(provider, testConfig(t))
	resp, err := svc.Upload(context.Background(), fileHeader(t, "shot.png", "image/png", []byte("png-bytes")))
	require.NoError(t, err)

	assert.Equal(t, &types.UploadResponse{
		Success:   true,
		MediaLink: "https://res.cloudinary.com/demo/shot.png",
		FileName:  "shot.png",
		FileSize:  9,
		MimeType:  "image/png",
	}, resp)
	assert.NoFileExists(t, seenPath, "temp file must be removed")
	provider.AssertExpectations(t)
}

func TestMediaServiceValidation(t *testing.T) {
	provider := new(mocks.MockProvider)
	provider.On("Name").Return("s3")
	svc := NewMediaService(provider, testConfig(t))
	ctx := context.Background()

	_, err := svc.Upload(ctx, nil)
	assert.True(t, types.IsKind(err, types.KindNoFileProvided))
	assert.Equal(t, http.StatusBadRequest, types.KindOf(err).HTTPStatus())

	_, err = svc.Upload(ctx, fileHeader(t, "big.png", "image/png", make([]byte, 2<<20)))
	assert.True(t, types.IsKind(err, types.KindFileTooLarge))
	assert.Equal(t, "File too large. Maximum size is 1 MB", err.Error())

	_, err = svc.Upload(ctx, fileHeader(t, "setup.exe", "application/x-msdownload", []byte("MZ")))
	assert.True(t, types.IsKind(err, types.KindInvalidFileType))

	provider.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMediaServiceDetectsTypeFromExtension(t *testing.T) {
	provider := new(mocks.MockProvider)
	provider.On("Name").Return("s3")
	provider.On("UploadFile", mock.Anything, mock.Anything, "report.pdf", "application/pdf").Return("https://x/report.pdf", nil)

	svc := NewMediaService(provider, testConfig(t))
	resp, err := svc.Upload(context.Background(), fileHeader(t, "report.pdf", "application/octet-stream", []byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", resp.MimeType)
}

func TestMediaServiceNoProvider(t *testing.T) {
	svc := NewMediaService(nil, testConfig(t))
	assert.False(t, svc.ProviderInitialized())
	assert.Empty(t, svc.ProviderName())

	_, err := svc.Upload(context.Background(), fileHeader(t, "a.png", "image/png", []byte("x")))
	assert.True(t, types.IsKind(err, types.KindProviderNotConfigured))
	assert.Equal(t, http.StatusInternalServerError, types.KindOf(err).HTTPStatus())
}

func TestMediaServiceProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind types.ErrorKind
	}{
		{"quota sentinel", fmt.Errorf("%w: Rate Limit Exceeded", storage.ErrQuotaExceeded), types.KindProviderQuotaExceeded},
		{"quota text", errors.New("monthly quota reached"), types.KindProviderQuotaExceeded},
		{"deadline", fmt.Errorf("request: %w", context.DeadlineExceeded), types.KindTimeout},
		{"other", errors.New("invalid signature"), types.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := new(mocks.MockProvider)
			provider.On("Name").Return("cloudinary")
			provider.On("UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", tt.err)

			svc := NewMediaService(provider, testConfig(t))
			_, err := svc.Upload(context.Background(), fileHeader(t, "a.png", "image/png", []byte("x")))
			assert.Equal(t, tt.kind, types.KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestAllowedType(t *testing.T) {
	for _, mt := range []string{"image/png", "video/mp4", "audio/mpeg", "application/pdf", "text/plain",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document"} {
		assert.True(t, AllowedType(mt), mt)
	}
	for _, mt := range []string{"application/x-msdownload", "application/zip", "text/html", ""} {
		assert.False(t, AllowedType(mt), mt)
	}
}

func TestJanitorSweep(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "stale.png")
	fresh := filepath.Join(dir, "fresh.png")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	j, err := NewJanitor(dir, time.Hour, "@every 15m")
	require.NoError(t, err)

	removed, err := j.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.DirExists(t, filepath.Join(dir, "subdir"))
}

func TestJanitorMissingDirAndBadSchedule(t *testing.T) {
	j, err := NewJanitor(filepath.Join(t.TempDir(), "missing"), time.Hour, "@hourly")
	require.NoError(t, err)
	removed, err := j.Sweep()
	require.NoError(t, err)
	assert.Zero(t, removed)

	j.Start()
	<-j.Stop().Done()

	_, err = NewJanitor(t.TempDir(), time.Hour, "every so often")
	assert.ErrorContains(t, err, "invalid janitor schedule")
}
