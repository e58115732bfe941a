package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/issuedesk/backend/internal/mockdata"
	"github.com/pageza/issuedesk/backend/internal/types"
)

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(types.HealthResponse{Status: "OK", Timestamp: time.Now(), Provider: "s3", ProviderInitialized: true})
	})
	mux.HandleFunc("POST /upload-media", func(w http.ResponseWriter, r *http.Request) {
		_, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(types.UploadResponse{
			Success: true, MediaLink: "https://cdn.example.com/" + hdr.Filename, FileName: hdr.Filename, FileSize: hdr.Size, MimeType: "text/plain",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupEnv(t *testing.T, apiURL string) {
	t.Helper()
	t.Setenv("ISSUEDESK_DATA_DIR", t.TempDir())
	t.Setenv("ISSUEDESK_STORE", "file")
	t.Setenv("ISSUEDESK_API_URL", apiURL)
	t.Setenv("ISSUEDESK_CONTEXT_HOST", "localhost")
	t.Setenv("ISSUEDESK_USER", "Dana")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

// firstID returns the short id printed at the start of the first list row.
func firstID(t *testing.T, listing string) string {
	t.Helper()
	fields := strings.Fields(strings.SplitN(listing, "\n", 2)[0])
	require.NotEmpty(t, fields)
	return fields[0]
}

func TestUsage(t *testing.T) {
	out, err := runCLI(t)
	require.NoError(t, err)
	assert.Contains(t, out, "usage: issuedesk")
	for name := range commands {
		assert.Contains(t, out, name)
	}

	_, err = runCLI(t, "frobnicate")
	assert.ErrorContains(t, err, "unknown command")
}

func TestListSeedsOnFirstRun(t *testing.T) {
	setupEnv(t, fakeBackend(t).URL)

	out, err := runCLI(t, "list")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), mockdata.SeedCount)

	again, err := runCLI(t, "list")
	require.NoError(t, err)
	assert.Equal(t, out, again)

	_, err = runCLI(t, "list", "--status", "archived")
	assert.ErrorContains(t, err, "unknown status")
}

func TestSubmitShowAndStatus(t *testing.T) {
	setupEnv(t, fakeBackend(t).URL)

	out, err := runCLI(t, "submit", "--title", "Checkout button missing", "--category", "technical",
		"--priority", "urgent", "--system", "web", "--browser", "Firefox", "--tags", "checkout, ui")
	require.NoError(t, err)
	assert.Contains(t, out, "Submitted")

	list, err := runCLI(t, "list", "--search", "checkout")
	require.NoError(t, err)
	assert.Contains(t, list, "Checkout button missing")
	id := firstID(t, list)

	show, err := runCLI(t, "show", id)
	require.NoError(t, err)
	assert.Contains(t, show, "Checkout button missing")
	assert.Contains(t, show, "Firefox")
	assert.Contains(t, show, "checkout, ui")

	out, err = runCLI(t, "status", id, "resolved")
	require.NoError(t, err)
	assert.Contains(t, out, "Status changed from open to resolved by Dana")

	_, err = runCLI(t, "status", id, "archived")
	assert.ErrorContains(t, err, "invalid status")

	_, err = runCLI(t, "submit", "--category", "technical")
	assert.ErrorContains(t, err, "title is required")

	_, err = runCLI(t, "show", "does-not-exist")
	assert.ErrorContains(t, err, "issue not found")
}

func TestAttach(t *testing.T) {
	srv := fakeBackend(t)
	setupEnv(t, srv.URL)

	list, err := runCLI(t, "list")
	require.NoError(t, err)
	id := firstID(t, list)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	out, err := runCLI(t, "attach", "--strict", id, path)
	require.NoError(t, err)
	assert.Contains(t, out, "https://cdn.example.com/notes.txt")

	show, err := runCLI(t, "show", id)
	require.NoError(t, err)
	assert.Contains(t, show, "notes.txt")

	// With the backend gone the strict path fails and the default path simulates.
	srv.Close()
	_, err = runCLI(t, "attach", "--strict", id, path)
	assert.ErrorContains(t, err, "upload failed")

	out, err = runCLI(t, "attach", id, path)
	require.NoError(t, err)
	assert.Contains(t, out, "simulated upload")
}

func TestHealth(t *testing.T) {
	setupEnv(t, fakeBackend(t).URL)
	out, err := runCLI(t, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "active (s3)")
	assert.Contains(t, out, "initialized: true")

	setupEnv(t, "http://localhost:1")
	t.Setenv("ISSUEDESK_CONTEXT_HOST", "issues.example.com")
	out, err = runCLI(t, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "demo mode")
}

func TestStats(t *testing.T) {
	setupEnv(t, fakeBackend(t).URL)
	out, err := runCLI(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "15 issues")
}
