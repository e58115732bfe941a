package client

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/pageza/issuedesk/backend/internal/mockdata"
)

// File is a local file about to be uploaded.
type File struct {
	Name string
	Type string
	Size int64
	// Open returns a fresh reader over the contents.
	Open func() (io.ReadCloser, error)
}

// FileFromPath describes the file at path, guessing its MIME type from the extension.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{
		Name: filepath.Base(path),
		Type: mimeTypeFor(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// FileFromBytes wraps in-memory contents.
func FileFromBytes(name, mimeType string, data []byte) File {
	return File{
		Name: name,
		Type: mimeType,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

func mimeTypeFor(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
		return t
	}
	return "application/octet-stream"
}

func (f File) info() mockdata.FileInfo {
	return mockdata.FileInfo{Name: f.Name, Type: f.Type, Size: f.Size}
}
