// Package download abstracts "deliver a binary payload to the user" so
// report exports stay independent of the surface they run on: a browser
// gets a streamed attachment, a headless run gets a file on disk.
package download

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Sink receives a named binary payload.
type Sink interface {
	Deliver(name, contentType string, r io.Reader) error
}

// HTTPSink streams the payload as a browser download on a single
// response. It is single-use: one sink per request.
type HTTPSink struct {
	w http.ResponseWriter
}

func NewHTTPSink(w http.ResponseWriter) *HTTPSink {
	return &HTTPSink{w: w}
}

func (s *HTTPSink) Deliver(name, contentType string, r io.Reader) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	s.w.Header().Set("Content-Type", contentType)
	s.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := io.Copy(s.w, r); err != nil {
		return fmt.Errorf("stream download: %w", err)
	}
	return nil
}

// FileSink writes payloads into a directory, creating it on first use.
type FileSink struct {
	Dir string
}

func (s *FileSink) Deliver(name, _ string, r io.Reader) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
