// Package jsonl implements an append-only newline-delimited JSON archive.
package jsonl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/issue-archive/internal/core/domain"
	"github.com/custodia-labs/issue-archive/internal/core/ports/driven"
)

// Ensure Sink implements the interface.
var _ driven.IssueSink = (*Sink)(nil)

// Sink appends one JSON object per issue to a file.
// The file is opened in append mode for every batch; existing content is
// never read or truncated.
type Sink struct {
	mu   sync.Mutex
	path string
}

// NewSink creates a sink writing to path. The file and its parent
// directories are created on first append.
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// Path returns the archive file path.
func (s *Sink) Path() string {
	return s.path
}

// Append encodes the batch and writes it with a single write call.
func (s *Sink) Append(ctx context.Context, issues []domain.Issue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(issues) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i := range issues {
		// Encode terminates each value with a newline.
		if err := enc.Encode(&issues[i]); err != nil {
			return fmt.Errorf("encode issue %d: %w", issues[i].Number, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating archive directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("writing archive: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing archive: %w", err)
	}
	return f.Close()
}
