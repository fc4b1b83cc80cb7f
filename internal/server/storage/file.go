package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/isaiahsam/STDISCM-P3/internal/message"
)

// FileStore writes payloads under a single directory, one file per message,
// named by the message's storage key.
type FileStore struct {
	dir string
}

// NewFileStore ensures dir exists and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o770); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return &FileStore{dir: abs}, nil
}

// Dir returns the absolute storage directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes the payload via a temp file and rename, so a crash or
// cancellation mid-write never leaves a torn file under the final name.
func (s *FileStore) Save(ctx context.Context, m *message.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	final := filepath.Join(s.dir, m.StorageKey())

	tmp, err := os.CreateTemp(s.dir, ".ingest-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(m.Payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write payload: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("sync payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename into place: %w", err)
	}

	return final, nil
}
