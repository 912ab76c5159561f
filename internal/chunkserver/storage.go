package chunkserver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Storage persists chunk bytes to a single flat directory, keyed by chunk
// name. Writes are atomic: bytes land in a temp file first, then are
// renamed into place, so a concurrent reader never observes a partial
// write.
type Storage struct {
	dir string
}

// NewStorage creates a Storage rooted at dir, creating it if necessary.
func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("chunkserver: create uploads dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Write stores src under chunkName, overwriting any existing bytes. The
// rename is the commit point: a repeat upload of the same chunk name
// either lands fully or leaves the prior version intact.
func (s *Storage) Write(chunkName string, src io.Reader) error {
	tmp, err := os.CreateTemp(s.dir, chunkName+".tmp-*")
	if err != nil {
		return fmt.Errorf("chunkserver: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chunkserver: write %s: %w", chunkName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chunkserver: close %s: %w", chunkName, err)
	}
	if err := os.Rename(tmpPath, s.path(chunkName)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chunkserver: commit %s: %w", chunkName, err)
	}
	return nil
}

// Open returns a reader over the stored bytes for chunkName. The caller
// must close it. Returns os.ErrNotExist (wrapped) if absent.
func (s *Storage) Open(chunkName string) (*os.File, error) {
	f, err := os.Open(s.path(chunkName))
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Storage) path(chunkName string) string {
	return filepath.Join(s.dir, chunkName)
}
