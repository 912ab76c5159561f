package registry

import (
	"sync"

	"github.com/google/uuid"

	"distfs/internal/apierr"
	"distfs/internal/model"
)

// FileStore holds file records keyed by id.
type FileStore struct {
	mu sync.RWMutex
	m  map[uuid.UUID]*model.FileRecord
}

// NewFileStore returns an empty FileStore.
func NewFileStore() *FileStore {
	return &FileStore{m: make(map[uuid.UUID]*model.FileRecord)}
}

// Put inserts or replaces a file record.
func (s *FileStore) Put(f *model.FileRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[f.ID] = f
}

// Get returns a copy of the file record for id, or NotFound.
func (s *FileStore) Get(id uuid.UUID) (*model.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.m[id]
	if !ok {
		return nil, apierr.New(apierr.NotFound, "no file with id %s", id)
	}
	return f.Clone(), nil
}
