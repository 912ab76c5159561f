package registry

import (
	"sync"

	"github.com/google/uuid"

	"distfs/internal/model"
)

// ChunkStore holds chunk records keyed by id. Multiple records may share
// (FileID, PartNum) — each is an independent replica.
type ChunkStore struct {
	mu sync.RWMutex
	m  map[uuid.UUID]model.ChunkRecord
}

// NewChunkStore returns an empty ChunkStore.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{m: make(map[uuid.UUID]model.ChunkRecord)}
}

// Put inserts or overwrites a chunk record. Overwriting by id is a no-op
// for idempotent retries of the same record.
func (s *ChunkStore) Put(c model.ChunkRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[c.ID] = c
}

// ListForFile returns every chunk record (every replica, every part) whose
// FileID matches.
func (s *ChunkStore) ListForFile(fileID uuid.UUID) []model.ChunkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.ChunkRecord
	for _, c := range s.m {
		if c.FileID == fileID {
			out = append(out, c)
		}
	}
	return out
}
