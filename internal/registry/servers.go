// Package registry holds the coordinator's four process-wide structures —
// server, file, and chunk registries, plus the namespace tree — each
// guarded by its own sync.RWMutex per the single-structure-per-lock
// discipline. These are concrete types with no interface in front of them:
// handlers hold them directly, and Registries.MarkChunkCompleted reaches
// into the chunk and file stores' internal locks and maps.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"distfs/internal/apierr"
	"distfs/internal/model"
)

// ServerStore tracks chunk servers and their liveness.
type ServerStore struct {
	mu sync.RWMutex
	m  map[uuid.UUID]model.ServerRecord
}

// NewServerStore returns an empty ServerStore.
func NewServerStore() *ServerStore {
	return &ServerStore{m: make(map[uuid.UUID]model.ServerRecord)}
}

// Ping upserts a server's record keyed by id: the address is recorded on
// first sight, and latest_ping is advanced to now on every call. Returns
// the stored record after the update.
func (s *ServerStore) Ping(id uuid.UUID, address string, now time.Time) model.ServerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.m[id]
	if !ok {
		rec = model.ServerRecord{ID: id, Address: address}
	}
	rec.LatestPing = now
	s.m[id] = rec
	return rec
}

// Get returns the server record for id, or NotFound.
func (s *ServerStore) Get(id uuid.UUID) (model.ServerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.m[id]
	if !ok {
		return model.ServerRecord{}, apierr.New(apierr.NotFound, "no server with id %s", id)
	}
	return rec, nil
}

// ListLive returns every server whose latest ping is within the liveness
// window of now.
func (s *ServerStore) ListLive(now time.Time) []model.ServerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	live := make([]model.ServerRecord, 0, len(s.m))
	for _, rec := range s.m {
		if rec.Live(now) {
			live = append(live, rec)
		}
	}
	return live
}
