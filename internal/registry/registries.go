package registry

import (
	"distfs/internal/apierr"
	"distfs/internal/model"
)

// Registries is the coordinator's single owning aggregate: the four
// process-wide structures, passed to request handlers via a context
// parameter rather than held in package-level globals.
type Registries struct {
	Servers *ServerStore
	Files   *FileStore
	Chunks  *ChunkStore
	Tree    *Tree
}

// New returns a fresh, empty set of registries.
func New() *Registries {
	return &Registries{
		Servers: NewServerStore(),
		Files:   NewFileStore(),
		Chunks:  NewChunkStore(),
		Tree:    NewTree(),
	}
}

// MarkChunkCompleted is the one operation that spans two structures. It
// acquires the chunks lock and then the files lock, in that fixed order,
// for the duration of the update — chunks before files, always — so a
// concurrent reader never observes the chunk recorded without the file's
// completion counter reflecting it.
//
// The counter increments once per call, not once per distinct part number:
// a repeated notification for the same chunk id counts again, so
// num_completed can exceed len(chunks) and the file can be marked Completed
// before every part has landed. This is the documented contract (the client
// is trusted to write exactly len(chunks) ids, each completed once), not a
// postcondition this method verifies.
func (r *Registries) MarkChunkCompleted(c model.ChunkRecord) error {
	r.Chunks.mu.Lock()
	defer r.Chunks.mu.Unlock()

	r.Files.mu.Lock()
	defer r.Files.mu.Unlock()

	file, ok := r.Files.m[c.FileID]
	if !ok {
		return apierr.New(apierr.NotFound, "mark_chunk_completed: no file with id %s", c.FileID)
	}

	r.Chunks.m[c.ID] = c
	file.NumCompleted++
	if file.NumCompleted >= len(file.Chunks) {
		file.Status = model.StatusCompleted
	}
	return nil
}
