// Package model defines the data types shared by the coordinator, chunk
// server, and client: file and chunk records, chunk server records, and the
// constants that govern chunking and liveness.
package model

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// ChunkSize is the fixed byte size a client splits a file into. Uniform
	// process-wide; not configurable per file.
	ChunkSize = 64 << 20 // 64 MiB

	// PingInterval is how often a chunk server POSTs its liveness to the
	// coordinator.
	PingInterval = 5 * time.Second

	// LivenessWindow is the freshness threshold for a server's latest ping.
	// A server is live iff now - latest_ping <= LivenessWindow.
	LivenessWindow = 6 * time.Second
)

// NumChunks returns the number of chunks a file of the given size splits
// into: ceil(size / ChunkSize), or 1 for an empty file.
func NumChunks(size int64) int {
	if size == 0 {
		return 1
	}
	return int((size + ChunkSize - 1) / ChunkSize)
}

// FileStatus is the lifecycle state of a FileRecord.
type FileStatus int

const (
	StatusStarted FileStatus = iota
	StatusCompleted
	StatusFailed
)

func (s FileStatus) String() string {
	switch s {
	case StatusStarted:
		return "Started"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

func (s FileStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *FileStatus) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"Started"`:
		*s = StatusStarted
	case `"Completed"`:
		*s = StatusCompleted
	case `"Failed"`:
		*s = StatusFailed
	default:
		return fmt.Errorf("model: unknown file status %s", data)
	}
	return nil
}

// FileRecord is the coordinator's metadata for one uploaded file.
type FileRecord struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Size         int64       `json:"size"`
	Chunks       []uuid.UUID `json:"chunks"`
	NumCompleted int         `json:"num_completed"`
	Status       FileStatus  `json:"status"`
}

// Clone returns a deep copy safe to hand to a caller outside the registry's
// lock.
func (f *FileRecord) Clone() *FileRecord {
	if f == nil {
		return nil
	}
	cp := *f
	cp.Chunks = append([]uuid.UUID(nil), f.Chunks...)
	return &cp
}

// ChunkRecord is one replica of one part of a file, stored on one chunk
// server. Multiple records may share (FileID, PartNum) with different
// ServerID.
type ChunkRecord struct {
	ID       uuid.UUID `json:"id"`
	FileID   uuid.UUID `json:"file_id"`
	ServerID uuid.UUID `json:"server_id"`
	PartNum  int       `json:"part_num"`
}

// ChunkName is the durable filename a chunk server stores this replica
// under: hex(file_id) + "_" + hex(chunk_id) + "_" + part_num.
func ChunkName(fileID, chunkID uuid.UUID, partNum int) string {
	return fmt.Sprintf("%s_%s_%d", hexUUID(fileID), hexUUID(chunkID), partNum)
}

func hexUUID(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}

// ParseChunkName recovers the (file_id, chunk_id, part_num) triple encoded
// in a chunk name by ChunkName. Used by replication, which only has the
// name to go on.
func ParseChunkName(name string) (fileID, chunkID uuid.UUID, partNum int, err error) {
	parts := strings.Split(name, "_")
	if len(parts) != 3 {
		return uuid.UUID{}, uuid.UUID{}, 0, fmt.Errorf("model: malformed chunk name %q", name)
	}
	fileHex, chunkHex := parts[0], parts[1]
	part, err := strconv.Atoi(parts[2])
	if err != nil {
		return uuid.UUID{}, uuid.UUID{}, 0, fmt.Errorf("model: malformed chunk name %q: bad part number", name)
	}
	fileBytes, err := hex.DecodeString(fileHex)
	if err != nil || len(fileBytes) != 16 {
		return uuid.UUID{}, uuid.UUID{}, 0, fmt.Errorf("model: malformed chunk name %q: bad file id", name)
	}
	chunkBytes, err := hex.DecodeString(chunkHex)
	if err != nil || len(chunkBytes) != 16 {
		return uuid.UUID{}, uuid.UUID{}, 0, fmt.Errorf("model: malformed chunk name %q: bad chunk id", name)
	}
	fileID, err = uuid.FromBytes(fileBytes)
	if err != nil {
		return uuid.UUID{}, uuid.UUID{}, 0, err
	}
	chunkID, err = uuid.FromBytes(chunkBytes)
	if err != nil {
		return uuid.UUID{}, uuid.UUID{}, 0, err
	}
	return fileID, chunkID, part, nil
}

// ServerRecord describes one chunk server known to the coordinator.
type ServerRecord struct {
	ID         uuid.UUID `json:"id"`
	Address    string    `json:"address"`
	LatestPing time.Time `json:"latest_ping"`
}

// Live reports whether the server's latest ping is within LivenessWindow of
// now. Boundary-inclusive: an entry exactly at the window is still live.
func (s ServerRecord) Live(now time.Time) bool {
	return now.Sub(s.LatestPing) <= LivenessWindow
}
