package chunkserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"distfs/internal/coordclient"
	"distfs/internal/model"
)

const maxUploadMemory = 32 << 20 // buffer this much of the multipart form in memory before spilling to temp files

func writeError(w http.ResponseWriter, status int, kind ErrorKind, err error) {
	w.Header().Set("X-Error-Kind", string(kind))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Kind    ErrorKind `json:"kind"`
		Message string    `json:"message"`
	}{kind, err.Error()})
}

// writeFileIOError reports a storage-layer failure, tagging it with the
// action that failed (Open|Read|Write|Create) per the FileIO{action} kind.
func writeFileIOError(w http.ResponseWriter, status int, action string, err error) {
	writeError(w, status, KindFileIO, fileIOError(action, err))
}

// handleUpload implements POST /api/upload: a multipart payload with
// fields chunk_id, file_id, file_part_num, and the raw bytes under file.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, KindParseJSON, err)
		return
	}

	chunkID, err := uuid.Parse(r.FormValue("chunk_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, KindMissingParam, err)
		return
	}
	fileID, err := uuid.Parse(r.FormValue("file_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, KindMissingParam, err)
		return
	}
	partNum, err := strconv.Atoi(r.FormValue("file_part_num"))
	if err != nil {
		writeError(w, http.StatusBadRequest, KindMissingParam, err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, KindMissingParam, err)
		return
	}
	defer file.Close()

	chunkName := model.ChunkName(fileID, chunkID, partNum)
	if err := s.storage.Write(chunkName, file); err != nil {
		writeFileIOError(w, http.StatusInternalServerError, "Write", err)
		return
	}

	chunk := model.ChunkRecord{ID: chunkID, FileID: fileID, PartNum: partNum, ServerID: s.id}
	ctx, cancel := context.WithTimeout(r.Context(), coordclient.ControlPlaneTimeout)
	defer cancel()
	if err := s.coordinator.MarkChunkCompleted(ctx, chunk); err != nil {
		// The chunk is durably stored; a failed notification orphans it
		// from the coordinator's bookkeeping rather than losing data.
		s.logger.Warn("mark_chunk_completed failed, chunk orphaned", "chunk_name", chunkName, "error", err)
		writeError(w, http.StatusBadGateway, KindFailedRequest, err)
		return
	}

	s.logger.Info("upload", "chunk_name", chunkName)
	w.WriteHeader(http.StatusOK)
}

// handleDownload implements GET /api/download/{chunk_name}.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	chunkName := chi.URLParam(r, "chunk_name")
	f, err := s.storage.Open(chunkName)
	if err != nil {
		writeError(w, http.StatusNotFound, KindNotFound, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, f); err != nil {
		s.logger.Warn("download stream interrupted", "chunk_name", chunkName, "error", err)
	}
}

type replicateRequest struct {
	ChunkName   string `json:"chunk_name"`
	PeerAddress string `json:"peer_address"`
}

// handleReplicate implements POST /api/replicate: fetch a chunk from a
// peer, store it locally, and notify the coordinator. Used by out-of-band
// replication tooling, not by the client during normal upload.
func (s *Server) handleReplicate(w http.ResponseWriter, r *http.Request) {
	var req replicateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, KindParseJSON, err)
		return
	}

	fileID, chunkID, partNum, err := model.ParseChunkName(req.ChunkName)
	if err != nil {
		writeError(w, http.StatusBadRequest, KindMissingParam, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), coordclient.ControlPlaneTimeout)
	defer cancel()
	peerReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.PeerAddress+"/api/download/"+req.ChunkName, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, KindFailedRequest, err)
		return
	}
	resp, err := http.DefaultClient.Do(peerReq)
	if err != nil {
		writeError(w, http.StatusBadGateway, KindFailedRequest, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		writeError(w, http.StatusBadGateway, KindNotFound, fmt.Errorf("peer responded with status %d", resp.StatusCode))
		return
	}

	if err := s.storage.Write(req.ChunkName, resp.Body); err != nil {
		writeFileIOError(w, http.StatusInternalServerError, "Write", err)
		return
	}

	chunk := model.ChunkRecord{ID: chunkID, FileID: fileID, PartNum: partNum, ServerID: s.id}
	if err := s.coordinator.MarkChunkCompleted(ctx, chunk); err != nil {
		s.logger.Warn("mark_chunk_completed failed after replicate", "chunk_name", req.ChunkName, "error", err)
		writeError(w, http.StatusBadGateway, KindFailedRequest, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
