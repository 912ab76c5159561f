package coordinator

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"distfs/internal/apierr"
	"distfs/internal/model"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// handleListServers implements GET /api/servers (list_live_servers).
func (s *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	live := s.reg.Servers.ListLive(s.now())
	if live == nil {
		live = []model.ServerRecord{}
	}
	writeJSON(w, live)
}

// handleGetServer implements GET /api/servers/{id} (get_server).
func (s *Server) handleGetServer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, apierr.New(apierr.NotFound, "invalid server id: %v", err))
		return
	}
	rec, err := s.reg.Servers.Get(id)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, rec)
}

type pingRequest struct {
	ID      uuid.UUID `json:"id"`
	Address string    `json:"address"`
}

// handlePing implements POST /api/ping (ping).
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	var req pingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, apierr.New(apierr.MissingParam, "invalid ping body: %v", err))
		return
	}
	rec := s.reg.Servers.Ping(req.ID, req.Address, s.now())
	s.logger.Info("ping", "server_id", rec.ID, "address", rec.Address)
	writeJSON(w, rec)
}

// createNodeRequest is the wire shape clients POST to create a namespace
// node. Directories carry only Kind+Name; files additionally carry Size and
// the chunk ids the client has already committed to.
type createNodeRequest struct {
	Kind   string      `json:"kind"`
	Name   string      `json:"name"`
	Size   int64       `json:"size,omitempty"`
	Chunks []uuid.UUID `json:"chunks,omitempty"`
}

// handleCreatePath implements POST /api/files/upload?path=P (create_path).
func (s *Server) handleCreatePath(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		apierr.Write(w, apierr.New(apierr.MissingParam, "missing required query parameter: path"))
		return
	}

	var req createNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, apierr.New(apierr.MissingParam, "invalid node body: %v", err))
		return
	}

	parentPath, _ := model.SplitParent(path)

	var node *model.Node
	if req.Kind == "directory" {
		node = model.NewDirNode(req.Name)
	} else {
		file := &model.FileRecord{
			ID:     uuid.Must(uuid.NewV7()),
			Name:   req.Name,
			Size:   req.Size,
			Chunks: req.Chunks,
			Status: model.StatusStarted,
		}
		node = model.NewFileNode(file)
		s.reg.Files.Put(file)
	}

	if err := s.reg.Tree.Insert(parentPath, node); err != nil {
		apierr.Write(w, err)
		return
	}

	s.logger.Info("create_path", "path", path, "kind", req.Kind)
	// node.File, when present, is the same pointer stored in s.reg.Files and
	// mutated in place by mark_chunk_completed — clone before encoding so a
	// concurrent completion update can't race the response write.
	writeJSON(w, node.Clone())
}

// handleResolvePath implements GET /api/files?path=P (resolve_path).
func (s *Server) handleResolvePath(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	node, err := s.reg.Tree.Resolve(path)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, node)
}

// handleChunkCompleted implements POST /api/chunk/completed
// (mark_chunk_completed).
func (s *Server) handleChunkCompleted(w http.ResponseWriter, r *http.Request) {
	var chunk model.ChunkRecord
	if err := json.NewDecoder(r.Body).Decode(&chunk); err != nil {
		apierr.Write(w, apierr.New(apierr.MissingParam, "invalid chunk body: %v", err))
		return
	}
	if err := s.reg.MarkChunkCompleted(chunk); err != nil {
		apierr.Write(w, err)
		return
	}
	s.logger.Info("chunk_completed", "file_id", chunk.FileID, "chunk_id", chunk.ID, "part_num", chunk.PartNum)
	w.WriteHeader(http.StatusOK)
}

// handleListChunks implements GET /api/chunks/file/{file_id}
// (list_chunks_for_file).
func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	fileID, err := uuid.Parse(chi.URLParam(r, "file_id"))
	if err != nil {
		apierr.Write(w, apierr.New(apierr.NotFound, "invalid file id: %v", err))
		return
	}
	chunks := s.reg.Chunks.ListForFile(fileID)
	if chunks == nil {
		chunks = []model.ChunkRecord{}
	}
	writeJSON(w, chunks)
}
