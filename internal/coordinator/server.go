// Package coordinator implements the metadata coordinator's HTTP surface:
// the server registry, file registry, chunk registry, and namespace tree
// operations described in SPEC_FULL.md §4.1, mounted under /api.
package coordinator

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"distfs/internal/logging"
	"distfs/internal/registry"
)

// Server is the coordinator's HTTP handler, holding the single owning
// aggregate of namespace + server/file/chunk registries.
type Server struct {
	reg    *registry.Registries
	logger *slog.Logger
	now    func() time.Time
}

// New creates a coordinator Server backed by reg. If reg is nil, an empty
// in-memory Registries is created.
func New(reg *registry.Registries, logger *slog.Logger) *Server {
	if reg == nil {
		reg = registry.New()
	}
	return &Server{
		reg:    reg,
		logger: logging.Default(logger).With("component", "coordinator"),
		now:    time.Now,
	}
}

// Router builds the /api route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/servers", s.handleListServers)
		r.Get("/servers/{id}", s.handleGetServer)
		r.Post("/ping", s.handlePing)
		r.Post("/files/upload", s.handleCreatePath)
		r.Get("/files", s.handleResolvePath)
		r.Post("/chunk/completed", s.handleChunkCompleted)
		r.Get("/chunks/file/{file_id}", s.handleListChunks)
	})

	return r
}
