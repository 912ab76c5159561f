// Package chunkserver implements the stateless chunk-storage node: it
// accepts chunk uploads, serves chunk downloads, replicates chunks on
// demand, and periodically advertises liveness to the coordinator. See
// SPEC_FULL.md §4.2.
package chunkserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"distfs/internal/coordclient"
	"distfs/internal/logging"
	"distfs/internal/model"
)

// Config configures a Server.
type Config struct {
	ID          uuid.UUID
	Address     string // this server's own advertised address, e.g. "http://host:port"
	UploadsDir  string
	Coordinator *coordclient.Client
	Logger      *slog.Logger
}

// Server is the chunk server's HTTP handler plus its background ping job.
type Server struct {
	id          uuid.UUID
	address     string
	storage     *Storage
	coordinator *coordclient.Client
	logger      *slog.Logger

	scheduler gocron.Scheduler
}

// New builds a Server. Callers must call Start to begin the ping job and
// Router to obtain the HTTP handler.
func New(cfg Config) (*Server, error) {
	storage, err := NewStorage(cfg.UploadsDir)
	if err != nil {
		return nil, err
	}
	return &Server{
		id:          cfg.ID,
		address:     cfg.Address,
		storage:     storage,
		coordinator: cfg.Coordinator,
		logger:      logging.Default(cfg.Logger).With("component", "chunkserver", "server_id", cfg.ID),
	}, nil
}

// Router builds the /api route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Get("/download/{chunk_name}", s.handleDownload)
		r.Post("/replicate", s.handleReplicate)
	})

	return r
}

// Start registers and runs the recurring liveness ping job, firing once
// immediately so the server shows up in the live pool without waiting a
// full PingInterval. Stop tears the scheduler down.
func (s *Server) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(model.PingInterval),
		gocron.NewTask(s.ping, ctx),
		gocron.WithName("chunkserver-ping"),
	)
	if err != nil {
		return err
	}
	s.scheduler = sched
	go s.ping(ctx)
	sched.Start()
	return nil
}

// Stop shuts down the ping job's scheduler. Safe to call even if Start was
// never called.
func (s *Server) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

func (s *Server) ping(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, coordclient.ControlPlaneTimeout)
	defer cancel()
	if err := s.coordinator.Ping(pingCtx, s.id, s.address); err != nil {
		s.logger.Warn("ping failed", "error", err)
	}
}
