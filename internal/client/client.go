// Package client implements the command-line client: it splits files into
// chunks and uploads them to the live chunk-server pool, and reconstructs
// files on download by consulting the coordinator for placement. See
// SPEC_FULL.md §4.3.
package client

import (
	"log/slog"
	"net/http"
	"time"

	"distfs/internal/coordclient"
	"distfs/internal/logging"
)

// DataPlaneTimeout bounds every chunk upload/download call, per spec.md §5
// (control-plane calls use coordclient.ControlPlaneTimeout instead).
const DataPlaneTimeout = 60 * time.Second

// Client drives the upload and download pipelines against one coordinator.
type Client struct {
	coord  *coordclient.Client
	http   *http.Client
	logger *slog.Logger
}

// New creates a Client pointed at the coordinator reachable at
// coordinatorURL.
func New(coordinatorURL string, logger *slog.Logger) *Client {
	return &Client{
		coord:  coordclient.New(coordinatorURL),
		http:   &http.Client{Timeout: DataPlaneTimeout},
		logger: logging.Default(logger).With("component", "client"),
	}
}
