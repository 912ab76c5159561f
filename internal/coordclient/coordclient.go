// Package coordclient is the shared HTTP client for talking to the
// coordinator, used by both the chunk server (pings, completion
// notifications) and the client (placement, namespace, chunk listing).
package coordclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"distfs/internal/model"
)

// ControlPlaneTimeout bounds every coordinator call that doesn't move chunk
// bytes (list/get/ping/create/complete).
const ControlPlaneTimeout = 10 * time.Second

// Client is a thin, reusable wrapper over net/http for the coordinator's
// JSON API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client pointed at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: ControlPlaneTimeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("coordclient: encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("coordclient: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("coordclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		kind := resp.Header.Get("X-Error-Kind")
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("coordclient: %s %s: status %d kind %s: %s", method, path, resp.StatusCode, kind, data)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Ping upserts this server's liveness record.
func (c *Client) Ping(ctx context.Context, id uuid.UUID, address string) error {
	req := struct {
		ID      uuid.UUID `json:"id"`
		Address string    `json:"address"`
	}{id, address}
	return c.do(ctx, http.MethodPost, "/api/ping", req, nil)
}

// MarkChunkCompleted notifies the coordinator that one chunk replica has
// landed.
func (c *Client) MarkChunkCompleted(ctx context.Context, chunk model.ChunkRecord) error {
	return c.do(ctx, http.MethodPost, "/api/chunk/completed", chunk, nil)
}

// ListLiveServers returns the currently live chunk server pool.
func (c *Client) ListLiveServers(ctx context.Context) ([]model.ServerRecord, error) {
	var servers []model.ServerRecord
	if err := c.do(ctx, http.MethodGet, "/api/servers", nil, &servers); err != nil {
		return nil, err
	}
	return servers, nil
}

// GetServer resolves a server id to its record (used to translate
// server_id to address on download).
func (c *Client) GetServer(ctx context.Context, id uuid.UUID) (model.ServerRecord, error) {
	var rec model.ServerRecord
	err := c.do(ctx, http.MethodGet, "/api/servers/"+id.String(), nil, &rec)
	return rec, err
}

// CreateNode is the wire shape for a namespace-creation request.
type CreateNode struct {
	Kind   string      `json:"kind"`
	Name   string      `json:"name"`
	Size   int64       `json:"size,omitempty"`
	Chunks []uuid.UUID `json:"chunks,omitempty"`
}

// CreatePath creates a namespace node under the parent implied by path.
func (c *Client) CreatePath(ctx context.Context, path string, req CreateNode) (*model.Node, error) {
	var node model.Node
	q := url.Values{"path": {path}}
	if err := c.do(ctx, http.MethodPost, "/api/files/upload?"+q.Encode(), req, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// ResolvePath fetches the subtree rooted at path ("" for the namespace
// root).
func (c *Client) ResolvePath(ctx context.Context, path string) (*model.Node, error) {
	var node model.Node
	q := url.Values{"path": {path}}
	if err := c.do(ctx, http.MethodGet, "/api/files?"+q.Encode(), nil, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// ListChunksForFile returns every replica record for fileID.
func (c *Client) ListChunksForFile(ctx context.Context, fileID uuid.UUID) ([]model.ChunkRecord, error) {
	var chunks []model.ChunkRecord
	if err := c.do(ctx, http.MethodGet, "/api/chunks/file/"+fileID.String(), nil, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}
