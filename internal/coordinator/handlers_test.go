package coordinator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"distfs/internal/model"
	"distfs/internal/registry"
)

func newTestServer() (*Server, *httptest.Server) {
	s := New(registry.New(), nil)
	ts := httptest.NewServer(s.Router())
	return s, ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// Scenario 1: no active servers.
func TestNoActiveServers(t *testing.T) {
	_, ts := newTestServer()
	defer ts.Close()

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/servers", nil)
	defer resp.Body.Close()

	var servers []model.ServerRecord
	if err := json.NewDecoder(resp.Body).Decode(&servers); err != nil {
		t.Fatal(err)
	}
	if len(servers) != 0 {
		t.Fatalf("got %d servers, want 0", len(servers))
	}
}

// Scenario 2: stale server filtered.
func TestStaleServerFiltered(t *testing.T) {
	s, ts := newTestServer()
	defer ts.Close()

	now := time.Now()
	stale := uuid.New()
	fresh := uuid.New()
	s.reg.Servers.Ping(stale, "http://stale", now.Add(-10*time.Second))
	s.reg.Servers.Ping(fresh, "http://fresh", now)
	s.now = func() time.Time { return now }

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/servers", nil)
	defer resp.Body.Close()

	var servers []model.ServerRecord
	json.NewDecoder(resp.Body).Decode(&servers)
	if len(servers) != 1 || servers[0].ID != fresh {
		t.Fatalf("expected only the fresh server, got %+v", servers)
	}
}

// Scenario 3: unknown server lookup.
func TestUnknownServerLookup(t *testing.T) {
	_, ts := newTestServer()
	defer ts.Close()

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/servers/"+uuid.New().String(), nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if resp.Header.Get("X-Error-Kind") != "NotFound" {
		t.Fatalf("X-Error-Kind = %q, want NotFound", resp.Header.Get("X-Error-Kind"))
	}
}

// Scenario 4: ping upsert.
func TestPingUpsert(t *testing.T) {
	s, ts := newTestServer()
	defer ts.Close()

	id := uuid.New()
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/ping", pingRequest{ID: id, Address: "http://a"})
	resp.Body.Close()

	resp2 := doJSON(t, http.MethodPost, ts.URL+"/api/ping", pingRequest{ID: id, Address: "http://a"})
	resp2.Body.Close()

	live := s.reg.Servers.ListLive(time.Now())
	if len(live) != 1 {
		t.Fatalf("live servers after two pings for one id = %d, want 1", len(live))
	}
	if _, err := s.reg.Servers.Get(id); err != nil {
		t.Fatalf("server should be registered after ping: %v", err)
	}
}

// Scenario 5: create-and-complete.
func TestCreateAndComplete(t *testing.T) {
	s, ts := newTestServer()
	defer ts.Close()

	chunkIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	req := createNodeRequest{Kind: "file", Name: "video.mp4", Size: 3 * model.ChunkSize, Chunks: chunkIDs}
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/files/upload?path=video.mp4", req)
	var node model.Node
	json.NewDecoder(resp.Body).Decode(&node)
	resp.Body.Close()

	if node.File == nil {
		t.Fatal("expected a file node in the response")
	}
	fileID := node.File.ID

	for i, chunkID := range chunkIDs {
		chunk := model.ChunkRecord{ID: chunkID, FileID: fileID, PartNum: i, ServerID: uuid.New()}
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/chunk/completed", chunk)
		resp.Body.Close()

		f, err := s.reg.Files.Get(fileID)
		if err != nil {
			t.Fatal(err)
		}
		wantCompleted := i == len(chunkIDs)-1
		if (f.Status == model.StatusCompleted) != wantCompleted {
			t.Fatalf("after %d/%d chunks, status = %v", i+1, len(chunkIDs), f.Status)
		}
	}
}

func TestCreatePathMissingPath(t *testing.T) {
	_, ts := newTestServer()
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/files/upload", createNodeRequest{Kind: "file", Name: "x"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing path", resp.StatusCode)
	}
}

func TestResolvePathRoot(t *testing.T) {
	_, ts := newTestServer()
	defer ts.Close()

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/files", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestListChunksForFile(t *testing.T) {
	s, ts := newTestServer()
	defer ts.Close()

	fileID := uuid.New()
	for i := 0; i < 2; i++ {
		s.reg.Chunks.Put(model.ChunkRecord{ID: uuid.New(), FileID: fileID, PartNum: i, ServerID: uuid.New()})
	}

	resp := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/chunks/file/%s", ts.URL, fileID), nil)
	defer resp.Body.Close()

	var chunks []model.ChunkRecord
	json.NewDecoder(resp.Body).Decode(&chunks)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
}
