package chunkserver

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/google/uuid"

	"distfs/internal/coordclient"
	"distfs/internal/coordinator"
	"distfs/internal/model"
	"distfs/internal/registry"
)

func newTestChunkServer(t *testing.T, coordinatorURL string) (*Server, *httptest.Server) {
	t.Helper()
	s, err := New(Config{
		ID:          uuid.New(),
		Address:     "http://unused",
		UploadsDir:  t.TempDir(),
		Coordinator: coordclient.New(coordinatorURL),
	})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Router())
	return s, ts
}

func multipartUploadBody(t *testing.T, chunkID, fileID uuid.UUID, partNum int, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("chunk_id", chunkID.String())
	_ = w.WriteField("file_id", fileID.String())
	_ = w.WriteField("file_part_num", strconv.Itoa(partNum))
	fw, err := w.CreateFormFile("file", "chunk")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func TestUploadThenDownloadRoundTrip(t *testing.T) {
	reg := registry.New()
	coordTS := httptest.NewServer(coordinator.New(reg, nil).Router())
	defer coordTS.Close()

	cs, csTS := newTestChunkServer(t, coordTS.URL)
	defer csTS.Close()

	fileID, chunkID := uuid.New(), uuid.New()
	reg.Files.Put(&model.FileRecord{ID: fileID, Chunks: []uuid.UUID{chunkID}})
	body, contentType := multipartUploadBody(t, chunkID, fileID, 0, []byte("hello chunk"))

	resp, err := http.Post(csTS.URL+"/api/upload", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d, want 200", resp.StatusCode)
	}

	chunkName := model.ChunkName(fileID, chunkID, 0)
	dlResp, err := http.Get(csTS.URL + "/api/download/" + chunkName)
	if err != nil {
		t.Fatal(err)
	}
	defer dlResp.Body.Close()
	got, _ := io.ReadAll(dlResp.Body)
	if string(got) != "hello chunk" {
		t.Fatalf("downloaded %q, want %q", got, "hello chunk")
	}

	_ = cs
}

func TestDownloadMissingChunkIsNotFound(t *testing.T) {
	coordTS := httptest.NewServer(coordinator.New(registry.New(), nil).Router())
	defer coordTS.Close()
	_, csTS := newTestChunkServer(t, coordTS.URL)
	defer csTS.Close()

	resp, err := http.Get(csTS.URL + "/api/download/nope")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestReplicateFetchesFromPeer(t *testing.T) {
	reg := registry.New()
	coordTS := httptest.NewServer(coordinator.New(reg, nil).Router())
	defer coordTS.Close()

	_, peerTS := newTestChunkServer(t, coordTS.URL)
	defer peerTS.Close()
	_, localTS := newTestChunkServer(t, coordTS.URL)
	defer localTS.Close()

	fileID, chunkID := uuid.New(), uuid.New()
	reg.Files.Put(&model.FileRecord{ID: fileID, Chunks: []uuid.UUID{chunkID}})
	body, contentType := multipartUploadBody(t, chunkID, fileID, 2, []byte("replicated bytes"))
	resp, err := http.Post(peerTS.URL+"/api/upload", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	chunkName := model.ChunkName(fileID, chunkID, 2)
	reqBody, _ := json.Marshal(replicateRequest{ChunkName: chunkName, PeerAddress: peerTS.URL})
	repResp, err := http.Post(localTS.URL+"/api/replicate", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		t.Fatal(err)
	}
	defer repResp.Body.Close()
	if repResp.StatusCode != http.StatusOK {
		t.Fatalf("replicate status = %d, want 200", repResp.StatusCode)
	}

	dlResp, err := http.Get(localTS.URL + "/api/download/" + chunkName)
	if err != nil {
		t.Fatal(err)
	}
	defer dlResp.Body.Close()
	got, _ := io.ReadAll(dlResp.Body)
	if string(got) != "replicated bytes" {
		t.Fatalf("replicated chunk content = %q, want %q", got, "replicated bytes")
	}
}
