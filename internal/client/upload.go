package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"distfs/internal/coordclient"
	"distfs/internal/model"
)

// Upload uploads localPath (a file or a directory tree) under remoteParent
// in the coordinator's namespace, per the pipeline in SPEC_FULL.md §4.3.
func (c *Client) Upload(ctx context.Context, localPath, remoteParent string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Error{Kind: KindFileNotExist, Path: localPath}
		}
		return &Error{Kind: KindReadMetadata, Err: err}
	}
	return c.uploadEntry(ctx, localPath, remoteParent, filepath.Base(localPath), info)
}

func (c *Client) uploadEntry(ctx context.Context, localPath, remoteParent, name string, info os.FileInfo) error {
	remotePath := joinRemote(remoteParent, name)

	if info.IsDir() {
		if _, err := c.coord.CreatePath(ctx, remotePath, coordclient.CreateNode{Kind: "directory", Name: name}); err != nil {
			return fmt.Errorf("create_path %s: %w", remotePath, err)
		}
		entries, err := os.ReadDir(localPath)
		if err != nil {
			return &Error{Kind: KindReadMetadata, Path: localPath, Err: err}
		}
		for _, entry := range entries {
			childInfo, err := entry.Info()
			if err != nil {
				return &Error{Kind: KindReadMetadata, Path: filepath.Join(localPath, entry.Name()), Err: err}
			}
			if err := c.uploadEntry(ctx, filepath.Join(localPath, entry.Name()), remotePath, entry.Name(), childInfo); err != nil {
				return err
			}
		}
		return nil
	}

	return c.uploadFile(ctx, localPath, remoteParent, name, info.Size())
}

func (c *Client) uploadFile(ctx context.Context, localPath, remoteParent, name string, size int64) error {
	f, err := os.Open(localPath)
	if err != nil {
		return &Error{Kind: KindFileIO, Path: localPath, Err: err}
	}
	defer f.Close()

	numChunks := model.NumChunks(size)
	chunkIDs := make([]uuid.UUID, numChunks)
	chunkData := make([][]byte, numChunks)
	for i := 0; i < numChunks; i++ {
		buf := make([]byte, model.ChunkSize)
		n, err := io.ReadFull(f, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return &Error{Kind: KindFileIO, Path: localPath, Err: err}
		}
		chunkIDs[i] = uuid.Must(uuid.NewV7())
		chunkData[i] = buf[:n]
	}

	remotePath := joinRemote(remoteParent, name)
	node, err := c.coord.CreatePath(ctx, remotePath, coordclient.CreateNode{
		Kind: "file", Name: name, Size: size, Chunks: chunkIDs,
	})
	if err != nil {
		return fmt.Errorf("create_path %s: %w", remotePath, err)
	}
	if node.File == nil {
		return fmt.Errorf("create_path %s: coordinator returned no file record", remotePath)
	}
	fileID := node.File.ID

	servers, err := c.coord.ListLiveServers(ctx)
	if err != nil {
		return fmt.Errorf("list_live_servers: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < numChunks; i++ {
		i := i
		g.Go(func() error {
			return c.uploadChunk(gctx, servers, fileID, chunkIDs[i], i, chunkData[i])
		})
	}
	if err := g.Wait(); err != nil {
		return &Error{Kind: KindUploadChunks, Path: remotePath, Err: err}
	}
	return nil
}

// uploadChunk attempts every server in a fresh per-chunk shuffled order,
// taking the first 2xx response.
func (c *Client) uploadChunk(ctx context.Context, servers []model.ServerRecord, fileID, chunkID uuid.UUID, partNum int, data []byte) error {
	for _, server := range shuffledServers(servers) {
		if err := c.postChunk(ctx, server.Address, fileID, chunkID, partNum, data); err == nil {
			return nil
		}
	}
	return &Error{Kind: KindUploadSingleChunk, PartNum: partNum, ChunkName: model.ChunkName(fileID, chunkID, partNum)}
}

func (c *Client) postChunk(ctx context.Context, serverAddr string, fileID, chunkID uuid.UUID, partNum int, data []byte) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("chunk_id", chunkID.String())
	_ = w.WriteField("file_id", fileID.String())
	_ = w.WriteField("file_part_num", strconv.Itoa(partNum))
	fw, err := w.CreateFormFile("file", "chunk")
	if err != nil {
		return err
	}
	if _, err := fw.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, DataPlaneTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverAddr+"/api/upload", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("server %s responded %d", serverAddr, resp.StatusCode)
	}
	return nil
}

func joinRemote(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
