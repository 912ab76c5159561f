package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"distfs/internal/model"
)

// Download resolves remotePath in the coordinator's namespace and
// reconstructs it under localTarget: each part of a file is fetched from the
// first of its replicas, tried in list order, that serves it; the parts are
// held in memory and written in part order once all have arrived.
// Directories are mirrored recursively.
func (c *Client) Download(ctx context.Context, remotePath, localTarget string) error {
	node, err := c.coord.ResolvePath(ctx, remotePath)
	if err != nil {
		return fmt.Errorf("resolve_path %s: %w", remotePath, err)
	}
	return c.downloadNode(ctx, node, localTarget)
}

func (c *Client) downloadNode(ctx context.Context, node *model.Node, localPath string) error {
	if node.Kind == model.KindDirectory {
		if err := os.MkdirAll(localPath, 0o755); err != nil {
			return &Error{Kind: KindFileIO, Path: localPath, Err: err}
		}
		names := make([]string, 0, len(node.Children))
		for name := range node.Children {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := c.downloadNode(ctx, node.Children[name], filepath.Join(localPath, name)); err != nil {
				return err
			}
		}
		return nil
	}
	return c.downloadFile(ctx, node.File.ID, localPath)
}

func (c *Client) downloadFile(ctx context.Context, fileID uuid.UUID, localPath string) error {
	chunks, err := c.coord.ListChunksForFile(ctx, fileID)
	if err != nil {
		return fmt.Errorf("list_chunks_for_file %s: %w", fileID, err)
	}

	groups := groupByPart(chunks)

	bodies := make([][]byte, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			data, err := c.fetchAnyReplica(gctx, group)
			if err != nil {
				return err
			}
			bodies[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out, err := os.Create(localPath)
	if err != nil {
		return &Error{Kind: KindFileIO, Path: localPath, Err: err}
	}
	defer out.Close()
	for _, data := range bodies {
		if _, err := out.Write(data); err != nil {
			return &Error{Kind: KindFileIO, Path: localPath, Err: err}
		}
	}
	return nil
}

// groupByPart sorts chunk records by part_num and groups adjacent equal
// part numbers into replica sets, in part-number order.
func groupByPart(chunks []model.ChunkRecord) [][]model.ChunkRecord {
	sorted := append([]model.ChunkRecord(nil), chunks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNum < sorted[j].PartNum })

	var groups [][]model.ChunkRecord
	for _, chunk := range sorted {
		if n := len(groups); n > 0 && groups[n-1][0].PartNum == chunk.PartNum {
			groups[n-1] = append(groups[n-1], chunk)
		} else {
			groups = append(groups, []model.ChunkRecord{chunk})
		}
	}
	return groups
}

// fetchAnyReplica tries each replica in order, resolving its server
// address via the coordinator, and returns the first successful body.
func (c *Client) fetchAnyReplica(ctx context.Context, replicas []model.ChunkRecord) ([]byte, error) {
	var lastErr error
	for _, chunk := range replicas {
		server, err := c.coord.GetServer(ctx, chunk.ServerID)
		if err != nil {
			lastErr = err
			continue
		}
		chunkName := model.ChunkName(chunk.FileID, chunk.ID, chunk.PartNum)
		data, err := c.getChunk(ctx, server.Address, chunkName)
		if err != nil {
			lastErr = err
			continue
		}
		return data, nil
	}
	partNum := 0
	chunkName := ""
	if len(replicas) > 0 {
		partNum = replicas[0].PartNum
		chunkName = model.ChunkName(replicas[0].FileID, replicas[0].ID, replicas[0].PartNum)
	}
	return nil, &Error{Kind: KindChunkNotAvailable, PartNum: partNum, ChunkName: chunkName, Err: lastErr}
}

func (c *Client) getChunk(ctx context.Context, serverAddr, chunkName string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, DataPlaneTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverAddr+"/api/download/"+chunkName, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server %s responded %d", serverAddr, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
