package client

import (
	"context"
	"fmt"
	"io"
	"sort"

	"distfs/internal/model"
)

// Tree resolves remotePath and writes an indented listing of the subtree
// to w — a thin passthrough over resolve_path.
func (c *Client) Tree(ctx context.Context, remotePath string, w io.Writer) error {
	node, err := c.coord.ResolvePath(ctx, remotePath)
	if err != nil {
		return fmt.Errorf("resolve_path %s: %w", remotePath, err)
	}
	printNode(w, node, 0)
	return nil
}

// List resolves remotePath and writes only its immediate children, one
// per line — the non-recursive counterpart to Tree.
func (c *Client) List(ctx context.Context, remotePath string, w io.Writer) error {
	node, err := c.coord.ResolvePath(ctx, remotePath)
	if err != nil {
		return fmt.Errorf("resolve_path %s: %w", remotePath, err)
	}
	if node.Kind == model.KindFile {
		printLine(w, node)
		return nil
	}
	names := make([]string, 0, len(node.Children))
	for name := range node.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		printLine(w, node.Children[name])
	}
	return nil
}

func printLine(w io.Writer, node *model.Node) {
	if node.Kind == model.KindFile {
		fmt.Fprintf(w, "%s (%d bytes, %s)\n", node.Name, node.File.Size, node.File.Status)
		return
	}
	fmt.Fprintf(w, "%s/\n", node.Name)
}

func printNode(w io.Writer, node *model.Node, depth int) {
	for i := 0; i < depth; i++ {
		fmt.Fprint(w, "  ")
	}
	if node.Kind == model.KindFile {
		fmt.Fprintf(w, "%s (%d bytes, %s)\n", node.Name, node.File.Size, node.File.Status)
		return
	}
	label := node.Name
	if label == "" {
		label = "/"
	}
	fmt.Fprintf(w, "%s/\n", label)

	names := make([]string, 0, len(node.Children))
	for name := range node.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		printNode(w, node.Children[name], depth+1)
	}
}
