package registry

import (
	"sync"

	"distfs/internal/apierr"
	"distfs/internal/model"
)

// Tree is the coordinator's namespace tree, guarded by its own lock. It
// holds nodes from the root down through each directory's child map — no
// parent pointers; traversal always starts at root.
type Tree struct {
	mu   sync.RWMutex
	root *model.Node
}

// NewTree returns a tree with an empty root directory.
func NewTree() *Tree {
	return &Tree{root: model.NewDirNode("")}
}

// Insert places child under the directory at parentPath.
func (t *Tree) Insert(parentPath string, child *model.Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := model.Insert(t.root, parentPath, child); err != nil {
		return apierr.New(apierr.NotFound, "create_path: %v", err)
	}
	return nil
}

// Resolve returns a deep copy of the subtree at path ("" resolves to
// root), cloned while still under the read lock. The tree's live nodes
// share their File pointers with the registry's flat file index, which
// MarkChunkCompleted mutates in place outside any tree lock — handing out
// those pointers directly would let a JSON encoder walk them concurrently
// with that mutation.
func (t *Tree) Resolve(path string) (*model.Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node, err := model.Traverse(t.root, path)
	if err != nil {
		return nil, apierr.New(apierr.NotFound, "resolve_path: %v", err)
	}
	return node.Clone(), nil
}
