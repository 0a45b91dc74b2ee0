package traverse

import (
	"context"

	"github.com/mattsolo1/grove-structview/pkg/metrics"
	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// Loader loads a node's children if they are not loaded yet.
type Loader interface {
	EnsureLoaded(ctx context.Context, n *tree.Node) error
}

// Marker records that a node is expanded.
type Marker interface {
	MarkExpanded(n *tree.Node, path Path)
}

// Selection reports whether a node belongs to a recorded set.
type Selection interface {
	Contains(n *tree.Node, path Path) bool
}

// ExpandAll returns a walk that marks every node expanded and loads every
// lazy node before descending into it. A node that fails to load is recorded
// in the progress and its subtree is skipped; the walk continues.
func ExpandAll(loader Loader, marker Marker, root *tree.Node, opts ...Option) *Walk {
	return New(metrics.WalkExpandAll, root, func(ctx context.Context, n *tree.Node, path Path) (bool, error) {
		marker.MarkExpanded(n, path)
		if !n.HasChildren() {
			return false, nil
		}
		if !n.Loaded() {
			if err := loader.EnsureLoaded(ctx, n); err != nil {
				return false, err
			}
		}
		return true, nil
	}, opts...)
}

// Restore returns a walk that only descends into nodes contained in saved,
// loading them if needed and marking them expanded.
func Restore(loader Loader, marker Marker, root *tree.Node, saved Selection, opts ...Option) *Walk {
	return New(metrics.WalkRestore, root, func(ctx context.Context, n *tree.Node, path Path) (bool, error) {
		if !saved.Contains(n, path) {
			return false, nil
		}
		marker.MarkExpanded(n, path)
		if !n.HasChildren() {
			return false, nil
		}
		if !n.Loaded() {
			if err := loader.EnsureLoaded(ctx, n); err != nil {
				return false, err
			}
		}
		return true, nil
	}, opts...)
}

// Count returns the number of nodes reachable through loaded children.
func Count(root *tree.Node) int {
	return len(Collect(root))
}

// Collect returns the already-loaded nodes under root in breadth-first order.
func Collect(root *tree.Node) []*tree.Node {
	if root == nil {
		return nil
	}
	out := []*tree.Node{root}
	for i := 0; i < len(out); i++ {
		out = append(out, out[i].Children()...)
	}
	return out
}
