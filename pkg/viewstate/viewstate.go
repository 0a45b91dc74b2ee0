// Package viewstate tracks which nodes are expanded, outside of the nodes
// themselves, so the set can be captured, diffed and replayed after the view
// or the whole tree is rebuilt.
package viewstate

import (
	"context"
	"sort"
	"sync"

	"github.com/mattsolo1/grove-structview/pkg/traverse"
	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// State is an immutable snapshot of expanded nodes. On the tree it was
// captured from, entries match by node ID. On a rebuilt tree, whose IDs were
// regenerated, they match by label path.
type State struct {
	root  tree.ID
	ids   map[tree.ID]struct{}
	paths map[string]struct{}
}

// Root returns the ID of the root the snapshot was captured under, or "" if
// the root was never expanded.
func (s State) Root() tree.ID { return s.root }

// For returns the selection that replays s under root. Label paths are only
// used when root is not the root s was captured under, since siblings may
// share a label.
func (s State) For(root *tree.Node) traverse.Selection {
	if root != nil && s.root != "" && root.ID() == s.root {
		return byID(s)
	}
	return byPath(s)
}

type byID State

func (s byID) Contains(n *tree.Node, _ traverse.Path) bool {
	_, ok := s.ids[n.ID()]
	return ok
}

type byPath State

func (s byPath) Contains(_ *tree.Node, path traverse.Path) bool {
	_, ok := s.paths[path.Key()]
	return ok
}

// Has reports whether id was expanded when the snapshot was taken.
func (s State) Has(id tree.ID) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of expanded nodes in the snapshot.
func (s State) Len() int { return len(s.ids) }

// IDs returns the expanded IDs in sorted order.
func (s State) IDs() []tree.ID {
	out := make([]tree.ID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Diff returns the IDs expanded in s but not in old, and those expanded in
// old but not in s.
func (s State) Diff(old State) (added, removed []tree.ID) {
	for _, id := range s.IDs() {
		if !old.Has(id) {
			added = append(added, id)
		}
	}
	for _, id := range old.IDs() {
		if !s.Has(id) {
			removed = append(removed, id)
		}
	}
	return added, removed
}

// Tracker records the expanded set of the current tree. It is safe for
// concurrent use so a background walk can mark nodes while a view reads.
type Tracker struct {
	mu       sync.RWMutex
	expanded map[tree.ID]string // id -> path key
	// root is the last root marked expanded. It survives CollapseAll.
	root tree.ID
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{expanded: make(map[tree.ID]string)}
}

// MarkExpanded implements traverse.Marker.
func (t *Tracker) MarkExpanded(n *tree.Node, path traverse.Path) {
	t.Expand(n, path)
}

// Expand marks n as expanded.
func (t *Tracker) Expand(n *tree.Node, path traverse.Path) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expanded[n.ID()] = path.Key()
	if len(path) == 1 {
		t.root = n.ID()
	}
}

// Collapse marks id as collapsed.
func (t *Tracker) Collapse(id tree.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.expanded, id)
}

// IsExpanded reports whether id is expanded.
func (t *Tracker) IsExpanded(id tree.ID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.expanded[id]
	return ok
}

// CollapseAll clears the expanded set.
func (t *Tracker) CollapseAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expanded = make(map[tree.ID]string)
}

// Len returns the number of expanded nodes.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.expanded)
}

// MoveTo adds every entry of t to dst and empties t.
func (t *Tracker) MoveTo(dst *Tracker) {
	if t == dst {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	dst.mu.Lock()
	defer dst.mu.Unlock()
	for id, key := range t.expanded {
		dst.expanded[id] = key
	}
	if t.root != "" {
		dst.root = t.root
	}
	t.expanded = make(map[tree.ID]string)
}

// Replace makes t hold exactly the entries of src.
func (t *Tracker) Replace(src *Tracker) {
	if t == src {
		return
	}
	src.mu.RLock()
	expanded := make(map[tree.ID]string, len(src.expanded))
	for id, key := range src.expanded {
		expanded[id] = key
	}
	root := src.root
	src.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.expanded = expanded
	t.root = root
}

// Capture returns a snapshot of the expanded set.
func (t *Tracker) Capture() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := State{
		root:  t.root,
		ids:   make(map[tree.ID]struct{}, len(t.expanded)),
		paths: make(map[string]struct{}, len(t.expanded)),
	}
	for id, key := range t.expanded {
		s.ids[id] = struct{}{}
		s.paths[key] = struct{}{}
	}
	return s
}

// RestoreWalk returns a walk that re-expands the nodes of saved under root.
// Entries that no longer match any node are ignored.
func (t *Tracker) RestoreWalk(loader traverse.Loader, root *tree.Node, saved State, opts ...traverse.Option) *traverse.Walk {
	return traverse.Restore(loader, t, root, saved.For(root), opts...)
}

// Restore re-expands the nodes of saved under root and waits for it.
func (t *Tracker) Restore(ctx context.Context, loader traverse.Loader, root *tree.Node, saved State, opts ...traverse.Option) (traverse.Progress, error) {
	return t.RestoreWalk(loader, root, saved, opts...).Run(ctx)
}
