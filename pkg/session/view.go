package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-structview/pkg/traverse"
	"github.com/mattsolo1/grove-structview/pkg/tree"
	"github.com/mattsolo1/grove-structview/pkg/viewstate"
)

// locate returns the node with id and its label path.
func (s *Session) locate(id tree.ID) (*tree.Node, traverse.Path, error) {
	if s.root == nil {
		return nil, nil, ErrNoRoot
	}
	var find func(n *tree.Node, path traverse.Path) (*tree.Node, traverse.Path)
	find = func(n *tree.Node, path traverse.Path) (*tree.Node, traverse.Path) {
		if n.ID() == id {
			return n, path
		}
		for _, ch := range n.Children() {
			if found, p := find(ch, path.Child(ch.Label())); found != nil {
				return found, p
			}
		}
		return nil, nil
	}
	n, path := find(s.root, traverse.Path{s.root.Label()})
	if n == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return n, path, nil
}

// Open marks a node expanded without loading it.
func (s *Session) Open(id tree.ID) (*tree.Node, error) {
	n, path, err := s.locate(id)
	if err != nil {
		return nil, err
	}
	s.tracker.Expand(n, path)
	return n, nil
}

// Load ensures a node's children are loaded. A failure is recorded on the
// node and returned wrapping tree.ErrPartialLoad.
func (s *Session) Load(ctx context.Context, id tree.ID) error {
	n, _, err := s.locate(id)
	if err != nil {
		return err
	}
	return s.loader.EnsureLoaded(ctx, n)
}

// Expand opens a node and loads it. The node stays open when loading fails
// so the failure is shown in its place.
func (s *Session) Expand(ctx context.Context, id tree.ID) error {
	n, err := s.Open(id)
	if err != nil {
		return err
	}
	return s.loader.EnsureLoaded(ctx, n)
}

// Collapse closes a node.
func (s *Session) Collapse(id tree.ID) {
	s.tracker.Collapse(id)
}

// Toggle collapses an open node or expands a closed one.
func (s *Session) Toggle(ctx context.Context, id tree.ID) error {
	if s.tracker.IsExpanded(id) {
		s.Collapse(id)
		return nil
	}
	return s.Expand(ctx, id)
}

// CollapseAll closes every node, the root included.
func (s *Session) CollapseAll() {
	s.tracker.CollapseAll()
}

// ExpandAllWalk returns a stepwise walk expanding the whole tree.
func (s *Session) ExpandAllWalk() *traverse.Walk {
	return traverse.ExpandAll(s.loader, s.tracker, s.root, traverse.WithMetrics(s.opts.Metrics))
}

// StagedExpandAllWalk returns a walk expanding the whole tree that marks
// nodes on a tracker of its own. The caller moves the marks into the view
// with MoveTo between steps, so a cancelled walk leaves no marks
// behind.
func (s *Session) StagedExpandAllWalk() (*traverse.Walk, *viewstate.Tracker) {
	staged := viewstate.NewTracker()
	return traverse.ExpandAll(s.loader, staged, s.root, traverse.WithMetrics(s.opts.Metrics)), staged
}

// ExpandAll expands and loads the whole tree. Nodes that fail to load are
// listed in the progress; the error is only the context's.
func (s *Session) ExpandAll(ctx context.Context) (traverse.Progress, error) {
	if s.root == nil {
		return traverse.Progress{}, ErrNoRoot
	}
	progress, err := s.ExpandAllWalk().Run(ctx)
	s.log.WithFields(logrus.Fields{
		"visited": progress.Visited,
		"failed":  len(progress.Failures),
	}).Debug("expanded all")
	return progress, err
}

// RestoreWalk returns a stepwise walk re-expanding saved.
func (s *Session) RestoreWalk(saved viewstate.State) *traverse.Walk {
	return s.tracker.RestoreWalk(s.loader, s.root, saved, traverse.WithMetrics(s.opts.Metrics))
}

// Restore re-expands the nodes of saved in the current tree.
func (s *Session) Restore(ctx context.Context, saved viewstate.State) (traverse.Progress, error) {
	return s.RestoreWalk(saved).Run(ctx)
}

// Pending is a tree re-expanded the way the view looked when it was
// prepared, waiting to be installed with Commit.
type Pending struct {
	base     *tree.Node
	root     *tree.Node
	tracker  *viewstate.Tracker
	Progress traverse.Progress
}

// ErrStale is returned by Commit when the root changed after the pending
// tree was prepared.
var ErrStale = errors.New("tree changed while rerendering")

// PrepareRerender captures what a rerender needs and returns the job that
// builds the tree, rebuild's or the current one when rebuild is nil, and
// reopens the captured nodes on a tracker of its own. The job leaves the
// session untouched and may run on any goroutine.
func (s *Session) PrepareRerender(rebuild Rebuild) (func(ctx context.Context) (*Pending, error), error) {
	if s.root == nil {
		return nil, ErrNoRoot
	}
	base := s.root
	saved := s.tracker.Capture()
	loader := s.loader
	collector := s.opts.Metrics

	return func(ctx context.Context) (*Pending, error) {
		root := base
		if rebuild != nil {
			var err error
			if root, err = rebuild(ctx); err != nil {
				return nil, err
			}
		}
		tracker := viewstate.NewTracker()
		progress, err := tracker.Restore(ctx, loader, root, saved, traverse.WithMetrics(collector))
		if err != nil {
			return nil, err
		}
		return &Pending{base: base, root: root, tracker: tracker, Progress: progress}, nil
	}, nil
}

// PrepareReload is PrepareRerender with the current source's rebuild.
func (s *Session) PrepareReload() (func(ctx context.Context) (*Pending, error), error) {
	if s.root == nil {
		return nil, ErrNoRoot
	}
	if s.rebuild == nil {
		return nil, fmt.Errorf("current tree cannot be reloaded")
	}
	return s.PrepareRerender(s.rebuild)
}

// Commit installs p as the current tree and view state.
func (s *Session) Commit(p *Pending) error {
	if s.root != p.base {
		return ErrStale
	}
	if p.root != s.root {
		s.root = p.root
		s.loadedAt = s.opts.Now()
	}
	s.tracker.Replace(p.tracker)
	s.log.WithFields(logrus.Fields{
		"open":    s.tracker.Len(),
		"rebuilt": p.root != p.base,
	}).Debug("rerendered")
	return nil
}

// Rerender captures the open nodes, installs the tree produced by rebuild
// (the same root when rebuild is nil) and reopens what was open. Nodes of a
// rebuilt tree are matched by label path.
func (s *Session) Rerender(ctx context.Context, rebuild Rebuild) (traverse.Progress, error) {
	job, err := s.PrepareRerender(rebuild)
	if err != nil {
		return traverse.Progress{}, err
	}
	return s.run(ctx, job)
}

// Reload rebuilds the current tree from its source and keeps the open
// nodes.
func (s *Session) Reload(ctx context.Context) (traverse.Progress, error) {
	job, err := s.PrepareReload()
	if err != nil {
		return traverse.Progress{}, err
	}
	return s.run(ctx, job)
}

func (s *Session) run(ctx context.Context, job func(context.Context) (*Pending, error)) (traverse.Progress, error) {
	p, err := job(ctx)
	if err != nil {
		return traverse.Progress{}, err
	}
	return p.Progress, s.Commit(p)
}
