// Package traverse walks a tree breadth-first, one node per step.
//
// A Walk keeps its queue as explicit continuation state, so a host running
// an event loop can call Step between frames and show progress, while a
// command-line caller simply calls Run. Children are visited in the order
// they are stored; nothing is re-sorted during a walk.
package traverse

import (
	"context"
	"strings"

	"github.com/mattsolo1/grove-structview/pkg/metrics"
	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// Path is the sequence of labels from the root to a node.
type Path []string

// Key returns a string usable as a map key for the path.
func (p Path) Key() string {
	return strings.Join(p, "\x1f")
}

// Child returns a new path extended with label.
func (p Path) Child(label string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = label
	return out
}

// Visitor is called once per node. Returning descend=false skips the node's
// children. A non-nil error is recorded as a failure of that node only.
type Visitor func(ctx context.Context, n *tree.Node, path Path) (descend bool, err error)

// Failure describes a node whose visit failed.
type Failure struct {
	ID    tree.ID
	Label string
	Err   error
}

// Progress is a snapshot of a walk.
type Progress struct {
	Visited  int
	Queued   int
	Failures []Failure
}

// Done reports whether nothing is left to visit.
func (p Progress) Done() bool { return p.Queued == 0 }

type item struct {
	node *tree.Node
	path Path
}

// Walk is a breadth-first traversal in progress.
type Walk struct {
	name     string
	visit    Visitor
	queue    []item
	progress Progress
	metrics  *metrics.Collector
}

// Option configures a Walk.
type Option func(*Walk)

// WithMetrics counts visited nodes under the walk's name.
func WithMetrics(m *metrics.Collector) Option {
	return func(w *Walk) { w.metrics = m }
}

// New starts a walk at root. A nil root yields a walk that is already done.
func New(name string, root *tree.Node, visit Visitor, opts ...Option) *Walk {
	w := &Walk{name: name, visit: visit}
	for _, opt := range opts {
		opt(w)
	}
	if root != nil {
		w.queue = append(w.queue, item{node: root, path: Path{root.Label()}})
	}
	w.progress.Queued = len(w.queue)
	return w
}

// Name returns the walk's name.
func (w *Walk) Name() string { return w.name }

// Progress returns a copy of the current progress.
func (w *Walk) Progress() Progress {
	p := w.progress
	p.Failures = append([]Failure(nil), w.progress.Failures...)
	return p
}

// Done reports whether every reachable node has been visited.
func (w *Walk) Done() bool { return len(w.queue) == 0 }

// Step visits the next queued node. It returns true once the walk is done.
// The only error it returns is the context's.
func (w *Walk) Step(ctx context.Context) (bool, error) {
	if len(w.queue) == 0 {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	it := w.queue[0]
	w.queue[0] = item{}
	w.queue = w.queue[1:]

	descend, err := w.visit(ctx, it.node, it.path)
	w.progress.Visited++
	w.metrics.RecordVisit(w.name)
	if err != nil {
		w.progress.Failures = append(w.progress.Failures, Failure{
			ID:    it.node.ID(),
			Label: it.node.Label(),
			Err:   err,
		})
	}
	if descend {
		for _, ch := range it.node.Children() {
			w.queue = append(w.queue, item{node: ch, path: it.path.Child(ch.Label())})
		}
	}

	w.progress.Queued = len(w.queue)
	return len(w.queue) == 0, nil
}

// Run steps until the walk is done or ctx is cancelled.
func (w *Walk) Run(ctx context.Context) (Progress, error) {
	for {
		done, err := w.Step(ctx)
		if err != nil {
			return w.Progress(), err
		}
		if done {
			return w.Progress(), nil
		}
	}
}
