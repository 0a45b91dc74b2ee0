// Package fsdir builds lazily-loaded trees from directories.
//
// The root node is returned unloaded; each directory's children are read the
// first time the node is loaded. When a directory is loaded, every child
// directory is peeked once to learn whether it has any entries, so empty
// directories can be shown without an expand affordance. A failed peek
// leaves the child expandable.
package fsdir

import (
	"context"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mattsolo1/grove-structview/pkg/tree"
)

const defaultPeekConcurrency = 8

// Options controls how directories are turned into nodes.
type Options struct {
	// ShowHidden includes dot-files and dot-directories.
	ShowHidden bool
	// PeekConcurrency bounds concurrent peeks within one load.
	PeekConcurrency int
	Logger          *logrus.Entry
}

// DefaultOptions shows every entry, like a file picker does.
func DefaultOptions() Options {
	return Options{ShowHidden: true, PeekConcurrency: defaultPeekConcurrency}
}

// NewRoot returns the unloaded root node for dir.
func NewRoot(dir Dir, opts Options) *tree.Node {
	if opts.PeekConcurrency <= 0 {
		opts.PeekConcurrency = defaultPeekConcurrency
	}
	if opts.Logger == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		opts.Logger = logrus.NewEntry(logger)
	}
	opts.Logger = opts.Logger.WithField("component", "fsdir")

	label := dir.Name()
	if label == "" || label == "." || label == "/" {
		label = "(selected folder)"
	}
	return tree.New(tree.KindDirectory, label,
		tree.Lazy(true),
		tree.WithPath(label),
		tree.WithHandle(&handle{dir: dir, path: label, opts: &opts}))
}

// handle loads one directory node.
type handle struct {
	dir  Dir
	path string
	opts *Options
}

func (h *handle) Enumerate(ctx context.Context) ([]*tree.Node, error) {
	entries, err := h.dir.Entries(ctx)
	if err != nil {
		return nil, err
	}

	var (
		children []*tree.Node
		subdirs  []*tree.Node
		peeks    []Dir
	)
	for _, e := range entries {
		if !h.opts.ShowHidden && strings.HasPrefix(e.Name, ".") {
			continue
		}
		p := path.Join(h.path, e.Name)
		if e.IsDir && e.Dir != nil {
			n := tree.New(tree.KindDirectory, e.Name,
				tree.Lazy(true),
				tree.WithPath(p),
				tree.WithHandle(&handle{dir: e.Dir, path: p, opts: h.opts}))
			children = append(children, n)
			subdirs = append(subdirs, n)
			peeks = append(peeks, e.Dir)
			continue
		}
		children = append(children, tree.New(tree.KindFile, e.Name, tree.WithPath(p)))
	}

	h.peek(ctx, subdirs, peeks)
	return children, nil
}

// peek sets hasChildren on each subdirectory before the children are
// published. Errors fail open.
func (h *handle) peek(ctx context.Context, nodes []*tree.Node, dirs []Dir) {
	var g errgroup.Group
	g.SetLimit(h.opts.PeekConcurrency)
	for i := range nodes {
		n, d := nodes[i], dirs[i]
		g.Go(func() error {
			ok, err := d.HasEntries(ctx)
			if err != nil {
				h.opts.Logger.WithError(err).WithField("path", n.Path()).Debug("peek failed, keeping directory expandable")
				n.SetHasChildren(true)
				return nil
			}
			n.SetHasChildren(ok)
			return nil
		})
	}
	_ = g.Wait()
}
