// Package repo builds trees from remote source-control repositories.
//
// The whole tree is fetched up front with one recursive listing and the
// hierarchy is rebuilt from slash-delimited paths. Every node is returned
// loaded, so no further remote calls are made while the tree is browsed.
package repo

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// Options controls how a listing is turned into nodes.
type Options struct {
	Collation tree.Collation
	Logger    *logrus.Entry
}

// Build resolves branch (the default branch when empty), lists the whole tree
// and returns its root. Nothing is returned unless every call succeeds.
func Build(ctx context.Context, api API, ref Ref, branch string, opts Options) (*tree.Node, error) {
	log := opts.Logger
	if log == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		log = logrus.NewEntry(logger)
	}
	log = log.WithFields(logrus.Fields{"component": "repo", "repo": ref.String(), "transport": api.Name()})

	meta, err := api.Repository(ctx, ref)
	if err != nil {
		return nil, stageError(ErrRepoNotFound, ref.String(), err)
	}
	if branch == "" {
		branch = meta.DefaultBranch
		log.WithField("branch", branch).Debug("using default branch")
	}
	if branch == "" {
		return nil, fmt.Errorf("%w: %s has no default branch", ErrBranchNotFound, ref)
	}

	sha, err := api.BranchCommit(ctx, ref, branch)
	if err != nil {
		return nil, stageError(ErrBranchNotFound, ref.String()+"@"+branch, err)
	}

	listing, err := api.Tree(ctx, ref, sha)
	if err != nil {
		return nil, fmt.Errorf("%w: %s@%s: %w", ErrListingFailed, ref, branch, err)
	}
	if listing.Truncated {
		log.WithField("entries", len(listing.Entries)).Warn("remote truncated the tree listing; some entries are missing")
	}

	root := Assemble(ref.String()+"@"+branch, listing.Entries, opts.Collation)
	log.WithField("entries", len(listing.Entries)).Debug("built repository tree")
	return root, nil
}

// stageError maps a not-found transport error to the stage's failure and
// keeps any other error (throttling, network) distinguishable.
func stageError(notFound error, what string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %s", notFound, what)
	}
	return fmt.Errorf("%w: %s: %w", ErrRemoteFailed, what, err)
}

// dirBuilder accumulates one directory while the listing is replayed.
type dirBuilder struct {
	name     string
	path     string
	dirs     []*dirBuilder
	files    []string
	seenFile map[string]bool
}

// Assemble rebuilds the hierarchy implied by entries under a root labeled
// rootLabel. Intermediate directories are created on demand and shared by
// full path, so "a/b/c.txt" and "a/d.txt" produce a single "a".
func Assemble(rootLabel string, entries []Entry, c tree.Collation) *tree.Node {
	root := &dirBuilder{name: rootLabel, seenFile: make(map[string]bool)}
	dirs := map[string]*dirBuilder{"": root}

	var ensureDir func(p string) *dirBuilder
	ensureDir = func(p string) *dirBuilder {
		if d, ok := dirs[p]; ok {
			return d
		}
		parentPath, name := path.Split(p)
		parent := ensureDir(strings.TrimSuffix(parentPath, "/"))
		d := &dirBuilder{name: name, path: p, seenFile: make(map[string]bool)}
		parent.dirs = append(parent.dirs, d)
		dirs[p] = d
		return d
	}

	for _, e := range entries {
		p := strings.Trim(e.Path, "/")
		if p == "" {
			continue
		}
		if e.Type == EntryTree {
			ensureDir(p)
			continue
		}
		parentPath, name := path.Split(p)
		parent := ensureDir(strings.TrimSuffix(parentPath, "/"))
		if parent.seenFile[name] {
			continue
		}
		parent.seenFile[name] = true
		parent.files = append(parent.files, name)
	}

	return root.materialize(c)
}

func (d *dirBuilder) materialize(c tree.Collation) *tree.Node {
	children := make([]*tree.Node, 0, len(d.dirs)+len(d.files))
	for _, sub := range d.dirs {
		children = append(children, sub.materialize(c))
	}
	for _, f := range d.files {
		children = append(children, tree.New(tree.KindFile, f, tree.WithPath(path.Join(d.path, f))))
	}
	tree.SortEntries(children, c)

	p := d.path
	if p == "" {
		p = d.name
	}
	return tree.New(tree.KindDirectory, d.name, tree.WithPath(p), tree.WithChildren(children))
}
