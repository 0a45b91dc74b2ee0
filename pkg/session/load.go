package session

import (
	"context"
	"fmt"
	"regexp"

	"github.com/mattsolo1/grove-core/util/pathutil"

	"github.com/mattsolo1/grove-structview/pkg/source/fsdir"
	"github.com/mattsolo1/grove-structview/pkg/source/jsondoc"
	"github.com/mattsolo1/grove-structview/pkg/source/repo"
	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// LoadDirectory opens a local directory and installs it as the root with its
// first level loaded. Loading the directory that is already shown keeps the
// open nodes. On error the current root is left untouched.
func (s *Session) LoadDirectory(ctx context.Context, path string) error {
	dir, err := fsdir.Open(path)
	if err != nil {
		return err
	}

	if s.mode == ModeFolder && s.dirPath != "" {
		if same, _ := pathutil.ComparePaths(s.dirPath, dir.Path()); same {
			s.log.WithField("path", dir.Path()).Debug("directory already shown, reloading")
			_, err := s.Reload(ctx)
			return err
		}
	}

	build := func(ctx context.Context) (*tree.Node, error) {
		root := fsdir.NewRoot(dir, *s.opts.FS)
		if err := s.loader.EnsureLoaded(ctx, root); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", tree.ErrSourceUnavailable, dir.Path(), err)
		}
		return root, nil
	}
	root, err := build(ctx)
	if err != nil {
		return err
	}

	s.ReplaceRoot(root, ModeFolder, root.Label(), build)
	s.dirPath = dir.Path()
	return nil
}

// LoadRepository lists "owner/name" at branch (the default branch when
// empty) and installs it as the root. On error the current root is left
// untouched.
func (s *Session) LoadRepository(ctx context.Context, ident, branch string) error {
	if s.opts.Repo == nil {
		return fmt.Errorf("%w: no repository transport configured", tree.ErrSourceUnavailable)
	}
	ref, err := repo.ParseRef(ident)
	if err != nil {
		return err
	}

	build := func(ctx context.Context) (*tree.Node, error) {
		return repo.Build(ctx, s.opts.Repo, ref, branch, repo.Options{
			Collation: s.opts.Collation,
			Logger:    s.opts.Logger,
		})
	}
	root, err := build(ctx)
	if err != nil {
		return err
	}

	s.ReplaceRoot(root, ModeRepo, root.Label(), build)
	return nil
}

var (
	jsonSuffix = regexp.MustCompile(`(?i)\.json$`)
	yamlSuffix = regexp.MustCompile(`(?i)\.ya?ml$`)
)

// LoadJSON parses a JSON document named name (usually its file name) and
// installs it as the root. Malformed input leaves the current root untouched
// and reports tree.ErrMalformedInput.
func (s *Session) LoadJSON(name string, data []byte) error {
	v, err := jsondoc.Parse(data)
	if err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", name, err)
	}
	s.installDocument(name, jsonSuffix.ReplaceAllString(name, ""), v)
	return nil
}

// LoadYAML is LoadJSON for YAML documents.
func (s *Session) LoadYAML(name string, data []byte) error {
	v, err := jsondoc.ParseYAML(data)
	if err != nil {
		return fmt.Errorf("invalid YAML in %s: %w", name, err)
	}
	s.installDocument(name, yamlSuffix.ReplaceAllString(name, ""), v)
	return nil
}

func (s *Session) installDocument(name, label string, v interface{}) {
	opts := jsondoc.Options{PriorityFields: s.opts.PriorityFields, Collation: s.opts.Collation}
	rebuild := func(context.Context) (*tree.Node, error) {
		return jsondoc.Build(label, v, opts), nil
	}
	s.ReplaceRoot(jsondoc.Build(label, v, opts), ModeJSON, name, rebuild)
}
