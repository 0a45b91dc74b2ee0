package fsdir

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// Entry is one name+kind pair yielded by a directory.
type Entry struct {
	Name  string
	IsDir bool
	// Dir is the capability for a directory entry, nil for files.
	Dir Dir
}

// Dir is an enumerable directory capability.
type Dir interface {
	Name() string
	Entries(ctx context.Context) ([]Entry, error)
	// HasEntries reports whether the directory holds at least one entry,
	// reading as little as possible.
	HasEntries(ctx context.Context) (bool, error)
}

// OSDir is a directory on the local filesystem.
type OSDir struct {
	path string
}

// Open returns the directory at p. It fails with tree.ErrSourceUnavailable
// when p does not exist, is not a directory, or cannot be read.
func Open(p string) (*OSDir, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", tree.ErrSourceUnavailable, p, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tree.ErrSourceUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", tree.ErrSourceUnavailable, abs)
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tree.ErrSourceUnavailable, err)
	}
	f.Close()
	return &OSDir{path: abs}, nil
}

func (d *OSDir) Name() string { return filepath.Base(d.path) }

// Path returns the absolute path of the directory.
func (d *OSDir) Path() string { return d.path }

func (d *OSDir) Entries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		e := Entry{Name: de.Name(), IsDir: isDir(d.path, de)}
		if e.IsDir {
			e.Dir = &OSDir{path: filepath.Join(d.path, de.Name())}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (d *OSDir) HasEntries(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f, err := os.Open(d.path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	names, err := f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// isDir follows symlinks so a link to a directory can be expanded.
func isDir(parent string, de fs.DirEntry) bool {
	if de.Type()&fs.ModeSymlink == 0 {
		return de.IsDir()
	}
	info, err := os.Stat(filepath.Join(parent, de.Name()))
	return err == nil && info.IsDir()
}

// FSDir is a directory inside an fs.FS, such as an embedded or in-memory tree.
type FSDir struct {
	fsys  fs.FS
	dir   string
	label string
}

// NewFSDir returns the directory dir of fsys. label names the root in the tree.
func NewFSDir(fsys fs.FS, dir, label string) *FSDir {
	if label == "" {
		label = path.Base(dir)
	}
	return &FSDir{fsys: fsys, dir: dir, label: label}
}

func (d *FSDir) Name() string { return d.label }

func (d *FSDir) Entries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirEntries, err := fs.ReadDir(d.fsys, d.dir)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		e := Entry{Name: de.Name(), IsDir: de.IsDir()}
		if e.IsDir {
			e.Dir = NewFSDir(d.fsys, path.Join(d.dir, de.Name()), de.Name())
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (d *FSDir) HasEntries(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	dirEntries, err := fs.ReadDir(d.fsys, d.dir)
	if err != nil {
		return false, err
	}
	return len(dirEntries) > 0, nil
}
