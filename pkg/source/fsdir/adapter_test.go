package fsdir

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-structview/pkg/lazy"
	"github.com/mattsolo1/grove-structview/pkg/tree"
)

func labels(nodes []*tree.Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Label())
	}
	return out
}

func childByLabel(n *tree.Node, label string) *tree.Node {
	for _, c := range n.Children() {
		if c.Label() == label {
			return c
		}
	}
	return nil
}

func sampleFS() fstest.MapFS {
	return fstest.MapFS{
		"project/zeta.txt":            {Data: []byte("z")},
		"project/alpha.txt":           {Data: []byte("a")},
		"project/src/main.go":         {Data: []byte("package main")},
		"project/empty":               {Mode: fs.ModeDir},
		"project/.git/HEAD":           {Data: []byte("ref")},
		"project/docs/guide/intro.md": {Data: []byte("#")},
	}
}

func TestNewRootIsUnloaded(t *testing.T) {
	root := NewRoot(NewFSDir(sampleFS(), "project", ""), DefaultOptions())

	assert.Equal(t, "project", root.Label())
	assert.Equal(t, tree.KindDirectory, root.Kind())
	assert.False(t, root.Loaded())
	assert.True(t, root.HasChildren())
	assert.Empty(t, root.Children())
}

func TestLoadOrdersDirectoriesFirst(t *testing.T) {
	root := NewRoot(NewFSDir(sampleFS(), "project", ""), DefaultOptions())

	require.NoError(t, lazy.New().EnsureLoaded(context.Background(), root))

	assert.Equal(t, []string{".git", "docs", "empty", "src", "alpha.txt", "zeta.txt"}, labels(root.Children()))
}

func TestLoadDoesNotRecurse(t *testing.T) {
	root := NewRoot(NewFSDir(sampleFS(), "project", ""), DefaultOptions())
	require.NoError(t, lazy.New().EnsureLoaded(context.Background(), root))

	docs := childByLabel(root, "docs")
	require.NotNil(t, docs)
	assert.False(t, docs.Loaded())
	assert.Empty(t, docs.Children())
}

func TestPeekSetsHasChildren(t *testing.T) {
	root := NewRoot(NewFSDir(sampleFS(), "project", ""), DefaultOptions())
	require.NoError(t, lazy.New().EnsureLoaded(context.Background(), root))

	assert.False(t, childByLabel(root, "empty").HasChildren())
	assert.True(t, childByLabel(root, "src").HasChildren())

	file := childByLabel(root, "alpha.txt")
	assert.Equal(t, tree.KindFile, file.Kind())
	assert.True(t, file.Loaded())
	assert.False(t, file.HasChildren())
}

func TestHiddenEntriesCanBeFiltered(t *testing.T) {
	opts := DefaultOptions()
	opts.ShowHidden = false
	root := NewRoot(NewFSDir(sampleFS(), "project", ""), opts)
	require.NoError(t, lazy.New().EnsureLoaded(context.Background(), root))

	assert.NotContains(t, labels(root.Children()), ".git")
}

func TestChildPaths(t *testing.T) {
	root := NewRoot(NewFSDir(sampleFS(), "project", ""), DefaultOptions())
	ctl := lazy.New()
	require.NoError(t, ctl.EnsureLoaded(context.Background(), root))
	docs := childByLabel(root, "docs")
	require.NoError(t, ctl.EnsureLoaded(context.Background(), docs))

	assert.Equal(t, "project/docs/guide", childByLabel(docs, "guide").Path())
}

// stubDir is a Dir whose behaviour is scripted per test.
type stubDir struct {
	name    string
	entries []Entry
	peekErr error
	listErr error
}

func (d *stubDir) Name() string { return d.name }

func (d *stubDir) Entries(ctx context.Context) ([]Entry, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	return d.entries, nil
}

func (d *stubDir) HasEntries(ctx context.Context) (bool, error) {
	if d.peekErr != nil {
		return false, d.peekErr
	}
	return len(d.entries) > 0, nil
}

func TestPeekFailureFailsOpen(t *testing.T) {
	locked := &stubDir{name: "locked", peekErr: errors.New("permission denied")}
	empty := &stubDir{name: "empty"}
	root := NewRoot(&stubDir{name: "root", entries: []Entry{
		{Name: "locked", IsDir: true, Dir: locked},
		{Name: "empty", IsDir: true, Dir: empty},
	}}, DefaultOptions())

	require.NoError(t, lazy.New().EnsureLoaded(context.Background(), root))

	assert.True(t, childByLabel(root, "locked").HasChildren())
	assert.False(t, childByLabel(root, "empty").HasChildren())
}

func TestEnumerationFailureIsPartial(t *testing.T) {
	denied := errors.New("permission denied")
	root := NewRoot(&stubDir{name: "root", listErr: denied}, DefaultOptions())

	err := lazy.New().EnsureLoaded(context.Background(), root)

	assert.ErrorIs(t, err, tree.ErrPartialLoad)
	assert.ErrorIs(t, err, denied)
	assert.False(t, root.Loaded())
	assert.ErrorIs(t, root.Err(), denied)
}

func TestOpenOSDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub", "inner"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "hollow"), 0755))

	d, err := Open(dir)
	require.NoError(t, err)
	root := NewRoot(d, DefaultOptions())
	require.NoError(t, lazy.New().EnsureLoaded(context.Background(), root))

	assert.Equal(t, []string{"hollow", "sub", "file.txt"}, labels(root.Children()))
	assert.False(t, childByLabel(root, "hollow").HasChildren())
	assert.True(t, childByLabel(root, "sub").HasChildren())
}

func TestOpenFailures(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "nope")},
		{"not a directory", file},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.path)
			assert.ErrorIs(t, err, tree.ErrSourceUnavailable)
		})
	}
}
