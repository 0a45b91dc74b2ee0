package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-structview/pkg/render"
	"github.com/mattsolo1/grove-structview/pkg/source/repo"
	"github.com/mattsolo1/grove-structview/pkg/traverse"
	"github.com/mattsolo1/grove-structview/pkg/tree"
	"github.com/mattsolo1/grove-structview/pkg/viewstate"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newSession(opts Options) *Session {
	opts.Now = func() time.Time { return fixedNow }
	return New(opts)
}

// makeProject creates proj/{README.md, docs/guide.md, src/main.go, src/pkg/util.go}.
func makeProject(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "proj")
	for _, f := range []string{"README.md", "docs/guide.md", "src/main.go", "src/pkg/util.go"} {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	return root
}

func rowLabels(rows []render.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Label
	}
	return out
}

func childByLabel(t *testing.T, n *tree.Node, label string) *tree.Node {
	t.Helper()
	for _, ch := range n.Children() {
		if ch.Label() == label {
			return ch
		}
	}
	t.Fatalf("no child %q under %q", label, n.Label())
	return nil
}

func TestLoadDirectoryExpandsRoot(t *testing.T) {
	s := newSession(Options{})
	require.NoError(t, s.LoadDirectory(context.Background(), makeProject(t)))

	assert.Equal(t, ModeFolder, s.Mode())
	assert.Equal(t, "Folder: proj • loaded: 2024-05-01 09:30:00", s.Meta())
	assert.Equal(t, []string{"proj", "docs", "src", "README.md"}, rowLabels(s.Rows()))

	src := childByLabel(t, s.Root(), "src")
	assert.False(t, src.Loaded())
	assert.True(t, src.HasChildren())
}

func TestToggleLoadsLazily(t *testing.T) {
	s := newSession(Options{})
	ctx := context.Background()
	require.NoError(t, s.LoadDirectory(ctx, makeProject(t)))

	src := childByLabel(t, s.Root(), "src")
	require.NoError(t, s.Toggle(ctx, src.ID()))
	assert.True(t, src.Loaded())
	assert.Equal(t, []string{"proj", "docs", "src", "pkg", "main.go", "README.md"}, rowLabels(s.Rows()))

	require.NoError(t, s.Toggle(ctx, src.ID()))
	assert.Equal(t, []string{"proj", "docs", "src", "README.md"}, rowLabels(s.Rows()))

	err := s.Toggle(ctx, tree.NewID())
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestExpandAllLoadsEverything(t *testing.T) {
	s := newSession(Options{})
	ctx := context.Background()
	require.NoError(t, s.LoadDirectory(ctx, makeProject(t)))

	progress, err := s.ExpandAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, progress.Failures)
	assert.Equal(t, 8, progress.Visited)
	assert.Equal(t, 8, traverse.Count(s.Root()))
	for _, n := range traverse.Collect(s.Root()) {
		assert.True(t, s.Tracker().IsExpanded(n.ID()), n.Label())
	}
	assert.Equal(t, []string{"proj", "docs", "guide.md", "src", "pkg", "util.go", "main.go", "README.md"}, rowLabels(s.Rows()))

	s.CollapseAll()
	assert.Equal(t, []string{"proj"}, rowLabels(s.Rows()))
}

func TestReloadKeepsOpenNodesByLabel(t *testing.T) {
	s := newSession(Options{})
	ctx := context.Background()
	dir := makeProject(t)
	require.NoError(t, s.LoadDirectory(ctx, dir))

	src := childByLabel(t, s.Root(), "src")
	require.NoError(t, s.Expand(ctx, src.ID()))
	require.NoError(t, s.Expand(ctx, childByLabel(t, src, "pkg").ID()))
	before := rowLabels(s.Rows())
	oldRoot := s.Root()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "pkg", "new.go"), []byte("x"), 0o644))
	_, err := s.Reload(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, oldRoot.ID(), s.Root().ID())
	assert.Equal(t, []string{"proj", "docs", "src", "pkg", "new.go", "util.go", "main.go", "README.md"}, rowLabels(s.Rows()))
	assert.Len(t, before, 7)
}

func TestLoadingSameDirectoryReloads(t *testing.T) {
	s := newSession(Options{})
	ctx := context.Background()
	dir := makeProject(t)
	require.NoError(t, s.LoadDirectory(ctx, dir))
	require.NoError(t, s.Expand(ctx, childByLabel(t, s.Root(), "docs").ID()))

	require.NoError(t, s.LoadDirectory(ctx, dir))
	assert.Equal(t, []string{"proj", "docs", "guide.md", "src", "README.md"}, rowLabels(s.Rows()))
}

func TestLoadDirectoryFailureKeepsRoot(t *testing.T) {
	s := newSession(Options{})
	ctx := context.Background()
	require.NoError(t, s.LoadDirectory(ctx, makeProject(t)))
	root := s.Root()

	err := s.LoadDirectory(ctx, filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, tree.ErrSourceUnavailable)
	assert.Same(t, root, s.Root())
}

func TestLoadJSON(t *testing.T) {
	s := newSession(Options{})
	require.NoError(t, s.LoadJSON("people.JSON", []byte(`[{"name":"Ann","age":3},{"age":4}]`)))

	assert.Equal(t, ModeJSON, s.Mode())
	assert.Equal(t, "people", s.Root().Label())
	assert.Equal(t, "JSON: people.JSON • loaded: 2024-05-01 09:30:00", s.Meta())
	assert.Equal(t, []string{"people", "Ann", "[1]"}, rowLabels(s.Rows()))
}

func TestMalformedJSONKeepsRoot(t *testing.T) {
	s := newSession(Options{})
	require.NoError(t, s.LoadJSON("ok.json", []byte(`{"a":1}`)))
	root := s.Root()
	meta := s.Meta()

	err := s.LoadJSON("bad.json", []byte(`{"a":`))
	assert.ErrorIs(t, err, tree.ErrMalformedInput)
	assert.Same(t, root, s.Root())
	assert.Equal(t, meta, s.Meta())

	err = s.LoadYAML("bad.yaml", []byte("a: [1"))
	assert.ErrorIs(t, err, tree.ErrMalformedInput)
	assert.Same(t, root, s.Root())
}

func TestLoadYAML(t *testing.T) {
	s := newSession(Options{PriorityFields: []string{"id"}})
	require.NoError(t, s.LoadYAML("list.yml", []byte("- id: x1\n  v: 1\n- v: 2\n")))

	assert.Equal(t, "list", s.Root().Label())
	assert.Equal(t, []string{"list", "x1", "[1]"}, rowLabels(s.Rows()))
}

func TestReloadJSONRestoresByLabel(t *testing.T) {
	s := newSession(Options{})
	ctx := context.Background()
	require.NoError(t, s.LoadJSON("doc.json", []byte(`{"a":{"b":{"c":1}},"z":2}`)))

	a := childByLabel(t, s.Root(), "a")
	require.NoError(t, s.Expand(ctx, a.ID()))
	require.NoError(t, s.Expand(ctx, childByLabel(t, a, "b").ID()))
	before := rowLabels(s.Rows())

	_, err := s.Reload(ctx)
	require.NoError(t, err)
	assert.NotSame(t, a, childByLabel(t, s.Root(), "a"))
	assert.Equal(t, before, rowLabels(s.Rows()))
	assert.Equal(t, []string{"doc", "a", "b", "c: 1", "z: 2"}, before)
}

func TestRerenderSameRoot(t *testing.T) {
	s := newSession(Options{})
	ctx := context.Background()
	require.NoError(t, s.LoadJSON("doc.json", []byte(`{"a":{"b":1}}`)))
	require.NoError(t, s.Expand(ctx, childByLabel(t, s.Root(), "a").ID()))
	root := s.Root()
	before := rowLabels(s.Rows())

	_, err := s.Rerender(ctx, nil)
	require.NoError(t, err)
	assert.Same(t, root, s.Root())
	assert.Equal(t, before, rowLabels(s.Rows()))
}

type fakeRepo struct{}

func (fakeRepo) Name() string { return "fake" }

func (fakeRepo) Repository(ctx context.Context, ref repo.Ref) (*repo.Repository, error) {
	if ref.Name != "demo" {
		return nil, repo.ErrNotFound
	}
	return &repo.Repository{FullName: ref.String(), DefaultBranch: "main"}, nil
}

func (fakeRepo) BranchCommit(ctx context.Context, ref repo.Ref, branch string) (string, error) {
	return "sha", nil
}

func (fakeRepo) Tree(ctx context.Context, ref repo.Ref, sha string) (*repo.Listing, error) {
	return &repo.Listing{SHA: sha, Entries: []repo.Entry{
		{Path: "a/b.txt", Type: repo.EntryBlob},
		{Path: "a/c/d.txt", Type: repo.EntryBlob},
	}}, nil
}

func TestLoadRepository(t *testing.T) {
	s := newSession(Options{Repo: fakeRepo{}})
	ctx := context.Background()

	require.NoError(t, s.LoadRepository(ctx, "octo/demo", ""))
	assert.Equal(t, ModeRepo, s.Mode())
	assert.Equal(t, "Repo: octo/demo@main • loaded: 2024-05-01 09:30:00", s.Meta())
	assert.Equal(t, []string{"octo/demo@main", "a"}, rowLabels(s.Rows()))
	root := s.Root()

	err := s.LoadRepository(ctx, "octo/gone", "")
	assert.ErrorIs(t, err, repo.ErrRepoNotFound)
	assert.Same(t, root, s.Root())

	err = s.LoadRepository(ctx, "not-a-ref", "")
	assert.ErrorIs(t, err, repo.ErrInvalidRef)

	noTransport := newSession(Options{})
	assert.ErrorIs(t, noTransport.LoadRepository(ctx, "octo/demo", ""), tree.ErrSourceUnavailable)
}

func TestEmptySession(t *testing.T) {
	s := newSession(Options{})
	assert.Equal(t, "No data loaded.", s.Meta())
	assert.Empty(t, s.Rows())

	_, err := s.ExpandAll(context.Background())
	assert.ErrorIs(t, err, ErrNoRoot)
	_, err = s.Reload(context.Background())
	assert.ErrorIs(t, err, ErrNoRoot)
}

func TestRerenderKeepsSameLabelSiblingClosed(t *testing.T) {
	s := newSession(Options{})
	ctx := context.Background()
	require.NoError(t, s.LoadJSON("d.json", []byte(`[{"name":"a","x":1},{"name":"a","y":2}]`)))
	kids := s.Root().Children()
	require.Len(t, kids, 2)
	require.Equal(t, kids[0].Label(), kids[1].Label())

	require.NoError(t, s.Expand(ctx, kids[0].ID()))
	_, err := s.Rerender(ctx, nil)
	require.NoError(t, err)

	assert.True(t, s.Tracker().IsExpanded(kids[0].ID()))
	assert.False(t, s.Tracker().IsExpanded(kids[1].ID()))

	_, err = s.ExpandAll(ctx)
	require.NoError(t, err)
	s.CollapseAll()
	_, err = s.Restore(ctx, viewstateOf(t, s, kids[0]))
	require.NoError(t, err)
	assert.False(t, s.Tracker().IsExpanded(kids[1].ID()))
}

// viewstateOf captures a view where only the root and n are open.
func viewstateOf(t *testing.T, s *Session, n *tree.Node) viewstate.State {
	t.Helper()
	tr := viewstate.NewTracker()
	tr.Expand(s.Root(), traverse.Path{s.Root().Label()})
	tr.Expand(n, traverse.Path{s.Root().Label(), n.Label()})
	return tr.Capture()
}

func TestPrepareReloadLeavesSessionUntilCommit(t *testing.T) {
	s := newSession(Options{})
	ctx := context.Background()
	require.NoError(t, s.LoadJSON("doc.json", []byte(`{"a":{"b":1}}`)))
	require.NoError(t, s.Expand(ctx, childByLabel(t, s.Root(), "a").ID()))
	root := s.Root()
	before := rowLabels(s.Rows())

	job, err := s.PrepareReload()
	require.NoError(t, err)
	p, err := job(ctx)
	require.NoError(t, err)
	assert.Same(t, root, s.Root())

	require.NoError(t, s.Commit(p))
	assert.NotSame(t, root, s.Root())
	assert.Equal(t, before, rowLabels(s.Rows()))
}

func TestCommitStale(t *testing.T) {
	s := newSession(Options{})
	ctx := context.Background()
	require.NoError(t, s.LoadJSON("one.json", []byte(`{"a":1}`)))
	job, err := s.PrepareReload()
	require.NoError(t, err)
	p, err := job(ctx)
	require.NoError(t, err)

	require.NoError(t, s.LoadJSON("two.json", []byte(`{"b":1}`)))
	root := s.Root()
	assert.ErrorIs(t, s.Commit(p), ErrStale)
	assert.Same(t, root, s.Root())
}

func TestStagedExpandAllWalk(t *testing.T) {
	s := newSession(Options{})
	ctx := context.Background()
	require.NoError(t, s.LoadDirectory(ctx, makeProject(t)))
	s.CollapseAll()

	walk, staged := s.StagedExpandAllWalk()
	_, err := walk.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Tracker().Len())

	staged.MoveTo(s.Tracker())
	assert.Equal(t, traverse.Count(s.Root()), s.Tracker().Len())
	assert.Equal(t, 8, s.Tracker().Len())
	assert.Equal(t, 0, staged.Len())
}
