package traverse

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-structview/pkg/lazy"
	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// dirHandle lazily serves a directory layout described by a map of
// directory path -> entries. Entries ending in "/" are directories.
type dirHandle struct {
	layout map[string][]string
	path   string
	fail   map[string]error
}

func (h *dirHandle) Enumerate(ctx context.Context) ([]*tree.Node, error) {
	if err := h.fail[h.path]; err != nil {
		return nil, err
	}
	var out []*tree.Node
	for _, e := range h.layout[h.path] {
		if strings.HasSuffix(e, "/") {
			name := strings.TrimSuffix(e, "/")
			child := &dirHandle{layout: h.layout, path: h.path + "/" + name, fail: h.fail}
			out = append(out, tree.New(tree.KindDirectory, name,
				tree.Lazy(len(h.layout[child.path]) > 0 || h.fail[child.path] != nil),
				tree.WithHandle(child)))
			continue
		}
		out = append(out, tree.New(tree.KindFile, e))
	}
	return out, nil
}

func lazyRoot(layout map[string][]string, fail map[string]error) *tree.Node {
	return tree.New(tree.KindDirectory, "root", tree.Lazy(true),
		tree.WithHandle(&dirHandle{layout: layout, path: "root", fail: fail}))
}

var sampleLayout = map[string][]string{
	"root":         {"src/", "docs/", "README.md"},
	"root/src":     {"main.go", "pkg/"},
	"root/src/pkg": {"util.go"},
	"root/docs":    {"guide.md"},
}

// recorder is a Marker that remembers visit order.
type recorder struct {
	ids    map[tree.ID]int
	labels []string
}

func newRecorder() *recorder { return &recorder{ids: make(map[tree.ID]int)} }

func (r *recorder) MarkExpanded(n *tree.Node, path Path) {
	r.ids[n.ID()]++
	r.labels = append(r.labels, n.Label())
}

type labelSet map[string]bool

func (s labelSet) Contains(n *tree.Node, path Path) bool { return s[n.Label()] }

func TestExpandAllVisitsEveryNodeOnceAndLoadsAll(t *testing.T) {
	root := lazyRoot(sampleLayout, nil)
	rec := newRecorder()

	progress, err := ExpandAll(lazy.New(), rec, root).Run(context.Background())
	require.NoError(t, err)

	all := Collect(root)
	assert.Len(t, all, 8)
	assert.Equal(t, 8, progress.Visited)
	assert.Empty(t, progress.Failures)
	for _, n := range all {
		assert.Equal(t, 1, rec.ids[n.ID()], "node %s visited %d times", n.Label(), rec.ids[n.ID()])
		if n.HasChildren() {
			assert.True(t, n.Loaded(), "%s should be loaded", n.Label())
		}
	}
}

func TestExpandAllIsBreadthFirstInStoredOrder(t *testing.T) {
	root := lazyRoot(sampleLayout, nil)
	rec := newRecorder()

	_, err := ExpandAll(lazy.New(), rec, root).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"root",
		"docs", "src", "README.md",
		"guide.md", "pkg", "main.go",
		"util.go",
	}, rec.labels)
}

func TestExpandAllContinuesPastFailures(t *testing.T) {
	denied := errors.New("permission denied")
	root := lazyRoot(sampleLayout, map[string]error{"root/src": denied})

	progress, err := ExpandAll(lazy.New(), newRecorder(), root).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, progress.Failures, 1)
	assert.Equal(t, "src", progress.Failures[0].Label)
	assert.ErrorIs(t, progress.Failures[0].Err, tree.ErrPartialLoad)

	docs := root.Children()[0]
	assert.Equal(t, "docs", docs.Label())
	assert.True(t, docs.Loaded())
}

func TestStepExposesProgress(t *testing.T) {
	root := lazyRoot(sampleLayout, nil)
	w := ExpandAll(lazy.New(), newRecorder(), root)

	assert.Equal(t, 1, w.Progress().Queued)
	done, err := w.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 1, w.Progress().Visited)
	assert.Equal(t, 3, w.Progress().Queued)

	steps := 1
	for !w.Done() {
		_, err := w.Step(context.Background())
		require.NoError(t, err)
		steps++
	}
	assert.Equal(t, 8, steps)
}

func TestStepHonoursContext(t *testing.T) {
	w := ExpandAll(lazy.New(), newRecorder(), lazyRoot(sampleLayout, nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, w.Progress().Visited)
}

func TestRestoreOnlyDescendsIntoSelection(t *testing.T) {
	root := lazyRoot(sampleLayout, nil)
	rec := newRecorder()

	_, err := Restore(lazy.New(), rec, root, labelSet{"root": true, "src": true}).Run(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"root", "src"}, rec.labels)
	src := root.Children()[1]
	docs := root.Children()[0]
	assert.True(t, src.Loaded())
	assert.False(t, docs.Loaded())
}

func TestRestoreSkipsEverythingWhenRootNotSelected(t *testing.T) {
	root := lazyRoot(sampleLayout, nil)
	rec := newRecorder()

	_, err := Restore(lazy.New(), rec, root, labelSet{"src": true}).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, rec.labels)
	assert.False(t, root.Loaded())
}

func TestNilRootWalkIsDone(t *testing.T) {
	w := ExpandAll(lazy.New(), newRecorder(), nil)
	done, err := w.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 0, Count(nil))
}

func TestPathKey(t *testing.T) {
	p := Path{"root"}.Child("src").Child("main.go")
	assert.Equal(t, Path{"root", "src", "main.go"}, p)
	assert.NotEqual(t, Path{"root", "src/main.go"}.Key(), p.Key())
}
