package render

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-structview/pkg/icons"
	"github.com/mattsolo1/grove-structview/pkg/tree"
)

type expandedSet map[tree.ID]bool

func (s expandedSet) IsExpanded(id tree.ID) bool { return s[id] }

type failingHandle struct{}

func (failingHandle) Enumerate(ctx context.Context) ([]*tree.Node, error) {
	return nil, errors.New("permission denied")
}

func fixture() (root, src, locked *tree.Node) {
	locked = tree.New(tree.KindDirectory, "locked", tree.WithHandle(failingHandle{}), tree.Lazy(true))
	locked.MarkFailed(errors.New("permission denied"))
	src = tree.New(tree.KindDirectory, "src", tree.WithChildren([]*tree.Node{
		tree.New(tree.KindFile, "main.go"),
	}))
	root = tree.New(tree.KindDirectory, "proj", tree.WithChildren([]*tree.Node{
		locked,
		src,
		tree.New(tree.KindDirectory, "empty", tree.WithChildren(nil)),
		tree.New(tree.KindFile, "README"),
	}))
	return root, src, locked
}

func labels(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Label
	}
	return out
}

func TestRowsOnlyDescendIntoExpanded(t *testing.T) {
	root, _, _ := fixture()

	rows := Rows(root, expandedSet{root.ID(): true}, Options{})
	assert.Equal(t, []string{"proj", "locked", "src", "empty", "README"}, labels(rows))
	assert.Equal(t, []string{TwistyExpanded, TwistyFailed, TwistyCollapsed, TwistyLeaf, TwistyLeaf},
		[]string{rows[0].Twisty, rows[1].Twisty, rows[2].Twisty, rows[3].Twisty, rows[4].Twisty})
	assert.Equal(t, 1, rows[2].Depth)
	assert.Equal(t, []string{"proj", "src"}, []string(rows[2].Path))

	assert.Nil(t, Rows(nil, expandedSet{}, Options{}))
	assert.Len(t, Rows(root, nil, Options{}), 1)
}

func TestRowsWarningUnderFailedNode(t *testing.T) {
	root, src, locked := fixture()

	rows := Rows(root, expandedSet{root.ID(): true, locked.ID(): true, src.ID(): true}, Options{})
	require.Equal(t, []string{"proj", "locked", FailedFolderText, "src", "main.go", "empty", "README"}, labels(rows))

	warn := rows[2]
	assert.True(t, warn.Warning)
	assert.Equal(t, 2, warn.Depth)
	assert.Equal(t, icons.WarnEmoji, warn.Icon)
	assert.Equal(t, 4, Find(rows, src.Children()[0].ID()))
	assert.Equal(t, 1, Find(rows, locked.ID()))
	assert.Equal(t, -1, Find(rows, tree.NewID()))
}

func TestRowsIcons(t *testing.T) {
	root, src, _ := fixture()
	state := expandedSet{root.ID(): true, src.ID(): true}

	rows := Rows(root, state, Options{})
	assert.Equal(t, icons.FolderEmoji, rows[0].Icon)
	assert.Equal(t, icons.FileEmoji, rows[3].Icon)

	rows = Rows(root, state, Options{FileGlyph: func(name string) string { return "<" + name + ">" }})
	assert.Equal(t, icons.FolderEmoji, rows[0].Icon)
	assert.Equal(t, "<main.go>", rows[3].Icon)

	value := tree.New(tree.KindJSONValue, "k: 1")
	assert.Equal(t, icons.ValueEmoji, Rows(value, nil, Options{})[0].Icon)
}

func TestText(t *testing.T) {
	root, src, _ := fixture()

	out := Text(Rows(root, expandedSet{root.ID(): true, src.ID(): true}, Options{}), PlainStyles())
	assert.Equal(t, "▼ 📁 proj\n"+
		"  ! 📁 locked\n"+
		"  ▼ 📁 src\n"+
		"    • 📄 main.go\n"+
		"  • 📁 empty\n"+
		"  • 📄 README\n", out)
}

func TestParseTheme(t *testing.T) {
	for in, want := range map[string]Theme{"": ThemeSystem, "Dark": ThemeDark, " light ": ThemeLight, "system": ThemeSystem} {
		got, err := ParseTheme(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseTheme("solarized")
	assert.Error(t, err)
	assert.Equal(t, "Dark", ThemeDark.Title())
}
