package browser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-structview/internal/tui/browser/components/confirm"
	"github.com/mattsolo1/grove-structview/pkg/icons"
	"github.com/mattsolo1/grove-structview/pkg/session"
	"github.com/mattsolo1/grove-structview/pkg/snapshot"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends msg and then drains the resulting commands, feeding every
// message produced back into the model. Spinner ticks are not followed.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for i := 0; cmd != nil && i < 1000; i++ {
		out := cmd()
		if out == nil {
			return m
		}
		next, cmd = m.Update(out)
		m = next.(Model)
	}
	return m
}

func labels(m Model) []string {
	out := make([]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = r.Label
	}
	return out
}

func folderModel(t *testing.T, cfg Config) Model {
	t.Helper()
	root := filepath.Join(t.TempDir(), "proj")
	for _, f := range []string{"README.md", "src/main.go", "src/pkg/util.go"} {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	sess := session.New(session.Options{})
	require.NoError(t, sess.LoadDirectory(context.Background(), root))
	if cfg.StatePath == "" {
		cfg.StatePath = filepath.Join(t.TempDir(), "state.json")
	}
	m := New(sess, cfg)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	return next.(Model)
}

func TestToggleLoadsInBackground(t *testing.T) {
	m := folderModel(t, Config{})
	assert.Equal(t, []string{"proj", "src", "README.md"}, labels(m))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"proj", "src", "pkg", "main.go", "README.md"}, labels(m))
	assert.Empty(t, m.loading)
	assert.Equal(t, 1, m.cursor)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, []string{"proj", "src", "README.md"}, labels(m))
}

func TestCloseMovesToParent(t *testing.T) {
	m := folderModel(t, Config{})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, "pkg", m.rows[m.cursor].Label)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, "src", m.rows[m.cursor].Label)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, []string{"proj", "src", "README.md"}, labels(m))
}

func TestExpandAllAndCollapseAll(t *testing.T) {
	m := folderModel(t, Config{})

	m = press(t, m, runes("E"))
	assert.False(t, m.walking())
	assert.Equal(t, []string{"proj", "src", "pkg", "util.go", "main.go", "README.md"}, labels(m))
	assert.Equal(t, "Expanded 6 node(s)", m.statusMessage)

	m = press(t, m, runes("C"))
	assert.Equal(t, []string{"proj"}, labels(m))
	assert.Equal(t, 0, m.cursor)
}

func TestExpandAllIgnoredWhileRunning(t *testing.T) {
	m := folderModel(t, Config{})

	next, cmd := m.Update(runes("E"))
	m = next.(Model)
	require.NotNil(t, cmd)
	walk := m.walk

	next, again := m.Update(runes("E"))
	m = next.(Model)
	assert.Nil(t, again)
	assert.Same(t, walk, m.walk)
}

func TestAdvancedIconsToggle(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	m := folderModel(t, Config{StatePath: statePath})
	assert.Equal(t, icons.FileEmoji, m.rows[2].Icon)

	m = press(t, m, runes("i"))
	assert.True(t, m.advancedIcons)
	assert.Equal(t, "[markdown]", m.rows[2].Icon)
	assert.Equal(t, "", m.busy)

	state, err := loadState(statePath)
	require.NoError(t, err)
	require.NotNil(t, state.AdvancedIcons)
	assert.True(t, *state.AdvancedIcons)

	// A new browser picks the saved choice over the configured default.
	again := folderModel(t, Config{StatePath: statePath})
	assert.True(t, again.advancedIcons)
}

func TestExportView(t *testing.T) {
	dir := t.TempDir()
	m := folderModel(t, Config{ExportDir: dir, ExportFormat: snapshot.FormatText})

	m = press(t, m, runes("x"))
	assert.Equal(t, "Exported to "+filepath.Join(dir, "proj_view.txt"), m.statusMessage)

	data, err := os.ReadFile(filepath.Join(dir, "proj_view.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "▼ 📁 proj\n"))
}

func TestExportFullAsksForFolders(t *testing.T) {
	dir := t.TempDir()
	m := folderModel(t, Config{ExportDir: dir})

	m = press(t, m, runes("X"))
	require.True(t, m.confirm.Active)
	assert.Contains(t, m.View(), "Export the full tree?")

	m = press(t, m, runes("y"))
	assert.False(t, m.confirm.Active)
	assert.FileExists(t, filepath.Join(dir, "proj_full.txt"))
	// The open set is restored after a full export.
	assert.Equal(t, []string{"proj", "src", "README.md"}, labels(m))

	m = press(t, m, runes("X"))
	m = press(t, m, runes("n"))
	assert.False(t, m.confirm.Active)
}

func TestConfirmMessagesCarryAction(t *testing.T) {
	c := confirm.New()
	c.Activate("sure?", "thing")
	c, cmd := c.Update(runes("y"))
	require.NotNil(t, cmd)
	assert.Equal(t, confirm.ConfirmedMsg{Action: "thing"}, cmd())
	assert.False(t, c.Active)
}

func TestReload(t *testing.T) {
	m := folderModel(t, Config{})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = press(t, m, runes("r"))
	assert.Equal(t, "Reloaded", m.statusMessage)
	assert.Equal(t, []string{"proj", "src", "pkg", "main.go", "README.md"}, labels(m))
}

func TestReloadSwapsRootOnUpdate(t *testing.T) {
	m := folderModel(t, Config{})
	root := m.sess.Root()

	next, cmd := m.Update(runes("r"))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, "Reloading", m.busy)

	msg := cmd()
	assert.Same(t, root, m.sess.Root(), "the command must not touch the session")

	next, _ = m.Update(msg)
	m = next.(Model)
	assert.NotSame(t, root, m.sess.Root())
	assert.Equal(t, "Reloaded", m.statusMessage)
	assert.Equal(t, []string{"proj", "src", "README.md"}, labels(m))
}

func TestCollapseAllDropsMarksOfRunningWalk(t *testing.T) {
	m := folderModel(t, Config{})

	next, cmd := m.Update(runes("E"))
	m = next.(Model)
	require.NotNil(t, cmd)
	walk := m.walk

	m = press(t, m, runes("C"))
	assert.False(t, m.walking())

	// A batch that passed its cancellation check before C keeps visiting.
	for i := 0; i < 3; i++ {
		_, err := walk.Step(context.Background())
		require.NoError(t, err)
	}
	next, _ = m.Update(walkSteppedMsg{walk: walk})
	m = next.(Model)

	assert.Equal(t, 0, m.sess.Tracker().Len())
	m.refresh()
	assert.Equal(t, []string{"proj"}, labels(m))
}

func TestViewShowsMetaAndRows(t *testing.T) {
	m := folderModel(t, Config{})
	out := m.View()
	assert.Contains(t, out, "Structure Viewer")
	assert.Contains(t, out, "Folder: proj")
	assert.Contains(t, out, "README.md")

	m = press(t, m, runes("?"))
	assert.True(t, m.help.ShowAll)
}

func TestShortenPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	assert.Equal(t, filepath.Join("~", "src", "x"), shortenPath(filepath.Join(home, "src", "x")))
	assert.Equal(t, "/elsewhere", shortenPath("/elsewhere"))
}
