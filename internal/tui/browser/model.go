package browser

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattsolo1/grove-core/tui/components/help"
	"github.com/mattsolo1/grove-core/tui/theme"

	"github.com/mattsolo1/grove-structview/internal/tui/browser/components/confirm"
	"github.com/mattsolo1/grove-structview/pkg/icons"
	"github.com/mattsolo1/grove-structview/pkg/render"
	"github.com/mattsolo1/grove-structview/pkg/session"
	"github.com/mattsolo1/grove-structview/pkg/snapshot"
	"github.com/mattsolo1/grove-structview/pkg/traverse"
	"github.com/mattsolo1/grove-structview/pkg/tree"
	"github.com/mattsolo1/grove-structview/pkg/viewstate"
)

// Config holds the browser's settings.
type Config struct {
	AdvancedIcons bool
	Resolver      *icons.Resolver
	Theme         render.Theme
	ExportFormat  snapshot.Format
	ExportDir     string
	// StatePath overrides the file remembering TUI toggles.
	StatePath string
}

// Model is the main model for the tree browser TUI
type Model struct {
	sess   *session.Session
	cfg    Config
	styles render.Styles

	rows         []render.Row
	cursor       int
	scrollOffset int
	keys         KeyMap
	help         help.Model
	spinner      spinner.Model
	confirm      confirm.Model
	width        int
	height       int
	lastKey      string // For detecting 'gg'

	advancedIcons bool
	loading       map[tree.ID]bool
	walk          *traverse.Walk
	walkMarks     *viewstate.Tracker // Marks of walk not yet shown
	walkCtx       context.Context
	walkCancel    context.CancelFunc
	busy          string // Non-empty while an export, rerender or reload runs
	statusMessage string
}

// New creates a new TUI model over a session that already holds a tree.
func New(sess *session.Session, cfg Config) Model {
	helpModel := help.NewBuilder().
		WithKeys(keys).
		WithTitle("Structure Viewer - Help").
		Build()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.DefaultTheme.Colors.Orange)

	if cfg.ExportFormat == "" {
		cfg.ExportFormat = snapshot.FormatText
	}

	advanced := cfg.AdvancedIcons
	if state, err := loadState(cfg.StatePath); err == nil && state.AdvancedIcons != nil {
		advanced = *state.AdvancedIcons
	}

	m := Model{
		sess:          sess,
		cfg:           cfg,
		styles:        render.NewStyles(cfg.Theme),
		keys:          keys,
		help:          helpModel,
		spinner:       sp,
		confirm:       confirm.New(),
		advancedIcons: advanced,
		loading:       make(map[tree.ID]bool),
	}
	m.applyRenderOptions()
	m.refresh()
	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// applyRenderOptions pushes the icon mode into the session.
func (m *Model) applyRenderOptions() {
	var opts render.Options
	if m.advancedIcons {
		if m.cfg.Resolver != nil {
			opts.FileGlyph = m.cfg.Resolver.Glyph
		} else {
			opts.FileGlyph = func(name string) string {
				if b := icons.Badge(name); b != "" {
					return b
				}
				return icons.FileEmoji
			}
		}
	}
	m.sess.SetRenderOptions(opts)
}

// refresh recomputes the visible rows and keeps the cursor on the same node.
func (m *Model) refresh() {
	var current tree.ID
	if n := m.selected(); n != nil {
		current = n.ID()
	}
	m.rows = m.sess.Rows()
	if current != "" {
		if i := render.Find(m.rows, current); i >= 0 {
			m.cursor = i
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.adjustScroll()
}

// selected returns the node under the cursor.
func (m *Model) selected() *tree.Node {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].Node
}

// walking reports whether an expand-all walk is in progress.
func (m *Model) walking() bool {
	return m.walk != nil
}

// tuiState holds persistent TUI settings
type tuiState struct {
	AdvancedIcons *bool `json:"advanced_icons,omitempty"`
}

// getStateFilePath returns the path to the TUI state file
func getStateFilePath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".grove", "sv", "tui-state.json"), nil
}

// loadState loads the TUI state from disk
func loadState(override string) (*tuiState, error) {
	path, err := getStateFilePath(override)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &tuiState{}, nil
		}
		return nil, err
	}

	var state tuiState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

// saveState saves the TUI state to disk
func (m *Model) saveState() error {
	path, err := getStateFilePath(m.cfg.StatePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	advanced := m.advancedIcons
	data, err := json.MarshalIndent(tuiState{AdvancedIcons: &advanced}, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
