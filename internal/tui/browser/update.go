package browser

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattsolo1/grove-structview/internal/tui/browser/components/confirm"
	"github.com/mattsolo1/grove-structview/pkg/session"
	"github.com/mattsolo1/grove-structview/pkg/snapshot"
	"github.com/mattsolo1/grove-structview/pkg/tree"
)

const actionExportFull = "export-full"

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.SetSize(msg.Width, msg.Height)
		m.adjustScroll()
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case nodeLoadedMsg:
		delete(m.loading, msg.id)
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("Error: %v", msg.err)
		}
		if m.busy == "" {
			m.refresh()
		}
		return m, nil

	case walkSteppedMsg:
		if msg.walk != m.walk {
			// A stale walk from before a collapse. Its marks are dropped.
			return m, nil
		}
		m.walkMarks.MoveTo(m.sess.Tracker())
		progress := msg.walk.Progress()
		m.refresh()
		if msg.err != nil || msg.done {
			m.stopWalk()
			m.statusMessage = expandSummary(progress.Visited, len(progress.Failures))
			if msg.err != nil {
				m.statusMessage = fmt.Sprintf("Expand all stopped: %v", msg.err)
			}
			return m, nil
		}
		m.statusMessage = fmt.Sprintf("Expanding… %d visited, %d queued", progress.Visited, progress.Queued)
		return m, stepWalkCmd(m.walkCtx, msg.walk)

	case exportedMsg:
		m.busy = ""
		m.refresh()
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("Export failed: %v", msg.err)
			return m, nil
		}
		m.statusMessage = fmt.Sprintf("Exported to %s", msg.path)
		if n := len(msg.progress.Failures); n > 0 {
			m.statusMessage += fmt.Sprintf(" (%d folder(s) could not be read)", n)
		}
		return m, nil

	case rerenderedMsg:
		m.busy = ""
		err := msg.err
		if err == nil {
			err = m.sess.Commit(msg.pending)
		}
		m.refresh()
		if err != nil {
			m.statusMessage = fmt.Sprintf("Error: %v", err)
		}
		return m, nil

	case reloadedMsg:
		m.busy = ""
		err := msg.err
		if err == nil {
			err = m.sess.Commit(msg.pending)
		}
		m.loading = make(map[tree.ID]bool)
		m.refresh()
		if err != nil {
			m.statusMessage = fmt.Sprintf("Reload failed: %v", err)
			return m, nil
		}
		m.statusMessage = "Reloaded"
		return m, nil

	case confirm.ConfirmedMsg:
		if msg.Action == actionExportFull {
			return m.startExport(true)
		}
		return m, nil

	case confirm.CancelledMsg:
		m.statusMessage = ""
		return m, nil

	case tea.KeyMsg:
		if m.help.ShowAll {
			m.help.Toggle()
			return m, nil
		}

		if m.confirm.Active {
			m.confirm, cmd = m.confirm.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.Toggle()
			return m, nil
		}

		if m.busy != "" {
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustScroll()
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				m.adjustScroll()
			}
		case key.Matches(msg, m.keys.PageUp):
			pageSize := m.getViewportHeight() / 2
			if pageSize < 1 {
				pageSize = 1
			}
			m.cursor -= pageSize
			if m.cursor < 0 {
				m.cursor = 0
			}
			m.adjustScroll()
		case key.Matches(msg, m.keys.PageDown):
			pageSize := m.getViewportHeight() / 2
			if pageSize < 1 {
				pageSize = 1
			}
			m.cursor += pageSize
			if m.cursor >= len(m.rows) {
				m.cursor = len(m.rows) - 1
			}
			m.adjustScroll()
		case key.Matches(msg, m.keys.GoToTop):
			// Handle 'gg' - go to top when g is pressed twice
			if m.lastKey == "g" {
				m.cursor = 0
				m.adjustScroll()
				m.lastKey = ""
			} else {
				m.lastKey = "g"
			}
			return m, nil
		case key.Matches(msg, m.keys.GoToBottom):
			if len(m.rows) > 0 {
				m.cursor = len(m.rows) - 1
				m.adjustScroll()
			}
		case key.Matches(msg, m.keys.Toggle):
			cmd = m.toggleSelected()
		case key.Matches(msg, m.keys.Open):
			if n := m.selected(); n != nil && !m.sess.Tracker().IsExpanded(n.ID()) {
				cmd = m.toggleSelected()
			}
		case key.Matches(msg, m.keys.Close):
			m.closeOrAscend()
		case key.Matches(msg, m.keys.ExpandAll):
			// Ignored while a walk is already running.
			if !m.walking() && m.sess.Root() != nil {
				m.walk, m.walkMarks = m.sess.StagedExpandAllWalk()
				m.walkCtx, m.walkCancel = context.WithCancel(context.Background())
				m.statusMessage = "Expanding…"
				cmd = stepWalkCmd(m.walkCtx, m.walk)
			}
		case key.Matches(msg, m.keys.CollapseAll):
			m.stopWalk()
			m.sess.CollapseAll()
			m.cursor = 0
			m.statusMessage = ""
			m.refresh()
		case key.Matches(msg, m.keys.Icons):
			if m.walking() {
				return m, nil
			}
			m.advancedIcons = !m.advancedIcons
			if err := m.saveState(); err != nil {
				m.statusMessage = fmt.Sprintf("Could not save settings: %v", err)
			}
			m.applyRenderOptions()
			job, err := m.sess.PrepareRerender(nil)
			if err != nil {
				m.refresh()
				return m, nil
			}
			m.busy = "Rerendering"
			cmd = rerenderCmd(job)
		case key.Matches(msg, m.keys.ExportView):
			if !m.walking() {
				return m.startExport(false)
			}
		case key.Matches(msg, m.keys.ExportFull):
			if m.walking() {
				return m, nil
			}
			if m.sess.Mode() == session.ModeFolder {
				m.confirm.Activate("Export the full tree? Every folder will be read.", actionExportFull)
				return m, nil
			}
			return m.startExport(true)
		case key.Matches(msg, m.keys.Reload):
			if m.walking() {
				return m, nil
			}
			job, err := m.sess.PrepareReload()
			if err != nil {
				m.statusMessage = fmt.Sprintf("Reload failed: %v", err)
				return m, nil
			}
			m.busy = "Reloading"
			cmd = reloadCmd(job)
		}
		m.lastKey = ""
		return m, cmd
	}

	return m, nil
}

// toggleSelected collapses or opens the node under the cursor, loading it in
// the background when needed.
func (m *Model) toggleSelected() tea.Cmd {
	n := m.selected()
	if n == nil || m.rows[m.cursor].Warning {
		return nil
	}
	if m.sess.Tracker().IsExpanded(n.ID()) {
		m.sess.Collapse(n.ID())
		m.refresh()
		return nil
	}
	if _, err := m.sess.Open(n.ID()); err != nil {
		m.statusMessage = fmt.Sprintf("Error: %v", err)
		return nil
	}
	m.refresh()
	if n.Loaded() || !n.HasChildren() || m.loading[n.ID()] {
		return nil
	}
	m.loading[n.ID()] = true
	return loadNodeCmd(m.sess, n.ID())
}

// closeOrAscend collapses the node under the cursor, or moves to its parent
// when it is already closed.
func (m *Model) closeOrAscend() {
	n := m.selected()
	if n == nil {
		return
	}
	row := m.rows[m.cursor]
	if !row.Warning && m.sess.Tracker().IsExpanded(n.ID()) {
		m.sess.Collapse(n.ID())
		m.refresh()
		return
	}
	for i := m.cursor - 1; i >= 0; i-- {
		if m.rows[i].Depth < row.Depth && !m.rows[i].Warning {
			m.cursor = i
			m.adjustScroll()
			return
		}
	}
}

func (m Model) startExport(full bool) (tea.Model, tea.Cmd) {
	opts := snapshot.Options{
		Full:   full,
		Format: m.cfg.ExportFormat,
	}
	if m.advancedIcons {
		opts.Icons = m.cfg.Resolver
	}
	m.busy = "Exporting"
	m.statusMessage = ""
	return m, exportCmd(m.sess, opts, m.cfg.ExportDir)
}

// stopWalk cancels and forgets the running expand-all walk.
func (m *Model) stopWalk() {
	if m.walkCancel != nil {
		m.walkCancel()
	}
	m.walk, m.walkMarks = nil, nil
	m.walkCtx, m.walkCancel = nil, nil
}

func expandSummary(visited, failed int) string {
	s := fmt.Sprintf("Expanded %d node(s)", visited)
	if failed > 0 {
		s += fmt.Sprintf(", %d could not be read", failed)
	}
	return s
}

func (m *Model) getViewportHeight() int {
	// Account for:
	// - Top margin: 1 line
	// - Header and meta: 2 lines
	// - Blank line after header: 1 line
	// - Blank line before footer: 1 line
	// - Status bar: 1 line
	// - Footer (help): 1 line
	// - Scroll indicator (when shown): 2 lines (blank + indicator)
	const fixedLines = 9
	availableHeight := m.height - fixedLines
	if availableHeight < 1 {
		return 1
	}
	return availableHeight
}

// adjustScroll ensures the cursor is visible in the viewport.
func (m *Model) adjustScroll() {
	viewportHeight := m.getViewportHeight()
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+viewportHeight {
		m.scrollOffset = m.cursor - viewportHeight + 1
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}
