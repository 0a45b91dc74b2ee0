package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattsolo1/grove-core/tui/theme"

	"github.com/mattsolo1/grove-structview/pkg/render"
)

func (m Model) View() string {
	if m.help.ShowAll {
		return m.help.View()
	}

	header := theme.DefaultTheme.Header.Render("Structure Viewer")
	if m.advancedIcons {
		header += " " + theme.DefaultTheme.Info.Render("[advanced icons]")
	}
	meta := m.styles.Meta.Render(m.sess.Meta())
	if dir := m.sess.Dir(); dir != "" && m.width > 0 {
		meta += " " + theme.DefaultTheme.Muted.Render("("+shortenPath(dir)+")")
	}

	var body string
	if m.confirm.Active {
		body = m.confirm.View()
	} else if len(m.rows) == 0 {
		body = theme.DefaultTheme.Muted.Render("No data loaded.")
	} else {
		body = m.renderTreeView()
	}

	footer := m.help.View()

	// Combine components vertically
	fullView := lipgloss.JoinVertical(lipgloss.Left,
		header,
		meta,
		"", // This adds a blank line for spacing
		body,
		"", // Another blank line for spacing
		m.renderStatus(),
		footer,
	)

	// Add top margin to prevent border cutoff
	return "\n" + fullView
}

func (m Model) renderTreeView() string {
	var b strings.Builder

	// Viewport calculation
	viewportHeight := m.getViewportHeight()
	start := m.scrollOffset
	end := m.scrollOffset + viewportHeight
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := start; i < end; i++ {
		row := m.rows[i]
		cursor := "  "
		if i == m.cursor {
			cursor = theme.DefaultTheme.Highlight.Render("▶ ")
		}

		line := render.Line(row, m.styles)
		if !row.Warning && m.loading[row.Node.ID()] {
			line += " " + m.spinner.View()
		}
		if i == m.cursor {
			line = lipgloss.NewStyle().Bold(true).Render(line)
		}
		b.WriteString(cursor + line)
		b.WriteString("\n")
	}

	// Scroll indicator
	if len(m.rows) > viewportHeight {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf(" (%d-%d of %d)", start+1, end, len(m.rows))))
	}

	return b.String()
}

func (m Model) renderStatus() string {
	switch {
	case m.busy != "":
		return m.spinner.View() + " " + theme.DefaultTheme.Info.Render(m.busy+"…")
	case m.walking():
		return m.spinner.View() + " " + theme.DefaultTheme.Info.Render(m.statusMessage)
	case m.statusMessage != "":
		return theme.DefaultTheme.Muted.Render(m.statusMessage)
	default:
		return ""
	}
}
