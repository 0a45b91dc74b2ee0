// Package confirm is a yes/no prompt shown in place of the tree.
package confirm

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattsolo1/grove-core/tui/theme"
)

// ConfirmedMsg is sent when the user accepts the prompt for Action.
type ConfirmedMsg struct{ Action string }

// CancelledMsg is sent when the user declines the prompt for Action.
type CancelledMsg struct{ Action string }

var (
	yesKey = key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes"))
	noKey  = key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n/esc", "no"))
)

// Model is an inactive prompt until Activate is called.
type Model struct {
	Active bool
	Prompt string
	Action string
}

func New() Model {
	return Model{}
}

// Activate shows prompt. action is echoed back in the resulting message so
// one dialog can serve several actions.
func (m *Model) Activate(prompt, action string) {
	m.Prompt = prompt
	m.Action = action
	m.Active = true
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !m.Active || !ok {
		return m, nil
	}

	var reply tea.Msg
	switch {
	case key.Matches(keyMsg, yesKey):
		reply = ConfirmedMsg{Action: m.Action}
	case key.Matches(keyMsg, noKey):
		reply = CancelledMsg{Action: m.Action}
	default:
		return m, nil
	}
	m.Active = false
	return m, func() tea.Msg { return reply }
}

func (m Model) View() string {
	if !m.Active {
		return ""
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.DefaultTheme.Colors.Orange).
		Padding(0, 2).
		Render(m.Prompt)

	hint := theme.DefaultTheme.Muted.
		Width(lipgloss.Width(box)).
		Align(lipgloss.Center).
		Render(yesKey.Help().Key + " " + yesKey.Help().Desc + " • " + noKey.Help().Key + " " + noKey.Help().Desc)

	return lipgloss.JoinVertical(lipgloss.Left, box, hint)
}
