package browser

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/mattsolo1/grove-core/tui/keymap"
)

// KeyMap defines the keybindings for the tree browser
type KeyMap struct {
	keymap.Base
	Toggle      key.Binding
	Open        key.Binding
	Close       key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Icons       key.Binding
	ExportView  key.Binding
	ExportFull  key.Binding
	Reload      key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	GoToTop     key.Binding
	GoToBottom  key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.ExpandAll, k.ExportView, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	baseHelp := k.Base.FullHelp()
	return append(baseHelp, []key.Binding{
		k.Toggle,
		k.Open,
		k.Close,
		k.ExpandAll,
		k.CollapseAll,
	}, []key.Binding{
		k.PageUp,
		k.PageDown,
		k.GoToTop,
		k.GoToBottom,
	}, []key.Binding{
		k.Icons,
		k.ExportView,
		k.ExportFull,
		k.Reload,
	})
}

var keys = KeyMap{
	Base: keymap.NewBase(),
	Toggle: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter/space", "toggle node"),
	),
	Open: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "open node"),
	),
	Close: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "close node / go to parent"),
	),
	ExpandAll: key.NewBinding(
		key.WithKeys("E"),
		key.WithHelp("E", "expand all"),
	),
	CollapseAll: key.NewBinding(
		key.WithKeys("C"),
		key.WithHelp("C", "collapse all"),
	),
	Icons: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "toggle advanced icons"),
	),
	ExportView: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "export view"),
	),
	ExportFull: key.NewBinding(
		key.WithKeys("X"),
		key.WithHelp("X", "export full tree"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload source"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u"),
		key.WithHelp("ctrl+u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "page down"),
	),
	GoToTop: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("gg", "go to top"),
	),
	GoToBottom: key.NewBinding(
		key.WithKeys("G"),
		key.WithHelp("G", "go to bottom"),
	),
}
