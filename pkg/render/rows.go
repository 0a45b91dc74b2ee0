// Package render flattens the visible part of a tree into rows and formats
// them as text.
package render

import (
	"github.com/mattsolo1/grove-structview/pkg/icons"
	"github.com/mattsolo1/grove-structview/pkg/traverse"
	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// Twisty glyphs.
const (
	TwistyCollapsed = "▶"
	TwistyExpanded  = "▼"
	TwistyLeaf      = "•"
	TwistyFailed    = "!"
)

// FailedFolderText is shown under an expanded node whose load failed.
const FailedFolderText = "Failed to read folder (permissions?)"

// Row is one visible line of the tree.
type Row struct {
	// Node is the node shown, or the failed node for a warning row.
	Node     *tree.Node
	Depth    int
	Path     traverse.Path
	Expanded bool
	Twisty   string
	Icon     string
	Label    string
	// Warning marks the synthetic row placed under a failed node.
	Warning bool
}

// ExpansionState reports which nodes are expanded.
type ExpansionState interface {
	IsExpanded(id tree.ID) bool
}

// Options controls how rows are decorated.
type Options struct {
	// FileGlyph returns the icon of a file when set, e.g. a badge for
	// advanced icons. The default is the file emoji.
	FileGlyph func(name string) string
}

// Rows returns the visible rows under root in display order. Only expanded
// nodes whose children are loaded are descended into.
func Rows(root *tree.Node, state ExpansionState, opts Options) []Row {
	if root == nil {
		return nil
	}
	var rows []Row
	var walk func(n *tree.Node, depth int, path traverse.Path)
	walk = func(n *tree.Node, depth int, path traverse.Path) {
		expanded := state != nil && state.IsExpanded(n.ID())
		rows = append(rows, Row{
			Node:     n,
			Depth:    depth,
			Path:     path,
			Expanded: expanded,
			Twisty:   twisty(n, expanded),
			Icon:     iconFor(n, opts),
			Label:    n.Label(),
		})
		if !expanded {
			return
		}
		if n.Err() != nil && !n.Loaded() {
			rows = append(rows, Row{
				Node:    n,
				Depth:   depth + 1,
				Path:    path,
				Twisty:  TwistyLeaf,
				Icon:    icons.WarnEmoji,
				Label:   FailedFolderText,
				Warning: true,
			})
			return
		}
		if !n.Loaded() {
			return
		}
		for _, ch := range n.Children() {
			walk(ch, depth+1, path.Child(ch.Label()))
		}
	}
	walk(root, 0, traverse.Path{root.Label()})
	return rows
}

func twisty(n *tree.Node, expanded bool) string {
	switch {
	case n.Err() != nil && !n.Loaded():
		return TwistyFailed
	case !n.HasChildren():
		return TwistyLeaf
	case expanded:
		return TwistyExpanded
	default:
		return TwistyCollapsed
	}
}

func iconFor(n *tree.Node, opts Options) string {
	if n.Kind() == tree.KindFile && opts.FileGlyph != nil {
		return opts.FileGlyph(n.Label())
	}
	return icons.Emoji(n.Kind())
}

// Find returns the index of the row showing id, or -1.
func Find(rows []Row, id tree.ID) int {
	for i, r := range rows {
		if !r.Warning && r.Node != nil && r.Node.ID() == id {
			return i
		}
	}
	return -1
}
