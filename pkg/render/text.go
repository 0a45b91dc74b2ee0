package render

import (
	"strings"

	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// Indent is the per-level indentation of text output.
const Indent = "  "

// Line formats a single row.
func Line(r Row, s Styles) string {
	label := r.Label
	switch {
	case r.Warning:
		label = s.Warning.Render(label)
	case r.Node.Kind() == tree.KindDirectory:
		label = s.Dir.Render(label)
	case r.Node.Kind() == tree.KindFile:
		label = s.File.Render(label)
	default:
		label = s.Value.Render(label)
	}
	return strings.Repeat(Indent, r.Depth) + s.Twisty.Render(r.Twisty) + " " + r.Icon + " " + label
}

// Text formats rows one per line, with a trailing newline.
func Text(rows []Row, s Styles) string {
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(Line(r, s))
		b.WriteByte('\n')
	}
	return b.String()
}
