package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-structview/pkg/icons"
	"github.com/mattsolo1/grove-structview/pkg/render"
	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// Entry is the structured form of an exported row.
type Entry struct {
	Label    string   `json:"label" yaml:"label"`
	Kind     string   `json:"kind" yaml:"kind"`
	Icon     string   `json:"icon,omitempty" yaml:"icon,omitempty"`
	Expanded bool     `json:"expanded,omitempty" yaml:"expanded,omitempty"`
	Warning  bool     `json:"warning,omitempty" yaml:"warning,omitempty"`
	Children []*Entry `json:"children,omitempty" yaml:"children,omitempty"`
}

// nest rebuilds the row hierarchy from row depths.
func nest(rows []render.Row, resolver *icons.Resolver) *Entry {
	var root *Entry
	var stack []*Entry
	for _, r := range rows {
		e := &Entry{Label: r.Label, Expanded: r.Expanded, Warning: r.Warning}
		if r.Warning {
			e.Kind = "warning"
		} else {
			e.Kind = string(r.Node.Kind())
			if r.Node.Kind() == tree.KindFile && resolver != nil {
				if key, ok := icons.KeyFor(icons.FileExtension(r.Label)); ok {
					e.Icon = key
				}
			}
		}

		if r.Depth == 0 || len(stack) == 0 {
			root = e
			stack = []*Entry{e}
			continue
		}
		if r.Depth > len(stack) {
			r.Depth = len(stack)
		}
		stack = stack[:r.Depth]
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, e)
		stack = append(stack, e)
	}
	return root
}

func encodeJSON(e *Entry) ([]byte, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return append(data, '\n'), nil
}

func encodeYAML(e *Entry) ([]byte, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(e); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return []byte(b.String()), nil
}

// markdown renders a nested bullet list. With a resolver, file rows embed
// their artwork as data-URL images.
func markdown(ctx context.Context, rows []render.Row, meta string, resolver *icons.Resolver) []byte {
	var b strings.Builder
	if len(rows) > 0 {
		fmt.Fprintf(&b, "# %s\n\n", rows[0].Label)
	}
	if meta != "" {
		fmt.Fprintf(&b, "_%s_\n\n", meta)
	}
	for _, r := range rows {
		icon := r.Icon
		if !r.Warning && r.Node.Kind() == tree.KindFile && resolver != nil {
			if dataURL, err := resolver.Resolve(ctx, r.Label); err == nil && dataURL != "" {
				icon = fmt.Sprintf("![%s](%s)", icons.FileExtension(r.Label), dataURL)
			}
		}
		fmt.Fprintf(&b, "%s- %s %s %s\n", strings.Repeat("  ", r.Depth), r.Twisty, icon, escapeMarkdown(r.Label))
	}
	return []byte(b.String())
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
