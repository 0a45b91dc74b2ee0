// Package snapshot exports the tree as text, markdown, JSON or YAML, either
// as currently shown or fully expanded.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-structview/pkg/icons"
	"github.com/mattsolo1/grove-structview/pkg/render"
	"github.com/mattsolo1/grove-structview/pkg/traverse"
	"github.com/mattsolo1/grove-structview/pkg/tree"
	"github.com/mattsolo1/grove-structview/pkg/viewstate"
)

// Format is an export encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "txt":
		return FormatText, nil
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	case FormatText, FormatMarkdown, FormatJSON, FormatYAML:
		return f, nil
	default:
		return FormatText, fmt.Errorf("unknown export format %q (want text, markdown, json or yaml)", s)
	}
}

// Ext returns the file extension of the format.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "txt"
	}
}

// Source is the view being exported.
type Source interface {
	Root() *tree.Node
	Rows() []render.Row
	Meta() string
	Tracker() *viewstate.Tracker
	ExpandAll(ctx context.Context) (traverse.Progress, error)
	CollapseAll()
	Restore(ctx context.Context, saved viewstate.State) (traverse.Progress, error)
}

// Options controls an export.
type Options struct {
	// Full expands the whole tree for the export and restores the
	// previously open nodes afterwards.
	Full   bool
	Format Format
	// Styles applies to text output. Zero value means plain.
	Styles *render.Styles
	// Icons, when set, embeds file artwork in markdown and names it in
	// JSON/YAML. Failures fall back to emoji.
	Icons  *icons.Resolver
	Logger *logrus.Entry
}

// Result is a rendered export.
type Result struct {
	Name string
	Data []byte
	// Progress is the expand-all progress of a full export.
	Progress traverse.Progress
}

// Export renders src.
func Export(ctx context.Context, src Source, opts Options) (*Result, error) {
	root := src.Root()
	if root == nil {
		return nil, fmt.Errorf("nothing to export: no tree loaded")
	}
	log := opts.Logger
	if log == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		log = logrus.NewEntry(logger)
	}
	log = log.WithField("component", "snapshot")

	res := &Result{Name: FileName(root.Label(), opts.Full, opts.Format)}

	var rows []render.Row
	if opts.Full {
		saved := src.Tracker().Capture()
		restore := func() error {
			src.CollapseAll()
			// Reopening runs even when ctx ended the expansion.
			_, err := src.Restore(context.WithoutCancel(ctx), saved)
			return err
		}

		progress, err := src.ExpandAll(ctx)
		res.Progress = progress
		if err != nil {
			if rerr := restore(); rerr != nil {
				log.WithError(rerr).Warn("could not restore the view after a failed export")
			}
			return nil, fmt.Errorf("expand all for export: %w", err)
		}
		if n := len(progress.Failures); n > 0 {
			log.WithField("failed", n).Warn("some nodes could not be loaded for the export")
		}
		rows = src.Rows()

		if err := restore(); err != nil {
			return nil, fmt.Errorf("restore view after export: %w", err)
		}
	} else {
		rows = src.Rows()
	}

	data, err := encode(ctx, rows, src.Meta(), opts)
	if err != nil {
		return nil, err
	}
	res.Data = data
	return res, nil
}

func encode(ctx context.Context, rows []render.Row, meta string, opts Options) ([]byte, error) {
	switch opts.Format {
	case FormatMarkdown:
		return markdown(ctx, rows, meta, opts.Icons), nil
	case FormatJSON:
		return encodeJSON(nest(rows, opts.Icons))
	case FormatYAML:
		return encodeYAML(nest(rows, opts.Icons))
	default:
		styles := render.PlainStyles()
		if opts.Styles != nil {
			styles = *opts.Styles
		}
		return []byte(render.Text(rows, styles)), nil
	}
}

var unsafeName = regexp.MustCompile(`[^\w\-]+`)

// FileName returns "<safe label>_<full|view>.<ext>".
func FileName(label string, full bool, f Format) string {
	kind := "view"
	if full {
		kind = "full"
	}
	return unsafeName.ReplaceAllString(label, "_") + "_" + kind + "." + f.Ext()
}

// WriteFile writes res into dir and returns the file path.
func WriteFile(dir string, res *Result) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	p := filepath.Join(dir, res.Name)
	if err := os.WriteFile(p, res.Data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return p, nil
}
