package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-structview/internal/tui/browser"
	"github.com/mattsolo1/grove-structview/pkg/render"
	"github.com/mattsolo1/grove-structview/pkg/snapshot"
)

var openUlog = grovelogging.NewUnifiedLogger("grove-structview.cmd.open")

// viewFlags selects what happens with a loaded tree.
type viewFlags struct {
	print  bool
	export string
	format string
	out    string
}

func addViewFlags(cmd *cobra.Command, f *viewFlags) {
	cmd.Flags().BoolVarP(&f.print, "print", "p", false, "Print the tree instead of opening the browser")
	cmd.Flags().StringVar(&f.export, "export", "", "Export a snapshot: 'view' (root level) or 'full' (every node)")
	cmd.Flags().StringVar(&f.format, "format", "", "Export format: text, markdown, json or yaml (default from config)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Export directory, or '-' for stdout (default from config)")
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// present shows the session's tree according to the flags: an export, a
// printed tree, or the interactive browser.
func present(ctx context.Context, app *App, f *viewFlags) error {
	switch {
	case f.export != "":
		return exportTree(ctx, app, f, os.Stdout)
	case f.print || !isTerminal(os.Stdout):
		return printTree(app, os.Stdout, isTerminal(os.Stdout))
	default:
		return runBrowser(app)
	}
}

func printTree(app *App, w io.Writer, color bool) error {
	styles := render.PlainStyles()
	if color {
		theme, err := render.ParseTheme(app.Config.Theme)
		if err != nil {
			return err
		}
		styles = render.NewStyles(theme)
	}
	_, err := io.WriteString(w, render.Text(app.Session.Rows(), styles))
	return err
}

func exportTree(ctx context.Context, app *App, f *viewFlags, stdout io.Writer) error {
	var full bool
	switch f.export {
	case "view":
	case "full":
		full = true
	default:
		return fmt.Errorf("invalid --export %q: expected view or full", f.export)
	}

	formatName := f.format
	if formatName == "" {
		formatName = app.Config.Export.Format
	}
	format, err := snapshot.ParseFormat(formatName)
	if err != nil {
		return err
	}

	opts := snapshot.Options{
		Full:   full,
		Format: format,
		Logger: app.Logger.WithField("component", "snapshot"),
	}
	if app.Config.Export.Color {
		theme, err := render.ParseTheme(app.Config.Theme)
		if err != nil {
			return err
		}
		styles := render.NewStyles(theme)
		opts.Styles = &styles
	}
	if app.Config.AdvancedIcons {
		opts.Icons = app.Resolver
	}

	res, err := snapshot.Export(ctx, app.Session, opts)
	if err != nil {
		return err
	}

	if f.out == "-" {
		_, err := stdout.Write(res.Data)
		return err
	}

	dir := f.out
	if dir == "" {
		dir = app.Config.Export.Dir
	}
	path, err := snapshot.WriteFile(dir, res)
	if err != nil {
		return err
	}

	pretty := fmt.Sprintf("Exported: %s", path)
	if n := len(res.Progress.Failures); n > 0 {
		pretty += fmt.Sprintf(" (%d folder(s) could not be read)", n)
	}
	openUlog.Success("Snapshot exported").
		Field("path", path).
		Field("full", full).
		Field("format", string(format)).
		Field("failures", len(res.Progress.Failures)).
		Pretty(pretty).
		PrettyOnly().
		Log(ctx)
	return nil
}

func runBrowser(app *App) error {
	theme, err := render.ParseTheme(app.Config.Theme)
	if err != nil {
		return err
	}
	format, err := snapshot.ParseFormat(app.Config.Export.Format)
	if err != nil {
		return err
	}

	model := browser.New(app.Session, browser.Config{
		AdvancedIcons: app.Config.AdvancedIcons,
		Resolver:      app.Resolver,
		Theme:         theme,
		ExportFormat:  format,
		ExportDir:     app.Config.Export.Dir,
	})
	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if !isTerminal(os.Stdin) {
		// The document came in on stdin; read keys from the terminal.
		progOpts = append(progOpts, tea.WithInputTTY())
	}
	p := tea.NewProgram(model, progOpts...)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
