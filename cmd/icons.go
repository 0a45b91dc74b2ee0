package cmd

import (
	"context"
	"fmt"
	"strings"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/mattsolo1/grove-core/tui/theme"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-structview/pkg/icons"
)

var iconsUlog = grovelogging.NewUnifiedLogger("grove-structview.cmd.icons")

// NewIconsCmd creates the `sv icons` command.
func NewIconsCmd(app **App) *cobra.Command {
	var fetch bool

	cmd := &cobra.Command{
		Use:   "icons <file>...",
		Short: "Show which icon a file name maps to",
		Long: `Show the extension, icon key and badge used for each file name.
With --fetch the icon is downloaded (or read from the cache) as well.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a := *app

			for _, name := range args {
				ext := icons.FileExtension(name)
				key, known := icons.KeyFor(ext)

				var b strings.Builder
				b.WriteString(theme.DefaultTheme.Highlight.Render(name))
				if !known {
					b.WriteString(theme.DefaultTheme.Muted.Render(fmt.Sprintf("  no icon for %q, using %s", ext, icons.FileEmoji)))
				} else {
					fmt.Fprintf(&b, "  ext=%s key=%s badge=%s", ext, key, icons.Badge(name))
				}

				var size int
				if fetch && known {
					dataURL, err := a.Resolver.Resolve(ctx, name)
					if err != nil {
						return fmt.Errorf("failed to fetch icon for %s: %w", name, err)
					}
					size = len(dataURL)
					fmt.Fprintf(&b, " data-url=%d bytes", size)
				}

				iconsUlog.Info("Icon").
					Field("name", name).
					Field("ext", ext).
					Field("key", key).
					Field("data_url_bytes", size).
					Pretty(b.String()).
					PrettyOnly().
					Log(ctx)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fetch, "fetch", false, "Download the icon and report its data URL size")
	return cmd
}
