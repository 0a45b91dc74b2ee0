package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/mattsolo1/grove-core/version"
	"github.com/spf13/cobra"
)

var versionUlog = grovelogging.NewUnifiedLogger("grove-structview.cmd.version")

type versionReport struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Branch   string `json:"branch"`
	Go       string `json:"go"`
	Platform string `json:"platform"`
}

// NewVersionCmd creates the `sv version` command.
func NewVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display the version, commit and branch sv was built from, plus the Go runtime it runs on",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()
			report := versionReport{
				Version:  info.Version,
				Commit:   info.Commit,
				Branch:   info.Branch,
				Go:       runtime.Version(),
				Platform: runtime.GOOS + "/" + runtime.GOARCH,
			}

			pretty := fmt.Sprintf("%s\n%s (%s)", info.String(), report.Go, report.Platform)
			if jsonOutput {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal version info to JSON: %w", err)
				}
				pretty = string(data)
			}

			versionUlog.Info("Version info").
				Field("version", report.Version).
				Field("commit", report.Commit).
				Field("go", report.Go).
				Pretty(pretty).
				PrettyOnly().
				Log(context.Background())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version information in JSON format")

	return cmd
}
