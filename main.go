package main

import (
	"fmt"
	"os"

	"github.com/mattsolo1/grove-core/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mattsolo1/grove-structview/cmd"
	"github.com/mattsolo1/grove-structview/cmd/config"
)

var (
	app   *cmd.App
	stats bool
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"sv",
		"Browse folders, GitHub repositories and JSON documents as one lazy tree",
	)
	config.AddGlobalFlags(rootCmd)
	rootCmd.PersistentFlags().BoolVar(&stats, "stats", false, "Print load and traversal counters to stderr on exit")

	rootCmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		// This runs once before any subcommand
		config.InitConfig(c)

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		app, err = cmd.NewApp(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		return nil
	}

	// Add subcommands
	rootCmd.AddCommand(cmd.NewDirCmd(&app))
	rootCmd.AddCommand(cmd.NewRepoCmd(&app))
	rootCmd.AddCommand(cmd.NewJSONCmd(&app))
	rootCmd.AddCommand(cmd.NewYAMLCmd(&app))
	rootCmd.AddCommand(cmd.NewIconsCmd(&app))
	rootCmd.AddCommand(cmd.NewVersionCmd())

	err := rootCmd.Execute()

	if stats && app != nil {
		if werr := app.Metrics.Write(os.Stderr); werr != nil {
			fmt.Fprintf(os.Stderr, "failed to write stats: %v\n", werr)
		}
	}
	if app != nil {
		app.Close()
	}

	if err != nil {
		os.Exit(1)
	}
}
