package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewDirCmd creates the `sv dir` command.
func NewDirCmd(app **App) *cobra.Command {
	var flags viewFlags

	cmd := &cobra.Command{
		Use:   "dir [path]",
		Short: "Browse a local directory",
		Long: `Browse a local directory. Folders are read when they are opened.

Examples:
  sv dir                       # Browse the current directory
  sv dir ~/src --print         # Print the root level
  sv dir . --export full       # Write every folder to ./<name>_full.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a := *app

			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			if err := a.Session.LoadDirectory(ctx, path); err != nil {
				return err
			}
			return present(ctx, a, &flags)
		},
	}

	addViewFlags(cmd, &flags)
	return cmd
}

// NewRepoCmd creates the `sv repo` command.
func NewRepoCmd(app **App) *cobra.Command {
	var (
		flags  viewFlags
		branch string
	)

	cmd := &cobra.Command{
		Use:   "repo <owner/name>",
		Short: "Browse the file tree of a GitHub repository",
		Long: `Browse the file tree of a GitHub repository. The whole listing is
fetched once; opening folders afterwards does not touch the network.

Examples:
  sv repo golang/go
  sv repo golang/go --branch release-branch.go1.22 --print`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a := *app

			if err := a.Session.LoadRepository(ctx, args[0], branch); err != nil {
				return err
			}
			return present(ctx, a, &flags)
		},
	}

	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Branch to list (default: the repository's default branch)")
	addViewFlags(cmd, &flags)
	return cmd
}

// NewJSONCmd creates the `sv json` command.
func NewJSONCmd(app **App) *cobra.Command {
	var flags viewFlags

	cmd := &cobra.Command{
		Use:   "json <file|->",
		Short: "Browse a JSON document",
		Long: `Browse a JSON document read from a file or from stdin ('-').
Array elements are named after their first priority field (name, username,
title or id by default).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			name, data, err := readDocument(args[0], cmd.InOrStdin(), "stdin.json")
			if err != nil {
				return err
			}
			if err := a.Session.LoadJSON(name, data); err != nil {
				return err
			}
			return present(context.Background(), a, &flags)
		},
	}

	addViewFlags(cmd, &flags)
	return cmd
}

// NewYAMLCmd creates the `sv yaml` command.
func NewYAMLCmd(app **App) *cobra.Command {
	var flags viewFlags

	cmd := &cobra.Command{
		Use:   "yaml <file|->",
		Short: "Browse a YAML document",
		Long: `Browse a YAML document read from a file or from stdin ('-').
The document is shown the same way a JSON document is.`,
		Aliases: []string{"yml"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			name, data, err := readDocument(args[0], cmd.InOrStdin(), "stdin.yaml")
			if err != nil {
				return err
			}
			if err := a.Session.LoadYAML(name, data); err != nil {
				return err
			}
			return present(context.Background(), a, &flags)
		},
	}

	addViewFlags(cmd, &flags)
	return cmd
}

// readDocument reads arg, or stdin when arg is "-", and returns the name
// used to label the tree.
func readDocument(arg string, stdin io.Reader, stdinName string) (string, []byte, error) {
	if arg == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return stdinName, data, nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s: %w", arg, err)
	}
	return filepath.Base(arg), data, nil
}
