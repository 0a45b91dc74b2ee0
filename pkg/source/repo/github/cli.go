package github

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattsolo1/grove-structview/pkg/source/repo"
)

// Runner executes the gh binary and returns its stdout.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

// CLIClient implements repo.API through the gh CLI ('gh api ...'), reusing
// whatever host and credentials gh is configured with.
type CLIClient struct {
	run Runner
}

// NewCLIClient creates a CLIClient. A nil runner executes the real gh binary.
func NewCLIClient(run Runner) *CLIClient {
	if run == nil {
		run = execGH
	}
	return &CLIClient{run: run}
}

// Name returns the name of the transport.
func (c *CLIClient) Name() string {
	return "gh"
}

func execGH(ctx context.Context, args ...string) ([]byte, error) {
	// Check if gh cli is installed
	if _, err := exec.LookPath("gh"); err != nil {
		return nil, fmt.Errorf("gh command not found in PATH, please install the GitHub CLI")
	}

	cmd := exec.CommandContext(ctx, "gh", args...)
	output, err := cmd.Output()
	if err != nil {
		var stderr string
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(exitErr.Stderr))
		}
		return nil, classify(fmt.Errorf("gh command failed: %w: %s", err, stderr), stderr)
	}
	return output, nil
}

// classify maps gh's "HTTP 404" style messages to repo transport errors.
func classify(err error, stderr string) error {
	switch {
	case strings.Contains(stderr, "HTTP 404"):
		return fmt.Errorf("%w: %v", repo.ErrNotFound, err)
	case strings.Contains(stderr, "HTTP 429"),
		strings.Contains(stderr, "rate limit"):
		return fmt.Errorf("%w: %v", repo.ErrThrottled, err)
	default:
		return err
	}
}

func (c *CLIClient) api(ctx context.Context, path string, out interface{}) error {
	output, err := c.run(ctx, "api", "-H", "Accept: application/vnd.github+json", path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(output, out); err != nil {
		return fmt.Errorf("failed to parse gh JSON output: %w", err)
	}
	return nil
}

// Repository fetches repository metadata.
func (c *CLIClient) Repository(ctx context.Context, ref repo.Ref) (*repo.Repository, error) {
	var r ghRepository
	if err := c.api(ctx, repoPath(ref), &r); err != nil {
		return nil, err
	}
	return toRepository(&r), nil
}

// BranchCommit resolves a branch to the SHA of its head commit.
func (c *CLIClient) BranchCommit(ctx context.Context, ref repo.Ref, branch string) (string, error) {
	var b ghBranch
	if err := c.api(ctx, branchPath(ref, branch), &b); err != nil {
		return "", err
	}
	if b.Commit.SHA == "" {
		return "", fmt.Errorf("branch %s has no commit", branch)
	}
	return b.Commit.SHA, nil
}

// Tree fetches the recursive tree of a commit.
func (c *CLIClient) Tree(ctx context.Context, ref repo.Ref, sha string) (*repo.Listing, error) {
	var t ghTree
	if err := c.api(ctx, treePath(ref, sha), &t); err != nil {
		return nil, err
	}
	return toListing(&t), nil
}
