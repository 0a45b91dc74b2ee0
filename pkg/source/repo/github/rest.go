// Package github lists repository trees through the GitHub API, either over
// HTTP or through the gh command-line tool.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-structview/pkg/source/repo"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

// RESTClient implements repo.API over the GitHub REST v3 API.
type RESTClient struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logrus.Entry
}

// RESTOption configures a RESTClient.
type RESTOption func(*RESTClient)

// WithBaseURL points the client at another API root (GitHub Enterprise, tests).
func WithBaseURL(u string) RESTOption {
	return func(c *RESTClient) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithToken authenticates requests, raising the rate limit.
func WithToken(token string) RESTOption {
	return func(c *RESTClient) { c.token = token }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) RESTOption {
	return func(c *RESTClient) { c.http = hc }
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(log *logrus.Entry) RESTOption {
	return func(c *RESTClient) { c.log = log }
}

// NewRESTClient creates a RESTClient for the public API.
func NewRESTClient(opts ...RESTOption) *RESTClient {
	c := &RESTClient{
		baseURL: DefaultAPIURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		c.log = logrus.NewEntry(logger)
	}
	return c
}

// Name returns the name of the transport.
func (c *RESTClient) Name() string {
	return "rest"
}

// Repository fetches repository metadata.
func (c *RESTClient) Repository(ctx context.Context, ref repo.Ref) (*repo.Repository, error) {
	var r ghRepository
	if err := c.get(ctx, repoPath(ref), &r); err != nil {
		return nil, err
	}
	return toRepository(&r), nil
}

// BranchCommit resolves a branch to the SHA of its head commit.
func (c *RESTClient) BranchCommit(ctx context.Context, ref repo.Ref, branch string) (string, error) {
	var b ghBranch
	if err := c.get(ctx, branchPath(ref, branch), &b); err != nil {
		return "", err
	}
	if b.Commit.SHA == "" {
		return "", fmt.Errorf("branch %s has no commit", branch)
	}
	return b.Commit.SHA, nil
}

// Tree fetches the recursive tree of a commit.
func (c *RESTClient) Tree(ctx context.Context, ref repo.Ref, sha string) (*repo.Listing, error) {
	var t ghTree
	if err := c.get(ctx, treePath(ref, sha), &t); err != nil {
		return nil, err
	}
	return toListing(&t), nil
}

func (c *RESTClient) get(ctx context.Context, path string, out interface{}) error {
	url := c.baseURL + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "grove-structview")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("github request")

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", path, repo.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return fmt.Errorf("GET %s: %w (status %d)", path, repo.ErrThrottled, resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: unexpected status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response of %s: %w", path, err)
	}
	return nil
}
