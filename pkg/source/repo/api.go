package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// API defines the remote calls needed to list a repository tree. The three
// calls are made in order: metadata, branch, recursive tree.
type API interface {
	// Name returns the transport's name (e.g., "rest", "gh").
	Name() string
	// Repository fetches repository metadata, including its default branch.
	Repository(ctx context.Context, ref Ref) (*Repository, error)
	// BranchCommit resolves a branch name to a commit SHA.
	BranchCommit(ctx context.Context, ref Ref, branch string) (string, error)
	// Tree lists every entry reachable from the commit in one recursive call.
	Tree(ctx context.Context, ref Ref, sha string) (*Listing, error)
}

// Transport-level errors returned by API implementations.
var (
	ErrNotFound  = errors.New("not found")
	ErrThrottled = errors.New("request throttled")
)

// Adapter-level failures. Each one wraps tree.ErrSourceUnavailable.
var (
	ErrInvalidRef     = fmt.Errorf("%w: invalid repository identifier", tree.ErrSourceUnavailable)
	ErrRepoNotFound   = fmt.Errorf("%w: repository not found", tree.ErrSourceUnavailable)
	ErrBranchNotFound = fmt.Errorf("%w: branch not found", tree.ErrSourceUnavailable)
	ErrListingFailed  = fmt.Errorf("%w: tree listing failed", tree.ErrSourceUnavailable)
	ErrRemoteFailed   = fmt.Errorf("%w: remote call failed", tree.ErrSourceUnavailable)
)

// Ref identifies a repository as owner/name.
type Ref struct {
	Owner string
	Name  string
}

func (r Ref) String() string { return r.Owner + "/" + r.Name }

// ParseRef parses an "owner/name" identifier.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".git")
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Ref{}, fmt.Errorf("%w: %q (want owner/name)", ErrInvalidRef, s)
	}
	return Ref{Owner: parts[0], Name: parts[1]}, nil
}

// Repository is the metadata needed to pick a branch.
type Repository struct {
	FullName      string
	DefaultBranch string
}

// EntryType is the git object type of a tree entry.
type EntryType string

const (
	EntryBlob   EntryType = "blob"
	EntryTree   EntryType = "tree"
	EntryCommit EntryType = "commit" // A submodule
)

// Entry is one path of the flat recursive listing.
type Entry struct {
	Path string
	Type EntryType
}

// Listing is the result of a recursive tree call.
type Listing struct {
	SHA       string
	Entries   []Entry
	Truncated bool // The remote stopped listing before the end
}
