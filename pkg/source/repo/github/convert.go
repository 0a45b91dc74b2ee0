package github

import (
	"net/url"

	"github.com/mattsolo1/grove-structview/pkg/source/repo"
)

func toRepository(r *ghRepository) *repo.Repository {
	return &repo.Repository{FullName: r.FullName, DefaultBranch: r.DefaultBranch}
}

func toListing(t *ghTree) *repo.Listing {
	listing := &repo.Listing{SHA: t.SHA, Truncated: t.Truncated}
	for _, e := range t.Tree {
		listing.Entries = append(listing.Entries, repo.Entry{Path: e.Path, Type: repo.EntryType(e.Type)})
	}
	return listing
}

func repoPath(ref repo.Ref) string {
	return "repos/" + url.PathEscape(ref.Owner) + "/" + url.PathEscape(ref.Name)
}

func branchPath(ref repo.Ref, branch string) string {
	return repoPath(ref) + "/branches/" + url.PathEscape(branch)
}

func treePath(ref repo.Ref, sha string) string {
	return repoPath(ref) + "/git/trees/" + url.PathEscape(sha) + "?recursive=1"
}
