package github

// ghRepository is the subset of GET /repos/{owner}/{repo} we use.
type ghRepository struct {
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
}

// ghBranch is the subset of GET /repos/{owner}/{repo}/branches/{branch}.
type ghBranch struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// ghTree is the response of GET /repos/{owner}/{repo}/git/trees/{sha}?recursive=1.
type ghTree struct {
	SHA  string `json:"sha"`
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"`
	} `json:"tree"`
	Truncated bool `json:"truncated"`
}
