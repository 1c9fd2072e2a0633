package gitchange

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/testable"
)

// Remote holds the parsed owner/repo of a GitHub remote URL.
type Remote struct {
	Owner string
	Repo  string
}

// sshPattern matches git@github.com:owner/repo.git SSH URLs.
var sshPattern = regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(?:\.git)?$`)

// CurrentBranch returns the short name of the branch HEAD points at.
func CurrentBranch(opener testable.GitOpener, repoDir string) (string, error) {
	repo, err := opener.PlainOpen(repoDir)
	if err != nil {
		return "", fmt.Errorf("gitchange: opening repository %s: %w", repoDir, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("gitchange: resolving HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("gitchange: HEAD is detached at %s", head.Hash().String()[:8])
	}
	return head.Name().Short(), nil
}

// DefaultBaseBranch returns the repository's conventional base branch:
// "main" if it exists, otherwise "master" if it exists, otherwise "main".
func DefaultBaseBranch(opener testable.GitOpener, repoDir string) string {
	repo, err := opener.PlainOpen(repoDir)
	if err != nil {
		return "main"
	}

	refs, err := repo.References()
	if err != nil {
		return "main"
	}

	branches := make(map[string]bool)
	_ = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Name().IsBranch() {
			branches[ref.Name().Short()] = true
		}
		return nil
	})

	if branches["main"] {
		return "main"
	}
	if branches["master"] {
		return "master"
	}
	return "main"
}

// DetectGitHubRemote opens the repository at repoDir and checks whether the
// origin remote points to GitHub. Returns nil (not an error) when the
// directory is not a git repo or the remote is not GitHub.
func DetectGitHubRemote(opener testable.GitOpener, repoDir string) *Remote {
	repo, err := opener.PlainOpen(repoDir)
	if err != nil {
		return nil
	}

	remotes, err := repo.Remotes()
	if err != nil {
		return nil
	}

	var originURLs []string
	for _, r := range remotes {
		if r.Config().Name == "origin" {
			originURLs = r.Config().URLs
			break
		}
	}
	if len(originURLs) == 0 {
		return nil
	}

	owner, repoName, err := ParseGitHubURL(originURLs[0])
	if err != nil {
		return nil
	}

	return &Remote{Owner: owner, Repo: repoName}
}

// ParseGitHubURL parses a GitHub URL (HTTPS or SSH) into owner and repo.
func ParseGitHubURL(rawURL string) (owner, repo string, err error) {
	// SSH format: git@github.com:owner/repo.git
	if m := sshPattern.FindStringSubmatch(rawURL); m != nil {
		return m[1], m[2], nil
	}

	// HTTPS format: https://github.com/owner/repo.git
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}

	if parsed.Host != "github.com" {
		return "", "", fmt.Errorf("remote %q is not a GitHub URL", rawURL)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("cannot parse owner/repo from %q", rawURL)
	}

	owner = parts[0]
	repo = strings.TrimSuffix(parts[1], ".git")
	return owner, repo, nil
}
