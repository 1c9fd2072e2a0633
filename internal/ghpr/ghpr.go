// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

// Package ghpr resolves pull request change sets and posts review summaries
// through the GitHub API.
package ghpr

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/go-github/v68/github"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/diffparse"
)

// githubAPI abstracts the GitHub API for testing.
type githubAPI interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error)
	ListFiles(ctx context.Context, owner, repo string, number int, opts *github.ListOptions) ([]*github.CommitFile, *github.Response, error)
	ListComments(ctx context.Context, owner, repo string, number int, opts *github.IssueListCommentsOptions) ([]*github.IssueComment, *github.Response, error)
	CreateComment(ctx context.Context, owner, repo string, number int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error)
	EditComment(ctx context.Context, owner, repo string, commentID int64, comment *github.IssueComment) (*github.IssueComment, *github.Response, error)
}

// realGitHubAPI wraps the real go-github client to implement githubAPI.
type realGitHubAPI struct {
	client *github.Client
}

func (r *realGitHubAPI) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error) {
	return r.client.PullRequests.Get(ctx, owner, repo, number)
}

func (r *realGitHubAPI) ListFiles(ctx context.Context, owner, repo string, number int, opts *github.ListOptions) ([]*github.CommitFile, *github.Response, error) {
	return r.client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
}

func (r *realGitHubAPI) ListComments(ctx context.Context, owner, repo string, number int, opts *github.IssueListCommentsOptions) ([]*github.IssueComment, *github.Response, error) {
	return r.client.Issues.ListComments(ctx, owner, repo, number, opts)
}

func (r *realGitHubAPI) CreateComment(ctx context.Context, owner, repo string, number int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error) {
	return r.client.Issues.CreateComment(ctx, owner, repo, number, comment)
}

func (r *realGitHubAPI) EditComment(ctx context.Context, owner, repo string, commentID int64, comment *github.IssueComment) (*github.IssueComment, *github.Response, error) {
	return r.client.Issues.EditComment(ctx, owner, repo, commentID, comment)
}

// Client talks to one GitHub repository's pull requests.
type Client struct {
	owner string
	repo  string
	api   githubAPI
}

// Option configures a Client.
type Option func(*Client)

// withAPI replaces the GitHub API implementation. Used by tests.
func withAPI(api githubAPI) Option {
	return func(c *Client) {
		c.api = api
	}
}

// New creates a Client for owner/repo authenticated with token. An empty
// token falls back to GITHUB_TOKEN; having neither is an error because every
// PR operation needs authentication.
func New(owner, repo, token string, opts ...Option) (*Client, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("ghpr: owner and repo are required")
	}

	c := &Client{owner: owner, repo: repo}
	for _, opt := range opts {
		opt(c)
	}

	if c.api == nil {
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		if token == "" {
			return nil, fmt.Errorf("ghpr: GITHUB_TOKEN not set (set via: export GITHUB_TOKEN=$(gh auth token))")
		}
		c.api = &realGitHubAPI{client: github.NewClient(nil).WithAuthToken(token)}
	}

	return c, nil
}

// Info is the subset of pull request metadata the review pipeline uses.
type Info struct {
	Number  int
	Title   string
	State   string
	BaseRef string
	HeadRef string
}

// PullRequest fetches metadata for one pull request.
func (c *Client) PullRequest(ctx context.Context, number int) (*Info, error) {
	pr, _, err := c.api.GetPullRequest(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, fmt.Errorf("ghpr: fetching PR #%d: %w", number, err)
	}

	return &Info{
		Number:  pr.GetNumber(),
		Title:   pr.GetTitle(),
		State:   pr.GetState(),
		BaseRef: pr.GetBase().GetRef(),
		HeadRef: pr.GetHead().GetRef(),
	}, nil
}

// ChangedFiles lists every changed file in the pull request with its patch,
// following pagination to the end.
func (c *Client) ChangedFiles(ctx context.Context, number int) ([]diffparse.FileChange, error) {
	var files []diffparse.FileChange
	opts := &github.ListOptions{PerPage: 100}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, resp, err := c.api.ListFiles(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("ghpr: listing files for PR #%d: %w", number, err)
		}

		for _, f := range page {
			files = append(files, diffparse.FileChange{
				Path:      f.GetFilename(),
				OldPath:   f.GetPreviousFilename(),
				Status:    normalizeStatus(f.GetStatus()),
				Diff:      f.GetPatch(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	slog.Debug("ghpr: listed PR files", "pr", number, "files", len(files))
	return files, nil
}

// normalizeStatus maps GitHub's file status words onto the change parser's
// vocabulary. GitHub says "removed" where git says "deleted".
func normalizeStatus(status string) string {
	if status == "removed" {
		return "deleted"
	}
	return status
}
