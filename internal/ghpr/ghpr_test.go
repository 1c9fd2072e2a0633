package ghpr

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockGitHubAPI implements githubAPI for testing.
type mockGitHubAPI struct {
	pr    *github.PullRequest
	prErr error

	filePages [][]*github.CommitFile
	fileErr   error
	fileCalls int

	comments   []*github.IssueComment
	commentErr error

	created []*github.IssueComment
	edited  map[int64]*github.IssueComment
}

func (m *mockGitHubAPI) GetPullRequest(_ context.Context, _, _ string, _ int) (*github.PullRequest, *github.Response, error) {
	return m.pr, okResponse(0), m.prErr
}

func (m *mockGitHubAPI) ListFiles(_ context.Context, _, _ string, _ int, _ *github.ListOptions) ([]*github.CommitFile, *github.Response, error) {
	if m.fileErr != nil {
		return nil, nil, m.fileErr
	}
	if m.fileCalls >= len(m.filePages) {
		return nil, okResponse(0), nil
	}
	page := m.filePages[m.fileCalls]
	m.fileCalls++

	next := 0
	if m.fileCalls < len(m.filePages) {
		next = m.fileCalls + 1
	}
	return page, okResponse(next), nil
}

func (m *mockGitHubAPI) ListComments(_ context.Context, _, _ string, _ int, _ *github.IssueListCommentsOptions) ([]*github.IssueComment, *github.Response, error) {
	return m.comments, okResponse(0), m.commentErr
}

func (m *mockGitHubAPI) CreateComment(_ context.Context, _, _ string, _ int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error) {
	m.created = append(m.created, comment)
	return comment, okResponse(0), nil
}

func (m *mockGitHubAPI) EditComment(_ context.Context, _, _ string, commentID int64, comment *github.IssueComment) (*github.IssueComment, *github.Response, error) {
	if m.edited == nil {
		m.edited = make(map[int64]*github.IssueComment)
	}
	m.edited[commentID] = comment
	return comment, okResponse(0), nil
}

func okResponse(nextPage int) *github.Response {
	return &github.Response{
		Response: &http.Response{StatusCode: http.StatusOK},
		NextPage: nextPage,
	}
}

func newTestClient(t *testing.T, mock *mockGitHubAPI) *Client {
	t.Helper()
	c, err := New("octocat", "hello-world", "", withAPI(mock))
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Run("missing owner or repo", func(t *testing.T) {
		_, err := New("", "repo", "token")
		assert.Error(t, err)

		_, err = New("owner", "", "token")
		assert.Error(t, err)
	})

	t.Run("missing token", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		_, err := New("owner", "repo", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GITHUB_TOKEN")
	})

	t.Run("token from environment", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "ghp_test")
		_, err := New("owner", "repo", "")
		assert.NoError(t, err)
	})
}

func TestPullRequest(t *testing.T) {
	mock := &mockGitHubAPI{
		pr: &github.PullRequest{
			Number: github.Ptr(42),
			Title:  github.Ptr("Add retry logic"),
			State:  github.Ptr("open"),
			Base:   &github.PullRequestBranch{Ref: github.Ptr("main")},
			Head:   &github.PullRequestBranch{Ref: github.Ptr("feature/retry")},
		},
	}

	c := newTestClient(t, mock)
	info, err := c.PullRequest(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, 42, info.Number)
	assert.Equal(t, "Add retry logic", info.Title)
	assert.Equal(t, "open", info.State)
	assert.Equal(t, "main", info.BaseRef)
	assert.Equal(t, "feature/retry", info.HeadRef)
}

func TestPullRequestError(t *testing.T) {
	mock := &mockGitHubAPI{prErr: errors.New("404 not found")}

	c := newTestClient(t, mock)
	_, err := c.PullRequest(context.Background(), 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PR #99")
}

func TestChangedFiles(t *testing.T) {
	mock := &mockGitHubAPI{
		filePages: [][]*github.CommitFile{
			{
				{
					Filename:  github.Ptr("api/server.go"),
					Status:    github.Ptr("modified"),
					Patch:     github.Ptr("@@ -1 +1 @@\n-old\n+new"),
					Additions: github.Ptr(1),
					Deletions: github.Ptr(1),
				},
				{
					Filename: github.Ptr("docs/old.md"),
					Status:   github.Ptr("removed"),
				},
			},
			{
				{
					Filename:         github.Ptr("api/routes.go"),
					PreviousFilename: github.Ptr("api/router.go"),
					Status:           github.Ptr("renamed"),
					Additions:        github.Ptr(3),
				},
			},
		},
	}

	c := newTestClient(t, mock)
	files, err := c.ChangedFiles(context.Background(), 7)
	require.NoError(t, err)

	// Both pages are consumed.
	require.Len(t, files, 3)
	assert.Equal(t, 2, mock.fileCalls)

	assert.Equal(t, "api/server.go", files[0].Path)
	assert.Equal(t, "modified", files[0].Status)
	assert.Equal(t, 1, files[0].Additions)
	assert.Contains(t, files[0].Diff, "+new")

	// GitHub's "removed" becomes "deleted".
	assert.Equal(t, "deleted", files[1].Status)

	assert.Equal(t, "renamed", files[2].Status)
	assert.Equal(t, "api/router.go", files[2].OldPath)
}

func TestChangedFilesError(t *testing.T) {
	mock := &mockGitHubAPI{fileErr: errors.New("rate limited")}

	c := newTestClient(t, mock)
	_, err := c.ChangedFiles(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing files")
}

func TestUpsertSummaryComment(t *testing.T) {
	t.Run("creates when absent", func(t *testing.T) {
		mock := &mockGitHubAPI{
			comments: []*github.IssueComment{
				{ID: github.Ptr(int64(1)), Body: github.Ptr("unrelated comment")},
			},
		}

		c := newTestClient(t, mock)
		err := c.UpsertSummaryComment(context.Background(), 7, "## Review\nAll good.")
		require.NoError(t, err)

		require.Len(t, mock.created, 1)
		assert.Contains(t, mock.created[0].GetBody(), summaryMarker)
		assert.Contains(t, mock.created[0].GetBody(), "All good.")
		assert.Empty(t, mock.edited)
	})

	t.Run("updates in place when present", func(t *testing.T) {
		mock := &mockGitHubAPI{
			comments: []*github.IssueComment{
				{ID: github.Ptr(int64(10)), Body: github.Ptr("unrelated")},
				{ID: github.Ptr(int64(11)), Body: github.Ptr(summaryMarker + "\nold summary")},
			},
		}

		c := newTestClient(t, mock)
		err := c.UpsertSummaryComment(context.Background(), 7, "new summary")
		require.NoError(t, err)

		assert.Empty(t, mock.created)
		require.Contains(t, mock.edited, int64(11))
		assert.Contains(t, mock.edited[11].GetBody(), "new summary")
	})

	t.Run("list failure surfaces", func(t *testing.T) {
		mock := &mockGitHubAPI{commentErr: errors.New("forbidden")}

		c := newTestClient(t, mock)
		err := c.UpsertSummaryComment(context.Background(), 7, "summary")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing comments")
	})
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, "deleted", normalizeStatus("removed"))
	assert.Equal(t, "modified", normalizeStatus("modified"))
	assert.Equal(t, "added", normalizeStatus("added"))
}
