package ghpr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/go-github/v68/github"
)

// summaryMarker tags the review summary comment so later runs can find and
// update it instead of stacking new comments on the PR.
const summaryMarker = "<!-- goosereview:summary -->"

// UpsertSummaryComment posts body as the review summary comment on the pull
// request. If a previous summary exists (identified by a hidden marker), it
// is updated in place; otherwise a new comment is created.
func (c *Client) UpsertSummaryComment(ctx context.Context, number int, body string) error {
	full := summaryMarker + "\n" + strings.TrimSpace(body) + "\n"

	existingID, err := c.findSummaryComment(ctx, number)
	if err != nil {
		return err
	}

	comment := &github.IssueComment{Body: github.Ptr(full)}
	if existingID != 0 {
		if _, _, err := c.api.EditComment(ctx, c.owner, c.repo, existingID, comment); err != nil {
			return fmt.Errorf("ghpr: updating summary comment on PR #%d: %w", number, err)
		}
		slog.Debug("ghpr: updated summary comment", "pr", number, "comment_id", existingID)
		return nil
	}

	if _, _, err := c.api.CreateComment(ctx, c.owner, c.repo, number, comment); err != nil {
		return fmt.Errorf("ghpr: creating summary comment on PR #%d: %w", number, err)
	}
	slog.Debug("ghpr: created summary comment", "pr", number)
	return nil
}

// findSummaryComment returns the id of the existing marker comment, or zero
// when the PR has none.
func (c *Client) findSummaryComment(ctx context.Context, number int) (int64, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		comments, resp, err := c.api.ListComments(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return 0, fmt.Errorf("ghpr: listing comments on PR #%d: %w", number, err)
		}

		for _, comment := range comments {
			if strings.Contains(comment.GetBody(), summaryMarker) {
				return comment.GetID(), nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return 0, nil
}
