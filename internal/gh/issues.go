package gh

import (
	"context"

	gogh "github.com/google/go-github/v57/github"

	"github.com/adoptersbot/adopters/internal/log"
	"github.com/adoptersbot/adopters/internal/model"
)

// ListSubmissionIssues fetches all issues in the home repository that
// carry the submission label, in every state, paginated.
func (c *Client) ListSubmissionIssues(ctx context.Context, label string) ([]model.IssueSubmission, error) {
	opts := &gogh.IssueListByRepoOptions{
		Labels:      []string{label},
		State:       "all",
		ListOptions: gogh.ListOptions{PerPage: 100},
	}

	var submissions []model.IssueSubmission

	for {
		issues, resp, err := c.api.Issues.ListByRepo(ctx, c.homeOwner, c.homeRepo, opts)
		if err != nil {
			return nil, wrapAPIError(err)
		}

		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			submissions = append(submissions, model.IssueSubmission{
				Number: issue.GetNumber(),
				State:  issue.GetState(),
				Title:  issue.GetTitle(),
				Body:   issue.GetBody(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	log.Debug("listed submission issues", "label", label, "count", len(submissions))
	return submissions, nil
}

// CreateComment posts a comment on an issue in the home repository.
func (c *Client) CreateComment(ctx context.Context, number int, body string) error {
	comment := &gogh.IssueComment{Body: gogh.String(body)}
	_, _, err := c.api.Issues.CreateComment(ctx, c.homeOwner, c.homeRepo, number, comment)
	return wrapAPIError(err)
}

// EditLabels adds and removes labels on an issue in the home repository.
func (c *Client) EditLabels(ctx context.Context, number int, add []string, remove []string) error {
	if len(add) > 0 {
		if _, _, err := c.api.Issues.AddLabelsToIssue(ctx, c.homeOwner, c.homeRepo, number, add); err != nil {
			return wrapAPIError(err)
		}
	}
	for _, label := range remove {
		if _, err := c.api.Issues.RemoveLabelForIssue(ctx, c.homeOwner, c.homeRepo, number, label); err != nil {
			return wrapAPIError(err)
		}
	}
	return nil
}

// CloseIssue closes an issue in the home repository.
func (c *Client) CloseIssue(ctx context.Context, number int) error {
	req := &gogh.IssueRequest{State: gogh.String("closed")}
	_, _, err := c.api.Issues.Edit(ctx, c.homeOwner, c.homeRepo, number, req)
	return wrapAPIError(err)
}
