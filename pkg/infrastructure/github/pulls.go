package github

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
	gogithub "github.com/google/go-github/v69/github"
)

// Check run conclusions that do not block a merge.
var passingConclusions = map[string]bool{
	"success": true,
	"neutral": true,
	"skipped": true,
}

// GetPRStatus reads the pull request and counts check runs on its head commit
// that are unfinished or did not pass.
func (c *Client) GetPRStatus(ctx context.Context, number int) (*tracker.PRStatus, error) {
	pr, err := call(ctx, c, "GetPRStatus", true, func(ctx context.Context) (*gogithub.PullRequest, error) {
		pr, _, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
		return pr, err
	})
	if err != nil {
		return nil, err
	}

	status := &tracker.PRStatus{
		Number: number,
		State:  pr.GetState(),
		Merged: pr.GetMerged(),
	}
	if status.Merged || status.State != "open" {
		return status, nil
	}

	sha := pr.GetHead().GetSHA()
	runs, err := call(ctx, c, "GetPRStatus", true, func(ctx context.Context) (*gogithub.ListCheckRunsResults, error) {
		res, _, err := c.gh.Checks.ListCheckRunsForRef(ctx, c.owner, c.repo, sha, &gogithub.ListCheckRunsOptions{
			ListOptions: gogithub.ListOptions{PerPage: 100},
		})
		return res, err
	})
	if err != nil {
		return nil, err
	}

	for _, run := range runs.CheckRuns {
		if run.GetStatus() != "completed" || !passingConclusions[run.GetConclusion()] {
			status.PendingOrFailing++
		}
	}
	return status, nil
}

func (c *Client) MergePR(ctx context.Context, number int) error {
	res, err := call(ctx, c, "MergePR", false, func(ctx context.Context) (*gogithub.PullRequestMergeResult, error) {
		res, _, err := c.gh.PullRequests.Merge(ctx, c.owner, c.repo, number, "", &gogithub.PullRequestOptions{MergeMethod: c.mergeMethod})
		return res, err
	})
	if err != nil {
		return err
	}
	if !res.GetMerged() {
		return fmt.Errorf("pull request #%d: %s: %w", number, res.GetMessage(), tracker.ErrPRNotMergeable)
	}
	return nil
}
