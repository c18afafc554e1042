package wiring

import (
	"fmt"

	"github.com/felixgeelhaar/specsync/pkg/domain/config"
	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
	"github.com/felixgeelhaar/specsync/pkg/infrastructure/github"
)

// TrackerResolver builds the remote tracker for a workspace configuration.
type TrackerResolver func(cfg *config.Config) (tracker.Tracker, error)

// LoadGitHubTracker connects to the repository named in the config, or in
// GITHUB_REPOSITORY / GITHUB_REPO, with the token from the environment.
// Enterprise hosts and the merge method come from the github section.
func LoadGitHubTracker(cfg *config.Config) (tracker.Tracker, error) {
	owner, repo, err := cfg.GitHub.RepoSlug()
	if err != nil {
		return nil, err
	}

	token := github.TokenFromEnv()
	if token == "" {
		return nil, fmt.Errorf("set GITHUB_TOKEN or GH_TOKEN: %w", tracker.ErrNotAuthenticated)
	}

	method, err := cfg.GitHub.MergeMethodName()
	if err != nil {
		return nil, err
	}
	opts := []github.Option{github.WithMergeMethod(method)}
	if cfg.GitHub.APIURL != "" {
		opts = append(opts, github.WithBaseURL(cfg.GitHub.APIURL))
	}
	if cfg.GitHub.WebURL != "" {
		opts = append(opts, github.WithWebURL(cfg.GitHub.WebURL))
	}

	return github.NewClient(token, owner, repo, opts...)
}
