// Package github implements the tracker interfaces on top of the GitHub REST
// and GraphQL APIs.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
	gogithub "github.com/google/go-github/v69/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout bounds a single tracker call including its retries.
	DefaultTimeout = 30 * time.Second

	// DefaultWebURL is the browser base for issue links.
	DefaultWebURL = "https://github.com"

	// DefaultMergeMethod is used by MergePR.
	DefaultMergeMethod = "squash"

	searchPageSize = 10
)

// TokenFromEnv returns GITHUB_TOKEN, falling back to GH_TOKEN.
func TokenFromEnv() string {
	if t := os.Getenv("GITHUB_TOKEN"); t != "" {
		return t
	}
	return os.Getenv("GH_TOKEN")
}

// Client talks to one repository. Reads and idempotent writes are retried;
// creating issues and merging are not, so a lost response cannot duplicate them.
type Client struct {
	gh          *gogithub.Client
	token       string
	owner       string
	repo        string
	webURL      string
	mergeMethod string
	timeout     time.Duration
	retryConfig retry.Config
}

var _ tracker.Tracker = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at another API root, such as a test server.
func WithBaseURL(base string) Option {
	return func(c *Client) error {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("invalid base URL %q: %w", base, err)
		}
		c.gh.BaseURL = u
		return nil
	}
}

// WithWebURL sets the browser base used by IssueURL.
func WithWebURL(web string) Option {
	return func(c *Client) error {
		c.webURL = strings.TrimSuffix(web, "/")
		return nil
	}
}

// WithRetry overrides the retry policy.
func WithRetry(maxAttempts int, initialDelay time.Duration) Option {
	return func(c *Client) error {
		c.retryConfig.MaxAttempts = maxAttempts
		c.retryConfig.InitialDelay = initialDelay
		return nil
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.timeout = d
		return nil
	}
}

// WithMergeMethod selects merge, squash or rebase.
func WithMergeMethod(method string) Option {
	return func(c *Client) error {
		c.mergeMethod = method
		return nil
	}
}

// NewClient returns a client for owner/repo authenticated with token.
// An empty token yields an unauthenticated client whose EnsureAuth fails.
func NewClient(token, owner, repo string, opts ...Option) (*Client, error) {
	httpClient := http.DefaultClient
	if token != "" {
		httpClient = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	c := &Client{
		gh:          gogithub.NewClient(httpClient),
		token:       token,
		owner:       owner,
		repo:        repo,
		webURL:      DefaultWebURL,
		mergeMethod: DefaultMergeMethod,
		timeout:     DefaultTimeout,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  500 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// call runs fn under the client's timeout, with retries when retryable, and
// maps failures onto tracker errors.
func call[T any](ctx context.Context, c *Client, op string, retryable bool, fn func(context.Context) (T, error)) (T, error) {
	cfg := c.retryConfig
	if !retryable {
		cfg.MaxAttempts = 1
	}
	r := retry.New[T](cfg)
	t := timeout.New[T](timeout.Config{DefaultTimeout: c.timeout})

	res, err := t.Execute(ctx, c.timeout, func(ctx context.Context) (T, error) {
		return r.Do(ctx, fn)
	})
	if err != nil {
		var zero T
		return zero, classify(op, err)
	}
	return res, nil
}

func classify(op string, err error) error {
	var ghErr *gogithub.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w", op, tracker.ErrNotAuthenticated)
	}
	return tracker.Remote(op, err)
}

// EnsureAuth verifies the token by reading the authenticated user.
func (c *Client) EnsureAuth(ctx context.Context) error {
	if c.token == "" {
		return fmt.Errorf("set GITHUB_TOKEN or GH_TOKEN: %w", tracker.ErrNotAuthenticated)
	}
	_, err := call(ctx, c, "EnsureAuth", true, func(ctx context.Context) (*gogithub.User, error) {
		u, _, err := c.gh.Users.Get(ctx, "")
		return u, err
	})
	return err
}

func (c *Client) searchIssues(ctx context.Context, op, query string, keep func(*gogithub.Issue) bool) ([]tracker.IssueRef, error) {
	opts := &gogithub.SearchOptions{ListOptions: gogithub.ListOptions{PerPage: searchPageSize}}
	result, err := call(ctx, c, op, true, func(ctx context.Context) (*gogithub.IssuesSearchResult, error) {
		res, _, err := c.gh.Search.Issues(ctx, query, opts)
		return res, err
	})
	if err != nil {
		return nil, err
	}

	for _, is := range result.Issues {
		if is.IsPullRequest() || !keep(is) {
			continue
		}
		return []tracker.IssueRef{{Number: is.GetNumber(), Title: is.GetTitle()}}, nil
	}
	return nil, nil
}

// SearchIssuesByTitle returns the first open or closed issue whose title is exactly title.
func (c *Client) SearchIssuesByTitle(ctx context.Context, title string) ([]tracker.IssueRef, error) {
	query := fmt.Sprintf("repo:%s/%s is:issue in:title %q", c.owner, c.repo, title)
	return c.searchIssues(ctx, "SearchIssuesByTitle", query, func(is *gogithub.Issue) bool {
		return is.GetTitle() == title
	})
}

// SearchIssuesByTag returns the first issue whose body contains tag.
func (c *Client) SearchIssuesByTag(ctx context.Context, tag string) ([]tracker.IssueRef, error) {
	query := fmt.Sprintf("repo:%s/%s is:issue in:body %q", c.owner, c.repo, tag)
	return c.searchIssues(ctx, "SearchIssuesByTag", query, func(is *gogithub.Issue) bool {
		return strings.Contains(is.GetBody(), tag)
	})
}

func (c *Client) CreateIssue(ctx context.Context, title, body string, labels []string) (int, error) {
	req := &gogithub.IssueRequest{Title: gogithub.Ptr(title), Body: gogithub.Ptr(body)}
	if len(labels) > 0 {
		req.Labels = &labels
	}
	issue, err := call(ctx, c, "CreateIssue", false, func(ctx context.Context) (*gogithub.Issue, error) {
		is, _, err := c.gh.Issues.Create(ctx, c.owner, c.repo, req)
		return is, err
	})
	if err != nil {
		return 0, err
	}
	return issue.GetNumber(), nil
}

func (c *Client) EditIssue(ctx context.Context, number int, title, body string, addLabels []string) error {
	req := &gogithub.IssueRequest{Title: gogithub.Ptr(title), Body: gogithub.Ptr(body)}
	if _, err := call(ctx, c, "EditIssue", true, func(ctx context.Context) (*gogithub.Issue, error) {
		is, _, err := c.gh.Issues.Edit(ctx, c.owner, c.repo, number, req)
		return is, err
	}); err != nil {
		return err
	}

	if len(addLabels) == 0 {
		return nil
	}
	_, err := call(ctx, c, "AddLabelsToIssue", true, func(ctx context.Context) ([]*gogithub.Label, error) {
		ls, _, err := c.gh.Issues.AddLabelsToIssue(ctx, c.owner, c.repo, number, addLabels)
		return ls, err
	})
	return err
}

func (c *Client) getIssue(ctx context.Context, op string, number int) (*gogithub.Issue, error) {
	return call(ctx, c, op, true, func(ctx context.Context) (*gogithub.Issue, error) {
		is, _, err := c.gh.Issues.Get(ctx, c.owner, c.repo, number)
		return is, err
	})
}

func (c *Client) GetIssueBody(ctx context.Context, number int) (string, error) {
	is, err := c.getIssue(ctx, "GetIssueBody", number)
	if err != nil {
		return "", err
	}
	return is.GetBody(), nil
}

func (c *Client) CloseIssue(ctx context.Context, number int) error {
	req := &gogithub.IssueRequest{State: gogithub.Ptr("closed")}
	_, err := call(ctx, c, "CloseIssue", true, func(ctx context.Context) (*gogithub.Issue, error) {
		is, _, err := c.gh.Issues.Edit(ctx, c.owner, c.repo, number, req)
		return is, err
	})
	return err
}

func (c *Client) IssueURL(number int) string {
	return fmt.Sprintf("%s/%s/%s/issues/%d", c.webURL, c.owner, c.repo, number)
}

// FetchFile reads a file from any repository at ref.
func (c *Client) FetchFile(ctx context.Context, repo, ref, path string) ([]byte, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("repository must be \"owner/name\", got %q", repo)
	}

	content, err := call(ctx, c, "FetchFile", true, func(ctx context.Context) (string, error) {
		file, _, _, err := c.gh.Repositories.GetContents(ctx, owner, name, path, &gogithub.RepositoryContentGetOptions{Ref: ref})
		if err != nil {
			return "", err
		}
		if file == nil {
			return "", fmt.Errorf("%s is a directory", path)
		}
		return file.GetContent()
	})
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}
