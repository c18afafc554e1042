// Package tracker defines the remote issue tracker surface that spec
// reconciliation depends on. Implementations live in pkg/infrastructure.
package tracker

import "context"

// IssueRef is a search hit on the remote tracker.
type IssueRef struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
}

// ProjectRef identifies a project board either by owner and number, or by name
// only (legacy mode, no field access).
type ProjectRef struct {
	Owner  string
	Number int
	Name   string
}

// Legacy reports whether the project is only known by name.
func (r ProjectRef) Legacy() bool {
	return r.Number == 0
}

// IsZero reports whether no project is configured.
func (r ProjectRef) IsZero() bool {
	return r.Number == 0 && r.Name == ""
}

// FieldOption is a single-select option on a project field.
type FieldOption struct {
	ID   string
	Name string
}

// ProjectField is the metadata needed to set a single-select field on an item.
// Options keep the order the tracker reports them in.
type ProjectField struct {
	ProjectID string
	FieldID   string
	Options   []FieldOption
}

// Option returns the id of the option with the given name.
func (f *ProjectField) Option(name string) (string, bool) {
	for _, o := range f.Options {
		if o.Name == name {
			return o.ID, true
		}
	}
	return "", false
}

// PRStatus summarises a pull request for merge decisions.
type PRStatus struct {
	Number int
	// State is "open" or "closed".
	State string
	// PendingOrFailing counts check runs that are not finished or did not succeed.
	PendingOrFailing int
	Merged           bool
}

// Authenticator checks that tracker credentials are usable.
type Authenticator interface {
	EnsureAuth(ctx context.Context) error
}

// IssueTracker reads and writes issues.
type IssueTracker interface {
	// SearchIssuesByTitle returns at most one issue whose title equals title.
	SearchIssuesByTitle(ctx context.Context, title string) ([]IssueRef, error)

	// SearchIssuesByTag returns at most one issue whose body contains tag.
	SearchIssuesByTag(ctx context.Context, tag string) ([]IssueRef, error)

	CreateIssue(ctx context.Context, title, body string, labels []string) (int, error)

	// EditIssue replaces title and body. Labels are only ever added.
	EditIssue(ctx context.Context, number int, title, body string, addLabels []string) error

	GetIssueBody(ctx context.Context, number int) (string, error)
	CloseIssue(ctx context.Context, number int) error

	// IssueURL is the browser URL of the issue.
	IssueURL(number int) string
}

// ProjectBoard manages items on a project board.
type ProjectBoard interface {
	// AddProjectItem adds the issue to the project, returning the item id.
	// Adding an issue that is already on the board returns the existing item.
	AddProjectItem(ctx context.Context, project ProjectRef, issueURL string) (string, error)

	GetProjectField(ctx context.Context, owner string, number int, fieldName string) (*ProjectField, error)
	SetProjectItemFieldOption(ctx context.Context, projectID, itemID, fieldID, optionID string) error
}

// PullRequests inspects and merges pull requests.
type PullRequests interface {
	GetPRStatus(ctx context.Context, number int) (*PRStatus, error)
	MergePR(ctx context.Context, number int) error
}

// Discussions manages design-review discussion threads.
type Discussions interface {
	// EnsureDiscussion returns the URL of the discussion titled title,
	// creating it in category when it does not exist.
	EnsureDiscussion(ctx context.Context, title, body, category string) (string, error)
}

// TemplateSource reads files from a repository.
type TemplateSource interface {
	FetchFile(ctx context.Context, repo, ref, path string) ([]byte, error)
}

// Tracker is the full remote surface.
type Tracker interface {
	Authenticator
	IssueTracker
	ProjectBoard
	PullRequests
	Discussions
	TemplateSource
}
