// Package mock provides an in-memory tracker.Tracker that records calls.
package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
)

// Issue is an issue held by the mock tracker.
type Issue struct {
	Number int
	Title  string
	Body   string
	Labels []string
	Closed bool
}

// Call records a single invocation.
type Call struct {
	Op   string
	Args []any
}

// Tracker is an in-memory tracker. Set the Fail* fields to inject errors per operation.
type Tracker struct {
	Issues      map[int]*Issue
	Projects    map[string]*tracker.ProjectField
	Items       map[string]string // issue URL -> item id
	FieldValues map[string]string // item id -> option id
	PRs         map[int]*tracker.PRStatus
	Discussions map[string]string // title -> url
	Files       map[string][]byte // repo@ref:path -> content
	Calls       []Call

	// Fail maps an operation name to the error it returns.
	Fail map[string]error

	// Authenticated controls EnsureAuth.
	Authenticated bool

	nextNumber int
	nextItem   int
}

// New returns an authenticated, empty tracker.
func New() *Tracker {
	return &Tracker{
		Issues:        make(map[int]*Issue),
		Projects:      make(map[string]*tracker.ProjectField),
		Items:         make(map[string]string),
		FieldValues:   make(map[string]string),
		PRs:           make(map[int]*tracker.PRStatus),
		Discussions:   make(map[string]string),
		Files:         make(map[string][]byte),
		Fail:          make(map[string]error),
		Authenticated: true,
		nextNumber:    1,
	}
}

var _ tracker.Tracker = (*Tracker)(nil)

func (m *Tracker) record(op string, args ...any) error {
	m.Calls = append(m.Calls, Call{Op: op, Args: args})
	if err, ok := m.Fail[op]; ok && err != nil {
		return tracker.Remote(op, err)
	}
	return nil
}

// Count returns how many times op was called.
func (m *Tracker) Count(op string) int {
	n := 0
	for _, c := range m.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// AddIssue seeds an issue and returns its number.
func (m *Tracker) AddIssue(title, body string) int {
	n := m.nextNumber
	m.nextNumber++
	m.Issues[n] = &Issue{Number: n, Title: title, Body: body}
	return n
}

// AddProject seeds project field metadata for owner/number/field.
func (m *Tracker) AddProject(owner string, number int, field string, f *tracker.ProjectField) {
	m.Projects[projectKey(owner, number, field)] = f
}

func projectKey(owner string, number int, field string) string {
	return fmt.Sprintf("%s/%d/%s", owner, number, field)
}

func (m *Tracker) EnsureAuth(ctx context.Context) error {
	if err := m.record("EnsureAuth"); err != nil {
		return err
	}
	if !m.Authenticated {
		return tracker.ErrNotAuthenticated
	}
	return nil
}

func (m *Tracker) SearchIssuesByTitle(ctx context.Context, title string) ([]tracker.IssueRef, error) {
	if err := m.record("SearchIssuesByTitle", title); err != nil {
		return nil, err
	}
	for n := 1; n < m.nextNumber; n++ {
		if is, ok := m.Issues[n]; ok && is.Title == title {
			return []tracker.IssueRef{{Number: is.Number, Title: is.Title}}, nil
		}
	}
	return nil, nil
}

func (m *Tracker) SearchIssuesByTag(ctx context.Context, tag string) ([]tracker.IssueRef, error) {
	if err := m.record("SearchIssuesByTag", tag); err != nil {
		return nil, err
	}
	for n := 1; n < m.nextNumber; n++ {
		if is, ok := m.Issues[n]; ok && strings.Contains(is.Body, tag) {
			return []tracker.IssueRef{{Number: is.Number, Title: is.Title}}, nil
		}
	}
	return nil, nil
}

func (m *Tracker) CreateIssue(ctx context.Context, title, body string, labels []string) (int, error) {
	if err := m.record("CreateIssue", title, body, labels); err != nil {
		return 0, err
	}
	n := m.AddIssue(title, body)
	m.Issues[n].Labels = append([]string(nil), labels...)
	return n, nil
}

func (m *Tracker) EditIssue(ctx context.Context, number int, title, body string, addLabels []string) error {
	if err := m.record("EditIssue", number, title, body, addLabels); err != nil {
		return err
	}
	is, ok := m.Issues[number]
	if !ok {
		return tracker.Remote("EditIssue", fmt.Errorf("issue #%d: %w", number, tracker.ErrIssueNotFound))
	}
	is.Title = title
	is.Body = body
	for _, l := range addLabels {
		if !contains(is.Labels, l) {
			is.Labels = append(is.Labels, l)
		}
	}
	return nil
}

func (m *Tracker) GetIssueBody(ctx context.Context, number int) (string, error) {
	if err := m.record("GetIssueBody", number); err != nil {
		return "", err
	}
	is, ok := m.Issues[number]
	if !ok {
		return "", tracker.Remote("GetIssueBody", fmt.Errorf("issue #%d: %w", number, tracker.ErrIssueNotFound))
	}
	return is.Body, nil
}

func (m *Tracker) CloseIssue(ctx context.Context, number int) error {
	if err := m.record("CloseIssue", number); err != nil {
		return err
	}
	is, ok := m.Issues[number]
	if !ok {
		return tracker.Remote("CloseIssue", fmt.Errorf("issue #%d: %w", number, tracker.ErrIssueNotFound))
	}
	is.Closed = true
	return nil
}

func (m *Tracker) IssueURL(number int) string {
	return fmt.Sprintf("https://github.com/mock/repo/issues/%d", number)
}

func (m *Tracker) AddProjectItem(ctx context.Context, project tracker.ProjectRef, issueURL string) (string, error) {
	if err := m.record("AddProjectItem", project, issueURL); err != nil {
		return "", err
	}
	if id, ok := m.Items[issueURL]; ok {
		return id, nil
	}
	m.nextItem++
	id := fmt.Sprintf("item-%d", m.nextItem)
	m.Items[issueURL] = id
	return id, nil
}

func (m *Tracker) GetProjectField(ctx context.Context, owner string, number int, fieldName string) (*tracker.ProjectField, error) {
	if err := m.record("GetProjectField", owner, number, fieldName); err != nil {
		return nil, err
	}
	f, ok := m.Projects[projectKey(owner, number, fieldName)]
	if !ok {
		return nil, fmt.Errorf("field %q on %s/%d: %w", fieldName, owner, number, tracker.ErrProjectMetadataUnavailable)
	}
	return f, nil
}

func (m *Tracker) SetProjectItemFieldOption(ctx context.Context, projectID, itemID, fieldID, optionID string) error {
	if err := m.record("SetProjectItemFieldOption", projectID, itemID, fieldID, optionID); err != nil {
		return err
	}
	m.FieldValues[itemID] = optionID
	return nil
}

func (m *Tracker) GetPRStatus(ctx context.Context, number int) (*tracker.PRStatus, error) {
	if err := m.record("GetPRStatus", number); err != nil {
		return nil, err
	}
	pr, ok := m.PRs[number]
	if !ok {
		return nil, tracker.Remote("GetPRStatus", fmt.Errorf("pull request #%d not found", number))
	}
	cp := *pr
	return &cp, nil
}

func (m *Tracker) MergePR(ctx context.Context, number int) error {
	if err := m.record("MergePR", number); err != nil {
		return err
	}
	pr, ok := m.PRs[number]
	if !ok {
		return tracker.Remote("MergePR", fmt.Errorf("pull request #%d not found", number))
	}
	pr.Merged = true
	pr.State = "closed"
	return nil
}

func (m *Tracker) EnsureDiscussion(ctx context.Context, title, body, category string) (string, error) {
	if err := m.record("EnsureDiscussion", title, body, category); err != nil {
		return "", err
	}
	if url, ok := m.Discussions[title]; ok {
		return url, nil
	}
	url := fmt.Sprintf("https://github.com/mock/repo/discussions/%d", len(m.Discussions)+1)
	m.Discussions[title] = url
	return url, nil
}

func (m *Tracker) FetchFile(ctx context.Context, repo, ref, path string) ([]byte, error) {
	if err := m.record("FetchFile", repo, ref, path); err != nil {
		return nil, err
	}
	data, ok := m.Files[repo+"@"+ref+":"+path]
	if !ok {
		return nil, tracker.Remote("FetchFile", fmt.Errorf("%s not found in %s@%s", path, repo, ref))
	}
	return data, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
