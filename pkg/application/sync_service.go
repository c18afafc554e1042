package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/specsync/pkg/domain/config"
	"github.com/felixgeelhaar/specsync/pkg/domain/issuebody"
	"github.com/felixgeelhaar/specsync/pkg/domain/spec"
	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
)

// SyncService reconciles spec documents with their tracker issues.
// The remote issue body is the only record of progress: every run re-reads it,
// keeps what humans checked, and re-renders it for the current local spec.
type SyncService struct {
	tracker  tracker.Tracker
	projects *ProjectService
	logger   *slog.Logger
}

func NewSyncService(t tracker.Tracker, projects *ProjectService, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	if projects == nil {
		projects = NewProjectService(t, t, logger)
	}
	return &SyncService{tracker: t, projects: projects, logger: logger}
}

// SyncOptions controls a SyncAll run.
type SyncOptions struct {
	// DryRun renders bodies without contacting the tracker.
	DryRun bool
	// Labels are added to every issue; existing labels are never removed.
	Labels []string
	// Links override the remote links per spec id, field by field.
	Links map[string]issuebody.Links
	// GitHub selects the project board. No board configured means no board updates.
	GitHub config.GitHubConfig
}

// SyncOutcome reports what happened to one spec.
type SyncOutcome struct {
	SpecID      string
	IssueNumber int
	Created     bool
	Stage       spec.Stage
	Completed   int
	Total       int
	// Body is the rendered body in dry-run mode.
	Body string
	Err  error
}

// ShipResult reports a ship run.
type ShipResult struct {
	PRNumber      int
	Merged        bool
	AlreadyMerged bool
	IssueNumber   int
}

type upsertResult struct {
	number  int
	created bool
	state   issuebody.State
}

// PickAuthoritativeIssue chooses the issue that represents a spec when a search
// returns several. The first candidate wins.
func PickAuthoritativeIssue(candidates []tracker.IssueRef) (tracker.IssueRef, bool) {
	if len(candidates) == 0 {
		return tracker.IssueRef{}, false
	}
	return candidates[0], true
}

// FindIssue locates the issue for doc by exact title, then by the spec_id tag
// in the body. A failed title search followed by an empty tag search is an
// error rather than "not found", since creating an issue then could duplicate one.
func (s *SyncService) FindIssue(ctx context.Context, doc *spec.Document) (tracker.IssueRef, bool, error) {
	hits, titleErr := s.tracker.SearchIssuesByTitle(ctx, doc.IssueTitle())
	if titleErr == nil {
		if ref, ok := PickAuthoritativeIssue(hits); ok {
			return ref, true, nil
		}
	} else {
		s.logger.Warn("title search failed, trying tag search", "spec_id", doc.ID, "error", titleErr)
	}

	hits, err := s.tracker.SearchIssuesByTag(ctx, doc.Tag())
	if err != nil {
		return tracker.IssueRef{}, false, fmt.Errorf("failed to search issues for spec %s: %w", doc.ID, tracker.Remote("SearchIssuesByTag", err))
	}
	if ref, ok := PickAuthoritativeIssue(hits); ok {
		return ref, true, nil
	}
	if titleErr != nil {
		return tracker.IssueRef{}, false, fmt.Errorf("failed to search issues for spec %s: %w", doc.ID, tracker.Remote("SearchIssuesByTitle", titleErr))
	}
	return tracker.IssueRef{}, false, nil
}

// remoteState fetches and parses the body of issue number. Bodies that are not
// in checklist format are logged and treated as empty.
func (s *SyncService) remoteState(ctx context.Context, doc *spec.Document, number int) (issuebody.State, error) {
	body, err := s.tracker.GetIssueBody(ctx, number)
	if err != nil {
		return issuebody.State{}, fmt.Errorf("failed to read issue #%d: %w", number, err)
	}
	if strings.TrimSpace(body) != "" && !issuebody.Recognize(body) {
		s.logger.Warn("ignoring issue body", "spec_id", doc.ID, "issue", number, "error", tracker.ErrMalformedRemoteState)
		return issuebody.NewState(), nil
	}
	return issuebody.Parse(body, doc), nil
}

// Upsert creates or updates the issue for doc and returns its number. Remote
// progress is preserved, links given by the caller replace remote links field
// by field, and labels are only added.
func (s *SyncService) Upsert(ctx context.Context, doc *spec.Document, labels []string, links issuebody.Links) (int, error) {
	res, err := s.upsert(ctx, doc, labels, links)
	if err != nil {
		return 0, err
	}
	return res.number, nil
}

func (s *SyncService) upsert(ctx context.Context, doc *spec.Document, labels []string, links issuebody.Links) (upsertResult, error) {
	ref, found, err := s.FindIssue(ctx, doc)
	if err != nil {
		return upsertResult{}, err
	}

	state := issuebody.NewState()
	if found {
		state, err = s.remoteState(ctx, doc, ref.Number)
		if err != nil {
			return upsertResult{}, err
		}
	}
	state.Links = state.Links.Merge(links)

	body := issuebody.Render(doc, state)

	if found {
		if err := s.tracker.EditIssue(ctx, ref.Number, doc.IssueTitle(), body, labels); err != nil {
			return upsertResult{}, fmt.Errorf("failed to update issue #%d: %w", ref.Number, err)
		}
		s.logger.Debug("issue updated", "spec_id", doc.ID, "issue", ref.Number)
		return upsertResult{number: ref.Number, state: state}, nil
	}

	number, err := s.tracker.CreateIssue(ctx, doc.IssueTitle(), body, labels)
	if err != nil {
		return upsertResult{}, fmt.Errorf("failed to create issue for spec %s: %w", doc.ID, err)
	}
	s.logger.Debug("issue created", "spec_id", doc.ID, "issue", number)
	return upsertResult{number: number, created: true, state: state}, nil
}

// CompleteAllAndClose checks every feature and phase on the issue, keeps its
// links, and closes it.
func (s *SyncService) CompleteAllAndClose(ctx context.Context, doc *spec.Document, issueNumber int) error {
	current, err := s.remoteState(ctx, doc, issueNumber)
	if err != nil {
		return err
	}

	state := issuebody.CompleteAll(doc, current.Links)
	if err := s.tracker.EditIssue(ctx, issueNumber, doc.IssueTitle(), issuebody.Render(doc, state), nil); err != nil {
		return fmt.Errorf("failed to update issue #%d: %w", issueNumber, err)
	}
	if err := s.tracker.CloseIssue(ctx, issueNumber); err != nil {
		return fmt.Errorf("failed to close issue #%d: %w", issueNumber, err)
	}
	return nil
}

// SyncAll reconciles docs one at a time. Authentication is checked once up
// front; after that a failing spec is recorded and the rest still run.
func (s *SyncService) SyncAll(ctx context.Context, docs []*spec.Document, opts SyncOptions) ([]SyncOutcome, error) {
	if !opts.DryRun {
		if err := s.tracker.EnsureAuth(ctx); err != nil {
			return nil, err
		}
	}

	outcomes := make([]SyncOutcome, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, s.syncOne(ctx, doc, opts))
	}
	return outcomes, nil
}

func (s *SyncService) syncOne(ctx context.Context, doc *spec.Document, opts SyncOptions) SyncOutcome {
	out := SyncOutcome{SpecID: doc.ID}

	if errs := doc.Validate(); len(errs) > 0 {
		out.Err = fmt.Errorf("invalid spec %s: %w", doc.ID, errors.Join(errs...))
		s.logger.Error("spec skipped", "spec_id", doc.ID, "error", out.Err)
		return out
	}

	links := opts.Links[doc.ID]

	if opts.DryRun {
		state := issuebody.NewState()
		state.Links = links
		out.Body = issuebody.Render(doc, state)
		out.Completed, out.Total = state.Progress(doc)
		out.Stage = spec.StageBacklog
		return out
	}

	res, err := s.upsert(ctx, doc, opts.Labels, links)
	if err != nil {
		out.Err = err
		s.logger.Error("sync failed", "spec_id", doc.ID, "error", err)
		return out
	}
	out.IssueNumber = res.number
	out.Created = res.created
	out.Completed, out.Total = res.state.Progress(doc)
	out.Stage = spec.InferStage(doc.ID, out.Completed, out.Total)

	if err := s.projects.AddToProject(ctx, opts.GitHub, res.number, out.Stage); err != nil {
		s.logger.Warn("project update failed", "spec_id", doc.ID, "issue", res.number, "error", err)
	}
	return out
}

// Close completes and closes the issue of doc and marks it done on the board.
// With issueOverride 0 the issue is found by search; not finding one is
// ErrIssueNotFound. A nil doc with an override closes the issue without
// touching its body.
func (s *SyncService) Close(ctx context.Context, doc *spec.Document, issueOverride int, gh config.GitHubConfig) (int, error) {
	if doc == nil && issueOverride == 0 {
		return 0, tracker.ErrSpecNotFound
	}
	if err := s.tracker.EnsureAuth(ctx); err != nil {
		return 0, err
	}
	return s.closeSpec(ctx, doc, issueOverride, gh)
}

// closeSpec is Close for callers that already checked authentication.
func (s *SyncService) closeSpec(ctx context.Context, doc *spec.Document, issueOverride int, gh config.GitHubConfig) (int, error) {
	number := issueOverride
	if number == 0 {
		ref, found, err := s.FindIssue(ctx, doc)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, fmt.Errorf("spec %s: %w", doc.ID, tracker.ErrIssueNotFound)
		}
		number = ref.Number
	}

	if doc != nil {
		if err := s.CompleteAllAndClose(ctx, doc, number); err != nil {
			return 0, err
		}
	} else if err := s.tracker.CloseIssue(ctx, number); err != nil {
		return 0, fmt.Errorf("failed to close issue #%d: %w", number, err)
	}

	if err := s.projects.AddToProject(ctx, gh, number, spec.StageDone); err != nil {
		s.logger.Warn("project update failed", "issue", number, "error", err)
	}
	return number, nil
}

// Ship merges a green pull request and closes the issue of doc. A pull request
// that is already merged only closes the spec.
func (s *SyncService) Ship(ctx context.Context, prNumber int, doc *spec.Document, gh config.GitHubConfig) (*ShipResult, error) {
	if doc == nil {
		return nil, tracker.ErrSpecNotFound
	}
	if err := s.tracker.EnsureAuth(ctx); err != nil {
		return nil, err
	}

	status, err := s.tracker.GetPRStatus(ctx, prNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to read pull request #%d: %w", prNumber, err)
	}

	result := &ShipResult{PRNumber: prNumber, AlreadyMerged: status.Merged}
	if !status.Merged {
		if status.State != "open" {
			return nil, fmt.Errorf("pull request #%d is %s: %w", prNumber, status.State, tracker.ErrPRNotMergeable)
		}
		if status.PendingOrFailing > 0 {
			return nil, fmt.Errorf("pull request #%d has %d pending or failing checks: %w", prNumber, status.PendingOrFailing, tracker.ErrPRNotMergeable)
		}
		if err := s.tracker.MergePR(ctx, prNumber); err != nil {
			return nil, fmt.Errorf("failed to merge pull request #%d: %w", prNumber, err)
		}
		result.Merged = true
	}

	number, err := s.closeSpec(ctx, doc, 0, gh)
	if err != nil {
		return result, err
	}
	result.IssueNumber = number
	return result, nil
}
