package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/specsync/pkg/domain/config"
	"github.com/felixgeelhaar/specsync/pkg/domain/spec"
	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
)

// Fallback options tried in order when the desired status does not exist on the board.
var fallbackStatusOptions = []string{"Todo", "Backlog"}

// StatusMapper sets single-select status values on project items.
// Field metadata is cached for the lifetime of the mapper and never invalidated,
// so options renamed on the board mid-run are not seen until the next run.
type StatusMapper struct {
	board  tracker.ProjectBoard
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*tracker.ProjectField
}

func NewStatusMapper(board tracker.ProjectBoard, logger *slog.Logger) *StatusMapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusMapper{
		board:  board,
		logger: logger,
		cache:  make(map[string]*tracker.ProjectField),
	}
}

// ResolveFieldOptions returns the field metadata for owner/number/field,
// fetching it at most once per key. Failures are not cached.
func (m *StatusMapper) ResolveFieldOptions(ctx context.Context, owner string, number int, field string) (*tracker.ProjectField, error) {
	key := fmt.Sprintf("%s/%d/%s", owner, number, field)

	m.mu.Lock()
	cached, ok := m.cache[key]
	m.mu.Unlock()
	if ok {
		return cached, nil
	}

	f, err := m.board.GetProjectField(ctx, owner, number, field)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", tracker.ErrProjectMetadataUnavailable, key, err)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: %s: field not found", tracker.ErrProjectMetadataUnavailable, key)
	}

	m.mu.Lock()
	m.cache[key] = f
	m.mu.Unlock()
	return f, nil
}

// ChooseOption picks desired, then Todo, then Backlog, then the first option.
// It reports false when the field has no options.
func ChooseOption(field *tracker.ProjectField, desired string) (tracker.FieldOption, bool) {
	if field == nil {
		return tracker.FieldOption{}, false
	}
	for _, name := range append([]string{desired}, fallbackStatusOptions...) {
		if id, ok := field.Option(name); ok {
			return tracker.FieldOption{ID: id, Name: name}, true
		}
	}
	if len(field.Options) > 0 {
		return field.Options[0], true
	}
	return tracker.FieldOption{}, false
}

// SetStatus moves itemID to the best available option for desired and returns
// the option name applied. Status is best effort: every failure is logged and
// reported as an empty name.
func (m *StatusMapper) SetStatus(ctx context.Context, project tracker.ProjectRef, fieldName, itemID, desired string) string {
	field, err := m.ResolveFieldOptions(ctx, project.Owner, project.Number, fieldName)
	if err != nil {
		m.logger.Warn("project status skipped", "item", itemID, "error", err)
		return ""
	}

	opt, ok := ChooseOption(field, desired)
	if !ok {
		m.logger.Warn("project status skipped", "item", itemID, "field", fieldName, "reason", "field has no options")
		return ""
	}
	if opt.Name != desired {
		m.logger.Debug("status option fallback", "desired", desired, "chosen", opt.Name)
	}

	if err := m.board.SetProjectItemFieldOption(ctx, field.ProjectID, itemID, field.FieldID, opt.ID); err != nil {
		m.logger.Warn("failed to set project status", "item", itemID, "status", opt.Name, "error", err)
		return ""
	}
	return opt.Name
}

// ProjectService places spec issues on the configured project board.
type ProjectService struct {
	issues tracker.IssueTracker
	board  tracker.ProjectBoard
	mapper *StatusMapper
	logger *slog.Logger
}

func NewProjectService(issues tracker.IssueTracker, board tracker.ProjectBoard, logger *slog.Logger) *ProjectService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectService{
		issues: issues,
		board:  board,
		mapper: NewStatusMapper(board, logger),
		logger: logger,
	}
}

// AddToProject adds the issue to the board configured in gh and sets its
// status for stage. Boards known only by name get the item without a status,
// and failures there are logged. A board with owner and number that rejects
// the item returns an error; status failures never do.
func (s *ProjectService) AddToProject(ctx context.Context, gh config.GitHubConfig, issueNumber int, stage spec.Stage) error {
	project := gh.Project()
	if project.IsZero() {
		return nil
	}
	url := s.issues.IssueURL(issueNumber)

	if project.Legacy() {
		if _, err := s.board.AddProjectItem(ctx, project, url); err != nil {
			s.logger.Warn("failed to add issue to project", "issue", issueNumber, "project", project.Name, "error", err)
		}
		return nil
	}

	itemID, err := s.board.AddProjectItem(ctx, project, url)
	if err != nil {
		return fmt.Errorf("failed to add issue #%d to project %s/%d: %w", issueNumber, project.Owner, project.Number, err)
	}

	applied := s.mapper.SetStatus(ctx, project, gh.StatusFieldName(), itemID, gh.StatusOption(stage))
	s.logger.Debug("issue on project", "issue", issueNumber, "item", itemID, "status", applied)
	return nil
}
