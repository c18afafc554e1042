package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/specsync/pkg/domain"
	"github.com/felixgeelhaar/specsync/pkg/domain/coverage"
	"github.com/felixgeelhaar/specsync/pkg/domain/spec"
)

// CoverageService builds the per-feature coverage report. A feature counts as
// covered when its checkbox is ticked on the spec's issue.
type CoverageService struct {
	repo   domain.WorkspaceRepository
	sync   *SyncService
	logger *slog.Logger
}

// NewCoverageService returns a coverage service. With a nil sync service the
// report is built offline and every feature is pending.
func NewCoverageService(repo domain.WorkspaceRepository, sync *SyncService, logger *slog.Logger) *CoverageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CoverageService{repo: repo, sync: sync, logger: logger}
}

// Build computes the report without writing it.
func (s *CoverageService) Build(ctx context.Context, docs []*spec.Document, prNumber int) *coverage.Report {
	report := &coverage.Report{
		GeneratedAt: time.Now().UTC(),
		PRNumber:    prNumber,
		Items:       []coverage.Item{},
	}

	for _, doc := range docs {
		completed, issueNumber, note := s.remoteCompletion(ctx, doc)
		for _, f := range doc.Features {
			item := coverage.Item{
				SpecID:      doc.ID,
				FeatureID:   f.ID,
				Status:      coverage.StatusPending,
				IssueNumber: issueNumber,
				Notes:       note,
			}
			if completed[f.ID] {
				item.Status = coverage.StatusCovered
				item.Notes = ""
			}
			report.Items = append(report.Items, item)
		}
	}

	report.Recount(len(docs))
	return report
}

// Run builds the report and writes it to the workspace, returning its path.
func (s *CoverageService) Run(ctx context.Context, docs []*spec.Document, prNumber int) (*coverage.Report, string, error) {
	report := s.Build(ctx, docs, prNumber)
	path, err := s.repo.SaveCoverageReport(report)
	if err != nil {
		return nil, "", err
	}
	return report, path, nil
}

func (s *CoverageService) remoteCompletion(ctx context.Context, doc *spec.Document) (map[string]bool, int, string) {
	if s.sync == nil {
		return nil, 0, "offline"
	}
	ref, found, err := s.sync.FindIssue(ctx, doc)
	if err != nil {
		s.logger.Warn("coverage lookup failed", "spec_id", doc.ID, "error", err)
		return nil, 0, "issue lookup failed"
	}
	if !found {
		return nil, 0, "no issue"
	}
	state, err := s.sync.remoteState(ctx, doc, ref.Number)
	if err != nil {
		s.logger.Warn("coverage lookup failed", "spec_id", doc.ID, "issue", ref.Number, "error", err)
		return nil, ref.Number, "issue lookup failed"
	}
	return state.CompletedFeatures, ref.Number, ""
}
