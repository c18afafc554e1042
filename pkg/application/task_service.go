package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/specsync/pkg/domain"
	"github.com/felixgeelhaar/specsync/pkg/domain/spec"
)

// NextTask is the feature a contributor should pick up next.
type NextTask struct {
	Spec      *spec.Document
	FeatureID string
}

// TaskService selects the next feature to work on and hands it to coding agents.
type TaskService struct {
	repo   domain.WorkspaceRepository
	sync   *SyncService
	logger *slog.Logger
}

// NewTaskService returns a task service. With a nil sync service the
// selection ignores remote progress.
func NewTaskService(repo domain.WorkspaceRepository, sync *SyncService, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{repo: repo, sync: sync, logger: logger}
}

// SelectNext picks the most recently modified spec that still has an open
// feature and returns its first feature not checked on the tracker. It returns
// nil when nothing is left.
func (s *TaskService) SelectNext(ctx context.Context, docs []*spec.Document) (*NextTask, error) {
	sorted := make([]*spec.Document, len(docs))
	copy(sorted, docs)

	mtimes := make(map[*spec.Document]time.Time, len(docs))
	for _, d := range sorted {
		if d.Source == "" {
			continue
		}
		if info, err := os.Stat(filepath.Join(s.repo.Root(), filepath.FromSlash(d.Source))); err == nil {
			mtimes[d] = info.ModTime()
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return mtimes[sorted[i]].After(mtimes[sorted[j]])
	})

	for _, doc := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		done := s.completed(ctx, doc)
		for _, f := range doc.Features {
			if f.ID != "" && !done[f.ID] {
				return &NextTask{Spec: doc, FeatureID: f.ID}, nil
			}
		}
	}
	return nil, nil
}

func (s *TaskService) completed(ctx context.Context, doc *spec.Document) map[string]bool {
	if s.sync == nil {
		return nil
	}
	ref, found, err := s.sync.FindIssue(ctx, doc)
	if err != nil {
		s.logger.Warn("ignoring remote progress", "spec_id", doc.ID, "error", err)
		return nil
	}
	if !found {
		return nil
	}
	state, err := s.sync.remoteState(ctx, doc, ref.Number)
	if err != nil {
		s.logger.Warn("ignoring remote progress", "spec_id", doc.ID, "issue", ref.Number, "error", err)
		return nil
	}
	return state.CompletedFeatures
}

// WriteContext writes the task description files and returns their paths.
func (s *TaskService) WriteContext(task *NextTask, contextPaths []string) ([]string, error) {
	if task == nil || task.Spec == nil {
		return nil, fmt.Errorf("no task selected")
	}
	doc := task.Spec

	var human strings.Builder
	fmt.Fprintf(&human, "# Current Spec Task\n\nSpec: %s\nFeature: %s\nFile: %s\n", doc.ID, task.FeatureID, doc.Source)
	if accept := featureAccept(doc, task.FeatureID); len(accept) > 0 {
		human.WriteString("\n## Acceptance\n")
		for _, a := range accept {
			human.WriteString("- " + a + "\n")
		}
	}
	human.WriteString("\n## Body\n" + doc.Body + "\n")

	var agent strings.Builder
	fmt.Fprintf(&agent, "Spec ID: %s\nFeature: %s\nFile: %s\n", doc.ID, task.FeatureID, doc.Source)
	if len(contextPaths) > 0 {
		fmt.Fprintf(&agent, "Context: %s\n", strings.Join(contextPaths, ", "))
	}

	return s.repo.WriteTaskContext(human.String(), agent.String())
}

func featureAccept(doc *spec.Document, featureID string) []string {
	for _, f := range doc.Features {
		if f.ID == featureID {
			return f.Accept
		}
	}
	return nil
}
