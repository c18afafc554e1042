package wiring

import (
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/specsync/pkg/application"
	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
)

// AppServices exposes the application layer services wired together with a workspace.
// Services that need the tracker are nil when it could not be resolved;
// TrackerErr then holds the reason.
type AppServices struct {
	Workspace  *Workspace
	Logger     *slog.Logger
	Init       *application.InitService
	Spec       *application.SpecService
	Coverage   *application.CoverageService
	Task       *application.TaskService
	Tracker    tracker.Tracker
	TrackerErr error
	Projects   *application.ProjectService
	Sync       *application.SyncService
	Templates  *application.TemplateService
	Review     *application.ReviewService
}

// BuildAppServices wires the services for root against GitHub.
func BuildAppServices(root string, logger *slog.Logger) (*AppServices, error) {
	return BuildAppServicesWithTracker(root, logger, LoadGitHubTracker)
}

// BuildAppServicesWithTracker allows callers to supply the tracker. A resolver
// failure leaves the offline services usable.
func BuildAppServicesWithTracker(root string, logger *slog.Logger, resolve TrackerResolver) (*AppServices, error) {
	if logger == nil {
		logger = slog.Default()
	}
	workspace, err := NewWorkspace(root)
	if err != nil {
		return nil, err
	}

	services := &AppServices{
		Workspace: workspace,
		Logger:    logger,
		Init:      application.NewInitService(workspace.Repo),
		Spec:      application.NewSpecService(root, logger),
	}

	t, err := resolve(workspace.Config)
	if err != nil {
		services.TrackerErr = err
		services.Coverage = application.NewCoverageService(workspace.Repo, nil, logger)
		services.Task = application.NewTaskService(workspace.Repo, nil, logger)
		logger.Debug("tracker unavailable, running offline", "error", err)
		return services, nil
	}

	// Create services in dependency order
	services.Tracker = t
	services.Projects = application.NewProjectService(t, t, logger)
	services.Sync = application.NewSyncService(t, services.Projects, logger)
	services.Coverage = application.NewCoverageService(workspace.Repo, services.Sync, logger)
	services.Task = application.NewTaskService(workspace.Repo, services.Sync, logger)
	services.Templates = application.NewTemplateService(t, logger)
	services.Review = application.NewReviewService(t, services.Sync, logger)
	return services, nil
}

// RequireTracker returns TrackerErr when the services run offline.
func (s *AppServices) RequireTracker() error {
	if s.Tracker == nil {
		if s.TrackerErr != nil {
			return s.TrackerErr
		}
		return fmt.Errorf("no tracker configured: %w", tracker.ErrNotAuthenticated)
	}
	return nil
}

// DryRunSync returns a sync service for renders that never reach the tracker.
func (s *AppServices) DryRunSync() *application.SyncService {
	if s.Sync != nil {
		return s.Sync
	}
	return application.NewSyncService(nil, nil, s.Logger)
}
