package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/specsync/pkg/application"
	"github.com/felixgeelhaar/specsync/pkg/domain/config"
	"github.com/felixgeelhaar/specsync/pkg/domain/spec"
	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
	"github.com/felixgeelhaar/specsync/pkg/tracker/mock"
)

func statusField(options ...string) *tracker.ProjectField {
	f := &tracker.ProjectField{ProjectID: "proj-1", FieldID: "field-1"}
	for i, name := range options {
		f.Options = append(f.Options, tracker.FieldOption{ID: "o" + string(rune('1'+i)), Name: name})
	}
	return f
}

func boardConfig() config.GitHubConfig {
	return config.GitHubConfig{
		Repo:          "acme/widgets",
		ProjectOwner:  "acme",
		ProjectNumber: 3,
		StatusField:   "Status",
	}
}

func TestChooseOption(t *testing.T) {
	tests := []struct {
		name    string
		field   *tracker.ProjectField
		desired string
		want    string
		ok      bool
	}{
		{"desired present", statusField("Backlog", "In Progress", "Done"), "In Progress", "In Progress", true},
		{"todo before backlog", statusField("Todo", "Backlog"), "In Progress", "Todo", true},
		{"backlog fallback", statusField("Done", "Backlog"), "In Progress", "Backlog", true},
		{"first option", statusField("Alpha", "Beta"), "In Progress", "Alpha", true},
		{"no options", statusField(), "Done", "", false},
		{"nil field", nil, "Done", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := application.ChooseOption(tt.field, tt.desired)
			if ok != tt.ok || got.Name != tt.want {
				t.Errorf("ChooseOption() = %q, %v; want %q, %v", got.Name, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestStatusMapper_TodoFallbackSelectsOptionID(t *testing.T) {
	m := mock.New()
	m.AddProject("acme", 3, "Status", &tracker.ProjectField{
		ProjectID: "proj-1",
		FieldID:   "field-1",
		Options:   []tracker.FieldOption{{ID: "o1", Name: "Todo"}, {ID: "o2", Name: "Backlog"}},
	})

	mapper := application.NewStatusMapper(m, nil)
	ref := tracker.ProjectRef{Owner: "acme", Number: 3}
	if got := mapper.SetStatus(context.Background(), ref, "Status", "item-1", "In Progress"); got != "Todo" {
		t.Errorf("expected Todo, got %q", got)
	}
	if m.FieldValues["item-1"] != "o1" {
		t.Errorf("expected option o1, got %q", m.FieldValues["item-1"])
	}
}

func TestStatusMapper_CachesFieldMetadata(t *testing.T) {
	m := mock.New()
	m.AddProject("acme", 3, "Status", statusField("Backlog", "In Progress", "Done"))

	mapper := application.NewStatusMapper(m, nil)
	ctx := context.Background()
	ref := tracker.ProjectRef{Owner: "acme", Number: 3}

	mapper.SetStatus(ctx, ref, "Status", "item-1", "Backlog")
	mapper.SetStatus(ctx, ref, "Status", "item-2", "Done")
	if _, err := mapper.ResolveFieldOptions(ctx, "acme", 3, "Status"); err != nil {
		t.Fatal(err)
	}

	if n := m.Count("GetProjectField"); n != 1 {
		t.Errorf("expected 1 metadata fetch, got %d", n)
	}
	if n := m.Count("SetProjectItemFieldOption"); n != 2 {
		t.Errorf("expected 2 status updates, got %d", n)
	}
}

func TestStatusMapper_FailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	ref := tracker.ProjectRef{Owner: "acme", Number: 3}

	t.Run("missing metadata", func(t *testing.T) {
		m := mock.New()
		mapper := application.NewStatusMapper(m, nil)
		if got := mapper.SetStatus(ctx, ref, "Status", "item-1", "Done"); got != "" {
			t.Errorf("expected no status, got %q", got)
		}
		_, err := mapper.ResolveFieldOptions(ctx, "acme", 3, "Status")
		if !errors.Is(err, tracker.ErrProjectMetadataUnavailable) {
			t.Errorf("expected ErrProjectMetadataUnavailable, got %v", err)
		}
		if n := m.Count("SetProjectItemFieldOption"); n != 0 {
			t.Errorf("expected no mutation, got %d", n)
		}
	})

	t.Run("mutation failure", func(t *testing.T) {
		m := mock.New()
		m.AddProject("acme", 3, "Status", statusField("Done"))
		m.Fail["SetProjectItemFieldOption"] = errors.New("boom")
		mapper := application.NewStatusMapper(m, nil)
		if got := mapper.SetStatus(ctx, ref, "Status", "item-1", "Done"); got != "" {
			t.Errorf("expected no status, got %q", got)
		}
	})

	t.Run("empty field", func(t *testing.T) {
		m := mock.New()
		m.AddProject("acme", 3, "Status", statusField())
		mapper := application.NewStatusMapper(m, nil)
		if got := mapper.SetStatus(ctx, ref, "Status", "item-1", "Done"); got != "" {
			t.Errorf("expected no-op, got %q", got)
		}
		if n := m.Count("SetProjectItemFieldOption"); n != 0 {
			t.Errorf("expected no mutation, got %d", n)
		}
	})
}

func TestProjectService_AddToProject(t *testing.T) {
	m := mock.New()
	m.AddProject("acme", 3, "Status", statusField("Backlog", "In Progress", "Done"))
	svc := application.NewProjectService(m, m, nil)
	ctx := context.Background()

	if err := svc.AddToProject(ctx, boardConfig(), 7, spec.StageInProgress); err != nil {
		t.Fatal(err)
	}
	item := m.Items[m.IssueURL(7)]
	if item == "" {
		t.Fatal("expected issue on the board")
	}
	if m.FieldValues[item] != "o2" {
		t.Errorf("expected In Progress (o2), got %q", m.FieldValues[item])
	}

	// Re-adding reuses the item and moves it.
	if err := svc.AddToProject(ctx, boardConfig(), 7, spec.StageDone); err != nil {
		t.Fatal(err)
	}
	if len(m.Items) != 1 {
		t.Errorf("expected 1 item, got %d", len(m.Items))
	}
	if m.FieldValues[item] != "o3" {
		t.Errorf("expected Done (o3), got %q", m.FieldValues[item])
	}
}

func TestProjectService_CustomStatusOptions(t *testing.T) {
	m := mock.New()
	m.AddProject("acme", 3, "Stage", statusField("Inbox", "Doing", "Shipped"))
	gh := boardConfig()
	gh.StatusField = "Stage"
	gh.StatusOptions = map[string]string{"backlog": "Inbox", "in_progress": "Doing", "done": "Shipped"}

	svc := application.NewProjectService(m, m, nil)
	if err := svc.AddToProject(context.Background(), gh, 1, spec.StageDone); err != nil {
		t.Fatal(err)
	}
	if got := m.FieldValues[m.Items[m.IssueURL(1)]]; got != "o3" {
		t.Errorf("expected Shipped (o3), got %q", got)
	}
}

func TestProjectService_LegacyMode(t *testing.T) {
	m := mock.New()
	svc := application.NewProjectService(m, m, nil)
	gh := config.GitHubConfig{Repo: "acme/widgets", ProjectName: "Spec Funnel"}

	if err := svc.AddToProject(context.Background(), gh, 4, spec.StageDone); err != nil {
		t.Fatal(err)
	}
	if m.Count("AddProjectItem") != 1 {
		t.Error("expected item add in legacy mode")
	}
	if m.Count("GetProjectField") != 0 || m.Count("SetProjectItemFieldOption") != 0 {
		t.Error("legacy mode must not touch status")
	}

	m.Fail["AddProjectItem"] = errors.New("no such project")
	if err := svc.AddToProject(context.Background(), gh, 5, spec.StageDone); err != nil {
		t.Errorf("legacy failures are logged, got %v", err)
	}
}

func TestProjectService_ItemAddFailure(t *testing.T) {
	m := mock.New()
	m.Fail["AddProjectItem"] = errors.New("forbidden")
	svc := application.NewProjectService(m, m, nil)

	err := svc.AddToProject(context.Background(), boardConfig(), 2, spec.StageBacklog)
	if !errors.Is(err, tracker.ErrRemoteUnavailable) {
		t.Errorf("expected ErrRemoteUnavailable, got %v", err)
	}
}

func TestProjectService_NoProjectConfigured(t *testing.T) {
	m := mock.New()
	svc := application.NewProjectService(m, m, nil)

	if err := svc.AddToProject(context.Background(), config.GitHubConfig{Repo: "acme/widgets"}, 1, spec.StageBacklog); err != nil {
		t.Fatal(err)
	}
	if len(m.Calls) != 0 {
		t.Errorf("expected no remote calls, got %d", len(m.Calls))
	}
}
