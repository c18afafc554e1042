package application_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/specsync/pkg/application"
)

func TestInitService_Detailed(t *testing.T) {
	// 1. Minimal scaffold
	repo := NewMockRepo()
	service := application.NewInitService(repo)

	results, err := service.Initialize(application.InitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || !results[0].Created || !results[1].Created {
		t.Fatalf("unexpected results: %+v", results)
	}
	if !repo.Initialized {
		t.Error("Should be initialized")
	}
	if !strings.Contains(string(repo.Files[".specs.yml"]), "project_name: 'Spec Funnel'") {
		t.Error("expected default config content")
	}
	if !strings.Contains(string(repo.Files["specs/example.feature.md"]), "spec_id: ingest.sensor") {
		t.Error("expected example spec")
	}

	// 2. Re-running never overwrites
	repo.Files[".specs.yml"] = []byte("custom")
	results, err = service.Initialize(application.InitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Created {
			t.Errorf("%s should have been skipped", r.Path)
		}
	}
	if string(repo.Files[".specs.yml"]) != "custom" {
		t.Error("config was overwritten")
	}

	// 3. Save Errors
	repo = NewMockRepo()
	repo.SaveError = errors.New("save error")
	if _, err := application.NewInitService(repo).Initialize(application.InitOptions{}); err == nil {
		t.Error("Expected error on save failure")
	}
}

func TestInitService_Extras(t *testing.T) {
	repo := NewMockRepo()
	results, err := application.NewInitService(repo).Initialize(application.InitOptions{CodexWrappers: true, Workflow: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 7 {
		t.Fatalf("expected 7 files, got %d", len(results))
	}

	approve := string(repo.Files[".codex/commands/approve"])
	if !strings.HasPrefix(approve, "#!/usr/bin/env bash\n") || !strings.Contains(approve, "gh pr review") {
		t.Errorf("unexpected approve wrapper:\n%s", approve)
	}
	if repo.Modes[".codex/commands/spec-sync"] != 0700 {
		t.Errorf("wrappers must be executable, got %o", repo.Modes[".codex/commands/spec-sync"])
	}
	if !strings.Contains(string(repo.Files[".github/workflows/spec-coverage.yml"]), "specs coverage") {
		t.Error("expected coverage workflow")
	}
}
