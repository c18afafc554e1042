package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/specsync/pkg/application"
	"github.com/felixgeelhaar/specsync/pkg/domain/coverage"
	"github.com/felixgeelhaar/specsync/pkg/domain/spec"
	"github.com/felixgeelhaar/specsync/pkg/storage"
	"github.com/felixgeelhaar/specsync/pkg/tracker/mock"
)

func TestCoverageService_Offline(t *testing.T) {
	repo := NewMockRepo()
	svc := application.NewCoverageService(repo, nil, nil)

	report, path, err := svc.Run(context.Background(), []*spec.Document{authSpec()}, 12)
	if err != nil {
		t.Fatal(err)
	}
	if path == "" || repo.Report != report {
		t.Error("expected report saved")
	}
	if report.PRNumber != 12 || report.Summary.TotalSpecs != 1 || report.Summary.TotalFeatures != 3 {
		t.Errorf("unexpected summary: %+v", report.Summary)
	}
	for _, it := range report.Items {
		if it.Status != coverage.StatusPending || it.Notes != "offline" {
			t.Errorf("expected pending offline item, got %+v", it)
		}
	}
}

func TestCoverageService_RemoteChecks(t *testing.T) {
	m := mock.New()
	syncSvc := newSyncService(m)
	doc := authSpec()
	syncOnce(t, syncSvc, application.SyncOptions{}, doc)
	m.Issues[1].Body = check(check(m.Issues[1].Body, "auth.login"), "auth.reset")

	tempDir := t.TempDir()
	svc := application.NewCoverageService(storage.NewFilesystemRepository(tempDir), syncSvc, nil)
	report, _, err := svc.Run(context.Background(), []*spec.Document{doc}, 0)
	if err != nil {
		t.Fatal(err)
	}

	if report.Summary.CoveredFeatures != 2 {
		t.Errorf("expected 2 covered, got %d", report.Summary.CoveredFeatures)
	}
	if report.Items[1].Status != coverage.StatusPending || report.Items[1].IssueNumber != 1 {
		t.Errorf("unexpected item: %+v", report.Items[1])
	}

	saved, err := storage.NewFilesystemRepository(tempDir).LoadCoverageReport()
	if err != nil {
		t.Fatal(err)
	}
	if saved.Summary != report.Summary {
		t.Errorf("saved summary %+v differs from %+v", saved.Summary, report.Summary)
	}
}

func TestCoverageService_LookupFailure(t *testing.T) {
	m := mock.New()
	m.Fail["SearchIssuesByTag"] = errors.New("down")
	svc := application.NewCoverageService(NewMockRepo(), newSyncService(m), nil)

	report := svc.Build(context.Background(), []*spec.Document{authSpec()}, 0)
	if report.Summary.CoveredFeatures != 0 {
		t.Errorf("expected nothing covered, got %d", report.Summary.CoveredFeatures)
	}
	if report.Items[0].Notes != "issue lookup failed" {
		t.Errorf("unexpected notes %q", report.Items[0].Notes)
	}
}
