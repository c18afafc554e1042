package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/specsync/pkg/application"
	"github.com/felixgeelhaar/specsync/pkg/domain/config"
	"github.com/felixgeelhaar/specsync/pkg/domain/issuebody"
	"github.com/felixgeelhaar/specsync/pkg/domain/spec"
	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
	"github.com/felixgeelhaar/specsync/pkg/tracker/mock"
)

func authSpec() *spec.Document {
	return &spec.Document{
		ID:    "auth",
		Title: "Authentication",
		Features: []spec.Feature{
			{ID: "auth.login", Accept: []string{"valid creds succeed"}},
			{ID: "auth.logout"},
			{ID: "auth.reset"},
		},
		Source: "specs/auth.md",
	}
}

func newSyncService(m *mock.Tracker) *application.SyncService {
	return application.NewSyncService(m, nil, nil)
}

func syncOnce(t *testing.T, svc *application.SyncService, opts application.SyncOptions, docs ...*spec.Document) []application.SyncOutcome {
	t.Helper()
	out, err := svc.SyncAll(context.Background(), docs, opts)
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	return out
}

func check(body, line string) string {
	return strings.Replace(body, "- [ ] "+line, "- [x] "+line, 1)
}

func TestPickAuthoritativeIssue(t *testing.T) {
	if _, ok := application.PickAuthoritativeIssue(nil); ok {
		t.Error("expected no pick for empty candidates")
	}
	ref, ok := application.PickAuthoritativeIssue([]tracker.IssueRef{{Number: 9}, {Number: 3}})
	if !ok || ref.Number != 9 {
		t.Errorf("expected first candidate #9, got #%d", ref.Number)
	}
}

func TestSyncService_CreateThenEdit(t *testing.T) {
	m := mock.New()
	svc := newSyncService(m)
	doc := authSpec()
	opts := application.SyncOptions{Labels: []string{"spec"}}

	out := syncOnce(t, svc, opts, doc)
	if out[0].Err != nil || !out[0].Created || out[0].IssueNumber != 1 {
		t.Fatalf("unexpected first outcome: %+v", out[0])
	}
	issue := m.Issues[1]
	if issue.Title != "Spec: Authentication" {
		t.Errorf("unexpected title %q", issue.Title)
	}
	if len(issue.Labels) != 1 || issue.Labels[0] != "spec" {
		t.Errorf("unexpected labels %v", issue.Labels)
	}

	out = syncOnce(t, svc, opts, doc)
	if out[0].Created || out[0].IssueNumber != 1 {
		t.Errorf("expected edit of #1, got %+v", out[0])
	}
	if m.Count("CreateIssue") != 1 || m.Count("EditIssue") != 1 {
		t.Errorf("expected 1 create and 1 edit, got %d and %d", m.Count("CreateIssue"), m.Count("EditIssue"))
	}
}

func TestSyncService_Idempotent(t *testing.T) {
	m := mock.New()
	svc := newSyncService(m)
	doc := authSpec()

	syncOnce(t, svc, application.SyncOptions{}, doc)
	first := m.Issues[1].Body
	syncOnce(t, svc, application.SyncOptions{}, doc)
	syncOnce(t, svc, application.SyncOptions{}, doc)

	if m.Issues[1].Body != first {
		t.Errorf("body changed between runs:\n%s\n---\n%s", first, m.Issues[1].Body)
	}
}

func TestSyncService_PreservesRemoteProgress(t *testing.T) {
	m := mock.New()
	svc := newSyncService(m)
	doc := authSpec()

	syncOnce(t, svc, application.SyncOptions{}, doc)
	m.Issues[1].Body = check(check(m.Issues[1].Body, "auth.logout"), "Plan")

	// Reorder features and add one locally.
	doc.Features = []spec.Feature{{ID: "auth.reset"}, {ID: "auth.logout"}, {ID: "auth.login"}, {ID: "auth.mfa"}}
	syncOnce(t, svc, application.SyncOptions{}, doc)

	state := issuebody.Parse(m.Issues[1].Body, doc)
	if !state.CompletedFeatures["auth.logout"] || !state.CompletedPhases[spec.PhasePlan] {
		t.Errorf("remote progress lost:\n%s", m.Issues[1].Body)
	}
	if state.CompletedFeatures["auth.mfa"] || state.CompletedFeatures["auth.login"] {
		t.Errorf("unexpected completion:\n%s", m.Issues[1].Body)
	}
}

func TestSyncService_DropsStaleFeatures(t *testing.T) {
	m := mock.New()
	svc := newSyncService(m)
	doc := authSpec()

	syncOnce(t, svc, application.SyncOptions{}, doc)
	m.Issues[1].Body = check(m.Issues[1].Body, "auth.reset")

	doc.Features = doc.Features[:2]
	syncOnce(t, svc, application.SyncOptions{}, doc)

	if strings.Contains(m.Issues[1].Body, "auth.reset") {
		t.Errorf("stale feature still rendered:\n%s", m.Issues[1].Body)
	}
}

func TestSyncService_FindsIssueByTagWhenTitleDrifted(t *testing.T) {
	m := mock.New()
	svc := newSyncService(m)
	doc := authSpec()

	n := m.AddIssue("Renamed by a human", "spec_id:auth\n\nFeatures:\n- [x] auth.login\n")

	out := syncOnce(t, svc, application.SyncOptions{}, doc)
	if out[0].Created || out[0].IssueNumber != n {
		t.Fatalf("expected edit of #%d, got %+v", n, out[0])
	}
	if m.Issues[n].Title != doc.IssueTitle() {
		t.Errorf("expected title restored, got %q", m.Issues[n].Title)
	}
	if !issuebody.Parse(m.Issues[n].Body, doc).CompletedFeatures["auth.login"] {
		t.Error("expected legacy progress to survive")
	}
}

func TestSyncService_TitleSearchFailureDoesNotDuplicate(t *testing.T) {
	m := mock.New()
	m.Fail["SearchIssuesByTitle"] = errors.New("rate limited")
	svc := newSyncService(m)

	out := syncOnce(t, svc, application.SyncOptions{}, authSpec())
	if !errors.Is(out[0].Err, tracker.ErrRemoteUnavailable) {
		t.Errorf("expected ErrRemoteUnavailable, got %v", out[0].Err)
	}
	if m.Count("CreateIssue") != 0 {
		t.Error("must not create an issue when search is unreliable")
	}
}

func TestSyncService_TitleSearchFailureFallsBackToTag(t *testing.T) {
	m := mock.New()
	n := m.AddIssue("Spec: Authentication", "spec_id:auth\n\nFeatures:\n- [ ] auth.login\n")
	m.Fail["SearchIssuesByTitle"] = errors.New("rate limited")
	svc := newSyncService(m)

	out := syncOnce(t, svc, application.SyncOptions{}, authSpec())
	if out[0].Err != nil || out[0].IssueNumber != n {
		t.Errorf("expected tag fallback to #%d, got %+v", n, out[0])
	}
}

func TestSyncService_BodyFetchFailureAborts(t *testing.T) {
	m := mock.New()
	svc := newSyncService(m)
	doc := authSpec()
	syncOnce(t, svc, application.SyncOptions{}, doc)

	m.Fail["GetIssueBody"] = errors.New("timeout")
	out := syncOnce(t, svc, application.SyncOptions{}, doc)
	if !errors.Is(out[0].Err, tracker.ErrRemoteUnavailable) {
		t.Errorf("expected ErrRemoteUnavailable, got %v", out[0].Err)
	}
	if m.Count("EditIssue") != 0 {
		t.Error("must not overwrite the body without reading it")
	}
}

func TestSyncService_MalformedBodyTreatedAsEmpty(t *testing.T) {
	m := mock.New()
	n := m.AddIssue("Spec: Authentication", "someone replaced this with prose - [x] auth.login")
	svc := newSyncService(m)
	doc := authSpec()

	out := syncOnce(t, svc, application.SyncOptions{}, doc)
	if out[0].Err != nil {
		t.Fatal(out[0].Err)
	}
	state := issuebody.Parse(m.Issues[n].Body, doc)
	if len(state.CompletedFeatures) != 0 {
		t.Errorf("expected empty state, got %v", state.CompletedFeatures)
	}
	if !issuebody.Recognize(m.Issues[n].Body) {
		t.Error("expected body rewritten in checklist format")
	}
}

func TestSyncService_Links(t *testing.T) {
	m := mock.New()
	svc := newSyncService(m)
	doc := authSpec()

	opts := application.SyncOptions{Links: map[string]issuebody.Links{
		"auth": {DesignReviewURL: "https://example.com/adr/1", WikiURL: "https://example.com/wiki"},
	}}
	syncOnce(t, svc, opts, doc)

	// Without caller links the remote ones are kept.
	syncOnce(t, svc, application.SyncOptions{}, doc)
	state := issuebody.Parse(m.Issues[1].Body, doc)
	if state.Links.DesignReviewURL != "https://example.com/adr/1" || state.Links.WikiURL != "https://example.com/wiki" {
		t.Errorf("links not preserved: %+v", state.Links)
	}

	// A caller link replaces only its own field.
	if _, err := svc.Upsert(context.Background(), doc, nil, issuebody.Links{DesignReviewURL: "https://example.com/adr/2"}); err != nil {
		t.Fatal(err)
	}
	state = issuebody.Parse(m.Issues[1].Body, doc)
	if state.Links.DesignReviewURL != "https://example.com/adr/2" || state.Links.WikiURL != "https://example.com/wiki" {
		t.Errorf("unexpected links after override: %+v", state.Links)
	}
}

func TestSyncService_ContinuesAfterFailure(t *testing.T) {
	m := mock.New()
	svc := newSyncService(m)

	bad := &spec.Document{ID: "bad", Features: []spec.Feature{{ID: ""}}}
	out := syncOnce(t, svc, application.SyncOptions{}, bad, authSpec())

	if len(out) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(out))
	}
	if out[0].Err == nil {
		t.Error("expected invalid spec to fail")
	}
	if out[1].Err != nil || out[1].IssueNumber == 0 {
		t.Errorf("expected second spec synced, got %+v", out[1])
	}
}

func TestSyncService_AuthFailureIsFatal(t *testing.T) {
	m := mock.New()
	m.Authenticated = false
	svc := newSyncService(m)

	_, err := svc.SyncAll(context.Background(), []*spec.Document{authSpec()}, application.SyncOptions{})
	if !errors.Is(err, tracker.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
	if len(m.Calls) != 1 {
		t.Errorf("expected only the auth check, got %d calls", len(m.Calls))
	}
}

func TestSyncService_DryRun(t *testing.T) {
	m := mock.New()
	svc := newSyncService(m)

	out := syncOnce(t, svc, application.SyncOptions{DryRun: true}, authSpec())
	if len(m.Calls) != 0 {
		t.Errorf("dry run made %d remote calls", len(m.Calls))
	}
	if !strings.Contains(out[0].Body, "- [ ] auth.login (accept: valid creds succeed)") {
		t.Errorf("unexpected dry-run body:\n%s", out[0].Body)
	}
	if out[0].Total != 10 {
		t.Errorf("expected 10 checklist lines, got %d", out[0].Total)
	}
}

func TestSyncService_StageFollowsRemoteProgress(t *testing.T) {
	m := mock.New()
	m.AddProject("acme", 3, "Status", statusField("Backlog", "In Progress", "Done"))
	svc := newSyncService(m)
	doc := authSpec()
	opts := application.SyncOptions{GitHub: boardConfig()}

	out := syncOnce(t, svc, opts, doc)
	if out[0].Stage != spec.StageBacklog {
		t.Errorf("expected backlog, got %s", out[0].Stage)
	}
	item := m.Items[m.IssueURL(1)]
	if m.FieldValues[item] != "o1" {
		t.Errorf("expected Backlog (o1), got %q", m.FieldValues[item])
	}

	m.Issues[1].Body = check(m.Issues[1].Body, "Idea/Todo")
	out = syncOnce(t, svc, opts, doc)
	if out[0].Stage != spec.StageInProgress {
		t.Errorf("expected in_progress, got %s", out[0].Stage)
	}
	if m.FieldValues[item] != "o2" {
		t.Errorf("expected In Progress (o2), got %q", m.FieldValues[item])
	}
}

func TestSyncService_ProjectFailureDoesNotFailSync(t *testing.T) {
	m := mock.New()
	m.Fail["AddProjectItem"] = errors.New("forbidden")
	svc := newSyncService(m)

	out := syncOnce(t, svc, application.SyncOptions{GitHub: boardConfig()}, authSpec())
	if out[0].Err != nil {
		t.Errorf("expected sync to succeed, got %v", out[0].Err)
	}
}

func TestSyncService_CompleteAllAndClose(t *testing.T) {
	m := mock.New()
	svc := newSyncService(m)
	doc := authSpec()

	syncOnce(t, svc, application.SyncOptions{Links: map[string]issuebody.Links{
		"auth": {WikiURL: "https://example.com/wiki"},
	}}, doc)

	if err := svc.CompleteAllAndClose(context.Background(), doc, 1); err != nil {
		t.Fatal(err)
	}

	body := m.Issues[1].Body
	if n := strings.Count(body, "- [x] "); n != 10 {
		t.Errorf("expected 10 checked lines, got %d:\n%s", n, body)
	}
	if strings.Contains(body, "- [ ] ") {
		t.Errorf("unexpected unchecked line:\n%s", body)
	}
	if !strings.Contains(body, "Wiki: https://example.com/wiki") {
		t.Errorf("links lost:\n%s", body)
	}
	if !m.Issues[1].Closed {
		t.Error("expected issue closed")
	}
}

func TestSyncService_Close(t *testing.T) {
	ctx := context.Background()

	t.Run("by search", func(t *testing.T) {
		m := mock.New()
		m.AddProject("acme", 3, "Status", statusField("Backlog", "In Progress", "Done"))
		svc := newSyncService(m)
		doc := authSpec()
		syncOnce(t, svc, application.SyncOptions{}, doc)

		n, err := svc.Close(ctx, doc, 0, boardConfig())
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 || !m.Issues[1].Closed {
			t.Errorf("expected #1 closed, got #%d", n)
		}
		if m.FieldValues[m.Items[m.IssueURL(1)]] != "o3" {
			t.Error("expected project status Done")
		}
	})

	t.Run("override", func(t *testing.T) {
		m := mock.New()
		m.AddIssue("unrelated", "")
		n := m.AddIssue("Also unrelated", "")
		svc := newSyncService(m)

		got, err := svc.Close(ctx, authSpec(), n, config.GitHubConfig{})
		if err != nil {
			t.Fatal(err)
		}
		if got != n || !m.Issues[n].Closed {
			t.Errorf("expected #%d closed", n)
		}
		if m.Count("SearchIssuesByTitle") != 0 {
			t.Error("override must skip search")
		}
	})

	t.Run("unknown spec with override", func(t *testing.T) {
		m := mock.New()
		n := m.AddIssue("Spec: gone", "hand written")
		svc := newSyncService(m)

		if _, err := svc.Close(ctx, nil, n, config.GitHubConfig{}); err != nil {
			t.Fatal(err)
		}
		if !m.Issues[n].Closed || m.Issues[n].Body != "hand written" {
			t.Error("expected issue closed with body untouched")
		}
	})

	t.Run("unknown spec", func(t *testing.T) {
		svc := newSyncService(mock.New())
		if _, err := svc.Close(ctx, nil, 0, config.GitHubConfig{}); !errors.Is(err, tracker.ErrSpecNotFound) {
			t.Errorf("expected ErrSpecNotFound, got %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		m := mock.New()
		svc := newSyncService(m)
		_, err := svc.Close(ctx, authSpec(), 0, config.GitHubConfig{})
		if !errors.Is(err, tracker.ErrIssueNotFound) {
			t.Errorf("expected ErrIssueNotFound, got %v", err)
		}
	})
}

func TestSyncService_Ship(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		pr        tracker.PRStatus
		wantErr   error
		wantMerge bool
	}{
		{"green", tracker.PRStatus{Number: 5, State: "open"}, nil, true},
		{"pending checks", tracker.PRStatus{Number: 5, State: "open", PendingOrFailing: 2}, tracker.ErrPRNotMergeable, false},
		{"closed unmerged", tracker.PRStatus{Number: 5, State: "closed"}, tracker.ErrPRNotMergeable, false},
		{"already merged", tracker.PRStatus{Number: 5, State: "closed", Merged: true}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mock.New()
			pr := tt.pr
			m.PRs[5] = &pr
			svc := newSyncService(m)
			doc := authSpec()
			syncOnce(t, svc, application.SyncOptions{}, doc)

			authBefore := m.Count("EnsureAuth")
			res, err := svc.Ship(ctx, 5, doc, config.GitHubConfig{})
			if got := m.Count("EnsureAuth") - authBefore; got != 1 {
				t.Errorf("expected one auth check per ship, got %d", got)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if m.Count("MergePR") != 0 || m.Issues[1].Closed {
					t.Error("must not merge or close")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if res.Merged != tt.wantMerge {
				t.Errorf("expected merged=%v, got %v", tt.wantMerge, res.Merged)
			}
			if res.IssueNumber != 1 || !m.Issues[1].Closed {
				t.Error("expected spec issue closed")
			}
		})
	}
}

func TestSyncService_Ship_UnknownSpec(t *testing.T) {
	m := mock.New()
	m.PRs[5] = &tracker.PRStatus{Number: 5, State: "open"}
	svc := newSyncService(m)

	if _, err := svc.Ship(context.Background(), 5, nil, config.GitHubConfig{}); !errors.Is(err, tracker.ErrSpecNotFound) {
		t.Fatalf("expected ErrSpecNotFound, got %v", err)
	}
	if m.Count("MergePR") != 0 {
		t.Error("must not merge without a spec")
	}
}
