package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/specsync/internal/infrastructure/watch"
	"github.com/felixgeelhaar/specsync/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/specsync/pkg/domain/config"
	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
	"github.com/felixgeelhaar/specsync/pkg/tracker/mock"
)

const authSpec = `---
spec_id: auth
title: Authentication
features:
  - auth.login
  - id: auth.logout
    accept: [ends the session]
---
# Authentication
`

func resetFlags() {
	projectPath = ""
	verbose = false
	initCodexWrappers = false
	initWorkflow = false
	syncDryRun = false
	closeIssue = 0
	coveragePR = 0
	templatesDest = ""
	reviewADRURL = ""
	reviewWikiURL = ""
	reviewOpenDiscussion = false
	statusInteractive = false
	watchDryRun = false
	watchDebounce = watch.DefaultWindow
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

// newWorkspace returns a temp root holding specs/auth.md.
func newWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "specs/auth.md", authSpec)
	return root
}

// runCLI executes the root command against root. A nil tracker runs offline.
func runCLI(t *testing.T, root string, tr *mock.Tracker, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	old := buildServices
	buildServices = func(root string, l *slog.Logger) (*wiring.AppServices, error) {
		return wiring.BuildAppServicesWithTracker(root, l, func(*config.Config) (tracker.Tracker, error) {
			if tr == nil {
				return nil, fmt.Errorf("no token: %w", tracker.ErrNotAuthenticated)
			}
			return tr, nil
		})
	}
	t.Cleanup(func() { buildServices = old })

	var out, errOut bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&errOut)
	RootCmd.SetArgs(append([]string{"--project", root}, args...))
	defer RootCmd.SetArgs(nil)

	err := RootCmd.ExecuteContext(context.Background())
	return out.String(), MapError(err)
}
