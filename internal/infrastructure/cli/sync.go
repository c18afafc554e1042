package cli

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/specsync/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/specsync/pkg/application"
	"github.com/felixgeelhaar/specsync/pkg/domain/spec"
	"github.com/spf13/cobra"
)

// exitPartialFailure is returned when some specs failed to sync.
const exitPartialFailure = 2

var syncDryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Create or update one GitHub issue per spec",
	Long: `Create or update one GitHub issue per spec. Checkboxes ticked on GitHub
are kept; features removed from a spec drop out of the issue. With
--dry-run the bodies are printed and GitHub is not contacted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		docs, err := loadSpecs(services)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No specs found.")
			return nil
		}

		outcomes, err := syncSpecs(cmd, services, docs, syncDryRun)
		if err != nil {
			return err
		}
		return reportOutcomes(cmd.OutOrStdout(), outcomes, syncDryRun)
	},
}

func syncSpecs(cmd *cobra.Command, services *wiring.AppServices, docs []*spec.Document, dryRun bool) ([]application.SyncOutcome, error) {
	gh := services.Workspace.Config.GitHub
	opts := application.SyncOptions{
		DryRun: dryRun,
		Labels: gh.IssueLabels,
		GitHub: gh,
	}
	if dryRun {
		return services.DryRunSync().SyncAll(cmd.Context(), docs, opts)
	}
	if err := services.RequireTracker(); err != nil {
		return nil, err
	}
	return services.Sync.SyncAll(cmd.Context(), docs, opts)
}

func reportOutcomes(w io.Writer, outcomes []application.SyncOutcome, dryRun bool) error {
	failed := 0
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			failed++
			fmt.Fprintf(w, "failed   %s: %v\n", o.SpecID, o.Err)
		case dryRun:
			fmt.Fprintf(w, "--- %s (%d/%d)\n%s\n", o.SpecID, o.Completed, o.Total, o.Body)
		case o.Created:
			fmt.Fprintf(w, "created  %s #%d (%d/%d, %s)\n", o.SpecID, o.IssueNumber, o.Completed, o.Total, o.Stage)
		default:
			fmt.Fprintf(w, "updated  %s #%d (%d/%d, %s)\n", o.SpecID, o.IssueNumber, o.Completed, o.Total, o.Stage)
		}
	}

	if failed > 0 {
		return &CLIError{
			Message:  fmt.Sprintf("%d of %d specs failed to sync", failed, len(outcomes)),
			Hint:     "Re-run with --verbose for details",
			ExitCode: exitPartialFailure,
		}
	}
	return nil
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Print issue bodies without contacting GitHub")
	RootCmd.AddCommand(syncCmd)
}
