package cli

import (
	"fmt"

	"github.com/felixgeelhaar/specsync/pkg/application"
	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
	"github.com/spf13/cobra"
)

var closeIssue int

var closeCmd = &cobra.Command{
	Use:   "close <specId>",
	Short: "Check off every item of a spec's issue and close it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		if err := services.RequireTracker(); err != nil {
			return err
		}
		docs, err := loadSpecs(services)
		if err != nil {
			return err
		}

		specID := args[0]
		doc := application.FindSpec(docs, specID)
		if doc == nil && closeIssue == 0 {
			return fmt.Errorf("%s: %w", specID, tracker.ErrSpecNotFound)
		}

		number, err := services.Sync.Close(cmd.Context(), doc, closeIssue, services.Workspace.Config.GitHub)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Closed #%d for spec %s\n", number, specID)
		return nil
	},
}

func init() {
	closeCmd.Flags().IntVar(&closeIssue, "issue", 0, "Issue number to close instead of searching for it")
	RootCmd.AddCommand(closeCmd)
}
