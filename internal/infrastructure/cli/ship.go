package cli

import (
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/specsync/pkg/application"
	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
	"github.com/spf13/cobra"
)

var shipCmd = &cobra.Command{
	Use:   "ship <pr> <specId>",
	Short: "Merge a green pull request and close its spec",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		prNumber, err := strconv.Atoi(args[0])
		if err != nil || prNumber <= 0 {
			return fmt.Errorf("invalid pull request number %q", args[0])
		}

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
		doc := application.FindSpec(docs, args[1])
		if doc == nil {
			return fmt.Errorf("%s: %w", args[1], tracker.ErrSpecNotFound)
		}

		res, err := services.Sync.Ship(cmd.Context(), prNumber, doc, services.Workspace.Config.GitHub)
		out := cmd.OutOrStdout()
		if res != nil {
			if res.AlreadyMerged {
				fmt.Fprintf(out, "Pull request #%d was already merged\n", res.PRNumber)
			} else if res.Merged {
				fmt.Fprintf(out, "Merged pull request #%d\n", res.PRNumber)
			}
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Closed #%d for spec %s\n", res.IssueNumber, doc.ID)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(shipCmd)
}
