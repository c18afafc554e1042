package cli

import (
	"fmt"

	"github.com/felixgeelhaar/specsync/pkg/application"
	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
	"github.com/spf13/cobra"
)

var (
	reviewADRURL         string
	reviewWikiURL        string
	reviewOpenDiscussion bool
)

var reviewCmd = &cobra.Command{
	Use:   "review <specId>",
	Short: "Link a spec issue to its design review and wiki page",
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
		doc := application.FindSpec(docs, args[0])
		if doc == nil {
			return fmt.Errorf("%s: %w", args[0], tracker.ErrSpecNotFound)
		}

		gh := services.Workspace.Config.GitHub
		res, err := services.Review.Review(cmd.Context(), doc, application.ReviewOptions{
			ADRURL:         reviewADRURL,
			WikiURL:        reviewWikiURL,
			OpenDiscussion: reviewOpenDiscussion,
			Category:       gh.DiscussionCategory,
			Labels:         gh.IssueLabels,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if res.DiscussionURL != "" {
			fmt.Fprintf(out, "Design review: %s\n", res.DiscussionURL)
		}
		fmt.Fprintf(out, "Updated #%d for spec %s\n", res.IssueNumber, doc.ID)
		return nil
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewADRURL, "adr-url", "", "Design review or ADR link")
	reviewCmd.Flags().StringVar(&reviewWikiURL, "wiki-url", "", "Wiki page link")
	reviewCmd.Flags().BoolVar(&reviewOpenDiscussion, "open-discussion", false, "Create a design-review discussion when no ADR link is given")
	RootCmd.AddCommand(reviewCmd)
}
