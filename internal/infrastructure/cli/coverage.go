package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var coveragePR int

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Report which spec features are checked off on GitHub",
	Long: `Report which spec features are checked off on GitHub and write the result
to .specs/coverage-report.json. Without GitHub credentials every feature
is reported as pending.`,
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

		report, path, err := services.Coverage.Run(cmd.Context(), docs, coveragePR)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, it := range report.Items {
			line := fmt.Sprintf("%-8s %s / %s", it.Status, it.SpecID, it.FeatureID)
			if it.Notes != "" {
				line += " (" + it.Notes + ")"
			}
			fmt.Fprintln(out, line)
		}
		fmt.Fprintf(out, "Coverage: %d/%d features (%.0f%%) across %d specs\n",
			report.Summary.CoveredFeatures, report.Summary.TotalFeatures, report.Percent(), report.Summary.TotalSpecs)
		fmt.Fprintf(out, "Report: %s\n", path)
		return nil
	},
}

func init() {
	coverageCmd.Flags().IntVar(&coveragePR, "pr", 0, "Pull request number recorded in the report")
	RootCmd.AddCommand(coverageCmd)
}
