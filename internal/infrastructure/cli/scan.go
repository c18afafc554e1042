package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List spec files and their features",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		docs, err := loadSpecs(services)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(docs) == 0 {
			fmt.Fprintln(out, "No specs found.")
			return nil
		}
		for _, d := range docs {
			fmt.Fprintf(out, "%-24s %2d features  %s\n", d.ID, len(d.Features), d.Source)
		}
		fmt.Fprintf(out, "%d specs\n", len(docs))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(scanCmd)
}
