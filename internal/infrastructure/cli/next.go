package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Pick the next feature to implement and write agent context files",
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

		task, err := services.Task.SelectNext(cmd.Context(), docs)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if task == nil {
			fmt.Fprintln(out, "All spec features are checked off.")
			return nil
		}

		paths, err := services.Task.WriteContext(task, services.Workspace.Config.Codex.ContextPaths)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Next: %s / %s (%s)\n", task.Spec.ID, task.FeatureID, task.Spec.Source)
		for _, p := range paths {
			fmt.Fprintf(out, "wrote    %s\n", p)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(nextCmd)
}
