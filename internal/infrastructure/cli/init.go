package cli

import (
	"fmt"

	"github.com/felixgeelhaar/specsync/pkg/application"
	"github.com/felixgeelhaar/specsync/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	initCodexWrappers bool
	initWorkflow      bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold .specs.yml and an example spec",
	Long: `Scaffold .specs.yml, specs/example.feature.md and, optionally, coding
agent wrapper scripts and a CI workflow. Existing files are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		service := application.NewInitService(storage.NewFilesystemRepository(root))

		results, err := service.Initialize(application.InitOptions{
			CodexWrappers: initCodexWrappers,
			Workflow:      initWorkflow,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize workspace: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, r := range results {
			if r.Created {
				fmt.Fprintf(out, "created  %s\n", r.Path)
			} else {
				fmt.Fprintf(out, "exists   %s\n", r.Path)
			}
		}
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initCodexWrappers, "with-codex-wrappers", false, "Write .codex/commands wrapper scripts")
	initCmd.Flags().BoolVar(&initWorkflow, "with-workflow", false, "Write a GitHub Actions coverage workflow")
	RootCmd.AddCommand(initCmd)
}
