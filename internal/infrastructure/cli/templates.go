package cli

import (
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/specsync/pkg/application"
	"github.com/spf13/cobra"
)

var templatesDest string

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Download spec-kit templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		if err := services.RequireTracker(); err != nil {
			return err
		}

		dest := templatesDest
		if dest == "" {
			dest = application.DefaultTemplateDir
		}
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(services.Workspace.Root, dest)
		}

		paths, err := services.Templates.Fetch(cmd.Context(), services.Workspace.Config.SpecKit, dest)
		out := cmd.OutOrStdout()
		for _, p := range paths {
			fmt.Fprintf(out, "wrote    %s\n", p)
		}
		return err
	},
}

func init() {
	templatesCmd.Flags().StringVar(&templatesDest, "dest", "", "Directory for the templates (default "+application.DefaultTemplateDir+")")
	RootCmd.AddCommand(templatesCmd)
}
