package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/specsync/internal/infrastructure/watch"
	"github.com/spf13/cobra"
)

var (
	watchDryRun   bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync specs whenever a spec file changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		if !watchDryRun {
			if err := services.RequireTracker(); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		var mu sync.Mutex
		runSync := func() {
			mu.Lock()
			defer mu.Unlock()

			docs, err := loadSpecs(services)
			if err != nil {
				fmt.Fprintf(out, "failed   %v\n", err)
				return
			}
			outcomes, err := syncSpecs(cmd, services, docs, watchDryRun)
			if err != nil {
				fmt.Fprintf(out, "failed   %v\n", MapError(err))
				return
			}
			if err := reportOutcomes(out, outcomes, watchDryRun); err != nil {
				logger.Warn("sync incomplete", "error", err)
			}
		}

		filter := watch.NewPatternFilter(services.Workspace.Config.Specs.Paths, nil)
		w, err := watch.New(services.Workspace.Root, filter, watchDebounce, func(changes []watch.Change) {
			paths := make([]string, 0, len(changes))
			for _, c := range changes {
				paths = append(paths, c.Path)
			}
			fmt.Fprintf(out, "\nChanged at %s: %s\n", time.Now().Format("15:04:05"), strings.Join(paths, ", "))
			runSync()
		}, logger)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}

		runSync()
		fmt.Fprintf(out, "Watching %s for spec changes (Ctrl+C to stop)\n", strings.Join(filter.Roots(), ", "))

		if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchDryRun, "dry-run", false, "Render issue bodies without contacting GitHub")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultWindow, "Quiet period before a change triggers a sync")
	RootCmd.AddCommand(watchCmd)
}
