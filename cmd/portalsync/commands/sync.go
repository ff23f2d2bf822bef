package commands

import (
	"context"
	"fmt"
	"portalsync/internal/components/chrono"

	"github.com/spf13/cobra"
)

const report_daemon_sync = "daemon.sync"

var daemonNow *bool

func init() {
	daemonNow = daemonCmd.Flags().Bool("now", false, "Also sync once right away.")
	rootCmd.AddCommand(syncCmd, daemonCmd)
}

func runSync(ctx context.Context, a *app) error {
	result, err := a.repo.Sync(ctx)
	a.tel.ReportDebug(
		"synced",
		fmt.Sprintf("tasks=%d", result.Tasks),
		fmt.Sprintf("class_cells=%d", result.ClassCells),
		fmt.Sprintf("news=%d", result.News),
	)
	return err
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refreshes tasks, the current timetable and news at once.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			err := runSync(cmd.Context(), a)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Synced.")
			return nil
		})
	},
}

var daemonCmd = &cobra.Command{
	Use:   "daemon [--now]",
	Short: "Syncs on the configured cron schedule until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			ctx := cmd.Context()
			sync := func() {
				err := runSync(ctx, a)
				if err != nil {
					a.tel.ReportBroken(report_daemon_sync, explain(err))
				}
			}

			cron := chrono.NewStandardCron(a.tel, a.time.Location())
			defer cron.Stop()
			err := cron.Cron(a.cfg.Sync.Cron, sync)
			if err != nil {
				return fmt.Errorf("sync.cron: %w", err)
			}
			if *daemonNow {
				sync()
			}

			<-ctx.Done()
			return nil
		})
	},
}
