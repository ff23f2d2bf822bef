package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath *string

func init() {
	configPath = rootCmd.PersistentFlags().String(
		"config",
		"portalsync.json5",
		"The configuration file, searched for from the working directory upwards.",
	)
}

var rootCmd = &cobra.Command{
	Use:           "portalsync",
	Short:         "portalsync signs in to the university portal and keeps a local copy of tasks, timetable and news.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
