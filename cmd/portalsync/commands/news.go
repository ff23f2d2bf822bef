package commands

import (
	"github.com/spf13/cobra"
)

var newsRefresh *bool

func init() {
	newsRefresh = newsCmd.Flags().Bool("refresh", false, "Scrape the portal even when news are cached.")
	rootCmd.AddCommand(newsCmd, readCmd)
}

var newsCmd = &cobra.Command{
	Use:   "news [--refresh]",
	Short: "Lists the portal's news, unread items are marked with ●.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			news, err := a.repo.FetchNews(cmd.Context(), *newsRefresh)
			if err != nil {
				return err
			}
			renderNews(cmd.OutOrStdout(), news)
			return nil
		})
	},
}

var readCmd = &cobra.Command{
	Use:   "read <news id>...",
	Short: "Marks news as read.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			for _, id := range args {
				err := a.repo.MarkNewsRead(cmd.Context(), id)
				if err != nil {
					return err
				}
			}
			return nil
		})
	},
}
