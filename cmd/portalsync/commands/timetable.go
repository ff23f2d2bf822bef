package commands

import (
	"fmt"
	"portalsync/internal/model"
	"portalsync/internal/repository"

	"github.com/spf13/cobra"
)

var timetableYear *int
var timetableTerm *string
var timetableRefresh *bool

var cellPeriod *int
var cellDay *int
var cellRoom *string
var cellTeachers *[]string
var cellNote *string

func init() {
	timetableYear = timetableCmd.PersistentFlags().Int("year", 0, "The academic year, defaults to the current one.")
	timetableTerm = timetableCmd.PersistentFlags().String("term", "", "The term, defaults to the current one.")
	timetableRefresh = timetableCmd.Flags().Bool("refresh", false, "Scrape the portal even when the timetable is cached.")

	cellPeriod = cellAddCmd.Flags().Int("period", 1, "The period, starting at 1.")
	cellDay = cellAddCmd.Flags().Int("day", 1, "The day of the week, 1 is Monday.")
	cellRoom = cellAddCmd.Flags().String("room", "", "The room.")
	cellTeachers = cellAddCmd.Flags().StringSlice("teacher", nil, "A teacher, can be repeated.")
	cellNote = cellAddCmd.Flags().String("note", "", "A free form note.")

	cellDeleteCmd.Flags().AddFlag(cellAddCmd.Flags().Lookup("period"))
	cellDeleteCmd.Flags().AddFlag(cellAddCmd.Flags().Lookup("day"))

	timetableCmd.AddCommand(cellAddCmd, cellDeleteCmd)
	rootCmd.AddCommand(timetableCmd)
}

func (a *app) term() (int, string) {
	year, term := repository.AcademicTerm(a.time.Now())
	if *timetableYear != 0 {
		year = *timetableYear
	}
	if *timetableTerm != "" {
		term = *timetableTerm
	}
	return year, term
}

var timetableCmd = &cobra.Command{
	Use:   "timetable [--year <year>] [--term <term>] [--refresh]",
	Short: "Shows the timetable of a term, cells added by hand are marked with *.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			year, term := a.term()
			cells, err := a.repo.FetchTimetable(cmd.Context(), year, term, *timetableRefresh)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), model.TimetableTitle(year, term))
			renderTimetable(cmd.OutOrStdout(), cells)
			return nil
		})
	},
}

var cellAddCmd = &cobra.Command{
	Use:   "add <class name> [--period <n>] [--day <n>] [--room <room>] [--teacher <name>]...",
	Short: "Adds a class to the timetable by hand, it survives refreshes.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			year, term := a.term()
			_, err := a.repo.AddClassCell(cmd.Context(), model.ClassCell{
				Name:         args[0],
				Period:       *cellPeriod - 1,
				DayOfWeek:    *cellDay - 1,
				Room:         *cellRoom,
				Teachers:     *cellTeachers,
				Note:         *cellNote,
				AcademicYear: year,
				Term:         term,
			})
			return err
		})
	},
}

var cellDeleteCmd = &cobra.Command{
	Use:   "delete [--period <n>] [--day <n>]",
	Short: "Removes a class that was added by hand.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			year, term := a.term()
			return a.repo.DeleteClassCell(cmd.Context(), year, term, *cellPeriod-1, *cellDay-1)
		})
	},
}
