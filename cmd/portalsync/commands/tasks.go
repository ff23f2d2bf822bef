package commands

import (
	"fmt"
	"portalsync/internal/model"
	"portalsync/internal/repository"
	"time"

	"github.com/spf13/cobra"
)

var tasksRefresh *bool

var taskAddClass *string
var taskAddType *string
var taskAddDeadline *string
var taskAddColor *string

func init() {
	tasksRefresh = tasksCmd.Flags().Bool("refresh", false, "Scrape the portal even when tasks are cached.")

	taskAddClass = taskAddCmd.Flags().String("class", "", "The class the task belongs to.")
	taskAddType = taskAddCmd.Flags().String("type", "other", "One of assignment, exam, survey or other.")
	taskAddDeadline = taskAddCmd.Flags().String("deadline", "", "The deadline as 2006-01-02 15:04 in the configured timezone.")
	taskAddColor = taskAddCmd.Flags().String("color", "", "A display color like #ff8800.")

	tasksCmd.AddCommand(taskAddCmd, taskDoneCmd, taskUndoneCmd, taskColorCmd, taskDeleteCmd)
	rootCmd.AddCommand(tasksCmd)
}

var tasksCmd = &cobra.Command{
	Use:   "tasks [--refresh]",
	Short: "Lists assignments, exams and surveys.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			tasks, err := a.repo.FetchTasks(cmd.Context(), *tasksRefresh)
			if err != nil {
				return err
			}
			renderTasks(cmd.OutOrStdout(), tasks, a.time.Location())
			return nil
		})
	},
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title> [--class <name>] [--type <type>] [--deadline <time>] [--color <color>]",
	Short: "Adds a task by hand, it is never overwritten by a refresh.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			input := repository.NewTask{
				Title:     args[0],
				ClassName: *taskAddClass,
				Type:      model.ParseTaskType(*taskAddType),
				Color:     *taskAddColor,
			}
			if *taskAddDeadline != "" {
				deadline, err := time.ParseInLocation("2006-01-02 15:04", *taskAddDeadline, a.time.Location())
				if err != nil {
					return fmt.Errorf("deadline: %w", err)
				}
				input.Deadline = deadline
			}
			task, err := a.repo.AddTask(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), task.Id)
			return nil
		})
	},
}

func setDoneCmd(use, short string, done bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				return a.repo.SetTaskDone(cmd.Context(), args[0], done)
			})
		},
	}
}

var taskDoneCmd = setDoneCmd("done <task id>", "Marks a task as done.", true)
var taskUndoneCmd = setDoneCmd("undone <task id>", "Marks a task as not done.", false)

var taskColorCmd = &cobra.Command{
	Use:   "color <task id> <color>",
	Short: "Sets the display color of a task, an empty color resets it.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return a.repo.SetTaskColor(cmd.Context(), args[0], args[1])
		})
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task id>",
	Short: "Deletes a task, scraped tasks come back on the next refresh.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return a.repo.DeleteTask(cmd.Context(), args[0])
		})
	},
}
