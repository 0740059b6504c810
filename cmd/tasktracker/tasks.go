package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"task-tracker/internal/calendar"
	"task-tracker/internal/model"
	"task-tracker/internal/service"
)

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("category", "c", model.AllCategories, "Only this category")
	cmd.Flags().StringP("date", "d", "", "Only this day (YYYY-MM-DD or today)")
	cmd.Flags().StringP("name", "n", "", "Only names starting with this prefix")
	cmd.Flags().StringP("format", "f", "text", "Output format (text, json, yaml)")
}

func filterFromFlags(cmd *cobra.Command, ix *calendar.Indexer, now time.Time) (service.TaskFilter, error) {
	category, _ := cmd.Flags().GetString("category")
	date, _ := cmd.Flags().GetString("date")
	name, _ := cmd.Flags().GetString("name")

	filter := service.TaskFilter{Category: category, NamePrefix: name}
	if date != "" {
		day, err := parseDay(date, ix, now)
		if err != nil {
			return service.TaskFilter{}, err
		}
		filter.Day = day
	}
	return filter, nil
}

func parseDay(raw string, ix *calendar.Indexer, now time.Time) (calendar.Day, error) {
	if strings.EqualFold(strings.TrimSpace(raw), "today") {
		return ix.Today(now), nil
	}
	return calendar.ParseDay(raw)
}

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks, sorted by date",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				if err := a.requireSession(); err != nil {
					return err
				}
				filter, err := filterFromFlags(cmd, a.ix, time.Now())
				if err != nil {
					return err
				}
				snap, err := a.tasks.FetchAll(cmd.Context(), filter)
				if err != nil {
					return errReported
				}
				return writeTasks(cmd.OutOrStdout(), format, snap.Tasks, a.ix, time.Now())
			})
		},
	}

	addFilterFlags(cmd)

	return cmd
}

func chartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Show pending and completed tasks per week and weekday",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				if err := a.requireSession(); err != nil {
					return err
				}
				filter, err := filterFromFlags(cmd, a.ix, time.Now())
				if err != nil {
					return err
				}
				snap, err := a.tasks.FetchAll(cmd.Context(), filter)
				if err != nil {
					return errReported
				}
				return writeChart(cmd.OutOrStdout(), format, snap.Matrix)
			})
		},
	}

	addFilterFlags(cmd)

	return cmd
}

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")
			priority, _ := cmd.Flags().GetString("priority")
			date, _ := cmd.Flags().GetString("date")

			return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				if err := a.requireSession(); err != nil {
					return err
				}
				now := time.Now()
				day, err := parseDay(date, a.ix, now)
				if err != nil {
					return err
				}
				if _, err := a.tasks.FetchAll(cmd.Context(), service.AllTasks); err != nil {
					return errReported
				}

				task, err := a.tasks.Create(cmd.Context(), model.Task{
					Name:     strings.Join(args, " "),
					Category: category,
					Priority: model.Priority(priority),
					Date:     day.Timestamp(a.ix.Location()),
				})
				if err != nil {
					return errReported
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  [%s]\n", service.FormatTaskLine(0, task, a.ix, now), task.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringP("category", "c", "", "Category name")
	cmd.Flags().StringP("priority", "p", string(model.PriorityLow), "Priority (Alta, Media, Baixa)")
	cmd.Flags().StringP("date", "d", "today", "Day (YYYY-MM-DD or today)")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done [task-id]",
		Short: "Toggle a task between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				if err := a.requireSession(); err != nil {
					return err
				}
				if _, err := a.tasks.FetchAll(cmd.Context(), service.AllTasks); err != nil {
					return errReported
				}
				task, err := a.tasks.ToggleCompleted(cmd.Context(), args[0])
				if err != nil {
					return errReported
				}
				state := "reopened"
				if task.Active {
					state = "completed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", task.Name, state)
				return nil
			})
		},
	}
}

func rmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm [task-id]",
		Short: "Remove a task after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				if err := a.requireSession(); err != nil {
					return err
				}
				if _, err := a.tasks.FetchAll(cmd.Context(), service.AllTasks); err != nil {
					return errReported
				}
				tok, err := a.tasks.ProposeRemoval(args[0])
				if err != nil {
					return errReported
				}

				question := fmt.Sprintf("Remove task %q?", tok.Label)
				if !yes && !confirm(bufio.NewReader(cmd.InOrStdin()), cmd.ErrOrStderr(), question) {
					a.tasks.CancelRemoval(tok.ID)
					fmt.Fprintln(cmd.OutOrStdout(), "Kept.")
					return nil
				}
				if err := a.tasks.ConfirmRemoval(cmd.Context(), tok.ID); err != nil {
					return errReported
				}
				a.tasks.Reaggregate()
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", tok.Label)
				return nil
			})
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func writeTasks(w io.Writer, format string, tasks []model.Task, ix *calendar.Indexer, now time.Time) error {
	switch format {
	case "json":
		return writeJSON(w, tasks)
	case "yaml":
		return writeYAML(w, tasks)
	case "text", "":
		if len(tasks) == 0 {
			_, err := fmt.Fprintln(w, "No tasks.")
			return err
		}
		for i, task := range tasks {
			if _, err := fmt.Fprintf(w, "%s  [%s]\n", service.FormatTaskLine(i+1, task, ix, now), task.ID); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeChart(w io.Writer, format string, m model.WeeklyMatrix) error {
	switch format {
	case "json":
		return writeJSON(w, m)
	case "yaml":
		return writeYAML(w, m)
	case "text", "":
		_, err := fmt.Fprintln(w, service.FormatWeeklyChart(m))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
