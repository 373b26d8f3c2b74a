package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"todo-tui/app"
	"todo-tui/model"
	"todo-tui/store"
)

func newAddCmd(a *App) *cobra.Command {
	var (
		priority  int
		notes     string
		timeframe string
	)
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if priority < model.PriorityHighest || priority > model.PriorityLowest {
				return fmt.Errorf("%w, got %d", ErrInvalidPriority, priority)
			}
			state, err := a.loadState()
			if err != nil {
				return err
			}
			task, err := state.AddTask(strings.Join(args, " "), priority, notes, timeframe)
			if err != nil {
				return err
			}
			if err := a.persist(state); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added: %s (P%d)\n", task.Title, task.Priority)
			return err
		},
	}
	cmd.Flags().IntVarP(&priority, "priority", "p", model.DefaultPriority, "Priority from 1 (highest) to 5")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Free-text notes")
	cmd.Flags().StringVarP(&timeframe, "timeframe", "t", "", "Scheduling hint, e.g. \"Today 3-5pm\"")
	return cmd
}

func newListCmd(a *App) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks with their positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.ParseFilter(filter)
			if err != nil {
				return err
			}
			state, err := a.loadState()
			if err != nil {
				return err
			}
			state.SetFilter(f)
			return writeList(cmd.OutOrStdout(), state.VisibleTasks(), a.cfg.NoColor)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "Which tasks to show (all|active|done)")
	return cmd
}

func newDoneCmd(a *App) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "done <position>",
		Short: "Toggle done for the task at a list position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := a.selectAt(args[0], filter)
			if err != nil {
				return err
			}
			task, _ := state.SelectedTask()
			state.ToggleSelected()
			if err := a.persist(state); err != nil {
				return err
			}
			verb := "Done"
			if task.IsDone() {
				verb = "Reopened"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", verb, task.Title)
			return err
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "Filter the position refers to (all|active|done)")
	return cmd
}

func newDeleteCmd(a *App) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:     "delete <position>",
		Aliases: []string{"rm"},
		Short:   "Delete the task at a list position",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := a.selectAt(args[0], filter)
			if err != nil {
				return err
			}
			task, _ := state.SelectedTask()
			state.DeleteSelected()
			if err := a.persist(state); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", task.Title)
			return err
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "Filter the position refers to (all|active|done)")
	return cmd
}

func newTUICmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(a)
		},
	}
}

func newRecoverCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Restore a malformed task file from its newest valid backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := store.Recover(a.cfg.DataFile)
			if err != nil {
				if errors.Is(err, store.ErrNoValidBackup) {
					return fmt.Errorf("%s: %w", a.cfg.DataFile, err)
				}
				return err
			}
			a.log.Info("recover", "path", a.cfg.DataFile, "result", report)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), report)
			return err
		},
	}
}

func newPathCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the resolved task file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), a.cfg.DataFile)
			return err
		},
	}
}

// selectAt loads the state and selects the task shown at the 1-based
// position raw by `list` under the same filter.
func (a *App) selectAt(raw, filter string) (*app.State, error) {
	pos, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid position %q: must be a number", raw)
	}
	f, err := app.ParseFilter(filter)
	if err != nil {
		return nil, err
	}
	state, err := a.loadState()
	if err != nil {
		return nil, err
	}
	state.SetFilter(f)
	if !state.Select(pos - 1) {
		return nil, fmt.Errorf("%w %d", ErrNoTaskAtPosition, pos)
	}
	return state, nil
}

func writeList(w io.Writer, tasks []model.Task, noColor bool) error {
	r := lipgloss.NewRenderer(w)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}
	doneStyle := r.NewStyle().Foreground(lipgloss.Color("241"))
	whenStyle := r.NewStyle().Foreground(lipgloss.Color("111"))

	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}
	for i, t := range tasks {
		mark := " "
		if t.IsDone() {
			mark = "x"
		}
		line := fmt.Sprintf("%d. [%s] P%d %s", i+1, mark, model.ClampPriority(t.Priority), t.Title)
		if t.IsDone() {
			line = doneStyle.Render(line)
		}
		if tf := t.TimeframeText(); tf != "" {
			line += whenStyle.Render(" (" + tf + ")")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
