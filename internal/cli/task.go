package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/goal-board/internal/observability"
	"github.com/valter-silva-au/goal-board/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Work with the active project's tasks (list, toggle, move, focus, history)",
	Long: `Task commands act on the active project (see "goals project select").

Task ids are positions: they are renumbered 1..N after every move, so list
the tasks again before referring to one by id.`,
}

var taskListJSON bool

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}
		tasks := Store.Tasks()
		if taskListJSON {
			data, err := json.MarshalIndent(tasks, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting tasks as JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		printTasks(cmd.OutOrStdout(), tasks)
		return nil
	},
}

var taskToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Mark a task done, or reopen it if it is already done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		res, ok := Store.ToggleCompletion(id)
		if !ok {
			return fmt.Errorf("no task with id %d in %s", id, Store.CurrentKey())
		}
		verb := "Reopened"
		if res.Completed {
			verb = "Completed"
		}
		completed, total := Store.Counts()
		fmt.Fprintf(cmd.OutOrStdout(), "%s task %d: %s (%.0f%%, %d/%d)\n",
			verb, res.Task.ID, res.Task.Title, Store.PercentComplete(), completed, total)
		return nil
	},
}

var taskMoveCmd = &cobra.Command{
	Use:   "move <source-id> <target-id>",
	Short: "Move a task in front of another task",
	Long: `Move the source task so it sits immediately before the target task.
Tasks in between shift by one. Ids are renumbered afterwards, so dropping a
task onto the one right after it changes nothing.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}
		src, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		dst, err := parseTaskID(args[1])
		if err != nil {
			return err
		}
		if !Store.Reorder(src, dst) {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to move.")
			return nil
		}
		printTasks(cmd.OutOrStdout(), Store.Tasks())
		return nil
	},
}

var taskFocusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Show the first task that is not done yet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		task, ok := Store.FirstIncomplete()
		if !ok {
			fmt.Fprintln(out, "All tasks are done.")
			return nil
		}
		printTaskDetail(out, task)
		return nil
	},
}

func parseTaskID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func printTasks(out io.Writer, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return
	}
	for _, t := range tasks {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		estimate := t.TimeEstimate
		if t.IsMilestone() {
			estimate = "* " + estimate
		}
		fmt.Fprintf(out, "%3d %s %-40s %-12s %s\n", t.ID, check, t.Title, t.Phase, estimate)
	}
}

func printTaskDetail(out io.Writer, t models.Task) {
	fmt.Fprintf(out, "#%d %s\n", t.ID, t.Title)
	fields := []struct{ label, value string }{
		{"Phase", t.Phase},
		{"Estimate", t.TimeEstimate},
		{"Why", t.Reasoning},
		{"Details", t.Details},
		{"Blocked by", t.BlockedBy},
		{"Unlocks", t.Unlocks},
	}
	for _, f := range fields {
		if f.value != "" {
			fmt.Fprintf(out, "  %-11s %s\n", f.label+":", f.value)
		}
	}
}

var taskHistoryLimit int

var taskHistoryCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show what happened to one task",
	Long: `Show the event log entries for a task in the active project: completions,
reopens, moves and celebrations. Entries are matched on the task's stable
key, so moves recorded under an older id still show up.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}
		if EventLog == nil {
			return fmt.Errorf("event log not initialized")
		}
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		task, ok := findTask(Store.Tasks(), id)
		if !ok {
			return fmt.Errorf("no task with id %d in %s", id, Store.CurrentKey())
		}

		events, err := EventLog.Read(observability.EventFilter{
			Project: string(Store.CurrentKey()),
			TaskKey: task.Key,
			Limit:   taskHistoryLimit,
		})
		if err != nil {
			return fmt.Errorf("reading event log: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d. %s\n", task.ID, task.Title)
		if len(events) == 0 {
			fmt.Fprintln(out, "  No history yet.")
			return nil
		}
		for _, e := range events {
			fmt.Fprintf(out, "  %s  %-17s %s\n", e.Time.Local().Format("2006-01-02 15:04"), e.Type, e.Message)
		}
		return nil
	},
}

func findTask(tasks []models.Task, id int) (models.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

func progressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(width, filled))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func init() {
	taskListCmd.Flags().BoolVar(&taskListJSON, "json", false, "Output tasks as JSON")
	taskHistoryCmd.Flags().IntVar(&taskHistoryLimit, "limit", 20, "Show at most this many recent entries (0 for all)")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskToggleCmd)
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(taskFocusCmd)
	taskCmd.AddCommand(taskHistoryCmd)
	rootCmd.AddCommand(taskCmd)
}
