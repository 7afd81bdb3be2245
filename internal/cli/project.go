package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/goal-board/internal/core"
	"github.com/valter-silva-au/goal-board/pkg/models"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "List, select and inspect projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects with their progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		current := Store.CurrentKey()
		for _, key := range Store.ProjectKeys() {
			p, err := Store.Project(key)
			if err != nil {
				continue
			}
			completed, total := core.CountCompleted(p.Tasks)
			marker := " "
			if key == current {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-12s %-24s %3.0f%% (%d/%d)\n",
				marker, key, p.Name, core.Percent(completed, total), completed, total)
		}
		return nil
	},
}

var projectSelectCmd = &cobra.Command{
	Use:   "select <project>",
	Short: "Switch the active project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}
		if err := Store.SelectProject(models.ProjectKey(args[0])); err != nil {
			return err
		}
		p := Store.CurrentProject()
		fmt.Fprintf(cmd.OutOrStdout(), "Now working on %s (%s)\n", p.Name, args[0])
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show [project]",
	Short: "Show a project's goal and tasks",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}
		key := Store.CurrentKey()
		if len(args) == 1 {
			key = models.ProjectKey(args[0])
		}
		p, err := Store.Project(key)
		if err != nil {
			return err
		}
		printProject(cmd.OutOrStdout(), key, p)
		return nil
	},
}

func printProject(out io.Writer, key models.ProjectKey, p models.Project) {
	completed, total := core.CountCompleted(p.Tasks)
	fmt.Fprintf(out, "%s (%s)\n", p.Name, key)
	fmt.Fprintf(out, "Goal: %s\n", p.Goal)
	fmt.Fprintf(out, "Progress: %s %.0f%% (%d/%d)\n\n", progressBar(core.Percent(completed, total), 20), core.Percent(completed, total), completed, total)
	printTasks(out, p.Tasks)
}

func init() {
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectSelectCmd)
	projectCmd.AddCommand(projectShowCmd)
	rootCmd.AddCommand(projectCmd)
}
