package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show progress and the focus task for the active project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		p := Store.CurrentProject()
		completed, total := Store.Counts()
		pct := Store.PercentComplete()

		fmt.Fprintf(out, "%s: %s\n", p.Name, p.Goal)
		fmt.Fprintf(out, "%s %.0f%% (%d/%d)\n", progressBar(pct, 30), pct, completed, total)
		if focus, ok := Store.FirstIncomplete(); ok {
			fmt.Fprintf(out, "Focus: #%d %s\n", focus.ID, focus.Title)
		} else if total > 0 {
			fmt.Fprintln(out, "Every task is done.")
		}
		if Quotes != nil {
			fmt.Fprintf(out, "\n%q\n", Quotes.Current())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(progressCmd)
}
