package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display board activity metrics",
	Long: `Display activity derived from the event log: completions, reopens,
reorders, celebrations, milestones and project switches.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (event log may be disabled)")
		}

		sinceTime, err := parseSinceDuration(metricsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		out := cmd.OutOrStdout()
		if metricsJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Fprintf(out, "  %-20s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Fprintf(out, "  %-20s %d\n", "Tasks completed:", metrics.Completions)
		fmt.Fprintf(out, "  %-20s %d\n", "Tasks reopened:", metrics.Reopens)
		fmt.Fprintf(out, "  %-20s %d\n", "Net completions:", metrics.NetCompletions())
		fmt.Fprintf(out, "  %-20s %d\n", "Reorders:", metrics.Reorders)
		fmt.Fprintf(out, "  %-20s %d\n", "Celebrations:", metrics.Celebrations)
		fmt.Fprintf(out, "  %-20s %d\n", "Milestones:", metrics.Milestones)
		fmt.Fprintf(out, "  %-20s %d\n", "Project switches:", metrics.ProjectSwitches)
		fmt.Fprintf(out, "  %-20s %d\n", "Active days:", metrics.ActiveDays)

		if len(metrics.ByProject) > 0 {
			fmt.Fprintln(out, "\n  By project:")
			keys := make([]string, 0, len(metrics.ByProject))
			for k := range metrics.ByProject {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				a := metrics.ByProject[k]
				fmt.Fprintf(out, "    %-14s done %d, reopened %d, moved %d\n", k+":", a.Completions, a.Reopens, a.Reorders)
			}
		}

		if metrics.OldestEvent != nil {
			fmt.Fprintf(out, "\n  %-20s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Fprintf(out, "  %-20s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}
		return nil
	},
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}
