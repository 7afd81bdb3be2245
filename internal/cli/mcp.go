package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	goalsmcp "github.com/valter-silva-au/goal-board/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the goals MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the goals MCP server on stdio",
	Long: `Start the goals MCP server on stdio transport.

The server exposes the board as MCP tools that AI assistants can call:
list_projects, select_project, list_tasks, toggle_task, reorder_task,
get_progress, get_metrics. Celebrations are not printed while it runs,
since stdout carries the protocol.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		return ServeMCP(ctx, &gomcp.StdioTransport{})
	},
}

// ServeMCP runs the board's MCP server on transport until the client
// disconnects or ctx is cancelled. Terminal celebrations stay muted
// meanwhile.
func ServeMCP(ctx context.Context, transport gomcp.Transport) error {
	if err := requireStore(); err != nil {
		return err
	}

	restore := muteTerminalNotifications()
	defer restore()

	srv := goalsmcp.NewServer(Store, MetricsCalc, Quotes, appVersion)
	if err := srv.Run(ctx, transport); err != nil {
		return fmt.Errorf("running MCP server: %w", err)
	}
	return nil
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
