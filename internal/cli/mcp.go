package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	sdgmcp "github.com/valter-silva-au/story-digest/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the sdg MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sdg MCP server on stdio",
	Long: `Start the sdg MCP server on stdio transport.

The server lets an assistant drive the clarification loop for the user:
digest_status, list_questions, answer_questions, list_stories,
recovery_summary and get_metrics.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipRecovery: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}

		srv := sdgmcp.NewServer(Digest, MetricsCalc, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
