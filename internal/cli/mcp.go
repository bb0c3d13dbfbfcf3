package cli

import (
	"github.com/spf13/cobra"

	"github.com/solacehq/solace/internal/logging"
	"github.com/solacehq/solace/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the companion as MCP tools over stdio",
		Long: `Expose Solace to MCP clients (editors, coding agents) over stdio.

Tools: chat, remember, list_tasks, create_task, status. Conversation
state persists in the same database the HTTP API and CLI use.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Init()

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return mcp.NewServer(a.orchestrator, a.memories, a.tasks, version).ServeStdio()
		},
	}
}
