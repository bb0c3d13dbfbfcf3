// Package cli defines the Cobra command tree for the solace CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// version, commit, date are set via -ldflags at build time.
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "solace",
	Short: "Local-first AI companion with a memory and a task list",
	Long: `Solace is a personal AI companion that runs entirely against local
model backends (Ollama or any OpenAI-compatible server).

It remembers what you tell it, tracks your mood and current focus across
conversations, and keeps a task list it can fill from things you mention.

Run 'solace serve' to start the HTTP API, or 'solace chat' to talk to it
from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute(v, c, d string) {
	version, commit, date = v, c, d
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newTasksCmd(),
		newStatusCmd(),
		newResetCmd(),
		newPruneCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("solace %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
