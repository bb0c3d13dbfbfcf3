package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show backend readiness and storage counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			readiness := a.orchestrator.Ready(context.Background())

			fmt.Printf("\nBackend:   %s (%s) at %s\n",
				a.cfg.Backend.Kind, a.cfg.Backend.Model, a.cfg.Backend.BaseURL)
			if readiness.Ready {
				fmt.Println("Status:    ready")
			} else {
				fmt.Println("Status:    not ready")
				for _, issue := range readiness.Issues {
					fmt.Printf("  - %s\n", issue)
				}
			}

			memCount, err := a.memories.CountMemories(user)
			if err != nil {
				return err
			}
			msgCount, err := a.memories.CountMessages(user)
			if err != nil {
				return err
			}
			taskCount, err := a.tasks.Count(user)
			if err != nil {
				return err
			}

			fmt.Printf("User:      %s\n", user)
			fmt.Printf("Memories:  %d\n", memCount)
			fmt.Printf("Messages:  %d\n", msgCount)
			fmt.Printf("Tasks:     %d\n", taskCount)

			var dbSize int64
			if fi, err := os.Stat(a.cfg.DBPath); err == nil {
				dbSize = fi.Size()
			}
			fmt.Printf("DB size:   %s\n", formatBytes(dbSize))
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "default", "user identifier")

	return cmd
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
