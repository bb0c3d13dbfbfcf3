package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var (
		user  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete a user's messages, memories, and context",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				fmt.Printf("This deletes all stored conversation state for user %q. Continue? [y/N] ", user)
				reader := bufio.NewReader(os.Stdin)
				answer, _ := reader.ReadString('\n')
				if strings.ToLower(strings.TrimSpace(answer)) != "y" {
					fmt.Println("Aborted.")
					return nil
				}
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.memories.ResetUser(user); err != nil {
				return err
			}
			fmt.Printf("Reset user %q.\n", user)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "default", "user identifier")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")

	return cmd
}

func newPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete expired memories",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.memories.PruneExpired()
			if err != nil {
				return err
			}
			fmt.Printf("Pruned %d expired memories.\n", n)
			return nil
		},
	}
}
