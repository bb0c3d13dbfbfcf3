package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newChatCmd() *cobra.Command {
	var (
		user  string
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the companion from the terminal",
		Long: `Send one message, or start an interactive session.

With a message argument (or piped stdin) a single turn is processed and
the reply printed. On a terminal with no argument, an interactive session
starts; exit with Ctrl-D or /quit.

Examples:
  solace chat "how are you today?"
  echo "remind me to water the plants" | solace chat
  solace chat --debug "what should I focus on?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) > 0 {
				return runTurn(a, user, strings.Join(args, " "), debug)
			}

			if !term.IsTerminal(int(os.Stdin.Fd())) {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				message := strings.TrimSpace(string(data))
				if message == "" {
					return fmt.Errorf("empty message")
				}
				return runTurn(a, user, message, debug)
			}

			return runInteractive(a, user, debug)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "default", "user identifier")
	cmd.Flags().BoolVar(&debug, "debug", false, "print the assembled prompt before the reply")

	return cmd
}

func runTurn(a *app, user, message string, debug bool) error {
	if debug {
		view, err := a.orchestrator.DebugView(user, message, nil)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, view)
	}

	result := a.orchestrator.ProcessMessage(context.Background(), user, message, nil)
	fmt.Println(result.Response)
	if result.Degraded {
		fmt.Fprintf(os.Stderr, "(degraded: %v)\n", result.Err)
	}
	return nil
}

func runInteractive(a *app, user string, debug bool) error {
	readiness := a.orchestrator.Ready(context.Background())
	if !readiness.Ready {
		for _, issue := range readiness.Issues {
			fmt.Fprintln(os.Stderr, "warning:", issue)
		}
	}

	fmt.Println("Solace — Ctrl-D or /quit to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "/quit" || message == "/exit" {
			return nil
		}
		if err := runTurn(a, user, message, debug); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		fmt.Println()
	}
}
