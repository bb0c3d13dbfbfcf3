package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solacehq/solace/internal/logging"
	"github.com/solacehq/solace/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Start the Solace HTTP API.

The server exposes chat, conversation history, and the task list under
/api/v1, plus /health and /ready probes. Prompt templates are re-read
whenever the template file changes on disk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Init()

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if watcher, err := a.templates.Watch(); err != nil {
				slog.Warn("template watch disabled", "error", err)
			} else {
				defer watcher.Close()
			}

			srv := server.New(a.orchestrator, a.tasks)

			listenAddr := a.cfg.Server.Addr
			if addr != "" {
				listenAddr = addr
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Listen(listenAddr)
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				slog.Info("shutting down", "signal", sig.String())
				return srv.Shutdown()
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}
