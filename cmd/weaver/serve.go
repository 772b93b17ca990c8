package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/promptweaver/weaver/internal/config"
	"github.com/promptweaver/weaver/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Weaver server",
	Long: `Start the Weaver HTTP server.

The server provides:
  - /health                       - Basic server health check
  - /ready                        - Readiness check
  - /api/prompt-assistant         - One-shot structured prompt generation
  - /api/workflows/...            - Conversational generator workflows
  - /api/account/provision        - Account row provisioning (needs a database)
  - /api/profile/events           - Live profile updates (needs a database)

Examples:
  weaver serve                    # Start on default port 8080
  weaver serve --port 3000        # Start on custom port
  weaver serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		configMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		if err := configMgr.Get().Validate(); err != nil {
			return err
		}
		configMgr.WatchConfig()

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: configMgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
