package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/mdtoc/internal/server"
)

var (
	serveHost      string
	servePort      string
	serveRateLimit int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mdtoc server",
	Long: `Start the mdtoc HTTP server.

The server provides:
  - GET  /health   - Server health check
  - GET  /config   - Active configuration
  - POST /format   - Format a document: {"markdown": "..."}
  - POST /headings - List a document's headings and anchors

Host, port and rate limit default to the config file. When a config file is
in use it is watched, and edits apply without a restart.

Examples:
  mdtoc serve                    # Start on default port 8080
  mdtoc serve --port 3000        # Start on custom port
  mdtoc serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := cm.Get()
		logger := newLogger(cfg)

		host, port, rateLimit := cfg.Server.Host, cfg.Server.Port, cfg.Server.RateLimit
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		if cmd.Flags().Changed("rate-limit") {
			rateLimit = serveRateLimit
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			RateLimit:     rateLimit,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		if used := cm.ConfigFileUsed(); used != "" {
			cm.WatchConfig()
			logger.Info("watching config file", "path", used)
		}

		// Start server (blocks until shutdown)
		return srv.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")
	serveCmd.Flags().IntVar(&serveRateLimit, "rate-limit", 120, "Requests per minute per client (0 disables)")

	rootCmd.AddCommand(serveCmd)
}
