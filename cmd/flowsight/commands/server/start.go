// Package server provides the Cobra command implementation for the Flowsight
// server lifecycle. It wires CLI flags to the server runtime and handles the
// start command.
package server

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/flowsight/flowsight/cmd/flowsight/internal/format"
	"github.com/flowsight/flowsight/pkg/appctx"
	"github.com/flowsight/flowsight/pkg/logging"
	serversvc "github.com/flowsight/flowsight/pkg/server"
	"github.com/flowsight/flowsight/pkg/server/app"
)

// newStartServerCommand creates and returns the 'flowsight server start' command.
//
// This command initializes the Flowsight server runtime, which includes:
//   - HTTP API server with REST endpoints (/api/predict, /api/results/...)
//   - WebSocket prediction stream (/api/stream/predictions)
//   - Health, readiness and Prometheus metrics endpoints
//
// The server runs until interrupted (SIGINT/SIGTERM) or context cancellation,
// then performs graceful shutdown (HTTP drain → stream hub stop).
//
// Configuration is loaded from:
//   - Global flags (--config, --debug)
//   - Server-specific flags (--addr, --port, --no-api, --no-stream, --max-upload-mb)
//   - Environment variables (FLOWSIGHT_*)
//   - Config file (flowsight.yaml)
//
// Example usage:
//
//	flowsight server start
//	flowsight server start --addr 0.0.0.0 --port 8080
//	flowsight server start --scoring-mode remote --scoring-url http://model:9000
func newStartServerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the Flowsight server",
		Long: `Start the Flowsight server process.

The server hosts multiple components in a single runtime:
  - HTTP API (CSV upload scoring, chart aggregates, PR-curve and timeline queries)
  - WebSocket stream (pushes prediction events to connected dashboards)
  - Prometheus metrics endpoint

The server runs until interrupted (Ctrl+C) or killed, performing graceful
shutdown to drain in-flight requests and disconnect stream clients.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)

			// Get config manager from context
			cfgMgr, ok := appctx.Config(cmd.Context())
			if !ok {
				err := serversvc.ErrConfigUnavailable
				return formatter.PrintTotalFailureSummary("start server", err, serversvc.ErrorCode(err))
			}

			cfg := cfgMgr.Get()

			// Apply command flag overrides on top of the loaded configuration.
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Server.Addr, _ = flags.GetString("addr")
			}
			if flags.Changed("port") {
				cfg.Server.Port, _ = flags.GetInt("port")
			}
			if flags.Changed("no-api") {
				noAPI, _ := flags.GetBool("no-api")
				cfg.Server.APIEnabled = !noAPI
			}
			if flags.Changed("no-stream") {
				noStream, _ := flags.GetBool("no-stream")
				cfg.Server.StreamEnabled = !noStream
			}
			if flags.Changed("dev") {
				cfg.Server.DevMode, _ = flags.GetBool("dev")
			}
			if flags.Changed("max-upload-mb") {
				cfg.Server.MaxUploadMB, _ = flags.GetInt("max-upload-mb")
			}
			if flags.Changed("max-rows") {
				cfg.Dataset.MaxRows, _ = flags.GetInt("max-rows")
			}
			if flags.Changed("scoring-mode") {
				cfg.Scoring.Mode, _ = flags.GetString("scoring-mode")
			}
			if flags.Changed("scoring-url") {
				cfg.Scoring.URL, _ = flags.GetString("scoring-url")
			}

			// Validate configuration
			if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
				err := serversvc.NewInvalidPortError(cfg.Server.Port)
				return formatter.PrintTotalFailureSummary("start server", err, serversvc.ErrorCode(err))
			}
			if cfg.Server.MaxUploadMB < 1 || cfg.Server.MaxUploadMB > 1024 {
				err := serversvc.NewInvalidUploadLimitError(cfg.Server.MaxUploadMB)
				return formatter.PrintTotalFailureSummary("start server", err, serversvc.ErrorCode(err))
			}
			if !cfg.Server.APIEnabled && !cfg.Server.StreamEnabled {
				err := serversvc.NewFeaturesDisabledError()
				return formatter.PrintTotalFailureSummary("start server", err, serversvc.ErrorCode(err))
			}

			// Create logger for server
			logger := logging.NewLogger("server", zerolog.InfoLevel)

			// Build dependencies
			deps := &app.Deps{
				Config: cfgMgr,
				Logger: logger,
			}

			// Create server app
			serverApp, err := app.New(cmd.Context(), cfg, deps)
			if err != nil {
				wrapped := serversvc.WrapAppInit(err)
				return formatter.PrintTotalFailureSummary("start server", wrapped, serversvc.ErrorCode(wrapped))
			}

			// Run server (blocks until shutdown)
			if runErr := serverApp.Run(cmd.Context()); runErr != nil {
				wrapped := serversvc.WrapRuntime(runErr)
				return formatter.PrintTotalFailureSummary("start server", wrapped, serversvc.ErrorCode(wrapped))
			}

			return nil
		},
	}

	// Server-specific flags
	cmd.Flags().String("addr", "127.0.0.1", "Server listen address")
	cmd.Flags().Int("port", 8080, "Server listen port")
	cmd.Flags().Bool("no-api", false, "Disable REST API endpoints")
	cmd.Flags().Bool("no-stream", false, "Disable the WebSocket prediction stream")
	cmd.Flags().Bool("dev", false, "Enable dev mode (disables auth)")
	cmd.Flags().Int("max-upload-mb", 64, "Maximum CSV upload size in megabytes")
	cmd.Flags().Int("max-rows", 50000, "Maximum rows analyzed per upload before downsampling")
	cmd.Flags().String("scoring-mode", "heuristic", "Scoring mode (heuristic or remote)")
	cmd.Flags().String("scoring-url", "", "Model service base URL (remote mode)")

	return cmd
}
