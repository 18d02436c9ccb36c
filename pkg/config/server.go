package config

import (
	"time"

	"github.com/spf13/pflag"
)

// DefaultServerConfig returns the default server configuration.
// These are sensible defaults for local development and can be overridden
// via flags, environment variables, or config files.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:          "127.0.0.1",
		Port:          8080,
		APIEnabled:    true,
		StreamEnabled: true,
		DevMode:       false,
		MaxUploadMB:   64,
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  60 * time.Second,
	}
}

// BindServerFlags binds server-specific flags to the provided FlagSet.
// These flags will be used by the 'flowsight server start' command.
//
// Flags are namespaced under 'server.' to avoid conflicts with global flags.
// Example: --server.addr, --server.port
func BindServerFlags(flags *pflag.FlagSet) {
	defaults := DefaultServerConfig()

	flags.String("server.addr", defaults.Addr, "Server listen address (use 0.0.0.0 for all interfaces)")
	flags.Int("server.port", defaults.Port, "Server listen port")
	flags.Bool("server.api_enabled", defaults.APIEnabled, "Enable REST API endpoints")
	flags.Bool("server.stream_enabled", defaults.StreamEnabled, "Enable the WebSocket prediction stream")
	flags.Bool("server.dev_mode", defaults.DevMode, "Enable dev mode (disables auth)")
	flags.Int("server.max_upload_mb", defaults.MaxUploadMB, "Maximum CSV upload size in megabytes")
	flags.Duration("server.read_timeout", defaults.ReadTimeout, "HTTP read timeout")
	flags.Duration("server.write_timeout", defaults.WriteTimeout, "HTTP write timeout")

	flags.String("scoring.mode", "heuristic", "Scoring mode (heuristic or remote)")
	flags.String("scoring.url", "", "Model service base URL (remote mode)")
	flags.Int("dataset.max_rows", 50000, "Maximum rows analyzed per upload before downsampling")
}
