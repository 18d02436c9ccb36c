// pkg/config/types.go
package config

import "time"

// Config is the root configuration structure for the Flowsight application.
// It aggregates all other specific configuration structs.
type Config struct {
	Log     LogConfig     `description:"Logging configuration" koanf:"log"`
	Server  ServerConfig  `description:"Server configuration" koanf:"server"`
	Dataset DatasetConfig `description:"Dataset intake configuration" koanf:"dataset"`
	Scoring ScoringConfig `description:"Flow scoring configuration" koanf:"scoring"`
	History HistoryConfig `description:"Result retention configuration" koanf:"history"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level set for flowsight logs." koanf:"level"`  // "debug", "info", "warn", "error"
	Format string `description:"Flowsight log format: json | text" koanf:"format"` // "json", "text"
	File   string `description:"Log file path" koanf:"file"`                       // optional
}

// ServerConfig holds configuration for the Flowsight server runtime.
// Used by 'flowsight server start'.
type ServerConfig struct {
	// Network settings
	Addr string `description:"Server listen address" koanf:"addr"`
	Port int    `description:"Server listen port" koanf:"port"`

	// Component toggles
	APIEnabled    bool `description:"Enable REST API endpoints" koanf:"api_enabled"`
	StreamEnabled bool `description:"Enable the WebSocket prediction stream" koanf:"stream_enabled"`

	// Dev mode disables auth for local work.
	DevMode bool `description:"Enable dev mode (disables auth)" koanf:"dev_mode"`

	// Upload limits
	MaxUploadMB int `description:"Maximum CSV upload size in megabytes" koanf:"max_upload_mb"`

	// HTTP timeouts
	ReadTimeout  time.Duration `description:"HTTP read timeout" koanf:"read_timeout"`
	WriteTimeout time.Duration `description:"HTTP write timeout" koanf:"write_timeout"`

	// Sub-configurations
	Auth AuthConfig `description:"Authentication configuration" koanf:"auth"`
}

// DatasetConfig bounds and shapes CSV intake.
type DatasetConfig struct {
	// MaxRows caps the analyzed row count; larger uploads are downsampled.
	MaxRows int `description:"Maximum rows analyzed per upload before downsampling" koanf:"max_rows"`

	// RequiredColumns must all be present in an upload, or it is rejected.
	RequiredColumns []string `description:"Columns an upload must contain" koanf:"required_columns"`

	// LabelHint biases positive-label inference when set (e.g. "attack").
	LabelHint string `description:"Preferred positive label token" koanf:"label_hint"`

	// BucketMinutes sets the default timeline bucket width.
	BucketMinutes int `description:"Timeline bucket width in minutes" koanf:"bucket_minutes"`
}

// ScoringConfig selects and tunes the flow scorer.
type ScoringConfig struct {
	// Mode is "heuristic" (built-in rules) or "remote" (external model service).
	Mode string `description:"Scoring mode: heuristic | remote" koanf:"mode"`

	// URL is the model service base URL (remote mode only).
	URL string `description:"Model service base URL" koanf:"url"`

	// Timeout bounds each scoring request in remote mode.
	Timeout time.Duration `description:"Scoring request timeout" koanf:"timeout"`

	// PositiveLabel is the label emitted for anomalous flows.
	PositiveLabel string `description:"Label emitted for anomalous flows" koanf:"positive_label"`
}

// HistoryConfig bounds in-memory result retention.
type HistoryConfig struct {
	Size          int `description:"Number of run-history entries retained" koanf:"size"`
	StoreCapacity int `description:"Number of full results retained for download" koanf:"store_capacity"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Mode  string `description:"Authentication mode: none|token" koanf:"mode"`
	Token string `description:"Static bearer token (required for token mode)" koanf:"token"`
}
