// pkg/config/config.go
package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Global Koanf instance, initialized once at startup.
var (
	k    *koanf.Koanf
	once sync.Once
)

// InitGlobalConfig initializes the global Koanf instance.
// This should be called early in the application lifecycle, before Load.
func InitGlobalConfig() {
	once.Do(func() {
		k = koanf.New(".")
	})
}

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex // To protect currentConfig during runtime updates
}

// NewManager creates a new config Manager.
// It initializes the global Koanf instance if not already done.
func NewManager() *Manager {
	InitGlobalConfig() // Ensure global k is initialized
	return &Manager{
		koanfInstance: k, // Use the global instance
	}
}

// DefaultConfig returns a new Config struct populated with hardcoded default values.
// These serve as the baseline configuration if no other sources override them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info", // Default log level
			Format: "text", // Default log format
			File:   "",     // Default log file path
		},
		Server: DefaultServerConfig(),
		Dataset: DatasetConfig{
			MaxRows:       50000,
			LabelHint:     "",
			BucketMinutes: 5,
		},
		Scoring: ScoringConfig{
			Mode:          "heuristic",
			URL:           "",
			Timeout:       30 * time.Second,
			PositiveLabel: "Attack",
		},
		History: HistoryConfig{
			Size:          50,
			StoreCapacity: 16,
		},
	}
}

// Load loads configuration from various sources based on precedence.
// It populates the manager's currentConfig.
func (m *Manager) Load(flags *pflag.FlagSet, customConfigFilePath string) error {
	m.mu.Lock() // Lock for writing to m.koanfInstance and m.currentConfig
	defer m.mu.Unlock()

	debug := false
	if flags != nil {
		if debugFlag := flags.Lookup("debug"); debugFlag != nil && debugFlag.Value.String() == "true" {
			debug = true
		}
	}

	return m.loadSourcesLocked(DefaultSources(customConfigFilePath, flags, debug))
}

// LoadWithSources loads configuration from the given sources in priority
// order (lowest first). Custom sources can be inserted between the built-in
// layers.
func (m *Manager) LoadWithSources(sources []ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadSourcesLocked(sources)
}

func (m *Manager) loadSourcesLocked(sources []ConfigSource) error {
	sorted := make([]ConfigSource, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	for _, src := range sorted {
		if err := src.Load(m.koanfInstance); err != nil {
			return fmt.Errorf("error loading %s configuration: %w", src.Name(), err)
		}
	}

	// Unmarshal the final merged configuration into m.currentConfig
	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	m.currentConfig = newCfg

	// Apply any post-load processing or validation.
	m.postProcessConfig()

	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfgCopy := m.currentConfig
	return cfgCopy
}

// postProcessConfig handles any adjustments needed after loading and unmarshaling.
func (m *Manager) postProcessConfig() {
	m.currentConfig.Scoring.Mode = strings.ToLower(strings.TrimSpace(m.currentConfig.Scoring.Mode))
	if m.currentConfig.Scoring.Mode == "" {
		m.currentConfig.Scoring.Mode = "heuristic"
	}
}

// DefaultConfigAsMap converts the DefaultConfig struct to a map[string]interface{}
// for Koanf's confmap.Provider. This is a bit manual but ensures Koanf knows all keys.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		// Log configuration
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,
		"log.file":   def.Log.File,

		// Server configuration
		"server.addr":           def.Server.Addr,
		"server.port":           def.Server.Port,
		"server.api_enabled":    def.Server.APIEnabled,
		"server.stream_enabled": def.Server.StreamEnabled,
		"server.dev_mode":       def.Server.DevMode,
		"server.max_upload_mb":  def.Server.MaxUploadMB,
		"server.read_timeout":   def.Server.ReadTimeout,
		"server.write_timeout":  def.Server.WriteTimeout,

		// Auth configuration
		"server.auth.mode":  def.Server.Auth.Mode,
		"server.auth.token": def.Server.Auth.Token,

		// Dataset configuration
		"dataset.max_rows":         def.Dataset.MaxRows,
		"dataset.required_columns": def.Dataset.RequiredColumns,
		"dataset.label_hint":       def.Dataset.LabelHint,
		"dataset.bucket_minutes":   def.Dataset.BucketMinutes,

		// Scoring configuration
		"scoring.mode":           def.Scoring.Mode,
		"scoring.url":            def.Scoring.URL,
		"scoring.timeout":        def.Scoring.Timeout,
		"scoring.positive_label": def.Scoring.PositiveLabel,

		// History configuration
		"history.size":           def.History.Size,
		"history.store_capacity": def.History.StoreCapacity,
	}
}

// BindFlags defines command-line flags corresponding to configuration settings.
// These flags allow overriding config file / environment variable settings.
// This function should be called when setting up Cobra commands.
func BindFlags(flags *pflag.FlagSet) {
	var flagvar bool
	flags.BoolVar(&flagvar, "debug", false, "Enable debug logging")

	// Note: The main --config / -c flag for specifying the config file path
	// is typically defined directly on the root Cobra command's PersistentFlags.
}
