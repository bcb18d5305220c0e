package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// MaxCacheTTL is the upper bound for routing.cache_ttl.
const MaxCacheTTL = 5 * time.Minute

// Config represents the complete tracer configuration
type Config struct {
	Routing     RoutingConfig     `mapstructure:"routing" yaml:"routing"`
	Scoring     ScoringConfig     `mapstructure:"scoring" yaml:"scoring"`
	Integration IntegrationConfig `mapstructure:"integration" yaml:"integration"`
	Export      ExportConfig      `mapstructure:"export" yaml:"export"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Scenario    ScenarioConfig    `mapstructure:"scenario" yaml:"scenario"`
}

// RoutingConfig controls the router and its decision cache
type RoutingConfig struct {
	// MinScore is the affinity floor below which no route is produced (default: 0.3)
	MinScore float64 `mapstructure:"min_score" yaml:"min_score"`
	// CacheTTL is how long a routing decision is served from cache (default: 5m, max: 5m)
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	// CacheCleanupThreshold is the cache size above which expired entries are purged on write (default: 100)
	CacheCleanupThreshold int `mapstructure:"cache_cleanup_threshold" yaml:"cache_cleanup_threshold"`
	// HistoryLimit caps the per-router route history; 0 keeps everything (default: 1000)
	HistoryLimit int `mapstructure:"history_limit" yaml:"history_limit"`
	// Jitter enables the 0.8-1.2 multiplier on estimated time (default: true)
	Jitter bool `mapstructure:"jitter" yaml:"jitter"`
}

// ScoringConfig holds the affinity score weighting
type ScoringConfig struct {
	Weights WeightsConfig `mapstructure:"weights" yaml:"weights"`
}

// WeightsConfig are the component weights of the affinity score (default: 0.3/0.3/0.2/0.2)
type WeightsConfig struct {
	Depth          float64 `mapstructure:"depth" yaml:"depth"`
	Entropy        float64 `mapstructure:"entropy" yaml:"entropy"`
	SCUP           float64 `mapstructure:"scup" yaml:"scup"`
	Specialization float64 `mapstructure:"specialization" yaml:"specialization"`
}

// IntegrationConfig controls the genealogy-aware orchestrator
type IntegrationConfig struct {
	// HistoryLimit caps the in-memory analysis history (default: 500)
	HistoryLimit int `mapstructure:"history_limit" yaml:"history_limit"`
	// ExportHistory is the number of most recent analyses written by export (default: 50)
	ExportHistory int `mapstructure:"export_history" yaml:"export_history"`
}

// ExportConfig controls where integration exports are written
type ExportConfig struct {
	// Dir is the directory for generated export files. Empty means the working directory.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is where tracer.log is written. Empty means stderr.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// ScenarioConfig points at the scenario file seeded into the engine
type ScenarioConfig struct {
	// Path is the default scenario file used when --scenario is not given
	Path string `mapstructure:"path" yaml:"path"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Routing: RoutingConfig{
			MinScore:              0.3,
			CacheTTL:              MaxCacheTTL,
			CacheCleanupThreshold: 100,
			HistoryLimit:          1000,
			Jitter:                true,
		},
		Scoring: ScoringConfig{
			Weights: WeightsConfig{
				Depth:          0.3,
				Entropy:        0.3,
				SCUP:           0.2,
				Specialization: 0.2,
			},
		},
		Integration: IntegrationConfig{
			HistoryLimit:  500,
			ExportHistory: 50,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers default values with the global viper instance
func SetDefaults() {
	ApplyDefaults(viper.GetViper())
}

// ApplyDefaults registers default values with v
func ApplyDefaults(v *viper.Viper) {
	defaults := Default()

	// Routing defaults
	v.SetDefault("routing.min_score", defaults.Routing.MinScore)
	v.SetDefault("routing.cache_ttl", defaults.Routing.CacheTTL)
	v.SetDefault("routing.cache_cleanup_threshold", defaults.Routing.CacheCleanupThreshold)
	v.SetDefault("routing.history_limit", defaults.Routing.HistoryLimit)
	v.SetDefault("routing.jitter", defaults.Routing.Jitter)

	// Scoring defaults
	v.SetDefault("scoring.weights.depth", defaults.Scoring.Weights.Depth)
	v.SetDefault("scoring.weights.entropy", defaults.Scoring.Weights.Entropy)
	v.SetDefault("scoring.weights.scup", defaults.Scoring.Weights.SCUP)
	v.SetDefault("scoring.weights.specialization", defaults.Scoring.Weights.Specialization)

	// Integration defaults
	v.SetDefault("integration.history_limit", defaults.Integration.HistoryLimit)
	v.SetDefault("integration.export_history", defaults.Integration.ExportHistory)

	// Export defaults
	v.SetDefault("export.dir", defaults.Export.Dir)

	// Logging defaults
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.dir", defaults.Logging.Dir)

	// Scenario defaults
	v.SetDefault("scenario.path", defaults.Scenario.Path)
}

// Load reads the configuration from viper and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals and validates the configuration held by v
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults when it cannot be loaded
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tracer")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tracer"
	}
	return filepath.Join(home, ".config", "tracer")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
