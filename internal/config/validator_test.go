package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "test.field",
		Value:   123,
		Message: "must be greater than zero",
	}

	expected := "test.field: must be greater than zero (got: 123)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "field1") || !strings.Contains(result, "field2") {
			t.Errorf("Error() should mention both fields: %s", result)
		}
	})
}

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default config should be valid, got %d errors: %v", len(errs), errs)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"min score negative", func(c *Config) { c.Routing.MinScore = -0.1 }, "routing.min_score"},
		{"min score above one", func(c *Config) { c.Routing.MinScore = 1.1 }, "routing.min_score"},
		{"zero ttl", func(c *Config) { c.Routing.CacheTTL = 0 }, "routing.cache_ttl"},
		{"ttl above maximum", func(c *Config) { c.Routing.CacheTTL = 6 * time.Minute }, "routing.cache_ttl"},
		{"zero cleanup threshold", func(c *Config) { c.Routing.CacheCleanupThreshold = 0 }, "routing.cache_cleanup_threshold"},
		{"negative history", func(c *Config) { c.Routing.HistoryLimit = -1 }, "routing.history_limit"},
		{"negative weight", func(c *Config) { c.Scoring.Weights.SCUP = -0.2 }, "scoring.weights.scup"},
		{"all weights zero", func(c *Config) { c.Scoring.Weights = WeightsConfig{} }, "scoring.weights"},
		{"negative integration history", func(c *Config) { c.Integration.HistoryLimit = -5 }, "integration.history_limit"},
		{"zero export history", func(c *Config) { c.Integration.ExportHistory = 0 }, "integration.export_history"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			if len(errs) == 0 {
				t.Fatal("Validate() returned no errors")
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() errors %v do not mention %s", errs, tt.field)
			}
		})
	}
}

func TestConfig_Validate_BoundaryValues(t *testing.T) {
	cfg := Default()
	cfg.Routing.MinScore = 0
	cfg.Routing.CacheTTL = MaxCacheTTL
	cfg.Routing.HistoryLimit = 0
	cfg.Logging.Level = ""

	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("boundary values should be valid, got %v", errs)
	}
}
