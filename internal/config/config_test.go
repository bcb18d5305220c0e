package config

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Routing.MinScore != 0.3 {
		t.Errorf("Routing.MinScore = %v, want 0.3", cfg.Routing.MinScore)
	}
	if cfg.Routing.CacheTTL != 5*time.Minute {
		t.Errorf("Routing.CacheTTL = %v, want 5m", cfg.Routing.CacheTTL)
	}
	if cfg.Routing.CacheCleanupThreshold != 100 {
		t.Errorf("Routing.CacheCleanupThreshold = %d, want 100", cfg.Routing.CacheCleanupThreshold)
	}
	if !cfg.Routing.Jitter {
		t.Error("Routing.Jitter should be true by default")
	}

	w := cfg.Scoring.Weights
	if w.Depth != 0.3 || w.Entropy != 0.3 || w.SCUP != 0.2 || w.Specialization != 0.2 {
		t.Errorf("Scoring.Weights = %+v, want 0.3/0.3/0.2/0.2", w)
	}

	if cfg.Integration.ExportHistory != 50 {
		t.Errorf("Integration.ExportHistory = %d, want 50", cfg.Integration.ExportHistory)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadFrom(t *testing.T) {
	t.Run("defaults only", func(t *testing.T) {
		v := viper.New()
		ApplyDefaults(v)

		cfg, err := LoadFrom(v)
		if err != nil {
			t.Fatalf("LoadFrom() error = %v", err)
		}
		if cfg.Routing.CacheTTL != MaxCacheTTL {
			t.Errorf("CacheTTL = %v, want %v", cfg.Routing.CacheTTL, MaxCacheTTL)
		}
	})

	t.Run("yaml overrides", func(t *testing.T) {
		v := viper.New()
		ApplyDefaults(v)
		v.SetConfigType("yaml")
		raw := []byte(`
routing:
  min_score: 0.5
  cache_ttl: 90s
scoring:
  weights:
    depth: 0.4
logging:
  level: debug
`)
		if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
			t.Fatalf("ReadConfig() error = %v", err)
		}

		cfg, err := LoadFrom(v)
		if err != nil {
			t.Fatalf("LoadFrom() error = %v", err)
		}
		if cfg.Routing.MinScore != 0.5 {
			t.Errorf("MinScore = %v, want 0.5", cfg.Routing.MinScore)
		}
		if cfg.Routing.CacheTTL != 90*time.Second {
			t.Errorf("CacheTTL = %v, want 90s", cfg.Routing.CacheTTL)
		}
		if cfg.Scoring.Weights.Depth != 0.4 {
			t.Errorf("Weights.Depth = %v, want 0.4", cfg.Scoring.Weights.Depth)
		}
		if cfg.Scoring.Weights.Entropy != 0.3 {
			t.Errorf("Weights.Entropy = %v, want default 0.3", cfg.Scoring.Weights.Entropy)
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
		}
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		v := viper.New()
		ApplyDefaults(v)
		v.Set("routing.cache_ttl", "10m")

		_, err := LoadFrom(v)
		if err == nil {
			t.Fatal("LoadFrom() should reject a cache TTL above the maximum")
		}
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("error type = %T, want ValidationErrors", err)
		}
		if verrs[0].Field != "routing.cache_ttl" {
			t.Errorf("Field = %q, want routing.cache_ttl", verrs[0].Field)
		}
	})
}

func TestConfigDir(t *testing.T) {
	t.Run("uses XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		if got, want := ConfigDir(), filepath.Join("/tmp/xdg", "tracer"); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
		if got, want := ConfigFile(), filepath.Join("/tmp/xdg", "tracer", "config.yaml"); got != want {
			t.Errorf("ConfigFile() = %q, want %q", got, want)
		}
	})

	t.Run("falls back to home", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home := t.TempDir()
		t.Setenv("HOME", home)
		if got, want := ConfigDir(), filepath.Join(home, ".config", "tracer"); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}
