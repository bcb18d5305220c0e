package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "routing.min_score")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateRouting()...)
	errors = append(errors, c.validateScoring()...)
	errors = append(errors, c.validateIntegration()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateRouting() []ValidationError {
	var errors []ValidationError

	if c.Routing.MinScore < 0 || c.Routing.MinScore > 1 {
		errors = append(errors, ValidationError{
			Field:   "routing.min_score",
			Value:   c.Routing.MinScore,
			Message: "must be between 0 and 1",
		})
	}

	if c.Routing.CacheTTL <= 0 {
		errors = append(errors, ValidationError{
			Field:   "routing.cache_ttl",
			Value:   c.Routing.CacheTTL,
			Message: "must be positive",
		})
	}
	if c.Routing.CacheTTL > MaxCacheTTL {
		errors = append(errors, ValidationError{
			Field:   "routing.cache_ttl",
			Value:   c.Routing.CacheTTL,
			Message: fmt.Sprintf("exceeds maximum of %s", MaxCacheTTL),
		})
	}

	if c.Routing.CacheCleanupThreshold <= 0 {
		errors = append(errors, ValidationError{
			Field:   "routing.cache_cleanup_threshold",
			Value:   c.Routing.CacheCleanupThreshold,
			Message: "must be positive",
		})
	}

	if c.Routing.HistoryLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "routing.history_limit",
			Value:   c.Routing.HistoryLimit,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateScoring() []ValidationError {
	var errors []ValidationError

	w := c.Scoring.Weights
	weights := []struct {
		field string
		value float64
	}{
		{"scoring.weights.depth", w.Depth},
		{"scoring.weights.entropy", w.Entropy},
		{"scoring.weights.scup", w.SCUP},
		{"scoring.weights.specialization", w.Specialization},
	}
	for _, wt := range weights {
		if wt.value < 0 {
			errors = append(errors, ValidationError{
				Field:   wt.field,
				Value:   wt.value,
				Message: "must be non-negative",
			})
		}
	}

	if sum := w.Depth + w.Entropy + w.SCUP + w.Specialization; sum <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scoring.weights",
			Value:   sum,
			Message: "at least one weight must be positive",
		})
	}

	return errors
}

func (c *Config) validateIntegration() []ValidationError {
	var errors []ValidationError

	if c.Integration.HistoryLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "integration.history_limit",
			Value:   c.Integration.HistoryLimit,
			Message: "must be non-negative",
		})
	}

	if c.Integration.ExportHistory <= 0 {
		errors = append(errors, ValidationError{
			Field:   "integration.export_history",
			Value:   c.Integration.ExportHistory,
			Message: "must be positive",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
