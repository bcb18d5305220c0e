package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dawnworks/tracer/internal/config"
	"github.com/dawnworks/tracer/internal/errors"
	"github.com/dawnworks/tracer/internal/integration"
	"github.com/dawnworks/tracer/internal/logging"
	"github.com/dawnworks/tracer/internal/scenario"
)

var errNoScenario = errors.New("no scenario file: pass --scenario or set scenario.path")

// runtime is the engine a single command invocation works against.
type runtime struct {
	cfg    *config.Config
	logger *logging.Logger
	orch   *integration.Orchestrator
	out    *printer
}

func (r *runtime) engine() *integration.Engine {
	return r.orch.Engine()
}

// Close releases the orchestrator and flushes the log file.
func (r *runtime) Close() {
	r.orch.Close()
	_ = r.logger.Close()
}

// newRuntime loads the configuration, builds an engine and seeds it from the
// configured scenario file, if any.
func newRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}

	engine := integration.NewEngine(cfg, integration.WithEngineLogger(logger))
	rt := &runtime{
		cfg:    cfg,
		logger: logger,
		orch:   integration.New(engine),
		out:    newPrinter(cmd),
	}

	if path := cfg.Scenario.Path; path != "" {
		if _, err := scenario.LoadAndApply(engine, path); err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to apply scenario %s: %w", path, err)
		}
	}
	return rt, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*logging.Logger, error) {
	if cfg.Logging.Dir != "" {
		return logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return logging.NewWriterLogger(cmd.ErrOrStderr(), cfg.Logging.Level), nil
	}
	return logging.NopLogger(), nil
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
