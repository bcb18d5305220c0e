package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dawnworks/tracer/internal/scenario"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-apply the scenario file whenever it changes",
	Long: `Seed the engine from the scenario file, then watch it and re-apply it on
every write until interrupted. New targets are upserted and new reblooms are
logged; reblooms already in the genealogy are skipped.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", scenario.DefaultDebounce, "quiet period after a write before reloading")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	debounce, _ := cmd.Flags().GetDuration("debounce")

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	path := rt.cfg.Scenario.Path
	if path == "" {
		return errNoScenario
	}

	p := rt.out
	w, err := scenario.NewWatcher(rt.engine(), path,
		scenario.WithDebounce(debounce),
		scenario.WithApplyCallback(func(r scenario.Result) {
			p.linef("%s %s: %d targets, %d reblooms, %d skipped",
				time.Now().Format("15:04:05"), p.accepted("reloaded"), r.Targets, r.Reblooms, r.Skipped)
		}),
		scenario.WithErrorCallback(func(err error) {
			p.linef("%s %s: %v", time.Now().Format("15:04:05"), p.rejected("reload failed"), err)
		}),
	)
	if err != nil {
		return err
	}
	w.Start()
	defer w.Stop()

	p.linef("Watching %s (Ctrl+C to stop)", w.Path())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
	case <-cmd.Context().Done():
	}
	return nil
}
