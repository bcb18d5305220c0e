package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dawnworks/tracer/internal/tracer"
)

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Write integration statistics and recent analyses as JSON",
	Long: `Write integration statistics and the most recent analyses
(integration.export_history) to a JSON file.

Without a path the file is named integration_data_YYYYMMDD_HHMMSS.json and
written to export.dir. Use --analyze to run a family analysis for every
worker/target pair first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().Bool("analyze", false, "analyze every worker/target pair before exporting")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	analyze, _ := cmd.Flags().GetBool("analyze")

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if analyze {
		for _, w := range tracer.WorkerTypes() {
			for _, t := range rt.engine().Router.Targets() {
				if _, err := rt.orch.AnalyzeWithRouting(cmd.Context(), w, t.ID, true); err != nil {
					return err
				}
			}
		}
	}

	var path string
	if len(args) == 1 {
		path = args[0]
	}
	written, err := rt.orch.Export(path)
	if err != nil {
		return err
	}

	if jsonOutput(cmd) {
		return rt.out.json(map[string]string{"path": written})
	}
	rt.out.linef("%s %s", rt.out.accepted("Exported"), written)
	fmt.Fprintf(cmd.ErrOrStderr(), "%d analyses in history\n", len(rt.orch.History(0)))
	return nil
}
