package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dawnworks/tracer/internal/genealogy"
	"github.com/dawnworks/tracer/internal/integration"
	"github.com/dawnworks/tracer/internal/tracer"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <worker> <target>",
	Short: "Route a worker and explain the route against the target's genealogy",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyze,
}

var familyCmd = &cobra.Command{
	Use:   "family",
	Short: "Work with genealogy families",
}

var familySuggestCmd = &cobra.Command{
	Use:   "suggest <node>",
	Short: "Rank workers for the family of a node",
	Args:  cobra.ExactArgs(1),
	RunE:  runFamilySuggest,
}

var familyClusterCmd = &cobra.Command{
	Use:   "cluster <worker> <node>",
	Short: "Route a worker to every member of a node's family",
	Long: `Route a worker to the ancestry of a node (oldest first), the node itself
and all of its descendants. Family members the registry does not know are
registered with attributes derived from their genealogy depth.`,
	Args: cobra.ExactArgs(2),
	RunE: runFamilyCluster,
}

var predictCmd = &cobra.Command{
	Use:   "predict <worker>",
	Short: "Predict the targets with the highest rebloom potential for a worker",
	Args:  cobra.ExactArgs(1),
	RunE:  runPredict,
}

var lineageCmd = &cobra.Command{
	Use:   "lineage <node>",
	Short: "Show the ancestry, descendants and entropy evolution of a node",
	Args:  cobra.ExactArgs(1),
	RunE:  runLineage,
}

func init() {
	analyzeCmd.Flags().Bool("family", true, "include the full family analysis")
	familySuggestCmd.Flags().Int("limit", integration.DefaultMaxSuggestions, "maximum number of suggestions")
	predictCmd.Flags().Float64("min", integration.DefaultPredictionFloor, "minimum optimization score")

	familyCmd.AddCommand(familySuggestCmd)
	familyCmd.AddCommand(familyClusterCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(familyCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(lineageCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	includeFamily, _ := cmd.Flags().GetBool("family")

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	a, err := rt.orch.AnalyzeWithRouting(cmd.Context(), tracer.WorkerType(args[0]), args[1], includeFamily)
	if err != nil {
		return err
	}
	if jsonOutput(cmd) {
		return rt.out.json(a)
	}

	p := rt.out
	if a == nil {
		p.linef("%s: %s does not clear the affinity floor for %s", p.rejected("no analysis"), args[0], args[1])
		return nil
	}
	p.heading("analysis " + a.ID)
	p.field("Route", fmt.Sprintf("%s → %s (%.2f)", a.Route.Worker, a.Route.TargetID, a.Route.Score))
	p.field("Path", strings.Join(a.Route.Path, " → "))
	p.field("Depth", a.Genealogy.Depth)
	if a.Genealogy.Family != nil {
		f := a.Genealogy.Family
		p.field("Family size", f.TotalFamilySize)
		p.field("Ancestry", joinOrNone(a.Genealogy.Ancestry))
		p.field("Descendants", joinOrNone(a.Genealogy.Descendants))
	}
	p.field("Family context", fmt.Sprintf("%s (%.1f)", a.Family.Type, a.Family.MatchScore))
	for _, s := range a.Insights {
		p.field("Insight", s)
	}
	for _, s := range a.Recommendations {
		p.field("Recommendation", s)
	}
	return nil
}

func runFamilySuggest(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	suggestions, err := rt.orch.SuggestWorkersForFamily(args[0], limit)
	if err != nil {
		return err
	}
	if jsonOutput(cmd) {
		if suggestions == nil {
			suggestions = []integration.WorkerSuggestion{}
		}
		return rt.out.json(suggestions)
	}

	p := rt.out
	p.heading("workers for family of " + args[0])
	if len(suggestions) == 0 {
		p.linef("No worker suits this family")
		return nil
	}
	for i, s := range suggestions {
		p.linef("%d. %-7s %s  coverage %.0f%%  %s",
			i+1, s.Worker, p.accepted(fmt.Sprintf("%.2f", s.MatchScore)), s.EstimatedCoverage*100, s.Reason)
	}
	return nil
}

func runFamilyCluster(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	routes, err := rt.orch.RouteToFamilyCluster(cmd.Context(), tracer.WorkerType(args[0]), args[1])
	if err != nil {
		return err
	}
	if jsonOutput(cmd) {
		if routes == nil {
			routes = []tracer.Route{}
		}
		return rt.out.json(routes)
	}

	p := rt.out
	p.heading(fmt.Sprintf("%s cluster routes from %s", args[0], args[1]))
	if len(routes) == 0 {
		p.linef("No family member clears the affinity floor")
		return nil
	}
	for _, r := range routes {
		p.linef("%-16s %s  %s", r.TargetID, p.accepted(fmt.Sprintf("%.2f", r.Score)), strings.Join(r.Path, " → "))
	}
	return nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	minScore, _ := cmd.Flags().GetFloat64("min")

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	predictions, err := rt.orch.PredictOptimalTargets(tracer.WorkerType(args[0]), minScore)
	if err != nil {
		return err
	}
	if jsonOutput(cmd) {
		if predictions == nil {
			predictions = []integration.Prediction{}
		}
		return rt.out.json(predictions)
	}

	p := rt.out
	p.heading("rebloom predictions for " + args[0])
	if len(predictions) == 0 {
		p.linef("No target reaches %.2f", minScore)
		return nil
	}
	for i, pr := range predictions {
		p.linef("%2d. %-16s %s  impact %.0f%%  depth %d",
			i+1, pr.TargetID, p.accepted(fmt.Sprintf("%.2f", pr.OptimizationScore)), pr.EstimatedImpact*100, pr.GenealogyDepth)
	}
	return nil
}

// lineageResult is the JSON shape of `tracer lineage`.
type lineageResult struct {
	ID          string                   `json:"id"`
	Depth       int                      `json:"depth"`
	Root        string                   `json:"root"`
	Ancestry    []string                 `json:"ancestry"`
	Descendants []string                 `json:"descendants"`
	Siblings    []string                 `json:"siblings"`
	Entropy     []genealogy.EntropyPoint `json:"entropy_evolution"`
}

func runLineage(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	tree := rt.engine().Tree
	id := args[0]
	res := lineageResult{ID: id}
	if res.Depth, err = tree.Depth(id); err != nil {
		return err
	}
	if res.Root, err = tree.Root(id); err != nil {
		return err
	}
	if res.Ancestry, err = tree.AncestryChain(id); err != nil {
		return err
	}
	if res.Descendants, err = tree.Descendants(id); err != nil {
		return err
	}
	if res.Siblings, err = tree.Siblings(id); err != nil {
		return err
	}
	if res.Entropy, err = tree.EntropyEvolution(id); err != nil {
		return err
	}

	if jsonOutput(cmd) {
		return rt.out.json(res)
	}

	p := rt.out
	p.heading("lineage of " + id)
	p.field("Depth", res.Depth)
	p.field("Root", res.Root)
	p.field("Ancestry", joinOrNone(res.Ancestry))
	p.field("Descendants", joinOrNone(res.Descendants))
	p.field("Siblings", joinOrNone(res.Siblings))
	for _, pt := range res.Entropy {
		p.linef("  %-16s %+.2f  → %.2f", pt.ID, pt.Delta, pt.Cumulative)
	}
	return nil
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}
