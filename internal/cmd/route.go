package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dawnworks/tracer/internal/router"
	"github.com/dawnworks/tracer/internal/tracer"
)

var routeCmd = &cobra.Command{
	Use:   "route <worker> <target>",
	Short: "Route a worker to a target",
	Long: `Score a worker against a target and, when the affinity clears the
configured floor (routing.min_score), print the route it would take.

Workers: owl, crow, spider, whale.`,
	Args: cobra.ExactArgs(2),
	RunE: runRoute,
}

var routesCmd = &cobra.Command{
	Use:   "routes <worker>",
	Short: "List the best targets for a worker",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoutes,
}

var explainCmd = &cobra.Command{
	Use:   "explain <worker> <target>",
	Short: "Show the score breakdown of a worker/target pair",
	Long: `Show every component of the affinity score without routing:
depth, entropy, SCUP focus and specialization, with the active weights.`,
	Args: cobra.ExactArgs(2),
	RunE: runExplain,
}

func init() {
	routesCmd.Flags().Int("limit", router.DefaultRoutesLimit, "maximum number of routes to list")
	routesCmd.Flags().String("match", "", "only list targets whose id matches this glob (e.g. 'bloom_0*')")

	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(explainCmd)
}

// routeResult is the JSON shape of `tracer route`.
type routeResult struct {
	Accepted bool          `json:"accepted"`
	Score    float64       `json:"score"`
	MinScore float64       `json:"min_score"`
	Route    *tracer.Route `json:"route,omitempty"`
}

func runRoute(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	worker, targetID := tracer.WorkerType(args[0]), args[1]
	route, err := rt.engine().Router.Route(cmd.Context(), worker, targetID)
	if err != nil {
		return err
	}

	res := routeResult{Accepted: route != nil, MinScore: rt.engine().Router.MinScore(), Route: route}
	if route != nil {
		res.Score = route.Score
	} else {
		exp, err := rt.engine().Router.Explain(worker, targetID)
		if err != nil {
			return err
		}
		res.Score = exp.Breakdown.Total
	}

	if jsonOutput(cmd) {
		return rt.out.json(res)
	}
	printRoute(rt.out, worker, targetID, res)
	return nil
}

func printRoute(p *printer, worker tracer.WorkerType, targetID string, res routeResult) {
	if res.Route == nil {
		p.linef("%s: %s affinity for %s is %.2f, below %.2f",
			p.rejected("no route"), worker, targetID, res.Score, res.MinScore)
		return
	}

	r := res.Route
	p.heading("route")
	p.field("Worker", r.Worker)
	p.field("Target", r.TargetID)
	p.field("Score", p.accepted(fmt.Sprintf("%.2f", r.Score)))
	p.field("Path", strings.Join(r.Path, " → "))
	p.field("Estimated time", r.EstimatedTime.Round(10*time.Millisecond))
	p.field("Resource cost", fmt.Sprintf("%.2f", r.ResourceCost))
	p.field("Success probability", fmt.Sprintf("%.1f%%", r.SuccessProbability*100))
	p.field("Reason", r.Reason)
}

func runRoutes(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	pattern, _ := cmd.Flags().GetString("match")

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	worker := tracer.WorkerType(args[0])
	var options []tracer.RouteOption
	if pattern != "" {
		options, err = rt.engine().Router.AvailableRoutesMatching(worker, pattern, limit)
	} else {
		options, err = rt.engine().Router.AvailableRoutes(worker, limit)
	}
	if err != nil {
		return err
	}

	if jsonOutput(cmd) {
		if options == nil {
			options = []tracer.RouteOption{}
		}
		return rt.out.json(options)
	}

	p := rt.out
	p.heading(fmt.Sprintf("routes for %s", worker))
	if len(options) == 0 {
		p.linef("No target clears the %.2f affinity floor", rt.engine().Router.MinScore())
		return nil
	}
	for i, o := range options {
		p.linef("%2d. %-16s score %s  depth %d  entropy %.2f  ~%s  %.0f%%",
			i+1, o.TargetID, p.accepted(fmt.Sprintf("%.2f", o.Score)), o.Depth, o.Entropy,
			o.EstimatedTime.Round(10*time.Millisecond), o.SuccessProbability*100)
	}
	return nil
}

func runExplain(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	exp, err := rt.engine().Router.Explain(tracer.WorkerType(args[0]), args[1])
	if err != nil {
		return err
	}
	if jsonOutput(cmd) {
		return rt.out.json(exp)
	}

	p := rt.out
	b, w := exp.Breakdown, exp.Weights
	p.heading(fmt.Sprintf("%s → %s", exp.Worker, exp.TargetID))
	p.field("Depth", fmt.Sprintf("%.2f × %.2f", b.Depth, w.Depth))
	p.field("Entropy", fmt.Sprintf("%.2f × %.2f", b.Entropy, w.Entropy))
	p.field("SCUP focus", fmt.Sprintf("%.2f × %.2f", b.SCUP, w.SCUP))
	p.field("Specialization", fmt.Sprintf("%.2f × %.2f", b.Specialization, w.Specialization))
	verdict := p.accepted("accepted")
	if !exp.Accepted {
		verdict = p.rejected("rejected")
	}
	p.field("Total", fmt.Sprintf("%.2f (floor %.2f, %s)", b.Total, exp.MinScore, verdict))
	p.field("Path", strings.Join(exp.Path, " → "))
	p.field("Reason", exp.Reason)
	return nil
}
