package cmd

import (
	"fmt"
	"sort"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/dawnworks/tracer/internal/integration"
	"github.com/dawnworks/tracer/internal/tracer"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show routing, integration and genealogy statistics",
	Long: `Display statistics for the engine seeded from the scenario file.

With --sweep every worker is first routed to every target, so the routing
counters, cache figures and worker usage reflect a full pass.
With --metrics the Prometheus metric families are printed as well.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().Bool("sweep", false, "route every worker to every target before reporting")
	statsCmd.Flags().Bool("metrics", false, "also print Prometheus metric families")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	sweep, _ := cmd.Flags().GetBool("sweep")
	metrics, _ := cmd.Flags().GetBool("metrics")

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if sweep {
		if err := sweepRoutes(cmd, rt); err != nil {
			return err
		}
	}

	s := rt.orch.Statistics()
	if jsonOutput(cmd) {
		return rt.out.json(s)
	}
	printStatsText(rt.out, s)

	if metrics {
		families, err := rt.engine().Stats.Gatherer().Gather()
		if err != nil {
			return fmt.Errorf("failed to gather metrics: %w", err)
		}
		printMetricFamilies(rt.out, families)
	}
	return nil
}

func sweepRoutes(cmd *cobra.Command, rt *runtime) error {
	router := rt.engine().Router
	for _, w := range tracer.WorkerTypes() {
		for _, t := range router.Targets() {
			if _, err := router.Route(cmd.Context(), w, t.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func printStatsText(p *printer, s integration.Statistics) {
	r := s.Router
	p.heading("routing")
	p.field("Targets", r.Targets)
	p.field("Routes", fmt.Sprintf("%d (%d accepted, %d rejected)", r.TotalRoutes, r.SuccessfulRoutes, r.RejectedRoutes))
	p.field("Success rate", fmt.Sprintf("%.1f%%", r.SuccessRate*100))
	p.field("Cache", fmt.Sprintf("%d hits / %d misses, %d cached", r.CacheHits, r.CacheMisses, r.CachedRoutes))
	p.field("Active routes", r.ActiveRoutes)
	p.field("Avg routing time", r.AverageRoutingTime)
	for _, w := range tracer.WorkerTypes() {
		p.field("  "+string(w), r.WorkerUsage[w])
	}

	p.heading("integration")
	p.field("Analyses", fmt.Sprintf("%d (%d integrated)", s.TotalAnalyses, s.SuccessfulIntegrations))
	p.field("Efficiency", fmt.Sprintf("%.1f%%", s.IntegrationEfficiency*100))
	p.field("Analysis cache hits", s.AnalysisCacheHits)
	p.field("Cluster matches", s.GenealogyMatches)
	p.field("Route suggestions", s.RouteSuggestions)
	p.field("History", s.HistoryLength)

	g := s.Genealogy
	p.heading("genealogy")
	p.field("Nodes", fmt.Sprintf("%d (%d roots, %d leaves, %d implicit)", g.Nodes, g.Roots, g.Leaves, g.Implicit))
	if g.DeepestNode != "" {
		p.field("Max depth", fmt.Sprintf("%d (%s)", g.MaxDepth, g.DeepestNode))
	} else {
		p.field("Max depth", g.MaxDepth)
	}
	p.field("Avg entropy delta", fmt.Sprintf("%.3f", g.AvgEntropyDelta))
	p.field("Total drift", fmt.Sprintf("%.3f", g.TotalEntropyDrift))
}

func printMetricFamilies(p *printer, families []*dto.MetricFamily) {
	p.heading("metrics")
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName() + labelString(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				p.linef("%s %g", name, m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				p.linef("%s %g", name, m.GetGauge().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				p.linef("%s count=%d sum=%g", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
}

func labelString(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
