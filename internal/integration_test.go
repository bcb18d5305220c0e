// Package internal contains integration tests that verify the engine packages
// work together: a scenario seeds the registry and genealogy, the orchestrator
// routes and analyzes, and every step is observable on the event bus.
package internal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dawnworks/tracer/internal/config"
	"github.com/dawnworks/tracer/internal/event"
	"github.com/dawnworks/tracer/internal/integration"
	"github.com/dawnworks/tracer/internal/scenario"
	"github.com/dawnworks/tracer/internal/tracer"
)

const familyScenario = `
targets:
  - {id: bloom_001, depth: 0, entropy: 0.5, complexity: 0.6, scup: {schema: 0.6, coherence: 0.9, utility: 0.7, pressure: 0.4}}
  - {id: bloom_002, depth: 1, entropy: 0.6, complexity: 0.7, scup: {schema: 0.6, coherence: 0.9, utility: 0.7, pressure: 0.4}}
  - {id: bloom_004, depth: 2, entropy: 0.7, complexity: 0.8, scup: {schema: 0.6, coherence: 0.9, utility: 0.7, pressure: 0.4}}
reblooms:
  - {id: bloom_001, entropy_delta: 0.5}
  - {id: bloom_002, parent: bloom_001, entropy_delta: 0.6}
  - {id: bloom_004, parent: bloom_002, entropy_delta: 0.7}
`

// recorder collects event types from a bus.
type recorder struct {
	mu    sync.Mutex
	types []string
}

func (r *recorder) record(e event.Event) {
	r.mu.Lock()
	r.types = append(r.types, e.EventType())
	r.mu.Unlock()
}

func (r *recorder) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.types {
		if t == eventType {
			n++
		}
	}
	return n
}

func newTestEngine(t *testing.T, reg *prometheus.Registry) *integration.Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Routing.Jitter = false
	cfg.Export.Dir = t.TempDir()
	return integration.NewEngine(cfg, integration.WithMetricsRegistry(reg))
}

// TestScenarioToExport drives the full pipeline from a scenario file to an
// export and checks the events and metrics it leaves behind.
func TestScenarioToExport(t *testing.T) {
	reg := prometheus.NewRegistry()
	engine := newTestEngine(t, reg)
	orch := integration.New(engine)
	defer orch.Close()

	rec := &recorder{}
	engine.Bus.SubscribeAll(rec.record)

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(familyScenario), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := scenario.LoadAndApply(engine, path); err != nil {
		t.Fatalf("LoadAndApply() error = %v", err)
	}

	ctx := context.Background()
	a, err := orch.AnalyzeWithRouting(ctx, tracer.Owl, "bloom_004", true)
	if err != nil || a == nil {
		t.Fatalf("AnalyzeWithRouting() = %v, %v", a, err)
	}
	if _, err := orch.AnalyzeWithRouting(ctx, tracer.Owl, "bloom_004", true); err != nil {
		t.Fatal(err)
	}
	routes, err := orch.RouteToFamilyCluster(ctx, tracer.Owl, "bloom_002")
	if err != nil {
		t.Fatal(err)
	}
	if len(routes) != 3 {
		t.Errorf("cluster routes = %d, want 3", len(routes))
	}

	exportPath, err := orch.Export("")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	wantCounts := map[string]int{
		event.TypeTargetUpserted:    3,
		event.TypeRebloomLogged:     3,
		event.TypeScenarioApplied:   1,
		event.TypeAnalysisCompleted: 2,
		event.TypeExportCompleted:   1,
	}
	for typ, want := range wantCounts {
		if got := rec.count(typ); got != want {
			t.Errorf("%s events = %d, want %d", typ, got, want)
		}
	}
	if rec.count(event.TypeRouteAccepted) < 4 {
		t.Errorf("route.accepted events = %d, want at least 4", rec.count(event.TypeRouteAccepted))
	}

	if got, err := testutil.GatherAndCount(reg, "tracer_routes_total"); err != nil || got == 0 {
		t.Errorf("tracer_routes_total series = %d, %v", got, err)
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatal(err)
	}
	var doc integration.Export
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Statistics.TotalAnalyses != 1 || doc.Statistics.AnalysisCacheHits != 1 {
		t.Errorf("exported statistics = %+v", doc.Statistics.IntegrationStats)
	}
	if doc.Statistics.GenealogyMatches != 3 {
		t.Errorf("GenealogyMatches = %d, want 3", doc.Statistics.GenealogyMatches)
	}
}

// TestScenarioReloadInvalidatesAnalyses checks that re-applying a changed
// scenario drops cached analyses of the targets it touches.
func TestScenarioReloadInvalidatesAnalyses(t *testing.T) {
	engine := newTestEngine(t, nil)
	orch := integration.New(engine)
	defer orch.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte(familyScenario), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := scenario.LoadAndApply(engine, path); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	first, err := orch.AnalyzeWithRouting(ctx, tracer.Owl, "bloom_004", true)
	if err != nil || first == nil {
		t.Fatalf("AnalyzeWithRouting() = %v, %v", first, err)
	}

	extended := familyScenario + "  - {id: bloom_006, parent: bloom_004, entropy_delta: 0.2}\n"
	if err := os.WriteFile(path, []byte(extended), 0644); err != nil {
		t.Fatal(err)
	}
	res, err := scenario.LoadAndApply(engine, path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Reblooms != 1 || res.Skipped != 3 {
		t.Errorf("reload result = %+v", res)
	}

	second, err := orch.AnalyzeWithRouting(ctx, tracer.Owl, "bloom_004", true)
	if err != nil || second == nil {
		t.Fatal(err)
	}
	if second.ID == first.ID {
		t.Error("analysis served from cache after the genealogy changed")
	}
	if len(second.Genealogy.Descendants) != 1 {
		t.Errorf("Descendants = %v, want [bloom_006]", second.Genealogy.Descendants)
	}
}

// TestEventBusHandlerPanicIsolated verifies that a panicking subscriber does
// not break routing.
func TestEventBusHandlerPanicIsolated(t *testing.T) {
	engine := newTestEngine(t, nil)
	orch := integration.New(engine)
	defer orch.Close()

	engine.Bus.Subscribe(event.TypeRouteAccepted, func(event.Event) {
		panic("subscriber failure")
	})

	s, err := scenario.Parse([]byte(familyScenario))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := scenario.Apply(engine, s, "inline"); err != nil {
		t.Fatal(err)
	}

	route, err := engine.Router.Route(context.Background(), tracer.Owl, "bloom_004")
	if err != nil || route == nil {
		t.Fatalf("Route() = %v, %v; want a route despite the panicking handler", route, err)
	}
}
