package scenario

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dawnworks/tracer/internal/config"
	"github.com/dawnworks/tracer/internal/errors"
	"github.com/dawnworks/tracer/internal/event"
	"github.com/dawnworks/tracer/internal/integration"
	"github.com/dawnworks/tracer/internal/tracer"
)

const familyScenario = `
targets:
  - id: bloom_001
    depth: 0
    complexity: 0.6
    scup: {schema: 0.6, coherence: 0.9, utility: 0.7, pressure: 0.4}
  - id: bloom_002
    depth: 1
    entropy: 0.6
    complexity: 0.7
    token_density: 0.8
    status: Evolving
    scup: {schema: 0.6, coherence: 0.9, utility: 0.7, pressure: 0.4}
reblooms:
  - id: bloom_002
    parent: bloom_001
    entropy_delta: 0.6
  - id: bloom_001
    entropy_delta: 0.5
`

func writeScenario(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newEngine() *integration.Engine {
	cfg := config.Default()
	cfg.Routing.Jitter = false
	return integration.NewEngine(cfg)
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(familyScenario))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(s.Targets) != 2 || len(s.Reblooms) != 2 {
		t.Fatalf("got %d targets and %d reblooms", len(s.Targets), len(s.Reblooms))
	}

	in := s.Targets[0].Input()
	if in.Entropy != 0.5 || in.TokenDensity != 0.5 || in.Complexity != 0.6 {
		t.Errorf("defaults not applied: %+v", in)
	}
	if in.Status != tracer.StatusStable {
		t.Errorf("Status = %q, want stable", in.Status)
	}

	in = s.Targets[1].Input()
	want := tracer.SCUP{Schema: 0.6, Coherence: 0.9, Utility: 0.7, Pressure: 0.4}
	if in.SCUP == nil || *in.SCUP != want {
		t.Errorf("SCUP = %v, want %v", in.SCUP, want)
	}
	if in.Status != tracer.StatusEvolving || in.TokenDensity != 0.8 {
		t.Errorf("input = %+v", in)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed yaml", "targets: [unclosed"},
		{"missing target id", "targets:\n  - depth: 1\n"},
		{"duplicate target", "targets:\n  - id: a\n  - id: a\n"},
		{"unknown status", "targets:\n  - id: a\n    status: melting\n"},
		{"missing rebloom id", "reblooms:\n  - parent: a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.body)); err == nil {
				t.Error("Parse() error = nil, want error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() error = nil, want error")
	}
}

func TestApply(t *testing.T) {
	engine := newEngine()
	path := writeScenario(t, t.TempDir(), familyScenario)

	var applied []event.ScenarioAppliedEvent
	engine.Bus.Subscribe(event.TypeScenarioApplied, func(e event.Event) {
		applied = append(applied, e.(event.ScenarioAppliedEvent))
	})

	res, err := LoadAndApply(engine, path)
	if err != nil {
		t.Fatalf("LoadAndApply() error = %v", err)
	}
	if diff := cmp.Diff(Result{Path: path, Targets: 2, Reblooms: 2}, res); diff != "" {
		t.Errorf("Result mismatch (-want +got):\n%s", diff)
	}

	if engine.Registry.Len() != 2 {
		t.Errorf("registry size = %d, want 2", engine.Registry.Len())
	}
	n, err := engine.Tree.Node("bloom_001")
	if err != nil || n.Implicit || n.EntropyDelta != 0.5 {
		t.Errorf("bloom_001 = %+v, %v; want promoted root", n, err)
	}

	// Re-applying skips genealogy already present and refreshes targets.
	res, err = LoadAndApply(engine, path)
	if err != nil {
		t.Fatalf("second LoadAndApply() error = %v", err)
	}
	if res.Targets != 2 || res.Reblooms != 0 || res.Skipped != 2 {
		t.Errorf("second Result = %+v", res)
	}
	if engine.Tree.Len() != 2 {
		t.Errorf("tree size = %d, want 2", engine.Tree.Len())
	}

	if len(applied) != 2 || applied[0].Error != "" || applied[1].Skipped != 2 {
		t.Errorf("events = %+v", applied)
	}
}

func TestApply_RejectedTarget(t *testing.T) {
	engine := newEngine()
	s, err := Parse([]byte("targets:\n  - id: ok\n  - id: hot\n    entropy: 1.5\n"))
	if err != nil {
		t.Fatal(err)
	}

	res, err := Apply(engine, s, "inline")
	if !errors.Is(err, errors.ErrInvalidTarget) {
		t.Fatalf("Apply() error = %v, want ErrInvalidTarget", err)
	}
	if res.Targets != 1 {
		t.Errorf("Targets = %d, want 1 applied before the failure", res.Targets)
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	engine := newEngine()
	path := writeScenario(t, dir, "targets:\n  - id: first\n")
	if _, err := LoadAndApply(engine, path); err != nil {
		t.Fatal(err)
	}

	results := make(chan Result, 4)
	w, err := NewWatcher(engine, path,
		WithDebounce(20*time.Millisecond),
		WithApplyCallback(func(r Result) { results <- r }),
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.Start()
	defer w.Stop()

	writeScenario(t, dir, "targets:\n  - id: first\n  - id: second\n")

	select {
	case r := <-results:
		if r.Targets != 2 {
			t.Errorf("reload Targets = %d, want 2", r.Targets)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	if !engine.Registry.Has("second") {
		t.Error("reloaded target not registered")
	}
}

func TestWatcher_ReportsErrors(t *testing.T) {
	dir := t.TempDir()
	engine := newEngine()
	path := writeScenario(t, dir, "targets: []\n")

	var mu sync.Mutex
	var errs []error
	done := make(chan struct{}, 1)
	w, err := NewWatcher(engine, path,
		WithDebounce(20*time.Millisecond),
		WithErrorCallback(func(err error) {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			select {
			case done <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	defer w.Stop()

	writeScenario(t, dir, "targets: [broken")

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for error callback")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(errs) == 0 {
		t.Error("expected a reload error")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	engine := newEngine()
	path := writeScenario(t, dir, "targets: []\n")

	results := make(chan Result, 1)
	w, err := NewWatcher(engine, path,
		WithDebounce(20*time.Millisecond),
		WithApplyCallback(func(r Result) { results <- r }),
	)
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-results:
		t.Errorf("unexpected reload %+v", r)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	engine := newEngine()
	path := writeScenario(t, t.TempDir(), "targets: []\n")
	w, err := NewWatcher(engine, path)
	if err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
