package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dawnworks/tracer/internal/errors"
	"github.com/dawnworks/tracer/internal/integration"
	"github.com/dawnworks/tracer/internal/tracer"
)

const testScenario = `
targets:
  - {id: bloom_001, depth: 0, entropy: 0.5, complexity: 0.6, scup: {schema: 0.6, coherence: 0.9, utility: 0.7, pressure: 0.4}}
  - {id: bloom_002, depth: 1, entropy: 0.6, complexity: 0.7, scup: {schema: 0.6, coherence: 0.9, utility: 0.7, pressure: 0.4}}
  - {id: bloom_003, depth: 1, entropy: 0.4, complexity: 0.5, scup: {schema: 0.6, coherence: 0.9, utility: 0.7, pressure: 0.4}}
  - {id: bloom_004, depth: 2, entropy: 0.7, complexity: 0.8, scup: {schema: 0.6, coherence: 0.9, utility: 0.7, pressure: 0.4}}
  - {id: bloom_005, depth: 2, entropy: 0.3, complexity: 0.4, scup: {schema: 0.6, coherence: 0.9, utility: 0.7, pressure: 0.4}}
  - {id: faint, depth: 0, entropy: 0.05, complexity: 0.1, scup: {schema: 0.1, coherence: 0.1, utility: 0.1, pressure: 0.1}}
reblooms:
  - {id: bloom_001, entropy_delta: 0.5}
  - {id: bloom_002, parent: bloom_001, entropy_delta: 0.6}
  - {id: bloom_003, parent: bloom_001, entropy_delta: 0.4}
  - {id: bloom_004, parent: bloom_002, entropy_delta: 0.7}
  - {id: bloom_005, parent: bloom_002, entropy_delta: 0.3}
`

// executeCommand runs the root command with args and returns captured output
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default so state does not leak between runs.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func writeTestScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(testScenario), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "tracer" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "tracer")
	}

	expectedCmds := []string{"route", "routes", "explain", "analyze", "family", "predict", "lineage", "stats", "export", "watch", "config"}
	cmdMap := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		cmdMap[c.Name()] = true
	}
	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func TestRouteCommand(t *testing.T) {
	scn := writeTestScenario(t)

	t.Run("accepted", func(t *testing.T) {
		out, err := executeCommand(t, "--scenario", scn, "--json", "route", "owl", "bloom_004")
		if err != nil {
			t.Fatalf("route error = %v", err)
		}
		var res routeResult
		if err := json.Unmarshal([]byte(out), &res); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if !res.Accepted || res.Route == nil || res.Route.TargetID != "bloom_004" {
			t.Errorf("result = %+v", res)
		}
		if res.Score < 0.709 || res.Score > 0.711 {
			t.Errorf("Score = %v, want 0.71", res.Score)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		out, err := executeCommand(t, "--scenario", scn, "--json", "route", "whale", "faint")
		if err != nil {
			t.Fatalf("route error = %v", err)
		}
		var res routeResult
		if err := json.Unmarshal([]byte(out), &res); err != nil {
			t.Fatal(err)
		}
		if res.Accepted || res.Route != nil || res.Score >= res.MinScore {
			t.Errorf("result = %+v, want rejection", res)
		}
	})

	t.Run("text", func(t *testing.T) {
		out, err := executeCommand(t, "--scenario", scn, "route", "owl", "bloom_004")
		if err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{"ROUTE", "bloom_004", "0.71", "→"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("unknown worker", func(t *testing.T) {
		_, err := executeCommand(t, "--scenario", scn, "route", "eagle", "bloom_004")
		if !errors.Is(err, errors.ErrUnknownWorkerType) {
			t.Errorf("error = %v, want ErrUnknownWorkerType", err)
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := executeCommand(t, "--scenario", scn, "route", "owl", "nowhere")
		if !errors.Is(err, errors.ErrTargetNotFound) {
			t.Errorf("error = %v, want ErrTargetNotFound", err)
		}
	})
}

func TestRoutesCommand(t *testing.T) {
	scn := writeTestScenario(t)

	out, err := executeCommand(t, "--scenario", scn, "--json", "routes", "owl", "--match", "bloom_00[45]")
	if err != nil {
		t.Fatalf("routes error = %v", err)
	}
	var options []tracer.RouteOption
	if err := json.Unmarshal([]byte(out), &options); err != nil {
		t.Fatal(err)
	}
	if len(options) != 2 || options[0].TargetID != "bloom_004" || options[1].TargetID != "bloom_005" {
		t.Errorf("options = %+v", options)
	}

	out, err = executeCommand(t, "--scenario", scn, "--json", "routes", "owl", "--limit", "1")
	if err != nil {
		t.Fatal(err)
	}
	options = nil
	if err := json.Unmarshal([]byte(out), &options); err != nil {
		t.Fatal(err)
	}
	if len(options) != 1 {
		t.Errorf("got %d options with --limit 1", len(options))
	}
}

func TestExplainCommand(t *testing.T) {
	scn := writeTestScenario(t)

	out, err := executeCommand(t, "--scenario", scn, "explain", "whale", "faint")
	if err != nil {
		t.Fatalf("explain error = %v", err)
	}
	for _, want := range []string{"Depth", "SCUP focus", "Total", "rejected"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeCommand(t *testing.T) {
	scn := writeTestScenario(t)

	out, err := executeCommand(t, "--scenario", scn, "--json", "analyze", "owl", "bloom_004")
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	var a integration.Analysis
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatal(err)
	}
	if a.Family.Type != integration.ContextStandard || a.Genealogy.Depth != 2 {
		t.Errorf("analysis = %+v", a)
	}
}

func TestFamilyCommands(t *testing.T) {
	scn := writeTestScenario(t)

	t.Run("suggest", func(t *testing.T) {
		out, err := executeCommand(t, "--scenario", scn, "--json", "family", "suggest", "bloom_001")
		if err != nil {
			t.Fatal(err)
		}
		var got []integration.WorkerSuggestion
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 || got[0].Worker != tracer.Crow {
			t.Errorf("suggestions = %+v", got)
		}
	})

	t.Run("suggest unknown node", func(t *testing.T) {
		_, err := executeCommand(t, "--scenario", scn, "family", "suggest", "nowhere")
		if !errors.Is(err, errors.ErrNodeNotFound) {
			t.Errorf("error = %v, want ErrNodeNotFound", err)
		}
	})

	t.Run("cluster", func(t *testing.T) {
		out, err := executeCommand(t, "--scenario", scn, "--json", "family", "cluster", "owl", "bloom_002")
		if err != nil {
			t.Fatal(err)
		}
		var routes []tracer.Route
		if err := json.Unmarshal([]byte(out), &routes); err != nil {
			t.Fatal(err)
		}
		if len(routes) != 4 {
			t.Errorf("got %d cluster routes, want 4", len(routes))
		}
	})
}

func TestPredictCommand(t *testing.T) {
	scn := writeTestScenario(t)

	out, err := executeCommand(t, "--scenario", scn, "--json", "predict", "owl", "--min", "0.9")
	if err != nil {
		t.Fatal(err)
	}
	var got []integration.Prediction
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].TargetID != "bloom_004" {
		t.Errorf("predictions = %+v", got)
	}
}

func TestLineageCommand(t *testing.T) {
	scn := writeTestScenario(t)

	out, err := executeCommand(t, "--scenario", scn, "--json", "lineage", "bloom_004")
	if err != nil {
		t.Fatal(err)
	}
	var res lineageResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if res.Depth != 2 || res.Root != "bloom_001" || len(res.Ancestry) != 2 || len(res.Entropy) != 3 {
		t.Errorf("lineage = %+v", res)
	}

	if _, err := executeCommand(t, "--scenario", scn, "lineage", "nowhere"); !errors.Is(err, errors.ErrNodeNotFound) {
		t.Errorf("error = %v, want ErrNodeNotFound", err)
	}
}

func TestStatsCommand(t *testing.T) {
	scn := writeTestScenario(t)

	out, err := executeCommand(t, "--scenario", scn, "--json", "stats", "--sweep")
	if err != nil {
		t.Fatal(err)
	}
	var s integration.Statistics
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatal(err)
	}
	if s.Router.TotalRoutes != 24 || s.Router.Targets != 6 {
		t.Errorf("routing stats = %+v", s.Router)
	}
	if s.Router.SuccessfulRoutes+s.Router.RejectedRoutes != s.Router.TotalRoutes {
		t.Errorf("accepted + rejected != total: %+v", s.Router)
	}
	if s.Genealogy.Nodes != 5 {
		t.Errorf("genealogy nodes = %d, want 5", s.Genealogy.Nodes)
	}

	out, err = executeCommand(t, "--scenario", scn, "stats", "--sweep", "--metrics")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"ROUTING", "GENEALOGY", "tracer_routes_total"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestExportCommand(t *testing.T) {
	scn := writeTestScenario(t)
	path := filepath.Join(t.TempDir(), "out", "export.json")

	out, err := executeCommand(t, "--scenario", scn, "--json", "export", "--analyze", path)
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("output %q does not name %s", out, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc integration.Export
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.History) == 0 || len(doc.History) > 50 {
		t.Errorf("history length = %d", len(doc.History))
	}
}

func TestWatchCommand_RequiresScenario(t *testing.T) {
	_, err := executeCommand(t, "watch")
	if !errors.Is(err, errNoScenario) {
		t.Errorf("error = %v, want errNoScenario", err)
	}
}

func TestConfigCommands(t *testing.T) {
	t.Run("show", func(t *testing.T) {
		out, err := executeCommand(t, "config", "show")
		if err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{"routing:", "min_score: 0.3", "cache_ttl: 5m0s", "export_history: 50"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("init", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tracer", "config.yaml")
		if _, err := executeCommand(t, "config", "init", "--path", path); err != nil {
			t.Fatalf("config init error = %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "min_score: 0.3") {
			t.Errorf("config file missing defaults:\n%s", data)
		}

		if _, err := executeCommand(t, "config", "init", "--path", path); err == nil {
			t.Error("second init without --force should fail")
		}
		if _, err := executeCommand(t, "config", "init", "--path", path, "--force"); err != nil {
			t.Errorf("init --force error = %v", err)
		}
	})
}

func TestPrinterFit(t *testing.T) {
	tests := []struct {
		width int
		in    string
		want  string
	}{
		{0, "unbounded output", "unbounded output"},
		{10, "short", "short"},
		{10, "abcdefghijklmnop", "abcdefg..."},
	}
	for _, tt := range tests {
		p := &printer{width: tt.width}
		if got := p.fit(tt.in); got != tt.want {
			t.Errorf("fit(%q) width %d = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
