package genealogy

import (
	"math"
	"testing"
)

func TestStatistics(t *testing.T) {
	tree := buildFamily(t)
	_ = tree.LogEvent("orphan", "ghost", 0.5)

	s := tree.Statistics()
	if s.Nodes != 9 {
		t.Errorf("Nodes = %d, want 9", s.Nodes)
	}
	if s.Roots != 2 {
		t.Errorf("Roots = %d, want 2", s.Roots)
	}
	if s.Implicit != 1 {
		t.Errorf("Implicit = %d, want 1", s.Implicit)
	}
	if s.MaxDepth != 3 || s.DeepestNode != "bloom_007" {
		t.Errorf("MaxDepth = %d (%s), want 3 (bloom_007)", s.MaxDepth, s.DeepestNode)
	}
	if s.Leaves != 4 {
		t.Errorf("Leaves = %d, want 4", s.Leaves)
	}
	wantAvg := (0.1 + 0.6 - 0.2 + 0.1 + 0.3 + 0.05 - 0.4 + 0.5) / 8
	if math.Abs(s.AvgEntropyDelta-wantAvg) > 1e-9 {
		t.Errorf("AvgEntropyDelta = %v, want %v", s.AvgEntropyDelta, wantAvg)
	}
}

func TestStatistics_Empty(t *testing.T) {
	s := NewTree(nil).Statistics()
	if s.Nodes != 0 || s.AvgEntropyDelta != 0 || s.DeepestNode != "" {
		t.Errorf("empty statistics = %+v", s)
	}
}

func TestFamily(t *testing.T) {
	tree := buildFamily(t)

	fs, err := tree.Family("bloom_006")
	if err != nil {
		t.Fatalf("Family() error = %v", err)
	}
	if fs.Root != "bloom_001" || fs.Size != 7 || fs.Generations != 4 {
		t.Errorf("Family(bloom_006) = %+v", fs)
	}
}

func TestGraph(t *testing.T) {
	tree := buildFamily(t)

	g := tree.Graph()
	if len(g.Nodes) != 7 {
		t.Errorf("len(Nodes) = %d, want 7", len(g.Nodes))
	}
	if len(g.Edges) != 6 {
		t.Errorf("len(Edges) = %d, want 6", len(g.Edges))
	}
	if g.Edges[0] != (Edge{Parent: "bloom_001", Child: "bloom_002"}) {
		t.Errorf("first edge = %+v", g.Edges[0])
	}
}
