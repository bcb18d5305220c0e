package integration

import (
	"fmt"
	"time"

	"github.com/dawnworks/tracer/internal/genealogy"
	"github.com/dawnworks/tracer/internal/tracer"
)

// Analysis is an accepted route explained against the target's lineage.
type Analysis struct {
	ID              string            `json:"id"`
	Route           tracer.Route      `json:"tracer_route"`
	Genealogy       GenealogyAnalysis `json:"genealogy_analysis"`
	Family          FamilyContext     `json:"family_context"`
	Insights        []string          `json:"cognitive_insights"`
	Recommendations []string          `json:"routing_recommendations"`
	Timestamp       time.Time         `json:"timestamp"`
}

func (a *Analysis) clone() *Analysis {
	c := *a
	c.Route = *a.Route.Clone()
	c.Genealogy = a.Genealogy.clone()
	c.Insights = append([]string(nil), a.Insights...)
	c.Recommendations = append([]string(nil), a.Recommendations...)
	return &c
}

// GenealogyAnalysis is the lineage of the analyzed target. The lineage
// fields are only filled for a full family analysis of a known node.
type GenealogyAnalysis struct {
	TargetID         string                   `json:"bloom_id"`
	Depth            int                      `json:"depth"`
	HasGenealogy     bool                     `json:"has_genealogy_data"`
	Ancestry         []string                 `json:"ancestry_chain,omitempty"`
	Descendants      []string                 `json:"descendants,omitempty"`
	Siblings         []string                 `json:"siblings,omitempty"`
	EntropyEvolution []genealogy.EntropyPoint `json:"entropy_evolution,omitempty"`
	Family           *FamilyStatistics        `json:"family_statistics,omitempty"`
}

func (g GenealogyAnalysis) clone() GenealogyAnalysis {
	g.Ancestry = append([]string(nil), g.Ancestry...)
	g.Descendants = append([]string(nil), g.Descendants...)
	g.Siblings = append([]string(nil), g.Siblings...)
	g.EntropyEvolution = append([]genealogy.EntropyPoint(nil), g.EntropyEvolution...)
	if g.Family != nil {
		f := *g.Family
		g.Family = &f
	}
	return g
}

// FamilyStatistics summarizes the family around an analyzed target.
type FamilyStatistics struct {
	TotalFamilySize int  `json:"total_family_size"`
	GenerationDepth int  `json:"generation_depth"`
	DescendantCount int  `json:"descendant_count"`
	IsRoot          bool `json:"is_root"`
	IsLeaf          bool `json:"is_leaf"`
}

// ContextType classifies how a family suits a worker.
type ContextType string

const (
	ContextIsolated        ContextType = "isolated_bloom"
	ContextDeepStructured  ContextType = "deep_structured_family"
	ContextStandard        ContextType = "standard_family"
	ContextVulnerable      ContextType = "vulnerable_family"
	ContextStable          ContextType = "stable_family"
	ContextHighlyConnected ContextType = "highly_connected_family"
	ContextConnected       ContextType = "connected_family"
	ContextMassiveComplex  ContextType = "massive_complex_family"
	ContextModerate        ContextType = "moderate_family"
)

// FamilyContext is a worker's fit with the family of a target.
type FamilyContext struct {
	TargetID        string            `json:"bloom_id"`
	Worker          tracer.WorkerType `json:"tracer_type"`
	Type            ContextType       `json:"context_type"`
	MatchScore      float64           `json:"context_match_score"`
	FamilySize      int               `json:"family_size"`
	GenerationDepth int               `json:"generation_depth"`
	HasDescendants  bool              `json:"has_descendants"`
	HasAncestors    bool              `json:"has_ancestors"`
}

func (o *Orchestrator) genealogyAnalysis(id string, full bool) GenealogyAnalysis {
	tree := o.engine.Tree
	g := GenealogyAnalysis{TargetID: id, HasGenealogy: tree.Has(id)}
	if !g.HasGenealogy {
		return g
	}
	g.Depth, _ = tree.Depth(id)
	if !full {
		return g
	}

	g.Ancestry, g.Descendants, _ = o.lineage(id)
	g.Siblings, _ = tree.Siblings(id)
	g.EntropyEvolution, _ = tree.EntropyEvolution(id)
	g.Family = &FamilyStatistics{
		TotalFamilySize: familySize(g.Ancestry, g.Descendants),
		GenerationDepth: len(g.Ancestry),
		DescendantCount: len(g.Descendants),
		IsRoot:          len(g.Ancestry) == 0,
		IsLeaf:          len(g.Descendants) == 0,
	}
	return g
}

// familySize counts the distinct members of ancestry, descendants and the node itself.
func familySize(ancestry, descendants []string) int {
	seen := make(map[string]struct{}, len(ancestry)+len(descendants))
	for _, id := range ancestry {
		seen[id] = struct{}{}
	}
	for _, id := range descendants {
		seen[id] = struct{}{}
	}
	return len(seen) + 1
}

func (o *Orchestrator) familyContext(id string, worker tracer.WorkerType) FamilyContext {
	fc := FamilyContext{TargetID: id, Worker: worker}

	ancestry, descendants, _ := o.lineage(id)
	if len(ancestry) == 0 && len(descendants) == 0 {
		fc.Type = ContextIsolated
		fc.MatchScore = 0.5
		fc.FamilySize = 1
		return fc
	}

	size := familySize(ancestry, descendants)
	gen := len(ancestry)
	fc.FamilySize = size
	fc.GenerationDepth = gen
	fc.HasDescendants = len(descendants) > 0
	fc.HasAncestors = gen > 0

	switch worker {
	case tracer.Owl:
		if gen >= 3 && gen <= 8 && size >= 5 {
			fc.Type, fc.MatchScore = ContextDeepStructured, 0.8
		} else {
			fc.Type, fc.MatchScore = ContextStandard, 0.6
		}
	case tracer.Crow:
		if size < 5 || gen < 3 {
			fc.Type, fc.MatchScore = ContextVulnerable, 0.7
		} else {
			fc.Type, fc.MatchScore = ContextStable, 0.4
		}
	case tracer.Spider:
		if size >= 8 {
			fc.Type, fc.MatchScore = ContextHighlyConnected, 0.9
		} else {
			fc.Type, fc.MatchScore = ContextConnected, 0.6
		}
	case tracer.Whale:
		if size >= 15 && gen >= 5 {
			fc.Type, fc.MatchScore = ContextMassiveComplex, 0.9
		} else {
			fc.Type, fc.MatchScore = ContextModerate, 0.5
		}
	}
	return fc
}

func insights(route *tracer.Route, g GenealogyAnalysis, fc FamilyContext) []string {
	out := []string{}

	switch {
	case route.Score > 0.8:
		out = append(out, "Excellent tracer-target match: "+route.Reason)
	case route.Score < 0.5:
		out = append(out, "Suboptimal routing detected: Consider alternative tracer for this target")
	}

	if g.HasGenealogy {
		switch {
		case g.Depth > 5:
			out = append(out, fmt.Sprintf("Deep genealogical structure detected (depth %d): Ideal for pattern analysis", g.Depth))
		case g.Depth == 0:
			out = append(out, "Root bloom identified: Potential founding cognitive pattern")
		}
		if g.Family != nil && g.Family.TotalFamilySize > 10 {
			out = append(out, "Large cognitive family detected: High potential for network effects")
		}
	}

	switch {
	case fc.MatchScore > 0.8:
		out = append(out, fmt.Sprintf("Optimal tracer-family alignment: %s", fc.Type))
	case fc.MatchScore < 0.4:
		out = append(out, "Poor tracer-family fit: Consider family-specialized routing")
	}

	if len(route.Path) > 5 && g.Depth > 3 {
		out = append(out, "Complex routing to deep genealogy: High cognitive processing potential")
	}
	return out
}

func recommendations(g GenealogyAnalysis, fc FamilyContext) []string {
	out := []string{}

	switch fc.Type {
	case ContextIsolated:
		out = append(out, "Consider Spider tracer for bridge-building to connect isolated bloom")
	case ContextVulnerable:
		out = append(out, "Crow tracer optimal for weakness analysis in small family structures")
	case ContextMassiveComplex:
		out = append(out, "Whale tracer recommended for comprehensive analysis of large family")
	}

	if g.HasGenealogy && g.Family != nil {
		switch {
		case g.Family.IsRoot:
			out = append(out, "Root bloom detected: Use Owl tracer for foundational pattern analysis")
		case g.Family.IsLeaf:
			out = append(out, "Leaf bloom identified: Spider tracer effective for extension analysis")
		}
		if g.Family.DescendantCount > 8 {
			out = append(out, "High descendant count: Consider Whale tracer for family cluster analysis")
		}
	}

	if fc.MatchScore < 0.6 {
		out = append(out, "Low context match: Try alternative tracers for better family alignment")
	}
	return out
}
