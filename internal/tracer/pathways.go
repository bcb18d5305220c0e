package tracer

// Pathway is a named region of the processing network.
type Pathway string

const (
	PathwayMemoryBanks      Pathway = "memory_banks"
	PathwayAnalysisCore     Pathway = "analysis_core"
	PathwaySynthesisChamber Pathway = "synthesis_chamber"
	PathwayAttentionNexus   Pathway = "attention_nexus"
	PathwayMetaLayer        Pathway = "meta_layer"
)

// MaxPathLength bounds every generated route path.
const MaxPathLength = 6

var pathwayStages = map[Pathway][]string{
	PathwayMemoryBanks:      {"recall_system", "consolidation_core", "pattern_library"},
	PathwayAnalysisCore:     {"deep_processor", "pattern_analyzer", "logic_engine"},
	PathwaySynthesisChamber: {"creative_engine", "integration_hub", "ideation_core"},
	PathwayAttentionNexus:   {"focus_director", "priority_filter", "awareness_monitor"},
	PathwayMetaLayer:        {"self_observer", "cognitive_tracker", "reflection_engine"},
}

// Stages returns a copy of the stage names of p.
func (p Pathway) Stages() []string {
	return append([]string(nil), pathwayStages[p]...)
}

// Pathways returns every pathway in network order.
func Pathways() []Pathway {
	return []Pathway{
		PathwayMemoryBanks,
		PathwayAnalysisCore,
		PathwaySynthesisChamber,
		PathwayAttentionNexus,
		PathwayMetaLayer,
	}
}

// BuildPath produces the traversal path for a worker starting at start towards target.
//
// The path opens with the start pathway, walks three of its stages when the
// target is complex (complexity > 0.7) and two otherwise, visits the meta layer
// for deep targets (depth > 5) and ends at the target id. Paths longer than
// MaxPathLength keep their first three and last two entries.
func BuildPath(start Pathway, target Target) []string {
	stages := pathwayStages[start]
	n := 2
	if target.Complexity > 0.7 {
		n = 3
	}
	if n > len(stages) {
		n = len(stages)
	}

	path := make([]string, 0, MaxPathLength+1)
	path = append(path, string(start))
	path = append(path, stages[:n]...)
	if target.Depth > 5 {
		path = append(path, string(PathwayMetaLayer))
	}
	path = append(path, target.ID)

	if len(path) > MaxPathLength {
		trimmed := make([]string, 0, 5)
		trimmed = append(trimmed, path[:3]...)
		trimmed = append(trimmed, path[len(path)-2:]...)
		path = trimmed
	}
	return path
}
