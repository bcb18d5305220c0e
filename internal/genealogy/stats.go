package genealogy

// Statistics summarizes the whole forest.
type Statistics struct {
	Nodes             int     `json:"nodes"`
	Roots             int     `json:"roots"`
	Leaves            int     `json:"leaves"`
	Implicit          int     `json:"implicit"`
	MaxDepth          int     `json:"max_depth"`
	DeepestNode       string  `json:"deepest_node,omitempty"`
	AvgEntropyDelta   float64 `json:"avg_entropy_delta"`
	TotalEntropyDrift float64 `json:"total_entropy_drift"`
}

// FamilyStats summarizes the tree a node belongs to.
type FamilyStats struct {
	Root         string  `json:"root"`
	Size         int     `json:"size"`        // root plus all of its descendants
	Generations  int     `json:"generations"` // distinct depths in the family
	EntropyDrift float64 `json:"entropy_drift"`
}

// Edge links a parent to a child.
type Edge struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// Graph is a node/edge export of the forest.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Statistics computes forest-wide statistics. The average entropy delta
// covers explicitly logged nodes only.
func (t *Tree) Statistics() Statistics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Statistics{Nodes: len(t.nodes)}
	explicit := 0
	for _, id := range t.order {
		n := t.nodes[id]
		if n.parentID == "" {
			s.Roots++
		}
		if len(n.children) == 0 {
			s.Leaves++
		}
		if n.implicit {
			s.Implicit++
		} else {
			explicit++
			s.TotalEntropyDrift += n.delta
		}
		if d := t.depthLocked(id); d > s.MaxDepth || s.DeepestNode == "" {
			s.MaxDepth = d
			s.DeepestNode = id
		}
	}
	if explicit > 0 {
		s.AvgEntropyDelta = s.TotalEntropyDrift / float64(explicit)
	}
	return s
}

// Family returns statistics for the tree containing id.
func (t *Tree) Family(id string) (FamilyStats, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, err := t.lookupLocked(id)
	if err != nil {
		return FamilyStats{}, err
	}
	for n.parentID != "" {
		n = t.nodes[n.parentID]
	}

	members := append([]string{n.id}, t.descendantsLocked(n)...)
	fs := FamilyStats{Root: n.id, Size: len(members)}
	depths := make(map[int]struct{})
	for _, m := range members {
		depths[t.depthLocked(m)] = struct{}{}
		fs.EntropyDrift += t.nodes[m].delta
	}
	fs.Generations = len(depths)
	return fs, nil
}

// Graph exports every node in insertion order with one edge per parent link.
func (t *Tree) Graph() Graph {
	t.mu.RLock()
	defer t.mu.RUnlock()

	g := Graph{
		Nodes: make([]Node, 0, len(t.order)),
		Edges: []Edge{},
	}
	for _, id := range t.order {
		n := t.nodes[id]
		g.Nodes = append(g.Nodes, n.snapshot())
		if n.parentID != "" {
			g.Edges = append(g.Edges, Edge{Parent: n.parentID, Child: id})
		}
	}
	return g
}
