package tracer

// Range is an inclusive numeric interval.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the interval.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Distance returns how far v lies outside the interval (0 when inside).
func (r Range) Distance(v float64) float64 {
	switch {
	case v < r.Min:
		return r.Min - v
	case v > r.Max:
		return v - r.Max
	default:
		return 0
	}
}

// WorkerProfile is the fixed capability profile of a worker type.
type WorkerProfile struct {
	Type                WorkerType
	DepthRange          Range
	EntropyRange        Range
	TokenBridgeCapacity int
	AnalysisSpeed       float64
	ResourceEfficiency  float64
	FocusDims           []Dimension
	StartPathway        Pathway
}

var profiles = map[WorkerType]WorkerProfile{
	Owl: {
		Type:                Owl,
		DepthRange:          Range{3, 8},
		EntropyRange:        Range{0.3, 0.8},
		TokenBridgeCapacity: 6,
		AnalysisSpeed:       0.7,
		ResourceEfficiency:  0.8,
		FocusDims:           []Dimension{DimSchema, DimCoherence},
		StartPathway:        PathwayAnalysisCore,
	},
	Crow: {
		Type:                Crow,
		DepthRange:          Range{1, 5},
		EntropyRange:        Range{0.6, 1.0},
		TokenBridgeCapacity: 3,
		AnalysisSpeed:       0.9,
		ResourceEfficiency:  0.6,
		FocusDims:           []Dimension{DimUtility, DimPressure},
		StartPathway:        PathwayAttentionNexus,
	},
	Spider: {
		Type:                Spider,
		DepthRange:          Range{2, 6},
		EntropyRange:        Range{0.4, 0.7},
		TokenBridgeCapacity: 12,
		AnalysisSpeed:       0.8,
		ResourceEfficiency:  0.9,
		FocusDims:           []Dimension{DimCoherence, DimUtility},
		StartPathway:        PathwaySynthesisChamber,
	},
	Whale: {
		Type:                Whale,
		DepthRange:          Range{4, 10},
		EntropyRange:        Range{0.6, 1.0},
		TokenBridgeCapacity: 8,
		AnalysisSpeed:       0.5,
		ResourceEfficiency:  0.7,
		FocusDims:           []Dimension{DimSchema, DimPressure},
		StartPathway:        PathwayMemoryBanks,
	},
}

// Profile returns the profile for w. The returned value owns its FocusDims slice.
func Profile(w WorkerType) (WorkerProfile, bool) {
	p, ok := profiles[w]
	if !ok {
		return WorkerProfile{}, false
	}
	p.FocusDims = append([]Dimension(nil), p.FocusDims...)
	return p, true
}

// Profiles returns every profile in canonical worker order.
func Profiles() []WorkerProfile {
	out := make([]WorkerProfile, 0, len(profiles))
	for _, w := range WorkerTypes() {
		p, _ := Profile(w)
		out = append(out, p)
	}
	return out
}
