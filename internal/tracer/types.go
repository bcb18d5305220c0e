package tracer

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// WorkerType names a specialized worker profile.
type WorkerType string

const (
	// Owl performs deep pattern analysis on structured, evolving targets.
	Owl WorkerType = "owl"
	// Crow hunts opportunistic weaknesses in volatile, pressured targets.
	Crow WorkerType = "crow"
	// Spider bridges tokens and interconnects dense targets.
	Spider WorkerType = "spider"
	// Whale consolidates massive, deep, high-entropy targets.
	Whale WorkerType = "whale"
)

// WorkerTypes returns every worker type in canonical order.
func WorkerTypes() []WorkerType {
	return []WorkerType{Owl, Crow, Spider, Whale}
}

// ParseWorkerType normalizes s and reports whether it names a known worker type.
func ParseWorkerType(s string) (WorkerType, bool) {
	w := WorkerType(strings.ToLower(strings.TrimSpace(s)))
	_, ok := profiles[w]
	return w, ok
}

// Valid reports whether w is one of the fixed worker types.
func (w WorkerType) Valid() bool {
	_, ok := profiles[w]
	return ok
}

// String returns the worker type name.
func (w WorkerType) String() string {
	return string(w)
}

// Status is the lifecycle state of a target.
type Status string

const (
	StatusStable      Status = "stable"
	StatusReblooming  Status = "reblooming"
	StatusEvolving    Status = "evolving"
	StatusFragmenting Status = "fragmenting"
	StatusDormant     Status = "dormant"
)

// Statuses returns every known target status.
func Statuses() []Status {
	return []Status{StatusStable, StatusReblooming, StatusEvolving, StatusFragmenting, StatusDormant}
}

// ParseStatus normalizes s into a Status. An empty string maps to StatusStable.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if st == "" {
		return StatusStable, nil
	}
	for _, known := range Statuses() {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Dimension identifies one axis of the SCUP vector.
type Dimension string

const (
	DimSchema    Dimension = "schema"
	DimCoherence Dimension = "coherence"
	DimUtility   Dimension = "utility"
	DimPressure  Dimension = "pressure"
)

// SCUP is the schema/coherence/utility/pressure balance of a target.
type SCUP struct {
	Schema    float64 `json:"schema" yaml:"schema"`
	Coherence float64 `json:"coherence" yaml:"coherence"`
	Utility   float64 `json:"utility" yaml:"utility"`
	Pressure  float64 `json:"pressure" yaml:"pressure"`
}

// Get returns the value of one dimension; ok is false for unknown dimensions.
func (s SCUP) Get(d Dimension) (float64, bool) {
	switch d {
	case DimSchema:
		return s.Schema, true
	case DimCoherence:
		return s.Coherence, true
	case DimUtility:
		return s.Utility, true
	case DimPressure:
		return s.Pressure, true
	default:
		return 0, false
	}
}

// NormalizeID returns the canonical form of a target or genealogy node id.
// The registry and the genealogy tree both key by it.
func NormalizeID(id string) string {
	return strings.TrimSpace(id)
}

// Target is a scored unit of content ("bloom") that workers are routed to.
type Target struct {
	ID           string    `json:"id"`
	Depth        int       `json:"depth"`
	Entropy      float64   `json:"entropy"`
	Complexity   float64   `json:"complexity"`
	SCUP         SCUP      `json:"scup"`
	TokenDensity float64   `json:"token_density"`
	Status       Status    `json:"status"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Validate checks that every attribute is within its domain.
func (t Target) Validate() error {
	if NormalizeID(t.ID) == "" {
		return fmt.Errorf("id must not be empty")
	}
	if t.ID != NormalizeID(t.ID) {
		return fmt.Errorf("id %q has surrounding whitespace", t.ID)
	}
	if t.Depth < 0 {
		return fmt.Errorf("depth must be non-negative, got %d", t.Depth)
	}
	unit := []struct {
		name  string
		value float64
	}{
		{"entropy", t.Entropy},
		{"complexity", t.Complexity},
		{"token_density", t.TokenDensity},
		{"scup.schema", t.SCUP.Schema},
		{"scup.coherence", t.SCUP.Coherence},
		{"scup.utility", t.SCUP.Utility},
		{"scup.pressure", t.SCUP.Pressure},
	}
	for _, u := range unit {
		if math.IsNaN(u.value) || u.value < 0 || u.value > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", u.name, u.value)
		}
	}
	if _, err := ParseStatus(string(t.Status)); err != nil {
		return err
	}
	return nil
}

// Route is an accepted assignment of a worker to a target.
// Routes are values; callers receive copies and the Path slice is never shared.
type Route struct {
	Worker             WorkerType    `json:"worker"`
	TargetID           string        `json:"target_id"`
	Path               []string      `json:"path"`
	Score              float64       `json:"score"`
	EstimatedTime      time.Duration `json:"estimated_time"`
	ResourceCost       float64       `json:"resource_cost"`
	SuccessProbability float64       `json:"success_probability"`
	Reason             string        `json:"reason"`
	Timestamp          time.Time     `json:"timestamp"`
}

// Clone returns a deep copy of r.
func (r *Route) Clone() *Route {
	if r == nil {
		return nil
	}
	c := *r
	c.Path = append([]string(nil), r.Path...)
	return &c
}

// RouteOption summarizes a candidate target for a worker without committing a route.
type RouteOption struct {
	TargetID           string        `json:"target_id"`
	Score              float64       `json:"score"`
	Reason             string        `json:"reason"`
	EstimatedTime      time.Duration `json:"estimated_time"`
	SuccessProbability float64       `json:"success_probability"`
	Depth              int           `json:"depth"`
	Entropy            float64       `json:"entropy"`
}

// RoutePhase is a step of a single routing attempt, recorded in debug logs.
type RoutePhase string

const (
	PhaseRequested RoutePhase = "requested"
	PhaseValidated RoutePhase = "validated"
	PhaseScored    RoutePhase = "scored"
	PhaseAccepted  RoutePhase = "accepted"
	PhaseRejected  RoutePhase = "rejected"
	PhaseCached    RoutePhase = "cached"
)
