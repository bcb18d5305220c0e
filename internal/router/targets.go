package router

import (
	"github.com/dawnworks/tracer/internal/tracer"
)

// SCUPBands bounds randomly generated SCUP values.
type SCUPBands struct {
	Schema    tracer.Range
	Coherence tracer.Range
	Utility   tracer.Range
	Pressure  tracer.Range
}

// DefaultSCUPBands are used for targets added without SCUP values.
var DefaultSCUPBands = SCUPBands{
	Schema:    tracer.Range{Min: 0.2, Max: 0.8},
	Coherence: tracer.Range{Min: 0.3, Max: 0.9},
	Utility:   tracer.Range{Min: 0.2, Max: 0.8},
	Pressure:  tracer.Range{Min: 0.1, Max: 0.7},
}

// TargetInput describes a target to register. A nil SCUP is filled with
// random values drawn from DefaultSCUPBands.
type TargetInput struct {
	ID           string
	Depth        int
	Entropy      float64
	Complexity   float64
	SCUP         *tracer.SCUP
	TokenDensity float64
	Status       tracer.Status
}

// NewTargetInput returns an input with the defaults collaborators expect:
// entropy, complexity and token density 0.5 and a stable status.
func NewTargetInput(id string, depth int) TargetInput {
	return TargetInput{
		ID:           id,
		Depth:        depth,
		Entropy:      0.5,
		Complexity:   0.5,
		TokenDensity: 0.5,
		Status:       tracer.StatusStable,
	}
}

// AddTarget registers or replaces a target and drops every cached route
// referencing it. It returns the stored target.
func (r *Router) AddTarget(in TargetInput) (tracer.Target, error) {
	t := tracer.Target{
		ID:           tracer.NormalizeID(in.ID),
		Depth:        in.Depth,
		Entropy:      in.Entropy,
		Complexity:   in.Complexity,
		TokenDensity: in.TokenDensity,
		Status:       in.Status,
	}
	if in.SCUP != nil {
		t.SCUP = *in.SCUP
	} else {
		t.SCUP = r.RandomSCUP(DefaultSCUPBands)
	}

	if err := r.registry.Upsert(t); err != nil {
		return tracer.Target{}, err
	}
	stored, _ := r.registry.Get(t.ID)
	r.logger.WithTarget(t.ID).Debug("target registered", "depth", t.Depth, "entropy", t.Entropy, "status", stored.Status)
	return stored, nil
}

// RemoveTarget unregisters a target and drops its cached routes.
// It reports whether the target existed.
func (r *Router) RemoveTarget(id string) bool {
	return r.registry.Remove(id)
}

// Target returns a registered target.
func (r *Router) Target(id string) (tracer.Target, bool) {
	return r.registry.Get(id)
}

// Targets returns every registered target sorted by id.
func (r *Router) Targets() []tracer.Target {
	return r.registry.List()
}

// RandomSCUP draws each dimension uniformly from its band.
func (r *Router) RandomSCUP(b SCUPBands) tracer.SCUP {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	draw := func(rg tracer.Range) float64 {
		return rg.Min + r.rng.Float64()*(rg.Max-rg.Min)
	}
	return tracer.SCUP{
		Schema:    draw(b.Schema),
		Coherence: draw(b.Coherence),
		Utility:   draw(b.Utility),
		Pressure:  draw(b.Pressure),
	}
}
