// Package scoring computes worker-to-target affinity.
//
// Every function here is pure: it reads a profile and a target and returns a
// number, so an Engine may be shared freely across goroutines.
package scoring

import (
	"math"

	"github.com/dawnworks/tracer/internal/tracer"
)

// Weights are the coefficients of the four score components.
type Weights struct {
	Depth          float64
	Entropy        float64
	SCUP           float64
	Specialization float64
}

// DefaultWeights returns the 0.3/0.3/0.2/0.2 weighting.
func DefaultWeights() Weights {
	return Weights{Depth: 0.3, Entropy: 0.3, SCUP: 0.2, Specialization: 0.2}
}

// Breakdown exposes every component of a score.
type Breakdown struct {
	Depth          float64 `json:"depth"`
	Entropy        float64 `json:"entropy"`
	SCUP           float64 `json:"scup"`
	Specialization float64 `json:"specialization"`
	Total          float64 `json:"total"`
}

// Engine scores targets against worker profiles.
type Engine struct {
	weights Weights
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeights overrides the default component weights. Negative weights are clamped to zero.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.weights = Weights{
			Depth:          math.Max(0, w.Depth),
			Entropy:        math.Max(0, w.Entropy),
			SCUP:           math.Max(0, w.SCUP),
			Specialization: math.Max(0, w.Specialization),
		}
	}
}

// NewEngine creates a scoring Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Weights returns the active weighting.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Score returns the affinity of profile for target in [0,1].
func (e *Engine) Score(profile tracer.WorkerProfile, target tracer.Target) float64 {
	return e.Breakdown(profile, target).Total
}

// Breakdown returns the individual score components and their weighted total.
func (e *Engine) Breakdown(profile tracer.WorkerProfile, target tracer.Target) Breakdown {
	b := Breakdown{
		Depth:          DepthScore(profile.DepthRange, target.Depth),
		Entropy:        EntropyScore(profile.EntropyRange, target.Entropy),
		SCUP:           FocusScore(profile.FocusDims, target.SCUP),
		Specialization: SpecializationBonus(profile.Type, target),
	}
	w := e.weights
	b.Total = clamp01(w.Depth*b.Depth + w.Entropy*b.Entropy + w.SCUP*b.SCUP + w.Specialization*b.Specialization)
	return b
}

// DepthScore is 1 inside the preferred range and decays by 0.2 per unit of distance outside it.
func DepthScore(r tracer.Range, depth int) float64 {
	d := r.Distance(float64(depth))
	if d == 0 {
		return 1
	}
	return math.Max(0, 1-0.2*d)
}

// EntropyScore is 1 inside the affinity band. Below the band it is entropy/min,
// above it max/entropy.
func EntropyScore(r tracer.Range, entropy float64) float64 {
	switch {
	case r.Contains(entropy):
		return 1
	case entropy < r.Min:
		if r.Min <= 0 {
			return 0
		}
		return math.Max(0, entropy/r.Min)
	default:
		if entropy <= 0 {
			return 0
		}
		return math.Max(0, r.Max/entropy)
	}
}

// FocusScore is the mean of the focused SCUP dimensions, or 0.5 when none resolve.
func FocusScore(dims []tracer.Dimension, scup tracer.SCUP) float64 {
	var sum float64
	var n int
	for _, d := range dims {
		if v, ok := scup.Get(d); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0.5
	}
	return sum / float64(n)
}

// SpecializationBonus evaluates the per-worker specialization rules, capped at 1.
func SpecializationBonus(w tracer.WorkerType, t tracer.Target) float64 {
	var bonus float64
	switch w {
	case tracer.Owl:
		if t.Status == tracer.StatusReblooming || t.Status == tracer.StatusEvolving {
			bonus += 0.2
		}
		if t.Entropy >= 0.4 && t.Entropy <= 0.7 {
			bonus += 0.1
		}
	case tracer.Crow:
		if t.SCUP.Utility < 0.3 && t.SCUP.Pressure > 0.8 {
			bonus += 0.3
		} else if t.Status == tracer.StatusFragmenting {
			bonus += 0.2
		}
	case tracer.Spider:
		if t.TokenDensity > 0.6 {
			bonus += 0.25
		}
		if t.Complexity > 0.5 {
			bonus += 0.1
		}
	case tracer.Whale:
		if t.Entropy > 0.6 && t.Complexity > 0.7 {
			bonus += 0.4
		}
		if t.TokenDensity > 0.8 {
			bonus += 0.1
		}
	}
	return math.Min(1, bonus)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
