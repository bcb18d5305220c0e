// Package scenario seeds an engine from a YAML scenario file and keeps it in
// sync while the file changes.
//
// A scenario lists routing targets and rebloom events:
//
//	targets:
//	  - id: bloom_001
//	    depth: 0
//	    entropy: 0.5
//	    complexity: 0.6
//	    scup: {schema: 0.6, coherence: 0.9, utility: 0.7, pressure: 0.4}
//	reblooms:
//	  - id: bloom_001
//	    entropy_delta: 0.5
//	  - id: bloom_002
//	    parent: bloom_001
//	    entropy_delta: 0.6
//
// Missing entropy, complexity and token density default to 0.5; a missing
// scup block is drawn at random.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dawnworks/tracer/internal/errors"
	"github.com/dawnworks/tracer/internal/event"
	"github.com/dawnworks/tracer/internal/integration"
	"github.com/dawnworks/tracer/internal/router"
	"github.com/dawnworks/tracer/internal/tracer"
)

// Scenario is a decoded scenario file.
type Scenario struct {
	Targets  []TargetEntry  `yaml:"targets"`
	Reblooms []RebloomEntry `yaml:"reblooms"`
}

// TargetEntry is one entry of the targets list.
type TargetEntry struct {
	ID           string       `yaml:"id"`
	Depth        int          `yaml:"depth"`
	Entropy      *float64     `yaml:"entropy,omitempty"`
	Complexity   *float64     `yaml:"complexity,omitempty"`
	SCUP         *tracer.SCUP `yaml:"scup,omitempty"`
	TokenDensity *float64     `yaml:"token_density,omitempty"`
	Status       string       `yaml:"status,omitempty"`
}

// RebloomEntry is one entry of the reblooms list. An empty parent logs a root.
type RebloomEntry struct {
	ID           string  `yaml:"id"`
	Parent       string  `yaml:"parent,omitempty"`
	EntropyDelta float64 `yaml:"entropy_delta"`
}

// Result summarizes one Apply.
type Result struct {
	Path     string
	Targets  int
	Reblooms int
	Skipped  int
}

// Load reads and validates the scenario at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks ids, statuses and duplicate targets. Range checks are left
// to the registry so a scenario and the API reject the same targets.
func (s *Scenario) Validate() error {
	seen := make(map[string]struct{}, len(s.Targets))
	for i, t := range s.Targets {
		id := tracer.NormalizeID(t.ID)
		if id == "" {
			return errors.NewValidationError("target id must not be empty").
				WithField(fmt.Sprintf("targets[%d].id", i))
		}
		if _, dup := seen[id]; dup {
			return errors.NewValidationError("duplicate target").
				WithField(fmt.Sprintf("targets[%d].id", i)).
				WithValue(id)
		}
		seen[id] = struct{}{}
		if _, err := tracer.ParseStatus(t.Status); err != nil {
			return errors.NewValidationError(err.Error()).
				WithField(fmt.Sprintf("targets[%d].status", i)).
				WithValue(t.Status)
		}
	}
	for i, r := range s.Reblooms {
		if tracer.NormalizeID(r.ID) == "" {
			return errors.NewValidationError("rebloom id must not be empty").
				WithField(fmt.Sprintf("reblooms[%d].id", i))
		}
	}
	return nil
}

// Input converts the entry into a router input.
func (t TargetEntry) Input() router.TargetInput {
	in := router.NewTargetInput(tracer.NormalizeID(t.ID), t.Depth)
	if t.Entropy != nil {
		in.Entropy = *t.Entropy
	}
	if t.Complexity != nil {
		in.Complexity = *t.Complexity
	}
	if t.TokenDensity != nil {
		in.TokenDensity = *t.TokenDensity
	}
	if t.SCUP != nil {
		s := *t.SCUP
		in.SCUP = &s
	}
	if st, err := tracer.ParseStatus(t.Status); err == nil {
		in.Status = st
	}
	return in
}

// Apply upserts every target and logs every rebloom into engine. Reblooms
// whose id is already an explicit genealogy node are skipped, so applying the
// same file twice is safe. Apply stops at the first rejected entry and
// publishes a ScenarioAppliedEvent either way.
func Apply(engine *integration.Engine, s *Scenario, path string) (Result, error) {
	res := Result{Path: path}
	err := apply(engine, s, &res)

	log := engine.Logger.WithComponent("scenario")
	if err != nil {
		log.Error("scenario apply failed", "path", path, "error", err.Error())
		engine.Bus.Publish(event.NewScenarioAppliedEvent(path, res.Targets, res.Reblooms, res.Skipped, err.Error()))
		return res, err
	}
	log.Info("scenario applied", "path", path,
		"targets", res.Targets,
		"reblooms", res.Reblooms,
		"skipped", res.Skipped)
	engine.Bus.Publish(event.NewScenarioAppliedEvent(path, res.Targets, res.Reblooms, res.Skipped, ""))
	return res, nil
}

func apply(engine *integration.Engine, s *Scenario, res *Result) error {
	for _, t := range s.Targets {
		if _, err := engine.Router.AddTarget(t.Input()); err != nil {
			return errors.Wrapf(err, "target %s", t.ID)
		}
		res.Targets++
	}

	for _, r := range s.Reblooms {
		if n, err := engine.Tree.Node(tracer.NormalizeID(r.ID)); err == nil && !n.Implicit {
			res.Skipped++
			continue
		}
		if err := engine.Tree.LogEvent(r.ID, r.Parent, r.EntropyDelta); err != nil {
			return errors.Wrapf(err, "rebloom %s", r.ID)
		}
		res.Reblooms++
	}
	return nil
}

// LoadAndApply loads path and applies it to engine.
func LoadAndApply(engine *integration.Engine, path string) (Result, error) {
	s, err := Load(path)
	if err != nil {
		engine.Bus.Publish(event.NewScenarioAppliedEvent(path, 0, 0, 0, err.Error()))
		return Result{Path: path}, err
	}
	return Apply(engine, s, path)
}
