package integration

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dawnworks/tracer/internal/errors"
	"github.com/dawnworks/tracer/internal/router"
	"github.com/dawnworks/tracer/internal/scoring"
	"github.com/dawnworks/tracer/internal/tracer"
)

// Defaults for family queries.
const (
	DefaultMaxSuggestions  = 3
	DefaultPredictionFloor = 0.6
	predictionScanLimit    = 20
)

// clusterSCUPBands bound the SCUP of placeholder targets created for family
// members the registry does not know.
var clusterSCUPBands = router.SCUPBands{
	Schema:    tracer.Range{Min: 0.3, Max: 0.8},
	Coherence: tracer.Range{Min: 0.4, Max: 0.9},
	Utility:   tracer.Range{Min: 0.3, Max: 0.8},
	Pressure:  tracer.Range{Min: 0.2, Max: 0.7},
}

// WorkerSuggestion ranks a worker for analyzing a whole family.
type WorkerSuggestion struct {
	Worker            tracer.WorkerType `json:"tracer_type"`
	MatchScore        float64           `json:"family_match_score"`
	Reason            string            `json:"suggestion_reason"`
	FamilyDepth       int               `json:"family_depth"`
	FamilySize        int               `json:"family_size"`
	AverageEntropy    float64           `json:"average_entropy"`
	EstimatedCoverage float64           `json:"estimated_coverage"`
}

// SuggestWorkersForFamily ranks workers for the family of rootID. The family
// depth is the length of the node's ancestry, its size the number of
// descendants, and its entropy the mean cumulative drift over the entropy
// evolution of every member (0.5 when there is none). Only workers scoring
// above scoring.FamilyMatchFloor are returned, best first.
func (o *Orchestrator) SuggestWorkersForFamily(rootID string, limit int) ([]WorkerSuggestion, error) {
	if limit <= 0 {
		limit = DefaultMaxSuggestions
	}
	ancestry, descendants, ok := o.lineage(rootID)
	if !ok {
		return nil, errors.NewNotFoundError("genealogy node", rootID).WithCause(errors.ErrNodeNotFound)
	}

	depth := len(ancestry)
	size := len(descendants)
	avgEntropy := o.familyEntropy(rootID, ancestry, descendants)

	var out []WorkerSuggestion
	for _, profile := range tracer.Profiles() {
		score := scoring.FamilyMatch(profile, depth, size, avgEntropy)
		if score <= scoring.FamilyMatchFloor {
			continue
		}
		out = append(out, WorkerSuggestion{
			Worker:            profile.Type,
			MatchScore:        score,
			Reason:            suggestionReason(profile.Type, depth, size, avgEntropy),
			FamilyDepth:       depth,
			FamilySize:        size,
			AverageEntropy:    avgEntropy,
			EstimatedCoverage: min(1, score*1.2),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	if len(out) > limit {
		out = out[:limit]
	}

	o.logger.Debug("family suggestions", "root", rootID, "depth", depth, "size", size,
		"avg_entropy", avgEntropy, "count", len(out))
	return out, nil
}

func (o *Orchestrator) familyEntropy(id string, ancestry, descendants []string) float64 {
	members := make([]string, 0, len(ancestry)+len(descendants)+1)
	members = append(members, ancestry...)
	members = append(members, descendants...)
	members = append(members, id)

	var sum float64
	var n int
	for _, m := range members {
		points, err := o.engine.Tree.EntropyEvolution(m)
		if err != nil {
			continue
		}
		for _, p := range points {
			sum += p.Cumulative
			n++
		}
	}
	if n == 0 {
		return 0.5
	}
	return sum / float64(n)
}

func suggestionReason(w tracer.WorkerType, depth, size int, avgEntropy float64) string {
	switch w {
	case tracer.Owl:
		return fmt.Sprintf("Deep pattern analysis ideal for family depth %d with moderate complexity", depth)
	case tracer.Crow:
		if size < 5 {
			return fmt.Sprintf("Small family structure (%d members) suitable for vulnerability analysis", size)
		}
		return fmt.Sprintf("Opportunistic analysis potential in %d-member family", size)
	case tracer.Spider:
		return fmt.Sprintf("Bridge construction optimal for %d-member interconnected family", size)
	case tracer.Whale:
		return fmt.Sprintf("High-capacity processing required for large family (%d members, entropy %.2f)", size, avgEntropy)
	}
	return "Specialized analysis for family characteristics"
}

// RouteToFamilyCluster routes worker to every member of the family around
// rootID: its ancestry (oldest first), the node itself and its descendants.
// Members missing from the registry are registered with attributes derived
// from their genealogy depth. Only accepted routes are returned.
func (o *Orchestrator) RouteToFamilyCluster(ctx context.Context, worker tracer.WorkerType, rootID string) ([]tracer.Route, error) {
	if _, ok := tracer.ParseWorkerType(string(worker)); !ok {
		return nil, errors.NewRoutingError("cannot route cluster", errors.ErrUnknownWorkerType).
			WithWorker(string(worker)).
			WithTarget(rootID)
	}
	rootID = tracer.NormalizeID(rootID)

	ancestry, descendants, ok := o.lineage(rootID)
	if !ok && !o.engine.Registry.Has(rootID) {
		return nil, errors.NewNotFoundError("genealogy node", rootID).WithCause(errors.ErrNodeNotFound)
	}
	members := make([]string, 0, len(ancestry)+len(descendants)+1)
	members = append(members, ancestry...)
	members = append(members, rootID)
	members = append(members, descendants...)

	log := o.logger.WithWorker(string(worker))
	var routes []tracer.Route
	for _, id := range members {
		if err := ctx.Err(); err != nil {
			return routes, errors.NewRoutingError("cluster routing canceled", errors.Join(errors.ErrCanceled, err)).
				WithWorker(string(worker)).
				WithTarget(id)
		}
		if !o.engine.Registry.Has(id) {
			if err := o.registerFromGenealogy(id); err != nil {
				return routes, err
			}
		}

		route, err := o.engine.Router.Route(ctx, worker, id)
		if err != nil {
			return routes, err
		}
		if route != nil {
			routes = append(routes, *route)
		}
	}

	o.engine.Stats.RecordGenealogyMatches(len(routes))
	log.Info("cluster routed", "root", rootID, "members", len(members), "accepted", len(routes))
	return routes, nil
}

func (o *Orchestrator) registerFromGenealogy(id string) error {
	depth, err := o.engine.Tree.Depth(id)
	if err != nil {
		depth = 0
	}
	d := float64(depth)
	s := o.engine.Router.RandomSCUP(clusterSCUPBands)

	in := router.NewTargetInput(id, depth)
	in.Entropy = min(0.9, 0.3+0.1*d)
	in.Complexity = min(0.8, 0.4+0.08*d)
	in.SCUP = &s
	in.Status = tracer.StatusStable

	if _, err := o.engine.Router.AddTarget(in); err != nil {
		return err
	}
	o.logger.WithTarget(id).Debug("registered placeholder target", "depth", depth)
	return nil
}

// Prediction ranks a target by its rebloom potential for a worker.
type Prediction struct {
	TargetID          string            `json:"target_bloom_id"`
	Worker            tracer.WorkerType `json:"tracer_type"`
	OptimizationScore float64           `json:"optimization_score"`
	RouteScore        float64           `json:"route_score"`
	GenealogyDepth    int               `json:"genealogy_depth"`
	FamilySize        int               `json:"family_size"`
	Reason            string            `json:"prediction_reason"`
	EstimatedImpact   float64           `json:"estimated_impact"`
}

// PredictOptimalTargets scores the best available routes of worker for
// rebloom potential and returns those at or above minScore, best first.
func (o *Orchestrator) PredictOptimalTargets(worker tracer.WorkerType, minScore float64) ([]Prediction, error) {
	options, err := o.engine.Router.AvailableRoutes(worker, predictionScanLimit)
	if err != nil {
		return nil, err
	}
	w, _ := tracer.ParseWorkerType(string(worker))

	tree := o.engine.Tree
	var out []Prediction
	for _, opt := range options {
		var depth, descendants, siblings int
		if tree.Has(opt.TargetID) {
			depth, _ = tree.Depth(opt.TargetID)
			if d, err := tree.Descendants(opt.TargetID); err == nil {
				descendants = len(d)
			}
			if s, err := tree.Siblings(opt.TargetID); err == nil {
				siblings = len(s)
			}
		}

		potential := rebloomPotential(opt, depth, descendants, siblings)
		if potential < minScore {
			continue
		}
		out = append(out, Prediction{
			TargetID:          opt.TargetID,
			Worker:            w,
			OptimizationScore: potential,
			RouteScore:        opt.Score,
			GenealogyDepth:    depth,
			FamilySize:        descendants,
			Reason:            predictionReason(w, opt.TargetID, opt.Score, potential),
			EstimatedImpact:   min(1, potential*1.3),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OptimizationScore != out[j].OptimizationScore {
			return out[i].OptimizationScore > out[j].OptimizationScore
		}
		return out[i].TargetID < out[j].TargetID
	})

	o.engine.Stats.RecordSuggestions(len(out))
	o.logger.WithWorker(string(w)).Debug("rebloom predictions", "scanned", len(options), "predicted", len(out))
	return out, nil
}

func rebloomPotential(opt tracer.RouteOption, depth, descendants, siblings int) float64 {
	var depthBonus float64
	if depth >= 2 && depth <= 6 {
		depthBonus = 0.2
	} else {
		diff := depth - 4
		if diff < 0 {
			diff = -diff
		}
		depthBonus = max(0, 0.2-0.05*float64(diff))
	}

	var familyBonus float64
	if descendants > 0 {
		familyBonus += 0.1
	}
	if siblings > 2 {
		familyBonus += 0.1
	}

	return min(1, opt.Score+depthBonus+familyBonus+opt.SuccessProbability*0.2)
}

func predictionReason(w tracer.WorkerType, id string, routeScore, potential float64) string {
	name := string(w)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return fmt.Sprintf("%s tracer shows %.1f%% optimization potential for %s based on route score %.2f and genealogical context",
		name, potential*100, id, routeScore)
}
