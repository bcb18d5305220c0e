package router

import (
	"sort"

	"github.com/dawnworks/tracer/internal/errors"
	"github.com/dawnworks/tracer/internal/scoring"
	"github.com/dawnworks/tracer/internal/tracer"
)

// AvailableRoutes scores every registered target for worker and returns up
// to limit options at or above the affinity floor, best first. Ties are
// broken by target id. A non-positive limit uses DefaultRoutesLimit.
func (r *Router) AvailableRoutes(worker tracer.WorkerType, limit int) ([]tracer.RouteOption, error) {
	profile, ok := r.profile(worker)
	if !ok {
		return nil, errors.NewRoutingError("cannot list routes", errors.ErrUnknownWorkerType).WithWorker(string(worker))
	}
	return r.options(profile, r.registry.List(), limit), nil
}

// AvailableRoutesMatching is AvailableRoutes restricted to targets whose id
// matches a glob pattern such as "bloom_0*".
func (r *Router) AvailableRoutesMatching(worker tracer.WorkerType, pattern string, limit int) ([]tracer.RouteOption, error) {
	profile, ok := r.profile(worker)
	if !ok {
		return nil, errors.NewRoutingError("cannot list routes", errors.ErrUnknownWorkerType).WithWorker(string(worker))
	}
	ids, err := r.registry.Match(pattern)
	if err != nil {
		return nil, err
	}

	targets := make([]tracer.Target, 0, len(ids))
	for _, id := range ids {
		// A target may disappear between Match and Get.
		if t, ok := r.registry.Get(id); ok {
			targets = append(targets, t)
		}
	}
	return r.options(profile, targets, limit), nil
}

func (r *Router) options(profile tracer.WorkerProfile, targets []tracer.Target, limit int) []tracer.RouteOption {
	if limit <= 0 {
		limit = DefaultRoutesLimit
	}

	opts := make([]tracer.RouteOption, 0, len(targets))
	for _, t := range targets {
		score := r.scorer.Score(profile, t)
		if score < r.minScore {
			continue
		}
		opts = append(opts, tracer.RouteOption{
			TargetID:           t.ID,
			Score:              score,
			Reason:             Reason(profile.Type, t, score),
			EstimatedTime:      r.estimateTime(profile, t, optionPathLength),
			SuccessProbability: successProbability(score),
			Depth:              t.Depth,
			Entropy:            t.Entropy,
		})
	}

	sort.SliceStable(opts, func(i, j int) bool {
		if opts[i].Score != opts[j].Score {
			return opts[i].Score > opts[j].Score
		}
		return opts[i].TargetID < opts[j].TargetID
	})

	r.logger.WithWorker(string(profile.Type)).Debug("listed available routes", "count", len(opts), "limit", limit)
	if len(opts) > limit {
		opts = opts[:limit]
	}
	return opts
}

// Explanation is the full scoring picture of one worker/target pair.
type Explanation struct {
	Worker    tracer.WorkerType `json:"worker"`
	TargetID  string            `json:"target_id"`
	Breakdown scoring.Breakdown `json:"breakdown"`
	Weights   scoring.Weights   `json:"weights"`
	MinScore  float64           `json:"min_score"`
	Accepted  bool              `json:"accepted"`
	Path      []string          `json:"path"`
	Reason    string            `json:"reason"`
}

// Explain scores worker against targetID without caching, recording or
// publishing anything.
func (r *Router) Explain(worker tracer.WorkerType, targetID string) (Explanation, error) {
	profile, target, err := r.resolve(worker, targetID)
	if err != nil {
		return Explanation{}, err
	}

	b := r.scorer.Breakdown(profile, target)
	return Explanation{
		Worker:    profile.Type,
		TargetID:  targetID,
		Breakdown: b,
		Weights:   r.scorer.Weights(),
		MinScore:  r.minScore,
		Accepted:  b.Total >= r.minScore,
		Path:      tracer.BuildPath(profile.StartPathway, target),
		Reason:    Reason(profile.Type, target, b.Total),
	}, nil
}

// Profiles returns the worker profiles known to the router.
func (r *Router) Profiles() []tracer.WorkerProfile {
	return tracer.Profiles()
}

func (r *Router) profile(worker tracer.WorkerType) (tracer.WorkerProfile, bool) {
	w, ok := tracer.ParseWorkerType(string(worker))
	if !ok {
		return tracer.WorkerProfile{}, false
	}
	return tracer.Profile(w)
}
