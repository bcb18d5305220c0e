package router

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dawnworks/tracer/internal/errors"
	"github.com/dawnworks/tracer/internal/event"
	"github.com/dawnworks/tracer/internal/logging"
	"github.com/dawnworks/tracer/internal/registry"
	"github.com/dawnworks/tracer/internal/routecache"
	"github.com/dawnworks/tracer/internal/scoring"
	"github.com/dawnworks/tracer/internal/stats"
	"github.com/dawnworks/tracer/internal/tracer"
)

// Defaults applied when no option overrides them.
const (
	DefaultMinScore     = 0.3
	DefaultHistoryLimit = 1000
	DefaultRoutesLimit  = 10
	DefaultHistoryQuery = 20

	// optionPathLength is the nominal path length used to estimate time for
	// route options that have not been built yet.
	optionPathLength = 4
)

// Router matches workers to registered targets.
type Router struct {
	registry *registry.Registry
	cache    *routecache.Cache
	scorer   *scoring.Engine
	stats    *stats.Collector
	bus      *event.Bus
	logger   *logging.Logger
	now      func() time.Time

	minScore     float64
	jitter       bool
	historyLimit int

	rngMu sync.Mutex
	rng   *rand.Rand

	mu      sync.RWMutex
	active  map[routecache.Key]tracer.Route
	history []tracer.Route
}

// Option configures a Router.
type Option func(*Router)

// WithRegistry uses an existing target registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(r *Router) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// WithCache uses an existing route cache.
func WithCache(c *routecache.Cache) Option {
	return func(r *Router) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithScorer sets the scoring engine.
func WithScorer(e *scoring.Engine) Option {
	return func(r *Router) {
		if e != nil {
			r.scorer = e
		}
	}
}

// WithStats records routing statistics on c.
func WithStats(c *stats.Collector) Option {
	return func(r *Router) {
		if c != nil {
			r.stats = c
		}
	}
}

// WithBus publishes routing events on bus.
func WithBus(bus *event.Bus) Option {
	return func(r *Router) {
		r.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

// WithMinScore sets the affinity floor for accepted routes.
func WithMinScore(score float64) Option {
	return func(r *Router) {
		if score >= 0 && score <= 1 {
			r.minScore = score
		}
	}
}

// WithJitter toggles the random 0.8-1.2 multiplier on estimated times.
func WithJitter(enabled bool) Option {
	return func(r *Router) {
		r.jitter = enabled
	}
}

// WithRand sets the random source used for jitter and generated SCUP values.
func WithRand(rng *rand.Rand) Option {
	return func(r *Router) {
		if rng != nil {
			r.rng = rng
		}
	}
}

// WithHistoryLimit caps the route history. Zero keeps every route.
func WithHistoryLimit(n int) Option {
	return func(r *Router) {
		if n >= 0 {
			r.historyLimit = n
		}
	}
}

// New creates a Router. Collaborators not supplied through options are
// created with their defaults; the registry is always wired to invalidate the
// route cache when a target changes.
func New(opts ...Option) *Router {
	r := &Router{
		scorer:       scoring.NewEngine(),
		logger:       logging.NopLogger(),
		now:          time.Now,
		minScore:     DefaultMinScore,
		jitter:       true,
		historyLimit: DefaultHistoryLimit,
		active:       make(map[routecache.Key]tracer.Route),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.logger = r.logger.WithComponent("router")
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}
	if r.registry == nil {
		r.registry = registry.New(r.bus, registry.WithClock(r.now))
	}
	if r.cache == nil {
		r.cache = routecache.New(routecache.WithClock(r.now), routecache.WithLogger(r.logger))
	}
	if r.stats == nil {
		r.stats = stats.NewCollector(stats.WithLogger(r.logger))
	}

	r.registry.WatchChanges(func(id string) {
		if n := r.cache.Invalidate(id); n > 0 {
			r.logger.Debug("invalidated cached routes", "target_id", id, "count", n)
		}
	})
	return r
}

// MinScore returns the affinity floor.
func (r *Router) MinScore() float64 {
	return r.minScore
}

// Registry returns the target registry backing the router.
func (r *Router) Registry() *registry.Registry {
	return r.registry
}

// Stats returns the statistics collector.
func (r *Router) Stats() *stats.Collector {
	return r.stats
}

// Route assigns worker to the target with targetID.
//
// It returns a typed error for an unknown worker or target and for a canceled
// context. A score below the affinity floor yields (nil, nil). Routes served
// from cache are identical to the route first computed for the pair.
func (r *Router) Route(ctx context.Context, worker tracer.WorkerType, targetID string) (*tracer.Route, error) {
	start := r.now()
	targetID = tracer.NormalizeID(targetID)
	log := r.logger.WithWorker(string(worker)).WithTarget(targetID)
	log.Debug("routing", "phase", tracer.PhaseRequested)

	// Taken before the target is read so that an upsert racing with scoring
	// keeps the stale route out of the cache.
	gen := r.cache.Generation(targetID)
	profile, target, err := r.resolve(worker, targetID)
	if err != nil {
		return nil, err
	}
	worker = profile.Type
	log.Debug("routing", "phase", tracer.PhaseValidated)

	key := routecache.Key{Worker: worker, TargetID: targetID}
	if cached, ok := r.cache.Get(key); ok {
		r.stats.RecordCacheHit(worker)
		log.Debug("routing", "phase", tracer.PhaseCached, "score", cached.Score)
		r.bus.Publish(event.NewRouteAcceptedEvent(string(worker), targetID, cached.Score, true))
		return cached, nil
	}
	r.stats.RecordCacheMiss(worker)

	if err := ctx.Err(); err != nil {
		return nil, errors.NewRoutingError("routing canceled", errors.Join(errors.ErrCanceled, err)).
			WithWorker(string(worker)).
			WithTarget(targetID)
	}

	score := r.scorer.Score(profile, target)
	log.Debug("routing", "phase", tracer.PhaseScored, "score", score)

	if score < r.minScore {
		r.stats.RecordRoute(worker, false, r.now().Sub(start))
		log.Info("route rejected", "phase", tracer.PhaseRejected, "score", score, "min_score", r.minScore)
		r.bus.Publish(event.NewRouteRejectedEvent(string(worker), targetID, score, r.minScore))
		return nil, nil
	}

	path := tracer.BuildPath(profile.StartPathway, target)
	route := &tracer.Route{
		Worker:             worker,
		TargetID:           targetID,
		Path:               path,
		Score:              score,
		EstimatedTime:      r.estimateTime(profile, target, len(path)),
		ResourceCost:       resourceCost(profile, target),
		SuccessProbability: successProbability(score),
		Reason:             Reason(worker, target, score),
		Timestamp:          r.now(),
	}

	if !r.cache.PutIfGeneration(key, route, gen) {
		log.Debug("target changed while routing, route not cached")
	}
	r.recordAccepted(key, route)
	r.stats.RecordRoute(worker, true, r.now().Sub(start))

	log.Info("route accepted",
		"phase", tracer.PhaseAccepted,
		"score", score,
		"path", route.Path,
		"estimated_time", route.EstimatedTime.String(),
	)
	r.bus.Publish(event.NewRouteAcceptedEvent(string(worker), targetID, score, false))
	return route.Clone(), nil
}

// resolve validates worker and looks up the target.
func (r *Router) resolve(worker tracer.WorkerType, targetID string) (tracer.WorkerProfile, tracer.Target, error) {
	w, ok := tracer.ParseWorkerType(string(worker))
	if !ok {
		return tracer.WorkerProfile{}, tracer.Target{}, errors.NewRoutingError("cannot route", errors.ErrUnknownWorkerType).
			WithWorker(string(worker)).
			WithTarget(targetID)
	}
	profile, _ := tracer.Profile(w)

	target, ok := r.registry.Get(targetID)
	if !ok {
		return tracer.WorkerProfile{}, tracer.Target{}, errors.NewRoutingError("cannot route",
			errors.NewNotFoundError("target", targetID).WithCause(errors.ErrTargetNotFound)).
			WithWorker(string(w)).
			WithTarget(targetID)
	}
	return profile, target, nil
}

func (r *Router) recordAccepted(key routecache.Key, route *tracer.Route) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.active[key] = *route.Clone()
	r.history = append(r.history, *route.Clone())
	if r.historyLimit > 0 && len(r.history) > r.historyLimit {
		drop := len(r.history) - r.historyLimit
		r.history = append([]tracer.Route(nil), r.history[drop:]...)
	}
}

// estimateTime is two seconds per hop scaled by complexity and worker speed,
// multiplied by a 0.8-1.2 jitter when enabled.
func (r *Router) estimateTime(profile tracer.WorkerProfile, target tracer.Target, pathLen int) time.Duration {
	seconds := float64(pathLen) * 2.0 * (1 + target.Complexity) / profile.AnalysisSpeed
	if r.jitter {
		seconds *= r.uniform(0.8, 1.2)
	}
	return time.Duration(seconds * float64(time.Second))
}

func (r *Router) uniform(lo, hi float64) float64 {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return lo + r.rng.Float64()*(hi-lo)
}

func resourceCost(profile tracer.WorkerProfile, target tracer.Target) float64 {
	return min(1.0, (target.Complexity*0.5+target.Entropy*0.3)/profile.ResourceEfficiency)
}

func successProbability(score float64) float64 {
	return min(score*1.2, 1.0)
}
