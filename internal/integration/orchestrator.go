package integration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dawnworks/tracer/internal/errors"
	"github.com/dawnworks/tracer/internal/event"
	"github.com/dawnworks/tracer/internal/genealogy"
	"github.com/dawnworks/tracer/internal/logging"
	"github.com/dawnworks/tracer/internal/router"
	"github.com/dawnworks/tracer/internal/stats"
	"github.com/dawnworks/tracer/internal/tracer"
)

type analysisKey struct {
	worker        tracer.WorkerType
	targetID      string
	includeFamily bool
}

// Orchestrator combines routing with genealogy queries.
type Orchestrator struct {
	engine *Engine
	logger *logging.Logger
	now    func() time.Time
	newID  func() string

	cacheTTL      time.Duration
	historyLimit  int
	exportHistory int
	exportDir     string

	mu      sync.RWMutex
	cache   map[analysisKey]*Analysis
	gens    map[string]uint64 // per-target invalidation count
	epoch   uint64            // bumped by every genealogy change
	history []*Analysis
	subs    []string
}

// generation identifies the state an analysis was computed from.
type generation struct {
	target uint64
	epoch  uint64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithIDGenerator replaces uuid.NewString for analysis ids.
func WithIDGenerator(gen func() string) Option {
	return func(o *Orchestrator) {
		if gen != nil {
			o.newID = gen
		}
	}
}

// WithExportDir sets the directory used by Export for generated file names.
func WithExportDir(dir string) Option {
	return func(o *Orchestrator) {
		o.exportDir = dir
	}
}

// New creates an Orchestrator over engine and subscribes it to the target
// and genealogy events that invalidate cached analyses. Call Close to
// unsubscribe.
func New(engine *Engine, opts ...Option) *Orchestrator {
	cfg := engine.Config
	o := &Orchestrator{
		engine:        engine,
		logger:        engine.Logger.WithComponent("integration"),
		now:           engine.now,
		newID:         uuid.NewString,
		cacheTTL:      engine.Cache.TTL(),
		historyLimit:  cfg.Integration.HistoryLimit,
		exportHistory: cfg.Integration.ExportHistory,
		exportDir:     cfg.Export.Dir,
		cache:         make(map[analysisKey]*Analysis),
		gens:          make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(o)
	}

	bus := engine.Bus
	o.subs = []string{
		bus.Subscribe(event.TypeTargetUpserted, func(e event.Event) {
			o.invalidateTarget(e.(event.TargetUpsertedEvent).TargetID)
		}),
		bus.Subscribe(event.TypeTargetRemoved, func(e event.Event) {
			o.invalidateTarget(e.(event.TargetRemovedEvent).TargetID)
		}),
		bus.Subscribe(event.TypeRebloomLogged, func(event.Event) {
			o.invalidateAll()
		}),
	}
	return o
}

// Close detaches the orchestrator from the event bus.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	subs := o.subs
	o.subs = nil
	o.mu.Unlock()

	for _, id := range subs {
		o.engine.Bus.Unsubscribe(id)
	}
}

// Engine returns the engine the orchestrator runs on.
func (o *Orchestrator) Engine() *Engine {
	return o.engine
}

// AnalyzeWithRouting routes worker to targetID and, when the route is
// accepted, explains it against the target's genealogy. A rejected route
// yields (nil, nil). Validation failures from the router are returned as is.
func (o *Orchestrator) AnalyzeWithRouting(ctx context.Context, worker tracer.WorkerType, targetID string, includeFamily bool) (*Analysis, error) {
	if w, ok := tracer.ParseWorkerType(string(worker)); ok {
		worker = w
	}
	targetID = tracer.NormalizeID(targetID)
	key := analysisKey{worker: worker, targetID: targetID, includeFamily: includeFamily}
	if a, ok := o.cached(key); ok {
		o.engine.Stats.RecordAnalysisCacheHit()
		o.engine.Bus.Publish(event.NewAnalysisCompletedEvent(a.ID, string(worker), targetID, a.Route.Score, true))
		return a, nil
	}

	gen := o.generation(targetID)
	route, err := o.engine.Router.Route(ctx, worker, targetID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		o.engine.Stats.RecordAnalysis(false)
		o.logger.WithWorker(string(worker)).WithTarget(targetID).Info("analysis skipped, route rejected")
		return nil, nil
	}

	lineage := o.genealogyAnalysis(targetID, includeFamily)
	family := o.familyContext(targetID, route.Worker)
	a := &Analysis{
		ID:              o.newID(),
		Route:           *route,
		Genealogy:       lineage,
		Family:          family,
		Insights:        insights(route, lineage, family),
		Recommendations: recommendations(lineage, family),
		Timestamp:       o.now(),
	}

	o.store(key, a, gen)
	o.engine.Stats.RecordAnalysis(true)
	o.logger.WithWorker(string(worker)).WithTarget(targetID).Info("analysis complete",
		"analysis_id", a.ID,
		"depth", lineage.Depth,
		"score", route.Score,
		"insights", len(a.Insights),
	)
	o.engine.Bus.Publish(event.NewAnalysisCompletedEvent(a.ID, string(worker), targetID, route.Score, false))
	return a.clone(), nil
}

// LogRebloom records a rebloom in the genealogy tree.
func (o *Orchestrator) LogRebloom(id, parentID string, entropyDelta float64) error {
	return o.engine.Tree.LogEvent(id, parentID, entropyDelta)
}

// AddTarget registers or replaces a routing target.
func (o *Orchestrator) AddTarget(in router.TargetInput) (tracer.Target, error) {
	return o.engine.Router.AddTarget(in)
}

// History returns up to limit of the most recent analyses, oldest first.
// A non-positive limit returns all of them.
func (o *Orchestrator) History(limit int) []*Analysis {
	o.mu.RLock()
	defer o.mu.RUnlock()

	h := o.history
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	out := make([]*Analysis, len(h))
	for i, a := range h {
		out[i] = a.clone()
	}
	return out
}

// Statistics aggregates integration, routing and genealogy statistics.
type Statistics struct {
	stats.IntegrationStats
	CachedAnalyses int                  `json:"cached_analyses"`
	HistoryLength  int                  `json:"history_length"`
	Router         router.Statistics    `json:"tracer_router_stats"`
	Genealogy      genealogy.Statistics `json:"rebloom_tracker_stats"`
}

// Statistics returns a snapshot of every counter.
func (o *Orchestrator) Statistics() Statistics {
	o.mu.RLock()
	cached, history := len(o.cache), len(o.history)
	o.mu.RUnlock()

	return Statistics{
		IntegrationStats: o.engine.Stats.Snapshot().Integration,
		CachedAnalyses:   cached,
		HistoryLength:    history,
		Router:           o.engine.Router.Statistics(),
		Genealogy:        o.engine.Tree.Statistics(),
	}
}

func (o *Orchestrator) cached(key analysisKey) (*Analysis, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, ok := o.cache[key]
	if !ok {
		return nil, false
	}
	if o.now().Sub(a.Timestamp) >= o.cacheTTL {
		delete(o.cache, key)
		return nil, false
	}
	return a.clone(), true
}

func (o *Orchestrator) generation(targetID string) generation {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return generation{target: o.gens[targetID], epoch: o.epoch}
}

// store records a in the history and caches it unless the target or the
// genealogy changed after gen was taken.
func (o *Orchestrator) store(key analysisKey, a *Analysis, gen generation) {
	o.mu.Lock()
	fresh := o.gens[key.targetID] == gen.target && o.epoch == gen.epoch
	if fresh {
		o.cache[key] = a
	}
	o.history = append(o.history, a)
	if o.historyLimit > 0 && len(o.history) > o.historyLimit {
		drop := len(o.history) - o.historyLimit
		o.history = append([]*Analysis(nil), o.history[drop:]...)
	}
	o.mu.Unlock()

	if !fresh {
		o.logger.WithTarget(key.targetID).Debug("target changed during analysis, result not cached")
	}
}

func (o *Orchestrator) invalidateTarget(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gens[id]++
	for key := range o.cache {
		if key.targetID == id {
			delete(o.cache, key)
		}
	}
}

func (o *Orchestrator) invalidateAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.epoch++
	if len(o.cache) > 0 {
		o.cache = make(map[analysisKey]*Analysis)
	}
}

// lineage returns the ancestry and descendants of id, or ok=false when id is
// not part of the genealogy.
func (o *Orchestrator) lineage(id string) (ancestry, descendants []string, ok bool) {
	tree := o.engine.Tree
	anc, err := tree.AncestryChain(id)
	if err != nil {
		if !errors.Is(err, errors.ErrNodeNotFound) {
			o.logger.Warn("genealogy lookup failed", "node_id", id, "error", err.Error())
		}
		return nil, nil, false
	}
	desc, err := tree.Descendants(id)
	if err != nil {
		return anc, nil, true
	}
	return anc, desc, true
}
