package integration

import (
	"math/rand/v2"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dawnworks/tracer/internal/config"
	"github.com/dawnworks/tracer/internal/event"
	"github.com/dawnworks/tracer/internal/genealogy"
	"github.com/dawnworks/tracer/internal/logging"
	"github.com/dawnworks/tracer/internal/registry"
	"github.com/dawnworks/tracer/internal/routecache"
	"github.com/dawnworks/tracer/internal/router"
	"github.com/dawnworks/tracer/internal/scoring"
	"github.com/dawnworks/tracer/internal/stats"
)

// Engine is the process-wide context: every shared component is built once
// here and handed to collaborators by reference.
type Engine struct {
	Config   *config.Config
	Bus      *event.Bus
	Logger   *logging.Logger
	Stats    *stats.Collector
	Registry *registry.Registry
	Cache    *routecache.Cache
	Router   *router.Router
	Tree     *genealogy.Tree

	now func() time.Time
}

// EngineOption configures NewEngine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	logger  *logging.Logger
	now     func() time.Time
	rng     *rand.Rand
	metrics *prometheus.Registry
}

// WithEngineLogger sets the root logger.
func WithEngineLogger(logger *logging.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEngineClock replaces time.Now in every component.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(o *engineOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithEngineRand sets the random source for jitter and generated targets.
func WithEngineRand(rng *rand.Rand) EngineOption {
	return func(o *engineOptions) {
		if rng != nil {
			o.rng = rng
		}
	}
}

// WithMetricsRegistry registers engine metrics on reg.
func WithMetricsRegistry(reg *prometheus.Registry) EngineOption {
	return func(o *engineOptions) {
		o.metrics = reg
	}
}

// NewEngine wires every component from cfg. A nil cfg uses config.Default().
func NewEngine(cfg *config.Config, opts ...EngineOption) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	o := &engineOptions{
		logger: logging.NopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(uint64(o.now().UnixNano()), rand.Uint64()))
	}

	bus := event.NewBus(event.WithBusLogger(o.logger.WithComponent("event")))

	statOpts := []stats.Option{stats.WithLogger(o.logger.WithComponent("stats"))}
	if o.metrics != nil {
		statOpts = append(statOpts, stats.WithRegistry(o.metrics))
	}
	collector := stats.NewCollector(statOpts...)

	reg := registry.New(bus, registry.WithClock(o.now))
	cache := routecache.New(
		routecache.WithTTL(cfg.Routing.CacheTTL),
		routecache.WithCleanupThreshold(cfg.Routing.CacheCleanupThreshold),
		routecache.WithClock(o.now),
		routecache.WithLogger(o.logger.WithComponent("routecache")),
	)

	w := cfg.Scoring.Weights
	scorer := scoring.NewEngine(scoring.WithWeights(scoring.Weights{
		Depth:          w.Depth,
		Entropy:        w.Entropy,
		SCUP:           w.SCUP,
		Specialization: w.Specialization,
	}))

	rt := router.New(
		router.WithRegistry(reg),
		router.WithCache(cache),
		router.WithScorer(scorer),
		router.WithStats(collector),
		router.WithBus(bus),
		router.WithLogger(o.logger),
		router.WithClock(o.now),
		router.WithRand(o.rng),
		router.WithMinScore(cfg.Routing.MinScore),
		router.WithJitter(cfg.Routing.Jitter),
		router.WithHistoryLimit(cfg.Routing.HistoryLimit),
	)

	tree := genealogy.NewTree(bus,
		genealogy.WithClock(o.now),
		genealogy.WithLogger(o.logger.WithComponent("genealogy")),
	)

	return &Engine{
		Config:   cfg,
		Bus:      bus,
		Logger:   o.logger,
		Stats:    collector,
		Registry: reg,
		Cache:    cache,
		Router:   rt,
		Tree:     tree,
		now:      o.now,
	}
}
