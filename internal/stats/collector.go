// Package stats aggregates routing and integration counters.
//
// A [Collector] keeps in-process counters for snapshots and exports and
// mirrors them into Prometheus collectors. Metric registration problems are
// logged and never surface to callers, so instrumentation cannot fail a
// routing decision.
package stats

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dawnworks/tracer/internal/logging"
	"github.com/dawnworks/tracer/internal/tracer"
)

// RoutingStats are the router counters.
type RoutingStats struct {
	TotalRoutes        int                       `json:"total_routes"`
	SuccessfulRoutes   int                       `json:"successful_routes"`
	RejectedRoutes     int                       `json:"rejected_routes"`
	SuccessRate        float64                   `json:"success_rate"`
	CacheHits          int                       `json:"cache_hits"`
	CacheMisses        int                       `json:"cache_misses"`
	WorkerUsage        map[tracer.WorkerType]int `json:"tracer_usage"`
	AverageRoutingTime time.Duration             `json:"average_routing_time"`
}

// IntegrationStats are the orchestrator counters.
type IntegrationStats struct {
	TotalAnalyses          int     `json:"total_analyses"`
	SuccessfulIntegrations int     `json:"successful_integrations"`
	AnalysisCacheHits      int     `json:"cache_hits"`
	GenealogyMatches       int     `json:"tracer_genealogy_matches"`
	RouteSuggestions       int     `json:"optimal_route_suggestions"`
	IntegrationEfficiency  float64 `json:"integration_efficiency"`
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Routing     RoutingStats     `json:"routing"`
	Integration IntegrationStats `json:"integration"`
}

// Collector accumulates engine statistics.
type Collector struct {
	mu          sync.RWMutex
	routing     RoutingStats
	integration IntegrationStats

	metrics  *metrics
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

// Option configures a Collector.
type Option func(*collectorConfig)

type collectorConfig struct {
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	logger     *logging.Logger
}

// WithRegistry registers metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *collectorConfig) {
		if reg != nil {
			c.registerer = reg
			c.gatherer = reg
		}
	}
}

// WithRegisterer registers metrics on an arbitrary Registerer such as
// prometheus.DefaultRegisterer. Gather is unavailable unless it is also a Gatherer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *collectorConfig) {
		if reg != nil {
			c.registerer = reg
			c.gatherer, _ = reg.(prometheus.Gatherer)
		}
	}
}

// WithLogger sets the logger used for registration failures.
func WithLogger(logger *logging.Logger) Option {
	return func(c *collectorConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCollector creates a Collector. By default metrics live on a private registry.
func NewCollector(opts ...Option) *Collector {
	reg := prometheus.NewRegistry()
	cfg := &collectorConfig{
		registerer: reg,
		gatherer:   reg,
		logger:     logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &Collector{
		routing:  RoutingStats{WorkerUsage: make(map[tracer.WorkerType]int)},
		gatherer: cfg.gatherer,
		logger:   cfg.logger,
	}
	c.metrics = newMetrics(cfg.registerer, cfg.logger)
	return c
}

// RecordRoute records a scored routing attempt.
func (c *Collector) RecordRoute(worker tracer.WorkerType, accepted bool, latency time.Duration) {
	c.mu.Lock()
	c.routing.TotalRoutes++
	if accepted {
		c.routing.SuccessfulRoutes++
	} else {
		c.routing.RejectedRoutes++
	}
	c.routing.WorkerUsage[worker]++
	n := time.Duration(c.routing.TotalRoutes)
	c.routing.AverageRoutingTime = (c.routing.AverageRoutingTime*(n-1) + latency) / n
	c.mu.Unlock()

	c.metrics.observeRoute(worker, accepted, latency)
}

// RecordCacheHit records a route served from cache.
func (c *Collector) RecordCacheHit(worker tracer.WorkerType) {
	c.mu.Lock()
	c.routing.CacheHits++
	c.mu.Unlock()
	c.metrics.cache.WithLabelValues(string(worker), "hit").Inc()
}

// RecordCacheMiss records a cache lookup that required scoring.
func (c *Collector) RecordCacheMiss(worker tracer.WorkerType) {
	c.mu.Lock()
	c.routing.CacheMisses++
	c.mu.Unlock()
	c.metrics.cache.WithLabelValues(string(worker), "miss").Inc()
}

// RecordAnalysis records a completed integration analysis.
func (c *Collector) RecordAnalysis(success bool) {
	c.mu.Lock()
	c.integration.TotalAnalyses++
	if success {
		c.integration.SuccessfulIntegrations++
	}
	c.mu.Unlock()

	outcome := "rejected"
	if success {
		outcome = "success"
	}
	c.metrics.analyses.WithLabelValues(outcome).Inc()
}

// RecordAnalysisCacheHit records an analysis served from cache.
func (c *Collector) RecordAnalysisCacheHit() {
	c.mu.Lock()
	c.integration.AnalysisCacheHits++
	c.mu.Unlock()
	c.metrics.analyses.WithLabelValues("cached").Inc()
}

// RecordGenealogyMatches records routes accepted during family cluster routing.
func (c *Collector) RecordGenealogyMatches(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	c.integration.GenealogyMatches += n
	c.mu.Unlock()
	c.metrics.clusterMatches.Add(float64(n))
}

// RecordSuggestions records rebloom target predictions handed out.
func (c *Collector) RecordSuggestions(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	c.integration.RouteSuggestions += n
	c.mu.Unlock()
	c.metrics.suggestions.Add(float64(n))
}

// Snapshot returns a copy of all counters with derived rates filled in.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r := c.routing
	r.WorkerUsage = make(map[tracer.WorkerType]int, len(c.routing.WorkerUsage))
	for _, w := range tracer.WorkerTypes() {
		r.WorkerUsage[w] = 0
	}
	for w, n := range c.routing.WorkerUsage {
		r.WorkerUsage[w] = n
	}
	if r.TotalRoutes > 0 {
		r.SuccessRate = float64(r.SuccessfulRoutes) / float64(r.TotalRoutes)
	}

	in := c.integration
	if in.TotalAnalyses > 0 {
		in.IntegrationEfficiency = float64(in.SuccessfulIntegrations) / float64(in.TotalAnalyses)
	}
	return Snapshot{Routing: r, Integration: in}
}

// Gatherer exposes the Prometheus registry backing this collector, or nil
// when metrics were registered on a Registerer that cannot gather.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.gatherer
}
