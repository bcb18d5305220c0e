package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dawnworks/tracer/internal/logging"
	"github.com/dawnworks/tracer/internal/tracer"
)

const namespace = "tracer"

type metrics struct {
	routes         *prometheus.CounterVec
	routeDuration  *prometheus.HistogramVec
	cache          *prometheus.CounterVec
	analyses       *prometheus.CounterVec
	clusterMatches prometheus.Counter
	suggestions    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer, logger *logging.Logger) *metrics {
	m := &metrics{
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_total",
			Help:      "Scored routing attempts by worker and outcome.",
		}, []string{"worker", "outcome"}),
		routeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "routing_duration_seconds",
			Help:      "Time spent scoring and building a route.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 12), // 10us to ~20ms
		}, []string{"worker"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_cache_lookups_total",
			Help:      "Route cache lookups by worker and result.",
		}, []string{"worker", "result"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Genealogy-aware analyses by outcome.",
		}, []string{"outcome"}),
		clusterMatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cluster_matches_total",
			Help:      "Routes accepted while routing to family clusters.",
		}),
		suggestions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebloom_suggestions_total",
			Help:      "Rebloom target predictions returned.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.routes, m.routeDuration, m.cache, m.analyses, m.clusterMatches, m.suggestions,
	} {
		if err := reg.Register(c); err != nil {
			logger.Warn("metric registration failed", "error", err.Error())
		}
	}
	return m
}

func (m *metrics) observeRoute(worker tracer.WorkerType, accepted bool, latency time.Duration) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.routes.WithLabelValues(string(worker), outcome).Inc()
	m.routeDuration.WithLabelValues(string(worker)).Observe(latency.Seconds())
}
