package router

import (
	"sort"

	"github.com/dawnworks/tracer/internal/routecache"
	"github.com/dawnworks/tracer/internal/stats"
	"github.com/dawnworks/tracer/internal/tracer"
)

// History returns up to limit of the most recently accepted routes, oldest
// first. An empty worker returns routes of every worker. A non-positive limit
// uses DefaultHistoryQuery. Cache hits are not part of the history.
func (r *Router) History(worker tracer.WorkerType, limit int) []tracer.Route {
	if limit <= 0 {
		limit = DefaultHistoryQuery
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []tracer.Route
	for _, route := range r.history {
		if worker == "" || route.Worker == worker {
			matched = append(matched, route)
		}
	}
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}

	out := make([]tracer.Route, len(matched))
	for i := range matched {
		out[i] = *matched[i].Clone()
	}
	return out
}

// ActiveRoutes returns the latest accepted route of every worker/target pair,
// sorted by worker then target id.
func (r *Router) ActiveRoutes() []tracer.Route {
	r.mu.RLock()
	out := make([]tracer.Route, 0, len(r.active))
	for _, route := range r.active {
		out = append(out, *route.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Worker != out[j].Worker {
			return out[i].Worker < out[j].Worker
		}
		return out[i].TargetID < out[j].TargetID
	})
	return out
}

// ClearActiveRoutes forgets every active route. The cache and history are untouched.
func (r *Router) ClearActiveRoutes() {
	r.mu.Lock()
	r.active = make(map[routecache.Key]tracer.Route)
	r.mu.Unlock()
	r.logger.Info("cleared active routes")
}

// Statistics is the router's aggregate state.
type Statistics struct {
	stats.RoutingStats
	ActiveRoutes int `json:"active_routes"`
	CachedRoutes int `json:"cached_routes"`
	Targets      int `json:"bloom_targets"`
}

// Statistics returns counters plus current active, cached and target counts.
func (r *Router) Statistics() Statistics {
	r.mu.RLock()
	active := len(r.active)
	r.mu.RUnlock()

	return Statistics{
		RoutingStats: r.stats.Snapshot().Routing,
		ActiveRoutes: active,
		CachedRoutes: r.cache.Len(),
		Targets:      r.registry.Len(),
	}
}
