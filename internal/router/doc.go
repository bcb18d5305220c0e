// Package router answers "where should worker X go".
//
// A [Router] ties together the target registry, the scoring engine and the
// route cache. A routing attempt moves through the phases requested,
// validated, scored and then accepted or rejected; accepted routes are cached
// and recorded in the route history. A score below the configured floor is a
// soft outcome: [Router.Route] returns a nil route and a nil error.
//
// # Architecture
//
//	AddTarget ──► registry.Registry ──WatchChanges──► routecache.Cache.Invalidate
//	                    │
//	Route ──────────────┴──► scoring.Engine ──► path/estimates ──► cache, history, stats
//
// Unknown worker types and unknown targets are returned as typed errors from
// internal/errors. Statistics, events and logging never fail a routing call.
//
// # Thread Safety
//
// Router is safe for concurrent use. Targets are copied out of the registry
// before scoring, so no lock is held while a score is computed.
package router
