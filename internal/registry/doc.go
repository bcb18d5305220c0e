// Package registry holds the in-memory set of routable targets.
//
// # Architecture
//
// The [Registry] maps target id to [tracer.Target]. Every mutation runs change
// handlers registered with [Registry.WatchChanges] and publishes a target
// event on the bus. The router registers a handler that invalidates cached
// routes for the changed id, which keeps derived cache state consistent with
// the registry.
//
// # Basic Usage
//
//	reg := registry.New(bus)
//	reg.WatchChanges(func(id string) { cache.Invalidate(id) })
//
//	err := reg.Upsert(tracer.Target{ID: "bloom_004", Depth: 2, Entropy: 0.7})
//	ids, err := reg.Match("bloom_0*")
//
// # Thread Safety
//
// All [Registry] methods are safe for concurrent use via an internal
// sync.RWMutex. Handlers and events run after the lock is released.
package registry
