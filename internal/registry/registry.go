package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"github.com/dawnworks/tracer/internal/errors"
	"github.com/dawnworks/tracer/internal/event"
	"github.com/dawnworks/tracer/internal/tracer"
)

// Registry stores targets by id.
type Registry struct {
	mu       sync.RWMutex
	targets  map[string]tracer.Target
	bus      *event.Bus
	now      func() time.Time
	handlers []func(targetID string)
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now for LastUpdated stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates an empty Registry publishing to bus. A nil bus disables events.
func New(bus *event.Bus, opts ...Option) *Registry {
	r := &Registry{
		targets: make(map[string]tracer.Target),
		bus:     bus,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Upsert validates target, stamps LastUpdated and stores it, replacing any
// existing target with the same id. The id is normalized with
// tracer.NormalizeID and an empty status becomes stable.
func (r *Registry) Upsert(target tracer.Target) error {
	target.ID = tracer.NormalizeID(target.ID)
	if err := target.Validate(); err != nil {
		return errors.NewValidationError(err.Error()).
			WithField("target").
			WithValue(target.ID).
			WithCause(errors.ErrInvalidTarget)
	}
	if target.Status == "" {
		target.Status = tracer.StatusStable
	}

	r.mu.Lock()
	_, existed := r.targets[target.ID]
	target.LastUpdated = r.now()
	r.targets[target.ID] = target
	r.mu.Unlock()

	r.notifyHandlersUnlocked(target.ID)
	r.bus.Publish(event.NewTargetUpsertedEvent(target.ID, !existed))
	return nil
}

// Remove deletes the target with id. It reports whether the target existed.
func (r *Registry) Remove(id string) bool {
	id = tracer.NormalizeID(id)
	r.mu.Lock()
	_, ok := r.targets[id]
	delete(r.targets, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	r.notifyHandlersUnlocked(id)
	r.bus.Publish(event.NewTargetRemovedEvent(id))
	return true
}

// Get returns a copy of the target with id.
func (r *Registry) Get(id string) (tracer.Target, bool) {
	id = tracer.NormalizeID(id)
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[id]
	return t, ok
}

// Has reports whether a target with id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// List returns every target sorted by id.
func (r *Registry) List() []tracer.Target {
	r.mu.RLock()
	out := make([]tracer.Target, 0, len(r.targets))
	for _, t := range r.targets {
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.targets)
}

// Match returns the sorted ids of targets matching a glob pattern
// (e.g. "bloom_0*", "bloom_{001,004}").
func (r *Registry) Match(pattern string) ([]string, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.NewValidationError("invalid target pattern").
			WithField("pattern").
			WithValue(pattern).
			WithCause(err)
	}

	r.mu.RLock()
	var ids []string
	for id := range r.targets {
		if g.Match(id) {
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids, nil
}

// WatchChanges registers a handler called with the id of every upserted or
// removed target. Handlers run outside the registry lock.
func (r *Registry) WatchChanges(handler func(targetID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, handler)
}

func (r *Registry) notifyHandlersUnlocked(id string) {
	r.mu.RLock()
	handlers := make([]func(string), len(r.handlers))
	copy(handlers, r.handlers)
	r.mu.RUnlock()

	for _, h := range handlers {
		h(id)
	}
}
