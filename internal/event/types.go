// Package event defines event types for decoupling components of the tracer engine.
// Routing, registry and genealogy components publish on a Bus; metrics, watchers and
// the CLI subscribe without holding references to the publishers.
package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "route.accepted", "genealogy.rebloom")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeRouteAccepted     = "route.accepted"
	TypeRouteRejected     = "route.rejected"
	TypeTargetUpserted    = "target.upserted"
	TypeTargetRemoved     = "target.removed"
	TypeRebloomLogged     = "genealogy.rebloom"
	TypeAnalysisCompleted = "analysis.completed"
	TypeScenarioApplied   = "scenario.applied"
	TypeExportCompleted   = "export.completed"
)

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Routing Events
// -----------------------------------------------------------------------------

// RouteAcceptedEvent is emitted when a route clears the affinity floor,
// including routes served from the decision cache.
type RouteAcceptedEvent struct {
	baseEvent
	Worker   string
	TargetID string
	Score    float64
	Cached   bool // Served from the route cache
}

// NewRouteAcceptedEvent creates a RouteAcceptedEvent.
func NewRouteAcceptedEvent(worker, targetID string, score float64, cached bool) RouteAcceptedEvent {
	return RouteAcceptedEvent{
		baseEvent: newBaseEvent(TypeRouteAccepted),
		Worker:    worker,
		TargetID:  targetID,
		Score:     score,
		Cached:    cached,
	}
}

// RouteRejectedEvent is emitted when a worker/target pair scores below the floor.
type RouteRejectedEvent struct {
	baseEvent
	Worker   string
	TargetID string
	Score    float64
	MinScore float64
}

// NewRouteRejectedEvent creates a RouteRejectedEvent.
func NewRouteRejectedEvent(worker, targetID string, score, minScore float64) RouteRejectedEvent {
	return RouteRejectedEvent{
		baseEvent: newBaseEvent(TypeRouteRejected),
		Worker:    worker,
		TargetID:  targetID,
		Score:     score,
		MinScore:  minScore,
	}
}

// -----------------------------------------------------------------------------
// Registry Events
// -----------------------------------------------------------------------------

// TargetUpsertedEvent is emitted after a target is added or replaced.
type TargetUpsertedEvent struct {
	baseEvent
	TargetID string
	Created  bool // false when an existing target was replaced
}

// NewTargetUpsertedEvent creates a TargetUpsertedEvent.
func NewTargetUpsertedEvent(targetID string, created bool) TargetUpsertedEvent {
	return TargetUpsertedEvent{
		baseEvent: newBaseEvent(TypeTargetUpserted),
		TargetID:  targetID,
		Created:   created,
	}
}

// TargetRemovedEvent is emitted after a target is removed.
type TargetRemovedEvent struct {
	baseEvent
	TargetID string
}

// NewTargetRemovedEvent creates a TargetRemovedEvent.
func NewTargetRemovedEvent(targetID string) TargetRemovedEvent {
	return TargetRemovedEvent{
		baseEvent: newBaseEvent(TypeTargetRemoved),
		TargetID:  targetID,
	}
}

// -----------------------------------------------------------------------------
// Genealogy Events
// -----------------------------------------------------------------------------

// RebloomLoggedEvent is emitted when a rebloom is recorded in the genealogy forest.
type RebloomLoggedEvent struct {
	baseEvent
	NodeID       string
	ParentID     string // Empty for roots
	EntropyDelta float64
	Depth        int
	Promoted     bool // An implicit placeholder node became explicit
}

// NewRebloomLoggedEvent creates a RebloomLoggedEvent.
func NewRebloomLoggedEvent(nodeID, parentID string, delta float64, depth int, promoted bool) RebloomLoggedEvent {
	return RebloomLoggedEvent{
		baseEvent:    newBaseEvent(TypeRebloomLogged),
		NodeID:       nodeID,
		ParentID:     parentID,
		EntropyDelta: delta,
		Depth:        depth,
		Promoted:     promoted,
	}
}

// -----------------------------------------------------------------------------
// Integration Events
// -----------------------------------------------------------------------------

// AnalysisCompletedEvent is emitted when a genealogy-aware analysis is produced.
type AnalysisCompletedEvent struct {
	baseEvent
	AnalysisID string
	Worker     string
	TargetID   string
	Score      float64
	Cached     bool
}

// NewAnalysisCompletedEvent creates an AnalysisCompletedEvent.
func NewAnalysisCompletedEvent(analysisID, worker, targetID string, score float64, cached bool) AnalysisCompletedEvent {
	return AnalysisCompletedEvent{
		baseEvent:  newBaseEvent(TypeAnalysisCompleted),
		AnalysisID: analysisID,
		Worker:     worker,
		TargetID:   targetID,
		Score:      score,
		Cached:     cached,
	}
}

// ExportCompletedEvent is emitted after an export attempt.
type ExportCompletedEvent struct {
	baseEvent
	Path    string
	Success bool
	Error   string // Empty on success
}

// NewExportCompletedEvent creates an ExportCompletedEvent.
func NewExportCompletedEvent(path string, success bool, errMsg string) ExportCompletedEvent {
	return ExportCompletedEvent{
		baseEvent: newBaseEvent(TypeExportCompleted),
		Path:      path,
		Success:   success,
		Error:     errMsg,
	}
}

// -----------------------------------------------------------------------------
// Scenario Events
// -----------------------------------------------------------------------------

// ScenarioAppliedEvent is emitted each time a scenario file is applied to an engine.
type ScenarioAppliedEvent struct {
	baseEvent
	Path     string
	Targets  int // Targets upserted
	Reblooms int // Rebloom events logged
	Skipped  int // Rebloom events already present
	Error    string
}

// NewScenarioAppliedEvent creates a ScenarioAppliedEvent.
func NewScenarioAppliedEvent(path string, targets, reblooms, skipped int, errMsg string) ScenarioAppliedEvent {
	return ScenarioAppliedEvent{
		baseEvent: newBaseEvent(TypeScenarioApplied),
		Path:      path,
		Targets:   targets,
		Reblooms:  reblooms,
		Skipped:   skipped,
		Error:     errMsg,
	}
}
