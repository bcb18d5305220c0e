// Package event provides a pub-sub event bus for decoupled communication
// between the tracer engine components.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Routing:
//   - [RouteAcceptedEvent]: a route cleared the affinity floor
//   - [RouteRejectedEvent]: a pair scored below the floor
//
// Registry:
//   - [TargetUpsertedEvent], [TargetRemovedEvent]
//
// Genealogy:
//   - [RebloomLoggedEvent]: a node was added to (or promoted in) the forest
//
// Integration:
//   - [AnalysisCompletedEvent], [ExportCompletedEvent], [ScenarioAppliedEvent]
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called synchronously
// on the publishing goroutine and are protected against panics: a panicking
// handler is logged and recovered, and delivery continues to the remaining
// handlers. Handlers must not publish on the same bus while holding locks the
// publisher might need.
//
// # Basic Usage
//
//	bus := event.NewBus()
//	bus.Subscribe(event.TypeRouteRejected, func(e event.Event) {
//	    rejected := e.(event.RouteRejectedEvent)
//	    fmt.Println(rejected.Worker, rejected.TargetID, rejected.Score)
//	})
package event
