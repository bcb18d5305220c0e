// Package integration layers the rebloom genealogy over routing decisions.
//
// An [Engine] is the single context object built at process start: it owns
// the event bus, statistics collector, target registry, route cache, router
// and genealogy tree. An [Orchestrator] answers family-aware questions on top
// of it:
//
//   - AnalyzeWithRouting routes a worker and explains the result in the
//     context of the target's lineage.
//   - SuggestWorkersForFamily ranks workers for a whole family.
//   - RouteToFamilyCluster routes one worker to every member of a family,
//     registering placeholder targets for members the registry lacks.
//   - PredictOptimalTargets ranks targets by rebloom potential.
//
// Analyses are cached per (worker, target, include family) and dropped when
// the target changes, when any rebloom is logged, or after the route cache
// TTL. The most recent analyses can be written to a JSON export.
//
// # Thread Safety
//
// Engine components are individually synchronized. Orchestrator guards its
// analysis cache and history with its own lock and never holds it while
// calling into the router or tree.
package integration
