// Package genealogy records rebloom events as an append-only forest and
// answers lineage queries over it.
//
// # Architecture
//
// A [Tree] stores nodes by id. Each node has at most one parent and an
// ordered list of children; nodes are never removed. Logging a rebloom whose
// parent has not been seen creates the parent as an implicit root. An
// implicit node can later be logged explicitly exactly once, at which point
// it receives its own parent and entropy delta. Logging an explicit id a
// second time fails with ErrDuplicateGenealogyID.
//
// # Ordering
//
// AncestryChain returns ids oldest first (root, ..., parent) and excludes the
// queried node, so len(AncestryChain(n)) == Depth(n). Descendants are returned
// in breadth-first order; Children and Siblings keep insertion order.
//
// # Thread Safety
//
// All [Tree] methods are safe for concurrent use via an internal sync.RWMutex.
// Events are published after the lock is released.
package genealogy
