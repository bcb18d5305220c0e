package genealogy

import (
	"sync"
	"time"

	"github.com/dawnworks/tracer/internal/errors"
	"github.com/dawnworks/tracer/internal/event"
	"github.com/dawnworks/tracer/internal/logging"
	"github.com/dawnworks/tracer/internal/tracer"
)

const resourceNode = "genealogy node"

// Node is a snapshot of one genealogy entry.
type Node struct {
	ID           string    `json:"id"`
	ParentID     string    `json:"parent_id,omitempty"`
	Children     []string  `json:"children,omitempty"`
	EntropyDelta float64   `json:"entropy_delta"`
	CreatedAt    time.Time `json:"created_at"`
	Implicit     bool      `json:"implicit,omitempty"`
}

type node struct {
	id        string
	parentID  string
	children  []string
	delta     float64
	createdAt time.Time
	implicit  bool
}

func (n *node) snapshot() Node {
	return Node{
		ID:           n.id,
		ParentID:     n.parentID,
		Children:     append([]string(nil), n.children...),
		EntropyDelta: n.delta,
		CreatedAt:    n.createdAt,
		Implicit:     n.implicit,
	}
}

// EntropyPoint is one step of an entropy evolution.
type EntropyPoint struct {
	ID         string  `json:"id"`
	Delta      float64 `json:"delta"`
	Cumulative float64 `json:"cumulative"`
}

// Tree is an append-only forest of rebloom events.
type Tree struct {
	mu     sync.RWMutex
	nodes  map[string]*node
	order  []string // insertion order
	bus    *event.Bus
	now    func() time.Time
	logger *logging.Logger
}

// Option configures a Tree.
type Option func(*Tree)

// WithClock replaces time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tree) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(t *Tree) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTree creates an empty Tree publishing to bus. A nil bus disables events.
func NewTree(bus *event.Bus, opts ...Option) *Tree {
	t := &Tree{
		nodes:  make(map[string]*node),
		bus:    bus,
		now:    time.Now,
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// LogEvent records that id rebloomed from parentID with the given signed
// entropy delta. An empty parentID logs a root.
func (t *Tree) LogEvent(id, parentID string, entropyDelta float64) error {
	id = tracer.NormalizeID(id)
	parentID = tracer.NormalizeID(parentID)

	if id == "" {
		return errors.NewValidationError("node id must not be empty").WithField("id")
	}
	if id == parentID {
		return errors.NewGenealogyError("node cannot be its own parent",
			errors.NewValidationError("self parent").WithField("parent_id").WithValue(parentID)).
			WithNode(id).WithParent(parentID)
	}

	t.mu.Lock()
	promoted, err := t.logLocked(id, parentID, entropyDelta)
	var depth int
	if err == nil {
		depth = t.depthLocked(id)
	}
	t.mu.Unlock()

	if err != nil {
		return err
	}

	t.logger.Debug("rebloom logged",
		"node_id", id,
		"parent_id", parentID,
		"entropy_delta", entropyDelta,
		"depth", depth,
		"promoted", promoted)
	t.bus.Publish(event.NewRebloomLoggedEvent(id, parentID, entropyDelta, depth, promoted))
	return nil
}

// logLocked inserts or promotes a node while the write lock is held.
func (t *Tree) logLocked(id, parentID string, delta float64) (promoted bool, err error) {
	existing, ok := t.nodes[id]
	if ok && !existing.implicit {
		return false, errors.NewGenealogyError("rebloom rejected",
			errors.NewAlreadyExistsError(resourceNode, id).WithCause(errors.ErrDuplicateGenealogyID)).
			WithNode(id).WithParent(parentID)
	}

	if ok && parentID != "" && t.isAncestorOrSelfLocked(id, parentID) {
		return false, errors.NewGenealogyError("rebloom rejected", errors.ErrGenealogyCycle).
			WithNode(id).WithParent(parentID)
	}

	if parentID != "" {
		if _, known := t.nodes[parentID]; !known {
			t.insertLocked(&node{id: parentID, createdAt: t.now(), implicit: true})
		}
	}

	if ok {
		existing.implicit = false
		existing.delta = delta
		existing.createdAt = t.now()
		existing.parentID = parentID
		promoted = true
	} else {
		t.insertLocked(&node{id: id, parentID: parentID, delta: delta, createdAt: t.now()})
	}

	if parentID != "" {
		parent := t.nodes[parentID]
		parent.children = append(parent.children, id)
	}
	return promoted, nil
}

func (t *Tree) insertLocked(n *node) {
	t.nodes[n.id] = n
	t.order = append(t.order, n.id)
}

// isAncestorOrSelfLocked reports whether candidate is start or one of start's ancestors.
func (t *Tree) isAncestorOrSelfLocked(candidate, start string) bool {
	for cur := start; cur != ""; {
		if cur == candidate {
			return true
		}
		n, ok := t.nodes[cur]
		if !ok {
			return false
		}
		cur = n.parentID
	}
	return false
}

func (t *Tree) lookupLocked(id string) (*node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, errors.NewNotFoundError(resourceNode, id).WithCause(errors.ErrNodeNotFound)
	}
	return n, nil
}

func (t *Tree) depthLocked(id string) int {
	depth := 0
	for n := t.nodes[id]; n != nil && n.parentID != ""; n = t.nodes[n.parentID] {
		depth++
	}
	return depth
}

// Has reports whether id is present (explicitly or implicitly).
func (t *Tree) Has(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.nodes[id]
	return ok
}

// Len returns the number of nodes, including implicit ones.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// Node returns a snapshot of the node with id.
func (t *Tree) Node(id string) (Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.lookupLocked(id)
	if err != nil {
		return Node{}, err
	}
	return n.snapshot(), nil
}

// Depth returns the number of edges between id and its root.
func (t *Tree) Depth(id string) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if _, err := t.lookupLocked(id); err != nil {
		return 0, err
	}
	return t.depthLocked(id), nil
}

// AncestryChain returns the ancestors of id ordered root first, excluding id.
func (t *Tree) AncestryChain(id string) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	return t.ancestryLocked(n), nil
}

func (t *Tree) ancestryLocked(n *node) []string {
	var chain []string
	for cur := n.parentID; cur != ""; cur = t.nodes[cur].parentID {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	if chain == nil {
		chain = []string{}
	}
	return chain
}

// Descendants returns the full subtree below id in breadth-first order.
func (t *Tree) Descendants(id string) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	return t.descendantsLocked(n), nil
}

func (t *Tree) descendantsLocked(n *node) []string {
	out := []string{}
	queue := append([]string(nil), n.children...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur)
		queue = append(queue, t.nodes[cur].children...)
	}
	return out
}

// Children returns the direct children of id in insertion order.
func (t *Tree) Children(id string) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	return append([]string{}, n.children...), nil
}

// Siblings returns the other children of id's parent. Roots have no siblings.
func (t *Tree) Siblings(id string) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	out := []string{}
	if n.parentID == "" {
		return out, nil
	}
	for _, c := range t.nodes[n.parentID].children {
		if c != id {
			out = append(out, c)
		}
	}
	return out, nil
}

// EntropyEvolution returns the entropy deltas from the root down to id
// inclusive, with the running total at each step.
func (t *Tree) EntropyEvolution(id string) ([]EntropyPoint, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.lookupLocked(id)
	if err != nil {
		return nil, err
	}

	lineage := append(t.ancestryLocked(n), id)
	points := make([]EntropyPoint, 0, len(lineage))
	var total float64
	for _, nid := range lineage {
		d := t.nodes[nid].delta
		total += d
		points = append(points, EntropyPoint{ID: nid, Delta: d, Cumulative: total})
	}
	return points, nil
}

// CommonAncestor returns the deepest node that is an ancestor of (or equal
// to) both a and b. ok is false when they belong to different trees.
func (t *Tree) CommonAncestor(a, b string) (id string, ok bool, err error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if _, err := t.lookupLocked(a); err != nil {
		return "", false, err
	}
	if _, err := t.lookupLocked(b); err != nil {
		return "", false, err
	}

	seen := make(map[string]struct{})
	for cur := a; cur != ""; cur = t.nodes[cur].parentID {
		seen[cur] = struct{}{}
	}
	for cur := b; cur != ""; cur = t.nodes[cur].parentID {
		if _, hit := seen[cur]; hit {
			return cur, true, nil
		}
	}
	return "", false, nil
}

// Root returns the root of the tree containing id.
func (t *Tree) Root(id string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.lookupLocked(id)
	if err != nil {
		return "", err
	}
	for n.parentID != "" {
		n = t.nodes[n.parentID]
	}
	return n.id, nil
}

// Roots returns every root in insertion order.
func (t *Tree) Roots() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := []string{}
	for _, id := range t.order {
		if t.nodes[id].parentID == "" {
			out = append(out, id)
		}
	}
	return out
}
