package claim

import (
	"fmt"
	"sort"
)

// nodeKey is the canonical identity of a node before it is interned.
type nodeKey struct {
	kind Kind
	key  string
}

// node is the stored state of one unit of memoized computation.
type node[G comparable, R any] struct {
	id        NodeID
	kind      Kind
	key       string
	freshness Freshness
	green     G
	red       R
}

// evalMode distinguishes how a kind is evaluated. Keeping this as an
// explicit variant (rather than a missing-map-entry convention) makes the
// implicit-input behavior auditable.
type evalMode uint8

const (
	evalImplicit evalMode = iota
	evalRegistered
)

// evaluator binds a kind to its evaluation strategy.
type evaluator[G comparable, R any] struct {
	mode evalMode
	fn   Callback[G, R]
}

// Graph is one incremental computation graph instance. G is the green
// (comparison) value type, R the red (result) value type. All methods must
// be called from a single goroutine.
type Graph[G comparable, R any] struct {
	opts Options

	ids   map[nodeKey]NodeID
	nodes []*node[G, R]

	// forward maps a dependency to its dependents; backward maps a
	// dependent to its dependencies. Both carry the edge kind and are kept
	// in lockstep. The backward set rooted at a node is exactly the
	// dependency set captured during its most recent evaluation.
	forward  map[NodeID]map[NodeID]EdgeKind
	backward map[NodeID]map[NodeID]EdgeKind

	edgeCount  int
	staleCount int

	callbacks    map[Kind]Callback[G, R]
	staleHandler StalenessHandler

	// stack mirrors the call stack of in-flight evaluations for cycle
	// detection; onStack is its membership set.
	stack   []NodeID
	onStack map[NodeID]struct{}

	// cycleRoot is the node whose evaluation first observed a cycle in the
	// current pull, or -1 when no cycle is pending.
	cycleRoot NodeID
	// converging is true while the convergence loop runs, so that nested
	// cycle observations do not retrigger it.
	converging bool

	// lastConvergence is the result of the most recent convergence run,
	// including runs triggered automatically from Pull.
	lastConvergence *ConvergenceResult
}

// New creates an empty graph.
func New[G comparable, R any](opts Options) *Graph[G, R] {
	if opts.ConvergenceBudget <= 0 {
		opts.ConvergenceBudget = DefaultConvergenceBudget
	}
	return &Graph[G, R]{
		opts:      opts,
		ids:       make(map[nodeKey]NodeID),
		forward:   make(map[NodeID]map[NodeID]EdgeKind),
		backward:  make(map[NodeID]map[NodeID]EdgeKind),
		callbacks: make(map[Kind]Callback[G, R]),
		onStack:   make(map[NodeID]struct{}),
		cycleRoot: -1,
	}
}

// RegisterCallback installs the evaluation callback for a kind. Registering
// the same kind twice is a programmer error and panics.
func (g *Graph[G, R]) RegisterCallback(kind Kind, fn Callback[G, R]) {
	if _, exists := g.callbacks[kind]; exists {
		panic(fmt.Sprintf("claim: callback for kind %q already registered", kind))
	}
	g.callbacks[kind] = fn
}

// OnStale registers the staleness handler. There is a single registration
// slot; the last writer wins. A nil handler disables notification.
func (g *Graph[G, R]) OnStale(h StalenessHandler) {
	g.staleHandler = h
}

// CreateNode interns (kind, key) and returns its stable NodeID, creating
// the node with freshness Unevaluated on first reference. Repeated calls
// with the same pair return the same id.
func (g *Graph[G, R]) CreateNode(kind Kind, key string) NodeID {
	k := nodeKey{kind: kind, key: key}
	if id, ok := g.ids[k]; ok {
		return id
	}
	id := NodeID(len(g.nodes))
	g.ids[k] = id
	g.nodes = append(g.nodes, &node[G, R]{id: id, kind: kind, key: key})
	return id
}

// FindNode looks up (kind, key) without creating. The second return value
// reports whether the node exists.
func (g *Graph[G, R]) FindNode(kind Kind, key string) (NodeID, bool) {
	id, ok := g.ids[nodeKey{kind: kind, key: key}]
	return id, ok
}

// node returns the stored node for id, or an error for a foreign id.
func (g *Graph[G, R]) node(id NodeID) (*node[G, R], error) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, fmt.Errorf("claim: unknown node id %d", id)
	}
	return g.nodes[id], nil
}

// evaluatorFor resolves the evaluation strategy for a kind.
func (g *Graph[G, R]) evaluatorFor(kind Kind) evaluator[G, R] {
	if fn, ok := g.callbacks[kind]; ok {
		return evaluator[G, R]{mode: evalRegistered, fn: fn}
	}
	return evaluator[G, R]{mode: evalImplicit}
}

// setFresh transitions a node to Fresh, maintaining the stale counter.
func (g *Graph[G, R]) setFresh(n *node[G, R]) {
	if n.freshness == Stale {
		g.staleCount--
	}
	n.freshness = Fresh
}

// GetNode returns a read-only snapshot of a node. It never evaluates.
func (g *Graph[G, R]) GetNode(id NodeID) (NodeInfo[G, R], error) {
	n, err := g.node(id)
	if err != nil {
		return NodeInfo[G, R]{}, err
	}
	return NodeInfo[G, R]{
		ID:        n.id,
		Kind:      n.kind,
		Key:       n.key,
		Freshness: n.freshness,
		Green:     n.green,
		Red:       n.red,
	}, nil
}

// EdgesFrom returns the edges whose dependency is id (its dependents),
// sorted by dependent id. It never evaluates.
func (g *Graph[G, R]) EdgesFrom(id NodeID) []Edge {
	adj := g.forward[id]
	edges := make([]Edge, 0, len(adj))
	for to, kind := range adj {
		edges = append(edges, Edge{From: id, To: to, Kind: kind})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].To < edges[j].To })
	return edges
}

// EdgesTo returns the edges whose dependent is id (its dependencies),
// sorted by dependency id. It never evaluates.
func (g *Graph[G, R]) EdgesTo(id NodeID) []Edge {
	adj := g.backward[id]
	edges := make([]Edge, 0, len(adj))
	for from, kind := range adj {
		edges = append(edges, Edge{From: from, To: id, Kind: kind})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].From < edges[j].From })
	return edges
}

// NodeCount returns the number of nodes ever created in this graph.
func (g *Graph[G, R]) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct edges currently recorded.
func (g *Graph[G, R]) EdgeCount() int { return g.edgeCount }

// StaleCount returns the number of nodes currently marked stale.
func (g *Graph[G, R]) StaleCount() int { return g.staleCount }

// LastConvergence returns the result of the most recent convergence run, or
// nil if no cycle has been repaired yet. Pull triggers convergence
// automatically when it completes the outermost evaluation of a cycle, so
// this is how callers find out whether that run stabilized.
func (g *Graph[G, R]) LastConvergence() *ConvergenceResult { return g.lastConvergence }
