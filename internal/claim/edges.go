package claim

// addEdge records that dependent `to` read dependency `from` with the given
// kind. At most one edge exists between an ordered pair: adding a second
// edge of a different kind upgrades the stored edge to EdgeData, since
// anything that structurally depends on a value must be invalidated by
// changes to it. The edge counter moves only for genuinely new edges.
func (g *Graph[G, R]) addEdge(from, to NodeID, kind EdgeKind) {
	fwd := g.forward[from]
	if fwd == nil {
		fwd = make(map[NodeID]EdgeKind)
		g.forward[from] = fwd
	}
	bwd := g.backward[to]
	if bwd == nil {
		bwd = make(map[NodeID]EdgeKind)
		g.backward[to] = bwd
	}

	if existing, ok := fwd[to]; ok {
		if existing != kind {
			fwd[to] = EdgeData
			bwd[from] = EdgeData
		}
		return
	}

	fwd[to] = kind
	bwd[from] = kind
	g.edgeCount++
}

// clearDependencyEdges drops every edge whose dependent is id. It runs
// before any re-evaluation of id so that the backward set always reflects
// the dependency set captured during the most recent evaluation only.
func (g *Graph[G, R]) clearDependencyEdges(id NodeID) {
	bwd := g.backward[id]
	if len(bwd) == 0 {
		return
	}
	for from := range bwd {
		delete(g.forward[from], id)
		g.edgeCount--
	}
	delete(g.backward, id)
}
