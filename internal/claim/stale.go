package claim

import "sort"

// MarkStale marks id and all of its transitive dependents stale, each at
// most once, and delivers the whole batch to the staleness handler in a
// single notification.
func (g *Graph[G, R]) MarkStale(id NodeID) error {
	if _, err := g.node(id); err != nil {
		return err
	}
	batch := g.propagateStale(id)
	g.notifyStale(batch)
	return nil
}

// propagateStale walks forward edges from id with an explicit worklist (no
// recursion, so arbitrarily deep dependency chains cannot overflow the
// stack). A node that is already stale terminates the walk: its dependents
// were exhaustively marked when it became stale. Cost is O(V+E) per call
// and the walk terminates even on cyclic graphs. The returned batch is
// sorted by id for deterministic delivery.
func (g *Graph[G, R]) propagateStale(id NodeID) []NodeID {
	var batch []NodeID
	work := []NodeID{id}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]
		n := g.nodes[cur]
		if n.freshness == Stale {
			continue
		}
		n.freshness = Stale
		g.staleCount++
		batch = append(batch, cur)
		for dependent := range g.forward[cur] {
			work = append(work, dependent)
		}
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i] < batch[j] })
	return batch
}

// notifyStale delivers one batch to the registered handler, if any.
func (g *Graph[G, R]) notifyStale(batch []NodeID) {
	if g.staleHandler == nil || len(batch) == 0 {
		return
	}
	g.staleHandler.OnNodesStale(batch)
}

// SetInputValue seeds or replaces a leaf node's values. If the node had
// been evaluated before and its green value changes, the node and its
// transitive dependents are marked stale (one handler notification) before
// the new values are stored; the node itself ends up fresh. An unchanged
// green value updates the red value silently and leaves dependents fresh.
func (g *Graph[G, R]) SetInputValue(id NodeID, green G, red R) error {
	n, err := g.node(id)
	if err != nil {
		return err
	}
	if n.freshness != Unevaluated && n.green != green {
		g.notifyStale(g.propagateStale(id))
	}
	n.green = green
	n.red = red
	g.setFresh(n)
	return nil
}
