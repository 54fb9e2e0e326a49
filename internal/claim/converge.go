package claim

import "sort"

// CycleParticipants collects the nodes participating in a cycle observed at
// root: the intersection of the nodes reachable from root over backward
// edges and the nodes from which root is reachable over forward edges,
// which is root's strongly connected component. The result is sorted by id
// so that convergence visits participants in the same order every pass.
func (g *Graph[G, R]) CycleParticipants(root NodeID) []NodeID {
	backReach := g.reach(root, g.backward)
	fwdReach := g.reach(root, g.forward)

	var participants []NodeID
	for id := range backReach {
		if _, ok := fwdReach[id]; ok {
			participants = append(participants, id)
		}
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i] < participants[j] })
	return participants
}

// reach computes the set reachable from start over the given adjacency,
// including start itself.
func (g *Graph[G, R]) reach(start NodeID, adj map[NodeID]map[NodeID]EdgeKind) map[NodeID]struct{} {
	seen := map[NodeID]struct{}{start: {}}
	work := []NodeID{start}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]
		for next := range adj[cur] {
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			work = append(work, next)
		}
	}
	return seen
}

// Converge runs a fixed-point iteration over participants, up to budget
// passes. Each pass snapshots every participant's green value, marks all
// participants stale without notifying the staleness handler (this is an
// internal repair loop, not an externally observable mutation), re-pulls
// every participant in stable order, and compares the new green values
// against the snapshot. Iteration stops as soon as a pass changes nothing.
//
// Exhausting the budget is not an error: the result reports Converged false
// and the last computed values remain in place. Callers decide whether to
// surface that as a diagnostic, retry with a larger budget, or accept the
// approximation.
//
// The result is also retained for LastConvergence, since the loop usually
// runs from inside Pull rather than being called directly.
func (g *Graph[G, R]) Converge(participants []NodeID, budget int) (ConvergenceResult, error) {
	res, err := g.converge(participants, budget)
	g.lastConvergence = &res
	return res, err
}

func (g *Graph[G, R]) converge(participants []NodeID, budget int) (ConvergenceResult, error) {
	wasConverging := g.converging
	g.converging = true
	defer func() {
		g.converging = wasConverging
		g.cycleRoot = -1
	}()

	for iteration := 1; iteration <= budget; iteration++ {
		snapshot := make([]G, len(participants))
		for i, id := range participants {
			snapshot[i] = g.nodes[id].green
		}

		for _, id := range participants {
			n := g.nodes[id]
			if n.freshness != Stale {
				n.freshness = Stale
				g.staleCount++
			}
		}

		for _, id := range participants {
			if _, err := g.pull(id); err != nil {
				return ConvergenceResult{Iterations: iteration, Participants: participants}, err
			}
		}

		stable := true
		for i, id := range participants {
			if g.nodes[id].green != snapshot[i] {
				stable = false
				break
			}
		}
		if stable {
			return ConvergenceResult{Converged: true, Iterations: iteration, Participants: participants}, nil
		}
	}

	return ConvergenceResult{Converged: false, Iterations: budget, Participants: participants}, nil
}
