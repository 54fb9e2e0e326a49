package claim

// EvaluationContext is the only window a callback has onto the graph. Every
// Pull through the context records a dependency edge from the pulled node
// to the node being evaluated, which is how the graph re-captures the
// dependency set on each evaluation.
type EvaluationContext[G comparable, R any] struct {
	g    *Graph[G, R]
	self NodeID
}

// Pull evaluates (or returns the cached value of) dep on behalf of the node
// under evaluation, recording an edge dep → self of the given kind before
// recursing.
func (ec *EvaluationContext[G, R]) Pull(dep NodeID, kind EdgeKind) (Result[G, R], error) {
	ec.g.addEdge(dep, ec.self, kind)
	res, err := ec.g.pull(dep)
	if err != nil {
		return res, err
	}
	if res.IsCycle && ec.g.cycleRoot < 0 {
		ec.g.cycleRoot = ec.self
	}
	return res, nil
}

// FindNode looks up (kind, key) without creating.
func (ec *EvaluationContext[G, R]) FindNode(kind Kind, key string) (NodeID, bool) {
	return ec.g.FindNode(kind, key)
}

// CreateNode interns (kind, key), creating the node on first reference.
func (ec *EvaluationContext[G, R]) CreateNode(kind Kind, key string) NodeID {
	return ec.g.CreateNode(kind, key)
}

// Self returns the id of the node being evaluated.
func (ec *EvaluationContext[G, R]) Self() NodeID { return ec.self }

// Pull returns the node's current value, evaluating it first if it is stale
// or unevaluated. Fresh nodes are returned from cache without invoking any
// callback. Pulling a node that is already on the evaluation stack returns
// its last-known values with IsCycle set instead of recursing.
//
// A non-nil error comes from a callback and propagates out uncaught. The
// failing node's freshness and the evaluation stack are left unspecified;
// callers must not keep using the graph after a callback error without
// explicit recovery.
func (g *Graph[G, R]) Pull(id NodeID) (Result[G, R], error) {
	if _, err := g.node(id); err != nil {
		return Result[G, R]{}, err
	}
	return g.pull(id)
}

func (g *Graph[G, R]) pull(id NodeID) (Result[G, R], error) {
	n := g.nodes[id]

	// Memoized fast path.
	if n.freshness == Fresh {
		return Result[G, R]{Value: n.red, Green: n.green}, nil
	}

	// Already being evaluated higher on the stack: hand out a forward
	// reference instead of recursing. This is what makes self- and
	// mutually-referential dependencies representable without overflow.
	if _, onStack := g.onStack[id]; onStack {
		return Result[G, R]{
			Value:   n.red,
			Green:   n.green,
			IsCycle: true,
			ForwardRef: &ForwardRef[G, R]{
				Node:          id,
				PreviousGreen: n.green,
				PreviousRed:   n.red,
			},
		}, nil
	}

	ev := g.evaluatorFor(n.kind)
	if ev.mode == evalImplicit {
		// No callback for this kind: the node is an implicit input. Mark it
		// fresh and return whatever it currently holds.
		g.setFresh(n)
		return Result[G, R]{Value: n.red, Green: n.green}, nil
	}

	g.clearDependencyEdges(id)
	g.stack = append(g.stack, id)
	g.onStack[id] = struct{}{}

	out, err := ev.fn(id, &EvaluationContext[G, R]{g: g, self: id})
	if err != nil {
		return Result[G, R]{}, err
	}

	g.stack = g.stack[:len(g.stack)-1]
	delete(g.onStack, id)

	n.green = out.Green
	n.red = out.Red
	g.setFresh(n)

	// If a cycle was observed anywhere below this frame and this was the
	// outermost evaluation, repair the cycle participants to a fixed point.
	// Inner frames only propagate the pending cycle upward; convergence
	// runs exactly once, from the outermost call frame.
	if g.cycleRoot >= 0 && len(g.stack) == 0 && !g.converging {
		root := g.cycleRoot
		if _, err := g.Converge(g.CycleParticipants(root), g.opts.ConvergenceBudget); err != nil {
			return Result[G, R]{}, err
		}
	}

	return Result[G, R]{Value: n.red, Green: n.green}, nil
}
