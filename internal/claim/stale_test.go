package claim

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDiamond wires a → {b, c} → d plus an unrelated node e, evaluates
// everything, and returns the ids.
func buildDiamond(t *testing.T, g *Graph[int, int]) (a, b, c, d, e NodeID) {
	t.Helper()

	a = g.CreateNode("input", "a")
	passThrough := func(dep *NodeID) Callback[int, int] {
		return func(_ NodeID, ec *EvaluationContext[int, int]) (Outcome[int, int], error) {
			res, err := ec.Pull(*dep, EdgeData)
			if err != nil {
				return Outcome[int, int]{}, err
			}
			return Outcome[int, int]{Green: res.Value, Red: res.Value}, nil
		}
	}
	g.RegisterCallback("b", passThrough(&a))
	g.RegisterCallback("c", passThrough(&a))
	b = g.CreateNode("b", "b")
	c = g.CreateNode("c", "c")

	g.RegisterCallback("d", func(_ NodeID, ec *EvaluationContext[int, int]) (Outcome[int, int], error) {
		rb, err := ec.Pull(b, EdgeData)
		if err != nil {
			return Outcome[int, int]{}, err
		}
		rc, err := ec.Pull(c, EdgeData)
		if err != nil {
			return Outcome[int, int]{}, err
		}
		v := rb.Value + rc.Value
		return Outcome[int, int]{Green: v, Red: v}, nil
	})
	d = g.CreateNode("d", "d")

	e = g.CreateNode("input", "e")

	require.NoError(t, g.SetInputValue(a, 1, 1))
	require.NoError(t, g.SetInputValue(e, 1, 1))
	_, err := g.Pull(d)
	require.NoError(t, err)
	return a, b, c, d, e
}

// TestPropagationCompleteness: a changed input marks every transitive
// dependent stale exactly once, in one batch, and leaves non-dependents
// untouched.
func TestPropagationCompleteness(t *testing.T) {
	g := New[int, int](Options{})
	rec := &staleRecorder{}
	g.OnStale(rec)

	a, b, c, d, e := buildDiamond(t, g)
	require.Empty(t, rec.batches)
	require.Equal(t, 0, g.StaleCount())

	require.NoError(t, g.SetInputValue(a, 2, 2))

	// One notification for the whole mutation, each node exactly once,
	// sorted, and e absent.
	require.Len(t, rec.batches, 1)
	assert.Equal(t, []NodeID{a, b, c, d}, rec.batches[0])
	assert.Equal(t, 3, g.StaleCount()) // a was re-seeded fresh by SetInputValue

	infoE, err := g.GetNode(e)
	require.NoError(t, err)
	assert.Equal(t, Fresh, infoE.Freshness)
}

func TestMarkStaleIdempotent(t *testing.T) {
	g := New[int, int](Options{})
	rec := &staleRecorder{}
	g.OnStale(rec)

	a, b, c, d, _ := buildDiamond(t, g)

	require.NoError(t, g.MarkStale(a))
	require.Len(t, rec.batches, 1)
	assert.Equal(t, []NodeID{a, b, c, d}, rec.batches[0])

	// Marking again is a no-op: already-stale nodes terminate the walk and
	// nothing new is reported.
	require.NoError(t, g.MarkStale(a))
	assert.Len(t, rec.batches, 1)
	assert.Equal(t, 4, g.StaleCount())
}

// TestDeepChainPropagation guards the iterative worklist: a dependency
// chain far deeper than any recursion limit must still propagate.
func TestDeepChainPropagation(t *testing.T) {
	g := New[int, int](Options{})

	const depth = 200000
	prev := g.CreateNode("input", "root")
	require.NoError(t, g.SetInputValue(prev, 1, 1))
	for i := 0; i < depth; i++ {
		next := g.CreateNode("link", fmt.Sprintf("n%d", i))
		g.addEdge(prev, next, EdgeData)
		g.nodes[next].freshness = Fresh
		prev = next
	}

	require.NoError(t, g.MarkStale(g.nodes[0].id))
	assert.Equal(t, depth+1, g.StaleCount())
}

// TestReevaluationDoesNotPropagate pins the cutoff rule: re-running a
// callback that returns an unchanged green but a different red must not
// start a new staleness wave.
func TestReevaluationDoesNotPropagate(t *testing.T) {
	g := New[int, int](Options{})

	a := g.CreateNode("input", "a")
	red := 100
	g.RegisterCallback("parity", func(_ NodeID, ec *EvaluationContext[int, int]) (Outcome[int, int], error) {
		res, err := ec.Pull(a, EdgeData)
		if err != nil {
			return Outcome[int, int]{}, err
		}
		red++ // red differs on every run
		return Outcome[int, int]{Green: res.Value % 2, Red: red}, nil
	})
	p := g.CreateNode("parity", "a")

	var down int
	g.RegisterCallback("down", func(_ NodeID, ec *EvaluationContext[int, int]) (Outcome[int, int], error) {
		res, err := ec.Pull(p, EdgeData)
		if err != nil {
			return Outcome[int, int]{}, err
		}
		down++
		return Outcome[int, int]{Green: res.Green, Red: res.Green}, nil
	})
	dn := g.CreateNode("down", "d")

	require.NoError(t, g.SetInputValue(a, 1, 1))
	_, err := g.Pull(dn)
	require.NoError(t, err)
	require.Equal(t, 1, down)

	rec := &staleRecorder{}
	g.OnStale(rec)

	// 1 → 3 keeps parity green at 1 while the red changes. The input
	// mutation itself produces one batch; the re-evaluation of p must not
	// produce another.
	require.NoError(t, g.SetInputValue(a, 3, 3))
	require.Len(t, rec.batches, 1)

	before, err := g.GetNode(p)
	require.NoError(t, err)
	_, err = g.Pull(p)
	require.NoError(t, err)
	after, err := g.GetNode(p)
	require.NoError(t, err)

	assert.Equal(t, before.Green, after.Green)
	assert.NotEqual(t, before.Red, after.Red)
	assert.Len(t, rec.batches, 1, "re-evaluation started a staleness wave")
}

func TestOnStaleLastWriterWins(t *testing.T) {
	g := New[int, int](Options{})
	first := &staleRecorder{}
	second := &staleRecorder{}
	g.OnStale(first)
	g.OnStale(second)

	a, _, _, _, _ := buildDiamond(t, g)
	require.NoError(t, g.SetInputValue(a, 2, 2))

	assert.Empty(t, first.batches)
	assert.Len(t, second.batches, 1)
}

func TestSetInputValueFirstSeedDoesNotPropagate(t *testing.T) {
	g := New[int, int](Options{})
	rec := &staleRecorder{}
	g.OnStale(rec)

	a := g.CreateNode("input", "a")
	require.NoError(t, g.SetInputValue(a, 42, 42))
	assert.Empty(t, rec.batches)

	info, err := g.GetNode(a)
	require.NoError(t, err)
	assert.Equal(t, Fresh, info.Freshness)
}
