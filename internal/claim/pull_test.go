package claim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staleRecorder captures staleness batches for assertions.
type staleRecorder struct {
	batches [][]NodeID
}

func (r *staleRecorder) OnNodesStale(batch []NodeID) {
	copied := make([]NodeID, len(batch))
	copy(copied, batch)
	r.batches = append(r.batches, copied)
}

func TestPullImplicitInput(t *testing.T) {
	g := New[int, int](Options{})
	a := g.CreateNode("file", "a")

	// No callback registered for "file": the node is an implicit input and
	// pulling it is not an error. It comes back fresh with its current
	// (zero) values.
	res, err := g.Pull(a)
	require.NoError(t, err)
	assert.False(t, res.IsCycle)
	assert.Equal(t, 0, res.Value)

	info, err := g.GetNode(a)
	require.NoError(t, err)
	assert.Equal(t, Fresh, info.Freshness)
}

func TestPullUnknownNode(t *testing.T) {
	g := New[int, int](Options{})
	_, err := g.Pull(NodeID(3))
	assert.ErrorContains(t, err, "unknown node id")
}

func TestPullMemoization(t *testing.T) {
	g := New[int, int](Options{})
	a := g.CreateNode("file", "a")

	invocations := 0
	g.RegisterCallback("doubled", func(_ NodeID, ec *EvaluationContext[int, int]) (Outcome[int, int], error) {
		invocations++
		res, err := ec.Pull(a, EdgeData)
		if err != nil {
			return Outcome[int, int]{}, err
		}
		v := res.Value * 2
		return Outcome[int, int]{Green: v, Red: v}, nil
	})

	require.NoError(t, g.SetInputValue(a, 3, 3))
	d := g.CreateNode("doubled", "a")

	res, err := g.Pull(d)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Value)
	assert.Equal(t, 1, invocations)

	// A second pull with no intervening mutation performs zero callback
	// invocations.
	res, err = g.Pull(d)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Value)
	assert.Equal(t, 1, invocations)
}

// TestPullChain is the canonical A/B/C scenario: B doubles A, C adds one to
// B, and input changes flow through with exactly one re-invocation each, or
// none at all when the green value is unchanged.
func TestPullChain(t *testing.T) {
	g := New[int, int](Options{})
	rec := &staleRecorder{}
	g.OnStale(rec)

	a := g.CreateNode("input", "a")
	var bCalls, cCalls int

	g.RegisterCallback("b", func(_ NodeID, ec *EvaluationContext[int, int]) (Outcome[int, int], error) {
		bCalls++
		res, err := ec.Pull(a, EdgeData)
		if err != nil {
			return Outcome[int, int]{}, err
		}
		v := res.Value * 2
		return Outcome[int, int]{Green: v, Red: v}, nil
	})
	b := g.CreateNode("b", "b")

	g.RegisterCallback("c", func(_ NodeID, ec *EvaluationContext[int, int]) (Outcome[int, int], error) {
		cCalls++
		res, err := ec.Pull(b, EdgeData)
		if err != nil {
			return Outcome[int, int]{}, err
		}
		v := res.Value + 1
		return Outcome[int, int]{Green: v, Red: v}, nil
	})
	c := g.CreateNode("c", "c")

	require.NoError(t, g.SetInputValue(a, 1, 1))
	res, err := g.Pull(c)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Value)
	assert.Equal(t, 1, bCalls)
	assert.Equal(t, 1, cCalls)

	// Unchanged green: B and C stay fresh, no staleness batch, no
	// callback re-invocations.
	require.NoError(t, g.SetInputValue(a, 1, 1))
	res, err = g.Pull(c)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Value)
	assert.Equal(t, 1, bCalls)
	assert.Equal(t, 1, cCalls)
	assert.Empty(t, rec.batches)

	// Changed green: one batch marks A, B, C stale; re-pull re-invokes
	// each callback exactly once.
	require.NoError(t, g.SetInputValue(a, 2, 2))
	require.Len(t, rec.batches, 1)
	assert.Equal(t, []NodeID{a, b, c}, rec.batches[0])

	res, err = g.Pull(c)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Value)
	assert.Equal(t, 2, bCalls)
	assert.Equal(t, 2, cCalls)
	assert.Equal(t, 0, g.StaleCount())
}

// TestPullRecapturesEdges verifies that the dependency set reflects the
// most recent evaluation only: a dependency that is no longer pulled
// disappears from the edge stores.
func TestPullRecapturesEdges(t *testing.T) {
	g := New[int, int](Options{})
	sel := g.CreateNode("input", "selector")
	left := g.CreateNode("input", "left")
	right := g.CreateNode("input", "right")

	g.RegisterCallback("pick", func(_ NodeID, ec *EvaluationContext[int, int]) (Outcome[int, int], error) {
		s, err := ec.Pull(sel, EdgeData)
		if err != nil {
			return Outcome[int, int]{}, err
		}
		src := left
		if s.Value != 0 {
			src = right
		}
		res, err := ec.Pull(src, EdgeData)
		if err != nil {
			return Outcome[int, int]{}, err
		}
		return Outcome[int, int]{Green: res.Value, Red: res.Value}, nil
	})
	p := g.CreateNode("pick", "p")

	require.NoError(t, g.SetInputValue(sel, 0, 0))
	require.NoError(t, g.SetInputValue(left, 10, 10))
	require.NoError(t, g.SetInputValue(right, 20, 20))

	res, err := g.Pull(p)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Value)
	assert.Len(t, g.EdgesTo(p), 2) // sel and left

	// Flip the selector: after re-evaluation the left edge must be gone.
	require.NoError(t, g.SetInputValue(sel, 1, 1))
	res, err = g.Pull(p)
	require.NoError(t, err)
	assert.Equal(t, 20, res.Value)

	edges := g.EdgesTo(p)
	require.Len(t, edges, 2)
	froms := []NodeID{edges[0].From, edges[1].From}
	assert.Contains(t, froms, sel)
	assert.Contains(t, froms, right)
	assert.NotContains(t, froms, left)

	// Changing the orphaned input no longer disturbs p.
	require.NoError(t, g.SetInputValue(left, 11, 11))
	info, err := g.GetNode(p)
	require.NoError(t, err)
	assert.Equal(t, Fresh, info.Freshness)
}

func TestPullCallbackErrorPropagates(t *testing.T) {
	g := New[int, int](Options{})
	boom := errors.New("lowering failed")
	g.RegisterCallback("template-ir", func(NodeID, *EvaluationContext[int, int]) (Outcome[int, int], error) {
		return Outcome[int, int]{}, boom
	})
	n := g.CreateNode("template-ir", "a")

	_, err := g.Pull(n)
	assert.ErrorIs(t, err, boom)
}
