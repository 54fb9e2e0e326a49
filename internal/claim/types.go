package claim

// Kind categorizes nodes. Each kind may have at most one evaluation
// callback registered; nodes of a kind without a callback behave as
// implicit inputs.
type Kind string

// NodeID is an opaque handle for a node within one graph instance. IDs are
// dense, assigned in creation order, and never reused for a different
// (kind, key) pair. IDs must not be shared across graph instances.
type NodeID int

// Freshness tracks whether a node's cached values are trustworthy.
type Freshness uint8

const (
	// Unevaluated means the node has been created but never evaluated or
	// seeded with an input value.
	Unevaluated Freshness = iota
	// Stale means the node has values, but a transitive input changed since
	// they were computed.
	Stale
	// Fresh means the cached values reflect the current inputs.
	Fresh
)

// String returns the lower-case name of the freshness state.
func (f Freshness) String() string {
	switch f {
	case Unevaluated:
		return "unevaluated"
	case Stale:
		return "stale"
	case Fresh:
		return "fresh"
	default:
		return "unknown"
	}
}

// EdgeKind distinguishes how a dependent uses a dependency.
type EdgeKind uint8

const (
	// EdgeCompleteness records that the dependent only cares that the
	// dependency's computation occurred, not what it produced.
	EdgeCompleteness EdgeKind = iota
	// EdgeData records that the dependent read the dependency's value and
	// must be invalidated when that value changes. A data edge subsumes a
	// completeness edge between the same pair.
	EdgeData
)

// String returns the lower-case name of the edge kind.
func (k EdgeKind) String() string {
	if k == EdgeData {
		return "data"
	}
	return "completeness"
}

// Edge is one directed dependency edge: From is the dependency, To is the
// dependent that read it.
type Edge struct {
	From NodeID
	To   NodeID
	Kind EdgeKind
}

// Outcome is what an evaluation callback produces for its node: the green
// comparison value and the red result value.
type Outcome[G comparable, R any] struct {
	Green G
	Red   R
}

// Callback evaluates one node. It must be pure given the dependencies it
// pulls, and may only read graph state through the provided context.
type Callback[G comparable, R any] func(id NodeID, ec *EvaluationContext[G, R]) (Outcome[G, R], error)

// Result is what Pull returns for a node.
type Result[G comparable, R any] struct {
	// Value is the node's red value. When IsCycle is true this is the
	// last-known (possibly stale) value.
	Value R
	// Green is the node's green value, under the same caveat.
	Green G
	// IsCycle reports that the node was already being evaluated higher on
	// the call stack and could not be safely re-entered.
	IsCycle bool
	// ForwardRef carries the best-known snapshot when IsCycle is true.
	ForwardRef *ForwardRef[G, R]
}

// ForwardRef is the placeholder handed out when a cycle is detected
// mid-evaluation: the node's identity plus the values it had before the
// current evaluation pass.
type ForwardRef[G comparable, R any] struct {
	Node          NodeID
	PreviousGreen G
	PreviousRed   R
}

// ConvergenceResult reports the outcome of a fixed-point iteration over a
// set of cycle participants.
type ConvergenceResult struct {
	// Converged is true if every participant's green value stabilized
	// within the budget.
	Converged bool
	// Iterations is the number of passes performed.
	Iterations int
	// Participants is the node set that was iterated, in evaluation order.
	Participants []NodeID
}

// StalenessHandler receives batched notifications when nodes become stale.
// One batch is delivered per externally triggered mutation, never one call
// per node.
type StalenessHandler interface {
	OnNodesStale(batch []NodeID)
}

// NodeInfo is a read-only snapshot of a node, for tests and diagnostics.
type NodeInfo[G comparable, R any] struct {
	ID        NodeID
	Kind      Kind
	Key       string
	Freshness Freshness
	Green     G
	Red       R
}

// Options configures a graph instance.
type Options struct {
	// ConvergenceBudget bounds the number of fixed-point passes run when a
	// dependency cycle is detected. Zero selects DefaultConvergenceBudget.
	ConvergenceBudget int
}

// DefaultConvergenceBudget is used when Options.ConvergenceBudget is zero.
const DefaultConvergenceBudget = 16
