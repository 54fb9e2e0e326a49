// Package claim implements the incremental computation graph ("claim graph")
// that drives project-wide semantic analysis.
//
// # Why Claim Graph Exists
//
// Re-analyzing a whole project on every keystroke does not scale. The claim
// graph memoizes every unit of analysis as a node, records which nodes were
// read while computing each node as edges, and re-runs only the work whose
// inputs actually changed. Everything the analyzer knows (file contents,
// lowered template IR, discovered resources, resolved bindings) is a node
// in one graph per session.
//
// # Green and Red Values
//
// Every node carries two values. The green value is a cheap comparison key
// (typically a content digest) used only to decide whether dependents must
// be invalidated. The red value is the real result returned to callers. A
// re-evaluation that produces a new red value but an unchanged green value
// propagates no staleness: dependents are insulated from changes that do
// not affect what they observed ("cutoff").
//
// # Lifecycle
//
//  1. Collaborators register one evaluation callback per node kind.
//  2. Leaf values are seeded with SetInputValue.
//  3. Pull returns cached results for fresh nodes and re-invokes callbacks
//     for stale or unevaluated ones, re-capturing dependency edges as the
//     callback reads other nodes through its EvaluationContext.
//  4. When a callback pulls a node already being evaluated higher on the
//     call stack, Pull returns the node's last-known values together with a
//     forward reference instead of recursing. Once the outermost evaluation
//     involved in the cycle completes, the graph re-evaluates the cycle
//     participants to a fixed point, bounded by the convergence budget.
//
// # Concurrency
//
// A graph instance is single-threaded by contract: all mutation must happen
// on one goroutine. There is no locking because there is no parallelism;
// callers that want to share a graph across goroutines must add their own
// exclusive-access discipline.
package claim
