// Package topology implements the incremental graph reconciliation engine.
//
// A Store holds the ordered node collection and the edge collection. Nodes
// are addressed by position; edges store endpoint identities and are
// published as position pairs, so removing a node renumbers every edge
// that references a later position without rewriting the edges themselves.
//
// # Reconciliation
//
// Reconciler merges each snapshot into the Store: records are matched by
// identity and overwritten in place, new records are appended, declared
// neighbors of terminal nodes are resolved into edges (creating placeholder
// nodes where the neighbor has not been seen yet), and anything not marked
// during the cycle is pruned.
//
// # Collapsing
//
// Collapse derives shortcut edges that connect terminal nodes directly across
// one intermediate node. The result is rebuilt from scratch after every cycle.
//
// # View policy
//
// SelectMode and Policy choose between full and collapsed rendering from a
// visible node count and a density threshold.
//
// A Store is not safe for concurrent use. The owner serializes cycles and
// hands readers immutable publications.
package topology
