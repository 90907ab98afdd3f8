// Package dag provides the directed graph that backs a woven hierarchy.
//
// # Overview
//
// A hierarchy is a DAG whose internal nodes are clusters taken from the input
// partitions and whose sinks are the terminals being clustered. Edges point
// from parent to child. This package provides a purpose-built adjacency
// structure for that shape rather than a generic attributed multigraph:
//
//   - Nodes live in an arena and are addressed by stable integer handles
//     ([NodeID]). Handles are never reused and survive [Graph.Clone], so a
//     candidate graph and every hierarchy picked from it share node identity.
//   - Forward and backward adjacency lists give O(1) parent, child and degree
//     queries, in insertion order.
//   - Edge weights live in a side table keyed by [EdgeKey].
//
// # Node Kinds
//
// [Node] is a tagged variant:
//
//   - [KindInternal]: a cluster identified by (Partition, Occurrence), or the
//     synthetic root (Partition -1, level -1)
//   - [KindTerminal]: an atomic item, identified by its terminal index
//
// # Traversals
//
// [Graph.BFS], [Graph.Distances], [Graph.HasPath] and [Graph.TopoOrder] cover
// the root-relative queries the weaver needs. [Graph.AncestorSets] returns
// proper-ancestor sets as roaring bitmaps, which keeps the redundancy scans
// over large candidate graphs compact.
//
// # Concurrency
//
// Graph instances are not safe for concurrent mutation. Read-only methods can
// run in parallel across goroutines as long as no goroutine modifies the
// graph.
//
// # Related Packages
//
// The [transform] subpackage provides the hierarchy transformations:
//   - Redundant-edge removal
//   - Pruning (dead ends, single-branch collapse)
//   - Depth assignment
//
// [transform]: github.com/matzehuels/hiweave/pkg/dag/transform
package dag
