// Package transform provides the graph transformations that turn a candidate
// graph into a clean hierarchy.
//
// # Overview
//
// The weaver produces a candidate graph in which every sufficiently
// contained cluster points at every cluster containing it. That graph is far
// denser than a hierarchy should be. The transformations here thin it out:
//
//   - [RemoveRedundantEdges] drops parent edges implied by a longer path
//   - [Prune] removes dead ends and collapses single-branch clusters
//   - [AssignDepths] and [AssignReverseDepths] compute node depths
//
// # Redundant Edges
//
// If A→B, B→C and A→C all exist, then A→C is redundant and removed. The
// check runs per node against precomputed ancestor bitmaps, so it
// parallelizes across nodes without coordination.
//
// # Pruning
//
// Pruning runs after parents have been selected. Removing secondary parents
// can leave clusters without children (dead ends) and chains of clusters that
// add no branching (single branches); both are removed.
//
// # Usage
//
//	if _, err := transform.RemoveRedundantEdges(g, 0); err != nil {
//		return err
//	}
//	res := transform.Prune(g, transform.PruneOptions{})
//	depths := transform.AssignDepths(g, g.Root())
package transform
