package transform

import (
	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/hiweave/internal/parallel"
	"github.com/matzehuels/hiweave/pkg/dag"
)

// RemoveRedundantEdges removes grandparent shortcuts from the graph.
//
// An edge p → v is redundant when p also reaches v through one of its other
// children: p has a child c that is an ancestor of v. For example, if edges
// A→B, B→C and A→C all exist, A is a grandparent of C and A→C is removed.
//
// # Algorithm
//
// Proper-ancestor sets are computed once, as roaring bitmaps, in topological
// order. For each node v and each parent p, the check is a single bitmap
// intersection children(p) ∩ anc(v). Every check reads the graph as it was
// on entry; removals are applied afterwards in ascending node order, so the
// result does not depend on how the checks were scheduled.
//
// On an acyclic graph this yields the same edge set as a full transitive
// reduction, because any alternate path p ⇝ v starts with an edge p → c to a
// child c that is an ancestor of v.
//
// # Parallelism
//
// The per-node checks are independent and run on up to workers goroutines
// (workers <= 0 uses GOMAXPROCS).
//
// Returns the number of removed edges, or dag.ErrGraphHasCycle when the
// graph is not acyclic (the graph is left unchanged).
func RemoveRedundantEdges(g *dag.Graph, workers int) (int, error) {
	anc, err := g.AncestorSets()
	if err != nil {
		return 0, err
	}

	ids := g.NodeIDs()
	childSets := make([]*roaring.Bitmap, g.Cap())
	for _, id := range ids {
		if g.OutDegree(id) > 0 {
			childSets[id] = g.ChildSet(id)
		}
	}

	redundant := make([][]dag.NodeID, len(ids))
	var eg errgroup.Group
	eg.SetLimit(parallel.Limit(workers))
	for i, v := range ids {
		if g.InDegree(v) < 2 {
			continue
		}
		eg.Go(func() error {
			for _, p := range g.Parents(v) {
				if childSets[p].Intersects(anc[v]) {
					redundant[i] = append(redundant[i], p)
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	removed := 0
	for i, v := range ids {
		for _, p := range redundant[i] {
			if g.RemoveEdge(p, v) {
				removed++
			}
		}
	}
	return removed, nil
}
