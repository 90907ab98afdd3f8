package transform

import (
	"slices"

	"github.com/matzehuels/hiweave/pkg/dag"
)

// PruneOptions configures [Prune].
type PruneOptions struct {
	// StrictSingleBranch collapses only clusters with exactly one child.
	// By default a cluster also collapses when it has exactly one internal
	// child and any number of terminal children.
	StrictSingleBranch bool
}

// PruneResult reports what [Prune] removed.
type PruneResult struct {
	DeadEnds  int // internal nodes removed for having no children
	Collapsed int // single-branch clusters merged into their parent
}

// Prune simplifies a hierarchy in place.
//
// First it removes dead ends: internal nodes without children. Removing one
// can turn its parents into dead ends, so removal cascades until every
// internal node has at least one child.
//
// Then it collapses single-branch clusters in one pass over the
// breadth-first order taken before any collapse. An internal node with
// exactly one parent p that qualifies as a single branch (see
// [PruneOptions]) when it is reached is removed, and each of its children c
// is attached to p with weight w(p→node) + w(node→c), overwriting any edge
// p→c already present. Chains collapse in that pass because each collapse
// hands its children to a node that was already visited.
//
// A collapse can leave an already-visited ancestor with a single branch;
// the pass does not go back for it, so a second Prune may collapse more.
func Prune(g *dag.Graph, opts PruneOptions) PruneResult {
	return PruneResult{
		DeadEnds:  removeDeadEnds(g),
		Collapsed: collapsePass(g, opts.StrictSingleBranch),
	}
}

func removeDeadEnds(g *dag.Graph) int {
	var queue []dag.NodeID
	for _, id := range g.NodeIDs() {
		if g.IsInternal(id) && g.OutDegree(id) == 0 {
			queue = append(queue, id)
		}
	}

	removed := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if !g.Has(id) || g.OutDegree(id) != 0 {
			continue
		}
		parents := slices.Clone(g.Parents(id))
		g.RemoveNode(id)
		removed++
		for _, p := range parents {
			if g.IsInternal(p) && g.OutDegree(p) == 0 {
				queue = append(queue, p)
			}
		}
	}
	return removed
}

func collapsePass(g *dag.Graph, strict bool) int {
	root := g.Root()
	if root == dag.NoNode {
		return 0
	}

	collapsed := 0
	for _, id := range g.BFS(root) {
		if !isSingleBranch(g, id, strict) {
			continue
		}
		parent := g.Parents(id)[0]
		w1, _ := g.Weight(parent, id)
		for _, child := range slices.Clone(g.Children(id)) {
			w2, _ := g.Weight(id, child)
			_ = g.SetEdge(parent, child, w1+w2)
		}
		g.RemoveNode(id)
		collapsed++
	}
	return collapsed
}

func isSingleBranch(g *dag.Graph, id dag.NodeID, strict bool) bool {
	if !g.IsInternal(id) || g.InDegree(id) != 1 {
		return false
	}
	if strict {
		return g.OutDegree(id) == 1
	}
	switch g.InternalOutDegree(id) {
	case 0:
		return g.OutDegree(id) == 1
	case 1:
		return true
	default:
		return false
	}
}
