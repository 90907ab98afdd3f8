package transform

import "github.com/matzehuels/hiweave/pkg/dag"

// AssignDepths computes, for every node reachable from root, its minimum
// number of edges from root. The result is indexed by NodeID; unreachable
// and removed nodes get -1.
//
// # Algorithm
//
// AssignDepths relaxes depths breadth-first: a child is (re)queued whenever
// a shorter path to it is found. With unit weights this settles in a single
// visit per node, so the cost is O(V + E).
func AssignDepths(g *dag.Graph, root dag.NodeID) []int {
	depths := make([]int, g.Cap())
	for i := range depths {
		depths[i] = -1
	}
	if !g.Has(root) {
		return depths
	}

	depths[root] = 0
	queue := []dag.NodeID{root}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		next := depths[curr] + 1
		for _, child := range g.Children(curr) {
			if d := depths[child]; d >= 0 && d <= next {
				continue
			}
			depths[child] = next
			queue = append(queue, child)
		}
	}
	return depths
}

// AssignReverseDepths computes depths measured upwards from the terminals:
// every terminal is at 0 and a parent sits one above the closest of its
// children, so values are <= 0. Nodes that cannot reach a terminal are
// absent from the result.
func AssignReverseDepths(g *dag.Graph) map[dag.NodeID]int {
	depths := make(map[dag.NodeID]int)
	var queue []dag.NodeID
	for _, id := range g.NodeIDs() {
		if g.IsTerminal(id) {
			depths[id] = 0
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		next := depths[curr] - 1
		for _, parent := range g.Parents(curr) {
			if d, ok := depths[parent]; ok && d >= next {
				continue
			}
			depths[parent] = next
			queue = append(queue, parent)
		}
	}
	return depths
}
