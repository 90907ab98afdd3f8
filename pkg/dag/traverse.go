package dag

import "github.com/RoaringBitmap/roaring/v2"

// BFS returns the nodes reachable from start (start included) in
// breadth-first, first-discovered order. Children are visited in insertion
// order, which makes the traversal deterministic.
func (g *Graph) BFS(start NodeID) []NodeID {
	if !g.Has(start) {
		return nil
	}
	seen := make([]bool, len(g.nodes))
	seen[start] = true
	order := []NodeID{start}
	for i := 0; i < len(order); i++ {
		for _, c := range g.out[order[i]] {
			if !seen[c] {
				seen[c] = true
				order = append(order, c)
			}
		}
	}
	return order
}

// Descendants returns every node reachable from id, excluding id itself,
// in breadth-first order.
func (g *Graph) Descendants(id NodeID) []NodeID {
	order := g.BFS(id)
	if len(order) == 0 {
		return nil
	}
	return order[1:]
}

// HasPath reports whether to is reachable from from. A node reaches itself.
func (g *Graph) HasPath(from, to NodeID) bool {
	if !g.Has(from) || !g.Has(to) {
		return false
	}
	if from == to {
		return true
	}
	seen := make([]bool, len(g.nodes))
	seen[from] = true
	queue := []NodeID{from}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, c := range g.out[curr] {
			if c == to {
				return true
			}
			if !seen[c] {
				seen[c] = true
				queue = append(queue, c)
			}
		}
	}
	return false
}

// Distances returns the unweighted shortest-path length from source to every
// node, indexed by NodeID. Unreachable or removed nodes get -1.
func (g *Graph) Distances(source NodeID) []int {
	dist := make([]int, len(g.nodes))
	for i := range dist {
		dist[i] = -1
	}
	if !g.Has(source) {
		return dist
	}
	dist[source] = 0
	queue := []NodeID{source}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, c := range g.out[curr] {
			if dist[c] < 0 {
				dist[c] = dist[curr] + 1
				queue = append(queue, c)
			}
		}
	}
	return dist
}

// TopoOrder returns the live nodes in a topological order using Kahn's
// algorithm. Sources are seeded in ascending ID order and children are
// released in insertion order, so the result is deterministic.
// Returns ErrGraphHasCycle when not every node can be ordered.
func (g *Graph) TopoOrder() ([]NodeID, error) {
	inDegree := make([]int, len(g.nodes))
	queue := make([]NodeID, 0, g.live)
	for i, n := range g.nodes {
		if n == nil {
			continue
		}
		inDegree[i] = len(g.in[i])
		if inDegree[i] == 0 {
			queue = append(queue, NodeID(i))
		}
	}

	order := make([]NodeID, 0, g.live)
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr)

		for _, child := range g.out[curr] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if len(order) != g.live {
		return nil, ErrGraphHasCycle
	}
	return order, nil
}

// AncestorSets returns, for every node, the set of its proper ancestors as a
// roaring bitmap of NodeIDs, indexed by NodeID (nil for removed nodes).
//
// Sets are built in topological order: anc(v) = ∪ anc(p) ∪ {p} over the
// parents p of v.
func (g *Graph) AncestorSets() ([]*roaring.Bitmap, error) {
	order, err := g.TopoOrder()
	if err != nil {
		return nil, err
	}
	anc := make([]*roaring.Bitmap, len(g.nodes))
	for _, id := range order {
		set := roaring.New()
		for _, p := range g.in[id] {
			set.Or(anc[p])
			set.Add(uint32(p))
		}
		anc[id] = set
	}
	return anc, nil
}

// ChildSet returns the children of id as a bitmap.
func (g *Graph) ChildSet(id NodeID) *roaring.Bitmap {
	set := roaring.New()
	for _, c := range g.Children(id) {
		set.Add(uint32(c))
	}
	return set
}
