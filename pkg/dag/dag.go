package dag

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnknownNode is returned by [Graph.SetEdge] when either endpoint is not
	// part of the graph (never added, or removed).
	ErrUnknownNode = errors.New("unknown node")

	// ErrSelfLoop is returned by [Graph.SetEdge] when From == To.
	ErrSelfLoop = errors.New("self loop")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrGraphHasCycle is returned by [Graph.Validate] and [Graph.TopoOrder]
	// when a directed cycle is detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")

	// ErrNoSource is returned by [Graph.Validate] when a non-empty graph has
	// no in-degree-0 node.
	ErrNoSource = errors.New("graph has no source node")

	// ErrMultipleSources is returned by [Graph.Validate] when more than one
	// node has in-degree 0. A hierarchy has exactly one root.
	ErrMultipleSources = errors.New("graph has more than one source node")
)

// NodeID is a stable handle into the node arena of a [Graph].
// IDs are assigned in insertion order, are never reused within a graph, and
// survive [Graph.Clone].
type NodeID int

// NoNode is the zero handle returned when a lookup fails.
const NoNode NodeID = -1

// Kind tags the two node variants of a hierarchy.
type Kind uint8

const (
	// KindInternal is a cluster (or the synthetic root).
	KindInternal Kind = iota
	// KindTerminal is an atomic item being clustered.
	KindTerminal
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is a vertex of the hierarchy.
//
// Internal nodes are identified by (Partition, Occurrence); Row is their row
// in the assignment matrix. The synthetic root is the internal node with
// Partition == -1. Terminal nodes use Terminal (0..n-1) and Label.
type Node struct {
	ID   NodeID
	Kind Kind

	Partition  int     // originating partition, -1 for the synthetic root
	Occurrence int     // index of the cluster within its partition
	Row        int     // assignment-matrix row, -1 for the synthetic root
	Level      float64 // ordering key of the originating partition

	Terminal int    // terminal index, internal nodes use -1
	Label    string // source label (cluster label or terminal label)
}

// IsTerminal reports whether the node is a terminal.
func (n Node) IsTerminal() bool { return n.Kind == KindTerminal }

// IsInternal reports whether the node is a cluster or the root.
func (n Node) IsInternal() bool { return n.Kind == KindInternal }

// IsVirtual reports whether the node is the synthetic root added when the
// candidate graph has more than one source.
func (n Node) IsVirtual() bool { return n.Kind == KindInternal && n.Partition < 0 }

// EdgeKey identifies a directed edge parent → child.
type EdgeKey struct {
	From NodeID
	To   NodeID
}

// Edge is a weighted directed edge parent → child.
type Edge struct {
	From   NodeID
	To     NodeID
	Weight float64
}

// Key returns the (From, To) pair of the edge.
func (e Edge) Key() EdgeKey { return EdgeKey{From: e.From, To: e.To} }

// Graph is a directed graph over an arena of nodes addressed by [NodeID].
// Adjacency is kept in both directions so parent and child queries are O(1);
// edge weights live in a side table.
//
// The zero value is not usable - use New to create a valid Graph instance.
// Graph is not safe for concurrent use without external synchronization.
// Read-only methods may be called concurrently when no goroutine mutates.
type Graph struct {
	nodes   []*Node    // arena; nil once removed
	out     [][]NodeID // parent -> children, insertion order
	in      [][]NodeID // child -> parents, insertion order
	weights map[EdgeKey]float64
	live    int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{weights: make(map[EdgeKey]float64)}
}

// AddNode appends n to the arena and returns its handle. n.ID is ignored.
func (g *Graph) AddNode(n Node) NodeID {
	id := NodeID(len(g.nodes))
	n.ID = id
	g.nodes = append(g.nodes, &n)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	g.live++
	return id
}

// AddInternal adds a cluster node.
func (g *Graph) AddInternal(partition, occurrence, row int, label string, level float64) NodeID {
	return g.AddNode(Node{
		Kind:       KindInternal,
		Partition:  partition,
		Occurrence: occurrence,
		Row:        row,
		Level:      level,
		Terminal:   -1,
		Label:      label,
	})
}

// AddVirtualRoot adds the synthetic root (level -1).
func (g *Graph) AddVirtualRoot() NodeID {
	return g.AddInternal(-1, 0, -1, "root", -1)
}

// AddTerminal adds a terminal node.
func (g *Graph) AddTerminal(index int, label string) NodeID {
	return g.AddNode(Node{
		Kind:       KindTerminal,
		Partition:  -1,
		Occurrence: -1,
		Row:        -1,
		Terminal:   index,
		Label:      label,
	})
}

// Has reports whether id refers to a live node.
func (g *Graph) Has(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes) && g.nodes[id] != nil
}

// Node returns a copy of the node with the given handle.
func (g *Graph) Node(id NodeID) (Node, bool) {
	if !g.Has(id) {
		return Node{}, false
	}
	return *g.nodes[id], true
}

// IsTerminal reports whether id is a live terminal node.
func (g *Graph) IsTerminal(id NodeID) bool {
	return g.Has(id) && g.nodes[id].Kind == KindTerminal
}

// IsInternal reports whether id is a live internal node.
func (g *Graph) IsInternal(id NodeID) bool {
	return g.Has(id) && g.nodes[id].Kind == KindInternal
}

// RemoveNode deletes the node and every incident edge. Unknown IDs are ignored.
func (g *Graph) RemoveNode(id NodeID) {
	if !g.Has(id) {
		return
	}
	for _, c := range g.out[id] {
		g.in[c] = slices.DeleteFunc(g.in[c], func(p NodeID) bool { return p == id })
		delete(g.weights, EdgeKey{id, c})
	}
	for _, p := range g.in[id] {
		g.out[p] = slices.DeleteFunc(g.out[p], func(c NodeID) bool { return c == id })
		delete(g.weights, EdgeKey{p, id})
	}
	g.out[id] = nil
	g.in[id] = nil
	g.nodes[id] = nil
	g.live--
}

// SetEdge adds the edge from → to with weight w, or overwrites the weight
// when the edge already exists. Adjacency order is insertion order, so an
// overwrite keeps the edge's original position.
func (g *Graph) SetEdge(from, to NodeID, w float64) error {
	if !g.Has(from) || !g.Has(to) {
		return fmt.Errorf("%w: %d->%d", ErrUnknownNode, from, to)
	}
	if from == to {
		return fmt.Errorf("%w: %d", ErrSelfLoop, from)
	}
	key := EdgeKey{from, to}
	if _, ok := g.weights[key]; !ok {
		g.out[from] = append(g.out[from], to)
		g.in[to] = append(g.in[to], from)
	}
	g.weights[key] = w
	return nil
}

// HasEdge reports whether the edge from → to exists.
func (g *Graph) HasEdge(from, to NodeID) bool {
	_, ok := g.weights[EdgeKey{from, to}]
	return ok
}

// Weight returns the weight of from → to.
func (g *Graph) Weight(from, to NodeID) (float64, bool) {
	w, ok := g.weights[EdgeKey{from, to}]
	return w, ok
}

// RemoveEdge removes from → to and reports whether it existed.
func (g *Graph) RemoveEdge(from, to NodeID) bool {
	key := EdgeKey{from, to}
	if _, ok := g.weights[key]; !ok {
		return false
	}
	delete(g.weights, key)
	g.out[from] = slices.DeleteFunc(g.out[from], func(c NodeID) bool { return c == to })
	g.in[to] = slices.DeleteFunc(g.in[to], func(p NodeID) bool { return p == from })
	return true
}

// Children returns the children of id in insertion order.
// The returned slice should not be modified - use it as a read-only view.
func (g *Graph) Children(id NodeID) []NodeID {
	if !g.Has(id) {
		return nil
	}
	return g.out[id]
}

// Parents returns the parents of id in insertion order.
// The returned slice should not be modified - use it as a read-only view.
func (g *Graph) Parents(id NodeID) []NodeID {
	if !g.Has(id) {
		return nil
	}
	return g.in[id]
}

// OutDegree returns the number of children of id, 0 for unknown nodes.
func (g *Graph) OutDegree(id NodeID) int { return len(g.Children(id)) }

// InDegree returns the number of parents of id, 0 for unknown nodes.
func (g *Graph) InDegree(id NodeID) int { return len(g.Parents(id)) }

// InternalOutDegree counts the internal children of id.
func (g *Graph) InternalOutDegree(id NodeID) int {
	n := 0
	for _, c := range g.Children(id) {
		if g.nodes[c].Kind == KindInternal {
			n++
		}
	}
	return n
}

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int { return g.live }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.weights) }

// Cap returns the size of the node arena: every handle ever issued is < Cap.
// Slices indexed by NodeID should have this length.
func (g *Graph) Cap() int { return len(g.nodes) }

// NodeIDs returns the handles of all live nodes in ascending order.
func (g *Graph) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, g.live)
	for i, n := range g.nodes {
		if n != nil {
			ids = append(ids, NodeID(i))
		}
	}
	return ids
}

// Nodes returns copies of all live nodes in ascending ID order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, g.live)
	for _, n := range g.nodes {
		if n != nil {
			nodes = append(nodes, *n)
		}
	}
	return nodes
}

// Edges returns all edges ordered by parent ID, then by child insertion order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.weights))
	for i, n := range g.nodes {
		if n == nil {
			continue
		}
		from := NodeID(i)
		for _, to := range g.out[i] {
			edges = append(edges, Edge{From: from, To: to, Weight: g.weights[EdgeKey{from, to}]})
		}
	}
	return edges
}

// Sources returns the in-degree-0 nodes in ascending ID order.
func (g *Graph) Sources() []NodeID {
	var sources []NodeID
	for i, n := range g.nodes {
		if n != nil && len(g.in[i]) == 0 {
			sources = append(sources, NodeID(i))
		}
	}
	return sources
}

// Root returns the first in-degree-0 node, or NoNode for an empty graph.
func (g *Graph) Root() NodeID {
	for i, n := range g.nodes {
		if n != nil && len(g.in[i]) == 0 {
			return NodeID(i)
		}
	}
	return NoNode
}

// Clone returns a deep copy. Handles are preserved.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes:   make([]*Node, len(g.nodes)),
		out:     make([][]NodeID, len(g.out)),
		in:      make([][]NodeID, len(g.in)),
		weights: make(map[EdgeKey]float64, len(g.weights)),
		live:    g.live,
	}
	for i, n := range g.nodes {
		if n != nil {
			cp := *n
			c.nodes[i] = &cp
		}
		c.out[i] = slices.Clone(g.out[i])
		c.in[i] = slices.Clone(g.in[i])
	}
	for k, w := range g.weights {
		c.weights[k] = w
	}
	return c
}

// Validate checks graph integrity and returns nil if valid.
// It verifies three constraints:
//
//  1. All edges connect live nodes
//  2. The graph is acyclic
//  3. Exactly one node has in-degree 0
//
// Cycle detection runs in O(N+E) time using depth-first search.
func (g *Graph) Validate() error {
	if err := g.validateEdgeConsistency(); err != nil {
		return err
	}
	if err := g.detectCycles(); err != nil {
		return err
	}
	if g.live == 0 {
		return nil
	}
	switch len(g.Sources()) {
	case 0:
		return ErrNoSource
	case 1:
		return nil
	default:
		return ErrMultipleSources
	}
}

func (g *Graph) validateEdgeConsistency() error {
	for k := range g.weights {
		if !g.Has(k.From) || !g.Has(k.To) {
			return ErrInvalidEdgeEndpoint
		}
	}
	return nil
}

func (g *Graph) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make([]uint8, len(g.nodes))
	var hasCycle bool

	var dfs func(id NodeID)
	dfs = func(id NodeID) {
		color[id] = gray
		for _, child := range g.out[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for i, n := range g.nodes {
		if n != nil && color[i] == white {
			dfs(NodeID(i))
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}
