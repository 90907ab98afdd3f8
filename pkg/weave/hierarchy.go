package weave

import (
	"slices"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hiweave/pkg/dag"
	"github.com/matzehuels/hiweave/pkg/errors"
)

// Hierarchy is a picked, pruned and depth-annotated DAG. It is immutable
// once returned and safe for concurrent reads.
type Hierarchy struct {
	graph   *dag.Graph
	root    dag.NodeID
	depths  []int
	reverse map[dag.NodeID]int

	terminals    []dag.NodeID // by terminal index
	labels       []string
	assumeLevels bool
	logger       *log.Logger
}

// Stats summarizes a hierarchy.
type Stats struct {
	Nodes     int
	Edges     int
	Clusters  int
	Terminals int
	MaxDepth  int
}

// Graph returns a copy of the underlying graph.
func (h *Hierarchy) Graph() *dag.Graph { return h.graph.Clone() }

// Root returns the single in-degree-0 node.
func (h *Hierarchy) Root() dag.NodeID { return h.root }

// Node returns the node with handle id.
func (h *Hierarchy) Node(id dag.NodeID) (dag.Node, bool) { return h.graph.Node(id) }

// Nodes returns all nodes in ascending handle order.
func (h *Hierarchy) Nodes() []dag.Node { return h.graph.Nodes() }

// Children returns the children of id in insertion order.
func (h *Hierarchy) Children(id dag.NodeID) []dag.NodeID {
	return slices.Clone(h.graph.Children(id))
}

// Parents returns the parents of id in insertion order.
func (h *Hierarchy) Parents(id dag.NodeID) []dag.NodeID {
	return slices.Clone(h.graph.Parents(id))
}

// Terminals returns the terminal labels in index order.
func (h *Hierarchy) Terminals() []string { return slices.Clone(h.labels) }

// TerminalNode returns the node of the terminal with the given index.
func (h *Hierarchy) TerminalNode(index int) (dag.NodeID, bool) {
	if index < 0 || index >= len(h.terminals) {
		return dag.NoNode, false
	}
	return h.terminals[index], true
}

// AssumedLevels reports whether the hierarchy was built with level ordering.
func (h *Hierarchy) AssumedLevels() bool { return h.assumeLevels }

// Depth returns the shortest-path distance from the root to id.
func (h *Hierarchy) Depth(id dag.NodeID) (int, bool) {
	if !h.graph.Has(id) || h.depths[id] < 0 {
		return 0, false
	}
	return h.depths[id], true
}

// Depths returns the depth of every node.
func (h *Hierarchy) Depths() map[dag.NodeID]int {
	out := make(map[dag.NodeID]int, h.graph.NodeCount())
	for _, id := range h.graph.NodeIDs() {
		if d := h.depths[id]; d >= 0 {
			out[id] = d
		}
	}
	return out
}

// ReverseDepth returns the bottom-up depth of id: 0 for terminals and one
// less than the closest child otherwise.
func (h *Hierarchy) ReverseDepth(id dag.NodeID) (int, bool) {
	d, ok := h.reverse[id]
	return d, ok
}

// Level returns the level of an internal node. Terminals have no level.
func (h *Hierarchy) Level(id dag.NodeID) (float64, bool) {
	n, ok := h.graph.Node(id)
	if !ok || n.IsTerminal() {
		return 0, false
	}
	return n.Level, true
}

// Levels returns the level of every internal node.
func (h *Hierarchy) Levels() map[dag.NodeID]float64 {
	out := make(map[dag.NodeID]float64)
	for _, n := range h.graph.Nodes() {
		if n.IsInternal() {
			out[n.ID] = n.Level
		}
	}
	return out
}

// LevelValues returns the distinct levels of the internal nodes, ascending.
func (h *Hierarchy) LevelValues() []float64 {
	var levels []float64
	for _, n := range h.graph.Nodes() {
		if n.IsInternal() {
			levels = append(levels, n.Level)
		}
	}
	slices.Sort(levels)
	return slices.Compact(levels)
}

// SomeNode returns the first internal node with the given level.
func (h *Hierarchy) SomeNode(level float64) (dag.NodeID, bool) {
	for _, n := range h.graph.Nodes() {
		if n.IsInternal() && n.Level == level {
			return n.ID, true
		}
	}
	return dag.NoNode, false
}

// MaxDepth returns the largest terminal depth.
func (h *Hierarchy) MaxDepth() int {
	maxDepth := 0
	for _, id := range h.terminals {
		maxDepth = max(maxDepth, h.depths[id])
	}
	return maxDepth
}

// AllDepths returns the distinct node depths, ascending. Terminal depths are
// included only when includeTerminals is set.
func (h *Hierarchy) AllDepths(includeTerminals bool) []int {
	var depths []int
	for _, id := range h.graph.NodeIDs() {
		if !includeTerminals && h.graph.IsTerminal(id) {
			continue
		}
		if d := h.depths[id]; d >= 0 {
			depths = append(depths, d)
		}
	}
	slices.Sort(depths)
	return slices.Compact(depths)
}

// HasAnyTerminal reports whether id has a terminal child.
func (h *Hierarchy) HasAnyTerminal(id dag.NodeID) bool {
	return slices.ContainsFunc(h.graph.Children(id), h.graph.IsTerminal)
}

// NodeCluster returns the membership of the cluster represented by id: its
// terminal descendants, or the terminal itself.
func (h *Hierarchy) NodeCluster(id dag.NodeID) ([]bool, error) {
	if !h.graph.Has(id) {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "node %d is not in the hierarchy", id)
	}
	out := make([]bool, len(h.terminals))
	h.fillCluster(id, out)
	return out, nil
}

func (h *Hierarchy) fillCluster(id dag.NodeID, out []bool) {
	if n, _ := h.graph.Node(id); n.IsTerminal() {
		out[n.Terminal] = true
		return
	}
	for _, d := range h.graph.Descendants(id) {
		if n, _ := h.graph.Node(d); n.IsTerminal() {
			out[n.Terminal] = true
		}
	}
}

// Edges returns the edges in top-down order: nodes breadth-first from the
// root, each with its children in insertion order.
func (h *Hierarchy) Edges() []dag.Edge {
	edges := make([]dag.Edge, 0, h.graph.EdgeCount())
	for _, id := range h.graph.BFS(h.root) {
		for _, c := range h.graph.Children(id) {
			w, _ := h.graph.Weight(id, c)
			edges = append(edges, dag.Edge{From: id, To: c, Weight: w})
		}
	}
	return edges
}

// Key returns the external name of a node: "<level>_<index>" for internal
// nodes, index being the assignment row (-1 for the virtual root), and the
// label for terminals.
func (h *Hierarchy) Key(id dag.NodeID) string {
	n, ok := h.graph.Node(id)
	if !ok {
		return ""
	}
	return nodeKey(n)
}

func nodeKey(n dag.Node) string {
	if n.IsTerminal() {
		return n.Label
	}
	return strconv.FormatFloat(n.Level, 'g', -1, 64) + "_" + strconv.Itoa(n.Row)
}

// Stats summarizes the hierarchy.
func (h *Hierarchy) Stats() Stats {
	return Stats{
		Nodes:     h.graph.NodeCount(),
		Edges:     h.graph.EdgeCount(),
		Clusters:  h.graph.NodeCount() - len(h.terminals),
		Terminals: len(h.terminals),
		MaxDepth:  h.MaxDepth(),
	}
}

// Validate checks the hierarchy invariants: a single root, no cycles, every
// terminal attached, no childless cluster, and depths equal to shortest-path
// distances from the root.
func (h *Hierarchy) Validate() error {
	if err := h.graph.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "invalid hierarchy")
	}
	for _, id := range h.terminals {
		if h.graph.InDegree(id) == 0 {
			return errors.New(errors.ErrCodeInternal, "terminal %q has no parent", h.Key(id))
		}
	}
	dist := h.graph.Distances(h.root)
	for _, id := range h.graph.NodeIDs() {
		if h.graph.IsInternal(id) && h.graph.OutDegree(id) == 0 {
			return errors.New(errors.ErrCodeInternal, "cluster %s has no children", h.Key(id))
		}
		if dist[id] != h.depths[id] {
			return errors.New(errors.ErrCodeInternal, "node %s has depth %d, want %d", h.Key(id), h.depths[id], dist[id])
		}
	}
	return nil
}
