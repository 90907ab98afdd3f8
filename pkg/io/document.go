package io

import (
	"github.com/matzehuels/hiweave/pkg/dag"
	"github.com/matzehuels/hiweave/pkg/weave"
)

// Node kinds in a [Document].
const (
	KindRoot     = "root"
	KindCluster  = "cluster"
	KindTerminal = "terminal"
)

// Edge types in a [Document], as written to ddot files.
const (
	EdgeChildParent = "Child-Parent"
	EdgeGeneTerm    = "Gene-Term"
)

// Document is the exported form of a hierarchy.
type Document struct {
	Root      string `json:"root"`
	Terminals int    `json:"terminals"`
	MaxDepth  int    `json:"max_depth"`
	Nodes     []Node `json:"nodes"`
	Edges     []Edge `json:"edges"`
}

// Node is an exported hierarchy node.
type Node struct {
	Key       string   `json:"key"`
	Kind      string   `json:"kind"`
	Label     string   `json:"label,omitempty"`
	Partition *int     `json:"partition,omitempty"`
	Level     *float64 `json:"level,omitempty"`
	Depth     int      `json:"depth"`
}

// Edge is an exported parent → child edge.
type Edge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
	Type   string  `json:"type"`
}

// NewDocument flattens h. Nodes are listed in handle order, edges in
// [weave.Hierarchy.Edges] order.
func NewDocument(h *weave.Hierarchy) *Document {
	stats := h.Stats()
	doc := &Document{
		Root:      h.Key(h.Root()),
		Terminals: stats.Terminals,
		MaxDepth:  stats.MaxDepth,
		Nodes:     make([]Node, 0, stats.Nodes),
		Edges:     make([]Edge, 0, stats.Edges),
	}

	for _, n := range h.Nodes() {
		depth, _ := h.Depth(n.ID)
		nd := Node{Key: h.Key(n.ID), Label: n.Label, Depth: depth}
		switch {
		case n.IsTerminal():
			nd.Kind = KindTerminal
		case n.IsVirtual():
			nd.Kind = KindRoot
			level := n.Level
			nd.Level = &level
		default:
			nd.Kind = KindCluster
			part, level := n.Partition, n.Level
			nd.Partition, nd.Level = &part, &level
		}
		doc.Nodes = append(doc.Nodes, nd)
	}

	for _, e := range h.Edges() {
		doc.Edges = append(doc.Edges, Edge{
			From:   h.Key(e.From),
			To:     h.Key(e.To),
			Weight: e.Weight,
			Type:   edgeType(h, e),
		})
	}
	return doc
}

func edgeType(h *weave.Hierarchy, e dag.Edge) string {
	from, _ := h.Node(e.From)
	to, _ := h.Node(e.To)
	if from.IsInternal() && to.IsInternal() {
		return EdgeChildParent
	}
	return EdgeGeneTerm
}

// Node returns the node with the given key.
func (d *Document) Node(key string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.Key == key {
			return n, true
		}
	}
	return Node{}, false
}
