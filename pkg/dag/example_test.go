package dag_test

import (
	"fmt"

	"github.com/matzehuels/hiweave/pkg/dag"
)

func ExampleGraph_basic() {
	// A cluster containing two terminals
	g := dag.New()
	c := g.AddInternal(0, 0, 0, "1", 0)
	a := g.AddTerminal(0, "A")
	b := g.AddTerminal(1, "B")
	_ = g.SetEdge(c, a, 1)
	_ = g.SetEdge(c, b, 1)

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Children of c:", g.Children(c))
	// Output:
	// Nodes: 3
	// Edges: 2
	// Children of c: [1 2]
}

func ExampleGraph_Distances() {
	// root → mid → leaf, plus a shortcut root → leaf
	g := dag.New()
	root := g.AddVirtualRoot()
	mid := g.AddInternal(0, 0, 0, "x", 0)
	leaf := g.AddTerminal(0, "t")
	_ = g.SetEdge(root, mid, 1)
	_ = g.SetEdge(mid, leaf, 1)
	_ = g.SetEdge(root, leaf, 1)

	dist := g.Distances(root)
	fmt.Println("mid:", dist[mid])
	fmt.Println("leaf:", dist[leaf])
	// Output:
	// mid: 1
	// leaf: 1
}

func ExampleGraph_AncestorSets() {
	g := dag.New()
	top := g.AddInternal(0, 0, 0, "a", 0)
	mid := g.AddInternal(1, 0, 1, "b", 1)
	leaf := g.AddTerminal(0, "t")
	_ = g.SetEdge(top, mid, 1)
	_ = g.SetEdge(mid, leaf, 1)

	anc, _ := g.AncestorSets()
	fmt.Println(anc[leaf].ToArray())
	// Output:
	// [0 1]
}
