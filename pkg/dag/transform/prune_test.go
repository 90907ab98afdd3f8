package transform

import (
	"slices"
	"testing"

	"github.com/matzehuels/hiweave/pkg/dag"
)

func TestPrune_DeadEndCascade(t *testing.T) {
	g := dag.New()
	root := g.AddVirtualRoot()
	a := g.AddInternal(0, 0, 0, "a", 0)
	b := g.AddInternal(1, 0, 1, "b", 1)
	c := g.AddInternal(0, 1, 2, "c", 0)
	d := g.AddInternal(0, 2, 3, "d", 0)
	t1 := g.AddTerminal(0, "t1")
	t2 := g.AddTerminal(1, "t2")
	t3 := g.AddTerminal(2, "t3")
	_ = g.SetEdge(root, a, 1)
	_ = g.SetEdge(a, b, 1)
	_ = g.SetEdge(root, c, 1)
	_ = g.SetEdge(root, d, 1)
	_ = g.SetEdge(c, t1, 1)
	_ = g.SetEdge(c, t2, 1)
	_ = g.SetEdge(d, t2, 1)
	_ = g.SetEdge(d, t3, 1)

	res := Prune(g, PruneOptions{})

	if res.DeadEnds != 2 {
		t.Errorf("DeadEnds = %d, want 2", res.DeadEnds)
	}
	if g.Has(a) || g.Has(b) {
		t.Error("dead-end chain a→b not removed")
	}
	if res.Collapsed != 0 {
		t.Errorf("Collapsed = %d, want 0", res.Collapsed)
	}
	if got := g.Children(root); !slices.Equal(got, []dag.NodeID{c, d}) {
		t.Errorf("Children(root) = %v, want [%d %d]", got, c, d)
	}
}

// branchy builds root → a → {b, t1}, b → {t2, t3}, root → c → {t4, t5}.
func branchy() (g *dag.Graph, root, a, b, c, t1 dag.NodeID) {
	g = dag.New()
	root = g.AddVirtualRoot()
	a = g.AddInternal(0, 0, 0, "a", 0)
	b = g.AddInternal(1, 0, 1, "b", 1)
	c = g.AddInternal(0, 1, 2, "c", 0)
	t1 = g.AddTerminal(0, "t1")
	t2 := g.AddTerminal(1, "t2")
	t3 := g.AddTerminal(2, "t3")
	t4 := g.AddTerminal(3, "t4")
	t5 := g.AddTerminal(4, "t5")
	_ = g.SetEdge(root, a, 0.5)
	_ = g.SetEdge(root, c, 1)
	_ = g.SetEdge(a, b, 0.25)
	_ = g.SetEdge(a, t1, 0.125)
	_ = g.SetEdge(b, t2, 1)
	_ = g.SetEdge(b, t3, 1)
	_ = g.SetEdge(c, t4, 1)
	_ = g.SetEdge(c, t5, 1)
	return g, root, a, b, c, t1
}

func TestPrune_DefaultSingleBranch(t *testing.T) {
	g, root, a, b, c, t1 := branchy()

	res := Prune(g, PruneOptions{})

	if res.Collapsed != 1 {
		t.Errorf("Collapsed = %d, want 1", res.Collapsed)
	}
	if g.Has(a) {
		t.Error("single-branch cluster a not collapsed")
	}
	if got := g.Children(root); !slices.Equal(got, []dag.NodeID{c, b, t1}) {
		t.Errorf("Children(root) = %v, want [%d %d %d]", got, c, b, t1)
	}
	if w, _ := g.Weight(root, b); w != 0.75 {
		t.Errorf("Weight(root, b) = %v, want 0.75", w)
	}
	if w, _ := g.Weight(root, t1); w != 0.625 {
		t.Errorf("Weight(root, t1) = %v, want 0.625", w)
	}
}

func TestPrune_StrictSingleBranch(t *testing.T) {
	g, _, a, _, _, _ := branchy()
	before := g.Edges()

	res := Prune(g, PruneOptions{StrictSingleBranch: true})

	if res.Collapsed != 0 {
		t.Errorf("Collapsed = %d, want 0", res.Collapsed)
	}
	if !g.Has(a) {
		t.Error("strict policy collapsed a cluster with two children")
	}
	if !slices.Equal(g.Edges(), before) {
		t.Error("strict prune changed edges")
	}
}

func TestPrune_SinglePass(t *testing.T) {
	// c has two parents until x collapses onto root; c was already visited
	// by then, so it stays.
	g := dag.New()
	root := g.AddVirtualRoot()
	c := g.AddInternal(0, 0, 0, "c", 0)
	x := g.AddInternal(0, 1, 1, "x", 0)
	d := g.AddInternal(1, 0, 2, "d", 1)
	t1 := g.AddTerminal(0, "t1")
	t2 := g.AddTerminal(1, "t2")
	_ = g.SetEdge(root, c, 1)
	_ = g.SetEdge(root, x, 0.5)
	_ = g.SetEdge(x, c, 0.25)
	_ = g.SetEdge(c, d, 0.125)
	_ = g.SetEdge(d, t1, 1)
	_ = g.SetEdge(d, t2, 1)

	res := Prune(g, PruneOptions{})

	want := PruneResult{DeadEnds: 0, Collapsed: 1}
	if res != want {
		t.Errorf("Prune() = %+v, want %+v", res, want)
	}
	if g.Has(x) {
		t.Error("single-branch cluster x not collapsed")
	}
	if got := g.Children(root); !slices.Equal(got, []dag.NodeID{c}) {
		t.Errorf("Children(root) = %v, want [%d]", got, c)
	}
	if w, _ := g.Weight(root, c); w != 0.75 {
		t.Errorf("Weight(root, c) = %v, want 0.75", w)
	}

	// The newly single-branch c is left for the next Prune.
	res = Prune(g, PruneOptions{})
	if res.Collapsed != 1 || g.Has(c) {
		t.Errorf("second Prune() = %+v, c present = %v; want c collapsed", res, g.Has(c))
	}
	if w, _ := g.Weight(root, d); w != 0.875 {
		t.Errorf("Weight(root, d) = %v, want 0.875", w)
	}
}

func TestPrune_ChainInOnePass(t *testing.T) {
	// root → a → b → e → {t1, t2}: a collapses, then b is reached with root
	// as its only parent and collapses as well.
	g := dag.New()
	root := g.AddVirtualRoot()
	a := g.AddInternal(0, 0, 0, "a", 0)
	b := g.AddInternal(1, 0, 1, "b", 1)
	e := g.AddInternal(2, 0, 2, "e", 2)
	c := g.AddInternal(0, 1, 3, "c", 0)
	t1 := g.AddTerminal(0, "t1")
	t2 := g.AddTerminal(1, "t2")
	t3 := g.AddTerminal(2, "t3")
	t4 := g.AddTerminal(3, "t4")
	_ = g.SetEdge(root, a, 1)
	_ = g.SetEdge(root, c, 1)
	_ = g.SetEdge(a, b, 1)
	_ = g.SetEdge(b, e, 1)
	_ = g.SetEdge(e, t1, 1)
	_ = g.SetEdge(e, t2, 1)
	_ = g.SetEdge(c, t3, 1)
	_ = g.SetEdge(c, t4, 1)

	res := Prune(g, PruneOptions{})

	if res.Collapsed != 2 {
		t.Errorf("Collapsed = %d, want 2", res.Collapsed)
	}
	if g.Has(a) || g.Has(b) {
		t.Error("chain a→b not collapsed")
	}
	if got := g.Children(root); !slices.Equal(got, []dag.NodeID{c, e}) {
		t.Errorf("Children(root) = %v, want [%d %d]", got, c, e)
	}
	if w, _ := g.Weight(root, e); w != 3 {
		t.Errorf("Weight(root, e) = %v, want 3", w)
	}
}

// branchy has no collapse that leaves an ancestor single-branched, so a
// second Prune finds nothing.
func TestPrune_RerunOnSettledTree(t *testing.T) {
	for _, strict := range []bool{false, true} {
		g, _, _, _, _, _ := branchy()
		Prune(g, PruneOptions{StrictSingleBranch: strict})
		once := g.Edges()

		res := Prune(g, PruneOptions{StrictSingleBranch: strict})
		if res.DeadEnds != 0 || res.Collapsed != 0 {
			t.Errorf("strict=%v: second Prune() = %+v, want no changes", strict, res)
		}
		if !slices.Equal(g.Edges(), once) {
			t.Errorf("strict=%v: second Prune() changed edges", strict)
		}
	}
}

func TestPrune_TerminalsNeverRemoved(t *testing.T) {
	g, _, _, _, _, _ := branchy()
	Prune(g, PruneOptions{})
	terminals := 0
	for _, n := range g.Nodes() {
		if n.IsTerminal() {
			terminals++
		}
	}
	if terminals != 5 {
		t.Errorf("terminals after Prune = %d, want 5", terminals)
	}
}
