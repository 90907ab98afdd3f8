package dag

import (
	"errors"
	"slices"
	"testing"
)

// diamond builds r → {a, b} → t.
func diamond(t *testing.T) (*Graph, NodeID, NodeID, NodeID, NodeID) {
	t.Helper()
	g := New()
	r := g.AddVirtualRoot()
	a := g.AddInternal(0, 0, 0, "a", 0)
	b := g.AddInternal(0, 1, 1, "b", 0)
	x := g.AddTerminal(0, "t")
	for _, e := range []Edge{{r, a, 1}, {r, b, 1}, {a, x, 1}, {b, x, 1}} {
		if err := g.SetEdge(e.From, e.To, e.Weight); err != nil {
			t.Fatalf("SetEdge(%d, %d) error: %v", e.From, e.To, err)
		}
	}
	return g, r, a, b, x
}

func TestSetEdge(t *testing.T) {
	g := New()
	a := g.AddInternal(0, 0, 0, "a", 0)
	b := g.AddInternal(1, 0, 1, "b", 1)

	if err := g.SetEdge(a, b, 0.8); err != nil {
		t.Fatalf("SetEdge() error: %v", err)
	}
	if err := g.SetEdge(a, b, 0.9); err != nil {
		t.Fatalf("SetEdge() overwrite error: %v", err)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	if w, _ := g.Weight(a, b); w != 0.9 {
		t.Errorf("Weight() = %v, want 0.9", w)
	}
	if got := g.Children(a); !slices.Equal(got, []NodeID{b}) {
		t.Errorf("Children() = %v, want [%d]", got, b)
	}

	if err := g.SetEdge(a, a, 1); !errors.Is(err, ErrSelfLoop) {
		t.Errorf("SetEdge(a, a) = %v, want ErrSelfLoop", err)
	}
	if err := g.SetEdge(a, 42, 1); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("SetEdge(a, 42) = %v, want ErrUnknownNode", err)
	}
}

func TestRemoveEdge(t *testing.T) {
	g, r, a, _, x := diamond(t)

	if !g.RemoveEdge(a, x) {
		t.Fatal("RemoveEdge() = false, want true")
	}
	if g.RemoveEdge(a, x) {
		t.Error("second RemoveEdge() = true, want false")
	}
	if g.HasEdge(a, x) {
		t.Error("HasEdge() after removal = true")
	}
	if g.InDegree(x) != 1 {
		t.Errorf("InDegree(x) = %d, want 1", g.InDegree(x))
	}
	if g.OutDegree(r) != 2 {
		t.Errorf("OutDegree(r) = %d, want 2", g.OutDegree(r))
	}
}

func TestRemoveNode(t *testing.T) {
	g, r, a, b, x := diamond(t)

	g.RemoveNode(a)

	if g.Has(a) {
		t.Error("Has(a) after RemoveNode = true")
	}
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d, want 3", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
	if got := g.Parents(x); !slices.Equal(got, []NodeID{b}) {
		t.Errorf("Parents(x) = %v, want [%d]", got, b)
	}
	if got := g.Children(r); !slices.Equal(got, []NodeID{b}) {
		t.Errorf("Children(r) = %v, want [%d]", got, b)
	}

	// Handles are not reused.
	n := g.AddTerminal(1, "u")
	if n == a {
		t.Errorf("AddTerminal() reused handle %d", a)
	}
}

func TestClone(t *testing.T) {
	g, r, a, _, x := diamond(t)
	c := g.Clone()

	c.RemoveEdge(a, x)
	_ = c.SetEdge(r, x, 2)

	if !g.HasEdge(a, x) {
		t.Error("Clone mutation leaked into original (a→x removed)")
	}
	if g.HasEdge(r, x) {
		t.Error("Clone mutation leaked into original (r→x added)")
	}
	if n, ok := c.Node(a); !ok || n.Label != "a" {
		t.Errorf("Clone().Node(a) = %+v, %v", n, ok)
	}
}

func TestEdgesOrder(t *testing.T) {
	g, r, a, b, x := diamond(t)
	want := []Edge{{r, a, 1}, {r, b, 1}, {a, x, 1}, {b, x, 1}}
	if got := g.Edges(); !slices.Equal(got, want) {
		t.Errorf("Edges() = %v, want %v", got, want)
	}
}

func TestValidate(t *testing.T) {
	g, _, a, b, _ := diamond(t)
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	_ = g.SetEdge(a, b, 1)
	_ = g.SetEdge(b, a, 1)
	if err := g.Validate(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("Validate() with cycle = %v, want ErrGraphHasCycle", err)
	}

	h := New()
	h.AddInternal(0, 0, 0, "a", 0)
	h.AddInternal(0, 1, 1, "b", 0)
	if err := h.Validate(); !errors.Is(err, ErrMultipleSources) {
		t.Errorf("Validate() with two sources = %v, want ErrMultipleSources", err)
	}
}

func TestTraversals(t *testing.T) {
	g, r, a, b, x := diamond(t)

	if got := g.BFS(r); !slices.Equal(got, []NodeID{r, a, b, x}) {
		t.Errorf("BFS() = %v", got)
	}
	if got := g.Descendants(a); !slices.Equal(got, []NodeID{x}) {
		t.Errorf("Descendants(a) = %v", got)
	}
	if !g.HasPath(r, x) {
		t.Error("HasPath(r, x) = false")
	}
	if g.HasPath(a, b) {
		t.Error("HasPath(a, b) = true")
	}
	dist := g.Distances(r)
	if dist[x] != 2 || dist[a] != 1 || dist[r] != 0 {
		t.Errorf("Distances() = %v", dist)
	}

	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("TopoOrder() error: %v", err)
	}
	if !slices.Equal(order, []NodeID{r, a, b, x}) {
		t.Errorf("TopoOrder() = %v", order)
	}

	anc, err := g.AncestorSets()
	if err != nil {
		t.Fatalf("AncestorSets() error: %v", err)
	}
	if got := anc[x].ToArray(); !slices.Equal(got, []uint32{uint32(r), uint32(a), uint32(b)}) {
		t.Errorf("AncestorSets()[x] = %v", got)
	}
	if !anc[r].IsEmpty() {
		t.Errorf("AncestorSets()[r] = %v, want empty", anc[r].ToArray())
	}
}

func TestInternalOutDegree(t *testing.T) {
	g, r, a, _, _ := diamond(t)
	if got := g.InternalOutDegree(r); got != 2 {
		t.Errorf("InternalOutDegree(r) = %d, want 2", got)
	}
	if got := g.InternalOutDegree(a); got != 0 {
		t.Errorf("InternalOutDegree(a) = %d, want 0", got)
	}
}
