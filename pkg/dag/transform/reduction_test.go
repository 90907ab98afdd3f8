package transform

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/matzehuels/hiweave/pkg/dag"
)

func TestRemoveRedundantEdges_Diamond(t *testing.T) {
	g := dag.New()
	r := g.AddVirtualRoot()
	a := g.AddInternal(0, 0, 0, "a", 0)
	b := g.AddInternal(0, 1, 1, "b", 0)
	x := g.AddTerminal(0, "x")
	_ = g.SetEdge(r, a, 1)
	_ = g.SetEdge(r, b, 1)
	_ = g.SetEdge(a, x, 1)
	_ = g.SetEdge(b, x, 1)
	_ = g.SetEdge(r, x, 1)

	removed, err := RemoveRedundantEdges(g, 2)
	if err != nil {
		t.Fatalf("RemoveRedundantEdges() error: %v", err)
	}
	if removed != 1 {
		t.Errorf("RemoveRedundantEdges() removed %d edges, want 1", removed)
	}
	if g.HasEdge(r, x) {
		t.Error("redundant edge r→x still present")
	}
	if !g.HasEdge(a, x) || !g.HasEdge(b, x) {
		t.Error("non-redundant edge removed")
	}
}

func TestRemoveRedundantEdges_LongChain(t *testing.T) {
	g := dag.New()
	ids := make([]dag.NodeID, 5)
	for i := range ids {
		ids[i] = g.AddInternal(i, 0, i, "n", float64(i))
	}
	for i := 0; i < len(ids)-1; i++ {
		_ = g.SetEdge(ids[i], ids[i+1], 1)
	}
	_ = g.SetEdge(ids[0], ids[4], 1)
	_ = g.SetEdge(ids[1], ids[3], 1)

	removed, err := RemoveRedundantEdges(g, 0)
	if err != nil {
		t.Fatalf("RemoveRedundantEdges() error: %v", err)
	}
	if removed != 2 {
		t.Errorf("RemoveRedundantEdges() removed %d edges, want 2", removed)
	}
	if g.EdgeCount() != 4 {
		t.Errorf("EdgeCount() = %d, want 4", g.EdgeCount())
	}
}

func TestRemoveRedundantEdges_Cycle(t *testing.T) {
	g := dag.New()
	a := g.AddInternal(0, 0, 0, "a", 0)
	b := g.AddInternal(0, 1, 1, "b", 0)
	_ = g.SetEdge(a, b, 1)
	_ = g.SetEdge(b, a, 1)

	if _, err := RemoveRedundantEdges(g, 1); err == nil {
		t.Fatal("RemoveRedundantEdges() on cycle returned nil error")
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2 (graph unchanged)", g.EdgeCount())
	}
}

func randomDAG(seed uint64, n int, p float64) *dag.Graph {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	g := dag.New()
	for i := 0; i < n; i++ {
		g.AddInternal(0, i, i, "n", 0)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < p {
				_ = g.SetEdge(dag.NodeID(i), dag.NodeID(j), rng.Float64())
			}
		}
	}
	return g
}

func TestRemoveRedundantEdges_MatchesTransitiveReduction(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		orig := randomDAG(seed, 30, 0.2)
		g := orig.Clone()
		if _, err := RemoveRedundantEdges(g, 4); err != nil {
			t.Fatalf("seed %d: error: %v", seed, err)
		}

		// Reachability is preserved.
		for _, u := range orig.NodeIDs() {
			for _, v := range orig.NodeIDs() {
				if orig.HasPath(u, v) != g.HasPath(u, v) {
					t.Fatalf("seed %d: reachability %d⇝%d changed", seed, u, v)
				}
			}
		}

		// No remaining edge is implied by another path.
		for _, e := range g.Edges() {
			h := g.Clone()
			h.RemoveEdge(e.From, e.To)
			if h.HasPath(e.From, e.To) {
				t.Errorf("seed %d: edge %d→%d is redundant", seed, e.From, e.To)
			}
		}
	}
}

func TestRemoveRedundantEdges_WorkerIndependence(t *testing.T) {
	orig := randomDAG(42, 60, 0.15)

	g1 := orig.Clone()
	n1, err := RemoveRedundantEdges(g1, 1)
	if err != nil {
		t.Fatalf("workers=1 error: %v", err)
	}
	g8 := orig.Clone()
	n8, err := RemoveRedundantEdges(g8, 8)
	if err != nil {
		t.Fatalf("workers=8 error: %v", err)
	}

	if n1 != n8 {
		t.Errorf("removed %d with 1 worker, %d with 8", n1, n8)
	}
	if !slices.Equal(g1.Edges(), g8.Edges()) {
		t.Error("edge sets differ between worker counts")
	}
}
