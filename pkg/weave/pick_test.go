package weave

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/hiweave/pkg/dag"
	"github.com/matzehuels/hiweave/pkg/dag/transform"
	"github.com/matzehuels/hiweave/pkg/errors"
)

func TestPick_ZeroKeepsSingleParents(t *testing.T) {
	w, _ := weaveNested(t)

	h, err := w.Pick(PickOptions{})
	require.NoError(t, err)

	for _, n := range h.Nodes() {
		if n.ID == h.Root() {
			continue
		}
		assert.LessOrEqual(t, len(h.Parents(n.ID)), 1, "parents of %s", h.Key(n.ID))
	}
}

func TestPick_HundredKeepsEverything(t *testing.T) {
	w, _ := weaveNested(t)

	h, err := w.Pick(PickOptions{PercentageEdges: 100, PercentageTerminalEdges: 100})
	require.NoError(t, err)

	cand, err := w.Candidate()
	require.NoError(t, err)
	transform.Prune(cand, transform.PruneOptions{})

	assert.Equal(t, cand.Edges(), h.Graph().Edges())
	assert.Equal(t, []dag.NodeID{rABCDEF, rEFGH}, h.Parents(rEF))
}

func TestPick_ReplacesHierarchy(t *testing.T) {
	w, first := weaveNested(t)

	second, err := w.Pick(PickOptions{PercentageEdges: 100})
	require.NoError(t, err)

	current, err := w.Hierarchy()
	require.NoError(t, err)
	assert.Same(t, second, current)
	assert.NotSame(t, first, current)

	// The earlier hierarchy is unaffected.
	assert.Equal(t, []dag.NodeID{rEFGH}, first.Parents(rEF))
}

func TestPick_ManualEdgeReplace(t *testing.T) {
	w, _ := weaveNested(t)

	h, err := w.Pick(PickOptions{
		Additional: []dag.EdgeKey{{From: rABCDEF, To: rEF}},
		Replace:    true,
	})
	require.NoError(t, err)
	require.NoError(t, h.Validate())

	assert.Equal(t, []dag.NodeID{rABCDEF}, h.Parents(rEF))
	wt, _ := h.graph.Weight(rABCDEF, rEF)
	assert.Equal(t, 1.0, wt)
}

func TestPick_ManualEdgeAdd(t *testing.T) {
	w, _ := weaveNested(t)

	h, err := w.Pick(PickOptions{
		Additional: []dag.EdgeKey{{From: rABCDEF, To: rEF}},
	})
	require.NoError(t, err)

	parents := h.Parents(rEF)
	slices.Sort(parents)
	assert.Equal(t, []dag.NodeID{rABCDEF, rEFGH}, parents)
}

func TestPick_ManualEdgeMissing(t *testing.T) {
	w, before := weaveNested(t)

	// All → EF was removed as redundant, so it is not a candidate edge.
	_, err := w.Pick(PickOptions{Additional: []dag.EdgeKey{{From: rAll, To: rEF}}})
	assert.True(t, errors.Is(err, errors.ErrCodeEdgeNotFound), "got %v", err)

	current, err := w.Hierarchy()
	require.NoError(t, err)
	assert.Same(t, before, current, "failed pick must keep the previous hierarchy")
}

func TestPick_InvalidOptions(t *testing.T) {
	w, before := weaveNested(t)

	_, err := w.Pick(PickOptions{PercentageTerminalEdges: -1})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	current, _ := w.Hierarchy()
	assert.Same(t, before, current)
}

func TestPick_StrictSingleBranch(t *testing.T) {
	w, _ := weaveNested(t)

	// With every secondary edge kept CD keeps two terminal children and
	// nothing collapses under either policy.
	loose, err := w.Pick(PickOptions{PercentageEdges: 100, PercentageTerminalEdges: 100})
	require.NoError(t, err)
	strict, err := w.Pick(PickOptions{PercentageEdges: 100, PercentageTerminalEdges: 100, StrictSingleBranch: true})
	require.NoError(t, err)
	assert.Equal(t, loose.Graph().Edges(), strict.Graph().Edges())

	// CD left with only D collapses under both policies.
	strict, err = w.Pick(PickOptions{PercentageEdges: 10, StrictSingleBranch: true})
	require.NoError(t, err)
	_, ok := strict.Node(rCD)
	assert.False(t, ok)
}

func TestDropSecondary(t *testing.T) {
	build := func() (*dag.Graph, []ScoredEdge) {
		g := dag.New()
		root := g.AddVirtualRoot()
		var pool []ScoredEdge
		for i := 0; i < 4; i++ {
			c := g.AddInternal(0, i, i, "c", 0)
			_ = g.SetEdge(root, c, 1)
			pool = append(pool, ScoredEdge{From: root, To: c, Score: float64(4 - i)})
		}
		return g, pool
	}

	tests := []struct {
		pct  float64
		want int
	}{
		{0, 4},
		{10, 4}, // int(0.4) = 0 kept
		{50, 2},
		{99, 1}, // int(3.96) = 3 kept
		{100, 0},
	}
	for _, tt := range tests {
		g, pool := build()
		if got := dropSecondary(g, pool, tt.pct); got != tt.want {
			t.Errorf("dropSecondary(%v%%) = %d, want %d", tt.pct, got, tt.want)
		}
	}
}
