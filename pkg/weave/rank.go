package weave

import (
	"cmp"
	"slices"

	"github.com/matzehuels/hiweave/pkg/dag"
	"github.com/matzehuels/hiweave/pkg/observability"
)

// ScoredEdge is a secondary (non-primary) parent edge with its ranking score.
type ScoredEdge struct {
	From  dag.NodeID
	To    dag.NodeID
	Score float64
}

// rankSecondary ranks the parents of every node that has more than one.
// The best-ranked parent is primary; the others form the secondary pools,
// which are sorted best first.
//
// A cluster prefers the parent it overlaps most relative to their union:
// with containment weight w, overlap = w·|node| and the score is
// overlap / (|node| + |parent| - overlap). A terminal prefers the parent
// farthest from the root, that is the most specific one.
func (w *Weaver) rankSecondary(c *candidate) {
	done := w.stage(observability.StageSecondaryRanking)
	g := c.graph
	dist := g.Distances(c.root)

	var secondary, terminal []ScoredEdge
	for _, id := range g.NodeIDs() {
		parents := g.Parents(id)
		if len(parents) < 2 {
			continue
		}

		ranked := make([]ScoredEdge, len(parents))
		isTerminal := g.IsTerminal(id)
		size := float64(c.memberCount(id))
		for k, p := range parents {
			var score float64
			if isTerminal {
				score = float64(dist[p])
			} else {
				wt, _ := g.Weight(p, id)
				overlap := wt * size
				score = overlap / (size + float64(c.memberCount(p)) - overlap)
			}
			ranked[k] = ScoredEdge{From: p, To: id, Score: score}
		}
		sortByScore(ranked)

		if isTerminal {
			terminal = append(terminal, ranked[1:]...)
		} else {
			secondary = append(secondary, ranked[1:]...)
		}
	}

	sortByScore(secondary)
	sortByScore(terminal)
	c.secondary, c.secondaryTerminal = secondary, terminal

	done(g, len(secondary)+len(terminal))
}

// sortByScore orders edges by descending score, keeping the input order
// among equal scores.
func sortByScore(edges []ScoredEdge) {
	slices.SortStableFunc(edges, func(a, b ScoredEdge) int {
		return cmp.Compare(b.Score, a.Score)
	})
}
