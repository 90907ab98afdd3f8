package weave

import (
	"slices"

	"github.com/matzehuels/hiweave/pkg/dag"
	"github.com/matzehuels/hiweave/pkg/dag/transform"
	"github.com/matzehuels/hiweave/pkg/errors"
	"github.com/matzehuels/hiweave/pkg/observability"
)

// pick derives a hierarchy from a copy of the candidate graph: it drops the
// secondary edges below the requested percentiles, applies manual edges,
// prunes and assigns depths.
func (w *Weaver) pick(c *candidate, opts PickOptions) (*Hierarchy, error) {
	done := w.stage(observability.StagePick)
	g := c.graph.Clone()

	dropped := dropSecondary(g, c.secondary, opts.PercentageEdges)
	dropped += dropSecondary(g, c.secondaryTerminal, opts.PercentageTerminalEdges)

	for _, e := range opts.Additional {
		if !c.graph.HasEdge(e.From, e.To) {
			return nil, errors.New(errors.ErrCodeEdgeNotFound, "edge does not exist: (%d, %d)", e.From, e.To)
		}
		if opts.Replace {
			for _, p := range slices.Clone(g.Parents(e.To)) {
				g.RemoveEdge(p, e.To)
			}
		}
		if err := g.SetEdge(e.From, e.To, 1); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "add manual edge")
		}
	}

	pruned := transform.Prune(g, transform.PruneOptions{StrictSingleBranch: opts.StrictSingleBranch})

	root := g.Root()
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "picked hierarchy is invalid")
	}

	h := &Hierarchy{
		graph:        g,
		root:         root,
		depths:       transform.AssignDepths(g, root),
		reverse:      transform.AssignReverseDepths(g),
		terminals:    slices.Clone(c.terminals),
		labels:       c.assignment.Terminals,
		assumeLevels: c.assignment.AssumeLevels,
		logger:       w.logger,
	}

	w.logger.Debug("hierarchy picked",
		"dropped", dropped,
		"manual", len(opts.Additional),
		"dead_ends", pruned.DeadEnds,
		"collapsed", pruned.Collapsed,
		"max_depth", h.MaxDepth(),
	)
	done(g, dropped)
	return h, nil
}

// dropSecondary removes the edges of a ranked pool past the first
// int(len(pool) × pct / 100) and returns how many were removed.
func dropSecondary(g *dag.Graph, pool []ScoredEdge, pct float64) int {
	keep := len(pool)
	switch {
	case pct <= 0:
		keep = 0
	case pct < 100:
		keep = int(float64(len(pool)) * pct / 100)
	}

	removed := 0
	for _, e := range pool[keep:] {
		if g.RemoveEdge(e.From, e.To) {
			removed++
		}
	}
	return removed
}
