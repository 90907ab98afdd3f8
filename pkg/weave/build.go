package weave

import (
	"slices"

	"github.com/matzehuels/hiweave/pkg/containment"
	"github.com/matzehuels/hiweave/pkg/dag"
	"github.com/matzehuels/hiweave/pkg/dag/transform"
	"github.com/matzehuels/hiweave/pkg/errors"
	"github.com/matzehuels/hiweave/pkg/observability"
	"github.com/matzehuels/hiweave/pkg/partition"
)

// candidate is the cached result of a build.
type candidate struct {
	assignment *partition.Assignment
	graph      *dag.Graph
	root       dag.NodeID

	clusters      []dag.NodeID // by assignment row
	terminals     []dag.NodeID // by terminal index
	terminalIndex map[string]int

	secondary         []ScoredEdge
	secondaryTerminal []ScoredEdge
}

func (w *Weaver) build(a *partition.Assignment, opts BuildOptions) (*candidate, error) {
	c := &candidate{
		assignment:    a,
		graph:         dag.New(),
		terminalIndex: make(map[string]int, len(a.Terminals)),
	}
	for i, t := range a.Terminals {
		c.terminalIndex[t] = i
	}

	if err := w.initGraph(c, opts.Cutoff); err != nil {
		return nil, err
	}
	if err := checkKeys(c); err != nil {
		return nil, err
	}

	done := w.stage(observability.StageRedundancyRemoval)
	removed, err := transform.RemoveRedundantEdges(c.graph, w.workers)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "remove redundant edges")
	}
	done(c.graph, removed)

	if err := w.attachTerminals(c); err != nil {
		return nil, err
	}

	w.rankSecondary(c)

	w.logger.Debug("candidate graph built",
		"clusters", len(c.clusters),
		"terminals", len(c.terminals),
		"edges", c.graph.EdgeCount(),
		"secondary", len(c.secondary),
		"secondary_terminal", len(c.secondaryTerminal),
	)
	return c, nil
}

// initGraph adds one node per cluster and an edge parent → child for every
// containment index at or above cutoff, then gives the graph a single root.
//
// Without level ordering two clusters can contain each other. Only one
// direction is kept: the one with the higher index, which makes the larger
// cluster the parent. On a tie the pair seen first in row-major order wins,
// so the later row becomes the parent. Every edge then points from a larger
// (size, row) key to a smaller one and the graph is acyclic.
func (w *Weaver) initGraph(c *candidate, cutoff float64) error {
	done := w.stage(observability.StageGraphInit)
	a, g := c.assignment, c.graph

	ci, err := containment.Indices(a.Rows(), a.Rows(), w.workers)
	if err != nil {
		return err
	}

	c.clusters = make([]dag.NodeID, len(a.Clusters))
	for i, cl := range a.Clusters {
		c.clusters[i] = g.AddInternal(cl.Partition, cl.Occurrence, cl.Row, cl.Label, cl.Level)
	}

	for i, child := range a.Clusters {
		for j, parent := range a.Clusters {
			if i == j {
				continue
			}
			if a.AssumeLevels && !(child.Level > parent.Level) {
				continue
			}
			if ci[i][j] < cutoff {
				continue
			}
			if !a.AssumeLevels && ci[j][i] >= cutoff && !parentWins(ci, i, j) {
				continue
			}
			if err := g.SetEdge(c.clusters[j], c.clusters[i], ci[i][j]); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "add candidate edge")
			}
		}
	}

	sources := g.Sources()
	c.root = sources[0]
	if len(sources) > 1 {
		c.root = g.AddVirtualRoot()
		for _, s := range sources {
			if err := g.SetEdge(c.root, s, 1); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "connect virtual root")
			}
		}
	}

	done(g, g.EdgeCount())
	return nil
}

// checkKeys rejects terminal labels that read as a cluster key, so that
// every key names a single node.
func checkKeys(c *candidate) error {
	for _, n := range c.graph.Nodes() {
		if !n.IsInternal() {
			continue
		}
		if t, ok := c.terminalIndex[nodeKey(n)]; ok {
			return errors.New(errors.ErrCodeInvalidInput,
				"terminal label %q collides with a cluster key", c.assignment.Terminals[t])
		}
	}
	return nil
}

// parentWins reports whether j is kept as the parent of i when the two
// clusters contain each other.
func parentWins(ci [][]float64, i, j int) bool {
	if ci[i][j] != ci[j][i] {
		return ci[i][j] > ci[j][i]
	}
	return j > i
}

// attachTerminals links every terminal to its most specific covering
// clusters. Clusters are visited in row order and their members in terminal
// order. For each terminal the clusters attached so far are checked, latest
// first: if one of them is a descendant of the new cluster the new cluster
// is skipped; attached ancestors of the new cluster are detached.
func (w *Weaver) attachTerminals(c *candidate) error {
	done := w.stage(observability.StageTerminalAttachment)
	a, g := c.assignment, c.graph

	anc, err := g.AncestorSets()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "compute ancestors")
	}
	reaches := func(from, to dag.NodeID) bool {
		return anc[to].Contains(uint32(from))
	}

	c.terminals = make([]dag.NodeID, len(a.Terminals))
	for i, label := range a.Terminals {
		c.terminals[i] = g.AddTerminal(i, label)
	}

	attached := make([][]dag.NodeID, len(a.Terminals))
	for row, cl := range a.Clusters {
		node := c.clusters[row]
		it := cl.Members.Iterator()
		for it.HasNext() {
			t := int(it.Next())
			term := c.terminals[t]
			list := attached[t]

			skip := false
			snapshot := slices.Clone(list)
			for k := len(snapshot) - 1; k >= 0; k-- {
				other := snapshot[k]
				if reaches(node, other) {
					skip = true
					break
				}
				if reaches(other, node) {
					list = slices.DeleteFunc(list, func(n dag.NodeID) bool { return n == other })
					g.RemoveEdge(other, term)
				}
			}
			if !skip {
				if err := g.SetEdge(node, term, 1); err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "attach terminal")
				}
				list = append(list, node)
			}
			attached[t] = list
		}
	}

	attachedEdges := 0
	for t, list := range attached {
		if len(list) == 0 {
			return errors.New(errors.ErrCodeInvalidInput, "terminal %q is not covered by any cluster", a.Terminals[t])
		}
		attachedEdges += len(list)
	}

	done(g, attachedEdges)
	return nil
}

// memberCount returns |node| for ranking: the cluster size for clusters, the
// number of terminals for the virtual root and 1 for terminals.
func (c *candidate) memberCount(id dag.NodeID) int {
	n, ok := c.graph.Node(id)
	switch {
	case !ok:
		return 0
	case n.IsTerminal():
		return 1
	case n.IsVirtual():
		return len(c.assignment.Terminals)
	default:
		return c.assignment.Clusters[n.Row].Size()
	}
}
