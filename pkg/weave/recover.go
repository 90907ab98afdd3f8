package weave

import "github.com/matzehuels/hiweave/pkg/dag"

// Clusters is a partition recovered from a hierarchy: one boundary node per
// row of the membership matrix.
type Clusters struct {
	Nodes   []dag.NodeID
	Members [][]bool // len(Nodes) × terminals
}

// Len returns the number of boundary clusters.
func (c Clusters) Len() int { return len(c.Nodes) }

// Flat collapses the membership matrix to one label per terminal: the
// 1-based index of the last boundary cluster covering it, 0 if none does.
// When boundaries overlap the larger index wins. An empty Clusters gives nil.
func (c Clusters) Flat() []int {
	if len(c.Members) == 0 {
		return nil
	}
	flat := make([]int, len(c.Members[0]))
	for i, row := range c.Members {
		for t, in := range row {
			if in {
				flat[t] = max(flat[t], i+1)
			}
		}
	}
	return flat
}

// DepthCluster recovers the partition at the given depth.
//
// The hierarchy is walked breadth-first from the root. A node shallower than
// depth is expanded; with stopBeforeTerminal it is also recorded when it
// has a terminal child, and its terminal children are not visited. A node at
// depth is recorded and not expanded. Without stopBeforeTerminal, terminals
// reached on the way are recorded as singleton clusters.
func (h *Hierarchy) DepthCluster(depth int, stopBeforeTerminal bool) Clusters {
	return h.topdown("depth", func(id dag.NodeID) float64 {
		return float64(h.depths[id])
	}, float64(depth), stopBeforeTerminal)
}

// LevelCluster recovers the partition at the given level, walking the
// hierarchy like [Hierarchy.DepthCluster]. Levels only nest when the
// hierarchy was built with level ordering; otherwise a warning is logged.
func (h *Hierarchy) LevelCluster(level float64, stopBeforeTerminal bool) Clusters {
	if !h.assumeLevels {
		h.logger.Warn("levels were not followed when building the hierarchy")
	}
	return h.topdown("level", func(id dag.NodeID) float64 {
		n, _ := h.graph.Node(id)
		return n.Level
	}, level, stopBeforeTerminal)
}

func (h *Hierarchy) topdown(attr string, value func(dag.NodeID) float64, target float64, stopBeforeTerminal bool) Clusters {
	g := h.graph
	visited := make([]bool, g.Cap())
	queue := []dag.NodeID{h.root}
	var boundary []dag.NodeID

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		if g.IsTerminal(id) {
			if !stopBeforeTerminal {
				boundary = append(boundary, id)
			}
			continue
		}

		switch v := value(id); {
		case v < target:
			if stopBeforeTerminal && h.HasAnyTerminal(id) {
				boundary = append(boundary, id)
			}
			for _, c := range g.Children(id) {
				if stopBeforeTerminal && g.IsTerminal(c) {
					continue
				}
				queue = append(queue, c)
			}
		case v == target:
			boundary = append(boundary, id)
		default:
			h.logger.Warn("visiting node beyond the requested "+attr,
				"node", h.Key(id), attr, v, "target", target)
		}
	}

	members := make([][]bool, len(boundary))
	for i, id := range boundary {
		members[i] = make([]bool, len(h.terminals))
		h.fillCluster(id, members[i])
	}
	return Clusters{Nodes: boundary, Members: members}
}
