package weave

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hiweave/pkg/dag"
	"github.com/matzehuels/hiweave/pkg/errors"
	"github.com/matzehuels/hiweave/pkg/observability"
	"github.com/matzehuels/hiweave/pkg/partition"
)

// Weaver builds hierarchies from partitions.
//
// A Weaver caches the candidate graph of its last successful [Weaver.Weave]
// so that [Weaver.Pick] can re-select edges with other thresholds without
// rebuilding. Calls on one Weaver are serialized; a failed call leaves the
// previous state untouched.
type Weaver struct {
	mu sync.Mutex

	workers int
	logger  *log.Logger
	hooks   observability.WeaveHooks

	cand *candidate
	hier *Hierarchy
}

// New creates a Weaver.
func New(opts ...Option) *Weaver {
	w := &Weaver{logger: log.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Weave is a convenience wrapper that weaves a with a fresh Weaver.
func Weave(a *partition.Assignment, build BuildOptions, pick PickOptions, opts ...Option) (*Hierarchy, error) {
	return New(opts...).Weave(a, build, pick)
}

// Weave builds the candidate graph of a and picks a hierarchy from it.
func (w *Weaver) Weave(a *partition.Assignment, build BuildOptions, pick PickOptions) (*Hierarchy, error) {
	if a == nil || len(a.Clusters) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "assignment has no clusters")
	}
	if err := build.Validate(); err != nil {
		return nil, err
	}
	if err := pick.Validate(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.build(a, build)
	if err != nil {
		return nil, err
	}
	h, err := w.pick(c, pick)
	if err != nil {
		return nil, err
	}

	w.cand, w.hier = c, h
	return h, nil
}

// Build builds and caches the candidate graph of a without picking a
// hierarchy. Node handles of the candidate can then be looked up with
// [Weaver.NodeByKey] before calling [Weaver.Pick].
func (w *Weaver) Build(a *partition.Assignment, build BuildOptions) error {
	if a == nil || len(a.Clusters) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "assignment has no clusters")
	}
	if err := build.Validate(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.build(a, build)
	if err != nil {
		return err
	}
	w.cand, w.hier = c, nil
	return nil
}

// Pick re-selects edges from the cached candidate graph and replaces the
// current hierarchy.
func (w *Weaver) Pick(opts PickOptions) (*Hierarchy, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cand == nil {
		return nil, errors.NotBuilt()
	}
	h, err := w.pick(w.cand, opts)
	if err != nil {
		return nil, err
	}
	w.hier = h
	return h, nil
}

// Hierarchy returns the current hierarchy.
func (w *Weaver) Hierarchy() (*Hierarchy, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.hier == nil {
		return nil, errors.NotBuilt()
	}
	return w.hier, nil
}

// Candidate returns a copy of the cached candidate graph.
func (w *Weaver) Candidate() (*dag.Graph, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cand == nil {
		return nil, errors.NotBuilt()
	}
	return w.cand.graph.Clone(), nil
}

// SecondaryEdges returns copies of the ranked secondary cluster edges and
// secondary terminal edges, best first.
func (w *Weaver) SecondaryEdges() (clusters, terminals []ScoredEdge, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cand == nil {
		return nil, nil, errors.NotBuilt()
	}
	return append([]ScoredEdge(nil), w.cand.secondary...),
		append([]ScoredEdge(nil), w.cand.secondaryTerminal...), nil
}

// ClusterNode returns the node of the cluster labelled label in the given
// partition. Boolean partitions have the single label "true".
func (w *Weaver) ClusterNode(partition int, label string) (dag.NodeID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cand == nil {
		return dag.NoNode, false
	}
	for _, c := range w.cand.assignment.Clusters {
		if c.Partition == partition && c.Label == label {
			return w.cand.clusters[c.Row], true
		}
	}
	return dag.NoNode, false
}

// TerminalNode returns the node of the terminal with the given label.
func (w *Weaver) TerminalNode(label string) (dag.NodeID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cand == nil {
		return dag.NoNode, false
	}
	id, ok := w.cand.terminalIndex[label]
	if !ok {
		return dag.NoNode, false
	}
	return w.cand.terminals[id], true
}

// NodeByKey resolves an external node name, as produced by
// [Hierarchy.Key], to its handle in the candidate graph. Cluster keys must
// match exactly, level included: "9_3" does not name row 3 unless row 3 is
// at level 9.
func (w *Weaver) NodeByKey(key string) (dag.NodeID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cand == nil {
		return dag.NoNode, false
	}
	if t, ok := w.cand.terminalIndex[key]; ok {
		return w.cand.terminals[t], true
	}
	i := strings.LastIndexByte(key, '_')
	if i < 0 {
		return dag.NoNode, false
	}
	row, err := strconv.Atoi(key[i+1:])
	if err != nil {
		return dag.NoNode, false
	}

	var id dag.NodeID
	switch {
	case row == -1:
		id = w.cand.root
	case row >= 0 && row < len(w.cand.clusters):
		id = w.cand.clusters[row]
	default:
		return dag.NoNode, false
	}
	n, ok := w.cand.graph.Node(id)
	if !ok || !n.IsInternal() || nodeKey(n) != key {
		return dag.NoNode, false
	}
	return id, true
}

// Depth returns the depth of id in the current hierarchy.
func (w *Weaver) Depth(id dag.NodeID) (int, error) {
	h, err := w.Hierarchy()
	if err != nil {
		return 0, err
	}
	d, ok := h.Depth(id)
	if !ok {
		return 0, errors.New(errors.ErrCodeNodeNotFound, "node %d is not in the hierarchy", id)
	}
	return d, nil
}

// Level returns the level of the internal node id in the current hierarchy.
func (w *Weaver) Level(id dag.NodeID) (float64, error) {
	h, err := w.Hierarchy()
	if err != nil {
		return 0, err
	}
	l, ok := h.Level(id)
	if !ok {
		return 0, errors.New(errors.ErrCodeNodeNotFound, "node %d has no level", id)
	}
	return l, nil
}

// NodeCluster forwards to [Hierarchy.NodeCluster].
func (w *Weaver) NodeCluster(id dag.NodeID) ([]bool, error) {
	h, err := w.Hierarchy()
	if err != nil {
		return nil, err
	}
	return h.NodeCluster(id)
}

// DepthCluster forwards to [Hierarchy.DepthCluster].
func (w *Weaver) DepthCluster(depth int, stopBeforeTerminal bool) (Clusters, error) {
	h, err := w.Hierarchy()
	if err != nil {
		return Clusters{}, err
	}
	return h.DepthCluster(depth, stopBeforeTerminal), nil
}

// LevelCluster forwards to [Hierarchy.LevelCluster].
func (w *Weaver) LevelCluster(level float64, stopBeforeTerminal bool) (Clusters, error) {
	h, err := w.Hierarchy()
	if err != nil {
		return Clusters{}, err
	}
	return h.LevelCluster(level, stopBeforeTerminal), nil
}

func (w *Weaver) telemetry() observability.WeaveHooks {
	if w.hooks != nil {
		return w.hooks
	}
	return observability.Weave()
}

// stage reports the start of a stage and returns a function that emits its
// checkpoint.
func (w *Weaver) stage(s observability.Stage) func(g *dag.Graph, changed int) {
	hooks := w.telemetry()
	hooks.OnStageStart(s)
	start := time.Now()
	return func(g *dag.Graph, changed int) {
		hooks.OnCheckpoint(observability.Checkpoint{
			Stage:    s,
			Duration: time.Since(start),
			Nodes:    g.NodeCount(),
			Edges:    g.EdgeCount(),
			Changed:  changed,
		})
	}
}
