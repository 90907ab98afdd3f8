package weave

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/hiweave/pkg/dag"
	"github.com/matzehuels/hiweave/pkg/errors"
	"github.com/matzehuels/hiweave/pkg/observability"
)

// Defaults for [BuildOptions] and [PickOptions].
const (
	DefaultCutoff                  = 0.8
	DefaultPercentageEdges         = 100.0
	DefaultPercentageTerminalEdges = 0.0
)

// BuildOptions configures candidate graph construction.
type BuildOptions struct {
	// Cutoff is the minimum containment index for a parent/child link.
	Cutoff float64 `validate:"gte=0.5,lte=1"`
}

// DefaultBuildOptions returns the default build configuration.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{Cutoff: DefaultCutoff}
}

// Validate checks the option ranges.
func (o BuildOptions) Validate() error {
	return errors.ValidateStruct(o)
}

// PickOptions configures edge selection and pruning.
type PickOptions struct {
	// PercentageEdges is the share (0-100) of secondary cluster edges kept,
	// best-ranked first. 0 leaves every cluster with a single parent.
	PercentageEdges float64 `validate:"gte=0,lte=100"`

	// PercentageTerminalEdges is the same for secondary terminal edges.
	PercentageTerminalEdges float64 `validate:"gte=0,lte=100"`

	// Additional edges are forced into the hierarchy with weight 1.0. Each
	// must exist in the candidate graph.
	Additional []dag.EdgeKey

	// Replace removes the other parents of an additional edge's child.
	Replace bool

	// StrictSingleBranch selects the strict collapse policy of
	// transform.PruneOptions.
	StrictSingleBranch bool
}

// DefaultPickOptions returns the default pick configuration: keep every
// secondary cluster edge and no secondary terminal edge.
func DefaultPickOptions() PickOptions {
	return PickOptions{
		PercentageEdges:         DefaultPercentageEdges,
		PercentageTerminalEdges: DefaultPercentageTerminalEdges,
	}
}

// Validate checks the option ranges.
func (o PickOptions) Validate() error {
	return errors.ValidateStruct(o)
}

// Option configures a [Weaver].
type Option func(*Weaver)

// WithWorkers bounds the goroutines used by the parallel stages.
// Zero or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(w *Weaver) { w.workers = n }
}

// WithLogger sets the logger used for debug output and recovery warnings.
func WithLogger(l *log.Logger) Option {
	return func(w *Weaver) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithTelemetry sets the hooks receiving stage checkpoints. Without it the
// globally registered observability.Weave() hooks are used.
func WithTelemetry(h observability.WeaveHooks) Option {
	return func(w *Weaver) { w.hooks = h }
}
