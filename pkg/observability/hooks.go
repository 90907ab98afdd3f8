// Package observability provides hooks for weave telemetry, pipeline events
// and cache operations.
//
// The weaver reports a checkpoint at the end of each build stage. Hooks are
// purely observational: they never change what is built. Libraries emit
// events through the registered hooks, and main decides where they go.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Two backends ship with the package: [LogHooks] writes stage reports to a
// charmbracelet logger, and [PrometheusHooks] records stage durations and
// graph sizes in a private Prometheus registry.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetWeaveHooks(observability.NewLogHooks(logger))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Weave().OnStageStart(observability.StageGraphInit)
//	// ... build the candidate graph ...
//	observability.Weave().OnCheckpoint(observability.Checkpoint{...})
package observability

import (
	"context"
	"sync"
	"time"
)

// Stage names a checkpoint of the weave.
type Stage string

const (
	StageGraphInit          Stage = "graph_init"
	StageRedundancyRemoval  Stage = "redundancy_removal"
	StageTerminalAttachment Stage = "terminal_attachment"
	StageSecondaryRanking   Stage = "secondary_ranking"
	StagePick               Stage = "pick"
)

// Stages lists the stages in execution order.
var Stages = []Stage{
	StageGraphInit,
	StageRedundancyRemoval,
	StageTerminalAttachment,
	StageSecondaryRanking,
	StagePick,
}

// Checkpoint is the report emitted when a stage completes.
type Checkpoint struct {
	Stage    Stage
	Duration time.Duration
	Nodes    int // graph size after the stage
	Edges    int
	Changed  int // edges added or removed by the stage, secondary edges found when ranking
}

// =============================================================================
// Weave Hooks
// =============================================================================

// WeaveHooks receives stage events from the weaver.
type WeaveHooks interface {
	OnStageStart(stage Stage)
	OnCheckpoint(cp Checkpoint)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the read → weave → export pipeline.
type PipelineHooks interface {
	OnReadComplete(ctx context.Context, source string, partitions, terminals int, duration time.Duration, err error)
	OnWeaveComplete(ctx context.Context, nodes, edges int, duration time.Duration, err error)
	OnExportComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopWeaveHooks is a no-op implementation of WeaveHooks.
type NoopWeaveHooks struct{}

func (NoopWeaveHooks) OnStageStart(Stage)      {}
func (NoopWeaveHooks) OnCheckpoint(Checkpoint) {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnReadComplete(context.Context, string, int, int, time.Duration, error) {}
func (NoopPipelineHooks) OnWeaveComplete(context.Context, int, int, time.Duration, error)        {}
func (NoopPipelineHooks) OnExportComplete(context.Context, string, int, time.Duration, error)    {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	weaveHooks    WeaveHooks    = NoopWeaveHooks{}
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetWeaveHooks registers custom weave hooks. Weavers created without an
// explicit hook pick up the registered one.
func SetWeaveHooks(h WeaveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		weaveHooks = h
	}
}

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Weave returns the registered weave hooks.
func Weave() WeaveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return weaveHooks
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	weaveHooks = NoopWeaveHooks{}
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
