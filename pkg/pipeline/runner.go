package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hiweave/pkg/cache"
	"github.com/matzehuels/hiweave/pkg/dag"
	"github.com/matzehuels/hiweave/pkg/errors"
	pkgio "github.com/matzehuels/hiweave/pkg/io"
	"github.com/matzehuels/hiweave/pkg/observability"
	"github.com/matzehuels/hiweave/pkg/partition"
	"github.com/matzehuels/hiweave/pkg/render"
	"github.com/matzehuels/hiweave/pkg/render/nodelink"
	"github.com/matzehuels/hiweave/pkg/weave"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeHierarchy = "hierarchy"
	keyTypeArtifact  = "artifact"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger: it doesn't
// store pipeline results, so goroutines can share one Runner with different
// options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Hooks and CacheHooks default to the globally registered hooks.
	Hooks      observability.PipelineHooks
	CacheHooks observability.CacheHooks
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs read → weave → export with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	weaveStart := time.Now()
	w, err := r.weaveCached(ctx, &opts, result)
	if err != nil {
		return nil, err
	}
	result.Document = w.doc
	result.DocumentHash = cache.Hash(w.data)
	result.Hierarchy = w.hier
	result.CacheInfo.WeaveHit = w.hit
	result.Stats.Nodes = len(w.doc.Nodes)
	result.Stats.Edges = len(w.doc.Edges)
	result.Stats.Terminals = w.doc.Terminals
	result.Stats.MaxDepth = w.doc.MaxDepth

	r.Logger.Info("woven hierarchy",
		"nodes", result.Stats.Nodes,
		"edges", result.Stats.Edges,
		"max_depth", result.Stats.MaxDepth,
		"cached", w.hit,
		"duration", time.Since(weaveStart))

	exportStart := time.Now()
	artifacts, renderHit, err := r.Export(ctx, w.doc, w.data, opts)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit
	result.Stats.ExportTime = time.Since(exportStart)

	r.Logger.Info("exported outputs",
		"formats", opts.Formats,
		"duration", result.Stats.ExportTime)

	return result, nil
}

// Read parses the partition file of opts into a cluster assignment.
func (r *Runner) Read(ctx context.Context, opts Options) (*partition.Assignment, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	var popts []partition.Option
	if len(opts.Terminals) > 0 {
		popts = append(popts, partition.WithTerminals(opts.Terminals))
	}
	if len(opts.LevelKeys) > 0 {
		popts = append(popts, partition.WithLevelKeys(opts.LevelKeys))
	} else if opts.AssumeLevels {
		popts = append(popts, partition.WithAssumeLevels())
	}

	start := time.Now()
	a, err := pkgio.ReadPartitions(bytes.NewReader(opts.Partitions), opts.Format, popts...)
	if err != nil {
		r.hooks().OnReadComplete(ctx, opts.Source, 0, 0, time.Since(start), err)
		return nil, fmt.Errorf("read %s: %w", opts.Source, err)
	}
	r.hooks().OnReadComplete(ctx, opts.Source, a.Partitions, a.NumTerminals(), time.Since(start), nil)
	return a, nil
}

// Weave reads and weaves without consulting the cache.
func (r *Runner) Weave(ctx context.Context, opts Options) (*weave.Hierarchy, error) {
	a, err := r.Read(ctx, opts)
	if err != nil {
		return nil, err
	}
	return r.weave(ctx, a, opts)
}

func (r *Runner) weave(ctx context.Context, a *partition.Assignment, opts Options) (*weave.Hierarchy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wopts := []weave.Option{weave.WithWorkers(opts.Workers), weave.WithLogger(opts.Logger)}
	if opts.Telemetry != nil {
		wopts = append(wopts, weave.WithTelemetry(opts.Telemetry))
	}

	start := time.Now()
	h, err := weaveWithEdges(weave.New(wopts...), a, opts)
	if err != nil {
		r.hooks().OnWeaveComplete(ctx, 0, 0, time.Since(start), err)
		return nil, fmt.Errorf("weave: %w", err)
	}
	stats := h.Stats()
	r.hooks().OnWeaveComplete(ctx, stats.Nodes, stats.Edges, time.Since(start), nil)
	return h, nil
}

// weaveWithEdges builds the candidate graph, resolves opts.Edges against
// it and picks the hierarchy.
func weaveWithEdges(w *weave.Weaver, a *partition.Assignment, opts Options) (*weave.Hierarchy, error) {
	if len(opts.Edges) == 0 {
		return w.Weave(a, opts.Build, opts.Pick)
	}
	if err := w.Build(a, opts.Build); err != nil {
		return nil, err
	}
	pick := opts.Pick
	pick.Additional = slices.Clone(pick.Additional)
	for _, e := range opts.Edges {
		from, ok := w.NodeByKey(e.From)
		if !ok {
			return nil, errors.New(errors.ErrCodeNodeNotFound, "unknown node %q in edge %s", e.From, e)
		}
		to, ok := w.NodeByKey(e.To)
		if !ok {
			return nil, errors.New(errors.ErrCodeNodeNotFound, "unknown node %q in edge %s", e.To, e)
		}
		pick.Additional = append(pick.Additional, dag.EdgeKey{From: from, To: to})
	}
	return w.Pick(pick)
}

type woven struct {
	doc  *pkgio.Document
	data []byte // JSON encoding of doc
	hier *weave.Hierarchy
	hit  bool
}

func (r *Runner) weaveCached(ctx context.Context, opts *Options, result *Result) (*woven, error) {
	key := r.Keyer.HierarchyKey(cache.Hash(opts.Partitions), opts.HierarchyKeyOpts())

	if !opts.Refresh {
		if data, ok := r.cacheGet(ctx, key, keyTypeHierarchy); ok {
			doc, err := pkgio.ReadJSON(bytes.NewReader(data))
			if err == nil {
				return &woven{doc: doc, data: data, hit: true}, nil
			}
			r.Logger.Debug("discarding unreadable cache entry", "key", key, "error", err)
		}
	}

	readStart := time.Now()
	a, err := r.Read(ctx, *opts)
	if err != nil {
		return nil, err
	}
	result.Stats.ReadTime = time.Since(readStart)

	weaveStart := time.Now()
	h, err := r.weave(ctx, a, *opts)
	if err != nil {
		return nil, err
	}
	result.Stats.WeaveTime = time.Since(weaveStart)

	doc := pkgio.NewDocument(h)
	var buf bytes.Buffer
	if err := pkgio.WriteJSON(doc, &buf); err != nil {
		return nil, err
	}
	r.cacheSet(ctx, key, keyTypeHierarchy, buf.Bytes(), opts.TTL)

	return &woven{doc: doc, data: buf.Bytes(), hier: h}, nil
}

// Export produces every requested format from doc. data is the JSON
// encoding of doc; its hash keys the image artifacts. The returned flag
// reports whether every image came from the cache.
func (r *Runner) Export(ctx context.Context, doc *pkgio.Document, data []byte, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, fmt.Errorf("invalid options: %w", err)
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if imageFormats[format] {
			continue
		}
		start := time.Now()
		out, err := exportText(doc, data, format, opts)
		r.hooks().OnExportComplete(ctx, format, len(out), time.Since(start), err)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = out
	}

	if !opts.wantsImages() {
		return artifacts, false, nil
	}

	docHash := cache.Hash(data)
	allCached := true
	for _, format := range opts.Formats {
		if !imageFormats[format] {
			continue
		}
		key := r.Keyer.ArtifactKey(docHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if out, ok := r.cacheGet(ctx, key, keyTypeArtifact); ok {
				artifacts[format] = out
				continue
			}
		}
		allCached = false
	}
	if allCached {
		return artifacts, true, nil
	}

	start := time.Now()
	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(doc, opts.Render))
	if err != nil {
		r.hooks().OnExportComplete(ctx, FormatSVG, 0, time.Since(start), err)
		return nil, false, err
	}

	for _, format := range opts.Formats {
		if !imageFormats[format] {
			continue
		}
		var out []byte
		switch format {
		case FormatSVG:
			out = svg
		case FormatPNG:
			out, err = render.ToPNG(ctx, svg, opts.PNGScale)
		case FormatPDF:
			out, err = render.ToPDF(ctx, svg)
		}
		r.hooks().OnExportComplete(ctx, format, len(out), time.Since(start), err)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = out
		r.cacheSet(ctx, r.Keyer.ArtifactKey(docHash, opts.ArtifactKeyOpts(format)), keyTypeArtifact, out, opts.TTL)
	}
	return artifacts, false, nil
}

func exportText(doc *pkgio.Document, data []byte, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		return data, nil
	case FormatDDOT:
		var buf bytes.Buffer
		if err := pkgio.WriteDDOT(doc, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatDOT:
		return []byte(nodelink.ToDOT(doc, opts.Render)), nil
	default:
		return nil, ValidateFormat(format)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) cacheGet(ctx context.Context, key, keyType string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if hit {
		r.cacheHooks().OnCacheHit(ctx, keyType)
	} else {
		r.cacheHooks().OnCacheMiss(ctx, keyType)
	}
	return data, hit
}

func (r *Runner) cacheSet(ctx context.Context, key, keyType string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	r.cacheHooks().OnCacheSet(ctx, keyType, len(data))
}

func (r *Runner) hooks() observability.PipelineHooks {
	if r.Hooks != nil {
		return r.Hooks
	}
	return observability.Pipeline()
}

func (r *Runner) cacheHooks() observability.CacheHooks {
	if r.CacheHooks != nil {
		return r.CacheHooks
	}
	return observability.Cache()
}
