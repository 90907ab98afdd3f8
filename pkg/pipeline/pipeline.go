// Package pipeline runs the read → weave → export flow behind the CLI.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Read: parse a partition file (labels or bits) into a cluster assignment
//  2. Weave: build the candidate graph and pick a hierarchy
//  3. Export: write ddot, JSON and DOT text, render SVG, PNG or PDF
//
// The woven hierarchy is cached as a JSON document keyed by the content hash
// of the partition file plus every option that changes the result; rendered
// images are cached by document hash. Text exports are derived from the
// document and never cached.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:     "clusters.txt",
//	    Partitions: data,
//	    Formats:    []string{pipeline.FormatDDOT, pipeline.FormatSVG},
//	})
//	ddot := result.Artifacts[pipeline.FormatDDOT]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hiweave/pkg/cache"
	"github.com/matzehuels/hiweave/pkg/errors"
	pkgio "github.com/matzehuels/hiweave/pkg/io"
	"github.com/matzehuels/hiweave/pkg/observability"
	"github.com/matzehuels/hiweave/pkg/render/nodelink"
	"github.com/matzehuels/hiweave/pkg/weave"
)

const (
	// DefaultTTL is how long cached hierarchies and artifacts live.
	DefaultTTL = 24 * time.Hour

	// DefaultPNGScale renders PNGs at twice the SVG size.
	DefaultPNGScale = 2.0
)

// Output formats.
const (
	FormatDDOT = "ddot"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDDOT: true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// imageFormats are rendered through Graphviz and cached as artifacts.
var imageFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
}

// Options contains all configuration for a pipeline run.
type Options struct {
	// Read options
	Source       string // name used in logs
	Partitions   []byte
	Format       pkgio.Format
	Terminals    []string
	AssumeLevels bool
	LevelKeys    []float64

	// Weave options
	Build   weave.BuildOptions
	Pick    weave.PickOptions
	Edges   []EdgeRef // manual edges by node key, added to Pick.Additional
	Workers int

	// Export options
	Formats  []string
	Render   nodelink.Options
	PNGScale float64

	// Cache options
	Refresh bool
	TTL     time.Duration

	// Runtime options
	Logger    *log.Logger
	Telemetry observability.WeaveHooks

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the exported hierarchy.
	Document *pkgio.Document

	// DocumentHash is the content hash of the JSON document.
	DocumentHash string

	// Hierarchy is the woven hierarchy; nil when the document came from
	// the cache.
	Hierarchy *weave.Hierarchy

	// Artifacts contains exported outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Nodes      int
	Edges      int
	Terminals  int
	MaxDepth   int
	ReadTime   time.Duration
	WeaveTime  time.Duration
	ExportTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	WeaveHit  bool // the document came from cache
	RenderHit bool // every image artifact came from cache
}

// EdgeRef names a manual edge by the node keys of its endpoints.
type EdgeRef struct {
	From string
	To   string
}

func (e EdgeRef) String() string { return e.From + "," + e.To }

// ParseEdgeRef parses "FROM,TO", e.g. "1_1,4_4".
func ParseEdgeRef(s string) (EdgeRef, error) {
	from, to, ok := strings.Cut(s, ",")
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if !ok || from == "" || to == "" {
		return EdgeRef{}, errors.New(errors.ErrCodeInvalidInput, "invalid edge %q (want FROM,TO)", s)
	}
	return EdgeRef{From: from, To: to}, nil
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: ddot, json, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Partitions) == 0 {
		return fmt.Errorf("partitions are required")
	}
	if o.Format == "" {
		o.Format = pkgio.FormatLabels
	}
	if _, err := pkgio.ParseFormat(string(o.Format)); err != nil {
		return err
	}
	if o.Build == (weave.BuildOptions{}) {
		o.Build = weave.DefaultBuildOptions()
	}
	if err := o.Build.Validate(); err != nil {
		return err
	}
	if err := o.Pick.Validate(); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatDDOT}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// HierarchyKeyOpts returns cache key options for the woven hierarchy.
func (o *Options) HierarchyKeyOpts() cache.HierarchyKeyOpts {
	opts := cache.HierarchyKeyOpts{
		Format:                  string(o.Format),
		AssumeLevels:            o.AssumeLevels,
		LevelKeys:               o.LevelKeys,
		Cutoff:                  o.Build.Cutoff,
		PercentageEdges:         o.Pick.PercentageEdges,
		PercentageTerminalEdges: o.Pick.PercentageTerminalEdges,
		StrictSingleBranch:      o.Pick.StrictSingleBranch,
		Replace:                 o.Pick.Replace,
	}
	if len(o.Terminals) > 0 {
		opts.TerminalsHash = cache.Hash([]byte(strings.Join(o.Terminals, "\n")))
	}
	for _, e := range o.Pick.Additional {
		opts.Additional = append(opts.Additional, fmt.Sprintf("%d->%d", e.From, e.To))
	}
	for _, e := range o.Edges {
		opts.Additional = append(opts.Additional, e.String())
	}
	return opts
}

// ArtifactKeyOpts returns cache key options for an image artifact.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Format:        format,
		Detailed:      o.Render.Detailed,
		Weights:       o.Render.Weights,
		RankByDepth:   o.Render.RankByDepth,
		HideTerminals: o.Render.HideTerminals,
	}
	if format == FormatPNG {
		opts.Scale = o.PNGScale
	}
	return opts
}

// wantsImages reports whether any requested format is rendered.
func (o *Options) wantsImages() bool {
	return slices.ContainsFunc(o.Formats, func(f string) bool { return imageFormats[f] })
}
