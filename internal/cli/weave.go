package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hiweave/pkg/buildinfo"
	"github.com/matzehuels/hiweave/pkg/config"
	pkgio "github.com/matzehuels/hiweave/pkg/io"
	"github.com/matzehuels/hiweave/pkg/observability"
	"github.com/matzehuels/hiweave/pkg/pipeline"
	"github.com/matzehuels/hiweave/pkg/render/nodelink"
)

// weaveOpts holds the command-line flags for the weave command. Flags that
// mirror config keys only override the config when set explicitly.
type weaveOpts struct {
	format       string
	terminals    string
	assumeLevels bool
	levelKeys    string
	cutoff       float64
	top          float64
	topTerminal  float64
	strict       bool
	edges        []string
	replace      bool
	workers      int

	outputs map[string]string // format → path
	render  nodelink.Options
	scale   float64

	noCache bool
	refresh bool
	redis   string
	metrics bool
}

// outputFlags are the per-format output flags, in the order files are
// written.
var outputFlags = []struct {
	flag, format, usage string
}{
	{"out", pipeline.FormatDDOT, "write the hierarchy as ddot (default: stdout)"},
	{"json", pipeline.FormatJSON, "write the hierarchy document as JSON"},
	{"dot", pipeline.FormatDOT, "write Graphviz DOT source"},
	{"svg", pipeline.FormatSVG, "render the hierarchy to SVG"},
	{"png", pipeline.FormatPNG, "render the hierarchy to PNG (needs rsvg-convert)"},
	{"pdf", pipeline.FormatPDF, "render the hierarchy to PDF (needs rsvg-convert)"},
}

// weaveCommand creates the weave command.
func (c *CLI) weaveCommand() *cobra.Command {
	opts := weaveOpts{outputs: make(map[string]string)}
	paths := make([]string, len(outputFlags))

	cmd := &cobra.Command{
		Use:   "weave [partitions-file]",
		Short: "Build a hierarchy from a partition file",
		Long: `Build a hierarchy from a partition file.

Each non-blank line of the file is one partition of the same terminals:
whitespace-separated cluster labels (--format labels) or a string of 0/1
membership flags for a single cluster (--format bits). Use "-" for stdin.

Without output flags the hierarchy is written to stdout as ddot
(Parent, Child, Type rows).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, f := range outputFlags {
				if paths[i] != "" {
					opts.outputs[f.format] = paths[i]
				}
			}
			return c.runWeave(cmd, args[0], &opts)
		},
	}

	opts.addHierarchyFlags(cmd)
	for i, f := range outputFlags {
		cmd.Flags().StringVar(&paths[i], f.flag, "", f.usage)
	}
	cmd.Flags().BoolVar(&opts.render.Detailed, "detailed", false, "label clusters with their key and size (dot, images)")
	cmd.Flags().BoolVar(&opts.render.Weights, "weights", false, "label edges with their weight (dot, images)")
	cmd.Flags().BoolVar(&opts.render.RankByDepth, "rank-by-depth", false, "align nodes of equal depth (dot, images)")
	cmd.Flags().BoolVar(&opts.render.HideTerminals, "hide-terminals", false, "draw clusters only (dot, images)")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultPNGScale, "PNG scale factor")

	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute and overwrite cached results")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "use the Redis cache at ADDR")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print Prometheus metrics to stderr after the run")

	return cmd
}

// addHierarchyFlags registers the flags that shape the woven hierarchy.
func (o *weaveOpts) addHierarchyFlags(cmd *cobra.Command) {
	defaults := config.Default()
	cmd.Flags().StringVarP(&o.format, "format", "f", defaults.Input.Format, "partition file format: labels, bits")
	cmd.Flags().StringVarP(&o.terminals, "terminals", "t", "", "file with one terminal label per line")
	cmd.Flags().BoolVar(&o.assumeLevels, "levels", false, "treat partitions as ordered levels (parents come first)")
	cmd.Flags().StringVar(&o.levelKeys, "level-keys", "", "comma-separated level value per partition (implies --levels)")
	cmd.Flags().Float64Var(&o.cutoff, "cutoff", defaults.Build.Cutoff, "minimum containment index for a parent link (0.5-1)")
	cmd.Flags().Float64Var(&o.top, "top", defaults.Pick.PercentageEdges, "percentage of secondary cluster edges to keep (0-100)")
	cmd.Flags().Float64Var(&o.topTerminal, "top-terminal", defaults.Pick.PercentageTerminalEdges, "percentage of secondary terminal edges to keep (0-100)")
	cmd.Flags().BoolVar(&o.strict, "strict-single-branch", false, "collapse every cluster with exactly one child")
	cmd.Flags().StringArrayVarP(&o.edges, "edge", "e", nil, "force an edge PARENT,CHILD given by node keys (repeatable)")
	cmd.Flags().BoolVar(&o.replace, "replace", false, "forced edges replace the child's other parents")
	cmd.Flags().IntVarP(&o.workers, "workers", "j", 0, "parallel workers (0: one per CPU)")
}

// applyFlags overrides cfg with the flags the user set.
func (o *weaveOpts) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Input.Format = o.format
	}
	if flags.Changed("terminals") {
		cfg.Input.Terminals = o.terminals
	}
	if flags.Changed("levels") {
		cfg.Input.AssumeLevels = o.assumeLevels
	}
	if flags.Changed("level-keys") {
		keys, err := parseLevelKeys(o.levelKeys)
		if err != nil {
			return err
		}
		cfg.Input.LevelKeys = keys
	}
	if flags.Changed("cutoff") {
		cfg.Build.Cutoff = o.cutoff
	}
	if flags.Changed("top") {
		cfg.Pick.PercentageEdges = o.top
	}
	if flags.Changed("top-terminal") {
		cfg.Pick.PercentageTerminalEdges = o.topTerminal
	}
	if flags.Changed("strict-single-branch") {
		cfg.Pick.StrictSingleBranch = o.strict
	}
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if o.redis != "" {
		cfg.Cache.Backend = config.BackendRedis
		cfg.Cache.RedisAddr = o.redis
	}
	if o.noCache {
		cfg.Cache.Backend = config.BackendNone
	}
	return cfg.Validate()
}

// pipelineOptions builds the pipeline options for input from cfg and the
// flags that have no config key.
func (c *CLI) pipelineOptions(input string, data []byte, cfg *config.Config, o *weaveOpts) (pipeline.Options, error) {
	format, err := pkgio.ParseFormat(cfg.Input.Format)
	if err != nil {
		return pipeline.Options{}, err
	}
	terminals, err := readTerminals(cfg.Input.Terminals)
	if err != nil {
		return pipeline.Options{}, err
	}
	var edges []pipeline.EdgeRef
	for _, s := range o.edges {
		e, err := pipeline.ParseEdgeRef(s)
		if err != nil {
			return pipeline.Options{}, err
		}
		edges = append(edges, e)
	}
	pick := cfg.PickOptions()
	pick.Replace = o.replace

	return pipeline.Options{
		Source:       input,
		Partitions:   data,
		Format:       format,
		Terminals:    terminals,
		AssumeLevels: cfg.Input.AssumeLevels,
		LevelKeys:    cfg.Input.LevelKeys,
		Build:        cfg.BuildOptions(),
		Pick:         pick,
		Edges:        edges,
		Workers:      cfg.Workers,
		TTL:          cfg.Cache.TTL.Duration,
		Logger:       c.Logger,
	}, nil
}

func (c *CLI) runWeave(cmd *cobra.Command, input string, opts *weaveOpts) error {
	ctx := cmd.Context()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if err := opts.applyFlags(cmd, cfg); err != nil {
		return err
	}

	data, err := readInput(input)
	if err != nil {
		return err
	}
	popts, err := c.pipelineOptions(input, data, cfg, opts)
	if err != nil {
		return err
	}
	popts.Render = opts.render
	popts.PNGScale = opts.scale
	popts.Refresh = opts.refresh

	toStdout := len(opts.outputs) == 0
	if toStdout {
		popts.Formats = []string{pipeline.FormatDDOT}
	}
	for _, f := range outputFlags {
		if _, ok := opts.outputs[f.format]; ok {
			popts.Formats = append(popts.Formats, f.format)
		}
	}

	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	var prom *observability.PrometheusHooks
	if opts.metrics {
		prom = observability.NewPrometheusHooks(appName)
		runner.Hooks, runner.CacheHooks, popts.Telemetry = prom, prom, prom
	} else {
		hooks := observability.NewLogHooks(c.Logger)
		runner.Hooks, popts.Telemetry = hooks, hooks
	}

	c.Logger.Debug("weaving", append([]any{"input", input}, buildinfo.KeyVals()...)...)
	result, err := c.execute(ctx, runner, popts)
	if err != nil {
		return err
	}

	if toStdout {
		if _, err := c.out.Write(result.Artifacts[pipeline.FormatDDOT]); err != nil {
			return err
		}
	} else {
		if err := c.writeOutputs(result, opts.outputs); err != nil {
			return err
		}
		c.printSummary(result, opts.outputs)
	}

	// Metrics go to stderr so a ddot stream on stdout stays parseable.
	if prom != nil {
		return prom.WriteText(c.err)
	}
	return nil
}

// execute runs the pipeline, showing a spinner when stderr is a terminal
// and debug logging is off.
func (c *CLI) execute(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	if !isTerminal(c.err) || c.Logger.GetLevel() <= LogDebug {
		return runner.Execute(ctx, opts)
	}
	s := newSpinnerWithContext(ctx, c.err, "Weaving hierarchy...")
	s.Start()
	result, err := runner.Execute(ctx, opts)
	s.Stop()
	return result, err
}

// writeOutputs writes every artifact to the path given for its format.
func (c *CLI) writeOutputs(result *pipeline.Result, outputs map[string]string) error {
	for _, f := range outputFlags {
		path, ok := outputs[f.format]
		if !ok {
			continue
		}
		if err := os.WriteFile(path, result.Artifacts[f.format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// printSummary prints the hierarchy stats and the written files.
func (c *CLI) printSummary(result *pipeline.Result, outputs map[string]string) {
	c.printSuccess("Woven hierarchy")
	c.printStats(result.Stats, result.CacheInfo.WeaveHit)
	for _, f := range outputFlags {
		if path, ok := outputs[f.format]; ok {
			c.printFile(path)
		}
	}
}
