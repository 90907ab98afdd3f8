package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hiweave/pkg/pipeline"
	"github.com/matzehuels/hiweave/pkg/weave"
)

// recoverOpts holds the command-line flags for the recover command.
type recoverOpts struct {
	weaveOpts

	depth            int
	level            float64
	includeTerminals bool
	clusters         bool
}

// recoverCommand creates the recover command, which cuts a woven hierarchy
// back into a flat partition.
func (c *CLI) recoverCommand() *cobra.Command {
	var opts recoverOpts

	cmd := &cobra.Command{
		Use:   "recover [partitions-file]",
		Short: "Recover a flat partition from the woven hierarchy",
		Long: `Weave the partition file, then cut the hierarchy at a depth or level and
print one cluster number per terminal, in terminal order.

With --depth D the clusters are the nodes D edges below the root. With
--level L they are the nodes whose level reaches L (requires --levels or
--level-keys for meaningful levels). A cluster that has terminals as direct
children is cut there unless --include-terminals is given, in which case
those terminals become singleton clusters.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRecover(cmd, args[0], &opts)
		},
	}

	opts.addHierarchyFlags(cmd)
	cmd.Flags().IntVarP(&opts.depth, "depth", "d", 0, "cut the hierarchy at this depth")
	cmd.Flags().Float64VarP(&opts.level, "level", "l", 0, "cut the hierarchy at this level")
	cmd.Flags().BoolVar(&opts.includeTerminals, "include-terminals", false, "record terminals reached above the cut as singletons")
	cmd.Flags().BoolVar(&opts.clusters, "clusters", false, "list the recovered clusters instead of the flat partition")
	cmd.MarkFlagsMutuallyExclusive("depth", "level")
	cmd.MarkFlagsOneRequired("depth", "level")

	return cmd
}

func (c *CLI) runRecover(cmd *cobra.Command, input string, opts *recoverOpts) error {
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
	popts, err := c.pipelineOptions(input, data, cfg, &opts.weaveOpts)
	if err != nil {
		return err
	}

	p := newProgress(c.Logger)
	// The hierarchy itself is needed, so the document cache is bypassed.
	h, err := pipeline.NewRunner(nil, nil, c.Logger).Weave(ctx, popts)
	if err != nil {
		return err
	}

	stop := !opts.includeTerminals
	var cl weave.Clusters
	if cmd.Flags().Changed("depth") {
		cl = h.DepthCluster(opts.depth, stop)
	} else {
		cl = h.LevelCluster(opts.level, stop)
	}
	p.done(fmt.Sprintf("Recovered %d clusters", cl.Len()))

	if opts.clusters {
		c.printClusters(h, cl)
		return nil
	}
	if cl.Len() == 0 {
		c.printWarning("no clusters at the requested cut")
		return nil
	}
	c.println(formatFlat(cl.Flat()))
	return nil
}

// printClusters lists each recovered cluster with its size.
func (c *CLI) printClusters(h *weave.Hierarchy, cl weave.Clusters) {
	c.printInfo("%s clusters", StyleNumber.Render(strconv.Itoa(cl.Len())))
	for i, id := range cl.Nodes {
		size := 0
		for _, in := range cl.Members[i] {
			if in {
				size++
			}
		}
		c.printKeyValue(h.Key(id), fmt.Sprintf("%d terminals", size))
	}
}

// formatFlat joins a flat partition with single spaces.
func formatFlat(flat []int) string {
	parts := make([]string, len(flat))
	for i, v := range flat {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}
