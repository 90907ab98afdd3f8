// Package cli implements the hiweave command-line interface.
//
// # Commands
//
//   - weave: build a hierarchy from a partition file and export it as ddot,
//     JSON, DOT, SVG, PNG or PDF
//   - recover: cut the woven hierarchy back into a flat partition
//   - cache: clear or locate the hierarchy and image cache
//   - completion: generate shell completion scripts
//
// # Configuration
//
// Every command accepts --config with a TOML or YAML file (see package
// config). Flags given on the command line override the file.
//
// # Logging
//
// Logs go to stderr through charmbracelet/log; --verbose (-v) switches to
// debug level. Results go to stdout.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// Execute runs the hiweave command line with args.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var verbose bool

	c := New(stdout, stderr, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(LogDebug)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}
