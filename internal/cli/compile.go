package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/stylepipe/internal/output"
)

type compileOptions struct {
	dryRun bool
}

func newCompileCommand() *cobra.Command {
	opts := &compileOptions{}

	cmd := &cobra.Command{
		Use:     "compile",
		Aliases: []string{"style"},
		Short:   "Compile stylesheets into the bundle",
		Long: `Compile resolves the entry stylesheets, expands glob imports,
compiles, vendor-prefixes and minifies each entry, and writes the
concatenated bundle with its source map.

If any stage fails nothing is written and the previous bundle is kept.

Exit codes:
  0  Bundle written
  1  Build failed
  2  Invalid configuration or arguments`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompile(cmd.Context(), cmd, opts)
		},
	}

	registerStyleFlags(cmd)
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the bundle to stdout instead of writing it")

	return cmd
}

func runCompile(ctx context.Context, cmd *cobra.Command, opts *compileOptions) error {
	p, cfg, err := newPipeline(ctx)
	if err != nil {
		return err
	}

	if opts.dryRun {
		b, buildErr := p.Build(ctx)
		if buildErr != nil {
			return &ExitError{Code: ExitFailure, Err: buildErr}
		}

		return output.NewStdoutWriter(cmd.OutOrStdout()).Write(b.CSS)
	}

	res, err := runPipeline(ctx, p)
	if err != nil {
		return err
	}

	if !cfg.Quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes, %d entries) in %s\n",
			res.OutputPath, res.Size, len(res.Entries), res.Duration.Round(time.Millisecond))
	}

	return nil
}
