package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/stylepipe/internal/diff"
)

type diffOptions struct {
	// Return exit code 3 when the bundle would change.
	exitCode bool
}

func newDiffCommand() *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show how a compile would change the bundle",
		Long: `Diff builds the bundle in memory and compares it with the bundle on
disk, one CSS rule per line. Nothing is written.

Exit codes:
  0  No differences, or differences without --exit-code
  1  Build failed
  2  Invalid configuration or arguments
  3  Differences found (with --exit-code)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDiff(cmd.Context(), cmd, opts)
		},
	}

	registerStyleFlags(cmd)
	cmd.Flags().BoolVar(&opts.exitCode, "exit-code", false, "exit with code 3 when differences are found")

	return cmd
}

func runDiff(ctx context.Context, cmd *cobra.Command, opts *diffOptions) error {
	p, cfg, err := newPipeline(ctx)
	if err != nil {
		return err
	}

	existing, err := os.ReadFile(p.OutputPath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("reading existing bundle: %w", err)}
	}

	b, err := p.Build(ctx)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	diffOpts := diff.DefaultOptions()
	diffOpts.OldLabel = p.OutputPath()
	diffOpts.NewLabel = p.OutputPath() + " (compiled)"

	result, err := diff.CSS(existing, b.CSS, diffOpts)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	diff.Write(cmd.OutOrStdout(), result, !cfg.NoColor)

	if opts.exitCode && result.HasDifferences {
		return &ExitError{Code: ExitDifferences, Err: fmt.Errorf("%s is out of date", p.OutputPath())}
	}

	return nil
}
