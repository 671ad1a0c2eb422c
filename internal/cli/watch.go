package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hupe1980/stylepipe/internal/logging"
	"github.com/hupe1980/stylepipe/internal/watch"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch stylesheets and recompile on change",
		Long: `Watch compiles the bundle once, then monitors the directories behind
the src, watch and modules globs and recompiles whenever a matching
stylesheet changes.

Bursts of changes are debounced into a single rebuild. A failing build is
reported and the watcher keeps running; the previous bundle stays in
place until the next successful build.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), cmd)
		},
	}

	registerStyleFlags(cmd)
	registerWatchFlags(cmd)

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command) error {
	p, cfg, err := newPipeline(ctx)
	if err != nil {
		return err
	}

	watchOpts := watch.Options{
		Patterns: cfg.WatchPatterns(),
		Debounce: cfg.Debounce,
		Logger:   logging.Component(ctx, "watch"),
		Out:      cmd.ErrOrStderr(),
	}

	if err := watch.Run(ctx, watchOpts, watchRunFunc(p)); err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	return nil
}
