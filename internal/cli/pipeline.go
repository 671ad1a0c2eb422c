package cli

import (
	"context"

	"github.com/hupe1980/stylepipe/internal/config"
	"github.com/hupe1980/stylepipe/internal/logging"
	"github.com/hupe1980/stylepipe/internal/pipeline"
	"github.com/hupe1980/stylepipe/internal/watch"
)

// newPipeline builds the style pipeline for the loaded configuration.
// Construction failures are configuration problems.
func newPipeline(ctx context.Context) (*pipeline.Pipeline, *config.Config, error) {
	cfg := config.FromContext(ctx)

	p, err := pipeline.FromConfig(cfg, logging.Component(ctx, "pipeline"))
	if err != nil {
		return nil, nil, &ExitError{Code: ExitInvalid, Err: err}
	}

	return p, cfg, nil
}

// runPipeline executes one full build and maps failures to exit code 1.
func runPipeline(ctx context.Context, p *pipeline.Pipeline) (*pipeline.Result, error) {
	res, err := p.Run(ctx)
	if err != nil {
		return nil, &ExitError{Code: ExitFailure, Err: err}
	}

	return res, nil
}

// watchRunFunc adapts a pipeline to the watcher's run callback.
func watchRunFunc(p *pipeline.Pipeline) watch.RunFunc {
	return func(ctx context.Context) (*watch.RunResult, error) {
		res, err := p.Run(ctx)
		if err != nil {
			return nil, err
		}

		return &watch.RunResult{
			OutputPath: res.OutputPath,
			Entries:    len(res.Entries),
			Size:       res.Size,
			Digest:     res.Digest,
			Duration:   res.Duration,
		}, nil
	}
}
