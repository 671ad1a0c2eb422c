// Package stylepipe provides a public Go API for compiling SASS/SCSS
// stylesheets into a single minified, vendor-prefixed CSS bundle.
//
// This package exposes the stylepipe build as a library, allowing
// programmatic use without the CLI.
//
// Basic usage:
//
//	result, err := stylepipe.Compile(ctx, []string{"components/styles/index.scss"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.OutputPath)
//
// With options:
//
//	result, err := stylepipe.Compile(ctx, []string{"styles/*.scss"},
//	    stylepipe.WithDest("public/css"),
//	    stylepipe.WithBrowsers("safari 13", "firefox 78"),
//	    stylepipe.WithDryRun(),
//	)
package stylepipe

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/hupe1980/stylepipe/internal/config"
	"github.com/hupe1980/stylepipe/internal/pipeline"
)

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Option configures the style build.
// Use the With* functions to create Options.
type Option func(*options)

// options holds the internal configuration for the style build.
type options struct {
	dest         string
	bundle       string
	includePaths []string
	compiler     string
	sassBinary   string
	browsers     []string
	noSourceMap  bool
	gzip         bool
	dryRun       bool
	logger       *slog.Logger
}

// --- Output ---

// WithDest sets the destination directory (default: "css").
func WithDest(dir string) Option { return func(o *options) { o.dest = dir } }

// WithBundle sets the bundle file name (default: "style.min.css").
func WithBundle(name string) Option { return func(o *options) { o.bundle = name } }

// WithoutSourceMap disables the source map.
func WithoutSourceMap() Option { return func(o *options) { o.noSourceMap = true } }

// WithGzip also writes a gzip-compressed bundle.
func WithGzip() Option { return func(o *options) { o.gzip = true } }

// WithDryRun builds the bundle without writing anything.
func WithDryRun() Option { return func(o *options) { o.dryRun = true } }

// --- Compilation ---

// WithIncludePaths adds SASS load paths.
func WithIncludePaths(paths ...string) Option {
	return func(o *options) { o.includePaths = append(o.includePaths, paths...) }
}

// WithCompiler selects the SASS compiler ("libsass" or "dart-sass").
func WithCompiler(name string) Option { return func(o *options) { o.compiler = name } }

// WithSassBinary sets the dart-sass executable (default: "sass").
func WithSassBinary(path string) Option { return func(o *options) { o.sassBinary = path } }

// WithBrowsers sets the vendor-prefix targets, e.g. "safari 14".
func WithBrowsers(targets ...string) Option {
	return func(o *options) { o.browsers = append(o.browsers, targets...) }
}

// --- Diagnostics ---

// WithLogger sets the logger used during the build. Logs are discarded by
// default.
func WithLogger(logger *slog.Logger) Option { return func(o *options) { o.logger = logger } }

// Result holds the output of a successful build.
type Result struct {
	// CSS is the bundle, including the source map link when enabled.
	CSS []byte

	// SourceMap is the encoded source map, nil when disabled.
	SourceMap []byte

	// OutputPath is where the bundle is (or would be) written.
	OutputPath string

	// MapPath is where the source map was written. Empty for dry runs or
	// when source maps are disabled.
	MapPath string

	// Entries are the compiled entry stylesheets in bundle order.
	Entries []string

	// Imports are the files pulled in through glob imports.
	Imports []string

	// Digest is the xxhash64 of CSS in hex.
	Digest string
}

// Compile builds the bundle from the entry stylesheet globs in sources and
// writes it unless WithDryRun is given. On error nothing is written.
//
// Pass no options to use all defaults:
//
//	result, err := stylepipe.Compile(ctx, []string{"components/styles/index.scss"})
func Compile(ctx context.Context, sources []string, opts ...Option) (*Result, error) {
	if len(sources) == 0 {
		return nil, errors.New("at least one source pattern is required")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg := o.config(sources)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = discardLogger()
	}

	p, err := pipeline.FromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	b, err := p.Build(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		CSS:        b.CSS,
		SourceMap:  b.Map,
		OutputPath: p.OutputPath(),
		Entries:    b.Entries,
		Imports:    b.Imports,
		Digest:     pipeline.Digest(b.CSS),
	}

	if o.dryRun {
		return result, nil
	}

	written, err := p.Write(b)
	if err != nil {
		return nil, err
	}

	result.MapPath = written.MapPath

	return result, nil
}

// config maps the options onto a validated-shape Config.
func (o *options) config(sources []string) *config.Config {
	cfg := config.Default()
	cfg.Styles.Src = sources
	cfg.Styles.IncludePaths = o.includePaths
	cfg.Browsers = o.browsers
	cfg.SourceMap = !o.noSourceMap
	cfg.Gzip = o.gzip

	if o.dest != "" {
		cfg.Styles.Dest = o.dest
	}

	if o.bundle != "" {
		cfg.Styles.Bundle = o.bundle
	}

	if o.compiler != "" {
		cfg.Compiler = o.compiler
	}

	if o.sassBinary != "" {
		cfg.SassBinary = o.sassBinary
	}

	return cfg
}
