// Package pipeline implements the style build: it resolves entry
// stylesheets, expands glob imports, compiles, vendor-prefixes, minifies and
// concatenates them into a single bundle with a source map.
//
// Stages run strictly in that order for every entry. Any failure aborts the
// run before anything is written, so the previous bundle stays in place.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/stylepipe/internal/config"
	"github.com/hupe1980/stylepipe/internal/globimport"
	"github.com/hupe1980/stylepipe/internal/minify"
	"github.com/hupe1980/stylepipe/internal/output"
	"github.com/hupe1980/stylepipe/internal/pathglob"
	"github.com/hupe1980/stylepipe/internal/prefix"
	"github.com/hupe1980/stylepipe/internal/sass"
	"github.com/hupe1980/stylepipe/internal/sourcemap"
)

// Options configures a Pipeline.
type Options struct {
	// Sources are the entry stylesheet globs.
	Sources []string

	// IncludePaths are extra SASS load paths.
	IncludePaths []string

	// Dest is the output directory.
	Dest string

	// Bundle is the output file name inside Dest.
	Bundle string

	// SourceMap writes <Bundle>.map and links it from the bundle.
	SourceMap bool

	// Gzip also writes <Bundle>.gz.
	Gzip bool

	// Logger is used for structured logging.
	Logger *slog.Logger
}

// OptionsFromConfig maps the configured path roles onto pipeline options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Sources:      cfg.Styles.Src,
		IncludePaths: cfg.Styles.IncludePaths,
		Dest:         cfg.Styles.Dest,
		Bundle:       cfg.Styles.Bundle,
		SourceMap:    cfg.SourceMap,
		Gzip:         cfg.Gzip,
	}
}

// Pipeline is a configured style build. It holds no state between runs and
// is safe to reuse.
type Pipeline struct {
	compiler sass.Compiler
	prefixer *prefix.Prefixer
	minifier *minify.Minifier
	opts     Options
}

// New creates a pipeline around the given compiler and prefixer.
func New(compiler sass.Compiler, prefixer *prefix.Prefixer, opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Pipeline{
		compiler: compiler,
		prefixer: prefixer,
		minifier: minify.New(),
		opts:     opts,
	}
}

// FromConfig builds a pipeline with the compiler and browser targets named
// in cfg.
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	compiler, err := sass.New(cfg.Compiler, sass.Options{Binary: cfg.SassBinary})
	if err != nil {
		return nil, err
	}

	prefixer, err := prefix.New(cfg.Browsers)
	if err != nil {
		return nil, err
	}

	opts := OptionsFromConfig(cfg)
	opts.Logger = logger

	return New(compiler, prefixer, opts), nil
}

// OutputPath returns the path of the bundle.
func (p *Pipeline) OutputPath() string {
	return filepath.Join(p.opts.Dest, p.opts.Bundle)
}

// MapPath returns the path of the source map.
func (p *Pipeline) MapPath() string {
	return p.OutputPath() + ".map"
}

// Bundle is the in-memory result of a build.
type Bundle struct {
	// CSS is the final bundle, including the source map link when enabled.
	CSS []byte

	// Map is the encoded source map, nil when disabled.
	Map []byte

	// Entries are the resolved entry stylesheets in bundle order.
	Entries []string

	// Imports are the files pulled in by glob imports.
	Imports []string
}

// Result describes a completed run.
type Result struct {
	Entries    []string
	Imports    []string
	OutputPath string
	MapPath    string
	GzipPath   string
	Size       int
	Digest     string
	Duration   time.Duration
}

// Build runs every stage and returns the bundle without writing it.
func (p *Pipeline) Build(ctx context.Context) (*Bundle, error) {
	entries, err := pathglob.Expand(p.opts.Sources...)
	if err != nil {
		return nil, fmt.Errorf("resolving sources: %w", err)
	}

	var (
		css     bytes.Buffer
		imports []string
		smap    = sourcemap.NewBuilder(p.OutputPath())
	)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src, err := os.ReadFile(entry) //nolint:gosec // entry comes from configured globs
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry, err)
		}

		chunk, files, err := p.process(ctx, entry, src)
		if err != nil {
			return nil, err
		}

		line, col := position(css.Bytes())
		smap.Add(entry, src, line, col)

		css.Write(chunk)

		imports = append(imports, files...)
	}

	b := &Bundle{
		Entries: entries,
		Imports: imports,
	}

	if p.opts.SourceMap {
		mapJSON, err := smap.JSON()
		if err != nil {
			return nil, err
		}

		css.WriteByte('\n')
		css.WriteString(sourcemap.Comment(filepath.Base(p.MapPath())))

		b.Map = mapJSON
	}

	b.CSS = css.Bytes()

	return b, nil
}

// process runs the per-entry stages in their fixed order.
func (p *Pipeline) process(ctx context.Context, entry string, src []byte) ([]byte, []string, error) {
	expanded, err := globimport.Expand(src, entry, p.opts.IncludePaths)
	if err != nil {
		return nil, nil, err
	}

	compiled, err := p.compiler.Compile(ctx, sass.Source{
		Path:         entry,
		Data:         expanded.Source,
		IncludePaths: p.opts.IncludePaths,
	})
	if err != nil {
		return nil, nil, err
	}

	prefixed, err := p.prefixer.Process(compiled)
	if err != nil {
		return nil, nil, fmt.Errorf("prefixing %s: %w", entry, err)
	}

	minified, err := p.minifier.Minify(prefixed)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", entry, err)
	}

	return minified, expanded.Files, nil
}

// Run builds the bundle and writes it, its source map and the optional
// gzip sibling to the destination directory.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	b, err := p.Build(ctx)
	if err != nil {
		return nil, err
	}

	res, err := p.Write(b)
	if err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)

	p.opts.Logger.Info("bundle written",
		slog.String("path", res.OutputPath),
		slog.Int("entries", len(res.Entries)),
		slog.Int("bytes", res.Size),
		slog.String("digest", res.Digest),
		slog.Duration("took", res.Duration),
	)

	return res, nil
}

// Write stores a built bundle. The bundle is written before its source map
// and gzip sibling.
func (p *Pipeline) Write(b *Bundle) (*Result, error) {
	res := &Result{
		Entries:    b.Entries,
		Imports:    b.Imports,
		OutputPath: p.OutputPath(),
		Size:       len(b.CSS),
		Digest:     Digest(b.CSS),
	}

	writerOpts := []output.FileWriterOption{output.WithLogger(p.opts.Logger)}

	if err := output.NewFileWriter(res.OutputPath, writerOpts...).Write(b.CSS); err != nil {
		return nil, err
	}

	if b.Map != nil {
		res.MapPath = p.MapPath()
		if err := output.NewFileWriter(res.MapPath, writerOpts...).Write(b.Map); err != nil {
			return nil, err
		}
	}

	if p.opts.Gzip {
		res.GzipPath = res.OutputPath + ".gz"

		gz := output.NewGzipWriter(output.NewFileWriter(res.GzipPath, writerOpts...))
		if err := gz.Write(b.CSS); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// Digest returns the hex xxhash64 of data.
func Digest(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// position returns the zero-based line and column at the end of buf.
func position(buf []byte) (line, col int) {
	line = bytes.Count(buf, []byte{'\n'})
	if i := bytes.LastIndexByte(buf, '\n'); i >= 0 {
		return line, len(buf) - i - 1
	}

	return line, len(buf)
}
