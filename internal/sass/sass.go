// Package sass compiles SCSS sources to CSS through a pluggable compiler
// backend. Backends register themselves by name; the style pipeline picks
// one from configuration.
package sass

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Source is a single stylesheet handed to a compiler.
type Source struct {
	// Path is the file the data was read from. It is used for error
	// messages and as the first load path.
	Path string

	// Data is the (glob-expanded) stylesheet content.
	Data []byte

	// IncludePaths are additional directories searched by @import/@use.
	IncludePaths []string
}

// Compiler turns SCSS into CSS.
type Compiler interface {
	// Name returns the registered backend name.
	Name() string

	// Compile returns the CSS for src. Syntax errors are reported as
	// *CompileError.
	Compile(ctx context.Context, src Source) ([]byte, error)
}

// CompileError reports a stylesheet the compiler rejected.
type CompileError struct {
	Path string
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compiling %s: %v", e.Path, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Options configures compiler construction.
type Options struct {
	// Binary is the executable used by process-based backends.
	Binary string
}

// Factory constructs a Compiler.
type Factory func(opts Options) (Compiler, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under name. Registering the same name
// twice replaces the earlier factory.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	factories[name] = f
}

// New returns the compiler registered under name.
func New(name string, opts Options) (Compiler, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown sass compiler %q (available: %v)", name, Names())
	}

	return f(opts)
}

// Names returns the registered backend names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// loadPaths returns the entry's directory followed by the configured paths.
func loadPaths(src Source, dir string) []string {
	paths := make([]string, 0, len(src.IncludePaths)+1)
	if dir != "" {
		paths = append(paths, dir)
	}

	return append(paths, src.IncludePaths...)
}
