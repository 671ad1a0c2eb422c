package sass

import (
	"bytes"
	"context"
	"path/filepath"

	libsass "github.com/wellington/go-libsass"
)

// LibSassName is the registered name of the libsass backend.
const LibSassName = "libsass"

// libSassCompiler compiles in-process through the libsass C library.
type libSassCompiler struct{}

// NewLibSass returns the cgo libsass backend.
func NewLibSass() Compiler {
	return &libSassCompiler{}
}

func (c *libSassCompiler) Name() string { return LibSassName }

func (c *libSassCompiler) Compile(ctx context.Context, src Source) ([]byte, error) {
	// libsass cannot be interrupted once started.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var dir string
	if src.Path != "" {
		dir = filepath.Dir(src.Path)
	}

	var buf bytes.Buffer

	comp, err := libsass.New(&buf, bytes.NewReader(src.Data),
		libsass.IncludePaths(loadPaths(src, dir)),
		libsass.OutputStyle(libsass.EXPANDED_STYLE),
	)
	if err != nil {
		return nil, err
	}

	if err := comp.Run(); err != nil {
		return nil, &CompileError{Path: src.Path, Err: err}
	}

	return buf.Bytes(), nil
}

func init() {
	Register(LibSassName, func(Options) (Compiler, error) {
		return NewLibSass(), nil
	})
}
