package sass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// DartSassName is the registered name of the dart-sass backend.
const DartSassName = "dart-sass"

// dartSassCompiler runs the standalone dart-sass executable, feeding the
// stylesheet on stdin and reading CSS from stdout.
type dartSassCompiler struct {
	binary string
}

// NewDartSass returns a backend that shells out to binary. An empty binary
// defaults to "sass" on PATH.
func NewDartSass(binary string) Compiler {
	if binary == "" {
		binary = "sass"
	}

	return &dartSassCompiler{binary: binary}
}

func (c *dartSassCompiler) Name() string { return DartSassName }

func (c *dartSassCompiler) Compile(ctx context.Context, src Source) ([]byte, error) {
	path, err := exec.LookPath(c.binary)
	if err != nil {
		return nil, fmt.Errorf("locating dart-sass binary %q: %w", c.binary, err)
	}

	var dir string
	if src.Path != "" {
		dir = filepath.Dir(src.Path)
	}

	args := []string{"--stdin", "--no-source-map", "--style=expanded"}
	for _, p := range loadPaths(src, dir) {
		args = append(args, "--load-path="+p)
	}

	cmd := exec.CommandContext(ctx, path, args...) //nolint:gosec // binary comes from configuration
	cmd.Stdin = bytes.NewReader(src.Data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = exitErr.Error()
			}

			return nil, &CompileError{Path: src.Path, Err: errors.New(msg)}
		}

		return nil, fmt.Errorf("running %s: %w", path, err)
	}

	return stdout.Bytes(), nil
}

func init() {
	Register(DartSassName, func(opts Options) (Compiler, error) {
		return NewDartSass(opts.Binary), nil
	})
}
