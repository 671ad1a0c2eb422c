// Package cli implements the cobra command tree for stylepipe.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/stylepipe/internal/config"
	"github.com/hupe1980/stylepipe/internal/logging"
)

// Process exit codes.
const (
	ExitFailure     = 1
	ExitInvalid     = 2
	ExitDifferences = 3
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		return ExitFailure
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "stylepipe",
		Short: "Compile SASS into a minified, prefixed CSS bundle",
		Long: `stylepipe compiles SASS/SCSS stylesheets into a single minified,
vendor-prefixed CSS bundle with a source map.

Entry stylesheets are resolved from globs, glob imports are expanded,
each entry is compiled, prefixed and minified, and the results are
concatenated into one bundle. The watch command rebuilds the bundle
whenever a matching stylesheet changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: ExitInvalid, Err: err}
			}

			logger := logging.SetupWithWriter(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("configFile", cfg.ConfigFile),
				slog.String("compiler", cfg.Compiler),
				slog.Any("src", cfg.Styles.Src),
				slog.String("output", cfg.OutputPath()),
			)

			return nil
		},
	}

	// Global persistent flags.
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .stylepipe.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")

	_ = cmd.RegisterFlagCompletionFunc("log-level", cobra.FixedCompletions([]string{
		config.LogLevelDebug, config.LogLevelInfo, config.LogLevelWarn, config.LogLevelError,
	}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("log-format", cobra.FixedCompletions([]string{
		config.LogFormatText, config.LogFormatJSON,
	}, cobra.ShellCompDirectiveNoFileComp))

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitInvalid, Err: err}
	})

	// Register subcommands.
	cmd.AddCommand(
		newVersionCommand(),
		newCompileCommand(),
		newWatchCommand(),
		newDiffCommand(),
		newConfigCommand(),
		newCompletionCommand(),
	)

	return cmd
}
