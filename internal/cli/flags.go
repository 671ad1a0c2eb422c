package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/stylepipe/internal/config"
	"github.com/hupe1980/stylepipe/internal/sass"
)

// registerStyleFlags adds the pipeline path and output flags to a cobra
// command. Defaults live in config; flags only override when set.
func registerStyleFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSlice("src", nil, "entry stylesheet globs (default "+config.DefaultSrc+")")
	f.String("dest", config.DefaultDest, "destination directory")
	f.String("bundle", config.DefaultBundle, "bundle file name")
	f.StringSliceP("include-path", "I", nil, "extra SASS load paths")
	f.String("compiler", config.CompilerLibSass, "SASS compiler: libsass, dart-sass")
	f.String("sass-binary", "sass", "dart-sass executable")
	f.Bool("no-sourcemap", false, "do not write a source map")
	f.Bool("gzip", false, "also write a gzip-compressed bundle")
	f.StringSlice("browsers", nil, `vendor-prefix targets, e.g. "safari 14"`)

	_ = cmd.RegisterFlagCompletionFunc("compiler", completeCompilers)
	_ = cmd.RegisterFlagCompletionFunc("bundle", cobra.FixedCompletions(
		[]string{config.DefaultBundle}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("dest", func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveFilterDirs
	})
}

// completeCompilers offers the registered SASS backends.
func completeCompilers(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
	return sass.Names(), cobra.ShellCompDirectiveNoFileComp
}

// registerWatchFlags adds the watch-only flags to a cobra command.
func registerWatchFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("debounce", config.DefaultDebounce, "quiet period before rebuilding")
}
