// Package config provides configuration management for stylepipe.
//
// Configuration is loaded from three sources with the following precedence
// (highest to lowest):
//  1. CLI flags
//  2. Environment variables (STYLEPIPE_ prefix)
//  3. Config file (.stylepipe.yaml)
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Supported log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Supported SASS compilers.
const (
	CompilerLibSass  = "libsass"
	CompilerDartSass = "dart-sass"
)

// Default path roles.
const (
	DefaultSrc     = "components/styles/index.scss"
	DefaultWatch   = "components/styles/**/*.scss"
	DefaultModules = "components/**/*.scss"
	DefaultDest    = "css"
	DefaultBundle  = "style.min.css"
)

// DefaultDebounce is the quiet period the watcher waits for before rebuilding.
const DefaultDebounce = 200 * time.Millisecond

// Styles maps the named path roles of the style pipeline.
type Styles struct {
	// Src lists the entry stylesheet globs.
	Src []string `mapstructure:"src" yaml:"src"`

	// Watch lists additional globs that trigger a rebuild when changed.
	Watch []string `mapstructure:"watch" yaml:"watch"`

	// Modules lists globs of importable partials that trigger a rebuild.
	Modules []string `mapstructure:"modules" yaml:"modules"`

	// Dest is the directory receiving the bundle.
	Dest string `mapstructure:"dest" yaml:"dest"`

	// Bundle is the file name of the concatenated output.
	Bundle string `mapstructure:"bundle" yaml:"bundle"`

	// IncludePaths are extra SASS load paths.
	IncludePaths []string `mapstructure:"include-paths" yaml:"include-paths,omitempty"`
}

// Config represents the global configuration for stylepipe.
type Config struct {
	// LogLevel controls the verbosity of log output.
	// Valid values: debug, info, warn, error.
	LogLevel string `mapstructure:"log-level" yaml:"log-level"`

	// LogFormat controls the format of log output.
	// Valid values: text, json.
	LogFormat string `mapstructure:"log-format" yaml:"log-format"`

	// NoColor disables colored output.
	NoColor bool `mapstructure:"no-color" yaml:"no-color"`

	// Quiet suppresses all log output below error level.
	Quiet bool `mapstructure:"quiet" yaml:"quiet"`

	Styles Styles `mapstructure:"styles" yaml:"styles"`

	// Compiler selects the SASS implementation: libsass or dart-sass.
	Compiler string `mapstructure:"compiler" yaml:"compiler"`

	// SassBinary is the dart-sass executable used when Compiler is dart-sass.
	SassBinary string `mapstructure:"sass-binary" yaml:"sass-binary"`

	// SourceMap enables writing <bundle>.map next to the bundle.
	SourceMap bool `mapstructure:"sourcemap" yaml:"sourcemap"`

	// Browsers lists vendor-prefix targets such as "safari 14".
	Browsers []string `mapstructure:"browsers" yaml:"browsers,omitempty"`

	// Gzip additionally writes a precompressed <bundle>.gz.
	Gzip bool `mapstructure:"gzip" yaml:"gzip"`

	// Debounce is the watcher's quiet period before a rebuild.
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`

	// ConfigFile is the resolved path to the config file used.
	// Set after Load(); not read from config itself.
	ConfigFile string `mapstructure:"-" yaml:"-"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LogLevel:  LogLevelInfo,
		LogFormat: LogFormatText,
		Styles: Styles{
			Src:     []string{DefaultSrc},
			Watch:   []string{DefaultWatch},
			Modules: []string{DefaultModules},
			Dest:    DefaultDest,
			Bundle:  DefaultBundle,
		},
		Compiler:   CompilerLibSass,
		SassBinary: "sass",
		SourceMap:  true,
		Debounce:   DefaultDebounce,
	}
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		// valid
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
		// valid
	default:
		return fmt.Errorf("invalid log format %q: must be one of text, json", c.LogFormat)
	}

	switch c.Compiler {
	case CompilerLibSass, CompilerDartSass:
		// valid
	default:
		return fmt.Errorf("invalid compiler %q: must be one of libsass, dart-sass", c.Compiler)
	}

	if len(c.Styles.Src) == 0 {
		return fmt.Errorf("invalid styles.src: at least one source pattern is required")
	}

	for _, p := range c.Styles.Src {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("invalid styles.src: empty pattern")
		}
	}

	if strings.TrimSpace(c.Styles.Dest) == "" {
		return fmt.Errorf("invalid styles.dest: destination directory is required")
	}

	if c.Styles.Bundle == "" || c.Styles.Bundle == "." || c.Styles.Bundle == ".." ||
		strings.ContainsAny(c.Styles.Bundle, `/\`) {
		return fmt.Errorf("invalid styles.bundle %q: must be a plain file name", c.Styles.Bundle)
	}

	if c.Debounce <= 0 {
		return fmt.Errorf("invalid debounce %s: must be positive", c.Debounce)
	}

	for _, b := range c.Browsers {
		if _, _, err := ParseBrowser(b); err != nil {
			return err
		}
	}

	return nil
}

// EffectiveLogLevel returns the log level to use. When Quiet is true the log
// level is overridden to "error" regardless of the configured LogLevel.
func (c *Config) EffectiveLogLevel() string {
	if c.Quiet {
		return LogLevelError
	}

	return c.LogLevel
}

// OutputPath returns the full path of the bundle.
func (c *Config) OutputPath() string {
	return filepath.Join(c.Styles.Dest, c.Styles.Bundle)
}

// WatchPatterns returns every glob whose changes should trigger a rebuild.
func (c *Config) WatchPatterns() []string {
	seen := make(map[string]bool)

	var out []string

	for _, group := range [][]string{c.Styles.Src, c.Styles.Watch, c.Styles.Modules} {
		for _, p := range group {
			if p == "" || seen[p] {
				continue
			}

			seen[p] = true
			out = append(out, p)
		}
	}

	return out
}

// ParseBrowser splits a browser target such as "safari 14.1" into its
// lower-cased name and parsed minimum version.
func ParseBrowser(target string) (string, *semver.Version, error) {
	fields := strings.Fields(strings.ToLower(target))
	if len(fields) != 2 {
		return "", nil, fmt.Errorf("invalid browser target %q: expected \"<name> <version>\"", target)
	}

	v, err := semver.NewVersion(fields[1])
	if err != nil {
		return "", nil, fmt.Errorf("invalid browser target %q: %w", target, err)
	}

	return fields[0], v, nil
}

// flagKeys maps command flag names to their nested config keys.
var flagKeys = map[string]string{
	"src":          "styles.src",
	"dest":         "styles.dest",
	"bundle":       "styles.bundle",
	"include-path": "styles.include-paths",
	"compiler":     "compiler",
	"sass-binary":  "sass-binary",
	"gzip":         "gzip",
	"debounce":     "debounce",
	"browsers":     "browsers",
}

// Load initialises configuration from flags, environment variables, and an
// optional config file. A fresh viper instance is used on every call so that
// Load is safe for concurrent tests.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	configureEnv(v)

	if err := configureFile(v, configFile); err != nil {
		return nil, err
	}

	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// --no-sourcemap is the only negated flag.
	if cmd != nil {
		if f := cmd.Flags().Lookup("no-sourcemap"); f != nil && f.Changed && f.Value.String() == "true" {
			cfg.SourceMap = false
		}
	}

	// Store the resolved config file path so downstream code can locate it.
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
	v.SetDefault("no-color", false)
	v.SetDefault("quiet", false)
	v.SetDefault("styles.src", d.Styles.Src)
	v.SetDefault("styles.watch", d.Styles.Watch)
	v.SetDefault("styles.modules", d.Styles.Modules)
	v.SetDefault("styles.dest", d.Styles.Dest)
	v.SetDefault("styles.bundle", d.Styles.Bundle)
	v.SetDefault("styles.include-paths", []string{})
	v.SetDefault("compiler", d.Compiler)
	v.SetDefault("sass-binary", d.SassBinary)
	v.SetDefault("sourcemap", d.SourceMap)
	v.SetDefault("browsers", []string{})
	v.SetDefault("gzip", false)
	v.SetDefault("debounce", d.Debounce)
}

// configureEnv sets up environment variable support.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("STYLEPIPE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
}

// configureFile sets up the config file source.
func configureFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}

		return nil
	}

	// Auto-discovery mode.
	v.SetConfigName(".stylepipe")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "stylepipe"))
	}

	if err := v.ReadInConfig(); err != nil {
		// No config file found → perfectly fine in auto-discovery.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}

		// Found a file but it was malformed.
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// bindFlags walks from cmd up to the root and binds all PersistentFlags.
// Command-local flags listed in flagKeys are bound to their nested keys.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}

		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %q: %w", name, err)
		}
	}

	// Walk up to root and bind all persistent flags at each level.
	for c := cmd; c != nil; c = c.Parent() {
		if err := v.BindPFlags(c.PersistentFlags()); err != nil {
			return fmt.Errorf("binding persistent flags: %w", err)
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKey struct{}

// NewContext returns a child context carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext extracts a Config from ctx, falling back to Default().
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}

	return Default()
}
