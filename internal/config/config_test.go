package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newTestRootCmd creates a cobra.Command with the same persistent flags as the
// real root command so that Load can bind them during tests.
func newTestRootCmd() *cobra.Command {
	cmd := &cobra.Command{}
	pf := cmd.PersistentFlags()
	pf.String("config", "", "")
	pf.String("log-level", "info", "")
	pf.String("log-format", "text", "")
	pf.Bool("no-color", false, "")
	pf.BoolP("quiet", "q", false, "")

	return cmd
}

// newTestCompileCmd adds the command-local path flags used by compile/watch.
func newTestCompileCmd() *cobra.Command {
	cmd := newTestRootCmd()
	f := cmd.Flags()
	f.StringSlice("src", nil, "")
	f.String("dest", "", "")
	f.String("bundle", "", "")
	f.String("compiler", "", "")
	f.Bool("no-sourcemap", false, "")
	f.Bool("gzip", false, "")
	f.Duration("debounce", 0, "")

	return cmd
}

// writeTempConfig writes a YAML string to a temporary file and returns the path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

// ---------------------------------------------------------------------------
// Default
// ---------------------------------------------------------------------------

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.False(t, cfg.NoColor)
	assert.False(t, cfg.Quiet)
	assert.Equal(t, []string{"components/styles/index.scss"}, cfg.Styles.Src)
	assert.Equal(t, "css", cfg.Styles.Dest)
	assert.Equal(t, "style.min.css", cfg.Styles.Bundle)
	assert.Equal(t, CompilerLibSass, cfg.Compiler)
	assert.True(t, cfg.SourceMap)
	assert.Equal(t, 200*time.Millisecond, cfg.Debounce)
	assert.NoError(t, cfg.Validate())
}

func TestOutputPath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("css", "style.min.css"), cfg.OutputPath())
}

func TestWatchPatterns_Deduplicates(t *testing.T) {
	cfg := Default()
	cfg.Styles.Watch = []string{"a/*.scss", DefaultSrc}
	cfg.Styles.Modules = []string{"a/*.scss", "", "b/**/*.scss"}

	assert.Equal(t, []string{DefaultSrc, "a/*.scss", "b/**/*.scss"}, cfg.WatchPatterns())
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestValidate_ValidValues(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		cfg := Default()
		cfg.LogLevel = lvl
		assert.NoError(t, cfg.Validate(), "level=%s", lvl)
	}

	for _, fmt := range []string{"text", "json"} {
		cfg := Default()
		cfg.LogFormat = fmt
		assert.NoError(t, cfg.Validate(), "format=%s", fmt)
	}

	for _, c := range []string{"libsass", "dart-sass"} {
		cfg := Default()
		cfg.Compiler = c
		assert.NoError(t, cfg.Validate(), "compiler=%s", c)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "verbose" }, "invalid log level"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "invalid log format"},
		{"compiler", func(c *Config) { c.Compiler = "ruby-sass" }, "invalid compiler"},
		{"no src", func(c *Config) { c.Styles.Src = nil }, "invalid styles.src"},
		{"blank src", func(c *Config) { c.Styles.Src = []string{" "} }, "invalid styles.src"},
		{"no dest", func(c *Config) { c.Styles.Dest = "" }, "invalid styles.dest"},
		{"bundle with dir", func(c *Config) { c.Styles.Bundle = "sub/style.css" }, "invalid styles.bundle"},
		{"bundle dot", func(c *Config) { c.Styles.Bundle = "." }, "invalid styles.bundle"},
		{"bundle dot dot", func(c *Config) { c.Styles.Bundle = ".." }, "invalid styles.bundle"},
		{"zero debounce", func(c *Config) { c.Debounce = 0 }, "invalid debounce"},
		{"bad browser", func(c *Config) { c.Browsers = []string{"safari"} }, "invalid browser target"},
		{"bad browser version", func(c *Config) { c.Browsers = []string{"safari latest"} }, "invalid browser target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestParseBrowser(t *testing.T) {
	name, v, err := ParseBrowser("Safari 14.1")
	require.NoError(t, err)
	assert.Equal(t, "safari", name)
	assert.Equal(t, "14.1.0", v.String())
}

// ---------------------------------------------------------------------------
// EffectiveLogLevel
// ---------------------------------------------------------------------------

func TestEffectiveLogLevel_Normal(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	assert.Equal(t, "debug", cfg.EffectiveLogLevel())
}

func TestEffectiveLogLevel_QuietOverride(t *testing.T) {
	cfg := &Config{LogLevel: "debug", Quiet: true}
	assert.Equal(t, "error", cfg.EffectiveLogLevel())
}

// ---------------------------------------------------------------------------
// Load: defaults only
// ---------------------------------------------------------------------------

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, []string{DefaultSrc}, cfg.Styles.Src)
	assert.Equal(t, DefaultDest, cfg.Styles.Dest)
	assert.Equal(t, DefaultBundle, cfg.Styles.Bundle)
	assert.Equal(t, DefaultDebounce, cfg.Debounce)
	assert.True(t, cfg.SourceMap)
}

// ---------------------------------------------------------------------------
// Load: environment variables
// ---------------------------------------------------------------------------

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("STYLEPIPE_LOG_LEVEL", "debug")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EnvBooleans(t *testing.T) {
	t.Setenv("STYLEPIPE_NO_COLOR", "true")
	t.Setenv("STYLEPIPE_QUIET", "true")
	t.Setenv("STYLEPIPE_GZIP", "true")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.True(t, cfg.NoColor)
	assert.True(t, cfg.Quiet)
	assert.True(t, cfg.Gzip)
}

func TestLoad_EnvNestedKey(t *testing.T) {
	t.Setenv("STYLEPIPE_STYLES_DEST", "public/css")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "public/css", cfg.Styles.Dest)
}

// ---------------------------------------------------------------------------
// Load: config file
// ---------------------------------------------------------------------------

func TestLoad_ConfigFile(t *testing.T) {
	p := writeTempConfig(t, `log-level: warn
log-format: json
styles:
  src:
    - assets/scss/main.scss
  dest: public
  bundle: app.min.css
browsers:
  - safari 13
debounce: 1s
`)

	cfg, err := Load(nil, p)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"assets/scss/main.scss"}, cfg.Styles.Src)
	assert.Equal(t, "public", cfg.Styles.Dest)
	assert.Equal(t, "app.min.css", cfg.Styles.Bundle)
	assert.Equal(t, []string{"safari 13"}, cfg.Browsers)
	assert.Equal(t, time.Second, cfg.Debounce)
	assert.Equal(t, p, cfg.ConfigFile)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(nil, "/tmp/nonexistent-stylepipe-cfg-12345.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_MalformedFile(t *testing.T) {
	p := writeTempConfig(t, ": invalid yaml :")

	_, err := Load(nil, p)
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// Load: flag precedence
// ---------------------------------------------------------------------------

func TestLoad_FlagOverridesDefault(t *testing.T) {
	cmd := newTestRootCmd()
	require.NoError(t, cmd.PersistentFlags().Set("log-level", "error"))

	cfg, err := Load(cmd, "")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	t.Setenv("STYLEPIPE_LOG_LEVEL", "debug")

	cmd := newTestRootCmd()
	require.NoError(t, cmd.PersistentFlags().Set("log-level", "error"))

	cfg, err := Load(cmd, "")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("STYLEPIPE_LOG_LEVEL", "debug")
	p := writeTempConfig(t, "log-level: warn\n")

	cfg, err := Load(nil, p)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_PathFlagsOverrideFile(t *testing.T) {
	p := writeTempConfig(t, "styles:\n  dest: from-file\n")

	cmd := newTestCompileCmd()
	require.NoError(t, cmd.Flags().Set("dest", "from-flag"))
	require.NoError(t, cmd.Flags().Set("src", "a.scss,b.scss"))
	require.NoError(t, cmd.Flags().Set("debounce", "750ms"))

	cfg, err := Load(cmd, p)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Styles.Dest)
	assert.Equal(t, []string{"a.scss", "b.scss"}, cfg.Styles.Src)
	assert.Equal(t, 750*time.Millisecond, cfg.Debounce)
}

func TestLoad_UnchangedPathFlagsKeepDefaults(t *testing.T) {
	cfg, err := Load(newTestCompileCmd(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultDest, cfg.Styles.Dest)
	assert.Equal(t, CompilerLibSass, cfg.Compiler)
}

func TestLoad_NoSourceMapFlag(t *testing.T) {
	cmd := newTestCompileCmd()
	require.NoError(t, cmd.Flags().Set("no-sourcemap", "true"))

	cfg, err := Load(cmd, "")
	require.NoError(t, err)
	assert.False(t, cfg.SourceMap)
}

// ---------------------------------------------------------------------------
// Load: validation on loaded values
// ---------------------------------------------------------------------------

func TestLoad_InvalidLogLevelFromEnv(t *testing.T) {
	t.Setenv("STYLEPIPE_LOG_LEVEL", "verbose")

	_, err := Load(nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLoad_InvalidCompilerFromFile(t *testing.T) {
	p := writeTempConfig(t, "compiler: compass\n")

	_, err := Load(nil, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid compiler")
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

func TestContext_RoundTrip(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "json"}
	ctx := NewContext(context.Background(), cfg)
	got := FromContext(ctx)
	assert.Equal(t, cfg, got)
}

func TestFromContext_FallbackToDefault(t *testing.T) {
	got := FromContext(context.Background())
	assert.Equal(t, Default(), got)
}
