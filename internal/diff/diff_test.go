package diff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Compute
// ---------------------------------------------------------------------------

func TestCompute_Identical(t *testing.T) {
	doc := ".a{color:red}\n.b{margin:0}\n"
	result, err := Compute(doc, doc, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, result.HasDifferences)
	assert.Empty(t, result.Hunks)
}

func TestCompute_Different(t *testing.T) {
	oldDoc := ".a{color:red}\n.b{margin:0}\n"
	newDoc := ".a{color:blue}\n.b{margin:0}\n"
	result, err := Compute(oldDoc, newDoc, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, result.HasDifferences)
	assert.NotEmpty(t, result.Hunks)
	assert.Contains(t, result.Unified, "-.a{color:red}")
	assert.Contains(t, result.Unified, "+.a{color:blue}")
}

func TestCompute_Labels(t *testing.T) {
	opts := DefaultOptions()
	opts.OldLabel = "css/style.min.css"
	opts.NewLabel = "css/style.min.css (compiled)"
	result, err := Compute(".a{}\n", ".b{}\n", opts)
	require.NoError(t, err)
	assert.Contains(t, result.Unified, "--- css/style.min.css")
	assert.Contains(t, result.Unified, "+++ css/style.min.css (compiled)")
}

func TestCompute_EmptyOld(t *testing.T) {
	result, err := Compute("", ".a{color:red}\n", DefaultOptions())
	require.NoError(t, err)
	assert.True(t, result.HasDifferences)
}

func TestCompute_EmptyNew(t *testing.T) {
	result, err := Compute(".a{color:red}\n", "", DefaultOptions())
	require.NoError(t, err)
	assert.True(t, result.HasDifferences)
}

// ---------------------------------------------------------------------------
// CSS
// ---------------------------------------------------------------------------

func TestCSS_OneChangedRule(t *testing.T) {
	oldCSS := []byte(".a{color:red}.b{margin:0}.c{padding:0}")
	newCSS := []byte(".a{color:red}.b{margin:1px}.c{padding:0}")

	result, err := CSS(oldCSS, newCSS, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, result.HasDifferences)
	assert.Contains(t, result.Unified, "-.b{margin:0}\n")
	assert.Contains(t, result.Unified, "+.b{margin:1px}\n")
	assert.Contains(t, result.Unified, " .a{color:red}\n")
}

func TestCSS_Identical(t *testing.T) {
	css := []byte(".a{color:red}\n/*# sourceMappingURL=style.min.css.map */")
	result, err := CSS(css, css, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, result.HasDifferences)
}

// ---------------------------------------------------------------------------
// Rules
// ---------------------------------------------------------------------------

func TestRules(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"single", ".a{color:red}", ".a{color:red}\n"},
		{"several", ".a{color:red}.b{margin:0}", ".a{color:red}\n.b{margin:0}\n"},
		{"media", "@media print{.a{color:red}}.b{x:y}", "@media print{.a{color:red}\n}\n.b{x:y}\n"},
		{"brace in string", `.a:after{content:"}"}.b{x:y}`, ".a:after{content:\"}\"}\n.b{x:y}\n"},
		{"escaped quote", `.a{content:"\"}"}.b{x:y}`, ".a{content:\"\\\"}\"}\n.b{x:y}\n"},
		{"existing newline", ".a{x:y}\n/*# sourceMappingURL=a.map */", ".a{x:y}\n/*# sourceMappingURL=a.map */\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rules([]byte(tt.in)))
		})
	}
}

// ---------------------------------------------------------------------------
// Write
// ---------------------------------------------------------------------------

func TestWrite_NoColor(t *testing.T) {
	result, err := Compute("line1\nline2\n", "line1\nline3\n", DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	Write(&buf, result, false)
	out := buf.String()
	assert.NotContains(t, out, "\033[")
	assert.Contains(t, out, "-line2")
	assert.Contains(t, out, "+line3")
}

func TestWrite_WithColor(t *testing.T) {
	result, err := Compute("line1\nline2\n", "line1\nline3\n", DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	Write(&buf, result, true)
	out := buf.String()
	assert.Contains(t, out, "\033[31m-line2")
	assert.Contains(t, out, "\033[32m+line3")
}

func TestWrite_NoDifferences(t *testing.T) {
	doc := "same\n"
	result, err := Compute(doc, doc, DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	Write(&buf, result, false)
	assert.Contains(t, buf.String(), "No differences")
}

func TestSplitLines(t *testing.T) {
	lines := splitLines("a\nb\nc")
	assert.Equal(t, []string{"a\n", "b\n", "c"}, lines)

	lines = splitLines("a\nb\nc\n")
	assert.Equal(t, []string{"a\n", "b\n", "c\n", ""}, lines)

	lines = splitLines("")
	assert.Equal(t, []string{""}, lines)
}
