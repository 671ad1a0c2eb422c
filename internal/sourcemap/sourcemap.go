// Package sourcemap builds Source Map v3 documents for concatenated bundles.
// Each bundle chunk is mapped back to the first line of the stylesheet it
// was compiled from.
package sourcemap

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// Map is the JSON form of a v3 source map.
type Map struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

type segment struct {
	line   int
	column int
	source int
}

// Builder accumulates segments for a single generated file.
type Builder struct {
	file     string
	dir      string
	sources  []string
	contents []string
	index    map[string]int
	segments []segment
}

// NewBuilder returns a builder for the generated file at outPath. Source
// paths are recorded relative to the directory of outPath.
func NewBuilder(outPath string) *Builder {
	return &Builder{
		file:  filepath.Base(outPath),
		dir:   filepath.Dir(outPath),
		index: make(map[string]int),
	}
}

// Add maps generated position (line, column), both zero-based, to the start
// of source. content is embedded in sourcesContent when non-empty.
func (b *Builder) Add(source string, content []byte, line, column int) {
	idx, ok := b.index[source]
	if !ok {
		idx = len(b.sources)
		b.index[source] = idx
		b.sources = append(b.sources, b.relative(source))
		b.contents = append(b.contents, string(content))
	}

	b.segments = append(b.segments, segment{line: line, column: column, source: idx})
}

func (b *Builder) relative(source string) string {
	if rel, err := filepath.Rel(b.dir, source); err == nil {
		return filepath.ToSlash(rel)
	}

	return filepath.ToSlash(source)
}

// Map returns the assembled source map.
func (b *Builder) Map() *Map {
	m := &Map{
		Version:  3,
		File:     b.file,
		Sources:  append([]string{}, b.sources...),
		Names:    []string{},
		Mappings: b.mappings(),
	}

	for _, c := range b.contents {
		if c != "" {
			m.SourcesContent = append([]string{}, b.contents...)
			break
		}
	}

	return m
}

// JSON returns the encoded source map.
func (b *Builder) JSON() ([]byte, error) {
	data, err := json.Marshal(b.Map())
	if err != nil {
		return nil, fmt.Errorf("encoding source map: %w", err)
	}

	return data, nil
}

// mappings encodes segments. Segments must be added in generated order.
func (b *Builder) mappings() string {
	var sb strings.Builder

	var (
		line       int
		prevColumn int
		prevSource int
		first      = true
	)

	for _, s := range b.segments {
		for line < s.line {
			sb.WriteByte(';')
			line++
			prevColumn = 0
			first = true
		}

		if !first {
			sb.WriteByte(',')
		}

		first = false

		// Fields: generated column, source index, source line, source column.
		// Source line and column are always zero, so after the first segment
		// their deltas are zero as well.
		sb.WriteString(EncodeVLQ(s.column - prevColumn))
		sb.WriteString(EncodeVLQ(s.source - prevSource))
		sb.WriteString(EncodeVLQ(0))
		sb.WriteString(EncodeVLQ(0))

		prevColumn = s.column
		prevSource = s.source
	}

	return sb.String()
}

// EncodeVLQ encodes n as a base64 variable-length quantity.
func EncodeVLQ(n int) string {
	v := n << 1
	if n < 0 {
		v = (-n << 1) | 1
	}

	var sb strings.Builder

	for {
		digit := v & 0x1f
		v >>= 5

		if v > 0 {
			digit |= 0x20
		}

		sb.WriteByte(base64Chars[digit])

		if v == 0 {
			return sb.String()
		}
	}
}

// Comment returns the CSS comment that links a stylesheet to its map.
func Comment(url string) string {
	return "/*# sourceMappingURL=" + url + " */"
}
