// Package pathglob resolves stylesheet glob patterns against the filesystem.
//
// Patterns use '/' as the separator regardless of platform and support the
// gobwas/glob syntax: '*', '?', '**', '[...]' and '{a,b}'. A "/**/" segment
// also matches zero directories, so "styles/**/*.scss" includes files
// directly inside "styles".
package pathglob

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// ErrNoMatch is returned when a glob pattern resolves to no files.
var ErrNoMatch = errors.New("pattern matched no files")

const metaChars = "*?[{"

// HasMeta reports whether pattern contains glob metacharacters.
func HasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, metaChars)
}

// Base returns the longest directory prefix of pattern that contains no
// metacharacters. For a literal file path it returns the file's directory.
func Base(pattern string) string {
	p := normalize(pattern)

	if !HasMeta(p) {
		return filepath.FromSlash(path.Dir(p))
	}

	prefix := p[:strings.IndexAny(p, metaChars)]

	switch i := strings.LastIndex(prefix, "/"); {
	case i < 0:
		return "."
	case i == 0:
		return string(filepath.Separator)
	default:
		return filepath.FromSlash(prefix[:i])
	}
}

// Matcher tests paths against a fixed set of patterns.
type Matcher struct {
	patterns []string
	globs    []glob.Glob
}

// Compile builds a Matcher for the given patterns.
func Compile(patterns ...string) (*Matcher, error) {
	m := &Matcher{}

	for _, p := range patterns {
		p = normalize(p)
		m.patterns = append(m.patterns, p)

		for _, variant := range variants(p) {
			g, err := glob.Compile(variant, '/')
			if err != nil {
				return nil, fmt.Errorf("compiling pattern %q: %w", p, err)
			}

			m.globs = append(m.globs, g)
		}
	}

	return m, nil
}

// Match reports whether the filesystem path matches any pattern.
func (m *Matcher) Match(name string) bool {
	s := normalize(name)

	for _, g := range m.globs {
		if g.Match(s) {
			return true
		}
	}

	return false
}

// MayContain reports whether a directory at dir could hold files matching
// one of the patterns. It is used for directories that no longer exist, so
// only the path is inspected.
func (m *Matcher) MayContain(dir string) bool {
	d := normalize(dir)

	for _, p := range m.patterns {
		base := normalize(Base(p))

		if within(base, d) {
			return true
		}

		if !within(d, base) {
			continue
		}

		if strings.Contains(p, "**") {
			return true
		}

		if depth(d, base) < depth(p, base) {
			return true
		}
	}

	return false
}

// within reports whether name equals dir or lies below it.
func within(name, dir string) bool {
	switch {
	case name == dir:
		return true
	case dir == ".":
		return !path.IsAbs(name)
	case dir == "/":
		return path.IsAbs(name)
	default:
		return strings.HasPrefix(name, dir+"/")
	}
}

// depth counts the segments of name below dir.
func depth(name, dir string) int {
	rest := name
	if dir != "." {
		rest = strings.TrimPrefix(strings.TrimPrefix(name, dir), "/")
	}

	if rest == "" {
		return 0
	}

	return strings.Count(rest, "/") + 1
}

// Patterns returns the normalized patterns of the matcher.
func (m *Matcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// Expand resolves every pattern and returns the matching files. Matches of
// each pattern are sorted; patterns keep their given order and files matched
// by an earlier pattern are not repeated.
func Expand(patterns ...string) ([]string, error) {
	seen := make(map[string]bool)

	var out []string

	for _, p := range patterns {
		files, err := expandOne(p)
		if err != nil {
			return nil, err
		}

		for _, f := range files {
			if seen[f] {
				continue
			}

			seen[f] = true
			out = append(out, f)
		}
	}

	return out, nil
}

func expandOne(pattern string) ([]string, error) {
	if !HasMeta(pattern) {
		name := filepath.Clean(pattern)

		info, err := os.Stat(name)
		if err != nil {
			return nil, fmt.Errorf("resolving source %q: %w", pattern, err)
		}

		if info.IsDir() {
			return nil, fmt.Errorf("resolving source %q: is a directory", pattern)
		}

		return []string{name}, nil
	}

	m, err := Compile(pattern)
	if err != nil {
		return nil, err
	}

	root := Base(pattern)

	var files []string

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != root {
				return filepath.SkipDir
			}

			return nil
		}

		if m.Match(p) {
			files = append(files, p)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolving pattern %q: %w", pattern, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, pattern)
	}

	sort.Strings(files)

	return files, nil
}

// normalize converts p to a cleaned slash-separated form.
func normalize(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

// variants returns the glob forms of p. Every inner "/**/" yields one form
// that keeps it and one that collapses it to "/", and a leading "**/" also
// yields the forms without it. Each form is compiled separately.
func variants(p string) []string {
	forms := []string{""}

	for i, part := range strings.Split(p, "/**/") {
		if i == 0 {
			forms[0] = part
			continue
		}

		next := make([]string, 0, 2*len(forms))
		for _, f := range forms {
			next = append(next, f+"/**/"+part, f+"/"+part)
		}

		forms = next
	}

	out := forms

	for _, f := range forms {
		if rest, ok := strings.CutPrefix(f, "**/"); ok {
			out = append(out, rest)
		}
	}

	return out
}
