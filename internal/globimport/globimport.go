// Package globimport expands wildcard @import and @use directives in SCSS
// sources into one directive per matching file, so that a compiler without
// glob support can resolve them.
package globimport

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hupe1980/stylepipe/internal/pathglob"
)

// directiveRe matches a single-target @import or @use directive.
// Groups: indent, keyword, open quote, target, close quote, trailing clause.
var directiveRe = regexp.MustCompile(`(?m)^([ \t]*)@(import|use)[ \t]+(["'])([^"'\n]+)(["'])([^;\n]*);`)

// sassExts are the file extensions a glob import may pull in.
var sassExts = map[string]bool{
	".scss": true,
	".sass": true,
}

// Result is the outcome of expanding one stylesheet.
type Result struct {
	// Source is the rewritten stylesheet.
	Source []byte

	// Files lists every file pulled in by a glob directive, in emit order.
	Files []string
}

// Expand rewrites glob directives in src, the contents of the file at self.
// Patterns resolve relative to the directory of self first and then against
// each load path. self never matches its own glob. A pattern matching
// nothing drops the directive.
func Expand(src []byte, self string, loadPaths []string) (*Result, error) {
	res := &Result{}
	dir := filepath.Dir(self)
	selfAbs, _ := filepath.Abs(self)

	var expandErr error

	out := directiveRe.ReplaceAllFunc(src, func(match []byte) []byte {
		if expandErr != nil {
			return match
		}

		m := directiveRe.FindSubmatch(match)
		indent, keyword, quote, target, closeQuote, clause := string(m[1]), string(m[2]), string(m[3]), string(m[4]), string(m[5]), string(m[6])

		if quote != closeQuote || !pathglob.HasMeta(target) {
			return match
		}

		base, files, err := resolve(target, dir, loadPaths, selfAbs)
		if err != nil {
			expandErr = fmt.Errorf("expanding %s %q in %s: %w", keyword, target, self, err)
			return match
		}

		if keyword == "use" {
			clause = useClause(clause)
		}

		var b bytes.Buffer

		for i, f := range files {
			rel, relErr := filepath.Rel(base, f)
			if relErr != nil {
				expandErr = fmt.Errorf("expanding %s %q in %s: %w", keyword, target, self, relErr)
				return match
			}

			rel = strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))

			if i > 0 {
				b.WriteByte('\n')
			}

			fmt.Fprintf(&b, "%s@%s %s%s%s%s;", indent, keyword, quote, rel, quote, clause)
		}

		res.Files = append(res.Files, files...)

		return b.Bytes()
	})

	if expandErr != nil {
		return nil, expandErr
	}

	res.Source = out

	return res, nil
}

// resolve finds the files matching target, trying dir first and then each
// load path. It returns the base the matches were found under.
func resolve(target, dir string, loadPaths []string, selfAbs string) (string, []string, error) {
	for _, base := range append([]string{dir}, loadPaths...) {
		matches, err := pathglob.Expand(filepath.Join(base, filepath.FromSlash(target)))
		if err != nil {
			if errors.Is(err, pathglob.ErrNoMatch) || errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return "", nil, err
		}

		var files []string

		for _, f := range matches {
			if !sassExts[strings.ToLower(filepath.Ext(f))] {
				continue
			}

			if abs, absErr := filepath.Abs(f); absErr == nil && abs == selfAbs {
				continue
			}

			files = append(files, f)
		}

		if len(files) > 0 {
			return base, files, nil
		}
	}

	return dir, nil, nil
}

// useClause keeps "as *" so every expanded module shares the global
// namespace; any other clause would collide across files and is dropped.
func useClause(clause string) string {
	if strings.Join(strings.Fields(clause), " ") == "as *" {
		return " as *"
	}

	return ""
}
