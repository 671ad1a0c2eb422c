// Package prefix adds vendor-prefixed declarations to compiled CSS for the
// configured browser targets, in the spirit of autoprefixer. Only a fixed
// table of properties and keyword values is covered.
package prefix

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"github.com/hupe1980/stylepipe/internal/config"
)

// Prefixer rewrites declarations that need vendor prefixes.
type Prefixer struct {
	targets    []string
	properties map[string][]string
	values     map[string]map[string][]string
}

// New builds a Prefixer for targets such as "safari 14". An empty list
// selects DefaultTargets.
func New(targets []string) (*Prefixer, error) {
	if len(targets) == 0 {
		targets = DefaultTargets
	}

	versions := make(map[string][]*semver.Version, len(targets))

	for _, t := range targets {
		name, v, err := config.ParseBrowser(t)
		if err != nil {
			return nil, err
		}

		versions[name] = append(versions[name], v)
	}

	p := &Prefixer{
		targets:    append([]string(nil), targets...),
		properties: make(map[string][]string),
		values:     make(map[string]map[string][]string),
	}

	for prop, rules := range propertyRules {
		prefixes, err := neededPrefixes(rules, versions)
		if err != nil {
			return nil, fmt.Errorf("prefix table for %s: %w", prop, err)
		}

		if len(prefixes) > 0 {
			p.properties[prop] = prefixes
		}
	}

	for prop, byValue := range valueRules {
		for value, rules := range byValue {
			prefixes, err := neededPrefixes(rules, versions)
			if err != nil {
				return nil, fmt.Errorf("prefix table for %s: %s: %w", prop, value, err)
			}

			if len(prefixes) == 0 {
				continue
			}

			if p.values[prop] == nil {
				p.values[prop] = make(map[string][]string)
			}

			p.values[prop][value] = prefixes
		}
	}

	return p, nil
}

// neededPrefixes returns the prefixes of rules that apply to at least one
// target version, in table order.
func neededPrefixes(rules []rule, versions map[string][]*semver.Version) ([]string, error) {
	var out []string

	for _, r := range rules {
		browsers := make([]string, 0, len(r.needs))
		for b := range r.needs {
			browsers = append(browsers, b)
		}

		sort.Strings(browsers)

		needed := false

		for _, b := range browsers {
			c, err := semver.NewConstraint(r.needs[b])
			if err != nil {
				return nil, err
			}

			for _, v := range versions[b] {
				if c.Check(v) {
					needed = true
				}
			}
		}

		if needed {
			out = append(out, r.prefix)
		}
	}

	return out, nil
}

// Targets returns the browser targets in effect.
func (p *Prefixer) Targets() []string {
	return append([]string(nil), p.targets...)
}

// Prefixes returns the prefixes emitted for property.
func (p *Prefixer) Prefixes(property string) []string {
	return p.properties[strings.ToLower(property)]
}

// Process returns src with prefixed declarations inserted in front of their
// unprefixed form. Comments are dropped.
func (p *Prefixer) Process(src []byte) ([]byte, error) {
	parser := css.NewParser(parse.NewInputBytes(src), false)

	var out bytes.Buffer

	// seen tracks the declarations emitted in each open block.
	var seen []map[string]bool

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			err := parser.Err()
			if err == nil || errors.Is(err, io.EOF) {
				return out.Bytes(), nil
			}

			return nil, fmt.Errorf("tokenizing css: %w", err)

		case css.CommentGrammar:
			// dropped

		case css.AtRuleGrammar:
			writeAtRule(&out, data, parser.Values())
			out.WriteByte(';')

		case css.BeginAtRuleGrammar:
			writeAtRule(&out, data, parser.Values())
			out.WriteByte('{')

			seen = append(seen, map[string]bool{})

		case css.QualifiedRuleGrammar:
			writeTokens(&out, parser.Values())
			out.WriteByte(',')

		case css.BeginRulesetGrammar:
			writeTokens(&out, parser.Values())
			out.WriteByte('{')

			seen = append(seen, map[string]bool{})

		case css.EndRulesetGrammar, css.EndAtRuleGrammar:
			out.WriteByte('}')

			if len(seen) > 0 {
				seen = seen[:len(seen)-1]
			}

		case css.DeclarationGrammar:
			var block map[string]bool
			if len(seen) > 0 {
				block = seen[len(seen)-1]
			} else {
				block = map[string]bool{}
			}

			p.writeDeclaration(&out, block, data, parser.Values())

		case css.CustomPropertyGrammar:
			out.Write(data)
			out.WriteByte(':')
			writeTokens(&out, parser.Values())
			out.WriteByte(';')

		default:
			out.Write(data)
		}
	}
}

// writeDeclaration emits the prefixed variants of a declaration followed by
// the declaration itself.
func (p *Prefixer) writeDeclaration(out *bytes.Buffer, block map[string]bool, name []byte, values []css.Token) {
	prop := strings.ToLower(string(name))
	value := tokensString(values)
	keyword := strings.ToLower(strings.TrimSpace(value))

	if strings.HasPrefix(prop, "-") {
		block[prop] = true
		block[prop+":"+keyword] = true
	} else {
		for _, pre := range p.properties[prop] {
			if block[pre+prop] {
				continue
			}

			block[pre+prop] = true
			fmt.Fprintf(out, "%s%s:%s;", pre, prop, value)
		}

		for _, pre := range p.values[prop][keyword] {
			key := prop + ":" + pre + keyword
			if block[key] {
				continue
			}

			block[key] = true
			fmt.Fprintf(out, "%s:%s%s;", prop, pre, keyword)
		}

		block[prop+":"+keyword] = true
	}

	out.Write(name)
	out.WriteByte(':')
	out.WriteString(value)
	out.WriteByte(';')
}

// writeAtRule writes an at-keyword and its prelude, keeping them apart.
func writeAtRule(out *bytes.Buffer, keyword []byte, values []css.Token) {
	out.Write(keyword)

	if len(values) > 0 && values[0].TokenType != css.WhitespaceToken {
		out.WriteByte(' ')
	}

	writeTokens(out, values)
}

func writeTokens(out *bytes.Buffer, values []css.Token) {
	for _, v := range values {
		out.Write(v.Data)
	}
}

func tokensString(values []css.Token) string {
	var b strings.Builder
	for _, v := range values {
		b.Write(v.Data)
	}

	return b.String()
}
