// Package minify shrinks compiled CSS with tdewolff/minify.
package minify

import (
	"fmt"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
)

const mediaType = "text/css"

// Minifier minifies stylesheets. The zero value is not usable; call New.
type Minifier struct {
	m *minify.M
}

// New returns a CSS minifier.
func New() *Minifier {
	m := minify.New()
	m.AddFunc(mediaType, css.Minify)

	return &Minifier{m: m}
}

// Minify returns the minified form of src. Output is deterministic for a
// given input.
func (m *Minifier) Minify(src []byte) ([]byte, error) {
	out, err := m.m.Bytes(mediaType, src)
	if err != nil {
		return nil, fmt.Errorf("minifying css: %w", err)
	}

	return out, nil
}
