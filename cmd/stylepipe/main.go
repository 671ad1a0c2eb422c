// stylepipe compiles SASS/SCSS sources into a single minified CSS bundle.
package main

import (
	"os"

	"github.com/hupe1980/stylepipe/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
