// legis-lint checks legis-specific invariants that the compiler cannot.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/ersonp/legis/tools/legis-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
