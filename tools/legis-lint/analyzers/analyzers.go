// Package analyzers provides all custom static analyzers for legis.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/ersonp/legis/tools/legis-lint/analyzers/timenow"
	"github.com/ersonp/legis/tools/legis-lint/analyzers/txescape"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		timenow.Analyzer,
		txescape.Analyzer,
	}
}
