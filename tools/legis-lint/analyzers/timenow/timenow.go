// Package timenow detects direct time.Now calls in code that must use a clock seam.
package timenow

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports calls to time.Now. Referencing time.Now as a value, as in
// `var timeNow = time.Now`, is the seam and is allowed.
var Analyzer = &analysis.Analyzer{
	Name:     "timenow",
	Doc:      "detects direct time.Now() calls; use the package clock so tests can freeze time",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != "Now" {
			return
		}
		ident, ok := sel.X.(*ast.Ident)
		if !ok {
			return
		}
		pkg, ok := pass.TypesInfo.Uses[ident].(*types.PkgName)
		if !ok || pkg.Imported().Path() != "time" {
			return
		}
		pass.Reportf(call.Pos(), "time.Now() called directly - use the package clock")
	})

	return nil, nil
}
