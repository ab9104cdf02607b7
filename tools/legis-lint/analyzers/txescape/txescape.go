// Package txescape detects store calls that bypass the transaction handle.
package txescape

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports calls on the receiver of WithTx made inside the transaction
// callback. Those calls run outside the transaction and can observe or write
// state the transaction will roll back.
var Analyzer = &analysis.Analyzer{
	Name:     "txescape",
	Doc:      "detects calls on the outer store inside a WithTx callback",
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
		if !ok || sel.Sel.Name != "WithTx" {
			return
		}
		store := types.ExprString(sel.X)

		for _, arg := range call.Args {
			fn, ok := arg.(*ast.FuncLit)
			if !ok {
				continue
			}
			ast.Inspect(fn.Body, func(n ast.Node) bool {
				inner, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}
				innerSel, ok := inner.Fun.(*ast.SelectorExpr)
				if !ok {
					return true
				}
				if types.ExprString(innerSel.X) == store {
					pass.Reportf(inner.Pos(),
						"%s.%s called inside WithTx - use the transaction handle",
						store, innerSel.Sel.Name)
				}
				return true
			})
		}
	})

	return nil, nil
}
