package lowering

import (
	"fmt"

	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/types"
)

// hoistClosure rewrites a zero-capture closure literal into a top-level
// function appended to g.prog.Closures, returning the Ident that should
// replace the closure literal at its use site. The core only accepts
// zero-capture closures (spec.md §4.9), so CaptureStruct is always an
// empty struct; it exists so the calling convention a closure-derived
// function uses doesn't have to change shape if that restriction is
// ever lifted.
func (g *Gateway) hoistClosure(c *ast.ClosureExpr) *ast.Ident {
	g.closureN++
	name := fmt.Sprintf("$closure%d", g.closureN)

	var params []Param
	var ret types.Type
	if rt, ok := c.ResolvedType().(*types.FunctionType); ok {
		for i, p := range rt.Params {
			name := p.Name
			if i < len(c.Params) {
				name = c.Params[i].Name
			}
			params = append(params, lowerParam(name, p.Type))
		}
		ret = EraseReferences(rt.Return)
	}

	capture := &types.StructType{Name: name + "$capture"}

	g.prog.Closures = append(g.prog.Closures, &Func{
		Name:          name,
		Params:        params,
		Return:        ret,
		Body:          g.lowerBlockWithStack(c.Body, nil),
		CaptureStruct: capture,
	})

	return &ast.Ident{Name: name}
}

// hoistClosuresInExpr walks e for nested *ast.ClosureExpr literals
// (call arguments, assignment right-hand sides) and replaces each one
// in place with the Ident naming its hoisted top-level function.
// Closures can only appear where an expression is expected, so this
// only needs to recurse through the handful of expression node kinds
// that themselves hold sub-expressions.
func (g *Gateway) hoistClosuresInExpr(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.ClosureExpr:
		return g.hoistClosure(n)
	case *ast.CallExpr:
		n.Callee = g.hoistClosuresInExpr(n.Callee)
		for i, a := range n.Args {
			n.Args[i] = g.hoistClosuresInExpr(a)
		}
		return n
	case *ast.AssignExpr:
		n.Val = g.hoistClosuresInExpr(n.Val)
		return n
	case *ast.BinaryOp:
		n.Left = g.hoistClosuresInExpr(n.Left)
		n.Right = g.hoistClosuresInExpr(n.Right)
		return n
	case *ast.UnaryOp:
		n.Operand = g.hoistClosuresInExpr(n.Operand)
		return n
	case *ast.FieldAccess:
		n.Object = g.hoistClosuresInExpr(n.Object)
		return n
	default:
		return e
	}
}
