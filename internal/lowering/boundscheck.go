package lowering

import (
	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/types"
)

// collectBoundsChecks walks e for every *ast.IndexExpr sema flagged with
// BoundsCheckRequested (a non-constant index it could not prove in range)
// and returns one BoundsCheck trap node per such index, in evaluation
// order, to be spliced into the enclosing block ahead of the statement
// that uses e (spec.md §4.9 "bounds-check requests become explicit
// conditional-trap nodes").
func (g *Gateway) collectBoundsChecks(e ast.Expr) []Node {
	var out []Node
	g.walkBoundsChecks(e, &out)
	return out
}

func (g *Gateway) walkBoundsChecks(e ast.Expr, out *[]Node) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *ast.IndexExpr:
		g.walkBoundsChecks(n.Object, out)
		g.walkBoundsChecks(n.Index, out)
		if n.BoundsCheckRequested {
			*out = append(*out, &BoundsCheck{
				Index:  n.Index,
				Length: lengthExprFor(n.Object),
				Trap:   TrapOutOfBounds,
			})
		}
	case *ast.SliceExpr:
		g.walkBoundsChecks(n.Object, out)
		g.walkBoundsChecks(n.Lo, out)
		g.walkBoundsChecks(n.Hi, out)
	case *ast.CallExpr:
		g.walkBoundsChecks(n.Callee, out)
		for _, arg := range n.Args {
			g.walkBoundsChecks(arg, out)
		}
	case *ast.AssignExpr:
		g.walkBoundsChecks(n.Target, out)
		g.walkBoundsChecks(n.Val, out)
	case *ast.BinaryOp:
		g.walkBoundsChecks(n.Left, out)
		g.walkBoundsChecks(n.Right, out)
	case *ast.UnaryOp:
		g.walkBoundsChecks(n.Operand, out)
	case *ast.FieldAccess:
		g.walkBoundsChecks(n.Object, out)
	case *ast.CastExpr:
		g.walkBoundsChecks(n.Value, out)
	case *ast.TryExpr:
		g.walkBoundsChecks(n.Inner, out)
	case *ast.VolatileExpr:
		g.walkBoundsChecks(n.Ptr, out)
		g.walkBoundsChecks(n.Value, out)
	}
}

// lengthExprFor synthesizes the runtime length a BoundsCheck compares its
// index against. An array's length is known at compile time and becomes a
// literal; a slice carries its length at runtime as part of its fat
// pointer (spec.md §3's type universe), so lowering reads it back through
// a synthesized `.length` field access the same way match.go reads a
// tagged union's hidden `tag` field.
func lengthExprFor(object ast.Expr) ast.Expr {
	if at, ok := object.ResolvedType().(*types.ArrayType); ok && at.Length >= 0 {
		return &ast.IntLit{Value: at.Length}
	}
	return &ast.FieldAccess{Object: object, Field: "length"}
}

// lowerSingleStmt lowers s to one Node and, when s's own condition/
// initializer/expression contains a dynamic index, prefixes the result
// with the BoundsCheck nodes it needs, wrapping both in a Block. Used
// everywhere a single ast.Stmt must become a single Node (ordinary block
// statements, an else-arm with no braces, a brace-less match arm) —
// everywhere else (return values, block bodies) already goes through its
// own bounds-check wiring.
func (g *Gateway) lowerSingleStmt(s ast.Stmt, stack []ast.Expr) Node {
	n := g.lowerStmt(s, stack)
	var checks []Node
	switch tn := n.(type) {
	case *ExprStmt:
		checks = g.collectBoundsChecks(tn.X)
	case *Call:
		checks = g.collectBoundsChecks(tn.X)
	case *VarDecl:
		if tn.Init != nil {
			checks = g.collectBoundsChecks(tn.Init)
		}
	case *If:
		checks = g.collectBoundsChecks(tn.Cond)
	case *Loop:
		if tn.Cond != nil {
			checks = g.collectBoundsChecks(tn.Cond)
		}
	case *Match:
		checks = g.collectBoundsChecks(tn.Subject)
	}
	if len(checks) == 0 {
		return n
	}
	return &Block{Stmts: append(checks, n)}
}
