package lowering

import (
	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/types"
)

// Arm is one lowered match arm: a condition to test against the
// subject (nil for the default arm, which must be last) and the body
// to run when it matches.
type Arm struct {
	Cond ast.Expr // nil for the default arm
	Body *Block
}

// Match is a match lowered to a compare cascade: arms are tested in
// source order, first match wins, falling through to Default when none
// matches (or trapping, for an exhaustive tagged-union match missing a
// default — sema is responsible for having already proven exhaustiveness
// or rejecting the match, so lowering never needs to insert that trap
// itself).
type Match struct {
	nodeBase
	Subject ast.Expr
	Arms    []Arm
	Default *Block
}

// lowerMatch builds a compare cascade from subject's static type:
//   - a tagged-union subject compares the discriminant tag field
//     (spec.md §4.5's variant patterns) against each arm's Variant.Tag;
//   - an enum subject compares the scrutinee directly against each
//     named Enumerator's Value;
//   - anything else (integers, chars) compares the scrutinee directly
//     against each arm's literal, or against lo/hi for a range arm.
//
// All three collapse to the same Arm{Cond, Body} shape; only how Cond
// gets built differs, which is exactly the "tagged-union arms compare
// the discriminant tag; numeric arms compare the scrutinee directly"
// split.
func (g *Gateway) lowerMatch(subject ast.Expr, arms []ast.MatchArm, stack []ast.Expr) Node {
	m := &Match{Subject: subject}

	tu, isTagged := underlyingTaggedUnion(subject.ResolvedType())

	for _, arm := range arms {
		if arm.IsDefault {
			m.Default = g.lowerArmBody(arm.Body, stack)
			continue
		}

		var cond ast.Expr
		switch {
		case arm.VariantTag != "" && isTagged:
			cond = tagCompareExpr(subject, tu, arm.VariantTag)
		case arm.RangeHi != nil:
			cond = rangeCompareExpr(subject, arm.RangeLo, arm.RangeHi)
		case arm.Literal != nil:
			cond = equalityExpr(subject, arm.Literal)
		default:
			cond = equalityExpr(subject, arm.RangeLo)
		}
		m.Arms = append(m.Arms, Arm{Cond: cond, Body: g.lowerArmBody(arm.Body, stack)})
	}
	return m
}

func (g *Gateway) lowerArmBody(body ast.Stmt, stack []ast.Expr) *Block {
	if body == nil {
		return &Block{}
	}
	if b, ok := body.(*ast.Block); ok {
		return g.lowerBlockWithStack(b, stack)
	}
	return &Block{Stmts: []Node{g.lowerSingleStmt(body, stack)}}
}

func underlyingTaggedUnion(t types.Type) (*types.TaggedUnionType, bool) {
	switch n := t.(type) {
	case *types.TaggedUnionType:
		return n, true
	case *types.ReferenceType:
		return underlyingTaggedUnion(n.Elem)
	case *types.PointerType:
		return underlyingTaggedUnion(n.Elem)
	default:
		return nil, false
	}
}

// tagCompareExpr builds the "subject's discriminant field == variant's
// tag" expression a real compare cascade would emit; variantName is
// resolved against tu at lowering time rather than deferred, since tags
// are assigned once and never change after sema accepts the union.
func tagCompareExpr(subject ast.Expr, tu *types.TaggedUnionType, variantName string) ast.Expr {
	var tag int64
	for _, v := range tu.Variants {
		if v.Name == variantName {
			tag = v.Tag
			break
		}
	}
	tagField := &ast.FieldAccess{Object: subject, Field: "tag"}
	lit := &ast.IntLit{Value: tag}
	return &ast.BinaryOp{Op: "==", Left: tagField, Right: lit}
}

func rangeCompareExpr(subject, lo, hi ast.Expr) ast.Expr {
	low := &ast.BinaryOp{Op: ">=", Left: subject, Right: lo}
	high := &ast.BinaryOp{Op: "<=", Left: subject, Right: hi}
	return &ast.BinaryOp{Op: "&&", Left: low, Right: high}
}

func equalityExpr(subject, val ast.Expr) ast.Expr {
	return &ast.BinaryOp{Op: "==", Left: subject, Right: val}
}
