package consteval

import (
	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/sourcepos"
	"github.com/safec-lang/safecc/internal/types"
)

func (e *Evaluator) evalBinary(n *ast.BinaryOp, f *frame, scope *ast.Scope) (Value, bool) {
	lv, ok := e.evalExpr(n.Left, f, scope)
	if !ok {
		return Value{}, false
	}
	rv, ok := e.evalExpr(n.Right, f, scope)
	if !ok {
		return Value{}, false
	}
	return e.applyBinary(n.Op, lv, rv, n.Span().Start)
}

// applyBinary dispatches a binary operator over two already-evaluated
// values; shared between plain binary expressions and compound
// assignment's implicit operator.
func (e *Evaluator) applyBinary(op string, lv, rv Value, pos sourcepos.Pos) (Value, bool) {
	switch op {
	case "==", "!=", "<", ">", "<=", ">=":
		return e.evalCompare(op, lv, rv, pos)
	}
	if lv.Kind == KindInt && rv.Kind == KindInt {
		return e.evalIntBinary(op, lv, rv, pos)
	}
	if lv.Kind == KindFloat || rv.Kind == KindFloat {
		return e.evalFloatBinary(op, lv, rv, pos)
	}
	e.diags.Errorf(diagnostic.CategoryConstEval, pos, "operator %q is not valid between these const operand kinds", op)
	return Value{}, false
}

func (e *Evaluator) evalCompare(op string, lv, rv Value, pos sourcepos.Pos) (Value, bool) {
	var cmp int
	switch {
	case lv.Kind == KindInt && rv.Kind == KindInt:
		cmp = cmpInt(lv.Int, rv.Int)
	case lv.Kind == KindFloat || rv.Kind == KindFloat:
		l, r := asFloat(lv), asFloat(rv)
		switch {
		case l < r:
			cmp = -1
		case l > r:
			cmp = 1
		}
	case lv.Kind == KindBool && rv.Kind == KindBool:
		cmp = cmpInt(boolToInt(lv.Bool), boolToInt(rv.Bool))
	case lv.Kind == KindString && rv.Kind == KindString:
		switch {
		case lv.Str < rv.Str:
			cmp = -1
		case lv.Str > rv.Str:
			cmp = 1
		}
	default:
		e.diags.Errorf(diagnostic.CategoryConstEval, pos, "cannot compare these const operand kinds")
		return Value{}, false
	}
	switch op {
	case "==":
		return BoolValue(cmp == 0), true
	case "!=":
		return BoolValue(cmp != 0), true
	case "<":
		return BoolValue(cmp < 0), true
	case ">":
		return BoolValue(cmp > 0), true
	case "<=":
		return BoolValue(cmp <= 0), true
	case ">=":
		return BoolValue(cmp >= 0), true
	}
	return Value{}, false
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func asFloat(v Value) float64 {
	if v.Kind == KindFloat {
		return v.Float
	}
	return float64(v.Int)
}

// resultPrim picks the wider of two integer operand types, the const-eval
// analog of the bottom-up typer's CommonType promotion.
func resultPrim(a, b types.Primitive) types.Primitive {
	if a.Width() >= b.Width() {
		return a
	}
	return b
}

func (e *Evaluator) evalIntBinary(op string, lv, rv Value, pos sourcepos.Pos) (Value, bool) {
	prim := resultPrim(lv.Prim, rv.Prim)
	l, r := lv.Int, rv.Int

	switch op {
	case "+", "-", "*":
		var res int64
		switch op {
		case "+":
			res = l + r
		case "-":
			res = l - r
		case "*":
			res = l * r
		}
		if overflowedSigned(prim, res) {
			e.diags.Errorf(diagnostic.CategoryConstEval, pos, "%s overflows %s in a const context", op, prim)
			return Value{}, false
		}
		return IntValue(res, prim), true

	case "/":
		if r == 0 {
			e.diags.Errorf(diagnostic.CategoryConstEval, pos, "division by zero in a const context")
			return Value{}, false
		}
		res := l / r
		if overflowedSigned(prim, res) {
			e.diags.Errorf(diagnostic.CategoryConstEval, pos, "division overflows %s in a const context", prim)
			return Value{}, false
		}
		return IntValue(res, prim), true

	case "%":
		if r == 0 {
			e.diags.Errorf(diagnostic.CategoryConstEval, pos, "modulo by zero in a const context")
			return Value{}, false
		}
		return IntValue(l%r, prim), true

	case "&":
		return IntValue(l&r, prim), true
	case "|":
		return IntValue(l|r, prim), true
	case "^":
		return IntValue(l^r, prim), true

	case "<<", ">>":
		width := int64(widthBits(lv.Prim))
		if r < 0 || r >= width {
			e.diags.Errorf(diagnostic.CategoryConstEval, pos, "shift amount %d is outside [0, %d) in a const context", r, width)
			return Value{}, false
		}
		if op == "<<" {
			return IntValue(l<<uint(r), lv.Prim), true
		}
		return IntValue(l>>uint(r), lv.Prim), true
	}
	e.diags.Errorf(diagnostic.CategoryConstEval, pos, "operator %q is not valid between const integers", op)
	return Value{}, false
}

func (e *Evaluator) evalFloatBinary(op string, lv, rv Value, pos sourcepos.Pos) (Value, bool) {
	prim := lv.Prim
	if prim != types.F32 && prim != types.F64 {
		prim = rv.Prim
	}
	l, r := asFloat(lv), asFloat(rv)
	switch op {
	case "+":
		return FloatValue(l+r, prim), true
	case "-":
		return FloatValue(l-r, prim), true
	case "*":
		return FloatValue(l*r, prim), true
	case "/":
		if r == 0 {
			e.diags.Errorf(diagnostic.CategoryConstEval, pos, "division by zero in a const context")
			return Value{}, false
		}
		return FloatValue(l/r, prim), true
	}
	e.diags.Errorf(diagnostic.CategoryConstEval, pos, "operator %q is not valid between const floats", op)
	return Value{}, false
}
