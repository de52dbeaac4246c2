package consteval

import (
	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/diagnostic"
)

// EvalIfConst decides which branch of an `if const` survives to lowering
// (spec.md §4.7 "if const dead branches are discarded before semantic
// checks run on the branch body"). It returns the branch's truth value
// and whether evaluation succeeded; sema only analyzes the branch this
// selects once ok is true.
func (e *Evaluator) EvalIfConst(cond ast.Expr, scope *ast.Scope) (bool, bool) {
	v, ok := e.Eval(cond, scope)
	if !ok {
		return false, false
	}
	if v.Kind != KindBool {
		e.diags.Errorf(diagnostic.CategoryConstEval, cond.Span().Start, "if const condition must be a constant boolean")
		return false, false
	}
	return v.Bool, true
}

// EvalStaticAssertCondition evaluates a static_assert's condition and
// reports a diagnostic if it evaluates to false or fails to evaluate.
// Returns true only when the condition evaluated to true; it returns
// false both for a failed assertion and for a failed evaluation. A
// disabled Evaluator (NewDisabled) returns false without a diagnostic.
func (e *Evaluator) EvalStaticAssertCondition(cond ast.Expr, message string, scope *ast.Scope) bool {
	v, ok := e.Eval(cond, scope)
	if !ok {
		return false
	}
	if v.Kind != KindBool {
		e.diags.Errorf(diagnostic.CategoryConstEval, cond.Span().Start, "static_assert condition must be a constant boolean")
		return false
	}
	if !v.Bool {
		if message != "" {
			e.diags.Errorf(diagnostic.CategoryConstEval, cond.Span().Start, "static assertion failed: %s", message)
		} else {
			e.diags.Errorf(diagnostic.CategoryConstEval, cond.Span().Start, "static assertion failed")
		}
		return false
	}
	return true
}

// EvalEnumerator evaluates an explicit enumerator value expression,
// returning the underlying int64 tag.
func (e *Evaluator) EvalEnumerator(expr ast.Expr, scope *ast.Scope) (int64, bool) {
	v, ok := e.Eval(expr, scope)
	if !ok {
		return 0, false
	}
	if v.Kind != KindInt {
		e.diags.Errorf(diagnostic.CategoryConstEval, expr.Span().Start, "enumerator value must be a constant integer")
		return 0, false
	}
	return v.Int, true
}

// EvalArrayLength evaluates an array-type's length expression, returning
// a non-negative element count.
func (e *Evaluator) EvalArrayLength(expr ast.Expr, scope *ast.Scope) (int64, bool) {
	v, ok := e.Eval(expr, scope)
	if !ok {
		return 0, false
	}
	if v.Kind != KindInt {
		e.diags.Errorf(diagnostic.CategoryConstEval, expr.Span().Start, "array length must be a constant integer")
		return 0, false
	}
	if v.Int < 0 {
		e.diags.Errorf(diagnostic.CategoryConstEval, expr.Span().Start, "array length cannot be negative")
		return 0, false
	}
	return v.Int, true
}
