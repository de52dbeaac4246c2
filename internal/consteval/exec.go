package consteval

import (
	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/diagnostic"
)

func (e *Evaluator) evalAssign(n *ast.AssignExpr, f *frame, scope *ast.Scope) (Value, bool) {
	ident, ok := n.Target.(*ast.Ident)
	if !ok || ident.Symbol == nil {
		e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start,
			"only a local variable may be assigned to in a const context")
		return Value{}, false
	}
	if _, local := f.env[ident.Symbol]; !local {
		e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start,
			"%q is not local to this const evaluation and cannot be mutated", ident.Name)
		return Value{}, false
	}
	rv, ok := e.evalExpr(n.Val, f, scope)
	if !ok {
		return Value{}, false
	}
	if n.Op != "=" {
		cur := f.env[ident.Symbol]
		var combined bool
		rv, combined = e.applyBinary(n.Op[:len(n.Op)-1], cur, rv, n.Span().Start)
		if !combined {
			return Value{}, false
		}
	}
	f.env[ident.Symbol] = rv
	return rv, true
}

// evalCall evaluates a call to a const or consteval function (spec.md
// §4.7 "may only call functions marked const or consteval"), pushing a
// fresh frame bound to the call's argument values and walking the
// function body as a statement sequence terminated by its return.
func (e *Evaluator) evalCall(n *ast.CallExpr, f *frame, scope *ast.Scope) (Value, bool) {
	ident, ok := n.Callee.(*ast.Ident)
	if !ok || ident.Symbol == nil || ident.Symbol.Kind != ast.SymFunction || ident.Symbol.FuncDecl == nil {
		e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start, "call target is not usable in a const context")
		return Value{}, false
	}
	fn := ident.Symbol.FuncDecl
	if !fn.Attrs.Const && !fn.Attrs.Consteval {
		e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start,
			"%q is not declared const or consteval and cannot be called in a const context", fn.DeclName())
		return Value{}, false
	}
	if fn.Body == nil {
		e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start, "%q has no body to const-evaluate", fn.DeclName())
		return Value{}, false
	}
	if f.depth+1 > e.limits.MaxRecursionDepth {
		e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start,
			"const-eval recursion exceeded the limit (%d) calling %q", e.limits.MaxRecursionDepth, fn.DeclName())
		return Value{}, false
	}

	if fn.Body.Scope == nil {
		e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start,
			"%q has not been analyzed and cannot be const-evaluated", fn.DeclName())
		return Value{}, false
	}

	callee := newFrame(f.depth + 1)
	for i, p := range fn.Params {
		if i >= len(n.Args) {
			break
		}
		argV, ok := e.evalExpr(n.Args[i], f, scope)
		if !ok {
			return Value{}, false
		}
		paramSym, found := fn.Body.Scope.LookupLocal(p.Name)
		if !found {
			e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start, "parameter %q was not resolved by analysis", p.Name)
			return Value{}, false
		}
		callee.env[paramSym] = argV
	}

	res, ctrl, ok := e.evalBlock(fn.Body, callee, scope)
	if !ok {
		return Value{}, false
	}
	if ctrl.kind != ctrlReturn {
		return Value{}, true // void consteval function, fell off the end
	}
	return res, true
}
