package sema

import (
	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/diagnostic"
)

// validateAttributes enforces spec.md §3's attribute combination rules
// that do not depend on body analysis: naked/interrupt are mutually
// exclusive calling conventions, consteval implies pure, extern functions
// may not carry a body while other free functions must, and pure excludes
// naked. Section names are not validated.
// must_use (on discarded call results) and pure (on body mutation) are
// enforced during body analysis in body.go, since both need the typed,
// name-resolved AST.
func (a *Analyzer) validateAttributes() {
	for _, d := range a.module.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok {
			a.validateFuncAttrs(fn)
		}
	}
	for _, decl := range a.structsByName {
		for _, m := range decl.Methods {
			a.validateFuncAttrs(m)
		}
	}
}

func (a *Analyzer) validateFuncAttrs(fn *ast.FuncDecl) {
	attrs := fn.Attrs
	pos := fn.Span().Start

	if attrs.Naked && attrs.Interrupt {
		a.diags.Errorf(diagnostic.CategoryAttribute, pos,
			"function %q cannot be both naked and interrupt", fn.DeclName())
	}
	if attrs.Consteval && !attrs.Pure {
		// consteval functions run at compile time under the const-eval
		// engine's hard caps, which can only give deterministic results
		// for functions without externally visible side effects.
		a.diags.Errorf(diagnostic.CategoryAttribute, pos,
			"consteval function %q must also be declared pure", fn.DeclName())
	}
	if attrs.Extern && fn.Body != nil {
		a.diags.Errorf(diagnostic.CategoryAttribute, pos,
			"extern function %q cannot have a body", fn.DeclName())
	}
	if !attrs.Extern && fn.Body == nil && attrs.MethodOwner == "" {
		a.diags.Errorf(diagnostic.CategoryAttribute, pos,
			"function %q has no body and is not declared extern", fn.DeclName())
	}
	if (attrs.Naked || attrs.Interrupt) && fn.Return != nil && !voidReturn(fn.Return) {
		a.diags.Warnf(diagnostic.CategoryAttribute, pos,
			"%s function %q returning a non-void value relies on the caller's calling convention", callConvName(attrs), fn.DeclName())
	}
	if attrs.Pure && attrs.Naked {
		a.diags.Errorf(diagnostic.CategoryAttribute, pos,
			"function %q cannot be both pure and naked", fn.DeclName())
	}
}

func callConvName(attrs ast.Attributes) string {
	if attrs.Naked {
		return "naked"
	}
	return "interrupt"
}
