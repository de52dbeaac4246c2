package sema

import (
	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/sourcepos"
	"github.com/safec-lang/safecc/internal/types"
)

// analyzeBodies is sub-pass 2 (spec.md §4.6 "body analysis"): for every
// function with a body, it walks the statement tree maintaining a scope
// chain, a definite-init set, an alias graph, a nullability map, and the
// lexically inherited unsafe_mode flag, while type-checking every
// expression along the way.
func (a *Analyzer) analyzeBodies() {
	for _, d := range a.module.Decls {
		fn, ok := d.(*ast.FuncDecl)
		if !ok || fn.Body == nil || fn.Attrs.MethodOwner != "" {
			continue // methods are analyzed once below, via structsByName
		}
		a.analyzeFuncBody(fn)
	}
	for _, decl := range a.structsByName {
		for _, m := range decl.Methods {
			if m.Body != nil {
				a.analyzeFuncBody(m)
			}
		}
	}
}

func (a *Analyzer) analyzeFuncBody(fn *ast.FuncDecl) {
	a.withGenericParams(fn.Generics, func() {
		a.analyzeFuncBodyInner(fn)
	})
}

func (a *Analyzer) analyzeFuncBodyInner(fn *ast.FuncDecl) {
	a.fn = fn
	a.initSet = newInitSet()
	a.aliases = newAliasGraph()
	a.nullables = make(map[*ast.Symbol]nullState)
	a.hadError = false

	scope := ast.NewScope(a.globals)
	if fn.Attrs.Consteval {
		// A consteval function only ever executes inside a const-eval
		// frame, so calls it makes to other consteval functions are not
		// "runtime" calls even though this pass walks the body the same
		// way it walks any other function.
		scope.InConstContext = true
	}
	for i, p := range fn.Params {
		pt := fn.Symbol.FuncType.Params[i].Type
		sym := &ast.Symbol{Name: p.Name, Kind: ast.SymVariable, VarType: pt, Mutable: true, Initialized: true, Depth: scope.Depth}
		if rt, ok := pt.(*types.ReferenceType); ok {
			sym.Region = &rt.Region
			if rt.Nullable {
				a.setNullable(sym, nullUnknown)
			} else {
				a.setNullable(sym, nullProvenNonNull)
			}
		}
		if !scope.Declare(p.Name, sym) {
			a.diags.Errorf(diagnostic.CategoryResolution, fn.Span().Start, "redeclaration of parameter %q", p.Name)
		}
		a.initSet.mark(sym)
	}

	fn.Body.Scope = scope
	a.analyzeBlock(fn.Body, scope)

	if !fn.Attrs.Noreturn && !voidReturn(fn.Return) && !blockAlwaysReturns(fn.Body) {
		a.diags.Warnf(diagnostic.CategoryType, fn.Span().Start,
			"function %q may fall off the end without returning a value", fn.DeclName())
	}

	if fn.Attrs.Pure {
		a.checkPureBody(fn)
	}
}

func voidReturn(t ast.Type) bool {
	nt, ok := t.(*ast.NamedType)
	return t == nil || (ok && nt.Name == "void")
}

// blockAlwaysReturns is a conservative syntactic check (no CFG): a block
// guarantees a value on every path only if its last statement does, or it
// is an if/else where both arms do, or a match where every arm does.
func blockAlwaysReturns(b *ast.Block) bool {
	if b == nil || len(b.Stmts) == 0 {
		return false
	}
	return stmtAlwaysReturns(b.Stmts[len(b.Stmts)-1])
}

func stmtAlwaysReturns(s ast.Stmt) bool {
	switch n := s.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.Block:
		return blockAlwaysReturns(n)
	case *ast.IfStmt:
		if n.Else == nil {
			return false
		}
		thenOK := blockAlwaysReturns(n.Then)
		var elseOK bool
		switch e := n.Else.(type) {
		case *ast.Block:
			elseOK = blockAlwaysReturns(e)
		case *ast.IfStmt:
			elseOK = stmtAlwaysReturns(e)
		}
		return thenOK && elseOK
	case *ast.MatchStmt:
		if len(n.Arms) == 0 {
			return false
		}
		hasDefault := false
		for _, arm := range n.Arms {
			if !stmtAlwaysReturns(arm.Body) {
				return false
			}
			if arm.IsDefault {
				hasDefault = true
			}
		}
		return hasDefault
	case *ast.UnsafeStmt:
		return blockAlwaysReturns(n.Body)
	default:
		return false
	}
}

// analyzeBlock opens b's scope (already set by the caller for a function
// body; created fresh otherwise), walks its statements in order, and at
// the end drops every borrow whose last use precedes the block's end.
func (a *Analyzer) analyzeBlock(b *ast.Block, parent *ast.Scope) {
	scope := b.Scope
	if scope == nil {
		scope = ast.NewScope(parent)
		b.Scope = scope
	}
	for _, s := range b.Stmts {
		a.analyzeStmt(s, scope)
	}
	a.endBorrowsPastLastUse(b.Span().End)
}

func (a *Analyzer) analyzeStmt(s ast.Stmt, scope *ast.Scope) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		t := a.typeOfExpr(n.X, scope)
		_ = t
		if call, ok := n.X.(*ast.CallExpr); ok {
			if ident, ok := call.Callee.(*ast.Ident); ok && ident.Symbol != nil && ident.Symbol.FuncDecl != nil {
				if ident.Symbol.FuncDecl.Attrs.MustUse {
					n.MustUseIgnored = true
					a.diags.Warnf(diagnostic.CategoryAttribute, n.Span().Start,
						"ignoring return value of %q, declared must_use", ident.Name)
				}
			}
		}

	case *ast.Block:
		a.analyzeBlock(n, scope)

	case *ast.VarDecl:
		a.analyzeVarDecl(n, scope)

	case *ast.IfStmt:
		a.analyzeIf(n, scope)

	case *ast.WhileStmt:
		a.typeOfExpr(n.Cond, scope)
		loopScope := ast.NewScope(scope)
		if n.Label != "" {
			loopScope.LoopLabels = append(loopScope.LoopLabels, n.Label)
		} else {
			loopScope.LoopLabels = append(loopScope.LoopLabels, "")
		}
		n.Body.Scope = ast.NewScope(loopScope)
		a.analyzeBlock(n.Body, loopScope)

	case *ast.ForStmt:
		forScope := ast.NewScope(scope)
		if n.Init != nil {
			a.analyzeStmt(n.Init, forScope)
		}
		if n.Cond != nil {
			a.typeOfExpr(n.Cond, forScope)
		}
		if n.Label != "" {
			forScope.LoopLabels = append(forScope.LoopLabels, n.Label)
		} else {
			forScope.LoopLabels = append(forScope.LoopLabels, "")
		}
		n.Body.Scope = ast.NewScope(forScope)
		a.analyzeBlock(n.Body, forScope)
		if n.Post != nil {
			a.typeOfExpr(n.Post, forScope)
		}

	case *ast.ReturnStmt:
		if n.Value != nil {
			retT := a.resolveTypeExpr(a.fn.Return)
			valT := a.typeOfExprForTarget(n.Value, scope, retT)
			if kind := types.CanAssign(valT, retT); kind == types.AssignForbidden {
				a.diags.Errorf(diagnostic.CategoryType, n.Span().Start,
					"cannot return %s from a function declared to return %s", valT, retT)
			}
			a.checkRegionEscape(valT, scope.Depth, 0, true, scope.UnsafeMode, n.Span().Start)
		}

	case *ast.BreakStmt:
		a.checkLoopLabel("break", n.Label, scope, n.Span().Start)

	case *ast.ContinueStmt:
		a.checkLoopLabel("continue", n.Label, scope, n.Span().Start)

	case *ast.DeferStmt:
		a.typeOfExpr(n.Call, scope)
		scope.PushDefer(n.Call)

	case *ast.MatchStmt:
		a.analyzeMatchStmt(n, scope)

	case *ast.UnsafeStmt:
		a.analyzeUnsafe(n, scope)

	case *ast.StaticAssertStmt:
		cs := constContextScope(scope)
		a.typeOfExpr(n.Cond, cs)
		a.cval.EvalStaticAssertCondition(n.Cond, n.Message, cs)

	case *ast.SpawnStmt:
		a.typeOfExpr(n.Call, scope)

	default:
	}
}

// checkLoopLabel validates that a break/continue targets an enclosing
// loop: unlabeled forms need any enclosing loop, labeled forms need a
// loop carrying that exact label (spec.md §3 "loop-label stack").
func (a *Analyzer) checkLoopLabel(kind, label string, scope *ast.Scope, pos sourcepos.Pos) {
	if label == "" {
		if len(scope.LoopLabels) == 0 {
			a.diags.Errorf(diagnostic.CategoryResolution, pos, "%s statement not inside a loop", kind)
		}
		return
	}
	if !scope.HasLoopLabel(label) {
		a.diags.Errorf(diagnostic.CategoryResolution, pos, "%s statement targets undeclared label %q", kind, label)
	}
}

func (a *Analyzer) analyzeVarDecl(n *ast.VarDecl, scope *ast.Scope) {
	vt := a.resolveTypeExpr(n.Type)
	sym := &ast.Symbol{Name: n.Name, Kind: ast.SymVariable, VarType: vt, Mutable: !n.Const, Depth: scope.Depth}
	if rt, ok := vt.(*types.ReferenceType); ok {
		sym.Region = &rt.Region
	}
	n.Symbol = sym

	if n.Init != nil {
		initScope := scope
		if n.Const {
			initScope = constContextScope(scope)
		}
		initT := a.typeOfExprForTarget(n.Init, initScope, vt)
		if kind := types.CanAssign(initT, vt); kind == types.AssignForbidden {
			a.diags.Errorf(diagnostic.CategoryType, n.Span().Start,
				"cannot initialize %q of type %s with value of type %s", n.Name, vt, initT)
		} else if kind == types.AssignRequiresCast {
			a.diags.Errorf(diagnostic.CategoryType, n.Span().Start,
				"implicit conversion from %s to %s requires an explicit cast", initT, vt)
		}
		a.checkRegionEscape(initT, scope.Depth, scope.Depth, false, scope.UnsafeMode, n.Span().Start)
		if n.Const {
			a.cval.Eval(n.Init, initScope)
		}
		sym.Initialized = true
		if rt, ok := vt.(*types.ReferenceType); ok {
			if rt.Nullable {
				a.setNullable(sym, nullUnknown)
			} else {
				a.setNullable(sym, nullProvenNonNull)
			}
		}
	}

	if !scope.Declare(n.Name, sym) {
		a.diags.Errorf(diagnostic.CategoryResolution, n.Span().Start, "redeclaration of %q in this scope", n.Name)
	}
	if sym.Initialized {
		a.initSet.mark(sym)
	}
}

func (a *Analyzer) analyzeIf(n *ast.IfStmt, scope *ast.Scope) {
	if n.Const {
		a.typeOfExpr(n.Cond, constContextScope(scope))
		a.analyzeConstIf(n, scope)
		return
	}
	a.typeOfExpr(n.Cond, scope)

	thenScope := ast.NewScope(scope)
	n.Then.Scope = thenScope
	initBefore := a.initSet.clone()
	nullBefore := a.cloneNullables()
	a.analyzeBlock(n.Then, scope)
	initThen := a.initSet
	nullThen := a.cloneNullables()

	a.initSet = initBefore.clone()
	a.nullables = nullBefore

	switch e := n.Else.(type) {
	case *ast.Block:
		elseScope := ast.NewScope(scope)
		e.Scope = elseScope
		a.analyzeBlock(e, scope)
		initThen.meet(a.initSet)
		a.mergeNullables(nullThen, a.cloneNullables())
		a.initSet = initThen
	case *ast.IfStmt:
		a.analyzeIf(e, scope)
		initThen.meet(a.initSet)
		a.mergeNullables(nullThen, a.cloneNullables())
		a.initSet = initThen
	default:
		// No else: the set after the statement is whatever was true before
		// it, since the then-branch might not run.
		a.initSet = initBefore
		a.nullables = nullBefore
	}
}

// analyzeConstIf implements `if const` (spec.md §4.7): the condition is
// resolved at analysis time and only the taken branch is walked further;
// the other branch is left as parsed syntax only, which is what lets it
// reference symbols valid only in a different build configuration (the
// motivating case named in spec.md §4.7).
func (a *Analyzer) analyzeConstIf(n *ast.IfStmt, scope *ast.Scope) {
	taken, ok := a.cval.EvalIfConst(n.Cond, constContextScope(scope))
	if !ok {
		// Condition didn't evaluate; still walk both arms so the rest of
		// the function isn't left completely unchecked.
		thenScope := ast.NewScope(scope)
		n.Then.Scope = thenScope
		a.analyzeBlock(n.Then, scope)
		if elseB, ok := n.Else.(*ast.Block); ok {
			elseScope := ast.NewScope(scope)
			elseB.Scope = elseScope
			a.analyzeBlock(elseB, scope)
		} else if elseIf, ok := n.Else.(*ast.IfStmt); ok {
			a.analyzeIf(elseIf, scope)
		}
		return
	}

	n.ConstTaken = &taken
	if taken {
		thenScope := ast.NewScope(scope)
		n.Then.Scope = thenScope
		a.analyzeBlock(n.Then, scope)
		return
	}
	switch e := n.Else.(type) {
	case *ast.Block:
		elseScope := ast.NewScope(scope)
		e.Scope = elseScope
		a.analyzeBlock(e, scope)
	case *ast.IfStmt:
		a.analyzeIf(e, scope)
	}
}

func (a *Analyzer) analyzeMatchStmt(n *ast.MatchStmt, scope *ast.Scope) {
	a.typeOfExpr(n.Subject, scope)
	var merged *initSet
	hasDefault := false
	for _, arm := range n.Arms {
		if arm.Literal != nil {
			a.typeOfExpr(arm.Literal, scope)
		}
		if arm.RangeLo != nil {
			a.typeOfExpr(arm.RangeLo, scope)
			a.typeOfExpr(arm.RangeHi, scope)
		}
		if arm.IsDefault {
			hasDefault = true
		}
		armScope := ast.NewScope(scope)
		if arm.Bind != "" {
			armScope.Declare(arm.Bind, &ast.Symbol{Name: arm.Bind, Kind: ast.SymVariable, Mutable: true, Initialized: true, Depth: armScope.Depth})
		}
		saved := a.initSet
		a.initSet = saved.clone()
		a.analyzeStmt(arm.Body, armScope)
		if merged == nil {
			merged = a.initSet
		} else {
			merged.meet(a.initSet)
		}
		a.initSet = saved
	}
	if merged != nil && hasDefault {
		a.initSet = merged
	}
}

func (a *Analyzer) analyzeUnsafe(n *ast.UnsafeStmt, scope *ast.Scope) {
	unsafeScope := ast.NewScope(scope)
	unsafeScope.UnsafeMode = true
	snap := a.aliases.snapshot()
	n.Body.Scope = ast.NewScope(unsafeScope)
	a.analyzeBlock(n.Body, unsafeScope)
	if !n.Escape {
		a.aliases.restore(snap)
	}
	// unsafe escape keeps whatever borrow state the block produced,
	// letting a raw-pointer-to-reference reconstruction inside it persist
	// past the boundary (spec.md §4.6 "unsafe escape").
}

// checkPureBody is a best-effort syntactic approximation of spec.md
// §4.6's `pure` attribute: it reports an assignment to a global and a
// direct call to a non-pure function. Only the outermost expression of an
// expression statement, a return value or an if condition is inspected;
// nested sub-expressions, loop conditions, match and unsafe bodies,
// exclusive references and calls through function pointers are not
// checked, here or in lowering.
func (a *Analyzer) checkPureBody(fn *ast.FuncDecl) {
	var walk func(s ast.Stmt)
	walk = func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.ExprStmt:
			checkPureExpr(a, n.X)
		case *ast.Block:
			for _, st := range n.Stmts {
				walk(st)
			}
		case *ast.IfStmt:
			checkPureExpr(a, n.Cond)
			walk(n.Then)
			if n.Else != nil {
				walk(n.Else)
			}
		case *ast.WhileStmt:
			walk(n.Body)
		case *ast.ForStmt:
			walk(n.Body)
		case *ast.ReturnStmt:
			if n.Value != nil {
				checkPureExpr(a, n.Value)
			}
		}
	}
	walk(fn.Body)
}

func checkPureExpr(a *Analyzer, e ast.Expr) {
	switch n := e.(type) {
	case *ast.AssignExpr:
		if ident, ok := n.Target.(*ast.Ident); ok && ident.Symbol != nil && ident.Symbol.Depth == 0 {
			a.diags.Errorf(diagnostic.CategoryAttribute, n.Span().Start,
				"pure function cannot assign to global %q", ident.Name)
		}
	case *ast.CallExpr:
		if ident, ok := n.Callee.(*ast.Ident); ok && ident.Symbol != nil && ident.Symbol.FuncDecl != nil {
			if !ident.Symbol.FuncDecl.Attrs.Pure {
				a.diags.Errorf(diagnostic.CategoryAttribute, n.Span().Start,
					"pure function cannot call non-pure function %q", ident.Name)
			}
		}
	}
}
