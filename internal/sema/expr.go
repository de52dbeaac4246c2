package sema

import (
	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/monomorph"
	"github.com/safec-lang/safecc/internal/types"
)

// typeOfExpr computes e's type bottom-up (spec.md §4.6 "Type checking"),
// attaches it via SetResolvedType, and runs the name-resolution, region,
// aliasing, and nullability checks that apply at each node kind. scope is
// the innermost lexical scope at e's position.
func (a *Analyzer) typeOfExpr(e ast.Expr, scope *ast.Scope) types.Type {
	if e == nil {
		return a.pool.Void()
	}
	var t types.Type
	switch n := e.(type) {
	case *ast.IntLit:
		t = a.pool.Primitive(intSuffixPrimitive(n.Suffix))
	case *ast.FloatLit:
		t = a.pool.Primitive(types.F64)
	case *ast.StringLit:
		t = a.pool.Pointer(a.pool.Primitive(types.Char), true)
	case *ast.CharLit:
		t = a.pool.Primitive(types.Char)
	case *ast.BoolLit:
		t = a.pool.Primitive(types.Bool)
	case *ast.Ident:
		t = a.typeOfIdent(n, scope)
	case *ast.UnaryOp:
		t = a.typeOfUnary(n, scope)
	case *ast.BinaryOp:
		t = a.typeOfBinary(n, scope)
	case *ast.AssignExpr:
		t = a.typeOfAssign(n, scope)
	case *ast.CallExpr:
		t = a.typeOfCall(n, scope)
	case *ast.FieldAccess:
		t = a.typeOfFieldAccess(n, scope)
	case *ast.IndexExpr:
		t = a.typeOfIndex(n, scope)
	case *ast.SliceExpr:
		elemT := a.typeOfExpr(n.Object, scope)
		if n.Lo != nil {
			a.typeOfExpr(n.Lo, scope)
		}
		if n.Hi != nil {
			a.typeOfExpr(n.Hi, scope)
		}
		t = a.pool.Slice(elementTypeOf(elemT))
	case *ast.CastExpr:
		a.typeOfExpr(n.Value, scope)
		t = a.resolveTypeExpr(n.Target)
	case *ast.NewExpr:
		t = a.typeOfNew(n, scope)
	case *ast.ClosureExpr:
		t = a.typeOfClosure(n, scope)
	case *ast.MatchExpr:
		t = a.typeOfMatchExpr(n, scope)
	case *ast.TryExpr:
		t = a.typeOfExpr(n.Inner, scope)
	case *ast.TypeQueryExpr:
		t = a.pool.Primitive(types.U64)
		if n.Operand != nil {
			a.typeOfExpr(n.Operand, scope)
		}
	case *ast.VolatileExpr:
		ptrT := a.typeOfExpr(n.Ptr, scope)
		if n.Store {
			a.typeOfExpr(n.Value, scope)
			t = a.pool.Void()
		} else {
			t = elementTypeOf(ptrT)
		}
	default:
		t = a.pool.Void()
	}
	if t == nil {
		t = a.pool.Void()
	}
	e.SetResolvedType(t)
	return t
}

func elementTypeOf(t types.Type) types.Type {
	switch tt := t.(type) {
	case *types.PointerType:
		return tt.Elem
	case *types.ReferenceType:
		return tt.Elem
	case *types.ArrayType:
		return tt.Elem
	case *types.SliceType:
		return tt.Elem
	default:
		return t
	}
}

func intSuffixPrimitive(suffix string) types.Primitive {
	switch suffix {
	case "U":
		return types.U32
	case "L", "LL":
		return types.I64
	case "UL", "ULL":
		return types.U64
	default:
		return types.I32
	}
}

func (a *Analyzer) typeOfIdent(n *ast.Ident, scope *ast.Scope) types.Type {
	sym, declScope := scope.Lookup(n.Name)
	if sym == nil {
		a.diags.Errorf(diagnostic.CategoryResolution, n.Span().Start, "use of undeclared identifier %q", n.Name)
		return a.pool.Void()
	}
	n.Symbol = sym
	_ = declScope

	switch sym.Kind {
	case ast.SymVariable:
		if !a.initSet.isInit(sym) {
			a.diags.Errorf(diagnostic.CategoryInit, n.Span().Start, "use of possibly uninitialized variable %q", n.Name)
		}
		if sym.VarType != nil {
			if _, isRef := sym.VarType.(*types.ReferenceType); isRef {
				a.borrowSharedOf(sym, n.Span().Start)
				a.touchUse(sym, n.Span().Start)
				if a.nullStateOf(sym) == nullProvenNull {
					a.diags.Warnf(diagnostic.CategoryNullability, n.Span().Start,
						"%q is null on this path", n.Name)
				}
			}
		}
		n.SetLValue(true)
		return sym.VarType
	case ast.SymFunction:
		n.SetLValue(false)
		return sym.FuncType
	case ast.SymEnumerator:
		n.SetLValue(false)
		return sym.Type
	case ast.SymTypeName:
		n.SetLValue(false)
		return sym.Type
	default:
		return a.pool.Void()
	}
}

func (a *Analyzer) typeOfUnary(n *ast.UnaryOp, scope *ast.Scope) types.Type {
	switch n.Op {
	case "&":
		// Bottom-up with no destination context, `&x` defaults to a
		// shared (non-mutable) reference; a caller that knows the
		// expected destination type calls typeOfAddressOf directly with
		// the declared mutability instead (spec.md §4.6: surface syntax
		// has no `&mut`, so whether a borrow is exclusive follows from
		// where it flows, not from its own spelling).
		return a.typeOfAddressOf(n, scope, false)
	case "*":
		operandT := a.typeOfExpr(n.Operand, scope)
		if _, isRef := operandT.(*types.ReferenceType); isRef {
			if ident, ok := n.Operand.(*ast.Ident); ok && ident.Symbol != nil {
				if a.nullStateOf(ident.Symbol) != nullProvenNonNull {
					a.diags.Errorf(diagnostic.CategoryNullability, n.Span().Start,
						"dereferencing %q requires proof it is non-null on this path", ident.Symbol.Name)
				}
			}
		}
		n.SetLValue(true)
		return elementTypeOf(operandT)
	case "-", "~":
		return a.typeOfExpr(n.Operand, scope)
	case "!":
		a.typeOfExpr(n.Operand, scope)
		return a.pool.Primitive(types.Bool)
	case "++", "--", "post++", "post--":
		return a.typeOfExpr(n.Operand, scope)
	default:
		return a.typeOfExpr(n.Operand, scope)
	}
}

// typeOfAddressOf type-checks `&operand`, registering a shared borrow
// when wantMutable is false and an exclusive one when true.
func (a *Analyzer) typeOfAddressOf(n *ast.UnaryOp, scope *ast.Scope, wantMutable bool) types.Type {
	operandT := a.typeOfExpr(n.Operand, scope)
	region := types.Region{Kind: types.Stack}
	if ident, ok := n.Operand.(*ast.Ident); ok && ident.Symbol != nil {
		if ident.Symbol.Region != nil {
			region = *ident.Symbol.Region
		}
		if wantMutable && !ident.Symbol.Mutable {
			a.diags.Errorf(diagnostic.CategoryAlias, n.Span().Start,
				"cannot take a mutable reference to const variable %q", ident.Name)
		}
		if wantMutable {
			a.borrowExclusiveOf(ident.Symbol, n.Span().Start)
		} else {
			a.borrowSharedOf(ident.Symbol, n.Span().Start)
		}
	}
	n.Region = &region
	result := a.pool.Reference(operandT, region, wantMutable, false)
	n.SetResolvedType(result)
	return result
}

// typeOfExprForTarget type-checks e, threading the destination
// reference's declared mutability through a top-level `&operand` so the
// alias graph records the correct borrow kind (see typeOfAddressOf).
func (a *Analyzer) typeOfExprForTarget(e ast.Expr, scope *ast.Scope, target types.Type) types.Type {
	rt, ok := target.(*types.ReferenceType)
	if !ok {
		return a.typeOfExpr(e, scope)
	}
	if u, ok := e.(*ast.UnaryOp); ok && u.Op == "&" {
		return a.typeOfAddressOf(u, scope, rt.Mutable)
	}
	return a.typeOfExpr(e, scope)
}

func (a *Analyzer) typeOfBinary(n *ast.BinaryOp, scope *ast.Scope) types.Type {
	lt := a.typeOfExpr(n.Left, scope)
	rt := a.typeOfExpr(n.Right, scope)

	if st, ok := lt.(*types.StructType); ok {
		method := a.findOperatorMethod(st, n.Op)
		if method != nil {
			n.OperatorMethod = method
			params := method.Symbol.FuncType.Params
			if len(params) != 1 || !types.Identical(params[0].Type, rt) {
				a.diags.Errorf(diagnostic.CategoryType, n.Span().Start,
					"operator%s on %q expects a single argument of type %s", n.Op, st.Name, st.Name)
			}
			return method.Symbol.FuncType.Return
		}
		a.diags.Errorf(diagnostic.CategoryType, n.Span().Start,
			"type %q has no operator%s overload", st.Name, n.Op)
		return a.pool.Void()
	}

	switch n.Op {
	case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
		if _, ok := types.CommonType(lt, rt); !ok {
			a.diags.Errorf(diagnostic.CategoryType, n.Span().Start,
				"mismatched operand types %s and %s", lt, rt)
		}
		return a.pool.Primitive(types.Bool)
	default:
		ct, ok := types.CommonType(lt, rt)
		if !ok {
			a.diags.Errorf(diagnostic.CategoryType, n.Span().Start,
				"mismatched operand types %s and %s; an explicit cast is required", lt, rt)
			return lt
		}
		return ct
	}
}

// operatorMethodNames maps a binary operator's surface spelling to the
// method name SafeC source spells it with (spec.md §4.6 "operator@"; the
// lexer never forms identifiers out of operator punctuation, so the
// overload is named in full, e.g. `Struct::operator_add`).
var operatorMethodNames = map[string]string{
	"+": "operator_add", "-": "operator_sub", "*": "operator_mul",
	"/": "operator_div", "%": "operator_mod",
	"==": "operator_eq", "!=": "operator_ne",
	"<": "operator_lt", ">": "operator_gt", "<=": "operator_le", ">=": "operator_ge",
	"&": "operator_and", "|": "operator_or", "^": "operator_xor",
	"<<": "operator_shl", ">>": "operator_shr",
}

// findOperatorMethod looks up the struct's `operator@` overload (spec.md
// §4.6) for op by the struct's declared name.
func (a *Analyzer) findOperatorMethod(st *types.StructType, op string) *ast.FuncDecl {
	decl, ok := a.structsByName[st.Name]
	if !ok {
		return nil
	}
	want, ok := operatorMethodNames[op]
	if !ok {
		return nil
	}
	for _, m := range decl.Methods {
		if m.DeclName() == want {
			return m
		}
	}
	return nil
}

func (a *Analyzer) typeOfAssign(n *ast.AssignExpr, scope *ast.Scope) types.Type {
	var targetT types.Type
	if ident, ok := n.Target.(*ast.Ident); ok && n.Op == "=" {
		// A plain store to a variable is a write, not a read: it needs no
		// prior initialization and does not borrow the variable.
		if sym, _ := scope.Lookup(ident.Name); sym != nil && sym.Kind == ast.SymVariable && sym.VarType != nil {
			ident.Symbol = sym
			ident.SetLValue(true)
			ident.SetResolvedType(sym.VarType)
			targetT = sym.VarType
		}
	}
	if targetT == nil {
		targetT = a.typeOfExpr(n.Target, scope)
	}
	valT := a.typeOfExprForTarget(n.Val, scope, targetT)

	if !n.Target.IsLValue() {
		a.diags.Errorf(diagnostic.CategoryType, n.Span().Start, "left-hand side of assignment is not assignable")
	}
	if ident, ok := n.Target.(*ast.Ident); ok && ident.Symbol != nil {
		if !ident.Symbol.Mutable && ident.Symbol.Initialized {
			a.diags.Errorf(diagnostic.CategoryType, n.Span().Start, "cannot assign to const variable %q", ident.Symbol.Name)
		}
		ident.Symbol.Initialized = true
		a.initSet.mark(ident.Symbol)
		if targetT != nil {
			if _, isRef := targetT.(*types.ReferenceType); isRef {
				a.borrowExclusiveOf(ident.Symbol, n.Span().Start)
				a.checkRegionEscape(valT, scope.Depth, ident.Symbol.Depth, false, scope.UnsafeMode, n.Span().Start)
			}
		}
	}
	a.markHeapMoveIfOwned(n.Val)

	if n.Op == "=" {
		if kind := types.CanAssign(valT, targetT); kind == types.AssignForbidden {
			a.diags.Errorf(diagnostic.CategoryType, n.Span().Start,
				"cannot assign value of type %s to %s", valT, targetT)
		} else if kind == types.AssignRequiresCast {
			a.diags.Errorf(diagnostic.CategoryType, n.Span().Start,
				"implicit conversion from %s to %s requires an explicit cast", valT, targetT)
		} else if kind == types.AssignRequiresProof {
			a.diags.Errorf(diagnostic.CategoryNullability, n.Span().Start,
				"assigning a nullable reference to a non-null location requires a flow-sensitive proof")
		}
	}
	return targetT
}

func (a *Analyzer) typeOfCall(n *ast.CallExpr, scope *ast.Scope) types.Type {
	calleeT := a.typeOfExpr(n.Callee, scope)

	ft, ok := calleeT.(*types.FunctionType)
	if !ok {
		for _, arg := range n.Args {
			a.typeOfExpr(arg, scope)
		}
		if ident, ok := n.Callee.(*ast.Ident); ok {
			a.diags.Errorf(diagnostic.CategoryType, n.Span().Start, "%q is not callable", ident.Name)
		} else {
			a.diags.Errorf(diagnostic.CategoryType, n.Span().Start, "expression is not callable")
		}
		return a.pool.Void()
	}

	for i, arg := range n.Args {
		if i < len(ft.Params) {
			a.typeOfExprForTarget(arg, scope, ft.Params[i].Type)
		} else {
			a.typeOfExpr(arg, scope)
		}
		a.markHeapMoveIfOwned(arg)
	}

	if ident, ok := n.Callee.(*ast.Ident); ok && ident.Symbol != nil && ident.Symbol.FuncDecl != nil {
		fn := ident.Symbol.FuncDecl
		if fn.Attrs.Consteval && !scope.InConstContext {
			a.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start,
				"%q is consteval and cannot be called outside a const context", fn.DeclName())
		}
		if len(fn.Generics) > 0 {
			if !fn.Attrs.Variadic && len(n.Args) != len(fn.Params) {
				a.diags.Errorf(diagnostic.CategoryType, n.Span().Start,
					"generic function %q expects %d argument(s), got %d", fn.DeclName(), len(fn.Params), len(n.Args))
				return ft.Return
			}
			return a.instantiateGenericCall(n, fn, scope)
		}
		if fn.Attrs.MustUse {
			// A discarded result is flagged by the enclosing ExprStmt
			// (analyzeStmt in body.go).
		}
	}

	if !ft.Variadic && len(n.Args) != len(ft.Params) {
		a.diags.Errorf(diagnostic.CategoryType, n.Span().Start,
			"call expects %d argument(s), got %d", len(ft.Params), len(n.Args))
		return ft.Return
	}
	for i, p := range ft.Params {
		if i >= len(n.Args) {
			break
		}
		argT := n.Args[i].ResolvedType()
		if kind := types.CanAssign(argT, p.Type); kind == types.AssignForbidden {
			a.diags.Errorf(diagnostic.CategoryType, n.Args[i].Span().Start,
				"argument %d: cannot pass %s where %s is expected", i+1, argT, p.Type)
		}
	}
	return ft.Return
}

// instantiateGenericCall resolves a call to a generic function: binds
// type arguments (CallExpr.TypeArgs, when set, take priority over
// inference from argument types; the parser never sets them), verifies every constrained parameter's
// trait (spec.md §4.8), and specializes the template through the shared
// monomorphization cache so repeated calls with the same concrete types
// reuse one instantiation. Diagnostics are raised for unresolved or
// constraint-violating type arguments; the template's own (unsubstituted)
// return type is used as a fallback so the caller's expression still gets
// some type and downstream checks don't cascade into "nil type" errors.
func (a *Analyzer) instantiateGenericCall(n *ast.CallExpr, fn *ast.FuncDecl, scope *ast.Scope) types.Type {
	subst := make(map[string]types.Type)
	if len(n.TypeArgs) > 0 {
		for i, gp := range fn.Generics {
			if i < len(n.TypeArgs) {
				subst[gp.Name] = n.TypeArgs[i]
			}
		}
	} else {
		argTypes := make([]types.Type, len(n.Args))
		for i, arg := range n.Args {
			argTypes[i] = arg.ResolvedType()
		}
		inferred, ok := monomorph.Infer(fn, argTypes)
		if !ok {
			a.diags.Errorf(diagnostic.CategoryType, n.Span().Start,
				"cannot infer generic type argument(s) for %q from the call's arguments", fn.DeclName())
			return fn.Symbol.FuncType.Return
		}
		subst = inferred
	}

	hasOperator := func(st *types.StructType, op string) bool {
		return a.findOperatorMethod(st, op) != nil
	}
	for _, err := range monomorph.CheckConstraints(fn, subst, hasOperator) {
		a.diags.Errorf(diagnostic.CategoryType, n.Span().Start, "%s", err)
	}

	spec := a.mono.Specialize(fn, subst)
	for i, p := range spec.Symbol.FuncType.Params {
		if i >= len(n.Args) {
			break
		}
		argT := n.Args[i].ResolvedType()
		if kind := types.CanAssign(argT, p.Type); kind == types.AssignForbidden {
			a.diags.Errorf(diagnostic.CategoryType, n.Args[i].Span().Start,
				"argument %d: cannot pass %s where %s is expected", i+1, argT, p.Type)
		}
	}
	return spec.Symbol.FuncType.Return
}

func (a *Analyzer) typeOfFieldAccess(n *ast.FieldAccess, scope *ast.Scope) types.Type {
	objT := a.typeOfExpr(n.Object, scope)
	base := objT
	if n.Arrow {
		base = elementTypeOf(objT)
	}
	base = dealiasLocal(base)
	switch st := base.(type) {
	case *types.StructType:
		for _, f := range st.Fields {
			if f.Name == n.Field {
				n.SetLValue(true)
				return f.Type
			}
		}
		a.diags.Errorf(diagnostic.CategoryType, n.Span().Start, "type %q has no field %q", st.Name, n.Field)
	case *types.UnionType:
		for _, f := range st.Fields {
			if f.Name == n.Field {
				n.SetLValue(true)
				return f.Type
			}
		}
		a.diags.Errorf(diagnostic.CategoryType, n.Span().Start, "type %q has no field %q", st.Name, n.Field)
	default:
		a.diags.Errorf(diagnostic.CategoryType, n.Span().Start, "%s has no fields", objT)
	}
	return a.pool.Void()
}

func dealiasLocal(t types.Type) types.Type {
	for {
		at, ok := t.(*types.AliasType)
		if !ok {
			return t
		}
		t = at.Target
	}
}

func (a *Analyzer) typeOfIndex(n *ast.IndexExpr, scope *ast.Scope) types.Type {
	objT := a.typeOfExpr(n.Object, scope)
	idxT := a.typeOfExpr(n.Index, scope)
	if pt, ok := idxT.(*types.PrimitiveType); !ok || !pt.Prim.IsInteger() {
		a.diags.Errorf(diagnostic.CategoryType, n.Index.Span().Start, "array index must be an integer, got %s", idxT)
	}
	n.SetLValue(true)

	if arr, ok := objT.(*types.ArrayType); ok {
		if lit, ok := n.Index.(*ast.IntLit); ok {
			if arr.Length >= 0 && (lit.Value < 0 || lit.Value >= arr.Length) {
				a.diags.Errorf(diagnostic.CategoryType, n.Span().Start,
					"index %d out of bounds for array of length %d", lit.Value, arr.Length)
			}
		} else {
			n.BoundsCheckRequested = true
		}
		return arr.Elem
	}
	if !isIntLiteral(n.Index) {
		n.BoundsCheckRequested = true
	}
	return elementTypeOf(objT)
}

func isIntLiteral(e ast.Expr) bool {
	_, ok := e.(*ast.IntLit)
	return ok
}

func (a *Analyzer) typeOfNew(n *ast.NewExpr, scope *ast.Scope) types.Type {
	for _, init := range n.Init {
		a.typeOfExpr(init, scope)
	}
	elem := a.resolveTypeExpr(n.Type)
	region := types.Region{Kind: types.Heap}
	if n.RegionName != "" {
		region = types.Region{Kind: types.Arena, Name: n.RegionName}
	}
	n.Region = &region
	return a.pool.Reference(elem, region, true, false)
}

func (a *Analyzer) typeOfClosure(n *ast.ClosureExpr, scope *ast.Scope) types.Type {
	closureScope := ast.NewScope(scope)
	var params []types.Param
	for _, p := range n.Params {
		pt := a.resolveTypeExpr(p.Type)
		params = append(params, types.Param{Name: p.Name, Type: pt})
		sym := &ast.Symbol{Name: p.Name, Kind: ast.SymVariable, VarType: pt, Mutable: true, Initialized: true, Depth: closureScope.Depth}
		closureScope.Declare(p.Name, sym)
		a.initSet.mark(sym)
	}
	a.analyzeBlock(n.Body, closureScope)
	ret := a.pool.Void()
	if len(n.Body.Stmts) > 0 {
		if ret2, ok := lastReturnType(n.Body); ok {
			ret = ret2
		}
	}
	return a.pool.Function(params, ret, false)
}

func lastReturnType(b *ast.Block) (types.Type, bool) {
	for _, s := range b.Stmts {
		if r, ok := s.(*ast.ReturnStmt); ok && r.Value != nil {
			return r.Value.ResolvedType(), true
		}
	}
	return nil, false
}

func (a *Analyzer) typeOfMatchExpr(n *ast.MatchExpr, scope *ast.Scope) types.Type {
	a.typeOfExpr(n.Subject, scope)
	var result types.Type = a.pool.Void()
	for i, arm := range n.Arms {
		if arm.Literal != nil {
			a.typeOfExpr(arm.Literal, scope)
		}
		if arm.RangeLo != nil {
			a.typeOfExpr(arm.RangeLo, scope)
			a.typeOfExpr(arm.RangeHi, scope)
		}
		if es, ok := arm.Body.(*ast.ExprStmt); ok {
			t := a.typeOfExpr(es.X, scope)
			if i == 0 {
				result = t
			}
		} else {
			a.analyzeStmt(arm.Body, scope)
		}
	}
	return result
}
