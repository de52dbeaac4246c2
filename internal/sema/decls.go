package sema

import (
	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/types"
)

// collectDeclarations is sub-pass 1 (spec.md §4.6 "declaration
// collection"): installs top-level symbols, resolves struct/union field
// types, computes non-generic struct layouts, and registers region
// declarations. Declarations are collected in source order, so a type
// name in a declaration resolves only if that type is declared earlier:
// a field naming a struct declared later, or its own struct, reports
// "undeclared type".
func (a *Analyzer) collectDeclarations() {
	// First walk: index struct and enum declarations by name (used by
	// method stitching and operator lookup, not by type resolution).
	for _, d := range a.module.Decls {
		switch n := d.(type) {
		case *ast.StructDecl:
			a.structsByName[n.DeclName()] = n
		case *ast.EnumDecl:
			a.enumsByName[n.DeclName()] = n
		}
	}

	for _, d := range a.module.Decls {
		switch n := d.(type) {
		case *ast.StructDecl:
			a.collectStruct(n)
		case *ast.EnumDecl:
			a.collectEnum(n)
		case *ast.NewtypeDecl:
			a.collectNewtype(n)
		case *ast.TypeAliasDecl:
			a.collectTypeAlias(n)
		case *ast.RegionDecl:
			a.collectRegion(n)
		case *ast.GlobalVarDecl:
			a.collectGlobalVar(n)
		case *ast.FuncDecl:
			a.collectFunc(n)
		case *ast.StaticAssertDecl:
			cs := constContextScope(a.globals)
			a.typeOfExpr(n.Cond, cs)
			a.cval.EvalStaticAssertCondition(n.Cond, n.Message, cs)
		}
	}
}

// constContextScope creates a transient child scope marking entry into a
// const-eval-triggering context (spec.md §4.7's list: const
// globals/locals, array lengths, static_assert, if const, enum values,
// generic constraints), so typeOfCall can tell a const call site from a
// runtime one without threading an extra parameter through every typer.
func constContextScope(parent *ast.Scope) *ast.Scope {
	s := ast.NewScope(parent)
	s.InConstContext = true
	return s
}

func (a *Analyzer) collectStruct(n *ast.StructDecl) {
	if n.Symbol != nil {
		return // already collected
	}
	var fields []types.Field
	for _, f := range n.Fields {
		ft := a.resolveTypeExpr(f.Type)
		fields = append(fields, types.Field{Name: f.Name, Type: ft})
	}

	var kind types.Kind = types.KindStruct
	var t types.Type
	switch n.Kind {
	case ast.KindUnion:
		kind = types.KindUnion
		ut := a.pool.NewUnion(n.DeclName(), fields)
		types.ComputeUnionLayout(ut)
		t = ut
	case ast.KindTaggedUnion:
		kind = types.KindTaggedUnion
		var variants []types.Variant
		for i, v := range n.Variants {
			var payload []types.Field
			for _, f := range v.Payload {
				payload = append(payload, types.Field{Name: f.Name, Type: a.resolveTypeExpr(f.Type)})
			}
			variants = append(variants, types.Variant{Name: v.Name, Payload: payload, Tag: int64(i)})
		}
		t = a.pool.NewTaggedUnion(n.DeclName(), variants, types.I32)
	default:
		st := a.pool.NewStruct(n.DeclName(), fields, n.Packed)
		types.ComputeLayout(st)
		t = st
	}
	_ = kind

	sym := &ast.Symbol{Name: n.DeclName(), Kind: ast.SymTypeName, Depth: 0, Type: t, Decl: n}
	n.Symbol = sym
	if !a.globals.Declare(n.DeclName(), sym) {
		a.diags.Errorf(diagnostic.CategoryResolution, n.Span().Start, "redeclaration of type %q", n.DeclName())
	}
	a.typesByName[n.DeclName()] = t
}

func (a *Analyzer) collectEnum(n *ast.EnumDecl) {
	underlying := types.I32
	if n.Underlying != nil {
		if pt, ok := a.resolveTypeExpr(n.Underlying).(*types.PrimitiveType); ok {
			underlying = pt.Prim
		}
	}
	var enumerators []types.Enumerator
	next := int64(0)
	for _, e := range n.Enumerators {
		val := next
		if e.Value != nil {
			cs := constContextScope(a.globals)
			a.typeOfExpr(e.Value, cs)
			if v, ok := a.cval.EvalEnumerator(e.Value, cs); ok {
				val = v
			}
		}
		enumerators = append(enumerators, types.Enumerator{Name: e.Name, Value: val})
		next = val + 1
	}
	et := a.pool.NewEnum(n.DeclName(), underlying, enumerators)
	sym := &ast.Symbol{Name: n.DeclName(), Kind: ast.SymTypeName, Type: et, Decl: n}
	n.Symbol = sym
	if !a.globals.Declare(n.DeclName(), sym) {
		a.diags.Errorf(diagnostic.CategoryResolution, n.Span().Start, "redeclaration of type %q", n.DeclName())
	}
	a.typesByName[n.DeclName()] = et

	for _, e := range enumerators {
		esym := &ast.Symbol{Name: e.Name, Kind: ast.SymEnumerator, EnumValue: e.Value, Type: et, Decl: n}
		if !a.globals.Declare(e.Name, esym) {
			a.diags.Errorf(diagnostic.CategoryResolution, n.Span().Start, "redeclaration of enumerator %q", e.Name)
		}
	}
}

func (a *Analyzer) collectNewtype(n *ast.NewtypeDecl) {
	target := a.resolveTypeExpr(n.Target)
	nt := a.pool.NewNewtype(n.DeclName(), target)
	sym := &ast.Symbol{Name: n.DeclName(), Kind: ast.SymTypeName, Type: nt, Decl: n}
	n.Symbol = sym
	if !a.globals.Declare(n.DeclName(), sym) {
		a.diags.Errorf(diagnostic.CategoryResolution, n.Span().Start, "redeclaration of type %q", n.DeclName())
	}
	a.typesByName[n.DeclName()] = nt
}

func (a *Analyzer) collectTypeAlias(n *ast.TypeAliasDecl) {
	target := a.resolveTypeExpr(n.Target)
	at := a.pool.Alias(n.DeclName(), target)
	sym := &ast.Symbol{Name: n.DeclName(), Kind: ast.SymTypeName, Type: at, Decl: n}
	n.Symbol = sym
	if !a.globals.Declare(n.DeclName(), sym) {
		a.diags.Errorf(diagnostic.CategoryResolution, n.Span().Start, "redeclaration of type %q", n.DeclName())
	}
	a.typesByName[n.DeclName()] = at
}

func (a *Analyzer) collectRegion(n *ast.RegionDecl) {
	n.DeclDepth = a.globals.Depth
	sym := &ast.Symbol{
		Name: n.DeclName(), Kind: ast.SymRegion, Depth: n.DeclDepth,
		RegionDecl: n, Decl: n,
	}
	n.Symbol = sym
	if !a.globals.Declare(n.DeclName(), sym) {
		a.diags.Errorf(diagnostic.CategoryResolution, n.Span().Start, "redeclaration of region %q", n.DeclName())
	}
}

func (a *Analyzer) collectGlobalVar(n *ast.GlobalVarDecl) {
	vt := a.resolveTypeExpr(n.Type)
	sym := &ast.Symbol{
		Name: n.DeclName(), Kind: ast.SymVariable, Depth: 0,
		VarType: vt, Mutable: !n.Const, Initialized: n.Init != nil, Decl: n,
	}
	if rt, ok := vt.(*types.ReferenceType); ok {
		sym.Region = &rt.Region
	}
	n.Symbol = sym
	if !a.globals.Declare(n.DeclName(), sym) {
		a.diags.Errorf(diagnostic.CategoryResolution, n.Span().Start, "redeclaration of %q", n.DeclName())
	}

	if n.Init != nil {
		initScope := a.globals
		if n.Const {
			initScope = constContextScope(a.globals)
		}
		initT := a.typeOfExprForTarget(n.Init, initScope, vt)
		if kind := types.CanAssign(initT, vt); kind == types.AssignForbidden {
			a.diags.Errorf(diagnostic.CategoryType, n.Span().Start,
				"cannot initialize %q of type %s with value of type %s", n.DeclName(), vt, initT)
		}
		if n.Const {
			a.cval.Eval(n.Init, initScope)
		}
	}
}

func (a *Analyzer) collectFunc(n *ast.FuncDecl) {
	if n.Attrs.MethodOwner != "" {
		// Stitched to its owning struct in stitchMethods, not installed as
		// a free top-level symbol.
		return
	}
	var ft *types.FunctionType
	a.withGenericParams(n.Generics, func() {
		ft = a.funcType(n)
	})
	sym := &ast.Symbol{Name: n.DeclName(), Kind: ast.SymFunction, FuncType: ft, FuncDecl: n, Decl: n}
	n.Symbol = sym
	if !a.globals.Declare(n.DeclName(), sym) {
		a.diags.Errorf(diagnostic.CategoryResolution, n.Span().Start, "redeclaration of function %q", n.DeclName())
	}
}

func (a *Analyzer) funcType(n *ast.FuncDecl) *types.FunctionType {
	var params []types.Param
	for _, p := range n.Params {
		params = append(params, types.Param{Name: p.Name, Type: a.resolveTypeExpr(p.Type)})
	}
	ret := a.resolveTypeExpr(n.Return)
	ft := a.pool.Function(params, ret, n.Attrs.Variadic)
	ft.Pure = n.Attrs.Pure
	ft.Noreturn = n.Attrs.Noreturn
	if n.Attrs.Naked {
		ft.CallConv = types.CallConvNaked
	}
	if n.Attrs.Interrupt {
		ft.CallConv = types.CallConvInterrupt
	}
	return ft
}

// withGenericParams installs each of generics as a resolvable
// GenericParamType for the duration of fn, so resolveTypeExpr can bind a
// `generic<T: Numeric>` parameter's uses of `T` in its signature and body
// instead of reporting "undeclared type". Entries are removed afterward;
// a.typesByName is shared across every top-level declaration, and two
// unrelated generic functions both naming their parameter `T` must not
// see each other's constraint.
func (a *Analyzer) withGenericParams(generics []ast.GenericParamDecl, fn func()) {
	if len(generics) == 0 {
		fn()
		return
	}
	var shadowed []types.Type
	for _, gp := range generics {
		shadowed = append(shadowed, a.typesByName[gp.Name])
		a.typesByName[gp.Name] = &types.GenericParamType{Name: gp.Name, Constraint: gp.Constraint, Pack: gp.Pack}
	}
	fn()
	for i, gp := range generics {
		if shadowed[i] == nil {
			delete(a.typesByName, gp.Name)
		} else {
			a.typesByName[gp.Name] = shadowed[i]
		}
	}
}

// stitchMethods binds `Struct::method` definitions parsed as free
// functions to the struct they belong to (spec.md §4.6 "Methods declared
// inside a struct body are stitched to later Struct::method definitions
// by name; mismatched signatures produce an error"). SafeC methods are
// always written via the `::` form, so "inside a struct body" here means
// "declared anywhere at top level naming that struct as owner".
func (a *Analyzer) stitchMethods() {
	for _, d := range a.module.Decls {
		fn, ok := d.(*ast.FuncDecl)
		if !ok || fn.Attrs.MethodOwner == "" {
			continue
		}
		owner, ok := a.structsByName[fn.Attrs.MethodOwner]
		if !ok {
			a.diags.Errorf(diagnostic.CategoryResolution, fn.Span().Start,
				"method %q declared on undeclared type %q", fn.DeclName(), fn.Attrs.MethodOwner)
			continue
		}
		ft := a.funcType(fn)
		fn.Symbol = &ast.Symbol{Name: fn.DeclName(), Kind: ast.SymFunction, FuncType: ft, FuncDecl: fn, Decl: fn}

		if prior := findMethodByName(owner, fn.DeclName()); prior != nil {
			if prior.Symbol != nil && prior.Symbol.FuncType != nil && !functionTypesMatch(prior.Symbol.FuncType, ft) {
				a.diags.Errorf(diagnostic.CategoryType, fn.Span().Start,
					"method %q on %q redeclared with a different signature", fn.DeclName(), owner.DeclName())
			} else {
				a.diags.Errorf(diagnostic.CategoryResolution, fn.Span().Start,
					"method %q already declared for type %q", fn.DeclName(), owner.DeclName())
			}
			continue
		}
		owner.Methods = append(owner.Methods, fn)
	}
}

func findMethodByName(owner *ast.StructDecl, name string) *ast.FuncDecl {
	for _, m := range owner.Methods {
		if m.DeclName() == name {
			return m
		}
	}
	return nil
}

// functionTypesMatch reports whether two method signatures agree on
// parameter count/types and return type; SafeC methods are not
// overloaded, so two `Struct::method` definitions sharing a name must
// agree exactly.
func functionTypesMatch(a, b *types.FunctionType) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !types.Identical(a.Params[i].Type, b.Params[i].Type) {
			return false
		}
	}
	return types.Identical(a.Return, b.Return)
}

// resolveTypeExpr binds a parser-produced ast.Type to a canonical
// types.Type, installing it in the shared pool. Unknown names are
// reported once per occurrence; a placeholder primitive (i32) keeps
// downstream checks from cascading into a wall of "nil type" panics.
func (a *Analyzer) resolveTypeExpr(t ast.Type) types.Type {
	switch n := t.(type) {
	case nil:
		return a.pool.Void()
	case *ast.NamedType:
		if prim, ok := primitiveByName(n.Name); ok {
			return a.pool.Primitive(prim)
		}
		if n.Name == "void" {
			return a.pool.Void()
		}
		if n.Name == "bool" {
			return a.pool.Primitive(types.Bool)
		}
		if resolved, ok := a.typesByName[n.Name]; ok {
			return resolved
		}
		if sym, _ := a.globals.Lookup(n.Name); sym != nil && sym.Kind == ast.SymTypeName {
			return sym.Type
		}
		a.diags.Errorf(diagnostic.CategoryResolution, n.Span().Start, "undeclared type %q", n.Name)
		return a.pool.Primitive(types.I32)
	case *ast.PointerTypeExpr:
		return a.pool.Pointer(a.resolveTypeExpr(n.Elem), n.Const)
	case *ast.ReferenceTypeExpr:
		region := regionFromName(n.RegionName)
		return a.pool.Reference(a.resolveTypeExpr(n.Elem), region, n.Mutable, n.Nullable)
	case *ast.ArrayTypeExpr:
		elem := a.resolveTypeExpr(n.Elem)
		if n.Length == nil {
			return a.pool.Slice(elem)
		}
		if lit, ok := n.Length.(*ast.IntLit); ok {
			return a.pool.Array(elem, lit.Value)
		}
		cs := constContextScope(a.globals)
		a.typeOfExpr(n.Length, cs)
		if length, ok := a.cval.EvalArrayLength(n.Length, cs); ok {
			return a.pool.Array(elem, length)
		}
		arr := a.pool.Array(elem, -1)
		arr.LengthSrc = "?"
		return arr
	case *ast.FuncTypeExpr:
		var params []types.Param
		for _, p := range n.Params {
			params = append(params, types.Param{Type: a.resolveTypeExpr(p)})
		}
		return a.pool.Function(params, a.resolveTypeExpr(n.Return), n.Variadic)
	case *ast.TupleTypeExpr:
		var elems []types.Type
		for _, e := range n.Elems {
			elems = append(elems, a.resolveTypeExpr(e))
		}
		return a.pool.Tuple(elems)
	default:
		return a.pool.Void()
	}
}

func primitiveByName(name string) (types.Primitive, bool) {
	switch name {
	case "char":
		return types.Char, true
	case "i8":
		return types.I8, true
	case "i16":
		return types.I16, true
	case "i32":
		return types.I32, true
	case "i64":
		return types.I64, true
	case "u8":
		return types.U8, true
	case "u16":
		return types.U16, true
	case "u32":
		return types.U32, true
	case "u64":
		return types.U64, true
	case "f32":
		return types.F32, true
	case "f64":
		return types.F64, true
	}
	return 0, false
}

func regionFromName(name string) types.Region {
	switch name {
	case "stack":
		return types.Region{Kind: types.Stack}
	case "heap":
		return types.Region{Kind: types.Heap}
	case "static":
		return types.Region{Kind: types.Static}
	default:
		return types.Region{Kind: types.Arena, Name: name}
	}
}
