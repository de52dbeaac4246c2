// Package monomorph implements generic specialization (spec.md §4.8 and
// §3's "monomorphization ... to append instantiated declarations"):
// inferring type arguments from a call site, substituting them through a
// generic function's signature, verifying trait-like constraints, and
// caching one specialization per concrete argument tuple so repeated
// calls with the same type arguments reuse the same instantiation.
//
// Grounded on internal/sema's own "resolve against a shared pool, cache
// by identity" idiom (internal/types/pool.go) rather than on anything
// WGSL-specific in the teacher repo, which never had user-written
// generics; this package exists to give ast.FuncDecl's pre-existing
// Instantiations/InstantiatedFrom/TypeArgs fields (added for this
// purpose) an implementation.
package monomorph

import (
	"fmt"
	"strings"

	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/builtins"
	"github.com/safec-lang/safecc/internal/safecc/assert"
	"github.com/safec-lang/safecc/internal/types"
)

// Cache holds one specialization per (generic template, type argument
// tuple) pair produced during analysis of a single translation unit.
type Cache struct {
	pool *types.Pool
	byFn map[*ast.FuncDecl]map[string]*ast.FuncDecl
}

// NewCache creates a cache that builds each specialization's function
// type through pool; its substituted parameter/return types remain
// comparable with types.Identical to every other type produced during
// the same analysis.
func NewCache(pool *types.Pool) *Cache {
	return &Cache{pool: pool, byFn: make(map[*ast.FuncDecl]map[string]*ast.FuncDecl)}
}

// Infer derives a generic parameter -> concrete type substitution from a
// call's argument types, matching spec.md's implicit-instantiation rule
// (explicit `min<i32>(...)` type arguments always take priority over
// inference; Infer is only consulted when a call omits them). Positional:
// each generic parameter is matched against the first parameter position
// whose declared type mentions it, directly or nested under a pointer,
// reference, array or slice. A parameter that never
// appears in the signature (return-type-only generics) cannot be
// inferred and must be supplied explicitly; ok is false in that case.
func Infer(fn *ast.FuncDecl, argTypes []types.Type) (map[string]types.Type, bool) {
	subst := make(map[string]types.Type)
	params := fn.Symbol.FuncType.Params
	for _, gp := range fn.Generics {
		found := false
		for i, p := range params {
			if i >= len(argTypes) || argTypes[i] == nil {
				continue
			}
			if t, ok := matchGenericParam(p.Type, argTypes[i], gp.Name); ok {
				subst[gp.Name] = t
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return subst, true
}

// matchGenericParam reports the concrete type bound to paramName when
// paramName appears (possibly nested under pointer/reference/array/slice)
// within declared and actual is its concrete counterpart.
func matchGenericParam(declared, actual types.Type, paramName string) (types.Type, bool) {
	switch dt := declared.(type) {
	case *types.GenericParamType:
		if dt.Name == paramName {
			return actual, true
		}
		return nil, false
	case *types.PointerType:
		at, ok := actual.(*types.PointerType)
		if !ok {
			return nil, false
		}
		return matchGenericParam(dt.Elem, at.Elem, paramName)
	case *types.ReferenceType:
		at, ok := actual.(*types.ReferenceType)
		if !ok {
			return nil, false
		}
		return matchGenericParam(dt.Elem, at.Elem, paramName)
	case *types.ArrayType:
		at, ok := actual.(*types.ArrayType)
		if !ok {
			return nil, false
		}
		return matchGenericParam(dt.Elem, at.Elem, paramName)
	case *types.SliceType:
		at, ok := actual.(*types.SliceType)
		if !ok {
			return nil, false
		}
		return matchGenericParam(dt.Elem, at.Elem, paramName)
	}
	return nil, false
}

// CheckConstraints reports every generic parameter of fn whose bound
// concrete type (from subst) fails its declared trait constraint, using
// hasOperator to resolve struct operator methods (spec.md §4.8: "verified
// by checking that the required operators are defined for the concrete
// type, either as primitive operators or as struct operator methods").
// Unconstrained parameters (empty Constraint) always pass.
func CheckConstraints(fn *ast.FuncDecl, subst map[string]types.Type, hasOperator builtins.OperatorHasStructMethod) []error {
	var errs []error
	for _, gp := range fn.Generics {
		if gp.Constraint == "" {
			continue
		}
		t, ok := subst[gp.Name]
		if !ok {
			continue // unresolved; the caller reports failed inference
		}
		if !builtins.KnownTrait(gp.Constraint) {
			errs = append(errs, fmt.Errorf("unknown generic constraint %q on parameter %q", gp.Constraint, gp.Name))
			continue
		}
		if !builtins.Satisfies(t, builtins.Trait(gp.Constraint), hasOperator) {
			errs = append(errs, fmt.Errorf("type %s does not satisfy constraint %s (parameter %q of %q)",
				t, gp.Constraint, gp.Name, fn.DeclName()))
		}
	}
	return errs
}

// Specialize returns the FuncDecl specialized for subst, creating and
// caching it on first use. The returned declaration shares fn's body
// (the body is not rewritten per specialization; nothing in sema needs
// a deep-copied body, only a correctly substituted signature
// for call-site type checking) and is appended to fn.Instantiations the
// first time this exact type argument tuple is requested.
func (c *Cache) Specialize(fn *ast.FuncDecl, subst map[string]types.Type) *ast.FuncDecl {
	assert.That(len(fn.Generics) > 0, "Specialize called on a non-generic function declaration")
	key := cacheKey(fn, subst)
	byKey, ok := c.byFn[fn]
	if !ok {
		byKey = make(map[string]*ast.FuncDecl)
		c.byFn[fn] = byKey
	}
	if existing, ok := byKey[key]; ok {
		return existing
	}

	spec := &ast.FuncDecl{
		Attrs:            fn.Attrs,
		Body:             fn.Body,
		InstantiatedFrom: fn,
	}
	spec.SetDeclName(fn.DeclName())
	spec.SetSpan(fn.Span())

	var typeArgs []types.Type
	for _, gp := range fn.Generics {
		typeArgs = append(typeArgs, subst[gp.Name])
	}
	spec.TypeArgs = typeArgs

	var params []types.Param
	for i, p := range fn.Params {
		pt := substitute(fn.Symbol.FuncType.Params[i].Type, subst)
		params = append(params, types.Param{Name: p.Name, Type: pt})
		spec.Params = append(spec.Params, ast.Param{Name: p.Name})
	}
	ret := substitute(fn.Symbol.FuncType.Return, subst)
	ft := c.pool.Function(params, ret, fn.Attrs.Variadic)
	ft.Pure = fn.Attrs.Pure
	ft.Noreturn = fn.Attrs.Noreturn
	spec.Symbol = &ast.Symbol{Name: fn.DeclName(), Kind: ast.SymFunction, FuncType: ft, FuncDecl: spec, Decl: spec}

	byKey[key] = spec
	fn.Instantiations = append(fn.Instantiations, spec)
	return spec
}

// substitute replaces every GenericParamType reachable from t with its
// binding in subst. A bound type is returned as-is; each composite type
// around it is rebuilt as a fresh node rather than interned through the
// pool, so equal substitutions compare equal under types.Identical, not
// by pointer.
func substitute(t types.Type, subst map[string]types.Type) types.Type {
	switch n := t.(type) {
	case *types.GenericParamType:
		if bound, ok := subst[n.Name]; ok {
			return bound
		}
		return t
	case *types.PointerType:
		return &types.PointerType{Elem: substitute(n.Elem, subst), Const: n.Const}
	case *types.ReferenceType:
		cp := *n
		cp.Elem = substitute(n.Elem, subst)
		return &cp
	case *types.ArrayType:
		cp := *n
		cp.Elem = substitute(n.Elem, subst)
		return &cp
	case *types.SliceType:
		return &types.SliceType{Elem: substitute(n.Elem, subst)}
	case *types.TupleType:
		elems := make([]types.Type, len(n.Elems))
		for i, e := range n.Elems {
			elems[i] = substitute(e, subst)
		}
		return &types.TupleType{Elems: elems}
	case *types.FunctionType:
		params := make([]types.Param, len(n.Params))
		for i, p := range n.Params {
			params[i] = types.Param{Name: p.Name, Type: substitute(p.Type, subst)}
		}
		cp := *n
		cp.Params = params
		cp.Return = substitute(n.Return, subst)
		return &cp
	default:
		return t
	}
}

// cacheKey builds a stable string key for a type argument tuple so two
// calls binding the same generic parameters to the same concrete types
// (by name, for nominal types, or by structural String() for everything
// else) share one specialization.
func cacheKey(fn *ast.FuncDecl, subst map[string]types.Type) string {
	var b strings.Builder
	for _, gp := range fn.Generics {
		if t, ok := subst[gp.Name]; ok {
			b.WriteString(t.String())
		}
		b.WriteByte(';')
	}
	return b.String()
}
