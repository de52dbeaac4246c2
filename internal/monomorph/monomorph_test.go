package monomorph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/monomorph"
	"github.com/safec-lang/safecc/internal/types"
)

func minDecl(pool *types.Pool) *ast.FuncDecl {
	gp := &types.GenericParamType{Name: "T", Constraint: "Numeric"}
	ft := pool.Function([]types.Param{{Name: "a", Type: gp}, {Name: "b", Type: gp}}, gp, false)
	fn := &ast.FuncDecl{
		Generics: []ast.GenericParamDecl{{Name: "T", Constraint: "Numeric"}},
		Params:   []ast.Param{{Name: "a"}, {Name: "b"}},
	}
	fn.SetDeclName("min")
	fn.Symbol = &ast.Symbol{Name: "min", Kind: ast.SymFunction, FuncType: ft, FuncDecl: fn, Decl: fn}
	return fn
}

func TestInferBindsGenericParamFromArgumentType(t *testing.T) {
	pool := types.NewPool()
	fn := minDecl(pool)
	i32 := pool.Primitive(types.I32)

	subst, ok := monomorph.Infer(fn, []types.Type{i32, i32})
	require.True(t, ok)
	require.Same(t, i32, subst["T"])
}

func TestInferFailsWhenParameterNeverAppearsInSignature(t *testing.T) {
	pool := types.NewPool()
	gp := &types.GenericParamType{Name: "U"}
	fn := &ast.FuncDecl{Generics: []ast.GenericParamDecl{{Name: "U"}}}
	fn.SetDeclName("zero")
	fn.Symbol = &ast.Symbol{FuncType: pool.Function(nil, gp, false)}

	_, ok := monomorph.Infer(fn, nil)
	require.False(t, ok)
}

func TestCheckConstraintsAcceptsNumericPrimitive(t *testing.T) {
	pool := types.NewPool()
	fn := minDecl(pool)
	subst := map[string]types.Type{"T": pool.Primitive(types.I32)}

	errs := monomorph.CheckConstraints(fn, subst, nil)
	require.Empty(t, errs)
}

func TestCheckConstraintsRejectsNonNumericStruct(t *testing.T) {
	pool := types.NewPool()
	fn := minDecl(pool)
	st := pool.NewStruct("Widget", nil, false)
	subst := map[string]types.Type{"T": st}

	errs := monomorph.CheckConstraints(fn, subst, nil)
	require.Len(t, errs, 1)
}

func TestSpecializeSubstitutesSignatureAndCaches(t *testing.T) {
	pool := types.NewPool()
	fn := minDecl(pool)
	cache := monomorph.NewCache(pool)
	i32 := pool.Primitive(types.I32)
	subst := map[string]types.Type{"T": i32}

	spec1 := cache.Specialize(fn, subst)
	require.Equal(t, "min", spec1.DeclName())
	require.Same(t, i32, spec1.Symbol.FuncType.Params[0].Type)
	require.Same(t, i32, spec1.Symbol.FuncType.Return)
	require.Len(t, fn.Instantiations, 1)

	spec2 := cache.Specialize(fn, subst)
	require.Same(t, spec1, spec2)
	require.Len(t, fn.Instantiations, 1, "repeated call with the same type argument must not grow Instantiations")

	f64 := pool.Primitive(types.F64)
	spec3 := cache.Specialize(fn, map[string]types.Type{"T": f64})
	require.NotSame(t, spec1, spec3)
	require.Len(t, fn.Instantiations, 2)
}
