package ast_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/types"
)

func TestScopeLookupFindsInnermostEnclosingSymbol(t *testing.T) {
	root := ast.NewScope(nil)
	root.Declare("x", &ast.Symbol{Name: "x", Kind: ast.SymVariable})

	child := ast.NewScope(root)
	child.Declare("x", &ast.Symbol{Name: "x", Kind: ast.SymVariable, VarType: types.NewPool().Primitive(types.I32)})

	sym, found := child.Lookup("x")
	require.Same(t, child, found)
	require.NotNil(t, sym.VarType)

	outer, _ := root.LookupLocal("x")
	require.Nil(t, outer.VarType)
}

func TestScopeDeclareRejectsRedeclarationInSameBlock(t *testing.T) {
	s := ast.NewScope(nil)
	require.True(t, s.Declare("x", &ast.Symbol{Name: "x"}))
	require.False(t, s.Declare("x", &ast.Symbol{Name: "x"}))
}

func TestChildScopeInheritsUnsafeMode(t *testing.T) {
	root := ast.NewScope(nil)
	root.UnsafeMode = true
	child := ast.NewScope(root)
	require.True(t, child.UnsafeMode)
}

func TestDeferUnwindsInReverseOrder(t *testing.T) {
	s := ast.NewScope(nil)
	a := &ast.CallExpr{}
	b := &ast.CallExpr{}
	c := &ast.CallExpr{}
	s.PushDefer(a)
	s.PushDefer(b)
	s.PushDefer(c)

	unwound := s.UnwindDefer()
	require.Equal(t, []ast.Expr{c, b, a}, unwound)
}

func TestLoopLabelStackTracksEnclosingLoops(t *testing.T) {
	root := ast.NewScope(nil)
	root.LoopLabels = append(root.LoopLabels, "outer")
	child := ast.NewScope(root)
	child.LoopLabels = append(child.LoopLabels, "inner")

	require.True(t, child.HasLoopLabel("outer"))
	require.True(t, child.HasLoopLabel("inner"))
	require.Equal(t, "inner", child.CurrentLoopLabel())
}

func TestDumpRendersFunctionAndStruct(t *testing.T) {
	fn := &ast.FuncDecl{}
	fn.SetDeclName("main")
	st := &ast.StructDecl{}
	st.SetDeclName("Point")
	m := &ast.Module{Decls: []ast.Decl{fn, st}}

	var sb strings.Builder
	m.Dump(&sb)
	out := sb.String()
	require.Contains(t, out, "(func main")
	require.Contains(t, out, "(struct Point")
}
