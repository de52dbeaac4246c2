package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/lexer"
	"github.com/safec-lang/safecc/internal/parser"
	"github.com/safec-lang/safecc/internal/sourcepos"
)

func parse(t *testing.T, src string) (*ast.Module, *diagnostic.Sink) {
	t.Helper()
	files := sourcepos.NewMap()
	id := files.AddFile("t.sc", src)
	sink := diagnostic.NewSink(files)
	toks := lexer.New(id, src, sink).Tokenize()
	m := parser.New(id, toks, sink).Parse()
	return m, sink
}

func TestParsesEmptyFunction(t *testing.T) {
	m, sink := parse(t, "i32 main() { return 0; }")
	require.False(t, sink.HasErrors())
	require.Len(t, m.Decls, 1)
	fn, ok := m.Decls[0].(*ast.FuncDecl)
	require.True(t, ok)
	require.Equal(t, "main", fn.DeclName())
	require.Len(t, fn.Body.Stmts, 1)
	ret, ok := fn.Body.Stmts[0].(*ast.ReturnStmt)
	require.True(t, ok)
	lit, ok := ret.Value.(*ast.IntLit)
	require.True(t, ok)
	require.Equal(t, int64(0), lit.Value)
}

func TestParsesFunctionWithParamsAndCall(t *testing.T) {
	m, sink := parse(t, "i32 add(i32 a, i32 b) { return a + b; }\ni32 main() { return add(1, 2); }")
	require.False(t, sink.HasErrors())
	require.Len(t, m.Decls, 2)
	add := m.Decls[0].(*ast.FuncDecl)
	require.Len(t, add.Params, 2)
	require.Equal(t, "a", add.Params[0].Name)
	bin := add.Body.Stmts[0].(*ast.ReturnStmt).Value.(*ast.BinaryOp)
	require.Equal(t, "+", bin.Op)

	main := m.Decls[1].(*ast.FuncDecl)
	call := main.Body.Stmts[0].(*ast.ReturnStmt).Value.(*ast.CallExpr)
	require.Len(t, call.Args, 2)
}

func TestParsesGlobalVarDecl(t *testing.T) {
	m, sink := parse(t, "const i32 limit = 10;")
	require.False(t, sink.HasErrors())
	g := m.Decls[0].(*ast.GlobalVarDecl)
	require.True(t, g.Const)
	require.Equal(t, "limit", g.DeclName())
}

func TestParsesReferenceType(t *testing.T) {
	m, sink := parse(t, "void use(&stack i32 x) { return; }")
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	ref, ok := fn.Params[0].Type.(*ast.ReferenceTypeExpr)
	require.True(t, ok)
	require.Equal(t, "stack", ref.RegionName)
	require.False(t, ref.Nullable)
}

func TestParsesNullableArenaReferenceType(t *testing.T) {
	m, sink := parse(t, "void use(?&arena<R> i32 x) { return; }")
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	ref := fn.Params[0].Type.(*ast.ReferenceTypeExpr)
	require.True(t, ref.Nullable)
	require.Equal(t, "R", ref.RegionName)
}

func TestParsesStructDecl(t *testing.T) {
	m, sink := parse(t, "struct Point { i32 x; i32 y; }")
	require.False(t, sink.HasErrors())
	st := m.Decls[0].(*ast.StructDecl)
	require.Equal(t, "Point", st.DeclName())
	require.Len(t, st.Fields, 2)
	require.Equal(t, ast.KindStruct, st.Kind)
}

func TestParsesTaggedUnionDecl(t *testing.T) {
	m, sink := parse(t, "struct Option { Some(i32 value); None(); }")
	require.False(t, sink.HasErrors())
	st := m.Decls[0].(*ast.StructDecl)
	require.Equal(t, ast.KindTaggedUnion, st.Kind)
	require.Len(t, st.Variants, 2)
	require.Equal(t, "Some", st.Variants[0].Name)
	require.Len(t, st.Variants[0].Payload, 1)
}

func TestParsesEnumDecl(t *testing.T) {
	m, sink := parse(t, "enum Color : i32 { Red = 0, Green, Blue }")
	require.False(t, sink.HasErrors())
	e := m.Decls[0].(*ast.EnumDecl)
	require.Len(t, e.Enumerators, 3)
	require.Equal(t, "Red", e.Enumerators[0].Name)
}

func TestParsesGenericFunction(t *testing.T) {
	m, sink := parse(t, "generic<T: Numeric> T min(T a, T b) { return a; }")
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	require.Len(t, fn.Generics, 1)
	require.Equal(t, "T", fn.Generics[0].Name)
	require.Equal(t, "Numeric", fn.Generics[0].Constraint)
}

func TestParsesVariadicTypePack(t *testing.T) {
	m, sink := parse(t, "generic<T...> i32 count() { return 0; }")
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	require.True(t, fn.Generics[0].Pack)
}

func TestParsesIfConst(t *testing.T) {
	m, sink := parse(t, "i32 pick() { if const (true) { return 1; } else { return 2; } }")
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	ifs := fn.Body.Stmts[0].(*ast.IfStmt)
	require.True(t, ifs.Const)
	require.NotNil(t, ifs.Else)
}

func TestParsesWhileAndFor(t *testing.T) {
	m, sink := parse(t, `i32 loop() {
		i32 total = 0;
		for (i32 i = 0; i < 10; i++) {
			total = total + i;
		}
		while (total > 0) {
			total = total - 1;
		}
		return total;
	}`)
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	require.IsType(t, &ast.ForStmt{}, fn.Body.Stmts[1])
	require.IsType(t, &ast.WhileStmt{}, fn.Body.Stmts[2])
}

func TestParsesLabeledLoopWithBreakContinue(t *testing.T) {
	m, sink := parse(t, `void run() {
		outer: for (i32 i = 0; i < 10; i++) {
			if (i == 5) { break outer; }
			continue outer;
		}
	}`)
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	f := fn.Body.Stmts[0].(*ast.ForStmt)
	require.Equal(t, "outer", f.Label)
}

func TestParsesMatchStmtWithVariantAndRange(t *testing.T) {
	m, sink := parse(t, `i32 classify(i32 n) {
		match (n) {
			case 0: return 0;
			case 1..9: return 1;
			default: return 2;
		}
	}`)
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	ms := fn.Body.Stmts[0].(*ast.MatchStmt)
	require.Len(t, ms.Arms, 3)
	require.NotNil(t, ms.Arms[1].RangeHi)
	require.True(t, ms.Arms[2].IsDefault)
}

func TestParsesDeferAndUnsafe(t *testing.T) {
	m, sink := parse(t, `void cleanup(i32* p) {
		defer free(p);
		unsafe escape {
			*p = 0;
		}
	}`)
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	require.IsType(t, &ast.DeferStmt{}, fn.Body.Stmts[0])
	us := fn.Body.Stmts[1].(*ast.UnsafeStmt)
	require.True(t, us.Escape)
}

func TestParsesNewExpression(t *testing.T) {
	m, sink := parse(t, "void alloc() { i32* p = new<R> i32; }")
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	v := fn.Body.Stmts[0].(*ast.VarDecl)
	n := v.Init.(*ast.NewExpr)
	require.Equal(t, "R", n.RegionName)
}

func TestParsesClosure(t *testing.T) {
	m, sink := parse(t, "void run() { apply(|i32 a| { return; }); }")
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	call := fn.Body.Stmts[0].(*ast.ExprStmt).X.(*ast.CallExpr)
	closure := call.Args[0].(*ast.ClosureExpr)
	require.Len(t, closure.Params, 1)
}

func TestParsesUnaryAndPrecedence(t *testing.T) {
	m, sink := parse(t, "i32 calc() { return 1 + 2 * 3; }")
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	top := ret.Value.(*ast.BinaryOp)
	require.Equal(t, "+", top.Op)
	require.IsType(t, &ast.IntLit{}, top.Left)
	mul := top.Right.(*ast.BinaryOp)
	require.Equal(t, "*", mul.Op)
}

func TestParsesAddressOfAndDeref(t *testing.T) {
	m, sink := parse(t, "i32 read(i32* p) { return *p; }")
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	u := ret.Value.(*ast.UnaryOp)
	require.Equal(t, "*", u.Op)
}

func TestParsesFieldAndIndexAndSlice(t *testing.T) {
	m, sink := parse(t, `i32 touch(Point p, i32[] arr) {
		i32 a = p.x;
		i32 b = arr[0];
		i32[] c = arr[1..3];
		return a + b;
	}`)
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	require.IsType(t, &ast.FieldAccess{}, fn.Body.Stmts[0].(*ast.VarDecl).Init)
	require.IsType(t, &ast.IndexExpr{}, fn.Body.Stmts[1].(*ast.VarDecl).Init)
	require.IsType(t, &ast.SliceExpr{}, fn.Body.Stmts[2].(*ast.VarDecl).Init)
}

func TestParsesCast(t *testing.T) {
	m, sink := parse(t, "f64 widen(i32 n) { return (f64) n; }")
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	require.IsType(t, &ast.CastExpr{}, ret.Value)
}

func TestParsesSizeofOfTypeAndExpr(t *testing.T) {
	m, sink := parse(t, `i32 sizes(i32 n) {
		i32 a = sizeof(i32);
		i32 b = sizeof(n);
		return a + b;
	}`)
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	q1 := fn.Body.Stmts[0].(*ast.VarDecl).Init.(*ast.TypeQueryExpr)
	require.NotNil(t, q1.OperandT)
	q2 := fn.Body.Stmts[1].(*ast.VarDecl).Init.(*ast.TypeQueryExpr)
	require.NotNil(t, q2.Operand)
}

func TestParsesStaticAssert(t *testing.T) {
	m, sink := parse(t, `static_assert(sizeof(i32) == 4, "i32 must be 4 bytes");`)
	require.False(t, sink.HasErrors())
	d := m.Decls[0].(*ast.StaticAssertDecl)
	require.Equal(t, "i32 must be 4 bytes", d.Message)
}

func TestParsesRegionDecl(t *testing.T) {
	m, sink := parse(t, `region scratch { capacity: 1024 } {
		i32 x = 0;
	}`)
	require.False(t, sink.HasErrors())
	d := m.Decls[0].(*ast.RegionDecl)
	require.Equal(t, "scratch", d.DeclName())
	cap := d.Capacity.(*ast.IntLit)
	require.Equal(t, int64(1024), cap.Value)
	require.Len(t, d.Body.Stmts, 1)
}

func TestParsesAttributesOnFunction(t *testing.T) {
	m, sink := parse(t, "pure must_use i32 square(i32 n) { return n * n; }")
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	require.True(t, fn.Attrs.Pure)
	require.True(t, fn.Attrs.MustUse)
}

func TestParsesMethodDefinition(t *testing.T) {
	m, sink := parse(t, "i32 Point::sum() { return 0; }")
	require.False(t, sink.HasErrors())
	fn := m.Decls[0].(*ast.FuncDecl)
	require.Equal(t, "sum", fn.DeclName())
	require.Equal(t, "Point", fn.Attrs.MethodOwner)
}

func TestParsesNewtypeAndTypedef(t *testing.T) {
	m, sink := parse(t, "newtype UserId = i32;\ntypedef i32 Count;")
	require.False(t, sink.HasErrors())
	nt := m.Decls[0].(*ast.NewtypeDecl)
	require.Equal(t, "UserId", nt.DeclName())
	ta := m.Decls[1].(*ast.TypeAliasDecl)
	require.Equal(t, "Count", ta.DeclName())
}

func TestParseErrorRecoversAndContinues(t *testing.T) {
	m, sink := parse(t, "i32 broken = ;\ni32 ok() { return 1; }")
	require.True(t, sink.HasErrors())
	var names []string
	for _, d := range m.Decls {
		names = append(names, d.DeclName())
	}
	require.Contains(t, names, "ok")
}
