package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a deterministic s-expression-style rendering of m's
// declarations, used by the `--dump-ast` CLI flag (SPEC_FULL.md §5).
// Adapted from the teacher's minifying printer: instead of producing
// compact source text, it produces an indented debug tree and never
// round-trips back to source.
func (m *Module) Dump(w io.Writer) {
	for _, d := range m.Decls {
		dumpDecl(w, d, 0)
	}
}

func indent(w io.Writer, depth int) {
	fmt.Fprint(w, strings.Repeat("  ", depth))
}

func dumpDecl(w io.Writer, d Decl, depth int) {
	indent(w, depth)
	switch n := d.(type) {
	case *FuncDecl:
		fmt.Fprintf(w, "(func %s\n", n.DeclName())
		if n.Body != nil {
			dumpStmt(w, n.Body, depth+1)
		}
		indent(w, depth)
		fmt.Fprintln(w, ")")
	case *StructDecl:
		fmt.Fprintf(w, "(struct %s\n", n.DeclName())
		for _, f := range n.Fields {
			indent(w, depth+1)
			fmt.Fprintf(w, "(field %s)\n", f.Name)
		}
		indent(w, depth)
		fmt.Fprintln(w, ")")
	case *EnumDecl:
		fmt.Fprintf(w, "(enum %s\n", n.DeclName())
		for _, e := range n.Enumerators {
			indent(w, depth+1)
			fmt.Fprintf(w, "(enumerator %s)\n", e.Name)
		}
		indent(w, depth)
		fmt.Fprintln(w, ")")
	case *RegionDecl:
		fmt.Fprintf(w, "(region %s\n", n.DeclName())
		if n.Body != nil {
			dumpStmt(w, n.Body, depth+1)
		}
		indent(w, depth)
		fmt.Fprintln(w, ")")
	case *GlobalVarDecl:
		fmt.Fprintf(w, "(global %s)\n", n.DeclName())
	case *TypeAliasDecl:
		fmt.Fprintf(w, "(alias %s)\n", n.DeclName())
	case *NewtypeDecl:
		fmt.Fprintf(w, "(newtype %s)\n", n.DeclName())
	case *StaticAssertDecl:
		fmt.Fprintln(w, "(static_assert)")
	default:
		fmt.Fprintln(w, "(decl)")
	}
}

func dumpStmt(w io.Writer, s Stmt, depth int) {
	indent(w, depth)
	switch n := s.(type) {
	case *Block:
		fmt.Fprintln(w, "(block")
		for _, st := range n.Stmts {
			dumpStmt(w, st, depth+1)
		}
		indent(w, depth)
		fmt.Fprintln(w, ")")
	case *ExprStmt:
		fmt.Fprintln(w, "(expr-stmt)")
	case *VarDecl:
		fmt.Fprintf(w, "(var %s)\n", n.Name)
	case *IfStmt:
		label := "if"
		if n.Const {
			label = "if-const"
		}
		fmt.Fprintf(w, "(%s\n", label)
		dumpStmt(w, n.Then, depth+1)
		if n.Else != nil {
			dumpStmt(w, n.Else, depth+1)
		}
		indent(w, depth)
		fmt.Fprintln(w, ")")
	case *WhileStmt:
		fmt.Fprintln(w, "(while")
		dumpStmt(w, n.Body, depth+1)
		indent(w, depth)
		fmt.Fprintln(w, ")")
	case *ForStmt:
		fmt.Fprintln(w, "(for")
		dumpStmt(w, n.Body, depth+1)
		indent(w, depth)
		fmt.Fprintln(w, ")")
	case *ReturnStmt:
		fmt.Fprintln(w, "(return)")
	case *BreakStmt:
		fmt.Fprintln(w, "(break)")
	case *ContinueStmt:
		fmt.Fprintln(w, "(continue)")
	case *DeferStmt:
		fmt.Fprintln(w, "(defer)")
	case *MatchStmt:
		fmt.Fprintf(w, "(match %d-arms)\n", len(n.Arms))
	case *UnsafeStmt:
		label := "unsafe"
		if n.Escape {
			label = "unsafe-escape"
		}
		fmt.Fprintf(w, "(%s\n", label)
		dumpStmt(w, n.Body, depth+1)
		indent(w, depth)
		fmt.Fprintln(w, ")")
	case *StaticAssertStmt:
		fmt.Fprintln(w, "(static_assert)")
	case *SpawnStmt:
		fmt.Fprintln(w, "(spawn)")
	default:
		fmt.Fprintln(w, "(stmt)")
	}
}
