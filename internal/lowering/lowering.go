// Package lowering implements the lowering gateway (spec.md's "Lowering
// Gateway": the single boundary between the fully-typed AST sema produces
// and whatever consumes a simpler, already-desugared tree next). It never
// changes program behavior; it only removes source-level constructs that
// have no meaning past analysis:
//
//   - references are erased to raw pointers, carrying the region/mutable/
//     nullable facts sema proved as separate attributes instead of as
//     part of the type;
//   - a bounds-check request becomes an explicit conditional trap node;
//   - `if const` collapses to whichever arm sema's const-eval selected;
//   - defers expand into explicit calls, inserted in reverse registration
//     order at every exit from the block that registered them;
//   - match lowers to a compare cascade (tagged-union arms compare the
//     discriminant tag; numeric arms compare the scrutinee directly);
//   - a zero-capture closure rewrites to a top-level function plus an
//     (empty, for now — the core only accepts zero-capture closures)
//     capture struct, giving every closure the same calling shape whether
//     or not a future core relaxes the zero-capture restriction.
//
// Grounded on internal/ast/dump.go's walk-and-rebuild structure (itself
// adapted from the teacher's WGSL printer, which walked the same AST to
// emit text instead of a second tree) and on internal/sema/flow.go's
// block/defer/always-returns reasoning, mined from the teacher's
// internal/dce reaching-control-flow-join idiom.
package lowering

import (
	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/types"
)

// Program is the output of one Lower call: every function's lowered
// body, plus the synthetic top-level functions generated for closures
// encountered along the way.
type Program struct {
	Funcs    []*Func
	Closures []*Func
}

// Func is one lowered function body.
type Func struct {
	Name   string
	Params []Param
	Return types.Type
	Body   *Block

	// CaptureStruct is non-nil only for a function synthesized from a
	// closure; it is always empty today since the core accepts no
	// captures, but exists so a future core that relaxes the
	// zero-capture restriction only has to populate its fields, not
	// introduce a new calling convention.
	CaptureStruct *types.StructType
}

// Param is a lowered parameter: its type has already had every
// reference erased to a pointer.
type Param struct {
	Name string
	Type types.Type
	// Region/Mutable/Nullable carry what the erased reference used to
	// encode in its type, for a backend that still wants to use them
	// (e.g. to pick an alignment, or to omit a null check).
	Region   *types.Region
	Mutable  bool
	Nullable bool
}

// Node is the tagged-variant interface for every lowered statement.
type Node interface{ loweredNode() }

type nodeBase struct{}

func (nodeBase) loweredNode() {}

// Block is a lowered statement sequence; defers registered in it have
// already been expanded into explicit calls at each of its exits.
type Block struct {
	nodeBase
	Stmts []Node
}

// ExprStmt wraps a bare expression statement.
type ExprStmt struct {
	nodeBase
	X ast.Expr
}

// Return is a lowered `return`, with any deferred calls belonging to
// every block it exits through already spliced in before it.
type Return struct {
	nodeBase
	Value ast.Expr
}

// If is a lowered conditional; always exactly two arms (Else is an
// empty *Block when the source had none), since `if const` never
// reaches this node — it is resolved to a single arm during lowering.
type If struct {
	nodeBase
	Cond Expr
	Then *Block
	Else *Block
}

// Expr aliases ast.Expr for lowered nodes that still carry an
// already-typed source expression verbatim (conditions, call arguments):
// lowering changes control structure and type representation, not
// expression shape.
type Expr = ast.Expr

// Loop is a lowered while/for loop; both source forms share this shape
// since nothing downstream of lowering needs to distinguish them. A for
// loop's Init is emitted ahead of the Loop (the two wrapped in a Block)
// and its Post is kept in Post.
type Loop struct {
	nodeBase
	Cond Expr
	Body *Block
	Post Node // nil for a while loop
}

// BoundsCheck wraps an index operation sema flagged as not proven
// in-bounds: `index >= 0 && index < len` fails into Trap, otherwise
// control falls through to evaluating the index normally. spec.md's
// "conditional trap node" is this node, not a call to a runtime
// function — trapping is a control-transfer primitive, not a callable.
type BoundsCheck struct {
	nodeBase
	Index  Expr
	Length Expr
	Trap   TrapKind
}

// TrapKind identifies why a BoundsCheck (or, later, other proof
// obligations) traps.
type TrapKind int

const (
	TrapOutOfBounds TrapKind = iota
	TrapNullDeref
)

func (k TrapKind) String() string {
	switch k {
	case TrapOutOfBounds:
		return "out-of-bounds"
	case TrapNullDeref:
		return "null-dereference"
	}
	return "trap"
}

// Call is an explicit call node, used for both ordinary call statements
// and defer-expanded thunks (the two are indistinguishable once
// lowered — a defer is nothing but a call moved to every exit point).
type Call struct {
	nodeBase
	X ast.Expr // the underlying *ast.CallExpr, unchanged
}

// VarDecl is a lowered local variable declaration; its type has already
// had references erased.
type VarDecl struct {
	nodeBase
	Name string
	Type types.Type
	Init ast.Expr
}

// Gateway lowers one module's function bodies.
type Gateway struct {
	pool     *types.Pool
	prog     *Program
	closureN int
}

// NewGateway creates a lowering pass that interns erased reference
// types through pool (the same pool sema built the module's types in,
// so an erased pointer to struct Foo remains comparable with every
// other pointer-to-Foo produced anywhere else in the translation unit).
func NewGateway(pool *types.Pool) *Gateway {
	return &Gateway{pool: pool, prog: &Program{}}
}

// Lower runs the gateway over every function (including stitched
// methods) in module and returns the resulting program.
func (g *Gateway) Lower(module *ast.Module) *Program {
	for _, d := range module.Decls {
		fn, ok := d.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		g.prog.Funcs = append(g.prog.Funcs, g.lowerFunc(fn))
	}
	return g.prog
}

func (g *Gateway) lowerFunc(fn *ast.FuncDecl) *Func {
	var params []Param
	for i, p := range fn.Params {
		var srcType types.Type
		if fn.Symbol != nil && fn.Symbol.FuncType != nil && i < len(fn.Symbol.FuncType.Params) {
			srcType = fn.Symbol.FuncType.Params[i].Type
		}
		params = append(params, lowerParam(p.Name, srcType))
	}
	var ret types.Type
	if fn.Symbol != nil && fn.Symbol.FuncType != nil {
		ret = EraseReferences(fn.Symbol.FuncType.Return)
	}
	return &Func{
		Name:   fn.DeclName(),
		Params: params,
		Return: ret,
		Body:   g.lowerBlock(fn.Body),
	}
}

func lowerParam(name string, t types.Type) Param {
	p := Param{Name: name, Type: EraseReferences(t)}
	if rt, ok := t.(*types.ReferenceType); ok {
		r := rt.Region
		p.Region = &r
		p.Mutable = rt.Mutable
		p.Nullable = rt.Nullable
	}
	return p
}

// EraseReferences converts every reachable *types.ReferenceType into a
// *types.PointerType, discarding the region/mutability/nullability facts
// that only mattered for sema's own checks (spec.md: "region metadata
// erasure"). Every other type is returned unchanged.
func EraseReferences(t types.Type) types.Type {
	switch n := t.(type) {
	case *types.ReferenceType:
		return &types.PointerType{Elem: EraseReferences(n.Elem), Const: !n.Mutable}
	case *types.PointerType:
		return &types.PointerType{Elem: EraseReferences(n.Elem), Const: n.Const}
	case *types.ArrayType:
		cp := *n
		cp.Elem = EraseReferences(n.Elem)
		return &cp
	case *types.SliceType:
		return &types.SliceType{Elem: EraseReferences(n.Elem)}
	default:
		return t
	}
}

func (g *Gateway) lowerBlock(b *ast.Block) *Block {
	return g.lowerBlockWithStack(b, nil)
}

// lowerBlockWithStack lowers b's statements, threading stack — the
// defer calls registered by enclosing blocks that are still active at
// this point — through every nested block so a `return` buried inside
// an `if` or loop still fires all of them, innermost-first.
func (g *Gateway) lowerBlockWithStack(b *ast.Block, stack []ast.Expr) *Block {
	local := stack
	out := &Block{}
	registeredHere := len(stack)
	for _, s := range b.Stmts {
		switch n := s.(type) {
		case *ast.DeferStmt:
			local = append(local, n.Call)
		case *ast.ReturnStmt:
			out.Stmts = append(out.Stmts, flushDefers(local)...)
			var val ast.Expr
			if n.Value != nil {
				val = g.hoistClosuresInExpr(n.Value)
				out.Stmts = append(out.Stmts, g.collectBoundsChecks(val)...)
			}
			out.Stmts = append(out.Stmts, &Return{Value: val})
		default:
			node := g.lowerSingleStmt(s, local)
			if ifs, ok := s.(*ast.IfStmt); ok && ifs.Const && ifs.ConstTaken != nil {
				if arm, ok := node.(*Block); ok {
					out.Stmts = append(out.Stmts, arm.Stmts...)
					continue
				}
			}
			out.Stmts = append(out.Stmts, node)
		}
	}
	// A block ending in a return already ran its defers there; it has no
	// fall-through exit left to flush at.
	if k := len(b.Stmts); k > 0 {
		if _, ok := b.Stmts[k-1].(*ast.ReturnStmt); ok {
			return out
		}
	}
	out.Stmts = append(out.Stmts, flushDefers(local[registeredHere:])...)
	return out
}

func (g *Gateway) lowerStmt(s ast.Stmt, stack []ast.Expr) Node {
	switch n := s.(type) {
	case *ast.ExprStmt:
		return g.lowerExprStmt(n)
	case *ast.VarDecl:
		var declType types.Type
		if n.Symbol != nil {
			declType = EraseReferences(n.Symbol.VarType)
		}
		var init ast.Expr
		if n.Init != nil {
			init = g.hoistClosuresInExpr(n.Init)
		}
		return &VarDecl{Name: n.Name, Type: declType, Init: init}
	case *ast.Block:
		return g.lowerBlockWithStack(n, stack)
	case *ast.IfStmt:
		return g.lowerIf(n, stack)
	case *ast.WhileStmt:
		return &Loop{Cond: n.Cond, Body: g.lowerBlockWithStack(n.Body, stack)}
	case *ast.ForStmt:
		body := g.lowerBlockWithStack(n.Body, stack)
		var post Node
		if n.Post != nil {
			post = &ExprStmt{X: n.Post}
		}
		loop := &Loop{Cond: n.Cond, Body: body, Post: post}
		if n.Init == nil {
			return loop
		}
		stmts := []Node{g.lowerSingleStmt(n.Init, stack)}
		if n.Cond != nil {
			stmts = append(stmts, g.collectBoundsChecks(n.Cond)...)
		}
		return &Block{Stmts: append(stmts, loop)}
	case *ast.MatchStmt:
		return g.lowerMatch(n.Subject, n.Arms, stack)
	case *ast.UnsafeStmt:
		return g.lowerBlockWithStack(n.Body, stack)
	case *ast.SpawnStmt:
		return &Call{X: n.Call}
	case *ast.BreakStmt, *ast.ContinueStmt, *ast.StaticAssertStmt:
		// break/continue carry no lowering work of their own; a static
		// assertion has already been discharged by const-eval and has no
		// runtime representation.
		return &Block{}
	default:
		return &Block{}
	}
}

func (g *Gateway) lowerExprStmt(n *ast.ExprStmt) Node {
	x := g.hoistClosuresInExpr(n.X)
	if ce, ok := x.(*ast.CallExpr); ok {
		return &Call{X: ce}
	}
	return &ExprStmt{X: x}
}

// lowerIf resolves a `if const` to whichever single arm sema's
// const-eval already selected (recorded in n.ConstTaken), and lowers an
// ordinary `if`/`else` to a two-armed If node.
func (g *Gateway) lowerIf(n *ast.IfStmt, stack []ast.Expr) Node {
	if n.Const && n.ConstTaken != nil {
		if *n.ConstTaken {
			return g.lowerBlockWithStack(n.Then, stack)
		}
		return g.lowerElse(n.Else, stack)
	}
	return &If{
		Cond: n.Cond,
		Then: g.lowerBlockWithStack(n.Then, stack),
		Else: g.lowerElseBlock(n.Else, stack),
	}
}

func (g *Gateway) lowerElse(e ast.Stmt, stack []ast.Expr) Node {
	if e == nil {
		return &Block{}
	}
	return g.lowerSingleStmt(e, stack)
}

func (g *Gateway) lowerElseBlock(e ast.Stmt, stack []ast.Expr) *Block {
	switch n := g.lowerElse(e, stack).(type) {
	case *Block:
		return n
	default:
		return &Block{Stmts: []Node{n}}
	}
}
