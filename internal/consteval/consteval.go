package consteval

import (
	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/sourcepos"
	"github.com/safec-lang/safecc/internal/types"
)

// Limits are the hard caps spec.md §4.7 requires, enforced per evaluation
// request (recursion, loop iterations) and cumulatively across the whole
// compilation (total steps).
type Limits struct {
	MaxRecursionDepth int
	MaxLoopIterations int // per call frame
	MaxTotalSteps     int // cumulative across the Evaluator's lifetime
}

// DefaultLimits matches spec.md §4.7 exactly.
func DefaultLimits() Limits {
	return Limits{MaxRecursionDepth: 256, MaxLoopIterations: 1_000_000, MaxTotalSteps: 10_000_000}
}

// Evaluator holds the state shared across every const-eval request made
// during one compilation: the cumulative step counter (spec.md §4.7
// "total evaluated steps ≤ 10,000,000" is a per-compilation cap, not
// per-request) and the diagnostic sink evaluation failures report to.
// One Evaluator is created per translation unit and handed to sema, the
// same way sema's own Analyzer is created once per Analyze call.
type Evaluator struct {
	diags       *diagnostic.Sink
	limits      Limits
	totalSteps  int
	capExceeded bool // latched once the cumulative cap is hit, to avoid repeat diagnostics
	disabled    bool // --no-consteval: every entry point reports "could not evaluate" silently
}

// New creates an Evaluator bound to diags, using DefaultLimits.
func New(diags *diagnostic.Sink) *Evaluator {
	return &Evaluator{diags: diags, limits: DefaultLimits()}
}

// NewDisabled creates an Evaluator whose entry points always fail without
// reporting a diagnostic, for `--no-consteval` (spec.md §6): the const-eval
// pass is skipped outright rather than made to always report errors, so
// callers fall back to their "could not evaluate" paths (unresolved enum
// values keep counting up, array lengths go unsized, if const and
// static_assert are left unchecked).
func NewDisabled(diags *diagnostic.Sink) *Evaluator {
	return &Evaluator{diags: diags, limits: DefaultLimits(), disabled: true}
}

// frame is one call's local environment: parameter/local bindings keyed
// by the declaring *ast.Symbol (stable even across shadowing, since every
// declaration gets its own Symbol), plus the loop-iteration counter for
// spec.md §4.7's per-frame cap.
type frame struct {
	env       map[*ast.Symbol]Value
	loopIters int
	depth     int
}

func newFrame(depth int) *frame {
	return &frame{env: make(map[*ast.Symbol]Value), depth: depth}
}

func (e *Evaluator) step(f *frame, pos sourcepos.Pos) bool {
	e.totalSteps++
	if e.totalSteps > e.limits.MaxTotalSteps {
		if !e.capExceeded {
			e.capExceeded = true
			e.diags.Errorf(diagnostic.CategoryConstEval, pos,
				"const-eval exceeded the cumulative step limit (%d) for this compilation", e.limits.MaxTotalSteps)
		}
		return false
	}
	return true
}

// Eval evaluates expr as a standalone constant expression (an array
// length, a static_assert condition, an if const condition, a const
// global/local initializer, an enumerator value). scope resolves
// identifiers that aren't frame-local, i.e. other const globals.
func (e *Evaluator) Eval(expr ast.Expr, scope *ast.Scope) (Value, bool) {
	if e.disabled {
		return Value{}, false
	}
	f := newFrame(0)
	return e.evalExpr(expr, f, scope)
}

// primOf returns the primitive backing t, defaulting to I32 for anything
// that isn't a primitive type (struct/array/etc const values are not
// represented by Value).
func primOf(t types.Type) types.Primitive {
	if pt, ok := t.(*types.PrimitiveType); ok {
		return pt.Prim
	}
	return types.I32
}

func (e *Evaluator) evalExpr(expr ast.Expr, f *frame, scope *ast.Scope) (Value, bool) {
	if !e.step(f, expr.Span().Start) {
		return Value{}, false
	}
	switch n := expr.(type) {
	case *ast.IntLit:
		prim := primOf(n.ResolvedType())
		return IntValue(n.Value, prim), true

	case *ast.FloatLit:
		prim := primOf(n.ResolvedType())
		if prim != types.F32 && prim != types.F64 {
			prim = types.F64
		}
		return FloatValue(n.Value, prim), true

	case *ast.BoolLit:
		return BoolValue(n.Value), true

	case *ast.CharLit:
		return CharValue(n.Value), true

	case *ast.StringLit:
		return StringValue(n.Value), true

	case *ast.Ident:
		return e.evalIdent(n, f, scope)

	case *ast.UnaryOp:
		return e.evalUnary(n, f, scope)

	case *ast.BinaryOp:
		return e.evalBinary(n, f, scope)

	case *ast.AssignExpr:
		return e.evalAssign(n, f, scope)

	case *ast.CallExpr:
		return e.evalCall(n, f, scope)

	case *ast.CastExpr:
		return e.evalCast(n, f, scope)

	default:
		e.diags.Errorf(diagnostic.CategoryConstEval, expr.Span().Start,
			"expression is not a supported constant expression")
		return Value{}, false
	}
}

func (e *Evaluator) evalIdent(n *ast.Ident, f *frame, scope *ast.Scope) (Value, bool) {
	if n.Symbol == nil {
		e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start, "use of unresolved identifier %q in a const context", n.Name)
		return Value{}, false
	}
	if v, ok := f.env[n.Symbol]; ok {
		return v, true
	}
	switch n.Symbol.Kind {
	case ast.SymEnumerator:
		return IntValue(n.Symbol.EnumValue, types.I32), true
	case ast.SymVariable:
		if n.Symbol.Mutable {
			e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start,
				"%q is not a constant and cannot be used in a const context", n.Name)
			return Value{}, false
		}
		if gv, ok := n.Symbol.Decl.(*ast.GlobalVarDecl); ok && gv.Init != nil {
			return e.evalExpr(gv.Init, newFrame(f.depth), scope)
		}
		if vd, ok := n.Symbol.Decl.(*ast.VarDecl); ok && vd.Init != nil {
			return e.evalExpr(vd.Init, newFrame(f.depth), scope)
		}
	}
	e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start,
		"%q is not usable as a constant value here", n.Name)
	return Value{}, false
}

func (e *Evaluator) evalUnary(n *ast.UnaryOp, f *frame, scope *ast.Scope) (Value, bool) {
	if n.Op == "&" {
		e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start,
			"cannot take the address of a value in a const context")
		return Value{}, false
	}
	v, ok := e.evalExpr(n.Operand, f, scope)
	if !ok {
		return Value{}, false
	}
	switch n.Op {
	case "-":
		switch v.Kind {
		case KindInt:
			res := -v.Int
			if overflowedSigned(v.Prim, res) {
				e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start, "negation overflows %s in a const context", v.Prim)
				return Value{}, false
			}
			return truncate(Value{Kind: KindInt, Int: res, Prim: v.Prim}), true
		case KindFloat:
			return FloatValue(-v.Float, v.Prim), true
		}
	case "!":
		if v.Kind == KindBool {
			return BoolValue(!v.Bool), true
		}
	case "~":
		if v.Kind == KindInt {
			return truncate(Value{Kind: KindInt, Int: ^v.Int, Prim: v.Prim}), true
		}
	case "++", "--", "post++", "post--":
		e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start,
			"increment/decrement operators are not supported in a const context")
		return Value{}, false
	}
	e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start, "operator %q is not valid in a const context", n.Op)
	return Value{}, false
}

func (e *Evaluator) evalCast(n *ast.CastExpr, f *frame, scope *ast.Scope) (Value, bool) {
	v, ok := e.evalExpr(n.Value, f, scope)
	if !ok {
		return Value{}, false
	}
	target := primOf(n.ResolvedType())
	switch v.Kind {
	case KindInt:
		if target.IsFloat() {
			return FloatValue(float64(v.Int), target), true
		}
		return truncate(Value{Kind: KindInt, Int: v.Int, Prim: target}), true
	case KindFloat:
		if target.IsFloat() {
			return FloatValue(v.Float, target), true
		}
		return truncate(Value{Kind: KindInt, Int: int64(v.Float), Prim: target}), true
	}
	return v, true
}
