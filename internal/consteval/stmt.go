package consteval

import (
	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/sourcepos"
)

type ctrlKind uint8

const (
	ctrlNone ctrlKind = iota
	ctrlReturn
	ctrlBreak
	ctrlContinue
)

type ctrlSignal struct {
	kind  ctrlKind
	label string
}

// evalBlock executes every statement of b in sequence, short-circuiting
// on the first non-ctrlNone control signal or evaluation failure. It
// returns the function's return value when a ctrlReturn signal reaches
// the end of a function body's top-level block.
func (e *Evaluator) evalBlock(b *ast.Block, f *frame, scope *ast.Scope) (Value, ctrlSignal, bool) {
	for _, s := range b.Stmts {
		v, ctrl, ok := e.evalStmt(s, f, scope)
		if !ok {
			return Value{}, ctrlSignal{}, false
		}
		if ctrl.kind != ctrlNone {
			return v, ctrl, true
		}
	}
	return Value{}, ctrlSignal{}, true
}

func (e *Evaluator) evalStmt(s ast.Stmt, f *frame, scope *ast.Scope) (Value, ctrlSignal, bool) {
	if !e.step(f, s.Span().Start) {
		return Value{}, ctrlSignal{}, false
	}
	switch n := s.(type) {
	case *ast.ExprStmt:
		if _, ok := e.evalExpr(n.X, f, scope); !ok {
			return Value{}, ctrlSignal{}, false
		}
		return Value{}, ctrlSignal{}, true

	case *ast.Block:
		return e.evalBlock(n, f, scope)

	case *ast.VarDecl:
		if n.Symbol == nil {
			e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start, "%q was not resolved by analysis", n.Name)
			return Value{}, ctrlSignal{}, false
		}
		if n.Init != nil {
			v, ok := e.evalExpr(n.Init, f, scope)
			if !ok {
				return Value{}, ctrlSignal{}, false
			}
			f.env[n.Symbol] = v
		}
		return Value{}, ctrlSignal{}, true

	case *ast.IfStmt:
		cond, ok := e.evalExpr(n.Cond, f, scope)
		if !ok {
			return Value{}, ctrlSignal{}, false
		}
		if cond.Kind != KindBool {
			e.diags.Errorf(diagnostic.CategoryConstEval, n.Span().Start, "if condition is not a constant boolean")
			return Value{}, ctrlSignal{}, false
		}
		if cond.Bool {
			return e.evalBlock(n.Then, f, scope)
		}
		switch elseB := n.Else.(type) {
		case *ast.Block:
			return e.evalBlock(elseB, f, scope)
		case *ast.IfStmt:
			return e.evalStmt(elseB, f, scope)
		}
		return Value{}, ctrlSignal{}, true

	case *ast.WhileStmt:
		for {
			cond, ok := e.evalExpr(n.Cond, f, scope)
			if !ok {
				return Value{}, ctrlSignal{}, false
			}
			if cond.Kind != KindBool || !cond.Bool {
				break
			}
			if !e.countLoopIteration(f, n.Span().Start) {
				return Value{}, ctrlSignal{}, false
			}
			v, ctrl, ok := e.evalBlock(n.Body, f, scope)
			if !ok {
				return Value{}, ctrlSignal{}, false
			}
			if ctrl.kind == ctrlReturn {
				return v, ctrl, true
			}
			if ctrl.kind == ctrlBreak && (ctrl.label == "" || ctrl.label == n.Label) {
				break
			}
			if ctrl.kind == ctrlBreak {
				return v, ctrl, true
			}
			if ctrl.kind == ctrlContinue && ctrl.label != "" && ctrl.label != n.Label {
				return v, ctrl, true
			}
		}
		return Value{}, ctrlSignal{}, true

	case *ast.ForStmt:
		if n.Init != nil {
			if _, _, ok := e.evalStmt(n.Init, f, scope); !ok {
				return Value{}, ctrlSignal{}, false
			}
		}
		for {
			if n.Cond != nil {
				cond, ok := e.evalExpr(n.Cond, f, scope)
				if !ok {
					return Value{}, ctrlSignal{}, false
				}
				if cond.Kind != KindBool || !cond.Bool {
					break
				}
			}
			if !e.countLoopIteration(f, n.Span().Start) {
				return Value{}, ctrlSignal{}, false
			}
			v, ctrl, ok := e.evalBlock(n.Body, f, scope)
			if !ok {
				return Value{}, ctrlSignal{}, false
			}
			if ctrl.kind == ctrlReturn {
				return v, ctrl, true
			}
			if ctrl.kind == ctrlBreak && (ctrl.label == "" || ctrl.label == n.Label) {
				break
			}
			if ctrl.kind == ctrlBreak {
				return v, ctrl, true
			}
			if ctrl.kind == ctrlContinue && ctrl.label != "" && ctrl.label != n.Label {
				return v, ctrl, true
			}
			if n.Post != nil {
				if _, ok := e.evalExpr(n.Post, f, scope); !ok {
					return Value{}, ctrlSignal{}, false
				}
			}
		}
		return Value{}, ctrlSignal{}, true

	case *ast.ReturnStmt:
		if n.Value == nil {
			return Value{}, ctrlSignal{kind: ctrlReturn}, true
		}
		v, ok := e.evalExpr(n.Value, f, scope)
		if !ok {
			return Value{}, ctrlSignal{}, false
		}
		return v, ctrlSignal{kind: ctrlReturn}, true

	case *ast.BreakStmt:
		return Value{}, ctrlSignal{kind: ctrlBreak, label: n.Label}, true

	case *ast.ContinueStmt:
		return Value{}, ctrlSignal{kind: ctrlContinue, label: n.Label}, true

	case *ast.StaticAssertStmt:
		ok := e.EvalStaticAssertCondition(n.Cond, n.Message, scope)
		return Value{}, ctrlSignal{}, ok

	default:
		e.diags.Errorf(diagnostic.CategoryConstEval, s.Span().Start, "statement form is not supported in a const context")
		return Value{}, ctrlSignal{}, false
	}
}

// countLoopIteration enforces spec.md §4.7's per-frame loop iteration
// cap, reporting once at the outermost triggering construct.
func (e *Evaluator) countLoopIteration(f *frame, pos sourcepos.Pos) bool {
	f.loopIters++
	if f.loopIters > e.limits.MaxLoopIterations {
		e.diags.Errorf(diagnostic.CategoryConstEval, pos,
			"const-eval loop exceeded the per-call iteration limit (%d)", e.limits.MaxLoopIterations)
		return false
	}
	return true
}
