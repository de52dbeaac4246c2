package lowering

import "github.com/safec-lang/safecc/internal/ast"

// flushDefers turns a registered-defer stack into the Call nodes that
// run it, in reverse registration order (spec.md "defer is not a
// coroutine": the last-registered thunk runs first, same as a plain
// stack unwind).
func flushDefers(stack []ast.Expr) []Node {
	if len(stack) == 0 {
		return nil
	}
	calls := make([]Node, len(stack))
	for i, call := range stack {
		calls[len(stack)-1-i] = &Call{X: call}
	}
	return calls
}
