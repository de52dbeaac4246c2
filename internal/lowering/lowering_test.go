package lowering_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safec-lang/safecc/internal/lowering"
	"github.com/safec-lang/safecc/internal/testutil"
	"github.com/safec-lang/safecc/pkg/api"
)

func lowerSource(t *testing.T, src string) *lowering.Program {
	t.Helper()
	result := testutil.Compile(t, src, api.Options{Lower: true})
	require.True(t, result.Valid, "source should analyze cleanly: %+v", result.Diagnostics)
	require.NotNil(t, result.Lowered)
	return result.Lowered
}

func TestLowerPlainFunctionProducesOneFunc(t *testing.T) {
	prog := lowerSource(t, `
i32 add(i32 a, i32 b) {
	return a + b;
}
`)
	require.Len(t, prog.Funcs, 1)
	require.Equal(t, "add", prog.Funcs[0].Name)
}

func TestLowerReferenceParamIsErasedToPointer(t *testing.T) {
	prog := lowerSource(t, `
void bump(&stack mut i32 x) {
	x = x + 1;
}
`)
	require.Len(t, prog.Funcs, 1)
	require.Len(t, prog.Funcs[0].Params, 1)

	p := prog.Funcs[0].Params[0]
	require.NotNil(t, p.Region)
	require.True(t, p.Mutable)
}

func TestLowerDeferFiresInReverseOrderBeforeReturn(t *testing.T) {
	prog := lowerSource(t, `
void close(i32 fd) {}

i32 run() {
	defer close(1);
	defer close(2);
	return 0;
}
`)
	require.Len(t, prog.Funcs, 2)

	var run *lowering.Func
	for _, fn := range prog.Funcs {
		if fn.Name == "run" {
			run = fn
		}
	}
	require.NotNil(t, run)
	require.Len(t, run.Body.Stmts, 3, "two reversed defer calls plus the return")

	_, isCall1 := run.Body.Stmts[0].(*lowering.Call)
	_, isCall2 := run.Body.Stmts[1].(*lowering.Call)
	_, isReturn := run.Body.Stmts[2].(*lowering.Return)
	require.True(t, isCall1)
	require.True(t, isCall2)
	require.True(t, isReturn)
}

func TestLowerIfConstCollapsesToTakenArm(t *testing.T) {
	prog := lowerSource(t, `
i32 pick() {
	if const (1 == 1) {
		return 1;
	} else {
		return 2;
	}
}
`)
	require.Len(t, prog.Funcs, 1)
	body := prog.Funcs[0].Body

	// A taken `if const` lowers directly to its arm's statements, never
	// to an *lowering.If node.
	for _, s := range body.Stmts {
		_, isIf := s.(*lowering.If)
		require.False(t, isIf, "if const must not survive lowering as a conditional")
	}
	require.Len(t, body.Stmts, 1)
	ret, ok := body.Stmts[0].(*lowering.Return)
	require.True(t, ok)
	require.NotNil(t, ret.Value)
}

func TestLowerDynamicArrayIndexEmitsBoundsCheck(t *testing.T) {
	prog := lowerSource(t, `
i32 get(i32[10] arr, i32 i) {
	return arr[i];
}
`)
	require.Len(t, prog.Funcs, 1)
	body := prog.Funcs[0].Body
	require.Len(t, body.Stmts, 2, "a bounds check ahead of the return")

	bc, ok := body.Stmts[0].(*lowering.BoundsCheck)
	require.True(t, ok, "expected a BoundsCheck node, got %T", body.Stmts[0])
	require.Equal(t, lowering.TrapOutOfBounds, bc.Trap)

	_, isReturn := body.Stmts[1].(*lowering.Return)
	require.True(t, isReturn)
}

func TestLowerConstantArrayIndexEmitsNoBoundsCheck(t *testing.T) {
	prog := lowerSource(t, `
i32 get(i32[10] arr) {
	return arr[0];
}
`)
	require.Len(t, prog.Funcs, 1)
	body := prog.Funcs[0].Body
	require.Len(t, body.Stmts, 1, "a literal index needs no runtime guard")

	_, isReturn := body.Stmts[0].(*lowering.Return)
	require.True(t, isReturn)
}

func TestLowerOrdinaryIfProducesTwoArms(t *testing.T) {
	prog := lowerSource(t, `
i32 pick(i32 x) {
	if (x > 0) {
		return 1;
	} else {
		return 0;
	}
}
`)
	require.Len(t, prog.Funcs, 1)
	body := prog.Funcs[0].Body
	require.Len(t, body.Stmts, 1)

	ifNode, ok := body.Stmts[0].(*lowering.If)
	require.True(t, ok)
	require.NotEmpty(t, ifNode.Then.Stmts)
	require.NotEmpty(t, ifNode.Else.Stmts)
}
