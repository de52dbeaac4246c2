package sema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/lexer"
	"github.com/safec-lang/safecc/internal/parser"
	"github.com/safec-lang/safecc/internal/sema"
	"github.com/safec-lang/safecc/internal/sourcepos"
)

func analyze(t *testing.T, src string) *diagnostic.Sink {
	t.Helper()
	files := sourcepos.NewMap()
	id := files.AddFile("t.sc", src)
	sink := diagnostic.NewSink(files)
	toks := lexer.New(id, src, sink).Tokenize()
	m := parser.New(id, toks, sink).Parse()
	require.False(t, sink.HasErrors(), "parse errors before sema ran")
	sema.Analyze(m, sink, sema.Options{})
	return sink
}

func diagMessages(sink *diagnostic.Sink) []string {
	var out []string
	for _, d := range sink.Diagnostics() {
		out = append(out, d.Message)
	}
	return out
}

func TestValidFunctionAnalyzesCleanly(t *testing.T) {
	sink := analyze(t, `
i32 add(i32 a, i32 b) {
	return a + b;
}
`)
	require.False(t, sink.HasErrors())
}

func TestUndeclaredIdentifierReported(t *testing.T) {
	sink := analyze(t, `
i32 run() {
	return missing;
}
`)
	require.True(t, sink.HasErrors())
	require.Contains(t, diagMessages(sink), `use of undeclared identifier "missing"`)
}

func TestUseOfUninitializedVariableReported(t *testing.T) {
	sink := analyze(t, `
i32 run() {
	i32 x;
	return x;
}
`)
	require.True(t, sink.HasErrors())
}

func TestDefiniteInitAfterIfElseBothBranchesIsClean(t *testing.T) {
	sink := analyze(t, `
i32 run(bool flag) {
	i32 x;
	if (flag) {
		x = 1;
	} else {
		x = 2;
	}
	return x;
}
`)
	require.False(t, sink.HasErrors())
}

func TestDefiniteInitMissingElseBranchIsUninitialized(t *testing.T) {
	sink := analyze(t, `
i32 run(bool flag) {
	i32 x;
	if (flag) {
		x = 1;
	}
	return x;
}
`)
	require.True(t, sink.HasErrors())
}

func TestRedeclarationOfStructReported(t *testing.T) {
	sink := analyze(t, `
struct Point { i32 x; i32 y; }
struct Point { i32 z; }
`)
	require.True(t, sink.HasErrors())
}

func TestFieldAccessOnUnknownFieldReported(t *testing.T) {
	sink := analyze(t, `
struct Point { i32 x; i32 y; }
i32 run() {
	Point p;
	return p.z;
}
`)
	require.True(t, sink.HasErrors())
}

func TestExclusiveBorrowConflictsWithLiveSharedBorrow(t *testing.T) {
	sink := analyze(t, `
i32 run() {
	i32 x = 1;
	&stack i32 a = &x;
	&stack mut i32 b = &x;
	return *a + *b;
}
`)
	require.True(t, sink.HasErrors())
}

func TestStackReferenceCannotBeReturned(t *testing.T) {
	sink := analyze(t, `
&stack i32 dangling() {
	i32 x = 1;
	return &x;
}
`)
	require.True(t, sink.HasErrors())
}

func TestAssignmentRequiringCastIsRejected(t *testing.T) {
	sink := analyze(t, `
i32 run() {
	i64 x = 1;
	i32 y = x;
	return y;
}
`)
	require.True(t, sink.HasErrors())
}

func TestPureFunctionCallingImpureFunctionIsRejected(t *testing.T) {
	sink := analyze(t, `
i32 sideEffecting() {
	return 1;
}
pure i32 callsIt() {
	return sideEffecting();
}
`)
	require.True(t, sink.HasErrors())
}

func TestConstevalWithoutPureIsRejected(t *testing.T) {
	sink := analyze(t, `
consteval i32 compute() {
	return 1;
}
`)
	require.True(t, sink.HasErrors())
}

func TestMustUseDiscardedReturnValueWarns(t *testing.T) {
	sink := analyze(t, `
must_use i32 compute() {
	return 1;
}
void run() {
	compute();
}
`)
	var found bool
	for _, d := range sink.Diagnostics() {
		if d.Category == diagnostic.CategoryAttribute {
			found = true
		}
	}
	require.True(t, found)
}

func TestMismatchedArgumentCountReported(t *testing.T) {
	sink := analyze(t, `
i32 add(i32 a, i32 b) {
	return a + b;
}
i32 run() {
	return add(1);
}
`)
	require.True(t, sink.HasErrors())
}

func TestBreakOutsideLoopReported(t *testing.T) {
	sink := analyze(t, `
void run() {
	break;
}
`)
	require.True(t, sink.HasErrors())
}

func TestLabeledBreakInsideMatchingLoopIsClean(t *testing.T) {
	sink := analyze(t, `
void run() {
	outer: while (true) {
		break outer;
	}
}
`)
	require.False(t, sink.HasErrors())
}

func TestStructOperatorOverloadResolvesBinary(t *testing.T) {
	sink := analyze(t, `
struct Vec2 { i32 x; i32 y; }
Vec2 Vec2::operator_add(Vec2 other) {
	return other;
}
Vec2 run(Vec2 a, Vec2 b) {
	return a + b;
}
`)
	require.False(t, sink.HasErrors())
}

func TestGenericFunctionCallInfersTypeArgumentFromArguments(t *testing.T) {
	sink := analyze(t, `
generic<T: Numeric> T min(T a, T b) {
	return a;
}
i32 run() {
	return min(1, 2);
}
`)
	require.False(t, sink.HasErrors())
}

func TestGenericFunctionConstraintRejectsNonNumericStruct(t *testing.T) {
	sink := analyze(t, `
struct Widget { i32 id; }
generic<T: Numeric> T min(T a, T b) {
	return a;
}
Widget run() {
	Widget a;
	Widget b;
	return min(a, b);
}
`)
	require.True(t, sink.HasErrors())
}

func TestGenericFunctionConstraintAcceptsStructWithOperator(t *testing.T) {
	sink := analyze(t, `
struct Vec2 { i32 x; i32 y; }
Vec2 Vec2::operator_add(Vec2 other) {
	return other;
}
generic<T: Add> T addTwice(T a, T b) {
	return a;
}
Vec2 run(Vec2 a, Vec2 b) {
	return addTwice(a, b);
}
`)
	require.False(t, sink.HasErrors())
}

func TestDuplicateMethodSameSignatureIsAnError(t *testing.T) {
	sink := analyze(t, `
struct Widget { i32 id; }
void Widget::touch() {}
void Widget::touch() {}
`)
	require.True(t, sink.HasErrors())
	msgs := diagMessages(sink)
	found := false
	for _, m := range msgs {
		if m == `method "touch" already declared for type "Widget"` {
			found = true
		}
	}
	require.True(t, found, "expected a duplicate-method diagnostic, got %+v", msgs)
}

func TestDuplicateMethodMismatchedSignatureIsAnError(t *testing.T) {
	sink := analyze(t, `
struct Widget { i32 id; }
void Widget::touch() {}
void Widget::touch(i32 n) {}
`)
	require.True(t, sink.HasErrors())
	msgs := diagMessages(sink)
	found := false
	for _, m := range msgs {
		if m == `method "touch" on "Widget" redeclared with a different signature` {
			found = true
		}
	}
	require.True(t, found, "expected a mismatched-signature diagnostic, got %+v", msgs)
}

func TestDereferenceOfNullableReferenceWithoutProofIsRejected(t *testing.T) {
	sink := analyze(t, `
i32 run(?&stack i32 p) {
	return *p;
}
`)
	require.True(t, sink.HasErrors())
	msgs := diagMessages(sink)
	found := false
	for _, m := range msgs {
		if m == `dereferencing "p" requires proof it is non-null on this path` {
			found = true
		}
	}
	require.True(t, found, "expected a nullability diagnostic, got %+v", msgs)
}

func TestDereferenceOfNonNullableReferenceNeedsNoProof(t *testing.T) {
	sink := analyze(t, `
i32 run(&stack i32 p) {
	return *p;
}
`)
	require.False(t, sink.HasErrors())
}

func TestAssigningInnerStackReferenceToOuterVariableIsRejected(t *testing.T) {
	sink := analyze(t, `
i32 run() {
	&stack i32 p;
	{
		i32 x = 1;
		p = &x;
	}
	return 0;
}
`)
	require.True(t, sink.HasErrors())
}

func TestAssigningSameDepthStackReferenceIsClean(t *testing.T) {
	sink := analyze(t, `
i32 run() {
	i32 x = 1;
	&stack i32 p = &x;
	i32 y = 2;
	p = &y;
	return 0;
}
`)
	require.False(t, sink.HasErrors())
}

func TestPassingHeapReferenceByValueMovesItAndLaterUseIsRejected(t *testing.T) {
	sink := analyze(t, `
void consume(&heap i32 p) {}

i32 run() {
	&heap i32 p = new i32;
	consume(p);
	return *p;
}
`)
	require.True(t, sink.HasErrors())
	msgs := diagMessages(sink)
	found := false
	for _, m := range msgs {
		if m == `use of moved value "p"` {
			found = true
		}
	}
	require.True(t, found, "expected a use-of-moved-value diagnostic, got %+v", msgs)
}
