package preprocessor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/preprocessor"
	"github.com/safec-lang/safecc/internal/sourcepos"
)

func newPP(t *testing.T, mode preprocessor.Mode) (*preprocessor.Preprocessor, *diagnostic.Sink, sourcepos.FileID, *sourcepos.Map) {
	t.Helper()
	files := sourcepos.NewMap()
	id := files.AddFile("t.sc", "")
	sink := diagnostic.NewSink(files)
	return preprocessor.New(mode, nil, sink, files), sink, id, files
}

func TestObjectLikeMacroExpandsInSafeMode(t *testing.T) {
	pp, sink, id, _ := newPP(t, preprocessor.SafeMode)
	out := pp.Process(id, "t.sc", "#define N 42\nint x = N;\n")
	require.False(t, sink.HasErrors())
	require.Contains(t, out, "int x = 42;")
}

func TestFunctionLikeMacroRejectedInSafeMode(t *testing.T) {
	pp, sink, id, _ := newPP(t, preprocessor.SafeMode)
	pp.Process(id, "t.sc", "#define SQ(x) ((x)*(x))\n")
	require.True(t, sink.HasErrors())
}

func TestFunctionLikeMacroExpandsInCompatMode(t *testing.T) {
	pp, sink, id, _ := newPP(t, preprocessor.CompatMode)
	out := pp.Process(id, "t.sc", "#define SQ(x) ((x)*(x))\nint y = SQ(3);\n")
	require.False(t, sink.HasErrors())
	require.Contains(t, out, "((3)*(3))")
}

func TestIfDefControlsInclusion(t *testing.T) {
	pp, _, id, _ := newPP(t, preprocessor.SafeMode)
	out := pp.Process(id, "t.sc", "#define FOO\n#ifdef FOO\nint a;\n#else\nint b;\n#endif\n")
	require.Contains(t, out, "int a;")
	require.NotContains(t, out, "int b;")
}

func TestIfUndefinedMacroTreatedAsZeroWithWarning(t *testing.T) {
	pp, sink, id, _ := newPP(t, preprocessor.SafeMode)
	out := pp.Process(id, "t.sc", "#if UNDEFINED_MACRO\nint a;\n#else\nint b;\n#endif\n")
	require.Contains(t, out, "int b;")
	require.False(t, sink.HasErrors())
	found := false
	for _, d := range sink.Diagnostics() {
		if d.Category == diagnostic.CategoryPreprocessor {
			found = true
		}
	}
	require.True(t, found)
}

func TestStrictUndefinedPromotesToError(t *testing.T) {
	pp, sink, id, _ := newPP(t, preprocessor.SafeMode)
	pp.SetStrictUndefined(true)
	pp.Process(id, "t.sc", "#if UNDEFINED_MACRO\nint a;\n#endif\n")
	require.True(t, sink.HasErrors())
}

func TestUnterminatedIfIsReported(t *testing.T) {
	pp, sink, id, _ := newPP(t, preprocessor.SafeMode)
	pp.Process(id, "t.sc", "#if 1\nint a;\n")
	require.True(t, sink.HasErrors())
}

func TestMismatchedElseIsReported(t *testing.T) {
	pp, sink, id, _ := newPP(t, preprocessor.SafeMode)
	pp.Process(id, "t.sc", "#else\n")
	require.True(t, sink.HasErrors())
}

func TestFileAndLineSubstitution(t *testing.T) {
	pp, _, id, _ := newPP(t, preprocessor.SafeMode)
	out := pp.Process(id, "t.sc", "const char* f = __FILE__;\nint l = __LINE__;\n")
	require.True(t, strings.Contains(out, `"t.sc"`))
	require.Contains(t, out, "int l = 2;")
}

func TestDeterministicForIdenticalInput(t *testing.T) {
	run := func() string {
		pp, _, id, _ := newPP(t, preprocessor.SafeMode)
		return pp.Process(id, "t.sc", "#define N 7\nint x = N;\n")
	}
	require.Equal(t, run(), run())
}

func TestDefinedOperatorInConditional(t *testing.T) {
	pp, _, id, _ := newPP(t, preprocessor.SafeMode)
	out := pp.Process(id, "t.sc", "#define FOO\n#if defined(FOO)\nint a;\n#endif\n")
	require.Contains(t, out, "int a;")
}

func TestErrorDirectiveEmitsDiagnostic(t *testing.T) {
	pp, sink, id, _ := newPP(t, preprocessor.SafeMode)
	pp.Process(id, "t.sc", "#error boom\n")
	require.True(t, sink.HasErrors())
}
