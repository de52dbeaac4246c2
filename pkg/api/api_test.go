package api_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safec-lang/safecc/internal/testutil"
	"github.com/safec-lang/safecc/pkg/api"
)

func TestCompileCleanSourceIsValid(t *testing.T) {
	result := api.Compile(`
i32 add(i32 a, i32 b) {
	return a + b;
}
`, api.Options{Path: "clean.sc"})

	require.True(t, result.Valid)
	require.NotNil(t, result.Module)
}

func TestCompileReportsUndeclaredIdentifier(t *testing.T) {
	result := api.Compile(`
i32 run() {
	return missing;
}
`, api.Options{Path: "bad.sc"})

	require.False(t, result.Valid)

	var found bool
	for _, d := range result.Diagnostics {
		if d.Message == `use of undeclared identifier "missing"` {
			found = true
		}
	}
	require.True(t, found, "expected an undeclared-identifier diagnostic, got %+v", result.Diagnostics)
}

func TestCompileNoSemaSkipsAnalysis(t *testing.T) {
	result := api.Compile(`
i32 run() {
	return missing;
}
`, api.Options{Path: "bad.sc", NoSema: true})

	require.True(t, result.Valid, "parsing alone should not report the undeclared identifier")
}

func TestCompileNoConstevalSkipsStaticAssert(t *testing.T) {
	result := api.Compile(`
static_assert(1 == 2, "never true");
`, api.Options{Path: "assert.sc", NoConsteval: true})

	require.True(t, result.Valid, "static_assert should not run with const-eval disabled")
}

func TestCompileStaticAssertFailureIsReported(t *testing.T) {
	result := api.Compile(`
static_assert(1 == 2, "never true");
`, api.Options{Path: "assert.sc"})

	require.False(t, result.Valid)
}

func TestCompileUnresolvableIncludeIsAnError(t *testing.T) {
	result := api.Compile(`
#include "missing.h"
`, api.Options{Path: "inc.sc"})

	require.False(t, result.Valid)
}

func TestCompileDumpIsDeterministicAcrossRuns(t *testing.T) {
	const src = `
i32 add(i32 a, i32 b) {
	return a + b;
}
i32 sub(i32 a, i32 b) {
	return a - b;
}
`
	first := testutil.Compile(t, src, api.Options{})
	second := testutil.Compile(t, src, api.Options{})
	require.True(t, first.Valid)
	require.True(t, second.Valid)

	var firstDump, secondDump strings.Builder
	first.Module.Dump(&firstDump)
	second.Module.Dump(&secondDump)

	testutil.RequireEqualText(t, firstDump.String(), secondDump.String())
	require.Contains(t, firstDump.String(), "(func add")
	require.Contains(t, firstDump.String(), "(func sub")
}
