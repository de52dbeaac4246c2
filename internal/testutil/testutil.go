// Package testutil provides shared test fixtures for SafeC's compiler
// packages: a one-call "compile this source and hand me the result"
// helper, and a unified diff for comparing multi-line expected/actual
// output (AST dumps, rendered diagnostics).
//
// Adapted from the teacher's internal/testutil (a hand-rolled line-by-line
// differ and generic-comparable assertion wrapper written in esbuild's
// testing style); the assertion wrappers are dropped in favor of
// stretchr/testify's require, which the rest of the module already uses
// for every other _test.go file, and the hand-rolled diff loop is replaced
// by pmezard/go-difflib, a dependency the teacher's go.mod already carries
// but that nothing in the original codebase ever imported.
package testutil

import (
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"

	"github.com/safec-lang/safecc/pkg/api"
)

// Compile runs api.Compile over src with path "t.sc" and requires that it
// produced a non-nil module, regardless of whether analysis reported
// diagnostics (callers that care about validity check result.Valid or
// result.Diagnostics themselves).
func Compile(t *testing.T, src string, opts api.Options) *api.Result {
	t.Helper()
	if opts.Path == "" {
		opts.Path = "t.sc"
	}
	result := api.Compile(src, opts)
	require.NotNil(t, result.Module)
	return result
}

// UnifiedDiff renders a unified diff between expected and actual, for
// failure messages comparing multi-line output such as an AST dump or a
// rendered diagnostic listing.
func UnifiedDiff(expected, actual string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "(failed to compute diff: " + err.Error() + ")"
	}
	return text
}

// RequireEqualText fails the test with a unified diff if expected and
// actual differ, instead of testify's default single-line truncation —
// useful for whole-module dumps where the line that differs matters more
// than the unreadable single-line escape testify would otherwise print.
func RequireEqualText(t *testing.T, expected, actual string) {
	t.Helper()
	if expected != actual {
		t.Errorf("text mismatch:\n%s", UnifiedDiff(expected, actual))
	}
}
