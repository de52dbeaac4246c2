// Package assert holds the compiler's internal invariant checks: things
// that must be true for the front end's own logic to be correct,
// distinct from diagnostics, which report what's wrong with the user's
// source. A failing assertion is a compiler bug, not a SafeC error, so
// it panics rather than going through internal/diagnostic.
package assert

import "fmt"

// That panics with msg if cond is false.
func That(cond bool, msg string) {
	if !cond {
		panic("assert: " + msg)
	}
}

// Never panics unconditionally, for a branch that should be
// unreachable given the caller's own invariants (an exhaustive type
// switch's default case, for instance).
func Never(msg string) {
	panic("assert: unreachable: " + msg)
}

// NoError panics if err is non-nil, for an operation the caller has
// already proven cannot fail (e.g. looking up a symbol this same pass
// just registered).
func NoError(err error, context string) {
	if err != nil {
		panic(fmt.Sprintf("assert: %s: %v", context, err))
	}
}
