package assert_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safec-lang/safecc/internal/safecc/assert"
)

func TestThatPassesWhenConditionHolds(t *testing.T) {
	require.NotPanics(t, func() { assert.That(true, "should not fire") })
}

func TestThatPanicsWhenConditionFails(t *testing.T) {
	require.PanicsWithValue(t, "assert: bad state", func() { assert.That(false, "bad state") })
}

func TestNeverAlwaysPanics(t *testing.T) {
	require.Panics(t, func() { assert.Never("unreachable branch") })
}

func TestNoErrorPassesThroughNil(t *testing.T) {
	require.NotPanics(t, func() { assert.NoError(nil, "lookup") })
}

func TestNoErrorPanicsOnNonNil(t *testing.T) {
	require.Panics(t, func() { assert.NoError(errors.New("boom"), "lookup") })
}
