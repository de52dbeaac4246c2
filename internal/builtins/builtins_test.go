package builtins_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safec-lang/safecc/internal/builtins"
	"github.com/safec-lang/safecc/internal/types"
)

func TestKnownTrait(t *testing.T) {
	require.True(t, builtins.KnownTrait("Numeric"))
	require.True(t, builtins.KnownTrait("Ord"))
	require.False(t, builtins.KnownTrait("Serializable"))
}

func TestSatisfiesPrimitiveNumeric(t *testing.T) {
	i32 := &types.PrimitiveType{Prim: types.I32}
	f64 := &types.PrimitiveType{Prim: types.F64}
	require.True(t, builtins.Satisfies(i32, builtins.TraitNumeric, nil))
	require.True(t, builtins.Satisfies(f64, builtins.TraitNumeric, nil))
}

func TestSatisfiesPrimitiveBitwiseRejectsFloat(t *testing.T) {
	f32 := &types.PrimitiveType{Prim: types.F32}
	require.False(t, builtins.Satisfies(f32, builtins.TraitBitwise, nil))
}

func TestSatisfiesPrimitiveOrdAndEqAlwaysHold(t *testing.T) {
	boolT := &types.PrimitiveType{Prim: types.Bool}
	require.True(t, builtins.Satisfies(boolT, builtins.TraitEq, nil))
	require.True(t, builtins.Satisfies(boolT, builtins.TraitOrd, nil))
}

func TestSatisfiesStructDelegatesToCallback(t *testing.T) {
	st := &types.StructType{Name: "Vec2"}
	calls := map[string]bool{}
	hasOp := func(s *types.StructType, op string) bool {
		calls[op] = true
		return op == "+"
	}
	require.True(t, builtins.Satisfies(st, builtins.TraitAdd, hasOp))
	require.False(t, builtins.Satisfies(st, builtins.TraitSub, hasOp))
	require.True(t, calls["+"])
}

func TestSatisfiesStructWithoutCallbackFails(t *testing.T) {
	st := &types.StructType{Name: "Vec2"}
	require.False(t, builtins.Satisfies(st, builtins.TraitAdd, nil))
}

func TestSatisfiesUnknownTraitIsFalse(t *testing.T) {
	i32 := &types.PrimitiveType{Prim: types.I32}
	require.False(t, builtins.Satisfies(i32, builtins.Trait("Unknown"), nil))
}
