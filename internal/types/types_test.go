package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safec-lang/safecc/internal/types"
)

func TestPrimitivesAreInterned(t *testing.T) {
	pool := types.NewPool()
	a := pool.Primitive(types.I32)
	b := pool.Primitive(types.I32)
	require.Same(t, a, b)
}

func TestStackReferenceNeverEqualsHeapReference(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.Primitive(types.I32)
	stackRef := pool.Reference(i32, types.Region{Kind: types.Stack}, false, false)
	heapRef := pool.Reference(i32, types.Region{Kind: types.Heap}, false, false)
	require.False(t, types.Identical(stackRef, heapRef))
}

func TestNullableReferenceDistinctFromNonNull(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.Primitive(types.I32)
	plain := pool.Reference(i32, types.Region{Kind: types.Stack}, false, false)
	nullable := pool.Reference(i32, types.Region{Kind: types.Stack}, false, true)
	require.False(t, types.Identical(plain, nullable))
}

func TestNominalTypesAreIdentityNotStructural(t *testing.T) {
	pool := types.NewPool()
	a := pool.NewStruct("Point", []types.Field{{Name: "x", Type: pool.Primitive(types.I32)}}, false)
	b := pool.NewStruct("Point", []types.Field{{Name: "x", Type: pool.Primitive(types.I32)}}, false)
	require.False(t, types.Identical(a, b), "two textually identical struct decls must remain distinct types")
	require.True(t, types.Identical(a, a))
}

func TestPackedStructHasNoPadding(t *testing.T) {
	pool := types.NewPool()
	st := pool.NewStruct("Packed", []types.Field{
		{Name: "a", Type: pool.Primitive(types.U8)},
		{Name: "b", Type: pool.Primitive(types.I32)},
	}, true)
	types.ComputeLayout(st)
	require.Equal(t, int64(1), types.AlignOf(st))
	require.Equal(t, int64(0), st.Fields[0].Offset)
	require.Equal(t, int64(1), st.Fields[1].Offset)
	require.Equal(t, int64(5), st.Size)
}

func TestNonPackedStructFollowsCABIPadding(t *testing.T) {
	pool := types.NewPool()
	st := pool.NewStruct("Padded", []types.Field{
		{Name: "a", Type: pool.Primitive(types.U8)},
		{Name: "b", Type: pool.Primitive(types.I32)},
	}, false)
	types.ComputeLayout(st)
	require.Equal(t, int64(0), st.Fields[0].Offset)
	require.Equal(t, int64(4), st.Fields[1].Offset)
	require.Equal(t, int64(8), st.Size)
	require.Equal(t, int64(4), st.Align)
}

func TestFieldOffsetLookupByName(t *testing.T) {
	pool := types.NewPool()
	st := pool.NewStruct("S", []types.Field{
		{Name: "a", Type: pool.Primitive(types.U8)},
		{Name: "b", Type: pool.Primitive(types.I32)},
	}, false)
	off, ok := types.FieldOffset(st, "b")
	require.True(t, ok)
	require.Equal(t, int64(4), off)

	_, ok = types.FieldOffset(st, "nope")
	require.False(t, ok)
}

func TestAssignabilityRejectsImplicitNumericConversion(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.Primitive(types.I32)
	i64 := pool.Primitive(types.I64)
	require.Equal(t, types.AssignRequiresCast, types.CanAssign(i32, i64))
}

func TestAssignabilityAllowsStaticReferenceIntoConstRawPointerWithoutUnsafe(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.Primitive(types.I32)
	staticRef := pool.Reference(i32, types.Region{Kind: types.Static}, false, false)
	rawConst := pool.Pointer(i32, true)
	require.Equal(t, types.AssignOK, types.CanAssign(staticRef, rawConst))
}

func TestAssignabilityRequiresUnsafeForNonStaticReferenceToRawPointer(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.Primitive(types.I32)
	stackRef := pool.Reference(i32, types.Region{Kind: types.Stack}, false, false)
	rawConst := pool.Pointer(i32, true)
	require.Equal(t, types.AssignRequiresUnsafe, types.CanAssign(stackRef, rawConst))
}

func TestAssignabilityRequiresProofForNullableToNonNull(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.Primitive(types.I32)
	nullable := pool.Reference(i32, types.Region{Kind: types.Stack}, false, true)
	nonNull := pool.Reference(i32, types.Region{Kind: types.Stack}, false, false)
	require.Equal(t, types.AssignRequiresProof, types.CanAssign(nullable, nonNull))
}

func TestArenaRegionsWithDifferentNamesAreDistinct(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.Primitive(types.I32)
	refP := pool.Reference(i32, types.Region{Kind: types.Arena, Name: "P"}, false, false)
	refQ := pool.Reference(i32, types.Region{Kind: types.Arena, Name: "Q"}, false, false)
	require.False(t, types.Identical(refP, refQ))
}

func TestEraseRegionProducesRawPointer(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.Primitive(types.I32)
	ref := pool.Reference(i32, types.Region{Kind: types.Heap}, true, false)
	erased := types.EraseRegion(pool, ref)
	ptr, ok := erased.(*types.PointerType)
	require.True(t, ok)
	require.False(t, ptr.Const)
}
