package types

// AssignKind classifies the result of an assignability query.
type AssignKind uint8

const (
	AssignOK AssignKind = iota
	AssignRequiresCast
	AssignRequiresUnsafe
	AssignRequiresProof // nullable -> non-null needs flow-sensitive proof
	AssignForbidden
)

// CanAssign implements spec.md §4.2's assignability rules: no implicit
// integer widening, no implicit floating conversions, no implicit
// pointer-to-reference conversions; a &static T may cross into a raw
// const T* at a foreign call site without unsafe, any other region needs
// an enclosing unsafe block for the same conversion.
func CanAssign(from, to Type) AssignKind {
	if Identical(from, to) {
		return AssignOK
	}

	switch toT := to.(type) {
	case *ReferenceType:
		fromT, ok := from.(*ReferenceType)
		if !ok {
			return AssignForbidden
		}
		if !Identical(fromT.Elem, toT.Elem) {
			return AssignForbidden
		}
		if !fromT.Region.Equal(toT.Region) {
			return AssignForbidden // region identity crossing needs an explicit region cast, never a plain assignment
		}
		if fromT.Nullable && !toT.Nullable {
			return AssignRequiresProof
		}
		if !fromT.Mutable && toT.Mutable {
			return AssignForbidden
		}
		return AssignOK

	case *PointerType:
		fromRef, ok := from.(*ReferenceType)
		if ok {
			if !Identical(fromRef.Elem, toT.Elem) {
				return AssignForbidden
			}
			if fromRef.Region.Kind == Static && toT.Const {
				return AssignOK
			}
			return AssignRequiresUnsafe
		}
		fromPtr, ok := from.(*PointerType)
		if ok && Identical(fromPtr.Elem, toT.Elem) {
			if fromPtr.Const && !toT.Const {
				return AssignRequiresUnsafe
			}
			return AssignOK
		}
		return AssignForbidden

	case *PrimitiveType:
		fromT, ok := from.(*PrimitiveType)
		if !ok {
			return AssignForbidden
		}
		if fromT.Prim == toT.Prim {
			return AssignOK
		}
		// No implicit widening, narrowing, or int<->float conversion.
		return AssignRequiresCast
	}

	return AssignForbidden
}

// CommonType computes the result type of a binary operator per spec.md
// §4.2 "compute common type for binary operators". Unlike assignment,
// this never implicitly converts between distinct numeric types either —
// both operands must already share a type, or the caller must insert an
// explicit cast; CommonType only identifies whether they already agree
// and what the shared type is.
func CommonType(a, b Type) (Type, bool) {
	if Identical(a, b) {
		return a, true
	}
	return nil, false
}

// EraseRegion returns the raw-pointer rendering of a reference type, used
// only by the lowering gateway (spec.md §4.2 "erase region to a raw
// pointer").
func EraseRegion(pool *Pool, t Type) Type {
	ref, ok := t.(*ReferenceType)
	if !ok {
		return t
	}
	return pool.Pointer(ref.Elem, !ref.Mutable)
}
