package types

// ComputeLayout assigns field offsets and the overall size/alignment of a
// struct (spec.md §4.2 "query size and alignment ... for packed structs,
// alignment is 1 and fields are tightly packed; otherwise standard C
// rules"). It is idempotent: calling it twice on the same struct is a
// no-op the second time.
func ComputeLayout(t *StructType) {
	if t.layoutOK {
		return
	}
	if t.Packed {
		var offset int64
		for i := range t.Fields {
			t.Fields[i].Offset = offset
			offset += SizeOf(t.Fields[i].Type)
		}
		t.Size = offset
		t.Align = 1
		t.layoutOK = true
		return
	}

	var offset, maxAlign int64 = 0, 1
	for i := range t.Fields {
		fieldAlign := AlignOf(t.Fields[i].Type)
		if fieldAlign > maxAlign {
			maxAlign = fieldAlign
		}
		offset = alignUp(offset, fieldAlign)
		t.Fields[i].Offset = offset
		offset += SizeOf(t.Fields[i].Type)
	}
	t.Size = alignUp(offset, maxAlign)
	t.Align = maxAlign
	t.layoutOK = true
}

// ComputeUnionLayout sizes a union as the largest member, aligned to the
// strictest member alignment (standard C union layout).
func ComputeUnionLayout(t *UnionType) {
	var size, align int64 = 0, 1
	for _, f := range t.Fields {
		if s := SizeOf(f.Type); s > size {
			size = s
		}
		if a := AlignOf(f.Type); a > align {
			align = a
		}
	}
	t.Size = alignUp(size, align)
	t.Align = align
}

func alignUp(offset, align int64) int64 {
	if align <= 1 {
		return offset
	}
	rem := offset % align
	if rem == 0 {
		return offset
	}
	return offset + (align - rem)
}

// SizeOf returns the size in bytes of t under the declared target's C ABI
// (pointer/reference width fixed at 8 bytes, matching a 64-bit target;
// spec.md leaves the exact target unspecified so one concrete width is
// chosen and used consistently).
func SizeOf(t Type) int64 {
	switch tt := t.(type) {
	case *PrimitiveType:
		return int64(tt.Prim.Width() / 8)
	case *VoidType:
		return 0
	case *PointerType, *ReferenceType:
		return 8
	case *SliceType:
		return 16 // data pointer + length, fat pointer
	case *ArrayType:
		if tt.Length < 0 {
			return 0
		}
		return SizeOf(tt.Elem) * tt.Length
	case *StructType:
		ComputeLayout(tt)
		return tt.Size
	case *UnionType:
		ComputeUnionLayout(tt)
		return tt.Size
	case *TaggedUnionType:
		return sizeOfTaggedUnion(tt)
	case *EnumType:
		return int64(tt.Underlying.Width() / 8)
	case *NewtypeType:
		return SizeOf(tt.Target)
	case *AliasType:
		return SizeOf(tt.Target)
	case *TupleType:
		var total int64
		for _, e := range tt.Elems {
			total = alignUp(total, AlignOf(e)) + SizeOf(e)
		}
		return total
	default:
		return 0
	}
}

// AlignOf returns the alignment in bytes of t.
func AlignOf(t Type) int64 {
	switch tt := t.(type) {
	case *PrimitiveType:
		w := int64(tt.Prim.Width() / 8)
		if w == 0 {
			return 1
		}
		return w
	case *VoidType:
		return 1
	case *PointerType, *ReferenceType, *SliceType:
		return 8
	case *ArrayType:
		return AlignOf(tt.Elem)
	case *StructType:
		ComputeLayout(tt)
		return tt.Align
	case *UnionType:
		ComputeUnionLayout(tt)
		return tt.Align
	case *TaggedUnionType:
		align := int64(tt.TagType.Width() / 8)
		for _, v := range tt.Variants {
			for _, f := range v.Payload {
				if a := AlignOf(f.Type); a > align {
					align = a
				}
			}
		}
		if align == 0 {
			align = 1
		}
		return align
	case *EnumType:
		return int64(tt.Underlying.Width() / 8)
	case *NewtypeType:
		return AlignOf(tt.Target)
	case *AliasType:
		return AlignOf(tt.Target)
	default:
		return 1
	}
}

func sizeOfTaggedUnion(t *TaggedUnionType) int64 {
	tagSize := int64(t.TagType.Width() / 8)
	var payloadSize, payloadAlign int64 = 0, 1
	for _, v := range t.Variants {
		var vs int64
		for _, f := range v.Payload {
			vs = alignUp(vs, AlignOf(f.Type)) + SizeOf(f.Type)
		}
		if vs > payloadSize {
			payloadSize = vs
		}
		for _, f := range v.Payload {
			if a := AlignOf(f.Type); a > payloadAlign {
				payloadAlign = a
			}
		}
	}
	total := alignUp(tagSize, payloadAlign) + payloadSize
	return alignUp(total, maxI64(tagSize, payloadAlign))
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// FieldOffset looks up a struct field's byte offset by name (spec.md §4.2
// "query field offset by name").
func FieldOffset(t *StructType, name string) (int64, bool) {
	ComputeLayout(t)
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Offset, true
		}
	}
	return 0, false
}
