// Package types is the type universe for SafeC (spec.md §3 "Type", §4.2
// "Type Model"). Value-kinds are interned by structural identity; nominal
// kinds (struct/union/tagged-union/enum/newtype) are interned by a fresh
// UUID so that two textually identical declarations remain distinct types,
// mirroring the teacher's interning pool but keyed on identity instead of
// pure structural hashing for those kinds.
package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind tags the variant of a Type.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindPointer
	KindReference
	KindArray
	KindSlice
	KindFunction
	KindStruct
	KindUnion
	KindTaggedUnion
	KindEnum
	KindNewtype
	KindTuple
	KindGenericParam
	KindAlias
	KindVoid
)

// Primitive kinds.
type Primitive uint8

const (
	Bool Primitive = iota
	Char
	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
)

func (p Primitive) String() string {
	switch p {
	case Bool:
		return "bool"
	case Char:
		return "char"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return "?primitive"
	}
}

// IsInteger reports whether p is an integer primitive (signed or unsigned).
func (p Primitive) IsInteger() bool {
	switch p {
	case I8, I16, I32, I64, U8, U16, U32, U64, Char:
		return true
	default:
		return false
	}
}

// IsSigned reports whether p is a signed integer primitive.
func (p Primitive) IsSigned() bool {
	switch p {
	case I8, I16, I32, I64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether p is a floating-point primitive.
func (p Primitive) IsFloat() bool { return p == F32 || p == F64 }

// Width returns p's width in bits.
func (p Primitive) Width() int {
	switch p {
	case Bool, Char, I8, U8:
		return 8
	case I16, U16:
		return 16
	case I32, U32, F32:
		return 32
	case I64, U64, F64:
		return 64
	default:
		return 0
	}
}

// Region is the storage provenance tag on a reference type (spec.md §3
// "reference with region tag"). It is a compile-time-only tag, erased at
// lowering (spec.md §9 "Region tagging of references").
type Region struct {
	Kind ArenaKind
	Name string // arena name when Kind == Arena; empty otherwise
}

// ArenaKind distinguishes the four region provenances.
type ArenaKind uint8

const (
	Stack ArenaKind = iota
	Heap
	Static
	Arena
)

func (r Region) String() string {
	switch r.Kind {
	case Stack:
		return "stack"
	case Heap:
		return "heap"
	case Static:
		return "static"
	case Arena:
		return fmt.Sprintf("arena<%s>", r.Name)
	default:
		return "?region"
	}
}

// Equal reports whether two regions denote the same provenance. &stack
// never equals &heap; two arenas are equal only when named the same
// (spec.md §3 invariant).
func (r Region) Equal(o Region) bool {
	return r.Kind == o.Kind && r.Name == o.Name
}

// CallConv is a calling-convention tag carried by function types, passed
// through unchanged to the lowering gateway.
type CallConv uint8

const (
	CallConvDefault CallConv = iota
	CallConvNaked
	CallConvInterrupt
)

// Type is the common interface of every type-universe member. Most
// concrete types come from the Pool; GenericParamType values and the
// composite types monomorph rebuilds during substitution are constructed
// directly. Nominal kinds are compared by their UUID (see Identical).
type Type interface {
	Kind() Kind
	String() string
}

// ---- Primitive ----

type PrimitiveType struct{ Prim Primitive }

func (*PrimitiveType) Kind() Kind       { return KindPrimitive }
func (t *PrimitiveType) String() string { return t.Prim.String() }

// ---- Void ----

type VoidType struct{}

func (*VoidType) Kind() Kind     { return KindVoid }
func (*VoidType) String() string { return "void" }

// ---- Pointer (unowned raw, usable only inside unsafe) ----

type PointerType struct {
	Elem  Type
	Const bool
}

func (*PointerType) Kind() Kind { return KindPointer }
func (t *PointerType) String() string {
	if t.Const {
		return t.Elem.String() + " const*"
	}
	return t.Elem.String() + "*"
}

// ---- Reference ----

type ReferenceType struct {
	Elem     Type
	Region   Region
	Mutable  bool
	Nullable bool // ?&T
}

func (*ReferenceType) Kind() Kind { return KindReference }
func (t *ReferenceType) String() string {
	mark := "&"
	if t.Nullable {
		mark = "?&"
	}
	mut := ""
	if t.Mutable {
		mut = "mut "
	}
	return fmt.Sprintf("%s%s %s%s", mark, t.Region, mut, t.Elem)
}

// Equal reports structural equality per spec.md §4.2: region, mutability,
// nullability, and pointee type must all match.
func (t *ReferenceType) Equal(o *ReferenceType) bool {
	return t.Region.Equal(o.Region) && t.Mutable == o.Mutable && t.Nullable == o.Nullable && Identical(t.Elem, o.Elem)
}

// ---- Array (compile-time length, possibly an unevaluated expression) ----

type ArrayType struct {
	Elem      Type
	Length    int64 // resolved length; -1 if the length expression could not be evaluated
	LengthSrc string
}

func (*ArrayType) Kind() Kind { return KindArray }
func (t *ArrayType) String() string {
	if t.Length >= 0 {
		return fmt.Sprintf("%s[%d]", t.Elem, t.Length)
	}
	return fmt.Sprintf("%s[%s]", t.Elem, t.LengthSrc)
}

// ---- Slice (fat pointer: element type + runtime length) ----

type SliceType struct{ Elem Type }

func (*SliceType) Kind() Kind       { return KindSlice }
func (t *SliceType) String() string { return t.Elem.String() + "[]" }

// ---- Function ----

type Param struct {
	Name string
	Type Type
}

type FunctionType struct {
	Params   []Param
	Return   Type
	Variadic bool
	CallConv CallConv
	Pure     bool
	Noreturn bool
}

func (*FunctionType) Kind() Kind { return KindFunction }
func (t *FunctionType) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.Type.String()
	}
	variadic := ""
	if t.Variadic {
		variadic = ", ..."
	}
	return fmt.Sprintf("(%s%s) -> %s", strings.Join(parts, ", "), variadic, t.Return)
}

// ---- Field (struct/union members) ----

type Field struct {
	Name   string
	Type   Type
	Offset int64 // computed by ComputeLayout
}

// ---- Struct / Union / TaggedUnion (nominal: identity by UUID) ----

type StructType struct {
	ID       uuid.UUID
	Name     string
	Fields   []Field
	Packed   bool
	Size     int64
	Align    int64
	layoutOK bool
}

func (*StructType) Kind() Kind       { return KindStruct }
func (t *StructType) String() string { return t.Name }

type UnionType struct {
	ID     uuid.UUID
	Name   string
	Fields []Field
	Size   int64
	Align  int64
}

func (*UnionType) Kind() Kind       { return KindUnion }
func (t *UnionType) String() string { return t.Name }

// Variant is one arm of a tagged union.
type Variant struct {
	Name    string
	Payload []Field
	Tag     int64
}

type TaggedUnionType struct {
	ID       uuid.UUID
	Name     string
	Variants []Variant
	TagType  Primitive
}

func (*TaggedUnionType) Kind() Kind       { return KindTaggedUnion }
func (t *TaggedUnionType) String() string { return t.Name }

// ---- Enum ----

type Enumerator struct {
	Name  string
	Value int64
}

type EnumType struct {
	ID          uuid.UUID
	Name        string
	Underlying  Primitive
	Enumerators []Enumerator
}

func (*EnumType) Kind() Kind       { return KindEnum }
func (t *EnumType) String() string { return t.Name }

// ---- Newtype (distinct nominal wrapper) ----

type NewtypeType struct {
	ID     uuid.UUID
	Name   string
	Target Type
}

func (*NewtypeType) Kind() Kind       { return KindNewtype }
func (t *NewtypeType) String() string { return t.Name }

// ---- Tuple ----

type TupleType struct{ Elems []Type }

func (*TupleType) Kind() Kind { return KindTuple }
func (t *TupleType) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ---- Generic parameter ----

type GenericParamType struct {
	Name       string
	Constraint string // e.g. "Numeric", "Add"; empty means unconstrained
	Pack       bool   // T... variadic type pack
}

func (*GenericParamType) Kind() Kind { return KindGenericParam }
func (t *GenericParamType) String() string {
	if t.Pack {
		return t.Name + "..."
	}
	return t.Name
}

// ---- Alias ----

type AliasType struct {
	Name   string
	Target Type
}

func (*AliasType) Kind() Kind       { return KindAlias }
func (t *AliasType) String() string { return t.Name }

// Identical reports structural equality for value-kinds and identity
// equality (pointer equality after interning) for nominal kinds, per
// spec.md §3: "Types are value-identified ... except nominal kinds ...
// which ... are equal only by identity."
func Identical(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch at := a.(type) {
	case *PrimitiveType:
		bt, ok := b.(*PrimitiveType)
		return ok && at.Prim == bt.Prim
	case *VoidType:
		_, ok := b.(*VoidType)
		return ok
	case *PointerType:
		bt, ok := b.(*PointerType)
		return ok && at.Const == bt.Const && Identical(at.Elem, bt.Elem)
	case *ReferenceType:
		bt, ok := b.(*ReferenceType)
		return ok && at.Equal(bt)
	case *ArrayType:
		bt, ok := b.(*ArrayType)
		return ok && at.Length == bt.Length && Identical(at.Elem, bt.Elem)
	case *SliceType:
		bt, ok := b.(*SliceType)
		return ok && Identical(at.Elem, bt.Elem)
	case *FunctionType:
		bt, ok := b.(*FunctionType)
		if !ok || len(at.Params) != len(bt.Params) || at.Variadic != bt.Variadic {
			return false
		}
		for i := range at.Params {
			if !Identical(at.Params[i].Type, bt.Params[i].Type) {
				return false
			}
		}
		return Identical(at.Return, bt.Return)
	case *TupleType:
		bt, ok := b.(*TupleType)
		if !ok || len(at.Elems) != len(bt.Elems) {
			return false
		}
		for i := range at.Elems {
			if !Identical(at.Elems[i], bt.Elems[i]) {
				return false
			}
		}
		return true
	case *GenericParamType:
		bt, ok := b.(*GenericParamType)
		return ok && at.Name == bt.Name && at.Pack == bt.Pack
	case *AliasType:
		return Identical(at.Target, dealias(b))
	case *StructType:
		bt, ok := b.(*StructType)
		return ok && at.ID == bt.ID
	case *UnionType:
		bt, ok := b.(*UnionType)
		return ok && at.ID == bt.ID
	case *TaggedUnionType:
		bt, ok := b.(*TaggedUnionType)
		return ok && at.ID == bt.ID
	case *EnumType:
		bt, ok := b.(*EnumType)
		return ok && at.ID == bt.ID
	case *NewtypeType:
		bt, ok := b.(*NewtypeType)
		return ok && at.ID == bt.ID
	default:
		return false
	}
}

func dealias(t Type) Type {
	for {
		a, ok := t.(*AliasType)
		if !ok {
			return t
		}
		t = a.Target
	}
}
