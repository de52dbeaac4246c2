// Package consteval is the tree-walking constant evaluator (spec.md §4.7).
// It runs over the subset of expressions and statements reachable from a
// const context: initializers of const globals/locals, array length
// expressions, static_assert conditions, if const conditions, enum
// enumerator values, and consteval function bodies. It shares no state
// with a running program — there is no running program, only the AST —
// so evaluation is a pure function of the AST plus the caps in Limits.
package consteval

import (
	"github.com/safec-lang/safecc/internal/types"
)

// Kind tags the variant of a const-eval Value.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindChar
)

// Value is a tagged variant over the const-eval value universe (spec.md
// §4.7: "primitives, structs as field→value maps, unions as (tag, value),
// arrays as fixed sequences, tuples, references to arena-less constant
// storage"). Only the primitive/string/char subset is implemented; struct,
// union, array, and tuple values have no representation here.
type Value struct {
	Kind  Kind
	Prim  types.Primitive // width/signedness for Int, Float, Char
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

func IntValue(v int64, prim types.Primitive) Value {
	return truncate(Value{Kind: KindInt, Int: v, Prim: prim})
}

func FloatValue(v float64, prim types.Primitive) Value {
	return Value{Kind: KindFloat, Float: v, Prim: prim}
}

func BoolValue(v bool) Value { return Value{Kind: KindBool, Bool: v} }

func StringValue(v string) Value { return Value{Kind: KindString, Str: v} }

func CharValue(v rune) Value { return Value{Kind: KindChar, Int: int64(v), Prim: types.Char} }

// AsBool reports v's truthiness for conditions; only KindBool is valid,
// callers type-check before reaching here.
func (v Value) AsBool() bool { return v.Kind == KindBool && v.Bool }

// widthBits returns the bit width backing an integer Prim. Callers always
// pass an explicit Primitive (untyped literals default to types.I32
// before reaching here); Width() returning 0 only happens for non-integer
// kinds this package never calls it with.
func widthBits(p types.Primitive) int {
	if w := p.Width(); w > 0 {
		return w
	}
	return 32
}

// truncate reinterprets an int Value's bit pattern to its declared
// width/signedness, the const-eval analog of spec.md §4.7 "integer
// arithmetic follows the declared type's width and signedness" for values
// that arrive wider than their target (e.g. after promotion during a
// binary op).
func truncate(v Value) Value {
	if v.Kind != KindInt {
		return v
	}
	bits := widthBits(v.Prim)
	if bits >= 64 {
		return v
	}
	mask := int64(1)<<uint(bits) - 1
	u := v.Int & mask
	if v.Prim.IsSigned() {
		signBit := int64(1) << uint(bits-1)
		if u&signBit != 0 {
			u |= ^mask
		}
	}
	v.Int = u
	return v
}

// overflowedSigned reports whether result, computed in int64 from
// operands of type prim, does not fit back in prim's signed width —
// spec.md §4.7 "overflow in a two's-complement signed type during
// const eval is a hard error (not wrap)".
func overflowedSigned(prim types.Primitive, result int64) bool {
	if !prim.IsSigned() {
		return false
	}
	bits := widthBits(prim)
	if bits >= 64 {
		return false // no wider Go integer to detect overflow against
	}
	min := -(int64(1) << uint(bits-1))
	max := int64(1)<<uint(bits-1) - 1
	return result < min || result > max
}
