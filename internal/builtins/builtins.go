// Package builtins defines SafeC's trait-like generic constraints and the
// operators each one requires (spec.md §4.8 "Trait-like constraints (such
// as Numeric, Add) are verified by checking that the required operators
// are defined for the concrete type, either as primitive operators or as
// struct operator methods"). The monomorphizer consults this table once
// per generic-parameter constraint at specialization time.
//
// Adapted from the teacher's WGSL builtin-function table (internal/
// builtins): that package mapped a name to an Overload set and a
// RequiresUniform/IsConstEval predicate; this one keeps the same
// "name -> requirement set, queried through a small lookup API" shape but
// maps a trait name to the set of binary/unary operators a type must
// support, since SafeC has no WGSL-style intrinsic function table to
// register (generics are monomorphized against user code, not against a
// builtin call surface).
package builtins

import (
	"github.com/safec-lang/safecc/internal/types"
)

// Trait names a generic constraint as written in source (e.g.
// `T: Numeric`). Constraint identifiers are plain identifiers in SafeC's
// grammar, not a closed keyword set, so this is a string rather than an
// enum; unknown trait names are a semantic error raised by the caller.
type Trait string

const (
	TraitNumeric  Trait = "Numeric"  // integer or float primitive, or a struct implementing arithmetic
	TraitInteger  Trait = "Integer"  // any integer primitive width/signedness
	TraitFloat    Trait = "Float"    // f32/f64
	TraitAdd      Trait = "Add"
	TraitSub      Trait = "Sub"
	TraitMul      Trait = "Mul"
	TraitDiv      Trait = "Div"
	TraitEq       Trait = "Eq"
	TraitOrd      Trait = "Ord"
	TraitBitwise  Trait = "Bitwise"
)

// operatorsFor lists the binary operator spellings that satisfying a
// trait requires to be defined on the concrete type, either as a
// primitive built-in operator or as a struct `operator_*` method. Traits
// that require more than one operator (Numeric requires the full
// arithmetic set) are satisfied only when every listed operator resolves.
var operatorsFor = map[Trait][]string{
	TraitAdd:     {"+"},
	TraitSub:     {"-"},
	TraitMul:     {"*"},
	TraitDiv:     {"/"},
	TraitEq:      {"==", "!="},
	TraitOrd:     {"<", ">", "<=", ">="},
	TraitBitwise: {"&", "|", "^", "<<", ">>"},
	TraitNumeric: {"+", "-", "*", "/"},
}

// KnownTrait reports whether name is a recognized constraint identifier.
func KnownTrait(name string) bool {
	switch Trait(name) {
	case TraitNumeric, TraitInteger, TraitFloat, TraitAdd, TraitSub, TraitMul, TraitDiv, TraitEq, TraitOrd, TraitBitwise:
		return true
	}
	return false
}

// OperatorHasStructMethod is supplied by the caller (internal/sema or
// internal/monomorph, which already resolve a struct's `operator_*`
// overloads during expression typing) so this package never needs to
// depend on sema's declaration tables.
type OperatorHasStructMethod func(st *types.StructType, op string) bool

// Satisfies reports whether t meets trait, consulting hasOperator only
// for struct types (primitive satisfaction is decided from the type
// itself and never needs a callback).
func Satisfies(t types.Type, trait Trait, hasOperator OperatorHasStructMethod) bool {
	switch trait {
	case TraitInteger:
		pt, ok := t.(*types.PrimitiveType)
		return ok && pt.Prim.IsInteger()
	case TraitFloat:
		pt, ok := t.(*types.PrimitiveType)
		return ok && pt.Prim.IsFloat()
	case TraitNumeric:
		if pt, ok := t.(*types.PrimitiveType); ok {
			return pt.Prim.IsInteger() || pt.Prim.IsFloat()
		}
	}

	ops, ok := operatorsFor[trait]
	if !ok {
		return false
	}
	if pt, ok := t.(*types.PrimitiveType); ok {
		return primitiveSupportsAll(pt.Prim, ops)
	}
	if st, ok := t.(*types.StructType); ok && hasOperator != nil {
		for _, op := range ops {
			if !hasOperator(st, op) {
				return false
			}
		}
		return true
	}
	return false
}

// primitiveSupportsAll reports whether every operator in ops is a valid
// built-in operator for prim. Comparison and equality are defined for
// every primitive; arithmetic and bitwise-shift require numeric or
// integer primitives respectively, matching the operator rules
// internal/sema's expression typer already enforces for plain binary
// expressions over primitives.
func primitiveSupportsAll(prim types.Primitive, ops []string) bool {
	for _, op := range ops {
		if !primitiveSupportsOp(prim, op) {
			return false
		}
	}
	return true
}

func primitiveSupportsOp(prim types.Primitive, op string) bool {
	switch op {
	case "==", "!=", "<", ">", "<=", ">=":
		return true
	case "+", "-", "*", "/":
		return prim.IsInteger() || prim.IsFloat()
	case "%", "&", "|", "^", "<<", ">>":
		return prim.IsInteger()
	}
	return false
}
