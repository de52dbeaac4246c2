package types

import "github.com/google/uuid"

// Pool is the shared interning pool for one translation unit (spec.md §4.2
// "a shared interning pool returns canonical instances"). Value-kinds are
// deduplicated by structural key; nominal kinds always get a fresh UUID
// identity, recorded by that UUID. The pool offers no lookup of nominal
// types by name.
type Pool struct {
	primitives map[Primitive]*PrimitiveType
	void       *VoidType
	pointers   map[pointerKey]*PointerType
	references map[string]*ReferenceType
	arrays     map[string]*ArrayType
	slices     map[Type]*SliceType
	functions  []*FunctionType
	tuples     []*TupleType
	aliases    map[string]*AliasType

	structs       map[uuid.UUID]*StructType
	unions        map[uuid.UUID]*UnionType
	taggedUnions  map[uuid.UUID]*TaggedUnionType
	enums         map[uuid.UUID]*EnumType
	newtypes      map[uuid.UUID]*NewtypeType
}

type pointerKey struct {
	elem  Type
	const_ bool
}

// NewPool creates an empty interning pool.
func NewPool() *Pool {
	return &Pool{
		primitives:   make(map[Primitive]*PrimitiveType),
		pointers:     make(map[pointerKey]*PointerType),
		references:   make(map[string]*ReferenceType),
		arrays:       make(map[string]*ArrayType),
		slices:       make(map[Type]*SliceType),
		aliases:      make(map[string]*AliasType),
		structs:      make(map[uuid.UUID]*StructType),
		unions:       make(map[uuid.UUID]*UnionType),
		taggedUnions: make(map[uuid.UUID]*TaggedUnionType),
		enums:        make(map[uuid.UUID]*EnumType),
		newtypes:     make(map[uuid.UUID]*NewtypeType),
	}
}

// Primitive interns a primitive type.
func (p *Pool) Primitive(prim Primitive) *PrimitiveType {
	if t, ok := p.primitives[prim]; ok {
		return t
	}
	t := &PrimitiveType{Prim: prim}
	p.primitives[prim] = t
	return t
}

// Void interns the singleton void type.
func (p *Pool) Void() *VoidType {
	if p.void == nil {
		p.void = &VoidType{}
	}
	return p.void
}

// Pointer interns a raw pointer type.
func (p *Pool) Pointer(elem Type, isConst bool) *PointerType {
	key := pointerKey{elem: elem, const_: isConst}
	if t, ok := p.pointers[key]; ok {
		return t
	}
	t := &PointerType{Elem: elem, Const: isConst}
	p.pointers[key] = t
	return t
}

// Reference interns a region-tagged reference type.
func (p *Pool) Reference(elem Type, region Region, mutable, nullable bool) *ReferenceType {
	key := region.String() + "|" + boolKey(mutable) + "|" + boolKey(nullable) + "|" + elem.String()
	if t, ok := p.references[key]; ok {
		return t
	}
	t := &ReferenceType{Elem: elem, Region: region, Mutable: mutable, Nullable: nullable}
	p.references[key] = t
	return t
}

// Array interns a fixed-length array type.
func (p *Pool) Array(elem Type, length int64) *ArrayType {
	key := elem.String() + "[" + itoa(length) + "]"
	if t, ok := p.arrays[key]; ok {
		return t
	}
	t := &ArrayType{Elem: elem, Length: length}
	p.arrays[key] = t
	return t
}

// Slice interns a fat-pointer slice type.
func (p *Pool) Slice(elem Type) *SliceType {
	if t, ok := p.slices[elem]; ok {
		return t
	}
	t := &SliceType{Elem: elem}
	p.slices[elem] = t
	return t
}

// Function creates a function type. Function types are not deduplicated
// by structural key (parameter names carry meaning for diagnostics) but
// are tracked so Pool owns every Type reachable from the AST.
func (p *Pool) Function(params []Param, ret Type, variadic bool) *FunctionType {
	t := &FunctionType{Params: params, Return: ret, Variadic: variadic}
	p.functions = append(p.functions, t)
	return t
}

// Tuple creates a tuple type.
func (p *Pool) Tuple(elems []Type) *TupleType {
	t := &TupleType{Elems: elems}
	p.tuples = append(p.tuples, t)
	return t
}

// Alias interns a named alias of target.
func (p *Pool) Alias(name string, target Type) *AliasType {
	if t, ok := p.aliases[name]; ok {
		return t
	}
	t := &AliasType{Name: name, Target: target}
	p.aliases[name] = t
	return t
}

// NewStruct allocates a fresh nominal struct type with a new identity.
func (p *Pool) NewStruct(name string, fields []Field, packed bool) *StructType {
	t := &StructType{ID: uuid.New(), Name: name, Fields: fields, Packed: packed}
	p.structs[t.ID] = t
	return t
}

// NewUnion allocates a fresh nominal union type.
func (p *Pool) NewUnion(name string, fields []Field) *UnionType {
	t := &UnionType{ID: uuid.New(), Name: name, Fields: fields}
	p.unions[t.ID] = t
	return t
}

// NewTaggedUnion allocates a fresh nominal tagged-union type.
func (p *Pool) NewTaggedUnion(name string, variants []Variant, tagType Primitive) *TaggedUnionType {
	t := &TaggedUnionType{ID: uuid.New(), Name: name, Variants: variants, TagType: tagType}
	p.taggedUnions[t.ID] = t
	return t
}

// NewEnum allocates a fresh nominal enum type.
func (p *Pool) NewEnum(name string, underlying Primitive, enumerators []Enumerator) *EnumType {
	t := &EnumType{ID: uuid.New(), Name: name, Underlying: underlying, Enumerators: enumerators}
	p.enums[t.ID] = t
	return t
}

// NewNewtype allocates a fresh nominal newtype wrapper.
func (p *Pool) NewNewtype(name string, target Type) *NewtypeType {
	t := &NewtypeType{ID: uuid.New(), Name: name, Target: target}
	p.newtypes[t.ID] = t
	return t
}

func boolKey(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func itoa(n int64) string {
	if n < 0 {
		return "-" + itoa(-n)
	}
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
