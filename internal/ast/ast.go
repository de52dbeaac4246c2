// Package ast defines the SafeC abstract syntax tree (spec.md §3 "AST
// Nodes") and the Scope/Symbol model (spec.md §3 "Scope and Symbol").
//
// The AST is owned by the translation unit (spec.md §5); every other
// component holds non-owning back-references into it, following the
// teacher's handle-based approach to the cyclic back-references a
// compiler AST inevitably needs (struct fields referencing the enclosing
// struct, scope parent pointers, symbol-to-declaration links): plain
// integer/pointer handles that do not imply ownership.
package ast

import (
	"github.com/safec-lang/safecc/internal/sourcepos"
	"github.com/safec-lang/safecc/internal/types"
)

// Module is one translation unit: the root of the owned AST.
type Module struct {
	File  sourcepos.FileID
	Decls []Decl
	Scope *Scope // translation-unit scope
}

// ---- Expressions ----

// Expr is the tagged-variant interface every expression node implements.
// Each expression carries its resolved type (filled by semantic analysis,
// nil until then) and an l-value flag.
type Expr interface {
	exprNode()
	Span() sourcepos.Range
	ResolvedType() types.Type
	SetResolvedType(types.Type)
	IsLValue() bool
}

type exprBase struct {
	span     sourcepos.Range
	typ      types.Type
	lvalue   bool
}

func (e *exprBase) exprNode()                   {}
func (e *exprBase) Span() sourcepos.Range       { return e.span }
func (e *exprBase) ResolvedType() types.Type    { return e.typ }
func (e *exprBase) SetResolvedType(t types.Type) { e.typ = t }
func (e *exprBase) IsLValue() bool              { return e.lvalue }

// SetSpan sets the expression's source span; used by the parser.
func (e *exprBase) SetSpan(span sourcepos.Range) { e.span = span }

// SetLValue marks whether the expression denotes an assignable location;
// used by sema when classifying an expression.
func (e *exprBase) SetLValue(lv bool) { e.lvalue = lv }

// IntLit is an integer literal.
type IntLit struct {
	exprBase
	Value  int64
	Suffix string // "", "U", "L", "LL", "UL", "ULL"
}

// FloatLit is a floating literal.
type FloatLit struct {
	exprBase
	Value float64
}

// StringLit is a string literal.
type StringLit struct {
	exprBase
	Value string
}

// CharLit is a character literal.
type CharLit struct {
	exprBase
	Value rune
}

// BoolLit is a boolean literal.
type BoolLit struct {
	exprBase
	Value bool
}

// Ident is a name reference; resolved to a Symbol by the analyzer.
type Ident struct {
	exprBase
	Name   string
	Symbol *Symbol // filled by name resolution
}

// UnaryOp is a prefix unary operator: &, *, -, !, ~, ++, --.
type UnaryOp struct {
	exprBase
	Op      string
	Operand Expr
	Region  *types.Region // set when Op == "&" and a region marker follows
}

// BinaryOp is an infix binary operator.
type BinaryOp struct {
	exprBase
	Op          string
	Left, Right Expr
	// OperatorMethod is set when this resolves to a user `operator@`
	// overload on the left operand's struct type (spec.md §4.6).
	OperatorMethod *FuncDecl
}

// AssignExpr is an assignment (including compound assignment).
type AssignExpr struct {
	exprBase
	Op          string // "=", "+=", ...
	Target, Val Expr
}

// CallExpr is a function or method call.
type CallExpr struct {
	exprBase
	Callee Expr
	Args   []Expr
	// TypeArgs holds explicit generic type arguments. The parser has no
	// min<int>(...) call syntax and never fills it, so sema infers the
	// arguments through the monomorphizer.
	TypeArgs []types.Type
}

// FieldAccess is `.field` or `->field` member access.
type FieldAccess struct {
	exprBase
	Object Expr
	Field  string
	Arrow  bool
}

// IndexExpr is array/slice subscripting.
type IndexExpr struct {
	exprBase
	Object Expr
	Index  Expr
	// BoundsCheckRequested is set by sema for dynamic indices not proven
	// in-bounds at compile time (spec.md §4.6 "Bounds analysis").
	BoundsCheckRequested bool
}

// SliceExpr is a `lo..hi` range/slice expression.
type SliceExpr struct {
	exprBase
	Object   Expr
	Lo, Hi   Expr // either may be nil meaning open-ended
}

// CastExpr is an explicit cast `(T) expr`.
type CastExpr struct {
	exprBase
	Target Type
	Value  Expr
}

// NewExpr is `new<R> T` / `new T` allocation.
type NewExpr struct {
	exprBase
	RegionName string        // named arena from `new<R> T`; empty means &heap
	Region     *types.Region // resolved by sema from RegionName
	Type       Type
	Init       []Expr
}

// ClosureExpr is `|params| body`. The current core accepts only
// zero-capture closures (spec.md §4.9); sema enforces this.
type ClosureExpr struct {
	exprBase
	Params []Param
	Body   *Block
}

// MatchExpr is an expression-position match (spec.md §4.5).
type MatchExpr struct {
	exprBase
	Subject Expr
	Arms    []MatchArm
}

// MatchArm is one `case` arm: either a variant pattern with optional
// binding, a numeric range `lo..hi`, a literal, or `default`.
type MatchArm struct {
	Span       sourcepos.Range
	VariantTag string // set when matching a tagged-union variant
	Bind       string // name bound to the variant payload, if any
	RangeLo    Expr
	RangeHi    Expr // non-nil only for numeric ranges
	Literal    Expr
	IsDefault  bool
	Body       Stmt
}

// TryExpr propagates the empty variant of an error-typed optional to the
// enclosing function's return (spec.md §9 open question: treated as "if
// the inner value is the empty variant, immediately return it").
type TryExpr struct {
	exprBase
	Inner Expr
}

// TypeQueryExpr is sizeof/alignof/fieldcount/typeof applied to a type or
// expression.
type TypeQueryExpr struct {
	exprBase
	Kind     string // "sizeof", "alignof", "fieldcount", "typeof"
	Operand  Expr   // set for sizeof(expr) form
	OperandT Type   // set for sizeof(T) form
}

// VolatileExpr is volatile_load(ptr) or volatile_store(ptr, value).
type VolatileExpr struct {
	exprBase
	Store bool
	Ptr   Expr
	Value Expr // nil for load
}

// ---- Statements ----

// Stmt is the tagged-variant interface every statement node implements.
type Stmt interface {
	stmtNode()
	Span() sourcepos.Range
}

type stmtBase struct{ span sourcepos.Range }

func (s *stmtBase) stmtNode()             {}
func (s *stmtBase) Span() sourcepos.Range { return s.span }

// SetSpan sets the statement's source span; used by the parser.
func (s *stmtBase) SetSpan(span sourcepos.Range) { s.span = span }

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	stmtBase
	X Expr
	// MustUseIgnored is set by sema when X calls a must_use function and
	// its value is discarded (spec.md §4.6 "Attributes").
	MustUseIgnored bool
}

// Block is a brace-delimited statement sequence opening a new scope.
type Block struct {
	stmtBase
	Stmts []Stmt
	Scope *Scope
}

// VarDecl is a local (or, at top level, global) variable declaration.
type VarDecl struct {
	stmtBase
	Name    string
	Type    Type
	Init    Expr
	Const   bool
	Symbol  *Symbol
}

// IfStmt is `if`/`else`, or `if const` when Const is set (spec.md §4.7).
type IfStmt struct {
	stmtBase
	Const bool
	Cond  Expr
	Then  *Block
	Else  Stmt // *Block or *IfStmt, or nil
	// ConstTaken records which arm sema's const-eval selected for a
	// `Const` if (true -> Then, false -> Else, nil -> condition did not
	// evaluate and both arms were walked). Lowering consults this
	// instead of re-running const-eval to decide which arm survives.
	ConstTaken *bool
}

// WhileStmt is a `while` loop.
type WhileStmt struct {
	stmtBase
	Label string
	Cond  Expr
	Body  *Block
}

// ForStmt is a C-style `for` loop.
type ForStmt struct {
	stmtBase
	Label string
	Init  Stmt
	Cond  Expr
	Post  Expr
	Body  *Block
}

// ReturnStmt returns from the enclosing function.
type ReturnStmt struct {
	stmtBase
	Value Expr // nil for `return;`
}

// BreakStmt / ContinueStmt target an enclosing loop, optionally by label.
type BreakStmt struct {
	stmtBase
	Label string
}

type ContinueStmt struct {
	stmtBase
	Label string
}

// DeferStmt registers a thunk on the current scope's defer stack
// (spec.md §9 "Defer is not a coroutine").
type DeferStmt struct {
	stmtBase
	Call Expr
}

// MatchStmt is statement-position match.
type MatchStmt struct {
	stmtBase
	Subject Expr
	Arms    []MatchArm
}

// UnsafeStmt is `unsafe { ... }` or `unsafe escape { ... }` (spec.md §4.6
// "Unsafe boundary").
type UnsafeStmt struct {
	stmtBase
	Escape bool
	Body   *Block
}

// StaticAssertStmt is a `static_assert(cond, "msg")` (also usable at top
// level as a Decl; see StaticAssertDecl).
type StaticAssertStmt struct {
	stmtBase
	Cond    Expr
	Message string
}

// SpawnStmt is `spawn expr` — accepted syntactically per the closed
// keyword set (spec.md §3) but concurrency is explicitly out of core
// scope (spec.md §1); sema records it and defers execution semantics to
// the runtime library, which is an external collaborator.
type SpawnStmt struct {
	stmtBase
	Call Expr
}

// ---- Declarations ----

// Decl is the tagged-variant interface every top-level (or struct-body)
// declaration implements.
type Decl interface {
	declNode()
	Span() sourcepos.Range
	DeclName() string
}

type declBase struct {
	span sourcepos.Range
	name string
}

func (d *declBase) declNode()             {}
func (d *declBase) Span() sourcepos.Range { return d.span }
func (d *declBase) DeclName() string      { return d.name }

// SetDeclName sets the declaration's name; used by the parser when it
// finishes parsing a declaration header.
func (d *declBase) SetDeclName(name string) { d.name = name }

// SetSpan sets the declaration's source span.
func (d *declBase) SetSpan(span sourcepos.Range) { d.span = span }

// Attributes collects the function-attribute set from spec.md §3: "const,
// consteval, inline, extern, variadic, method-owner, must-use, pure,
// naked, interrupt, noreturn, section-name, calling-convention".
type Attributes struct {
	Const         bool
	Consteval     bool
	Inline        bool
	Extern        bool
	Variadic      bool
	MethodOwner   string // non-empty for `Foo::method` definitions
	MustUse       bool
	Pure          bool
	Naked         bool
	Interrupt     bool
	Noreturn      bool
	Section       string
	Packed        bool // struct/union only
}

// GenericParamDecl is one entry of a `generic<...>` parameter list.
type GenericParamDecl struct {
	Name       string
	Constraint string
	Pack       bool // T...
}

// Param is a function parameter.
type Param struct {
	Name string
	Type Type
}

// FuncDecl is a function declaration/definition.
type FuncDecl struct {
	declBase
	Generics []GenericParamDecl
	Params   []Param
	Return   Type
	Body     *Block // nil for a declaration without a body
	Attrs    Attributes
	Symbol   *Symbol

	// Instantiations holds monomorphized specializations generated from
	// this generic template, appended by the monomorphizer (spec.md §3
	// "monomorphization ... to append instantiated declarations").
	Instantiations []*FuncDecl
	// InstantiatedFrom is set on a specialization produced by the
	// monomorphizer, pointing back at its generic template.
	InstantiatedFrom *FuncDecl
	TypeArgs         []types.Type
}

// FieldDecl is a struct/union member.
type FieldDecl struct {
	Name string
	Type Type
}

// StructDecl declares a struct, union, or tagged union depending on Kind.
type StructDeclKind uint8

const (
	KindStruct StructDeclKind = iota
	KindUnion
	KindTaggedUnion
)

// VariantDecl is one arm of a tagged-union declaration.
type VariantDecl struct {
	Name    string
	Payload []FieldDecl
}

type StructDecl struct {
	declBase
	Kind     StructDeclKind
	Fields   []FieldDecl   // struct/union
	Variants []VariantDecl // tagged union
	Packed   bool
	Methods  []*FuncDecl // stitched from later `Name::method` definitions
	Symbol   *Symbol
}

// EnumeratorDecl is one enum member with an optional explicit value
// expression (resolved by const-eval when present).
type EnumeratorDecl struct {
	Name  string
	Value Expr // nil means "previous + 1", C style
}

// EnumDecl declares an enum with an explicit or inferred underlying type.
type EnumDecl struct {
	declBase
	Underlying  Type
	Enumerators []EnumeratorDecl
	Symbol      *Symbol
}

// RegionDecl declares an arena region (spec.md §3 "Region Declarations").
type RegionDecl struct {
	declBase
	Capacity     Expr // compile-time capacity expression, in bytes
	DeclDepth    int  // scope depth at declaration; filled by sema
	Body         *Block
	Symbol       *Symbol
}

// GlobalVarDecl is a top-level variable declaration.
type GlobalVarDecl struct {
	declBase
	Type   Type
	Init   Expr
	Const  bool
	Symbol *Symbol
}

// TypeAliasDecl is a `typedef`/alias declaration.
type TypeAliasDecl struct {
	declBase
	Target Type
	Symbol *Symbol
}

// NewtypeDecl declares a distinct nominal wrapper type.
type NewtypeDecl struct {
	declBase
	Target Type
	Symbol *Symbol
}

// StaticAssertDecl is a top-level `static_assert`.
type StaticAssertDecl struct {
	declBase
	Cond    Expr
	Message string
}

// ---- Type syntax (pre-resolution; distinct from types.Type) ----

// Type is the parser's unresolved type syntax node; sema binds each one
// to a canonical types.Type during the body-analysis sub-pass.
type Type interface {
	typeNode()
	Span() sourcepos.Range
}

type typeBase struct{ span sourcepos.Range }

func (t *typeBase) typeNode()             {}
func (t *typeBase) Span() sourcepos.Range { return t.span }

// SetSpan sets the type expression's source span; used by the parser.
func (t *typeBase) SetSpan(span sourcepos.Range) { t.span = span }

// NamedType is a bare identifier type reference (primitive or nominal).
type NamedType struct {
	typeBase
	Name     string
	TypeArgs []Type // explicit generic instantiation arguments
}

// PointerTypeExpr is `T*` or `T const*`.
type PointerTypeExpr struct {
	typeBase
	Elem  Type
	Const bool
}

// ReferenceTypeExpr is `&region T` or `?&region T`.
type ReferenceTypeExpr struct {
	typeBase
	Elem       Type
	RegionName string // "stack", "heap", "static", or an arena identifier
	Mutable    bool
	Nullable   bool
}

// ArrayTypeExpr is `T[N]` or `T[expr]`.
type ArrayTypeExpr struct {
	typeBase
	Elem   Type
	Length Expr // nil means a slice, not a fixed array
}

// FuncTypeExpr is a function-pointer/signature type.
type FuncTypeExpr struct {
	typeBase
	Params   []Type
	Return   Type
	Variadic bool
}

// TupleTypeExpr is `(T1, T2, ...)`.
type TupleTypeExpr struct {
	typeBase
	Elems []Type
}
