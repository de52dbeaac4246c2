package ast

import "github.com/safec-lang/safecc/internal/types"

// SymbolKind tags the variant of a Symbol (spec.md §3 "Scope and Symbol").
type SymbolKind uint8

const (
	SymVariable SymbolKind = iota
	SymFunction
	SymTypeName
	SymRegion
	SymEnumerator
	SymGenericParam
)

// Symbol is a named entity installed into a Scope.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Depth int // declaration scope depth

	// Variable
	VarType     types.Type
	Region      *types.Region
	Mutable     bool
	Initialized bool

	// Function
	FuncType *types.FunctionType
	FuncDecl *FuncDecl

	// TypeName
	Type types.Type

	// Region declaration
	Capacity     int64
	RegionDecl   *RegionDecl

	// Enumerator
	EnumValue int64

	// Back-reference to the owning declaration, non-owning (spec.md §3
	// "Symbol tables hold non-owning back-references to declarations").
	Decl Decl
}

// Scope is a lexical binding environment. Parent is a weak (non-owning)
// back-reference; scopes form a tree rooted at the translation-unit scope
// (spec.md §3).
type Scope struct {
	Parent *Scope
	Depth  int
	names  map[string]*Symbol

	// UnsafeMode is lexically inherited from the enclosing unsafe block.
	UnsafeMode bool
	// InConstContext marks a scope entered while evaluating a const-eval
	// context (spec.md §3).
	InConstContext bool
	// LoopLabels is the stack of enclosing loop labels, innermost last,
	// used to validate labeled break/continue targets.
	LoopLabels []string
	// Defer is the defer stack for this scope, in declaration order;
	// unwound in reverse at every exit (spec.md §3, §9).
	Defer []Expr
}

// NewScope creates a child scope of parent. A nil parent creates the
// translation-unit root scope at depth 0.
func NewScope(parent *Scope) *Scope {
	depth := 0
	unsafeMode := false
	inConst := false
	var labels []string
	if parent != nil {
		depth = parent.Depth + 1
		unsafeMode = parent.UnsafeMode
		inConst = parent.InConstContext
		labels = append(labels, parent.LoopLabels...)
	}
	return &Scope{
		Parent:         parent,
		Depth:          depth,
		names:          make(map[string]*Symbol),
		UnsafeMode:     unsafeMode,
		InConstContext: inConst,
		LoopLabels:     labels,
	}
}

// Declare installs sym under name in this scope. Returns false if the
// name already has a binding in this exact scope (shadowing an outer
// scope is allowed; redeclaring in the same block is not).
func (s *Scope) Declare(name string, sym *Symbol) bool {
	if _, exists := s.names[name]; exists {
		return false
	}
	s.names[name] = sym
	return true
}

// Lookup resolves name to the innermost enclosing symbol (spec.md §4.6
// "Name resolution": "Identifiers resolve to the innermost enclosing
// symbol").
func (s *Scope) Lookup(name string) (*Symbol, *Scope) {
	for sc := s; sc != nil; sc = sc.Parent {
		if sym, ok := sc.names[name]; ok {
			return sym, sc
		}
	}
	return nil, nil
}

// LookupLocal resolves name only within this exact scope, without
// walking to parents — used to detect redeclaration-in-block errors.
func (s *Scope) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := s.names[name]
	return sym, ok
}

// PushDefer appends call to this scope's defer stack in declaration
// order.
func (s *Scope) PushDefer(call Expr) {
	s.Defer = append(s.Defer, call)
}

// UnwindDefer returns this scope's defer thunks in LIFO order, the order
// they must execute on any control-flow exit (spec.md §9 "Defer").
func (s *Scope) UnwindDefer() []Expr {
	out := make([]Expr, len(s.Defer))
	for i, e := range s.Defer {
		out[len(s.Defer)-1-i] = e
	}
	return out
}

// CurrentLoopLabel returns the innermost enclosing loop label, or "" if
// none.
func (s *Scope) CurrentLoopLabel() string {
	if len(s.LoopLabels) == 0 {
		return ""
	}
	return s.LoopLabels[len(s.LoopLabels)-1]
}

// HasLoopLabel reports whether label names an enclosing loop.
func (s *Scope) HasLoopLabel(label string) bool {
	for _, l := range s.LoopLabels {
		if l == label {
			return true
		}
	}
	return false
}
