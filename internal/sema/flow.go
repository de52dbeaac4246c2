package sema

import "github.com/safec-lang/safecc/internal/ast"

// initSet tracks the definitely-initialized variables along the current
// control-flow path (spec.md §4.6 "Definite initialization"). The meet
// operation at control-flow joins is intersection: a variable is
// definitely initialized after a join only if every incoming path
// initialized it.
type initSet struct {
	m map[*ast.Symbol]bool
}

func newInitSet() *initSet { return &initSet{m: make(map[*ast.Symbol]bool)} }

func (s *initSet) mark(sym *ast.Symbol) { s.m[sym] = true }

func (s *initSet) isInit(sym *ast.Symbol) bool { return s.m[sym] }

// clone takes an independent snapshot for a branch.
func (s *initSet) clone() *initSet {
	out := newInitSet()
	for k, v := range s.m {
		out.m[k] = v
	}
	return out
}

// meet intersects with other in place: keeps only symbols initialized on
// both paths, modeling "may be uninitialized unless proved on all paths".
func (s *initSet) meet(other *initSet) {
	for k := range s.m {
		if !other.m[k] {
			delete(s.m, k)
		}
	}
}

// nullState is the flow-sensitive refinement of a reference-typed local
// for spec.md §4.6 "Nullability".
type nullState uint8

const (
	nullUnknown nullState = iota // may be null unless proved otherwise
	nullProvenNonNull
	nullProvenNull
)

// union is the join-point combination rule: "may be null unless proved
// otherwise on all paths" — only unanimous non-null survives a join.
func unionNullState(a, b nullState) nullState {
	if a == b {
		return a
	}
	return nullUnknown
}

func (a *Analyzer) setNullable(sym *ast.Symbol, st nullState) {
	if sym == nil {
		return
	}
	a.nullables[sym] = st
}

func (a *Analyzer) nullStateOf(sym *ast.Symbol) nullState {
	if sym == nil {
		return nullUnknown
	}
	return a.nullables[sym]
}

// cloneNullables snapshots the nullability map for an independent branch.
func (a *Analyzer) cloneNullables() map[*ast.Symbol]nullState {
	out := make(map[*ast.Symbol]nullState, len(a.nullables))
	for k, v := range a.nullables {
		out[k] = v
	}
	return out
}

// mergeNullables joins two branch snapshots into the current map using
// unionNullState, covering every symbol seen in either branch.
func (a *Analyzer) mergeNullables(then, els map[*ast.Symbol]nullState) {
	merged := make(map[*ast.Symbol]nullState)
	for sym, st := range then {
		merged[sym] = unionNullState(st, els[sym])
	}
	for sym, st := range els {
		if _, ok := merged[sym]; !ok {
			merged[sym] = unionNullState(nullUnknown, st)
		}
	}
	a.nullables = merged
}
