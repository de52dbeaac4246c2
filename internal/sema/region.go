package sema

import (
	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/sourcepos"
	"github.com/safec-lang/safecc/internal/types"
)

// borrowKind distinguishes the two live-borrow shapes spec.md §3's Alias
// Graph tracks: any number of shared borrows, or a single exclusive one.
type borrowKind uint8

const (
	borrowShared borrowKind = iota
	borrowExclusive
)

type borrow struct {
	kind   borrowKind
	lastUse sourcepos.Pos
	origin  sourcepos.Pos
}

// AliasGraph is the per-function borrow-state machine (spec.md §3 "Alias
// Graph (borrow state)"): for each live variable of reference type, the
// set of outstanding shared borrows, the single possible exclusive
// borrow, and the tombstone "moved" state. Non-lexical: a borrow's live
// range ends at its last recorded use, not at lexical scope end, so
// entering/exiting a block only snapshots and restores the map, it never
// forces a borrow to end early.
type AliasGraph struct {
	shared    map[*ast.Symbol][]borrow
	exclusive map[*ast.Symbol]*borrow
	moved     map[*ast.Symbol]bool
}

func newAliasGraph() *AliasGraph {
	return &AliasGraph{
		shared:    make(map[*ast.Symbol][]borrow),
		exclusive: make(map[*ast.Symbol]*borrow),
		moved:     make(map[*ast.Symbol]bool),
	}
}

// snapshot copies the graph for restoration at an unsafe boundary or a
// branch join (spec.md §4.6 "the analyzer snapshots it at the unsafe
// boundary").
func (g *AliasGraph) snapshot() *AliasGraph {
	out := newAliasGraph()
	for k, v := range g.shared {
		cp := make([]borrow, len(v))
		copy(cp, v)
		out.shared[k] = cp
	}
	for k, v := range g.exclusive {
		b := *v
		out.exclusive[k] = &b
	}
	for k, v := range g.moved {
		out.moved[k] = v
	}
	return out
}

func (g *AliasGraph) restore(snap *AliasGraph) {
	g.shared = snap.shared
	g.exclusive = snap.exclusive
	g.moved = snap.moved
}

// borrowShared registers (or extends) a shared borrow of sym at pos. It
// is rejected only when an exclusive borrow of the same storage is live.
func (a *Analyzer) borrowSharedOf(sym *ast.Symbol, pos sourcepos.Pos) {
	if sym == nil {
		return
	}
	g := a.aliases
	if g.moved[sym] {
		a.diags.Errorf(diagnostic.CategoryAlias, pos, "use of moved value %q", sym.Name)
		return
	}
	if ex, ok := g.exclusive[sym]; ok {
		a.diags.Errorf(diagnostic.CategoryAlias, pos,
			"cannot borrow %q: an exclusive reference is already live (taken here)", sym.Name)
		a.diags.Report(diagnostic.Note, diagnostic.CategoryAlias, ex.origin, "exclusive borrow originates here")
		return
	}
	g.shared[sym] = append(g.shared[sym], borrow{kind: borrowShared, lastUse: pos, origin: pos})
}

// borrowExclusiveOf registers an exclusive (mutable) borrow of sym at
// pos. Rejected if any shared or exclusive borrow of the same storage is
// already live (spec.md §4.6 "At most one exclusive reference, or any
// number of shared references").
func (a *Analyzer) borrowExclusiveOf(sym *ast.Symbol, pos sourcepos.Pos) {
	if sym == nil {
		return
	}
	g := a.aliases
	if g.moved[sym] {
		a.diags.Errorf(diagnostic.CategoryAlias, pos, "use of moved value %q", sym.Name)
		return
	}
	if len(g.shared[sym]) > 0 {
		a.diags.Errorf(diagnostic.CategoryAlias, pos,
			"cannot take an exclusive reference to %q: %d shared reference(s) are already live", sym.Name, len(g.shared[sym]))
		return
	}
	if ex, ok := g.exclusive[sym]; ok {
		a.diags.Errorf(diagnostic.CategoryAlias, pos,
			"cannot take a second exclusive reference to %q", sym.Name)
		a.diags.Report(diagnostic.Note, diagnostic.CategoryAlias, ex.origin, "first exclusive borrow originates here")
		return
	}
	g.exclusive[sym] = &borrow{kind: borrowExclusive, lastUse: pos, origin: pos}
}

// touchUse refreshes the last-use point of any live borrow of sym,
// implementing the non-lexical-lifetime rule: a borrow's live range ends
// at its last use, not at block exit.
func (a *Analyzer) touchUse(sym *ast.Symbol, pos sourcepos.Pos) {
	if sym == nil {
		return
	}
	g := a.aliases
	for i := range g.shared[sym] {
		g.shared[sym][i].lastUse = pos
	}
	if ex, ok := g.exclusive[sym]; ok {
		ex.lastUse = pos
	}
}

// endBorrowsPastLastUse drops borrows whose last use precedes pos,
// approximating "lifetimes end at last use" for a forward one-pass
// walk: once control moves past every recorded use site, the borrow can
// no longer conflict with anything that follows.
func (a *Analyzer) endBorrowsPastLastUse(pos sourcepos.Pos) {
	g := a.aliases
	for sym, bs := range g.shared {
		kept := bs[:0]
		for _, b := range bs {
			if !b.lastUse.Less(pos) {
				kept = append(kept, b)
			}
		}
		if len(kept) == 0 {
			delete(g.shared, sym)
		} else {
			g.shared[sym] = kept
		}
	}
	for sym, ex := range g.exclusive {
		if ex.lastUse.Less(pos) {
			delete(g.exclusive, sym)
		}
	}
}

// checkRegionEscape enforces spec.md §4.6's region/lifetime rules for a
// value of type vt flowing into a location with region-sensitivity
// described by dstDepth (the scope depth of the destination storage) and
// dstIsLongLived (true for globals, &static storage, heap-struct fields,
// and closure captures).
func (a *Analyzer) checkRegionEscape(vt types.Type, srcDepth int, dstDepth int, dstIsLongLived bool, unsafeMode bool, pos sourcepos.Pos) {
	ref, ok := vt.(*types.ReferenceType)
	if !ok {
		return
	}
	switch ref.Region.Kind {
	case types.Stack:
		if (dstIsLongLived || dstDepth < srcDepth) && !unsafeMode {
			a.diags.Errorf(diagnostic.CategoryRegion, pos,
				"&stack reference cannot escape its declaring scope (would outlive its storage)")
		}
	case types.Arena:
		if region := a.lookupRegionDepth(ref.Region.Name); region >= 0 && dstDepth < region {
			a.diags.Errorf(diagnostic.CategoryRegion, pos,
				"&arena<%s> reference cannot escape to a scope shallower than its region's declaration", ref.Region.Name)
		}
	case types.Heap:
		// Use-after-free across a known free site is validated by the
		// local alias graph's moved-state tracking (borrowExclusiveOf /
		// the move checker in body.go), not here.
	}
}

// markHeapMoveIfOwned tombstones sym in the alias graph when e is a bare
// identifier naming a live `&heap` reference: a heap-region reference is a
// unique owning handle, so passing or storing one by its plain name hands
// ownership to whatever it flows into, and the source identifier can no
// longer be read (spec.md §3's Alias Graph "moved" state; spec.md §4.6 (d)
// "passing a &heap reference to a caller that outlives its free site").
func (a *Analyzer) markHeapMoveIfOwned(e ast.Expr) {
	ident, ok := e.(*ast.Ident)
	if !ok || ident.Symbol == nil {
		return
	}
	rt, ok := ident.Symbol.VarType.(*types.ReferenceType)
	if !ok || rt.Region.Kind != types.Heap {
		return
	}
	a.aliases.moved[ident.Symbol] = true
}

func (a *Analyzer) lookupRegionDepth(name string) int {
	sym, _ := a.globals.Lookup(name)
	if sym == nil || sym.Kind != ast.SymRegion {
		return -1
	}
	return sym.Depth
}
