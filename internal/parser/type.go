package parser

import (
	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/sourcepos"
	"github.com/safec-lang/safecc/internal/token"
)

// parseType parses a type expression. Ambiguity resolution per spec.md
// §4.5: `&region T` at declaration start is a reference type, with the
// region lexically next.
func (p *Parser) parseType() ast.Type {
	start := p.cur().Span.Start

	switch p.cur().Kind {
	case token.QuestionAmp:
		p.advance()
		return p.parseReferenceType(start, true)
	case token.Amp:
		p.advance()
		return p.parseReferenceType(start, false)
	}

	base := p.parseBaseType(start)
	return p.parseTypeSuffixes(base, start)
}

// parseReferenceType parses the region-and-mutability tail of `&region T`
// / `?&region T` after the leading marker has already been consumed.
func (p *Parser) parseReferenceType(start sourcepos.Pos, nullable bool) ast.Type {
	regionName := "heap"
	switch p.cur().Kind {
	case token.KwStack:
		regionName = "stack"
		p.advance()
	case token.KwHeap:
		regionName = "heap"
		p.advance()
	case token.KwStatic:
		regionName = "static"
		p.advance()
	case token.KwArena:
		p.advance()
		p.expect(token.Lt, "after arena")
		name := p.expect(token.Ident, "arena region name")
		regionName = name.Value
		p.expect(token.Gt, "to close arena<...>")
	}

	mutable := false
	if p.check(token.Ident) && p.cur().Value == "mut" {
		mutable = true
		p.advance()
	}

	elem := p.parseType()
	t := &ast.ReferenceTypeExpr{Elem: elem, RegionName: regionName, Mutable: mutable, Nullable: nullable}
	t.SetSpan(p.spanFrom(start))
	return t
}

// parseBaseType parses a bare type name with optional generic
// instantiation arguments, or a tuple type. Function-type signatures are
// not parsed; no parser path produces an ast.FuncTypeExpr.
func (p *Parser) parseBaseType(start sourcepos.Pos) ast.Type {
	if p.check(token.LParen) {
		p.advance()
		var elems []ast.Type
		for !p.check(token.RParen) && !p.atEOF() {
			elems = append(elems, p.parseType())
			if _, ok := p.match(token.Comma); !ok {
				break
			}
		}
		p.expect(token.RParen, "to close tuple type")
		t := &ast.TupleTypeExpr{Elems: elems}
		t.SetSpan(p.spanFrom(start))
		return t
	}

	name := p.advance()
	t := &ast.NamedType{Name: kindOrIdentName(name)}

	if _, ok := p.match(token.Lt); ok {
		for !p.check(token.Gt) && !p.atEOF() {
			t.TypeArgs = append(t.TypeArgs, p.parseType())
			if _, ok := p.match(token.Comma); !ok {
				break
			}
		}
		p.expect(token.Gt, "to close generic type argument list")
	}
	t.SetSpan(p.spanFrom(start))
	return t
}

// kindOrIdentName renders a primitive-type keyword or identifier token as
// the type name string.
func kindOrIdentName(t token.Token) string {
	if t.Kind == token.Ident {
		return t.Value
	}
	return t.Kind.String()
}

// parseTypeSuffixes applies trailing `*` (pointer) and `[...]` (array or
// slice) markers, left-to-right, matching C declarator order.
func (p *Parser) parseTypeSuffixes(base ast.Type, start sourcepos.Pos) ast.Type {
	for {
		switch p.cur().Kind {
		case token.Star:
			p.advance()
			isConst := false
			if p.check(token.KwConst) {
				isConst = true
				p.advance()
			}
			t := &ast.PointerTypeExpr{Elem: base, Const: isConst}
			t.SetSpan(p.spanFrom(start))
			base = t
		case token.LBracket:
			p.advance()
			var length ast.Expr
			if !p.check(token.RBracket) {
				length = p.parseExpr()
			}
			p.expect(token.RBracket, "to close array/slice type")
			t := &ast.ArrayTypeExpr{Elem: base, Length: length}
			t.SetSpan(p.spanFrom(start))
			base = t
		default:
			return base
		}
	}
}
