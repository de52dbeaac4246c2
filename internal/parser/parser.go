// Package parser implements the recursive-descent SafeC parser
// (spec.md §4.5). Parsing is separate for declarations and for
// statements/expressions; expression parsing uses precedence climbing.
// The parser never computes types, does not resolve names, and does not
// evaluate constants — it only produces a fixed-shape AST for semantic
// analysis to annotate later, exactly as spec.md §4.5 requires.
package parser

import (
	"fmt"

	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/sourcepos"
	"github.com/safec-lang/safecc/internal/token"
)

// Parser holds the token stream and cursor for one translation unit.
type Parser struct {
	file   sourcepos.FileID
	toks   []token.Token
	pos    int
	diags  *diagnostic.Sink
}

// New creates a Parser over an already-lexed token stream.
func New(file sourcepos.FileID, toks []token.Token, diags *diagnostic.Sink) *Parser {
	return &Parser{file: file, toks: toks, diags: diags}
}

// Parse parses a complete translation unit.
func (p *Parser) Parse() *ast.Module {
	m := &ast.Module{File: p.file}
	for !p.atEOF() {
		start := p.pos
		errsBefore := len(p.diags.Diagnostics())
		d := p.parseTopLevelDecl()
		if len(p.diags.Diagnostics()) > errsBefore {
			// This declaration had a syntax error: resynchronize to the
			// next plausible declaration boundary instead of trusting
			// whatever position the failed parse left us at (spec.md §7
			// "Propagation policy").
			p.syncToDeclStart()
			if p.pos == start {
				p.advance()
			}
			continue
		}
		if d != nil {
			m.Decls = append(m.Decls, d)
		}
		if p.pos == start {
			// parseTopLevelDecl failed to consume anything: avoid an
			// infinite loop by skipping the offending token.
			p.advance()
		}
	}
	return m
}

// ---- token-stream primitives ----

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(offset int) token.Token {
	i := p.pos + offset
	if i >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[i]
}

func (p *Parser) atEOF() bool { return p.cur().Kind == token.EOF }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) check(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) match(k token.Kind) (token.Token, bool) {
	if p.check(k) {
		return p.advance(), true
	}
	return token.Token{}, false
}

func (p *Parser) expect(k token.Kind, context string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	p.errorf("expected %s %s, found %s", k, context, p.cur().Kind)
	return p.cur()
}

func (p *Parser) errorf(format string, args ...any) {
	p.diags.Errorf(diagnostic.CategorySyntax, p.cur().Span.Start, format, args...)
}

func (p *Parser) spanFrom(start sourcepos.Pos) sourcepos.Range {
	end := p.cur().Span.Start
	if p.pos > 0 {
		end = p.toks[p.pos-1].Span.End
	}
	return sourcepos.Range{Start: start, End: end}
}

// syncToDeclStart skips tokens until a plausible top-level declaration
// boundary, used for the parser's own local error recovery (spec.md §7
// "Propagation policy": local recovery points let analysis continue).
func (p *Parser) syncToDeclStart() {
	for !p.atEOF() {
		switch p.cur().Kind {
		case token.Semicolon:
			p.advance()
			return
		case token.KwStruct, token.KwUnion, token.KwEnum, token.KwRegion, token.KwGeneric,
			token.KwConst, token.KwStatic, token.KwTypedef, token.KwNewtype,
			token.KwBool, token.KwChar, token.KwI8, token.KwI16, token.KwI32, token.KwI64,
			token.KwU8, token.KwU16, token.KwU32, token.KwU64, token.KwF32, token.KwF64, token.KwVoid:
			return
		default:
			p.advance()
		}
	}
}

func kindName(k token.Kind) string { return k.String() }
func fmtKind(k token.Kind) string  { return fmt.Sprintf("%q", kindName(k)) }
