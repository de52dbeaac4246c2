package parser

import (
	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/token"
)

func (p *Parser) parseBlock() *ast.Block {
	start := p.cur().Span.Start
	p.expect(token.LBrace, "to open block")
	b := &ast.Block{}
	for !p.check(token.RBrace) && !p.atEOF() {
		b.Stmts = append(b.Stmts, p.parseStmt())
	}
	p.expect(token.RBrace, "to close block")
	b.SetSpan(p.spanFrom(start))
	return b
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur().Kind {
	case token.LBrace:
		return p.parseBlock()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile("")
	case token.KwFor:
		return p.parseFor("")
	case token.KwReturn:
		return p.parseReturn()
	case token.KwBreak:
		return p.parseBreak()
	case token.KwContinue:
		return p.parseContinue()
	case token.KwDefer:
		return p.parseDefer()
	case token.KwMatch:
		return p.parseMatchStmt()
	case token.KwUnsafe:
		return p.parseUnsafe()
	case token.KwStaticAssert:
		return p.parseStaticAssertStmt()
	case token.KwSpawn:
		return p.parseSpawn()
	case token.Ident:
		if p.peekAt(1).Kind == token.Colon {
			label := p.advance().Value
			p.advance() // :
			switch p.cur().Kind {
			case token.KwWhile:
				return p.parseWhile(label)
			case token.KwFor:
				return p.parseFor(label)
			}
		}
	}

	if p.looksLikeVarDecl() {
		return p.parseVarDecl()
	}
	return p.parseExprStmt()
}

// looksLikeVarDecl distinguishes `T name = ...;` / `T name;` from a bare
// expression statement by scanning ahead without consuming tokens.
func (p *Parser) looksLikeVarDecl() bool {
	switch p.cur().Kind {
	case token.KwConst, token.KwBool, token.KwChar, token.KwI8, token.KwI16, token.KwI32, token.KwI64,
		token.KwU8, token.KwU16, token.KwU32, token.KwU64, token.KwF32, token.KwF64, token.KwVoid,
		token.Amp, token.QuestionAmp:
		return true
	case token.Ident:
		save := p.pos
		defer func() { p.pos = save }()
		p.parseType()
		return p.check(token.Ident)
	default:
		return false
	}
}

func (p *Parser) parseVarDecl() *ast.VarDecl {
	start := p.cur().Span.Start
	isConst := false
	if _, ok := p.match(token.KwConst); ok {
		isConst = true
	}
	ty := p.parseType()
	name := p.expect(token.Ident, "variable name")
	v := &ast.VarDecl{Name: name.Value, Type: ty, Const: isConst}
	if _, ok := p.match(token.Eq); ok {
		v.Init = p.parseExpr()
	}
	p.expect(token.Semicolon, "after variable declaration")
	v.SetSpan(p.spanFrom(start))
	return v
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.cur().Span.Start
	p.advance() // if
	isConst := false
	if _, ok := p.match(token.KwConst); ok {
		isConst = true
	}
	p.expect(token.LParen, "after if")
	cond := p.parseExpr()
	p.expect(token.RParen, "to close if condition")
	then := p.parseBlock()
	s := &ast.IfStmt{Const: isConst, Cond: cond, Then: then}
	if _, ok := p.match(token.KwElse); ok {
		if p.check(token.KwIf) {
			s.Else = p.parseIf()
		} else {
			s.Else = p.parseBlock()
		}
	}
	s.SetSpan(p.spanFrom(start))
	return s
}

func (p *Parser) parseWhile(label string) ast.Stmt {
	start := p.cur().Span.Start
	p.advance() // while
	p.expect(token.LParen, "after while")
	cond := p.parseExpr()
	p.expect(token.RParen, "to close while condition")
	body := p.parseBlock()
	s := &ast.WhileStmt{Label: label, Cond: cond, Body: body}
	s.SetSpan(p.spanFrom(start))
	return s
}

func (p *Parser) parseFor(label string) ast.Stmt {
	start := p.cur().Span.Start
	p.advance() // for
	p.expect(token.LParen, "after for")

	var init ast.Stmt
	if !p.check(token.Semicolon) {
		if p.looksLikeVarDecl() {
			init = p.parseVarDecl()
		} else {
			init = p.parseExprStmt()
		}
	} else {
		p.advance()
	}

	var cond ast.Expr
	if !p.check(token.Semicolon) {
		cond = p.parseExpr()
	}
	p.expect(token.Semicolon, "after for condition")

	var post ast.Expr
	if !p.check(token.RParen) {
		post = p.parseExpr()
	}
	p.expect(token.RParen, "to close for clause")

	body := p.parseBlock()
	s := &ast.ForStmt{Label: label, Init: init, Cond: cond, Post: post, Body: body}
	s.SetSpan(p.spanFrom(start))
	return s
}

func (p *Parser) parseReturn() ast.Stmt {
	start := p.cur().Span.Start
	p.advance() // return
	var val ast.Expr
	if !p.check(token.Semicolon) {
		val = p.parseExpr()
	}
	p.expect(token.Semicolon, "after return")
	s := &ast.ReturnStmt{Value: val}
	s.SetSpan(p.spanFrom(start))
	return s
}

func (p *Parser) parseBreak() ast.Stmt {
	start := p.cur().Span.Start
	p.advance()
	label := ""
	if p.check(token.Ident) {
		label = p.advance().Value
	}
	p.expect(token.Semicolon, "after break")
	s := &ast.BreakStmt{Label: label}
	s.SetSpan(p.spanFrom(start))
	return s
}

func (p *Parser) parseContinue() ast.Stmt {
	start := p.cur().Span.Start
	p.advance()
	label := ""
	if p.check(token.Ident) {
		label = p.advance().Value
	}
	p.expect(token.Semicolon, "after continue")
	s := &ast.ContinueStmt{Label: label}
	s.SetSpan(p.spanFrom(start))
	return s
}

func (p *Parser) parseDefer() ast.Stmt {
	start := p.cur().Span.Start
	p.advance() // defer
	call := p.parseExpr()
	p.expect(token.Semicolon, "after defer")
	s := &ast.DeferStmt{Call: call}
	s.SetSpan(p.spanFrom(start))
	return s
}

func (p *Parser) parseSpawn() ast.Stmt {
	start := p.cur().Span.Start
	p.advance() // spawn
	call := p.parseExpr()
	p.expect(token.Semicolon, "after spawn")
	s := &ast.SpawnStmt{Call: call}
	s.SetSpan(p.spanFrom(start))
	return s
}

func (p *Parser) parseUnsafe() ast.Stmt {
	start := p.cur().Span.Start
	p.advance() // unsafe
	escape := false
	if p.check(token.KwEscape) {
		escape = true
		p.advance()
	}
	body := p.parseBlock()
	s := &ast.UnsafeStmt{Escape: escape, Body: body}
	s.SetSpan(p.spanFrom(start))
	return s
}

func (p *Parser) parseStaticAssertStmt() ast.Stmt {
	start := p.cur().Span.Start
	p.advance()
	p.expect(token.LParen, "after static_assert")
	cond := p.parseExpr()
	msg := ""
	if _, ok := p.match(token.Comma); ok {
		if s, ok := p.match(token.StringLiteral); ok {
			msg = s.Value
		}
	}
	p.expect(token.RParen, "to close static_assert")
	p.expect(token.Semicolon, "after static_assert")
	s := &ast.StaticAssertStmt{Cond: cond, Message: msg}
	s.SetSpan(p.spanFrom(start))
	return s
}

func (p *Parser) parseMatchArms() []ast.MatchArm {
	p.expect(token.LBrace, "to open match body")
	var arms []ast.MatchArm
	for !p.check(token.RBrace) && !p.atEOF() {
		start := p.cur().Span.Start
		if !p.check(token.KwDefault) {
			p.expect(token.KwCase, "to begin match arm")
		}
		arm := ast.MatchArm{}
		if _, ok := p.match(token.KwDefault); ok {
			arm.IsDefault = true
		} else if p.check(token.Dot) {
			p.advance()
			vname := p.expect(token.Ident, "variant name")
			arm.VariantTag = vname.Value
			if _, ok := p.match(token.LParen); ok {
				if p.check(token.Ident) {
					arm.Bind = p.advance().Value
				}
				p.expect(token.RParen, "to close variant binding")
			}
		} else {
			lo := p.parseExpr()
			if _, ok := p.match(token.DotDot); ok {
				arm.RangeLo = lo
				arm.RangeHi = p.parseExpr()
			} else {
				arm.Literal = lo
			}
		}
		p.expect(token.Colon, "after match arm pattern")
		arm.Body = p.parseStmt()
		arm.Span = p.spanFrom(start)
		arms = append(arms, arm)
	}
	p.expect(token.RBrace, "to close match body")
	return arms
}

func (p *Parser) parseMatchStmt() ast.Stmt {
	start := p.cur().Span.Start
	p.advance() // match
	p.expect(token.LParen, "after match")
	subject := p.parseExpr()
	p.expect(token.RParen, "to close match subject")
	arms := p.parseMatchArms()
	s := &ast.MatchStmt{Subject: subject, Arms: arms}
	s.SetSpan(p.spanFrom(start))
	return s
}

func (p *Parser) parseExprStmt() ast.Stmt {
	start := p.cur().Span.Start
	x := p.parseExpr()
	p.expect(token.Semicolon, "after expression statement")
	s := &ast.ExprStmt{X: x}
	s.SetSpan(p.spanFrom(start))
	return s
}
