package parser

import (
	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/token"
)

// parseTopLevelDecl parses one top-level declaration: function, struct/
// union/tagged-union, enum, region, global variable, type alias, newtype,
// or static_assert (spec.md §3 "AST Nodes ... Declarations include").
func (p *Parser) parseTopLevelDecl() ast.Decl {
	attrs := p.parseAttributes()

	switch p.cur().Kind {
	case token.KwStruct, token.KwUnion:
		return p.parseStructLike(attrs)
	case token.KwEnum:
		return p.parseEnum()
	case token.KwRegion:
		return p.parseRegion()
	case token.KwTypedef:
		return p.parseTypeAlias()
	case token.KwNewtype:
		return p.parseNewtype()
	case token.KwStaticAssert:
		return p.parseStaticAssertDecl()
	case token.KwGeneric:
		return p.parseFunc(attrs)
	default:
		// Either a global variable or a function: both start with a type.
		if p.looksLikeFuncDecl() {
			return p.parseFunc(attrs)
		}
		g := p.parseGlobalVar()
		// parseAttributes has already consumed a leading `const`.
		g.Const = g.Const || attrs.Const
		return g
	}
}

// parseAttributes consumes the attribute keywords that may prefix a
// declaration: const, consteval, inline, extern, pure, naked, interrupt,
// noreturn, must_use, section("..."), packed (spec.md §3 Attributes).
func (p *Parser) parseAttributes() ast.Attributes {
	var a ast.Attributes
	for {
		switch p.cur().Kind {
		case token.KwConst:
			a.Const = true
			p.advance()
		case token.KwConsteval:
			a.Consteval = true
			p.advance()
		case token.KwInline:
			a.Inline = true
			p.advance()
		case token.KwExtern:
			a.Extern = true
			p.advance()
		case token.KwPure:
			a.Pure = true
			p.advance()
		case token.KwNaked:
			a.Naked = true
			p.advance()
		case token.KwInterrupt:
			a.Interrupt = true
			p.advance()
		case token.KwNoreturn:
			a.Noreturn = true
			p.advance()
		case token.KwMustUse:
			a.MustUse = true
			p.advance()
		case token.KwPacked:
			a.Packed = true
			p.advance()
		case token.KwSection:
			p.advance()
			p.expect(token.LParen, "after section")
			if s, ok := p.match(token.StringLiteral); ok {
				a.Section = s.Value
			}
			p.expect(token.RParen, "after section name")
		default:
			return a
		}
	}
}

// looksLikeFuncDecl distinguishes `T name(...)` (function) from
// `T name = init;` or `T name;` (global variable) by scanning past the
// declared type and name to see whether a `(` follows, without
// consuming tokens permanently.
func (p *Parser) looksLikeFuncDecl() bool {
	save := p.pos
	defer func() { p.pos = save }()

	p.parseType()
	if !p.check(token.Ident) {
		return false
	}
	p.advance()
	if p.check(token.ColonColon) {
		p.advance()
		p.expect(token.Ident, "method name after ::")
	}
	return p.check(token.LParen)
}

func (p *Parser) parseFunc(attrs ast.Attributes) *ast.FuncDecl {
	start := p.cur().Span.Start
	fn := &ast.FuncDecl{Attrs: attrs}

	if p.check(token.KwGeneric) {
		p.advance()
		p.expect(token.Lt, "after generic")
		for !p.check(token.Gt) && !p.atEOF() {
			gp := ast.GenericParamDecl{}
			name := p.expect(token.Ident, "generic parameter name")
			gp.Name = name.Value
			if _, ok := p.match(token.Ellipsis); ok {
				gp.Pack = true
			}
			if _, ok := p.match(token.Colon); ok {
				c := p.expect(token.Ident, "constraint name")
				gp.Constraint = c.Value
			}
			fn.Generics = append(fn.Generics, gp)
			if _, ok := p.match(token.Comma); !ok {
				break
			}
		}
		p.expect(token.Gt, "to close generic parameter list")
	}

	fn.Return = p.parseType()
	name := p.expect(token.Ident, "function name")
	fn.SetDeclName(name.Value)

	if _, ok := p.match(token.ColonColon); ok {
		method := p.expect(token.Ident, "method name after ::")
		fn.Attrs.MethodOwner = name.Value
		fn.SetDeclName(method.Value)
	}

	p.expect(token.LParen, "to open parameter list")
	for !p.check(token.RParen) && !p.atEOF() {
		if _, ok := p.match(token.Ellipsis); ok {
			fn.Attrs.Variadic = true
			break
		}
		pt := p.parseType()
		pname := ""
		if p.check(token.Ident) {
			pname = p.advance().Value
		}
		fn.Params = append(fn.Params, ast.Param{Name: pname, Type: pt})
		if _, ok := p.match(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RParen, "to close parameter list")

	if p.check(token.LBrace) {
		fn.Body = p.parseBlock()
	} else {
		p.expect(token.Semicolon, "after function declaration without a body")
	}

	fn.SetSpan(p.spanFrom(start))
	return fn
}

func (p *Parser) parseGlobalVar() *ast.GlobalVarDecl {
	start := p.cur().Span.Start
	isConst := false
	if _, ok := p.match(token.KwConst); ok {
		isConst = true
	}
	ty := p.parseType()
	name := p.expect(token.Ident, "global variable name")
	g := &ast.GlobalVarDecl{Type: ty, Const: isConst}
	g.SetDeclName(name.Value)
	if _, ok := p.match(token.Eq); ok {
		g.Init = p.parseExpr()
	}
	p.expect(token.Semicolon, "after global variable declaration")
	g.SetSpan(p.spanFrom(start))
	return g
}

func (p *Parser) parseStructLike(attrs ast.Attributes) *ast.StructDecl {
	start := p.cur().Span.Start
	kind := ast.KindStruct
	if p.check(token.KwUnion) {
		kind = ast.KindUnion
	}
	p.advance()

	name := p.expect(token.Ident, "struct/union name")
	d := &ast.StructDecl{Kind: kind, Packed: attrs.Packed}
	d.SetDeclName(name.Value)

	p.expect(token.LBrace, "to open struct/union body")
	for !p.check(token.RBrace) && !p.atEOF() {
		if p.check(token.Ident) && p.peekAt(1).Kind == token.LParen {
			// Tagged-union variant: Name(payload, ...)
			d.Kind = ast.KindTaggedUnion
			vname := p.advance().Value
			p.advance() // (
			var payload []ast.FieldDecl
			for !p.check(token.RParen) && !p.atEOF() {
				ft := p.parseType()
				fname := ""
				if p.check(token.Ident) {
					fname = p.advance().Value
				}
				payload = append(payload, ast.FieldDecl{Name: fname, Type: ft})
				if _, ok := p.match(token.Comma); !ok {
					break
				}
			}
			p.expect(token.RParen, "to close variant payload")
			p.expect(token.Semicolon, "after variant")
			d.Variants = append(d.Variants, ast.VariantDecl{Name: vname, Payload: payload})
			continue
		}
		ft := p.parseType()
		fname := p.expect(token.Ident, "field name")
		p.expect(token.Semicolon, "after field declaration")
		d.Fields = append(d.Fields, ast.FieldDecl{Name: fname.Value, Type: ft})
	}
	p.expect(token.RBrace, "to close struct/union body")
	d.SetSpan(p.spanFrom(start))
	return d
}

func (p *Parser) parseEnum() *ast.EnumDecl {
	start := p.cur().Span.Start
	p.advance() // enum
	name := p.expect(token.Ident, "enum name")
	d := &ast.EnumDecl{}
	d.SetDeclName(name.Value)

	if _, ok := p.match(token.Colon); ok {
		d.Underlying = p.parseType()
	}

	p.expect(token.LBrace, "to open enum body")
	for !p.check(token.RBrace) && !p.atEOF() {
		ename := p.expect(token.Ident, "enumerator name")
		e := ast.EnumeratorDecl{Name: ename.Value}
		if _, ok := p.match(token.Eq); ok {
			e.Value = p.parseExpr()
		}
		d.Enumerators = append(d.Enumerators, e)
		if _, ok := p.match(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RBrace, "to close enum body")
	d.SetSpan(p.spanFrom(start))
	return d
}

func (p *Parser) parseRegion() *ast.RegionDecl {
	start := p.cur().Span.Start
	p.advance() // region
	name := p.expect(token.Ident, "region name")
	d := &ast.RegionDecl{}
	d.SetDeclName(name.Value)

	p.expect(token.LBrace, "to open region capacity block")
	cap := p.expect(token.Ident, "expected 'capacity'")
	_ = cap
	p.expect(token.Colon, "after capacity")
	d.Capacity = p.parseExpr()
	p.expect(token.RBrace, "to close region capacity block")

	d.Body = p.parseBlock()
	d.SetSpan(p.spanFrom(start))
	return d
}

func (p *Parser) parseTypeAlias() *ast.TypeAliasDecl {
	start := p.cur().Span.Start
	p.advance() // typedef
	target := p.parseType()
	name := p.expect(token.Ident, "alias name")
	d := &ast.TypeAliasDecl{Target: target}
	d.SetDeclName(name.Value)
	p.expect(token.Semicolon, "after typedef")
	d.SetSpan(p.spanFrom(start))
	return d
}

func (p *Parser) parseNewtype() *ast.NewtypeDecl {
	start := p.cur().Span.Start
	p.advance() // newtype
	name := p.expect(token.Ident, "newtype name")
	p.expect(token.Eq, "after newtype name")
	target := p.parseType()
	d := &ast.NewtypeDecl{Target: target}
	d.SetDeclName(name.Value)
	p.expect(token.Semicolon, "after newtype declaration")
	d.SetSpan(p.spanFrom(start))
	return d
}

func (p *Parser) parseStaticAssertDecl() *ast.StaticAssertDecl {
	start := p.cur().Span.Start
	p.advance() // static_assert
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
	d := &ast.StaticAssertDecl{Cond: cond, Message: msg}
	d.SetSpan(p.spanFrom(start))
	return d
}
