package parser

import (
	"strconv"
	"strings"

	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/sourcepos"
	"github.com/safec-lang/safecc/internal/token"
)

// precedence tables for binary operators, lowest to highest. Higher
// number binds tighter. Assignment is handled separately since it is
// right-associative and sits below everything else.
var binaryPrec = map[token.Kind]int{
	token.PipePipe: 1,
	token.AmpAmp:   2,
	token.Pipe:     3,
	token.Caret:    4,
	token.Amp:      5,
	token.EqEq:     6,
	token.BangEq:   6,
	token.Lt:       7,
	token.Gt:       7,
	token.LtEq:     7,
	token.GtEq:     7,
	token.LtLt:     8,
	token.GtGt:     8,
	token.Plus:     9,
	token.Minus:    9,
	token.PlusPipe: 9,
	token.MinusPipe: 9,
	token.PlusPercent: 9,
	token.MinusPercent: 9,
	token.Star:     10,
	token.Slash:    10,
	token.Percent:  10,
	token.StarPipe: 10,
	token.StarPercent: 10,
}

func opText(k token.Kind) string { return k.String() }

// parseExpr parses a full expression, starting at assignment level (the
// lowest precedence, per spec.md §4.5 "expression parsing uses precedence
// climbing").
func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssign()
}

func (p *Parser) parseAssign() ast.Expr {
	start := p.cur().Span.Start
	left := p.parseTry()

	switch p.cur().Kind {
	case token.Eq, token.PlusEq, token.MinusEq, token.StarEq, token.SlashEq, token.PercentEq,
		token.AmpEq, token.PipeEq, token.CaretEq, token.LtLtEq, token.GtGtEq:
		op := p.advance()
		right := p.parseAssign()
		e := &ast.AssignExpr{Op: opText(op.Kind), Target: left, Val: right}
		e.SetSpan(p.spanFrom(start))
		return e
	}
	return left
}

// parseTry handles the `try` propagation form (spec.md §9 open
// question), spelled as a prefix keyword: `try expr`. A trailing
// `expr try` is not parsed.
func (p *Parser) parseTry() ast.Expr {
	start := p.cur().Span.Start
	if _, ok := p.match(token.KwTry); ok {
		inner := p.parseTry()
		e := &ast.TryExpr{Inner: inner}
		e.SetSpan(p.spanFrom(start))
		return e
	}
	return p.parseBinary(1)
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	start := p.cur().Span.Start
	left := p.parseUnary()

	for {
		prec, ok := binaryPrec[p.cur().Kind]
		if !ok || prec < minPrec {
			return left
		}
		op := p.advance()
		right := p.parseBinary(prec + 1)
		e := &ast.BinaryOp{Op: opText(op.Kind), Left: left, Right: right}
		e.SetSpan(p.spanFrom(start))
		left = e
	}
}

func (p *Parser) parseUnary() ast.Expr {
	start := p.cur().Span.Start
	switch p.cur().Kind {
	case token.Amp:
		p.advance()
		// `&` at expression start is address-of; sema assigns the
		// concrete region once the operand's storage class is known.
		operand := p.parseUnary()
		e := &ast.UnaryOp{Op: "&", Operand: operand}
		e.SetSpan(p.spanFrom(start))
		e.SetLValue(false)
		return e
	case token.Star, token.Minus, token.Bang, token.Tilde, token.PlusPlus, token.MinusMinus:
		op := p.advance()
		operand := p.parseUnary()
		e := &ast.UnaryOp{Op: opText(op.Kind), Operand: operand}
		e.SetSpan(p.spanFrom(start))
		return e
	case token.KwSizeof, token.KwAlignof, token.KwFieldcount, token.KwTypeof:
		return p.parseTypeQuery()
	case token.KwVolatileLoad:
		return p.parseVolatileLoad()
	case token.KwVolatileStore:
		return p.parseVolatileStore()
	case token.KwNew:
		return p.parseNew()
	case token.Pipe:
		return p.parseClosure()
	case token.KwMatch:
		return p.parseMatchExpr()
	case token.LParen:
		if p.looksLikeCast() {
			return p.parseCast()
		}
	}
	return p.parsePostfix()
}

func (p *Parser) looksLikeCast() bool {
	save := p.pos
	defer func() { p.pos = save }()
	p.advance() // (
	switch p.cur().Kind {
	case token.KwBool, token.KwChar, token.KwI8, token.KwI16, token.KwI32, token.KwI64,
		token.KwU8, token.KwU16, token.KwU32, token.KwU64, token.KwF32, token.KwF64, token.KwVoid:
		p.advance()
		return p.check(token.RParen)
	}
	return false
}

func (p *Parser) parseCast() ast.Expr {
	start := p.cur().Span.Start
	p.advance() // (
	target := p.parseType()
	p.expect(token.RParen, "to close cast")
	val := p.parseUnary()
	e := &ast.CastExpr{Target: target, Value: val}
	e.SetSpan(p.spanFrom(start))
	return e
}

func (p *Parser) parseTypeQuery() ast.Expr {
	start := p.cur().Span.Start
	kind := p.advance().Kind.String()
	p.expect(token.LParen, "after "+kind)
	e := &ast.TypeQueryExpr{Kind: kind}
	if p.looksLikeTypeArgument() {
		e.OperandT = p.parseType()
	} else {
		e.Operand = p.parseExpr()
	}
	p.expect(token.RParen, "to close "+kind)
	e.SetSpan(p.spanFrom(start))
	return e
}

func (p *Parser) looksLikeTypeArgument() bool {
	switch p.cur().Kind {
	case token.KwBool, token.KwChar, token.KwI8, token.KwI16, token.KwI32, token.KwI64,
		token.KwU8, token.KwU16, token.KwU32, token.KwU64, token.KwF32, token.KwF64, token.KwVoid,
		token.Amp, token.QuestionAmp:
		return true
	}
	return false
}

func (p *Parser) parseVolatileLoad() ast.Expr {
	start := p.cur().Span.Start
	p.advance()
	p.expect(token.LParen, "after volatile_load")
	ptr := p.parseExpr()
	p.expect(token.RParen, "to close volatile_load")
	e := &ast.VolatileExpr{Ptr: ptr}
	e.SetSpan(p.spanFrom(start))
	return e
}

func (p *Parser) parseVolatileStore() ast.Expr {
	start := p.cur().Span.Start
	p.advance()
	p.expect(token.LParen, "after volatile_store")
	ptr := p.parseExpr()
	p.expect(token.Comma, "between volatile_store arguments")
	val := p.parseExpr()
	p.expect(token.RParen, "to close volatile_store")
	e := &ast.VolatileExpr{Store: true, Ptr: ptr, Value: val}
	e.SetSpan(p.spanFrom(start))
	return e
}

func (p *Parser) parseNew() ast.Expr {
	start := p.cur().Span.Start
	p.advance() // new
	e := &ast.NewExpr{}
	if _, ok := p.match(token.Lt); ok {
		// The named arena region is resolved to a *types.Region by sema
		// once the enclosing region declaration is known; the parser
		// only records that a region was named via e.RegionName.
		name := p.expect(token.Ident, "arena region name")
		e.RegionName = name.Value
		p.expect(token.Gt, "to close new<...>")
	}
	e.Type = p.parseType()
	if _, ok := p.match(token.LBrace); ok {
		for !p.check(token.RBrace) && !p.atEOF() {
			e.Init = append(e.Init, p.parseExpr())
			if _, ok := p.match(token.Comma); !ok {
				break
			}
		}
		p.expect(token.RBrace, "to close new initializer")
	}
	e.SetSpan(p.spanFrom(start))
	return e
}

func (p *Parser) parseClosure() ast.Expr {
	start := p.cur().Span.Start
	p.advance() // |
	var params []ast.Param
	for !p.check(token.Pipe) && !p.atEOF() {
		pt := p.parseType()
		pname := ""
		if p.check(token.Ident) {
			pname = p.advance().Value
		}
		params = append(params, ast.Param{Name: pname, Type: pt})
		if _, ok := p.match(token.Comma); !ok {
			break
		}
	}
	p.expect(token.Pipe, "to close closure parameter list")
	body := p.parseBlock()
	e := &ast.ClosureExpr{Params: params, Body: body}
	e.SetSpan(p.spanFrom(start))
	return e
}

func (p *Parser) parseMatchExpr() ast.Expr {
	start := p.cur().Span.Start
	p.advance() // match
	p.expect(token.LParen, "after match")
	subject := p.parseExpr()
	p.expect(token.RParen, "to close match subject")
	arms := p.parseMatchArms()
	e := &ast.MatchExpr{Subject: subject, Arms: arms}
	e.SetSpan(p.spanFrom(start))
	return e
}

func (p *Parser) parsePostfix() ast.Expr {
	start := p.cur().Span.Start
	e := p.parsePrimary()

	for {
		switch p.cur().Kind {
		case token.Dot, token.Arrow:
			arrow := p.cur().Kind == token.Arrow
			p.advance()
			field := p.expect(token.Ident, "field name")
			n := &ast.FieldAccess{Object: e, Field: field.Value, Arrow: arrow}
			n.SetSpan(p.spanFrom(start))
			e = n
		case token.LBracket:
			p.advance()
			idx := p.parseExpr()
			if _, ok := p.match(token.DotDot); ok {
				var hi ast.Expr
				if !p.check(token.RBracket) {
					hi = p.parseExpr()
				}
				p.expect(token.RBracket, "to close slice expression")
				n := &ast.SliceExpr{Object: e, Lo: idx, Hi: hi}
				n.SetSpan(p.spanFrom(start))
				e = n
				continue
			}
			p.expect(token.RBracket, "to close index expression")
			n := &ast.IndexExpr{Object: e, Index: idx}
			n.SetSpan(p.spanFrom(start))
			e = n
		case token.LParen:
			p.advance()
			var args []ast.Expr
			for !p.check(token.RParen) && !p.atEOF() {
				args = append(args, p.parseExpr())
				if _, ok := p.match(token.Comma); !ok {
					break
				}
			}
			p.expect(token.RParen, "to close call arguments")
			n := &ast.CallExpr{Callee: e, Args: args}
			n.SetSpan(p.spanFrom(start))
			e = n
		case token.PlusPlus, token.MinusMinus:
			op := p.advance()
			n := &ast.UnaryOp{Op: "post" + opText(op.Kind), Operand: e}
			n.SetSpan(p.spanFrom(start))
			e = n
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	start := p.cur().Span.Start
	t := p.cur()

	switch t.Kind {
	case token.IntLiteral:
		p.advance()
		return parseIntLit(t, start, p)
	case token.FloatLiteral:
		p.advance()
		v, _ := strconv.ParseFloat(strings.TrimRight(t.Value, "fF"), 64)
		e := &ast.FloatLit{Value: v}
		e.SetSpan(p.spanFrom(start))
		return e
	case token.StringLiteral:
		p.advance()
		e := &ast.StringLit{Value: t.Value}
		e.SetSpan(p.spanFrom(start))
		return e
	case token.CharLiteral:
		p.advance()
		var r rune
		if len(t.Value) >= 3 {
			r = rune(t.Value[1])
		}
		e := &ast.CharLit{Value: r}
		e.SetSpan(p.spanFrom(start))
		return e
	case token.KwTrue, token.KwFalse:
		p.advance()
		e := &ast.BoolLit{Value: t.Kind == token.KwTrue}
		e.SetSpan(p.spanFrom(start))
		return e
	case token.Ident:
		p.advance()
		e := &ast.Ident{Name: t.Value}
		e.SetSpan(p.spanFrom(start))
		e.SetLValue(true)
		return e
	case token.LParen:
		p.advance()
		inner := p.parseExpr()
		p.expect(token.RParen, "to close parenthesized expression")
		return inner
	default:
		p.errorf("unexpected token %s in expression", t.Kind)
		p.advance()
		e := &ast.Ident{Name: "<error>"}
		e.SetSpan(p.spanFrom(start))
		return e
	}
}

func parseIntLit(t token.Token, start sourcepos.Pos, p *Parser) *ast.IntLit {
	raw := t.Value
	suffix := ""
	for len(raw) > 0 {
		c := raw[len(raw)-1]
		if c == 'U' || c == 'u' || c == 'L' || c == 'l' {
			suffix = string(c) + suffix
			raw = raw[:len(raw)-1]
			continue
		}
		break
	}
	base := 10
	switch {
	case strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X"):
		base = 16
		raw = raw[2:]
	case strings.HasPrefix(raw, "0b") || strings.HasPrefix(raw, "0B"):
		base = 2
		raw = raw[2:]
	}
	raw = strings.ReplaceAll(raw, "_", "")
	v, _ := strconv.ParseInt(raw, base, 64)
	e := &ast.IntLit{Value: v, Suffix: strings.ToUpper(suffix)}
	e.SetSpan(p.spanFrom(start))
	return e
}
