package preprocessor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/sourcepos"
)

// evalIntExpr evaluates a `#if`/`#elif` conditional-arithmetic expression
// (spec.md §4.3): C preprocessor integer arithmetic, extended with
// recognition of `defined(NAME)` returning 0 or 1. An identifier that is
// not a known macro evaluates to zero, emitting a warning unless strict
// mode promotes it to an error (spec.md §4.3 "Errors").
func (p *Preprocessor) evalIntExpr(file sourcepos.FileID, expr string) (int64, error) {
	expr = p.substituteDefined(expr)
	expr = p.expandMacros(file, expr, make(map[string]bool))
	toks, err := tokenizeCondExpr(expr)
	if err != nil {
		return 0, err
	}
	c := &condParser{toks: toks, pp: p, file: file}
	val, err := c.parseExpr()
	if err != nil {
		return 0, err
	}
	if c.pos != len(c.toks) {
		return 0, fmt.Errorf("trailing tokens in conditional expression")
	}
	return val, nil
}

func (p *Preprocessor) substituteDefined(expr string) string {
	var out strings.Builder
	i := 0
	for i < len(expr) {
		if strings.HasPrefix(expr[i:], "defined") && (i+7 >= len(expr) || !isIdentRune(expr[i+7])) {
			j := i + 7
			for j < len(expr) && expr[j] == ' ' {
				j++
			}
			var name string
			if j < len(expr) && expr[j] == '(' {
				close := strings.IndexByte(expr[j:], ')')
				if close < 0 {
					out.WriteString(expr[i:])
					break
				}
				name = strings.TrimSpace(expr[j+1 : j+close])
				j += close + 1
			} else {
				k := j
				for k < len(expr) && isIdentRune(expr[k]) {
					k++
				}
				name = expr[j:k]
				j = k
			}
			if _, ok := p.macros[name]; ok {
				out.WriteString("1")
			} else {
				out.WriteString("0")
			}
			i = j
			continue
		}
		out.WriteByte(expr[i])
		i++
	}
	return out.String()
}

type condTok struct {
	kind string // "num", "ident", "op"
	text string
	num  int64
}

func tokenizeCondExpr(expr string) ([]condTok, error) {
	var toks []condTok
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c >= '0' && c <= '9':
			j := i
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9') {
				j++
			}
			n, err := strconv.ParseInt(expr[i:j], 10, 64)
			if err != nil {
				return nil, err
			}
			toks = append(toks, condTok{kind: "num", num: n})
			i = j
		case isIdentRune(c):
			j := i
			for j < len(expr) && isIdentRune(expr[j]) {
				j++
			}
			toks = append(toks, condTok{kind: "ident", text: expr[i:j]})
			i = j
		default:
			two := ""
			if i+1 < len(expr) {
				two = expr[i : i+2]
			}
			switch two {
			case "&&", "||", "==", "!=", "<=", ">=", "<<", ">>":
				toks = append(toks, condTok{kind: "op", text: two})
				i += 2
				continue
			}
			toks = append(toks, condTok{kind: "op", text: string(c)})
			i++
		}
	}
	return toks, nil
}

// condParser is a small precedence-climbing parser over the conditional
// expression's tokens, grounded on the same recursive-descent shape as
// the real expression parser but trimmed to C's preprocessor subset.
type condParser struct {
	toks []condTok
	pos  int
	pp   *Preprocessor
	file sourcepos.FileID
}

func (c *condParser) peek() (condTok, bool) {
	if c.pos >= len(c.toks) {
		return condTok{}, false
	}
	return c.toks[c.pos], true
}

func (c *condParser) parseExpr() (int64, error) { return c.parseOr() }

func (c *condParser) parseOr() (int64, error) {
	left, err := c.parseAnd()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := c.peek()
		if !ok || t.text != "||" {
			return left, nil
		}
		c.pos++
		right, err := c.parseAnd()
		if err != nil {
			return 0, err
		}
		if left != 0 || right != 0 {
			left = 1
		} else {
			left = 0
		}
	}
}

func (c *condParser) parseAnd() (int64, error) {
	left, err := c.parseCmp()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := c.peek()
		if !ok || t.text != "&&" {
			return left, nil
		}
		c.pos++
		right, err := c.parseCmp()
		if err != nil {
			return 0, err
		}
		if left != 0 && right != 0 {
			left = 1
		} else {
			left = 0
		}
	}
}

func (c *condParser) parseCmp() (int64, error) {
	left, err := c.parseAdd()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := c.peek()
		if !ok || (t.text != "==" && t.text != "!=" && t.text != "<" && t.text != ">" && t.text != "<=" && t.text != ">=") {
			return left, nil
		}
		c.pos++
		right, err := c.parseAdd()
		if err != nil {
			return 0, err
		}
		var result bool
		switch t.text {
		case "==":
			result = left == right
		case "!=":
			result = left != right
		case "<":
			result = left < right
		case ">":
			result = left > right
		case "<=":
			result = left <= right
		case ">=":
			result = left >= right
		}
		if result {
			left = 1
		} else {
			left = 0
		}
	}
}

func (c *condParser) parseAdd() (int64, error) {
	left, err := c.parseMul()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := c.peek()
		if !ok || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		c.pos++
		right, err := c.parseMul()
		if err != nil {
			return 0, err
		}
		if t.text == "+" {
			left += right
		} else {
			left -= right
		}
	}
}

func (c *condParser) parseMul() (int64, error) {
	left, err := c.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := c.peek()
		if !ok || (t.text != "*" && t.text != "/" && t.text != "%") {
			return left, nil
		}
		c.pos++
		right, err := c.parseUnary()
		if err != nil {
			return 0, err
		}
		switch t.text {
		case "*":
			left *= right
		case "/":
			if right == 0 {
				return 0, fmt.Errorf("division by zero in conditional expression")
			}
			left /= right
		case "%":
			if right == 0 {
				return 0, fmt.Errorf("division by zero in conditional expression")
			}
			left %= right
		}
	}
}

func (c *condParser) parseUnary() (int64, error) {
	t, ok := c.peek()
	if ok && t.kind == "op" && (t.text == "!" || t.text == "-" || t.text == "+" || t.text == "~") {
		c.pos++
		v, err := c.parseUnary()
		if err != nil {
			return 0, err
		}
		switch t.text {
		case "!":
			if v == 0 {
				return 1, nil
			}
			return 0, nil
		case "-":
			return -v, nil
		case "~":
			return ^v, nil
		default:
			return v, nil
		}
	}
	return c.parsePrimary()
}

func (c *condParser) parsePrimary() (int64, error) {
	t, ok := c.peek()
	if !ok {
		return 0, fmt.Errorf("unexpected end of conditional expression")
	}
	switch t.kind {
	case "num":
		c.pos++
		return t.num, nil
	case "ident":
		c.pos++
		if c.pp.strictUndefined {
			return 0, fmt.Errorf("undefined identifier %q in strict conditional arithmetic", t.text)
		}
		c.pp.diags.Warnf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: c.file}, "undefined macro %q treated as 0 in #if", t.text)
		return 0, nil
	case "op":
		if t.text == "(" {
			c.pos++
			v, err := c.parseExpr()
			if err != nil {
				return 0, err
			}
			closeTok, ok := c.peek()
			if !ok || closeTok.text != ")" {
				return 0, fmt.Errorf("missing ')' in conditional expression")
			}
			c.pos++
			return v, nil
		}
	}
	return 0, fmt.Errorf("unexpected token %q in conditional expression", t.text)
}
