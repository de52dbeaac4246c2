package preprocessor

import (
	"strings"

	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/sourcepos"
)

// handleDefine parses a `#define` body and installs the macro, enforcing
// safe-mode's restriction to object-like, constant-expression macros
// (spec.md §4.3).
func (p *Preprocessor) handleDefine(file sourcepos.FileID, rest string, line int) {
	name, params, funcLike, variadic, body := parseDefineHeader(rest)
	if name == "" {
		p.diags.Errorf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: file}, "malformed #define")
		return
	}
	if funcLike && p.mode == SafeMode {
		p.diags.Errorf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: file}, "function-like macro %q is rejected in safe mode", name)
		return
	}
	if !funcLike && p.mode == SafeMode && !looksLikeConstExpr(body) {
		p.diags.Errorf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: file}, "macro %q body is not a constant expression in safe mode", name)
		return
	}
	p.macros[name] = Macro{Name: name, Params: params, Variadic: variadic, FuncLike: funcLike, Body: body}
}

// parseDefineHeader splits "NAME(a, b) body" or "NAME body" into its
// parts. A `(` immediately following NAME with no intervening space marks
// a function-like macro, matching C's own lexical rule.
func parseDefineHeader(rest string) (name string, params []string, funcLike, variadic bool, body string) {
	rest = strings.TrimLeft(rest, " \t")
	i := 0
	for i < len(rest) && (isIdentRune(rest[i])) {
		i++
	}
	if i == 0 {
		return "", nil, false, false, ""
	}
	name = rest[:i]
	if i < len(rest) && rest[i] == '(' {
		funcLike = true
		close := strings.IndexByte(rest[i:], ')')
		if close < 0 {
			return name, nil, true, false, ""
		}
		paramList := rest[i+1 : i+close]
		for _, raw := range strings.Split(paramList, ",") {
			pn := strings.TrimSpace(raw)
			if pn == "..." {
				variadic = true
				continue
			}
			if pn != "" {
				params = append(params, pn)
			}
		}
		body = strings.TrimSpace(rest[i+close+1:])
		return name, params, funcLike, variadic, body
	}
	body = strings.TrimSpace(rest[i:])
	return name, nil, false, false, body
}

func isIdentRune(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// looksLikeConstExpr is a coarse syntactic check: it rejects a
// replacement list containing `#` (stringification, token-pasting), `{`
// or `;` (statements) and accepts anything else. Whether the body really
// is a constant is only established later, by the const-eval engine,
// when the macro is used in a const-eval context.
func looksLikeConstExpr(body string) bool {
	if strings.Contains(body, "#") || strings.Contains(body, "##") {
		return false
	}
	if strings.Contains(body, "{") || strings.Contains(body, ";") {
		return false
	}
	return true
}

// expandMacros performs object-like and (in compat mode) function-like
// macro replacement, recursively, with a per-line "active set" guard
// against self-referential expansion (the standard C rule: a macro name
// found inside its own expansion is left unexpanded).
func (p *Preprocessor) expandMacros(file sourcepos.FileID, line string, active map[string]bool) string {
	var out strings.Builder
	i := 0
	for i < len(line) {
		if !isIdentRune(line[i]) || (line[i] >= '0' && line[i] <= '9') {
			out.WriteByte(line[i])
			i++
			continue
		}
		j := i
		for j < len(line) && isIdentRune(line[j]) {
			j++
		}
		word := line[i:j]
		macro, ok := p.macros[word]
		if !ok || active[word] {
			out.WriteString(word)
			i = j
			continue
		}

		if macro.FuncLike {
			k := j
			for k < len(line) && line[k] == ' ' {
				k++
			}
			if k >= len(line) || line[k] != '(' {
				out.WriteString(word)
				i = j
				continue
			}
			close := matchParen(line, k)
			if close < 0 {
				out.WriteString(word)
				i = j
				continue
			}
			args := splitArgs(line[k+1 : close])
			expanded := p.expandFuncLike(macro, args)
			active[word] = true
			out.WriteString(p.expandMacros(file, expanded, active))
			active[word] = false
			i = close + 1
			continue
		}

		active[word] = true
		out.WriteString(p.expandMacros(file, macro.Body, active))
		active[word] = false
		i = j
	}
	return out.String()
}

func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func splitArgs(s string) []string {
	var args []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if start <= len(s) {
		tail := strings.TrimSpace(s[start:])
		if tail != "" || len(args) > 0 {
			args = append(args, tail)
		}
	}
	return args
}

// expandFuncLike substitutes parameters into a function-like macro body,
// including `#` stringification and `##` pasting in compat mode; in
// compat mode __VA_ARGS__ binds to the trailing variadic arguments.
func (p *Preprocessor) expandFuncLike(m Macro, args []string) string {
	body := m.Body
	for idx, param := range m.Params {
		var value string
		if idx < len(args) {
			value = args[idx]
		}
		body = strings.ReplaceAll(body, "#"+param, quoteArg(value))
		body = replaceToken(body, param, value)
	}
	if m.Variadic {
		var varArgs string
		if len(args) > len(m.Params) {
			varArgs = strings.Join(args[len(m.Params):], ", ")
		}
		body = replaceToken(body, "__VA_ARGS__", varArgs)
	}
	body = strings.ReplaceAll(body, "##", "")
	return body
}

func quoteArg(s string) string {
	return "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
}

// replaceToken replaces whole-identifier occurrences of name with value,
// unlike strings.ReplaceAll which would also match inside longer
// identifiers sharing name as a substring.
func replaceToken(s, name, value string) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		if !isIdentRune(s[i]) {
			out.WriteByte(s[i])
			i++
			continue
		}
		j := i
		for j < len(s) && isIdentRune(s[j]) {
			j++
		}
		word := s[i:j]
		if word == name {
			out.WriteString(value)
		} else {
			out.WriteString(word)
		}
		i = j
	}
	return out.String()
}
