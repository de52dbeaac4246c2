// Package preprocessor implements the directive-driven text
// transformation stage (spec.md §4.3): include resolution, conditional
// compilation, and the two macro-expansion modes (safe and compatibility)
// that run before the lexer ever sees the source.
//
// The preprocessor works on source text line by line: a line whose first
// non-blank character is `#` is a directive, and every other active line
// has its macro names replaced by scanning it for identifiers. Its output
// is plain text for the lexer to tokenize. internal/lexer is used only by
// DumpTokens; `#if` expressions have their own small tokenizer (eval.go).
package preprocessor

import (
	"strconv"
	"strings"

	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/sourcepos"
)

// Mode selects the macro-expansion dialect (spec.md §4.3).
type Mode uint8

const (
	// SafeMode restricts macros to object-like, constant-expression
	// replacement; no stringification, no token-pasting, no
	// function-like macros.
	SafeMode Mode = iota
	// CompatMode enables full C-preprocessor semantics.
	CompatMode
)

// IncludeResolver resolves `#include` directives to file contents,
// supplied by the driver (spec.md §4.3 "search path supplied by the
// driver").
type IncludeResolver interface {
	Resolve(path string, angled bool, fromFile string) (resolvedPath, contents string, err error)
}

// Macro is one #define binding.
type Macro struct {
	Name      string
	Params    []string // nil for object-like macros
	Variadic  bool
	Body      string
	FuncLike  bool
}

// Preprocessor runs directive handling and macro expansion over one
// file's source text.
type Preprocessor struct {
	mode     Mode
	resolver IncludeResolver
	diags    *diagnostic.Sink
	files    *sourcepos.Map
	macros   map[string]Macro
	pragmaOnce map[string]bool
	strictUndefined bool

	// Predefines is allocated but never read; -D macros are installed
	// through Define.
	Predefines map[string]string
}

// New creates a Preprocessor in the given mode.
func New(mode Mode, resolver IncludeResolver, diags *diagnostic.Sink, files *sourcepos.Map) *Preprocessor {
	return &Preprocessor{
		mode:       mode,
		resolver:   resolver,
		diags:      diags,
		files:      files,
		macros:     make(map[string]Macro),
		pragmaOnce: make(map[string]bool),
		Predefines: make(map[string]string),
	}
}

// SetStrictUndefined promotes "undefined macro in conditional arithmetic"
// from a warning to an error (spec.md §4.3 "evaluate as zero with a
// warning unless a strict flag is set").
func (p *Preprocessor) SetStrictUndefined(strict bool) { p.strictUndefined = strict }

// Define installs a predefined object-like macro, used for -D NAME[=VALUE]
// CLI arguments processed before the first #include.
func (p *Preprocessor) Define(name, value string) {
	p.macros[name] = Macro{Name: name, Body: value}
}

// Process runs the full directive + macro pipeline over source belonging
// to file, returning the expanded text ready for lexing. __FILE__ and
// __LINE__ are substituted inline; __DATE__/__TIME__ are left undefined
// so output never depends on wall-clock time (spec.md §4.3, §8
// "Preprocessor determinism").
func (p *Preprocessor) Process(file sourcepos.FileID, path, source string) string {
	var out strings.Builder
	p.processLines(file, path, source, &out, []bool{true})
	return out.String()
}

// condFrame tracks one level of #if/#elif/#else/#endif nesting: whether
// this branch is currently active, whether any branch in the chain has
// already been taken, and whether the parent chain is itself active.
type condFrame struct {
	branchTaken bool
	active      bool
	parentOK    bool
}

func (p *Preprocessor) processLines(file sourcepos.FileID, path, source string, out *strings.Builder, _ []bool) {
	lines := strings.Split(source, "\n")
	var stack []condFrame
	activeNow := func() bool {
		for _, f := range stack {
			if !f.active {
				return false
			}
		}
		return true
	}

	for lineNo, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "#") {
			directive := strings.TrimSpace(trimmed[1:])
			p.handleDirective(file, path, directive, lineNo+1, &stack, activeNow, out)
			continue
		}
		if !activeNow() {
			continue
		}
		expanded := p.expandLine(file, line, lineNo+1)
		out.WriteString(expanded)
		out.WriteByte('\n')
	}

	if len(stack) > 0 {
		p.diags.Errorf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: file}, "unterminated #if")
	}
}

func (p *Preprocessor) handleDirective(file sourcepos.FileID, path, directive string, line int, stack *[]condFrame, activeNow func() bool, out *strings.Builder) {
	fields := strings.SplitN(directive, " ", 2)
	kw := fields[0]
	rest := ""
	if len(fields) > 1 {
		rest = strings.TrimSpace(fields[1])
	}

	switch kw {
	case "include":
		if !activeNow() {
			return
		}
		p.handleInclude(file, path, rest, line, out)
	case "define":
		if !activeNow() {
			return
		}
		p.handleDefine(file, rest, line)
	case "undef":
		if !activeNow() {
			return
		}
		delete(p.macros, strings.TrimSpace(rest))
	case "if":
		parentOK := activeNow()
		val := p.evalConditional(file, rest, line)
		*stack = append(*stack, condFrame{branchTaken: val && parentOK, active: val && parentOK, parentOK: parentOK})
	case "ifdef":
		parentOK := activeNow()
		_, defined := p.macros[strings.TrimSpace(rest)]
		*stack = append(*stack, condFrame{branchTaken: defined && parentOK, active: defined && parentOK, parentOK: parentOK})
	case "ifndef":
		parentOK := activeNow()
		_, defined := p.macros[strings.TrimSpace(rest)]
		val := !defined
		*stack = append(*stack, condFrame{branchTaken: val && parentOK, active: val && parentOK, parentOK: parentOK})
	case "elif":
		if len(*stack) == 0 {
			p.diags.Errorf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: file}, "#elif without matching #if")
			return
		}
		top := &(*stack)[len(*stack)-1]
		if top.branchTaken || !top.parentOK {
			top.active = false
			return
		}
		val := p.evalConditional(file, rest, line)
		top.active = val
		top.branchTaken = val
	case "else":
		if len(*stack) == 0 {
			p.diags.Errorf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: file}, "#else without matching #if")
			return
		}
		top := &(*stack)[len(*stack)-1]
		top.active = !top.branchTaken && top.parentOK
		top.branchTaken = true
	case "endif":
		if len(*stack) == 0 {
			p.diags.Errorf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: file}, "#endif without matching #if")
			return
		}
		*stack = (*stack)[:len(*stack)-1]
	case "pragma":
		if strings.TrimSpace(rest) == "once" {
			p.pragmaOnce[path] = true
		}
	case "error":
		if activeNow() {
			p.diags.Errorf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: file}, "#error %s", rest)
		}
	case "warning":
		if activeNow() {
			p.diags.Warnf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: file}, "#warning %s", rest)
		}
	default:
		if activeNow() {
			p.diags.Warnf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: file}, "unrecognized directive #%s", kw)
		}
	}
}

func (p *Preprocessor) handleInclude(file sourcepos.FileID, fromPath, rest string, line int, out *strings.Builder) {
	rest = strings.TrimSpace(rest)
	if len(rest) < 2 {
		p.diags.Errorf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: file}, "malformed #include")
		return
	}
	angled := rest[0] == '<'
	var quotedPath string
	if angled {
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			p.diags.Errorf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: file}, "malformed #include <...>")
			return
		}
		quotedPath = rest[1:end]
	} else {
		end := strings.IndexByte(rest[1:], '"')
		if end < 0 {
			p.diags.Errorf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: file}, "malformed #include \"...\"")
			return
		}
		quotedPath = rest[1 : end+1]
	}

	if p.resolver == nil {
		p.diags.Errorf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: file}, "#include %q: no include resolver configured", quotedPath)
		return
	}
	resolvedPath, contents, err := p.resolver.Resolve(quotedPath, angled, fromPath)
	if err != nil {
		p.diags.Errorf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: file}, "cannot resolve #include %q: %v", quotedPath, err)
		return
	}
	if p.pragmaOnce[resolvedPath] {
		return
	}
	includedID := p.files.AddFile(resolvedPath, contents)
	p.processLines(includedID, resolvedPath, contents, out, nil)
}

func (p *Preprocessor) evalConditional(file sourcepos.FileID, expr string, line int) bool {
	val, err := p.evalIntExpr(file, expr)
	if err != nil {
		p.diags.Errorf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: file}, "malformed #if expression: %v", err)
		return false
	}
	return val != 0
}

// expandLine performs macro replacement on one source line. Safe mode
// only expands object-like macros whose body is already a constant
// expression (enforced at #define time, see handleDefine); compat mode
// also handles function-like invocations, stringification, and pasting.
func (p *Preprocessor) expandLine(file sourcepos.FileID, line string, lineNo int) string {
	line = strings.ReplaceAll(line, "__FILE__", strconv.Quote(p.files.Path(file)))
	line = strings.ReplaceAll(line, "__LINE__", strconv.Itoa(lineNo))
	return p.expandMacros(file, line, make(map[string]bool))
}
