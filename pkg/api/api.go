// Package api provides the public, single-call entry point into the
// compiler front end for programmatic use. For CLI usage see
// cmd/safecc, which is a thin cobra wrapper over this package.
package api

import (
	"fmt"
	"io"

	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/lexer"
	"github.com/safec-lang/safecc/internal/lowering"
	"github.com/safec-lang/safecc/internal/parser"
	"github.com/safec-lang/safecc/internal/preprocessor"
	"github.com/safec-lang/safecc/internal/sema"
	"github.com/safec-lang/safecc/internal/sourcepos"
)

// IncludeResolver is re-exported so callers can supply their own search
// path / header-importer wiring without reaching into internal/.
type IncludeResolver = preprocessor.IncludeResolver

// Options controls one Compile call. It mirrors the CLI surface
// (spec.md §6) so cmd/safecc can translate flags into this struct
// directly without any other translation layer.
type Options struct {
	// Path is the source file's name, used for diagnostics and
	// __FILE__ substitution; it need not exist on disk.
	Path string

	// IncludePaths are searched in order for `#include` directives
	// (the `-I` flag, repeatable).
	IncludePaths []string
	// Defines predefines object-like macros (the `-D NAME[=VALUE]`
	// flag, repeatable). An empty value means NAME is defined to "1".
	Defines map[string]string
	// Resolver resolves `#include` directives; nil disables includes
	// entirely (every include reports an error).
	Resolver IncludeResolver
	// CompatPreprocessor enables full C preprocessor semantics
	// (`--compat-preprocessor`) instead of the restricted safe mode.
	CompatPreprocessor bool

	// NoSema parses only, skipping semantic analysis entirely
	// (`--no-sema`).
	NoSema bool
	// NoConsteval disables the const-eval pass; const-triggering
	// expressions are left unevaluated and their dependents fall back
	// to their "could not evaluate" paths (`--no-consteval`).
	NoConsteval bool
	// StrictMode turns the preprocessor's warning for an undefined
	// macro in an `#if` condition into an error. Sema receives it but
	// does not read it.
	StrictMode bool

	// Freestanding disables implicit hosted-library header
	// availability and defines the freestanding target macro
	// (`--freestanding`).
	Freestanding bool
	// Headers is handed to sema as its header importer; cmd/safecc sets
	// NullDeclSource for `--no-import-c-headers`. Sema never calls it,
	// so every value analyzes the same.
	Headers sema.DeclSource

	// Lower runs the lowering gateway over a successfully analyzed
	// module and attaches its result to Result.Lowered. Skipped when
	// NoSema is set, since lowering depends on sema's resolved types.
	Lower bool
}

// Result is the outcome of one Compile call.
type Result struct {
	// Module is the fully analyzed AST (nil if parsing failed before
	// producing a module, which should not happen on well-formed
	// input; the parser always returns a Module, possibly with error
	// nodes).
	Module *ast.Module
	// Diagnostics holds every diagnostic emitted across preprocessing,
	// parsing, and semantic analysis, in emission order.
	Diagnostics []diagnostic.Diagnostic
	// Valid is true when no diagnostic reached Error or Fatal
	// severity.
	Valid bool
	// ExpandedSource is the preprocessed token source text, before
	// lexing (used by `--dump-pp`).
	ExpandedSource string
	// File identifies Module's source file within its sourcepos.Map,
	// for callers that need to re-tokenize ExpandedSource themselves.
	File sourcepos.FileID

	// Lowered is the lowering gateway's output, set only when
	// Options.Lower was requested and analysis succeeded.
	Lowered *lowering.Program

	files *sourcepos.Map
	sink  *diagnostic.Sink
}

// Render writes every diagnostic in source order, colorized when
// useColor is true (spec.md's CLI renders diagnostics against source
// text the same way the teacher's own tools do).
func (r *Result) Render(w io.Writer, useColor bool) {
	r.sink.Render(w, useColor)
}

// Compile runs the full pipeline (preprocess, lex, parse, analyze) over
// source and returns the resulting module and accumulated diagnostics.
// This is the one entry point programmatic callers need; cmd/safecc's
// analysis flags map onto Options fields, while -o, --emit-llvm, --g,
// --no-incremental, --cache-dir, --clear-cache and the --dump-* flags
// have no Options field.
func Compile(source string, opts Options) *Result {
	files := sourcepos.NewMap()
	path := opts.Path
	if path == "" {
		path = "<input>"
	}
	file := files.AddFile(path, source)
	sink := diagnostic.NewSink(files)

	mode := preprocessor.SafeMode
	if opts.CompatPreprocessor {
		mode = preprocessor.CompatMode
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = noIncludeResolver{}
	}
	pp := preprocessor.New(mode, resolver, sink, files)
	pp.SetStrictUndefined(opts.StrictMode)
	for name, value := range opts.Defines {
		if value == "" {
			value = "1"
		}
		pp.Define(name, value)
	}
	if opts.Freestanding {
		pp.Define("__SAFEC_FREESTANDING__", "1")
	}
	expanded := pp.Process(file, path, source)

	lx := lexer.New(file, expanded, sink)
	toks := lx.Tokenize()

	ps := parser.New(file, toks, sink)
	module := ps.Parse()

	var lowered *lowering.Program
	if !opts.NoSema {
		res := sema.Analyze(module, sink, sema.Options{
			StrictMode:    opts.StrictMode,
			Headers:       opts.Headers,
			SkipConsteval: opts.NoConsteval,
		})
		if opts.Lower && !sink.HasErrors() {
			lowered = lowering.NewGateway(res.Pool).Lower(module)
		}
	}

	return &Result{
		Module:         module,
		Diagnostics:    sink.Diagnostics(),
		Valid:          !sink.HasErrors(),
		ExpandedSource: expanded,
		File:           file,
		Lowered:        lowered,
		files:          files,
		sink:           sink,
	}
}

type noIncludeResolver struct{}

func (noIncludeResolver) Resolve(path string, angled bool, fromFile string) (string, string, error) {
	return "", "", fmt.Errorf("no include resolver configured: cannot resolve %q", path)
}
