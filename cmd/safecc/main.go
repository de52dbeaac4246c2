// Command safecc is the SafeC compiler front end's CLI driver: a thin
// layer over pkg/api (spec.md §6 "the driver; treated as a thin layer
// over the core").
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/safec-lang/safecc/internal/ast"
	"github.com/safec-lang/safecc/internal/config"
	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/preprocessor"
	"github.com/safec-lang/safecc/internal/sema"
	"github.com/safec-lang/safecc/pkg/api"
)

const (
	exitOK        = 0
	exitUserError = 1
	exitInternal  = 2
)

var errRed = color.New(color.FgRed, color.Bold).SprintFunc()

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		output             string
		emitLLVM           bool
		dumpAST            bool
		dumpLowered        bool
		dumpPP             bool
		noSema             bool
		noConsteval        bool
		compatPreprocessor bool
		includePaths       []string
		defines            []string
		freestanding       bool
		debugInfo          string
		noImportCHeaders   bool
		noIncremental      bool
		cacheDir           string
		clearCache         bool
	)

	exitCode := exitOK
	root := &cobra.Command{
		Use:           "safecc <input.sc>",
		Short:         "SafeC compiler front end",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if r := recover(); r != nil {
					exitCode = exitInternal
					err = fmt.Errorf("internal compiler error: %v", r)
				}
			}()
			var code int
			code, err = compile(cmd.OutOrStdout(), cmd.ErrOrStderr(), compileArgs{
				inputPath:          args[0],
				output:             output,
				emitLLVM:           emitLLVM,
				dumpAST:            dumpAST,
				dumpLowered:        dumpLowered,
				dumpPP:             dumpPP,
				noSema:             noSema,
				noConsteval:        noConsteval,
				compatPreprocessor: compatPreprocessor,
				includePaths:       includePaths,
				defines:            defines,
				freestanding:       freestanding,
				debugInfo:          debugInfo,
				noImportCHeaders:   noImportCHeaders,
				noIncremental:      noIncremental,
				cacheDir:           cacheDir,
				clearCache:         clearCache,
			})
			exitCode = code
			return err
		},
	}

	flags := root.Flags()
	flags.StringVarP(&output, "o", "o", "", "output path")
	flags.BoolVar(&emitLLVM, "emit-llvm", false, "request textual intermediate form instead of object")
	flags.BoolVar(&dumpAST, "dump-ast", false, "print the post-analysis AST and exit")
	flags.BoolVar(&dumpLowered, "dump-lowered", false, "run the lowering gateway and print its output, then exit")
	flags.BoolVar(&dumpPP, "dump-pp", false, "print the preprocessed token stream and exit")
	flags.BoolVar(&noSema, "no-sema", false, "parse only")
	flags.BoolVar(&noConsteval, "no-consteval", false, "skip the const-eval pass")
	flags.BoolVar(&compatPreprocessor, "compat-preprocessor", false, "enable full C preprocessor semantics")
	flags.StringArrayVarP(&includePaths, "I", "I", nil, "include search path (repeatable)")
	flags.StringArrayVarP(&defines, "D", "D", nil, "predefine a preprocessor macro as NAME[=VALUE] (repeatable)")
	flags.BoolVar(&freestanding, "freestanding", false, "hosted library headers are not implicitly available")
	flags.StringVar(&debugInfo, "g", "", "debug-info verbosity passed to the backend: lines or full")
	flags.BoolVar(&noImportCHeaders, "no-import-c-headers", false, "disable the external C-header importer")
	flags.BoolVar(&noIncremental, "no-incremental", false, "disable the external build driver's incremental cache")
	flags.StringVar(&cacheDir, "cache-dir", "", "override the incremental-build cache directory")
	flags.BoolVar(&clearCache, "clear-cache", false, "clear the incremental-build cache and exit")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errRed("error:"), err)
		if exitCode == exitOK {
			exitCode = exitUserError
		}
	}
	return exitCode
}

type compileArgs struct {
	inputPath          string
	output             string
	emitLLVM           bool
	dumpAST            bool
	dumpLowered        bool
	dumpPP             bool
	noSema             bool
	noConsteval        bool
	compatPreprocessor bool
	includePaths       []string
	defines            []string
	freestanding       bool
	debugInfo          string
	noImportCHeaders   bool
	noIncremental      bool
	cacheDir           string
	clearCache         bool
}

// compile runs one compilation and returns the process exit code spec.md
// §6 defines (0 success, 1 user error, 2 internal invariant failure) along
// with an error for cobra to print, if any.
func compile(stdout, stderr io.Writer, a compileArgs) (int, error) {
	env := config.LoadEnv()
	includePaths, cacheDir := env.Merge(a.includePaths, a.cacheDir)

	if a.clearCache {
		if cacheDir == "" {
			cacheDir = ".safecc-cache"
		}
		if err := os.RemoveAll(cacheDir); err != nil {
			return exitUserError, fmt.Errorf("clearing cache dir %q: %w", cacheDir, err)
		}
		return exitOK, nil
	}

	source, err := os.ReadFile(a.inputPath)
	if err != nil {
		return exitUserError, fmt.Errorf("reading %q: %w", a.inputPath, err)
	}

	defines := map[string]string{}
	for _, d := range a.defines {
		name, value, _ := strings.Cut(d, "=")
		defines[name] = value
	}

	var headers sema.DeclSource
	if a.noImportCHeaders {
		headers = sema.NullDeclSource{}
	}

	opts := api.Options{
		Path:               a.inputPath,
		IncludePaths:       includePaths,
		Defines:            defines,
		Resolver:           preprocessor.FSResolver{SearchPaths: includePaths},
		CompatPreprocessor: a.compatPreprocessor,
		NoSema:             a.noSema,
		Lower:              a.dumpLowered,
		NoConsteval:        a.noConsteval,
		Freestanding:       a.freestanding,
		Headers:            headers,
	}

	result := api.Compile(string(source), opts)

	if a.dumpPP {
		preprocessor.DumpTokens(stdout, result.File, result.ExpandedSource)
		return exitOK, nil
	}
	if a.dumpAST {
		dumpASTModule(stdout, result.Module)
		return exitOK, nil
	}
	if a.dumpLowered {
		if result.Lowered != nil {
			result.Lowered.Dump(stdout)
		}
		return exitOK, nil
	}

	if len(result.Diagnostics) > 0 {
		useColor := isatty.IsTerminal(os.Stderr.Fd())
		result.Render(stderr, useColor)
	}
	if !result.Valid {
		return exitUserError, fmt.Errorf("compilation failed with %d error(s)", countErrors(result))
	}

	// A real object/LLVM-IR backend is out of scope (spec.md §1's
	// "Non-goals": no code generation); the driver's job ends at a
	// clean front-end result. --emit-llvm / -o only change what would
	// be written once a backend exists, so they're accepted but inert
	// here, matching --no-incremental/--cache-dir's own external-driver
	// scope.
	_ = a.emitLLVM
	_ = a.output
	_ = a.debugInfo
	_ = a.noIncremental

	return exitOK, nil
}

func dumpASTModule(w io.Writer, m *ast.Module) {
	if m == nil {
		return
	}
	m.Dump(w)
}

func countErrors(r *api.Result) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity >= diagnostic.Error {
			n++
		}
	}
	return n
}
