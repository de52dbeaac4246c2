package preprocessor

import (
	"io"

	"github.com/safec-lang/safecc/internal/lexer"
	"github.com/safec-lang/safecc/internal/sourcepos"
)

// DumpTokens re-lexes already-preprocessed text and writes one token per
// line, used by the `--dump-pp` CLI flag (SPEC_FULL.md §5).
func DumpTokens(w io.Writer, file sourcepos.FileID, expanded string) {
	lx := lexer.New(file, expanded, nil)
	for _, t := range lx.Tokenize() {
		io.WriteString(w, t.Kind.String())
		if t.Value != "" {
			io.WriteString(w, " ")
			io.WriteString(w, t.Value)
		}
		io.WriteString(w, "\n")
	}
}
