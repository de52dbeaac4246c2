package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/lexer"
	"github.com/safec-lang/safecc/internal/sourcepos"
	"github.com/safec-lang/safecc/internal/token"
)

func scan(t *testing.T, src string) ([]token.Token, *diagnostic.Sink) {
	t.Helper()
	files := sourcepos.NewMap()
	id := files.AddFile("t.sc", src)
	sink := diagnostic.NewSink(files)
	toks := lexer.New(id, src, sink).Tokenize()
	return toks, sink
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestKeywordsAreRecognized(t *testing.T) {
	toks, sink := scan(t, "stack heap arena static unsafe region generic")
	require.False(t, sink.HasErrors())
	require.Equal(t, []token.Kind{
		token.KwStack, token.KwHeap, token.KwArena, token.KwStatic,
		token.KwUnsafe, token.KwRegion, token.KwGeneric, token.EOF,
	}, kinds(toks))
}

func TestIdentifierIsNotMistakenForKeywordPrefix(t *testing.T) {
	toks, _ := scan(t, "stacked")
	require.Equal(t, token.Ident, toks[0].Kind)
	require.Equal(t, "stacked", toks[0].Value)
}

func TestUnderscoreIsItsOwnKind(t *testing.T) {
	toks, _ := scan(t, "_ foo_bar _1")
	require.Equal(t, token.Underscore, toks[0].Kind)
	require.Equal(t, token.Ident, toks[1].Kind)
	require.Equal(t, token.Ident, toks[2].Kind)
}

func TestNullableReferenceMarker(t *testing.T) {
	toks, sink := scan(t, "?&T")
	require.False(t, sink.HasErrors())
	require.Equal(t, token.QuestionAmp, toks[0].Kind)
	require.Equal(t, token.Ident, toks[1].Kind)
}

func TestWrappingAndSaturatingOperators(t *testing.T) {
	toks, _ := scan(t, "a +| b -| c *| d +% e -% f *% g")
	got := kinds(toks)
	want := []token.Kind{
		token.Ident, token.PlusPipe, token.Ident, token.MinusPipe, token.Ident, token.StarPipe,
		token.Ident, token.PlusPercent, token.Ident, token.MinusPercent, token.Ident, token.StarPercent,
		token.Ident, token.EOF,
	}
	require.Equal(t, want, got)
}

func TestRangeAndMethodQualificationOperators(t *testing.T) {
	toks, _ := scan(t, "0..10 Vec::new")
	require.Equal(t, token.IntLiteral, toks[0].Kind)
	require.Equal(t, token.DotDot, toks[1].Kind)
	require.Equal(t, token.IntLiteral, toks[2].Kind)
	require.Equal(t, token.Ident, toks[3].Kind)
	require.Equal(t, token.ColonColon, toks[4].Kind)
	require.Equal(t, token.Ident, toks[5].Kind)
}

func TestEllipsisVsRangeVsDot(t *testing.T) {
	toks, _ := scan(t, ". .. ...")
	require.Equal(t, []token.Kind{token.Dot, token.DotDot, token.Ellipsis, token.EOF}, kinds(toks))
}

func TestIntegerSuffixesAndBases(t *testing.T) {
	toks, sink := scan(t, "0x1F 0b1010 42UL 3.14 2.5e10 10f")
	require.False(t, sink.HasErrors())
	require.Equal(t, token.IntLiteral, toks[0].Kind)
	require.Equal(t, token.IntLiteral, toks[1].Kind)
	require.Equal(t, token.IntLiteral, toks[2].Kind)
	require.Equal(t, token.FloatLiteral, toks[3].Kind)
	require.Equal(t, token.FloatLiteral, toks[4].Kind)
	require.Equal(t, token.FloatLiteral, toks[5].Kind)
}

func TestLineAndBlockComments(t *testing.T) {
	toks, sink := scan(t, "x // trailing comment\n/* nested /* block */ comment */ y")
	require.False(t, sink.HasErrors())
	require.Equal(t, []token.Kind{token.Ident, token.Ident, token.EOF}, kinds(toks))
}

func TestUnterminatedBlockCommentIsReported(t *testing.T) {
	_, sink := scan(t, "x /* never closed")
	require.True(t, sink.HasErrors())
}

func TestStringAndCharLiterals(t *testing.T) {
	toks, sink := scan(t, `"hello\n" 'a' '\\'`)
	require.False(t, sink.HasErrors())
	require.Equal(t, token.StringLiteral, toks[0].Kind)
	require.Equal(t, token.CharLiteral, toks[1].Kind)
	require.Equal(t, token.CharLiteral, toks[2].Kind)
}

func TestUnterminatedStringIsReported(t *testing.T) {
	toks, sink := scan(t, `"never closed`)
	require.True(t, sink.HasErrors())
	require.Equal(t, token.Error, toks[0].Kind)
}

func TestUnknownByteIsReported(t *testing.T) {
	_, sink := scan(t, "x $ y")
	require.True(t, sink.HasErrors())
	diags := sink.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, diagnostic.CategoryLexical, diags[0].Category)
}

func TestArenaGenericAngleBracketsTokenizeAsDistinctOperators(t *testing.T) {
	toks, _ := scan(t, "arena<R>")
	require.Equal(t, []token.Kind{
		token.KwArena, token.Lt, token.Ident, token.Gt, token.EOF,
	}, kinds(toks))
}

func TestCompoundAssignmentAndShiftOperators(t *testing.T) {
	toks, _ := scan(t, "a <<= b >>= c += d -= e *= f /= g %= h &= i |= j ^=")
	got := kinds(toks)
	for _, k := range []token.Kind{
		token.LtLtEq, token.GtGtEq, token.PlusEq, token.MinusEq, token.StarEq,
		token.SlashEq, token.PercentEq, token.AmpEq, token.PipeEq, token.CaretEq,
	} {
		found := false
		for _, g := range got {
			if g == k {
				found = true
				break
			}
		}
		require.True(t, found, "expected %s among tokens", k)
	}
}

func TestSpansTrackFileAndOffset(t *testing.T) {
	toks, _ := scan(t, "  foo")
	require.Equal(t, 2, toks[0].Span.Start.Offset)
	require.Equal(t, 5, toks[0].Span.End.Offset)
}
