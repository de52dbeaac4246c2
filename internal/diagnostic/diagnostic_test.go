package diagnostic_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safec-lang/safecc/internal/diagnostic"
	"github.com/safec-lang/safecc/internal/sourcepos"
)

func newSink(t *testing.T, src string) (*diagnostic.Sink, sourcepos.FileID) {
	t.Helper()
	files := sourcepos.NewMap()
	id := files.AddFile("t.sc", src)
	return diagnostic.NewSink(files), id
}

func TestSortedOrdersBySourceLocationIndependentOfEmissionOrder(t *testing.T) {
	sink, f := newSink(t, "int x = 0;\nint y = 0;\nint z = 0;\n")

	sink.Errorf(diagnostic.CategoryType, sourcepos.Pos{File: f, Offset: 22}, "third")
	sink.Errorf(diagnostic.CategoryType, sourcepos.Pos{File: f, Offset: 0}, "first")
	sink.Errorf(diagnostic.CategoryType, sourcepos.Pos{File: f, Offset: 11}, "second")

	sorted := sink.Sorted()
	require.Len(t, sorted, 3)
	require.Equal(t, "first", sorted[0].Message)
	require.Equal(t, "second", sorted[1].Message)
	require.Equal(t, "third", sorted[2].Message)
}

func TestHasErrorsLatchesOnErrorAndFatal(t *testing.T) {
	sink, f := newSink(t, "x")
	require.False(t, sink.HasErrors())
	sink.Warnf(diagnostic.CategoryType, sourcepos.Pos{File: f}, "just a warning")
	require.False(t, sink.HasErrors())
	sink.Errorf(diagnostic.CategoryType, sourcepos.Pos{File: f}, "boom")
	require.True(t, sink.HasErrors())
	require.False(t, sink.HasFatal())
}

func TestRenderIsDeterministicForIdenticalInput(t *testing.T) {
	build := func() string {
		sink, f := newSink(t, "int x = 1;\n")
		sink.Errorf(diagnostic.CategoryType, sourcepos.Pos{File: f, Offset: 4}, "mismatched operands")
		var sb strings.Builder
		sink.Render(&sb, false)
		return sb.String()
	}
	require.Equal(t, build(), build())
}

func TestFilterSuppressesCategory(t *testing.T) {
	sink, f := newSink(t, "x")
	filter := diagnostic.NewFilter()
	filter.Suppress(diagnostic.CategoryAttribute)
	sink.SetFilter(filter)

	sink.Warnf(diagnostic.CategoryAttribute, sourcepos.Pos{File: f}, "must_use ignored")
	require.Empty(t, sink.Diagnostics())
}

func TestFilterCanPromoteSeverity(t *testing.T) {
	sink, f := newSink(t, "x")
	filter := diagnostic.NewFilter()
	filter.SetSeverity(diagnostic.CategoryPreprocessor, diagnostic.Error)
	sink.SetFilter(filter)

	sink.Warnf(diagnostic.CategoryPreprocessor, sourcepos.Pos{File: f}, "undefined macro treated as zero")
	require.True(t, sink.HasErrors())
}
