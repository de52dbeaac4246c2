// Package diagnostic is the compiler's error/warning sink. One Sink exists
// per translation unit (spec.md §4.1): emission is append-only and order
// is preserved so that rendering is deterministic for identical input,
// independent of which phase or internal traversal order produced each
// diagnostic (spec.md §8 "Diagnostic ordering").
package diagnostic

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/safec-lang/safecc/internal/sourcepos"
)

// Severity is the level of a diagnostic.
type Severity uint8

const (
	Note Severity = iota
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Category is a stable, machine-readable tag (spec.md §4.1 "short
// machine-readable category tag"; §7 lists the taxonomy this draws from).
type Category string

const (
	CategoryLexical      Category = "lexical"
	CategorySyntax       Category = "syntax"
	CategoryResolution   Category = "resolution"
	CategoryType         Category = "type"
	CategoryRegion       Category = "region/escape"
	CategoryAlias        Category = "alias/exclusive"
	CategoryNullability  Category = "nullability"
	CategoryInit         Category = "init"
	CategoryConstEval    Category = "const-eval"
	CategoryUnsafe       Category = "unsafe"
	CategoryPreprocessor Category = "preprocessor"
	CategoryAttribute    Category = "attribute"
)

// Diagnostic is a single reported message.
type Diagnostic struct {
	Severity Severity
	Category Category
	Message  string
	Primary  sourcepos.Pos
	End      sourcepos.Pos // zero value means a single-point span
	Notes    []string      // rendered as indented "note:" lines
}

// Sink collects diagnostics for one translation unit. Emission is
// monotonic per spec.md §4.1: once a Fatal is recorded, HasFatal latches
// true for the remainder of the compilation, but the sink itself never
// stops accepting further diagnostics — callers decide whether to keep
// running a phase.
type Sink struct {
	files   *sourcepos.Map
	diags   []Diagnostic
	hasErr  bool
	hasFatl bool
	filter  *Filter
}

// NewSink creates a sink bound to files for rendering source excerpts.
func NewSink(files *sourcepos.Map) *Sink {
	return &Sink{files: files, filter: NewFilter()}
}

// SetFilter installs a category/warning filter; nil restores an
// all-pass filter.
func (s *Sink) SetFilter(f *Filter) {
	if f == nil {
		f = NewFilter()
	}
	s.filter = f
}

func (s *Sink) emit(d Diagnostic) {
	if s.filter.IsSuppressed(d.Category) {
		return
	}
	if sev, ok := s.filter.Override(d.Category); ok {
		d.Severity = sev
	}
	s.diags = append(s.diags, d)
	switch d.Severity {
	case Error:
		s.hasErr = true
	case Fatal:
		s.hasErr = true
		s.hasFatl = true
	}
}

// Report adds a diagnostic at a single point.
func (s *Sink) Report(sev Severity, cat Category, at sourcepos.Pos, format string, args ...any) {
	s.emit(Diagnostic{Severity: sev, Category: cat, Message: fmt.Sprintf(format, args...), Primary: at})
}

// ReportRange adds a diagnostic spanning [start, end).
func (s *Sink) ReportRange(sev Severity, cat Category, start, end sourcepos.Pos, format string, args ...any) {
	s.emit(Diagnostic{Severity: sev, Category: cat, Message: fmt.Sprintf(format, args...), Primary: start, End: end})
}

// Errorf is shorthand for Report(Error, ...).
func (s *Sink) Errorf(cat Category, at sourcepos.Pos, format string, args ...any) {
	s.Report(Error, cat, at, format, args...)
}

// Warnf is shorthand for Report(Warning, ...).
func (s *Sink) Warnf(cat Category, at sourcepos.Pos, format string, args ...any) {
	s.Report(Warning, cat, at, format, args...)
}

// HasErrors reports whether any Error or Fatal diagnostic was recorded.
// Per spec.md §7, if any error was emitted, lowering is skipped.
func (s *Sink) HasErrors() bool { return s.hasErr }

// HasFatal reports whether a Fatal diagnostic was recorded.
func (s *Sink) HasFatal() bool { return s.hasFatl }

// Diagnostics returns all recorded diagnostics in emission order.
func (s *Sink) Diagnostics() []Diagnostic { return s.diags }

// Sorted returns diagnostics ordered by primary source location
// (spec.md §8 "Diagnostic ordering"), stable on ties so that diagnostics
// emitted at the same location keep their relative emission order.
func (s *Sink) Sorted() []Diagnostic {
	out := make([]Diagnostic, len(s.diags))
	copy(out, s.diags)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Primary.Less(out[j].Primary)
	})
	return out
}

// Render writes every diagnostic in source-location order using the
// stable "file:line:col: severity: category: message" form from
// spec.md §6, followed by a caret-underlined excerpt.
func (s *Sink) Render(w io.Writer, useColor bool) {
	for _, d := range s.Sorted() {
		fmt.Fprint(w, s.FormatOne(d, useColor))
	}
}

// FormatOne renders a single diagnostic, including its source excerpt.
func (s *Sink) FormatOne(d Diagnostic, useColor bool) string {
	var sb strings.Builder
	path := s.files.Path(d.Primary.File)
	lc := s.files.LineColumn(d.Primary)

	sevLabel := d.Severity.String()
	if useColor {
		sevLabel = colorFor(d.Severity)(sevLabel)
	}
	fmt.Fprintf(&sb, "%s:%d:%d: %s: %s: %s\n", path, lc.Line, lc.Column, sevLabel, d.Category, d.Message)

	if line := s.files.Line(d.Primary); line != "" {
		fmt.Fprintf(&sb, "    %s\n", line)
		width := 1
		if d.End != (sourcepos.Pos{}) && d.End.File == d.Primary.File && d.End.Offset > d.Primary.Offset {
			width = d.End.Offset - d.Primary.Offset
		}
		caret := strings.Repeat(" ", lc.Column-1+4) + "^" + strings.Repeat("~", maxInt(0, width-1))
		if useColor {
			caret = colorFor(d.Severity)(caret)
		}
		fmt.Fprintf(&sb, "%s\n", caret)
	}
	for _, note := range d.Notes {
		fmt.Fprintf(&sb, "  note: %s\n", note)
	}
	return sb.String()
}

func colorFor(s Severity) func(format string, a ...any) string {
	switch s {
	case Error, Fatal:
		return color.New(color.FgRed, color.Bold).SprintfFunc()
	case Warning:
		return color.New(color.FgYellow).SprintfFunc()
	default:
		return color.New(color.FgCyan).SprintfFunc()
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
