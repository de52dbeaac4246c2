package diagnostic

// Filter controls which diagnostic categories are reported and at what
// severity, grounded on the teacher's validator.Options.DiagnosticFilters
// (spec.md §4.1 "stable category name so tooling can filter").
type Filter struct {
	suppressed map[Category]bool
	overrides  map[Category]Severity
}

// NewFilter creates a filter that passes everything through unchanged.
func NewFilter() *Filter {
	return &Filter{suppressed: make(map[Category]bool), overrides: make(map[Category]Severity)}
}

// Suppress disables every diagnostic in the given category.
func (f *Filter) Suppress(cat Category) { f.suppressed[cat] = true }

// SetSeverity overrides the severity diagnostics of a category are
// reported at (e.g. promoting the preprocessor's "undefined macro in
// conditional arithmetic" warning to an error under a strict flag,
// spec.md §4.3).
func (f *Filter) SetSeverity(cat Category, sev Severity) { f.overrides[cat] = sev }

// IsSuppressed reports whether cat is fully disabled.
func (f *Filter) IsSuppressed(cat Category) bool { return f.suppressed[cat] }

// Override returns the overridden severity for cat, if any.
func (f *Filter) Override(cat Category) (Severity, bool) {
	sev, ok := f.overrides[cat]
	return sev, ok
}
