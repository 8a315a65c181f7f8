package lex

// DiagnosticKind tags the severity/category of a Diagnostic, per spec.md §7.
type DiagnosticKind int

const (
	// KindStructuralWarning: a candidate element failed to match and
	// degraded to a paragraph.
	KindStructuralWarning DiagnosticKind = iota
	// KindContentCaution: a detected pattern violates a documented
	// restriction (e.g. a session nested inside a definition); the
	// offending child is kept as a paragraph.
	KindContentCaution
	// KindInvariantViolation: an implementation bug — indent stack
	// underflow, a broken span envelope. Halts processing of the document.
	KindInvariantViolation
)

func (k DiagnosticKind) String() string {
	switch k {
	case KindStructuralWarning:
		return "structural-warning"
	case KindContentCaution:
		return "content-caution"
	case KindInvariantViolation:
		return "invariant-violation"
	default:
		return "unknown"
	}
}

// Diagnostic is a single span-annotated finding produced by any pipeline
// stage. No diagnostic but KindInvariantViolation halts processing; the
// rest accumulate alongside a successfully produced AST.
type Diagnostic struct {
	Kind      DiagnosticKind
	Message   string
	Primary   Span
	Secondary []Span
}

// Reporter accumulates diagnostics across every stage of a single Parse
// call. It is append-only, matching spec.md §5's resource policy.
type Reporter struct {
	diags []Diagnostic
}

// Warn records a structural warning: a candidate element that degraded to paragraph.
func (r *Reporter) Warn(msg string, primary Span, secondary ...Span) {
	r.add(KindStructuralWarning, msg, primary, secondary)
}

// Caution records a content caution: a disallowed nesting that was kept as a paragraph.
func (r *Reporter) Caution(msg string, primary Span, secondary ...Span) {
	r.add(KindContentCaution, msg, primary, secondary)
}

// Invariant records an invariant violation (implementation bug).
func (r *Reporter) Invariant(msg string, primary Span, secondary ...Span) {
	r.add(KindInvariantViolation, msg, primary, secondary)
}

func (r *Reporter) add(kind DiagnosticKind, msg string, primary Span, secondary []Span) {
	r.diags = append(r.diags, Diagnostic{Kind: kind, Message: msg, Primary: primary, Secondary: secondary})
}

// Diagnostics returns every diagnostic recorded so far, in emission order.
func (r *Reporter) Diagnostics() []Diagnostic {
	return r.diags
}

// HasInvariantViolation reports whether any recorded diagnostic is a halting bug report.
func (r *Reporter) HasInvariantViolation() bool {
	for _, d := range r.diags {
		if d.Kind == KindInvariantViolation {
			return true
		}
	}
	return false
}
