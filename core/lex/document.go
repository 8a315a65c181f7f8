package lex

import (
	"context"
	"fmt"
	"runtime"
)

// Options configures a single Parse call.
type Options struct {
	IndentConfig IndentConfig
	SkipInline   bool
	Workers      int
}

// Option mutates an Options value; see WithIndentConfig, WithSkipInline, WithWorkers.
type Option func(*Options)

func defaultOptions() Options {
	return Options{IndentConfig: DefaultIndentConfig(), Workers: runtime.GOMAXPROCS(0)}
}

// WithIndentConfig overrides the default 4-space/4-column indentation arithmetic.
func WithIndentConfig(cfg IndentConfig) Option {
	return func(o *Options) { o.IndentConfig = cfg }
}

// WithSkipInline stops the pipeline after S7, returning the element tree
// with every TextContent's Root left nil. Useful for callers that only
// need structure (outlines, diagnostics) and want to skip S8 entirely.
func WithSkipInline(skip bool) Option {
	return func(o *Options) { o.SkipInline = skip }
}

// WithWorkers overrides S8's worker pool concurrency; the default is GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// ParseTokens runs S1 and S2 only, returning the core token stream with
// synthetic Indent/Dedent tokens already spliced in. Exposed so callers and
// tests can inspect the pipeline's earliest intermediate product.
func ParseTokens(src []byte, opts ...Option) []Token {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return LiftIndentation(Scan(src), o.IndentConfig)
}

// ParseLines runs S1 through S5, returning the classified, dialog-resolved
// line stream consumed by the element assembler.
func ParseLines(src []byte, opts ...Option) []ClassifiedLine {
	tokens := ParseTokens(src, opts...)
	lines := GroupLines(tokens)
	classified := ClassifyLines(lines, src)
	return ApplyDialogPass(classified)
}

// Parse runs the full S1-S8 pipeline over src and returns the resulting
// Document alongside every diagnostic accumulated along the way. It never
// fails outright except when the pipeline reports an invariant violation
// (an implementation bug, not malformed input — malformed input always
// degrades gracefully to Paragraph elements instead).
func Parse(src []byte, opts ...Option) (*Document, []Diagnostic, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	lines := ParseLines(src, opts...)
	rep := &Reporter{}

	children := Assemble(lines, src, rep)
	doc := &Document{base: base{SpanVal: documentSpan(src, children)}, Children: children}
	promoteDocumentTitle(doc, lines)
	AttachAnnotations(doc)

	if rep.HasInvariantViolation() {
		return doc, rep.Diagnostics(), fmt.Errorf("lex: invariant violation during parse")
	}

	if !o.SkipInline {
		ApplyInlineParsing(context.Background(), doc, o.Workers)
	}

	return doc, rep.Diagnostics(), nil
}

func documentSpan(src []byte, children []Element) Span {
	if len(children) == 0 {
		return Span{0, len(src)}
	}
	span := children[0].Span()
	for _, c := range children[1:] {
		span = span.Merge(c.Span())
	}
	return span
}

// promoteDocumentTitle implements spec.md §4.6's document-title rule: if the
// very first element under the document root is a single unindented
// Paragraph of exactly one line followed by a Blank, it is promoted to
// Document.Title and removed from Children. Checked directly against the
// classified line stream (rather than re-deriving it from the assembled
// Paragraph) because the Blank that licenses the promotion is consumed
// silently during assembly and leaves no trace on the Element itself.
func promoteDocumentTitle(doc *Document, lines []ClassifiedLine) {
	if len(lines) < 2 || len(doc.Children) == 0 {
		return
	}
	if lines[0].Type != LineParagraph || lines[1].Type != LineBlank {
		return
	}
	para, ok := doc.Children[0].(*Paragraph)
	if !ok || len(para.Lines) != 1 {
		return
	}
	title := para.Lines[0]
	doc.Title = &title
	doc.Children = doc.Children[1:]
}
