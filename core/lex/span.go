// Package lex implements the lex document processor: scanning, indentation
// lifting, line classification, element assembly, annotation attachment, and
// inline-span parsing of the lex plain-text format.
package lex

import "fmt"

// Span is a half-open byte range [Start, End) into the original UTF-8 source.
// Every token and AST node carries one. Synthetic tokens (Indent, Dedent,
// BlankLine) receive spans covering the whitespace they summarize, or a
// zero-width span at the event boundary.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Empty reports whether the span covers zero bytes.
func (s Span) Empty() bool { return s.Start == s.End }

// Slice returns the substring of src covered by the span.
func (s Span) Slice(src []byte) string {
	if s.Start < 0 || s.End > len(src) || s.Start > s.End {
		return ""
	}
	return string(src[s.Start:s.End])
}

// Contains reports whether s fully contains other.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Overlaps reports whether s and other share at least one byte, or touch
// at a boundary (half-open ranges are considered contiguous at the shared
// boundary point for the purposes of Merge).
func (s Span) Overlaps(other Span) bool {
	return s.Start <= other.End && other.Start <= s.End
}

// Merge returns the min/max envelope of s and other. The two spans need not
// overlap for Merge to be meaningful, but callers normally only merge
// contiguous or overlapping spans per the data model's invariants.
func (s Span) Merge(other Span) Span {
	m := s
	if other.Start < m.Start {
		m.Start = other.Start
	}
	if other.End > m.End {
		m.End = other.End
	}
	return m
}

// Zero returns a zero-width span at the given byte offset.
func Zero(at int) Span { return Span{Start: at, End: at} }

func (s Span) String() string { return fmt.Sprintf("[%d,%d)", s.Start, s.End) }

// mergeAll folds Merge across a non-empty slice of spans.
func mergeAll(spans ...Span) Span {
	if len(spans) == 0 {
		return Span{}
	}
	out := spans[0]
	for _, sp := range spans[1:] {
		out = out.Merge(sp)
	}
	return out
}
