package lex

import "testing"

func countKind(toks []Token, k TokenKind) int {
	n := 0
	for _, t := range toks {
		if t.Kind == k {
			n++
		}
	}
	return n
}

func TestLiftIndentation_FlatDocumentHasNoStructuralTokens(t *testing.T) {
	toks := LiftIndentation(Scan([]byte("one\ntwo\nthree\n")), DefaultIndentConfig())
	if n := countKind(toks, TokIndent) + countKind(toks, TokDedent); n != 0 {
		t.Errorf("flat document produced %d structural tokens, want 0", n)
	}
}

func TestLiftIndentation_OneStepIndentAndDedent(t *testing.T) {
	toks := LiftIndentation(Scan([]byte("a\n    b\nc\n")), DefaultIndentConfig())
	if got := countKind(toks, TokIndent); got != 1 {
		t.Errorf("Indent count = %d, want 1", got)
	}
	if got := countKind(toks, TokDedent); got != 1 {
		t.Errorf("Dedent count = %d, want 1", got)
	}
}

func TestLiftIndentation_MultiStepJump(t *testing.T) {
	toks := LiftIndentation(Scan([]byte("a\n        b\n")), DefaultIndentConfig())
	if got := countKind(toks, TokIndent); got != 2 {
		t.Errorf("Indent count for an 8-column jump = %d, want 2", got)
	}
}

func TestLiftIndentation_BlankLinesDoNotChangeDepth(t *testing.T) {
	toks := LiftIndentation(Scan([]byte("a\n\n    b\n")), DefaultIndentConfig())
	if got := countKind(toks, TokIndent); got != 1 {
		t.Errorf("Indent count = %d, want 1 (blank line should not itself indent)", got)
	}
}

func TestLiftIndentation_EOFClosesOpenLevels(t *testing.T) {
	toks := LiftIndentation(Scan([]byte("a\n    b\n        c\n")), DefaultIndentConfig())
	if got := countKind(toks, TokIndent); got != 2 {
		t.Errorf("Indent count = %d, want 2", got)
	}
	if got := countKind(toks, TokDedent); got != 2 {
		t.Errorf("Dedent count at EOF = %d, want 2 (both open levels should close)", got)
	}
}

func TestLiftIndentation_TabWidthHonored(t *testing.T) {
	// A single tab at TabWidth 4 is one full step; at TabWidth 8 it would
	// still be one step under the default StepWidth of 4, so use StepWidth
	// 8 to distinguish the two tab widths' effect on depth.
	cfg := IndentConfig{StepWidth: 8, TabWidth: 4}
	toks := LiftIndentation(Scan([]byte("a\n\tb\n")), cfg)
	if got := countKind(toks, TokIndent); got != 0 {
		t.Errorf("Indent count with a single 4-column tab under StepWidth 8 = %d, want 0", got)
	}

	cfg2 := IndentConfig{StepWidth: 8, TabWidth: 8}
	toks2 := LiftIndentation(Scan([]byte("a\n\tb\n")), cfg2)
	if got := countKind(toks2, TokIndent); got != 1 {
		t.Errorf("Indent count with a single 8-column tab under StepWidth 8 = %d, want 1", got)
	}
}

func TestLiftIndentation_ForgivenessRuleLeavesRemainderAsWhitespace(t *testing.T) {
	// 6 columns under StepWidth 4 is depth 1 with 2 columns left over; the
	// leftover space must still appear, untouched, in the output stream.
	toks := LiftIndentation(Scan([]byte("a\n      b\n")), DefaultIndentConfig())
	var sawLeftoverSpace bool
	for _, tok := range toks {
		if tok.Kind == TokWhitespaceSpace && len(tok.Text) == 6 {
			sawLeftoverSpace = true
		}
	}
	if !sawLeftoverSpace {
		t.Error("expected the original 6-space run to survive unconsumed in the output")
	}
}
