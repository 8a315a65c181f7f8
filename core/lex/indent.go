package lex

// IndentConfig controls the column arithmetic used by the indentation
// lifter. StepWidth is the number of columns per indentation step; TabWidth
// is the column value of a single tab character. Both default to 4 per
// spec.md §6 (file format contract).
type IndentConfig struct {
	StepWidth int
	TabWidth  int
}

// DefaultIndentConfig is the file format's default: 4-space steps, tabs
// count as 4 columns.
func DefaultIndentConfig() IndentConfig {
	return IndentConfig{StepWidth: 4, TabWidth: 4}
}

// LiftIndentation is S2: it walks the S1 token stream line by line and
// splices in synthetic Indent/Dedent tokens at line boundaries based on
// each non-blank line's leading whitespace column.
//
// Synthetic tokens are zero-width, positioned at the first byte of the
// line they announce; the line's own leading whitespace tokens are left
// untouched in the stream immediately after them (the "forgiveness rule":
// any column remainder that doesn't land on a StepWidth boundary is simply
// visible, unconsumed, whitespace in the line body for later stages to
// skip over).
func LiftIndentation(tokens []Token, cfg IndentConfig) []Token {
	if cfg.StepWidth <= 0 {
		cfg.StepWidth = 4
	}
	if cfg.TabWidth <= 0 {
		cfg.TabWidth = 4
	}

	out := make([]Token, 0, len(tokens)+8)
	stack := []int{0}

	lines := splitRawLines(tokens)
	for _, line := range lines {
		if isRawLineBlank(line) {
			out = append(out, line...)
			continue
		}

		col := 0
		leadEnd := 0
		for leadEnd < len(line) && line[leadEnd].IsWhitespace() {
			if line[leadEnd].Kind == TokWhitespaceTab {
				col += len(line[leadEnd].Text) * cfg.TabWidth
			} else {
				col += len(line[leadEnd].Text)
			}
			leadEnd++
		}

		depth := col / cfg.StepWidth
		at := 0
		if len(line) > 0 {
			at = line[0].Span.Start
		}

		top := stack[len(stack)-1]
		for depth < top {
			out = append(out, Token{Kind: TokDedent, Span: Zero(at)})
			stack = stack[:len(stack)-1]
			top = stack[len(stack)-1]
		}
		if depth > top {
			for d := top + 1; d <= depth; d++ {
				out = append(out, Token{Kind: TokIndent, Span: Zero(at)})
				stack = append(stack, d)
			}
		}

		out = append(out, line...)
	}

	// EOF: close every indentation level still open.
	eof := 0
	if len(tokens) > 0 {
		eof = tokens[len(tokens)-1].Span.End
	}
	for len(stack) > 1 {
		out = append(out, Token{Kind: TokDedent, Span: Zero(eof)})
		stack = stack[:len(stack)-1]
	}

	return out
}

// splitRawLines groups a flat token stream into per-line slices, each
// including its terminating Newline token (the final line may lack one).
func splitRawLines(tokens []Token) [][]Token {
	var lines [][]Token
	start := 0
	for i, t := range tokens {
		if t.Kind == TokNewline {
			lines = append(lines, tokens[start:i+1])
			start = i + 1
		}
	}
	if start < len(tokens) {
		lines = append(lines, tokens[start:])
	}
	return lines
}

// isRawLineBlank reports whether a line (as produced by splitRawLines)
// contains only whitespace and its terminating newline.
func isRawLineBlank(line []Token) bool {
	for _, t := range line {
		if !t.IsWhitespace() && t.Kind != TokNewline {
			return false
		}
	}
	return true
}
