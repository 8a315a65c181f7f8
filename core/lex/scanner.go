package lex

import "unicode/utf8"

// Scan turns a UTF-8 source buffer into the flat core token stream (S1).
// Scan never fails: any byte sequence is representable, malformed UTF-8
// included (invalid sequences are emitted one TokChar per byte, matching
// utf8.DecodeRune's RuneError/1 behavior).
//
// CR immediately before LF collapses into the same TokNewline as the LF (one
// logical newline), but its span still covers both bytes so every token's
// source slice stays byte-exact; a bare CR elsewhere is ordinary text and
// becomes a TokChar.
func Scan(src []byte) []Token {
	var toks []Token
	i := 0
	n := len(src)

	flushRun := func(kind TokenKind, start int) {
		if i > start {
			toks = append(toks, Token{Kind: kind, Span: Span{start, i}, Text: string(src[start:i])})
		}
	}

	for i < n {
		c := src[i]
		switch {
		case c == '\r' && i+1 < n && src[i+1] == '\n':
			// One logical newline, but the span must cover both bytes: the CR
			// is real source content, not a synthetic zero-width token, so
			// dropping it from every span would violate the round-trip
			// invariant (spec.md §8) for any CRLF input.
			toks = append(toks, Token{Kind: TokNewline, Span: Span{i, i + 2}})
			i += 2
		case c == '\n':
			toks = append(toks, Token{Kind: TokNewline, Span: Span{i, i + 1}})
			i++
		case c == ' ':
			start := i
			for i < n && src[i] == ' ' {
				i++
			}
			flushRun(TokWhitespaceSpace, start)
		case c == '\t':
			start := i
			for i < n && src[i] == '\t' {
				i++
			}
			flushRun(TokWhitespaceTab, start)
		case c == ':':
			if i+1 < n && src[i+1] == ':' {
				toks = append(toks, Token{Kind: TokDoubleColon, Span: Span{i, i + 2}})
				i += 2
			} else {
				toks = append(toks, Token{Kind: TokColon, Span: Span{i, i + 1}})
				i++
			}
		case c == '-':
			toks = append(toks, Token{Kind: TokDash, Span: Span{i, i + 1}})
			i++
		case c == '.':
			toks = append(toks, Token{Kind: TokPeriod, Span: Span{i, i + 1}})
			i++
		case c == '(':
			toks = append(toks, Token{Kind: TokOpenParen, Span: Span{i, i + 1}})
			i++
		case c == ')':
			toks = append(toks, Token{Kind: TokCloseParen, Span: Span{i, i + 1}})
			i++
		default:
			_, size := utf8.DecodeRune(src[i:])
			if size == 0 {
				size = 1
			}
			toks = append(toks, Token{Kind: TokChar, Span: Span{i, i + size}, Text: string(src[i : i+size])})
			i += size
		}
	}
	return toks
}
