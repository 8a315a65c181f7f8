package lex

import "strings"

// ApplyDialogPass is S5: after classification, rescan lines in document
// order. A ListItem line whose last two non-whitespace characters are both
// '.' triggers dialog mode; every subsequent non-Blank line is relabeled
// Dialog until a Blank line resets the state. Blank lines are never
// relabeled.
func ApplyDialogPass(lines []ClassifiedLine) []ClassifiedLine {
	out := make([]ClassifiedLine, len(lines))
	copy(out, lines)

	inDialog := false
	for i := range out {
		switch out[i].Type {
		case LineBlank:
			inDialog = false
			continue
		}

		if inDialog {
			out[i].Type = LineDialog
			continue
		}

		if out[i].Type == LineListItem && triggersDialog(out[i].trimmed) {
			inDialog = true
		}
	}
	return out
}

// triggersDialog reports whether a line's trimmed text ends with two
// consecutive '.' characters (ignoring trailing whitespace, which
// trimmedText already stripped).
func triggersDialog(text string) bool {
	return strings.HasSuffix(text, "..")
}
