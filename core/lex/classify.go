package lex

import (
	"regexp"
	"strings"
)

// LineType is the S4 classification assigned to a logical line. Predicates
// are evaluated in the fixed order of Classify's switch; the first match wins.
type LineType int

const (
	LineBlank LineType = iota
	LineAnnotationEnd
	LineAnnotationStart
	LineDataHeader
	LineSubjectOrListItem
	LineListItem
	LineSubject
	LineParagraph
	// LineDialog is assigned only by the S5 dialog pass, never by Classify.
	LineDialog
)

func (t LineType) String() string {
	switch t {
	case LineBlank:
		return "Blank"
	case LineAnnotationEnd:
		return "AnnotationEnd"
	case LineAnnotationStart:
		return "AnnotationStart"
	case LineDataHeader:
		return "DataHeader"
	case LineSubjectOrListItem:
		return "SubjectOrListItem"
	case LineListItem:
		return "ListItem"
	case LineSubject:
		return "Subject"
	case LineParagraph:
		return "Paragraph"
	case LineDialog:
		return "Dialog"
	default:
		return "Unknown"
	}
}

// ListStyle identifies the marker family of a List, taken from its first item.
type ListStyle int

const (
	StyleDash ListStyle = iota
	StyleNumberDot
	StyleNumberParen
	StyleLetterDot
	StyleLetterParen
	StyleParenNumber
	StyleParenLetter
	StyleRomanDot
	StyleRomanParen
)

// ListMarker is the recognized marker prefix of a SubjectOrListItem/ListItem line.
type ListMarker struct {
	Style ListStyle
	Text  string
	Span  Span
}

// Param is one ordered key=value pair of a DataHeader.
type Param struct {
	Key    string
	Value  string
	Quoted bool
	Span   Span
}

// DataHeader is the reusable ":: label (params)?" prefix used by
// annotations and verbatim closers.
type DataHeader struct {
	Label     string
	LabelSpan Span
	Params    []Param
	Span      Span
}

// ClassifiedLine pairs a logical line with its S4 classification and any
// structured data extracted while classifying it (so later stages never
// re-parse the same grammar).
type ClassifiedLine struct {
	Line Line
	Type LineType

	// Header is populated for LineAnnotationStart and LineDataHeader.
	Header *DataHeader
	// Trailer is the inline text after an AnnotationStart line's closing
	// "::", present only in the single-line annotation form.
	Trailer Span
	// HasTrailer is true only when non-space text follows the closing "::";
	// "::label::" and "::label:: " (blank trailer) both leave it false.
	HasTrailer bool

	// Marker is populated for LineSubjectOrListItem and LineListItem.
	Marker *ListMarker
	// Head is the text span after the marker (for SubjectOrListItem it includes the trailing colon).
	Head Span

	// trimmed is the line's trimmed text, cached from Classify for reuse by
	// the S5 dialog pass so it doesn't need to re-slice the source.
	trimmed string
}

var (
	labelRe     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_\-.]*`)
	keyRe       = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_\-]*`)
	quotedValRe = regexp.MustCompile(`^"((?:[^"\\]|\\.)*)"`)
	plainValRe  = regexp.MustCompile(`^[A-Za-z0-9\-.]+`)
)

// Classify runs S4 over one logical line. src is the full document source,
// needed to re-derive the line's literal text for grammar matching.
func Classify(line Line, src []byte) ClassifiedLine {
	if line.IsBlank() {
		return ClassifiedLine{Line: line, Type: LineBlank}
	}

	text, offset := trimmedText(line, src)

	var cl ClassifiedLine
	switch {
	case text == "::":
		cl = ClassifiedLine{Line: line, Type: LineAnnotationEnd}
	case strings.HasPrefix(text, "::") && tryClassifyFn(&cl, func() (ClassifiedLine, bool) { return classifyAnnotationStart(line, text, offset) }):
	case strings.HasPrefix(text, "::") && tryClassifyFn(&cl, func() (ClassifiedLine, bool) { return classifyDataHeader(line, text, offset) }):
	case tryClassifyFn(&cl, func() (ClassifiedLine, bool) { return classifyMarkerLine(line, text, offset) }):
	case strings.HasSuffix(text, ":"):
		cl = ClassifiedLine{Line: line, Type: LineSubject}
	default:
		cl = ClassifiedLine{Line: line, Type: LineParagraph}
	}
	cl.trimmed = text
	return cl
}

// tryClassifyFn calls fn, adopts its result into *dst if ok, and reports ok,
// letting Classify's switch read like the precedence-ordered predicate list
// it implements.
func tryClassifyFn(dst *ClassifiedLine, fn func() (ClassifiedLine, bool)) bool {
	result, ok := fn()
	if ok {
		*dst = result
	}
	return ok
}

// trimmedText returns the line's content with its terminating newline and
// any leading/trailing ASCII whitespace stripped, plus the absolute byte
// offset of the first returned rune in src.
func trimmedText(line Line, src []byte) (string, int) {
	full := line.Text(src)
	full = strings.TrimRight(full, "\r\n")
	start := line.Span.Start
	trimmedLeft := strings.TrimLeft(full, " \t")
	start += len(full) - len(trimmedLeft)
	return strings.TrimRight(trimmedLeft, " \t"), start
}

// classifyAnnotationStart matches ":: label (WS params)? WS? :: (WS text)?".
func classifyAnnotationStart(line Line, text string, offset int) (ClassifiedLine, bool) {
	header, rest, ok := parseDataHeader(text, offset)
	if !ok {
		return ClassifiedLine{}, false
	}
	rest = strings.TrimLeft(rest, " \t")
	consumed := len(text) - len(rest)
	if !strings.HasPrefix(rest, "::") {
		return ClassifiedLine{}, false
	}
	trailerText := rest[2:]
	trailerOffset := offset + consumed + 2
	trailerTrimmed := strings.TrimLeft(trailerText, " \t")
	trailerOffset += len(trailerText) - len(trailerTrimmed)

	cl := ClassifiedLine{
		Line:       line,
		Type:       LineAnnotationStart,
		Header:     header,
		HasTrailer: len(strings.TrimSpace(trailerText)) > 0,
	}
	if cl.HasTrailer {
		cl.Trailer = Span{trailerOffset, trailerOffset + len(trailerTrimmed)}
	}
	return cl, true
}

// classifyDataHeader matches ":: label (WS params)?" with no trailing "::".
func classifyDataHeader(line Line, text string, offset int) (ClassifiedLine, bool) {
	header, rest, ok := parseDataHeader(text, offset)
	if !ok {
		return ClassifiedLine{}, false
	}
	if strings.TrimSpace(rest) != "" {
		// Leftover content that isn't a closing "::" means this isn't a
		// clean data header line (e.g. trailing garbage); degrade to paragraph.
		return ClassifiedLine{}, false
	}
	return ClassifiedLine{Line: line, Type: LineDataHeader, Header: header}, true
}

// parseDataHeader parses the "label (params)?" region right after a leading
// "::" and returns the header plus whatever text remains unconsumed.
func parseDataHeader(text string, offset int) (*DataHeader, string, bool) {
	if !strings.HasPrefix(text, "::") {
		return nil, text, false
	}
	rest := text[2:]
	base := offset + 2
	trimmed := strings.TrimLeft(rest, " \t")
	base += len(rest) - len(trimmed)
	rest = trimmed

	m := labelRe.FindString(rest)
	if m == "" {
		return nil, text, false
	}
	header := &DataHeader{
		Label:     m,
		LabelSpan: Span{base, base + len(m)},
	}
	rest = rest[len(m):]
	cursor := base + len(m)

	// Optional whitespace + comma-separated params, bounded to the region
	// before a closing "::" (or end of line).
	for {
		save := rest
		ws := strings.TrimLeft(rest, " \t")
		if ws == rest {
			break
		}
		skipped := len(rest) - len(ws)
		keym := keyRe.FindString(ws)
		if keym == "" {
			rest = save
			break
		}
		afterKey := ws[len(keym):]
		if !strings.HasPrefix(afterKey, "=") {
			rest = save
			break
		}
		valueRegion := afterKey[1:]
		var value string
		var quoted bool
		var valueLen int
		if qm := quotedValRe.FindStringSubmatch(valueRegion); qm != nil {
			quoted = true
			value = unescapeQuoted(qm[1])
			valueLen = len(qm[0])
		} else if vm := plainValRe.FindString(valueRegion); vm != "" {
			value = vm
			valueLen = len(vm)
		} else {
			rest = save
			break
		}
		paramStart := cursor + skipped
		header.Params = append(header.Params, Param{
			Key:    keym,
			Value:  value,
			Quoted: quoted,
			Span:   Span{paramStart, paramStart + len(keym) + 1 + valueLen},
		})
		consumedLen := skipped + len(keym) + 1 + valueLen
		cursor += consumedLen
		rest = valueRegion[valueLen:]

		// Optional comma separator before the next param.
		trimmedAfter := strings.TrimLeft(rest, " \t")
		gap := len(rest) - len(trimmedAfter)
		if strings.HasPrefix(trimmedAfter, ",") {
			cursor += gap + 1
			rest = trimmedAfter[1:]
			continue
		}
		break
	}

	header.Span = Span{offset, cursor}
	return header, rest, true
}

func unescapeQuoted(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// classifyMarkerLine recognizes SubjectOrListItem/ListItem: a leading list
// marker followed by exactly one space, then any head text. Whether the
// line ends with ':' decides SubjectOrListItem vs ListItem.
func classifyMarkerLine(line Line, text string, offset int) (ClassifiedLine, bool) {
	marker, ok := matchListMarker(text)
	if !ok {
		return ClassifiedLine{}, false
	}
	after := text[len(marker.Text):]
	if !strings.HasPrefix(after, " ") {
		return ClassifiedLine{}, false
	}
	after = after[1:]
	if after == "" {
		return ClassifiedLine{}, false
	}
	marker.Span = Span{offset, offset + len(marker.Text)}
	headStart := offset + len(marker.Text) + 1

	typ := LineListItem
	if strings.HasSuffix(after, ":") {
		typ = LineSubjectOrListItem
	}

	return ClassifiedLine{
		Line:   line,
		Type:   typ,
		Marker: &marker,
		Head:   Span{headStart, headStart + len(after)},
	}, true
}

var (
	numberDotRe  = regexp.MustCompile(`^[0-9]+\.`)
	numberParRe  = regexp.MustCompile(`^[0-9]+\)`)
	letterDotRe  = regexp.MustCompile(`^[A-Za-z]\.`)
	letterParRe  = regexp.MustCompile(`^[A-Za-z]\)`)
	parenNumRe   = regexp.MustCompile(`^\([0-9]+\)`)
	parenLetRe   = regexp.MustCompile(`^\([A-Za-z]\)`)
	romanDotRe   = regexp.MustCompile(`^[IVXLCDMivxlcdm]+\.`)
	romanParRe   = regexp.MustCompile(`^[IVXLCDMivxlcdm]+\)`)
	ambiguousROM = map[byte]bool{'I': true, 'V': true, 'X': true, 'L': true, 'C': true, 'D': true, 'M': true}
)

// matchListMarker recognizes the marker grammar of spec.md §4.4: "-",
// "<digits>." / "<digits>)", "<letter>." / "<letter>)", "(<digits>)" /
// "(<letter>)", and well-formed Roman numerals with "." or ")". A single
// letter, in either case, that is also a valid Roman numeral digit
// (I V X L C D M) is ambiguous and is rejected here, per spec.md §9, falling back to Paragraph.
func matchListMarker(text string) (ListMarker, bool) {
	if strings.HasPrefix(text, "- ") || text == "-" {
		return ListMarker{Style: StyleDash, Text: "-"}, true
	}
	if m := romanDotRe.FindString(text); m != "" && isWellFormedRoman(m[:len(m)-1]) {
		if len(m) == 2 && ambiguousROM[upper(m[0])] {
			return ListMarker{}, false
		}
		return ListMarker{Style: StyleRomanDot, Text: m}, true
	}
	if m := romanParRe.FindString(text); m != "" && isWellFormedRoman(m[:len(m)-1]) {
		if len(m) == 2 && ambiguousROM[upper(m[0])] {
			return ListMarker{}, false
		}
		return ListMarker{Style: StyleRomanParen, Text: m}, true
	}
	if m := numberDotRe.FindString(text); m != "" {
		return ListMarker{Style: StyleNumberDot, Text: m}, true
	}
	if m := numberParRe.FindString(text); m != "" {
		return ListMarker{Style: StyleNumberParen, Text: m}, true
	}
	if m := parenNumRe.FindString(text); m != "" {
		return ListMarker{Style: StyleParenNumber, Text: m}, true
	}
	if m := parenLetRe.FindString(text); m != "" {
		return ListMarker{Style: StyleParenLetter, Text: m}, true
	}
	if m := letterDotRe.FindString(text); m != "" {
		return ListMarker{Style: StyleLetterDot, Text: m}, true
	}
	if m := letterParRe.FindString(text); m != "" {
		return ListMarker{Style: StyleLetterParen, Text: m}, true
	}
	return ListMarker{}, false
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// isWellFormedRoman reports whether s (case-insensitive) is a well-formed
// Roman numeral no greater than 3999.
func isWellFormedRoman(s string) bool {
	s = strings.ToUpper(s)
	if s == "" {
		return false
	}
	v, ok := romanValue(s)
	return ok && v >= 1 && v <= 3999 && romanCanonical(v) == s
}

var romanDigits = []struct {
	sym string
	val int
}{
	{"M", 1000}, {"CM", 900}, {"D", 500}, {"CD", 400},
	{"C", 100}, {"XC", 90}, {"L", 50}, {"XL", 40},
	{"X", 10}, {"IX", 9}, {"V", 5}, {"IV", 4}, {"I", 1},
}

func romanCanonical(v int) string {
	var b strings.Builder
	for _, d := range romanDigits {
		for v >= d.val {
			b.WriteString(d.sym)
			v -= d.val
		}
	}
	return b.String()
}

func romanValue(s string) (int, bool) {
	vals := map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}
	total := 0
	for i := 0; i < len(s); i++ {
		v, ok := vals[s[i]]
		if !ok {
			return 0, false
		}
		if i+1 < len(s) {
			if nv, ok2 := vals[s[i+1]]; ok2 && nv > v {
				total -= v
				continue
			}
		}
		total += v
	}
	return total, true
}

// ClassifyLines runs Classify over every logical line produced by GroupLines.
func ClassifyLines(lines []Line, src []byte) []ClassifiedLine {
	out := make([]ClassifiedLine, len(lines))
	for i, l := range lines {
		out[i] = Classify(l, src)
	}
	return out
}
