package lex

import (
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ReferenceKind classifies a Reference inline's inner text, per spec.md
// §4.8's priority-ordered rules. Rules are tried in the order of
// ClassifyReference's switch (not the order of the constants below);
// the first match wins.
type ReferenceKind int

const (
	RefUnsure ReferenceKind = iota
	RefTK
	RefCitation
	RefFootnoteLabeled
	RefFootnoteNumbered
	RefSession
	RefUrl
	RefFile
	RefGeneral
)

func (k ReferenceKind) String() string {
	switch k {
	case RefTK:
		return "TK"
	case RefCitation:
		return "Citation"
	case RefFootnoteLabeled:
		return "FootnoteLabeled"
	case RefFootnoteNumbered:
		return "FootnoteNumbered"
	case RefSession:
		return "Session"
	case RefUrl:
		return "Url"
	case RefFile:
		return "File"
	case RefGeneral:
		return "General"
	default:
		return "Unsure"
	}
}

// CitationKey is one `@key` entry of a Citation reference, with its
// optional trailing page locator.
type CitationKey struct {
	Key     string
	Locator string
}

// ReferenceInfo is the classification result attached to an InlineReference node.
type ReferenceInfo struct {
	Kind      ReferenceKind
	Raw       string
	Citations []CitationKey
}

var (
	tkRe       = regexp.MustCompile(`(?i)^TK(-[A-Za-z0-9_-]+)?$`)
	sessionRe  = regexp.MustCompile(`^#[0-9.-]+$`)
	urlRe      = regexp.MustCompile(`^(https?://|mailto:)`)
	numericRe  = regexp.MustCompile(`^[0-9]+$`)
	hasAlnumRe = regexp.MustCompile(`[A-Za-z0-9]`)
)

// ClassifyReference applies spec.md §4.8's priority-ordered rules, in the
// order of the switch below, to a Reference inline's inner text; the
// first match wins.
func ClassifyReference(raw string, span Span) *ReferenceInfo {
	info := &ReferenceInfo{Raw: raw}
	trimmed := strings.TrimSpace(raw)

	switch {
	case trimmed == "":
		info.Kind = RefUnsure
	case tkRe.MatchString(trimmed):
		info.Kind = RefTK
	case strings.HasPrefix(trimmed, "@"):
		info.Kind = RefCitation
		info.Citations = parseCitationList(trimmed)
	case strings.HasPrefix(trimmed, "^"):
		info.Kind = RefFootnoteLabeled
	case sessionRe.MatchString(trimmed):
		info.Kind = RefSession
	case urlRe.MatchString(trimmed):
		info.Kind = RefUrl
	case strings.HasPrefix(trimmed, ".") || strings.HasPrefix(trimmed, "/"):
		info.Kind = RefFile
	case numericRe.MatchString(trimmed):
		info.Kind = RefFootnoteNumbered
	case hasAlnumRe.MatchString(trimmed):
		info.Kind = RefGeneral
	default:
		info.Kind = RefUnsure
	}
	return info
}

// citationDoc is the participle grammar for a Citation reference's inner
// text: one or more `@key` entries separated by `;` or `,`, each with an
// optional `p.`/`pp.` page locator (e.g. "@smith2019; @doe2020, pp. 12-14").
type citationDoc struct {
	Items []*citationItem `parser:"@@ ((';' | ',') @@)*"`
}

type citationItem struct {
	Key     string       `parser:"'@' @Ident"`
	Locator *citationLoc `parser:"(',' @@)?"`
}

type citationLoc struct {
	Abbrev string  `parser:"@('p' '.' | 'pp' '.')"`
	From   string  `parser:"@Number"`
	To     *string `parser:"('-' @Number)?"`
}

var citationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[@;,.\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var citationParser = participle.MustBuild[citationDoc](
	participle.Lexer(citationLexer),
	participle.Elide("Whitespace"),
)

// parseCitationList parses a Citation reference's inner text via the
// participle grammar above. It returns nil (not an empty slice) if the
// text does not conform; ClassifyReference still reports such text as
// RefCitation, with nil Citations.
func parseCitationList(text string) []CitationKey {
	doc, err := citationParser.ParseString("", text)
	if err != nil || len(doc.Items) == 0 {
		return nil
	}
	keys := make([]CitationKey, 0, len(doc.Items))
	for _, item := range doc.Items {
		loc := ""
		if item.Locator != nil {
			loc = item.Locator.Abbrev + " " + item.Locator.From
			if item.Locator.To != nil {
				loc += "-" + *item.Locator.To
			}
		}
		keys = append(keys, CitationKey{Key: item.Key, Locator: loc})
	}
	return keys
}
