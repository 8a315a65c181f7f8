// Command lex inspects a .lex document: it runs the pipeline up to a
// chosen stage and prints that stage's intermediate or final product.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/lexlang/lex/core/lex"
	"github.com/lexlang/lex/internal/config"
	"github.com/lexlang/lex/internal/errs"
	"github.com/lexlang/lex/internal/store"
)

const version = "0.1.0"

// transforms lists every name `lex inspect` accepts, in the order
// --list-transforms prints them.
var transforms = []string{
	"token-core-json", "token-core-simple", "token-core-pprint",
	"token-simple", "token-pprint",
	"token-line-json", "token-line-simple", "token-line-pprint",
	"ir-json",
	"ast-json", "ast-tag", "ast-treeviz",
}

// listTransformsFlag implements kong's BeforeApply hook so
// --list-transforms short-circuits like --version does, without requiring
// a path or transform argument.
type listTransformsFlag bool

func (listTransformsFlag) BeforeApply(app *kong.Kong) error {
	for _, t := range transforms {
		fmt.Fprintln(app.Stdout, t)
	}
	app.Exit(0)
	return nil
}

var CLI struct {
	ConfigPath     string             `name:"config" help:"Path to .lexrc.yaml (default: built-in settings apply)." type:"path"`
	Version        kong.VersionFlag   `short:"V" help:"Print version and exit."`
	ListTransforms listTransformsFlag `help:"List the transforms accepted by 'inspect' and exit."`

	Inspect InspectCmd `cmd:"" help:"Run one pipeline transform over a .lex file and print its output."`
	Cache   CacheGroup `cmd:"" help:"Parse cache maintenance."`
}

// InspectCmd is `lex inspect <path> <transform>`.
type InspectCmd struct {
	Path      string `arg:"" help:"Path to the .lex file to inspect." type:"existingfile"`
	Transform string `arg:"" help:"Transform name; see --list-transforms."`
}

func (c *InspectCmd) Run() error {
	cfg, err := config.Load(CLI.ConfigPath)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(c.Path)
	if err != nil {
		return errs.NewIO("read", c.Path, err)
	}

	opt := lex.WithIndentConfig(lex.IndentConfig{StepWidth: cfg.IndentStep, TabWidth: cfg.TabWidth})

	out, err := render(src, c.Transform, opt)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// render dispatches to the transform's implementation. Every transform
// here degrades diagnostics gracefully (per spec.md §7, only an invariant
// violation is fatal); render returns an error only for an invariant
// violation reported by lex.Parse, a JSON encoding failure, or an unknown
// transform.
func render(src []byte, transform string, opt lex.Option) (string, error) {
	switch transform {
	case "token-core-json":
		return renderTokensJSON(lex.ParseTokens(src, opt)), nil
	case "token-core-simple":
		return renderTokensSimple(lex.ParseTokens(src, opt)), nil
	case "token-core-pprint":
		return renderTokensPprint(lex.ParseTokens(src, opt)), nil
	case "token-simple":
		return renderLinesSimple(lex.GroupLines(lex.ParseTokens(src, opt)), src), nil
	case "token-pprint":
		return renderLinesPprint(lex.GroupLines(lex.ParseTokens(src, opt)), src), nil
	case "token-line-json":
		return renderClassifiedJSON(lex.ParseLines(src, opt))
	case "token-line-simple":
		return renderClassifiedSimple(lex.ParseLines(src, opt), src), nil
	case "token-line-pprint":
		return renderClassifiedPprint(lex.ParseLines(src, opt), src), nil
	case "ir-json":
		doc, _, err := lex.Parse(src, opt, lex.WithSkipInline(true))
		if err != nil {
			return "", err
		}
		data, err := lex.MarshalDocumentJSON(doc)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case "ast-json":
		doc, _, err := lex.Parse(src, opt)
		if err != nil {
			return "", err
		}
		data, err := lex.MarshalDocumentJSON(doc)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case "ast-tag":
		doc, _, err := lex.Parse(src, opt)
		if err != nil {
			return "", err
		}
		return renderASTTags(doc), nil
	case "ast-treeviz":
		doc, _, err := lex.Parse(src, opt)
		if err != nil {
			return "", err
		}
		return renderASTTree(doc), nil
	default:
		return "", errs.NewUnsupported("transform "+transform, "see --list-transforms")
	}
}

func renderTokensJSON(toks []lex.Token) string {
	type jtok struct {
		Kind string   `json:"kind"`
		Span lex.Span `json:"span"`
		Text string   `json:"text,omitempty"`
	}
	out := make([]jtok, 0, len(toks))
	for _, t := range toks {
		out = append(out, jtok{Kind: t.String(), Span: t.Span, Text: t.Text})
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return string(data)
}

func renderTokensSimple(toks []lex.Token) string {
	var b strings.Builder
	for _, t := range toks {
		fmt.Fprintf(&b, "%d-%d\t%s\n", t.Span.Start, t.Span.End, tokenLabel(t))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderTokensPprint(toks []lex.Token) string {
	var b strings.Builder
	depth := 0
	for _, t := range toks {
		switch t.Kind {
		case lex.TokDedent:
			depth--
		}
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", max(depth, 0)), tokenLabel(t))
		if t.Kind == lex.TokIndent {
			depth++
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func tokenLabel(t lex.Token) string {
	switch t.Kind {
	case lex.TokIndent:
		return "Indent"
	case lex.TokDedent:
		return "Dedent"
	case lex.TokWhitespaceSpace, lex.TokWhitespaceTab, lex.TokChar:
		return fmt.Sprintf("%s %q", kindName(t.Kind), t.Text)
	default:
		return kindName(t.Kind)
	}
}

func kindName(k lex.TokenKind) string {
	switch k {
	case lex.TokChar:
		return "Char"
	case lex.TokWhitespaceSpace:
		return "Space"
	case lex.TokWhitespaceTab:
		return "Tab"
	case lex.TokNewline:
		return "Newline"
	case lex.TokColon:
		return "Colon"
	case lex.TokDoubleColon:
		return "DoubleColon"
	case lex.TokDash:
		return "Dash"
	case lex.TokPeriod:
		return "Period"
	case lex.TokOpenParen:
		return "OpenParen"
	case lex.TokCloseParen:
		return "CloseParen"
	case lex.TokIndent:
		return "Indent"
	case lex.TokDedent:
		return "Dedent"
	default:
		return "Unknown"
	}
}

func renderLinesSimple(lines []lex.Line, src []byte) string {
	var b strings.Builder
	for i, l := range lines {
		fmt.Fprintf(&b, "%d\tdepth=%+d\t%q\n", i, l.Depth(), l.Span.Slice(src))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderLinesPprint(lines []lex.Line, src []byte) string {
	var b strings.Builder
	depth := 0
	for _, l := range lines {
		depth += l.Depth()
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", max(depth, 0)), strings.TrimRight(l.Span.Slice(src), "\n"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderClassifiedJSON(lines []lex.ClassifiedLine) (string, error) {
	type jline struct {
		Type string   `json:"type"`
		Span lex.Span `json:"span"`
	}
	out := make([]jline, 0, len(lines))
	for _, cl := range lines {
		out = append(out, jline{Type: cl.Type.String(), Span: cl.Line.Span})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func renderClassifiedSimple(lines []lex.ClassifiedLine, src []byte) string {
	var b strings.Builder
	for i, cl := range lines {
		fmt.Fprintf(&b, "%d\t%-18s%q\n", i, cl.Type.String(), strings.TrimRight(cl.Line.Span.Slice(src), "\n"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderClassifiedPprint(lines []lex.ClassifiedLine, src []byte) string {
	var b strings.Builder
	depth := 0
	for _, cl := range lines {
		depth += cl.Line.Depth()
		fmt.Fprintf(&b, "%s[%s] %s\n", strings.Repeat("  ", max(depth, 0)), cl.Type.String(), strings.TrimRight(cl.Line.Span.Slice(src), "\n"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderASTTags(doc *lex.Document) string {
	var b strings.Builder
	lex.Walk(doc, func(el lex.Element) bool {
		fmt.Fprintln(&b, lex.ElementKind(el))
		return true
	})
	return strings.TrimRight(b.String(), "\n")
}

func renderASTTree(doc *lex.Document) string {
	var b strings.Builder
	writeTreeNode(&b, doc, 0)
	return strings.TrimRight(b.String(), "\n")
}

func writeTreeNode(b *strings.Builder, el lex.Element, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s %s\n", indent, lex.ElementKind(el), el.Span())

	var children []lex.Element
	switch n := el.(type) {
	case *lex.Document:
		children = n.Children
	case *lex.Session:
		children = n.Children
	case *lex.Definition:
		children = n.Children
	case *lex.List:
		for _, it := range n.Items {
			fmt.Fprintf(b, "%s  ListItem %s %q\n", indent, it.SpanVal, it.Head.Raw)
			for _, c := range it.Children {
				writeTreeNode(b, c, depth+2)
			}
		}
	case *lex.Annotation:
		if n.Body != nil {
			for _, c := range n.Body.Block {
				children = append(children, c)
			}
		}
	}
	for _, c := range children {
		writeTreeNode(b, c, depth+1)
	}
}

// CacheGroup is `lex cache`: maintenance for the content-addressed parse
// cache in internal/store.
type CacheGroup struct {
	Stats CacheStatsCmd `cmd:"" help:"Print parse cache entry count and size."`
	Clear CacheClearCmd `cmd:"" help:"Drop the parse cache index."`
}

type CacheStatsCmd struct{}

func (c *CacheStatsCmd) Run() error {
	cfg, err := config.Load(CLI.ConfigPath)
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.CacheDir)
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("entries: %d\n", stats.Entries)
	fmt.Printf("bytes:   %d\n", stats.Bytes)
	return nil
}

type CacheClearCmd struct{}

func (c *CacheClearCmd) Run() error {
	cfg, err := config.Load(CLI.ConfigPath)
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.CacheDir)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Clear(); err != nil {
		return err
	}
	fmt.Println("cache cleared")
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("lex"),
		kong.Description("Inspect a lex document by running its pipeline up to a chosen stage."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
