package lex

// leveledLine pairs a classified line with its absolute container depth,
// computed by running Line.Depth() deltas across the whole document.
type leveledLine struct {
	cl    ClassifiedLine
	depth int
}

// builder is S6's recursive-descent cursor over the leveled line stream.
type builder struct {
	lines []leveledLine
	pos   int
	src   []byte
	rep   *Reporter
}

// Assemble is S6: it turns the S5-classified, flat line stream into the
// element tree, annotations still resident in Children (S7 relocates them).
func Assemble(lines []ClassifiedLine, src []byte, rep *Reporter) []Element {
	leveled := make([]leveledLine, len(lines))
	depth := 0
	for i, cl := range lines {
		depth += cl.Line.Depth()
		leveled[i] = leveledLine{cl: cl, depth: depth}
	}
	b := &builder{lines: leveled, src: src, rep: rep}
	return b.buildChildren(0)
}

func (b *builder) peek() (leveledLine, bool) {
	if b.pos >= len(b.lines) {
		return leveledLine{}, false
	}
	return b.lines[b.pos], true
}

func (b *builder) peekAt(offset int) (leveledLine, bool) {
	i := b.pos + offset
	if i >= len(b.lines) {
		return leveledLine{}, false
	}
	return b.lines[i], true
}

func (b *builder) advance() leveledLine {
	ll := b.lines[b.pos]
	b.pos++
	return ll
}

func (b *builder) text(span Span) string { return span.Slice(b.src) }

// buildChildren consumes every leveled line at exactly depth, recursing for
// nested blocks, until the stream runs dry or the next line's depth drops
// below depth (handled implicitly by the depth equality check).
//
// boundary tracks spec.md §4.6 rule 3's List precondition: the previous
// token at this depth must be Blank, or this must be the start of the
// container. It starts true (container start) and is reset to true only
// by consuming a Blank; every other branch clears it. A ListItem/
// SubjectOrListItem line seen while boundary is false cannot start a List
// no matter how many same-style siblings follow it — it folds into the
// surrounding paragraph run instead (buildParagraphRun accepts list-marker
// lines as plain text for exactly this reason).
func (b *builder) buildChildren(depth int) []Element {
	var out []Element
	boundary := true
	for {
		ll, ok := b.peek()
		if !ok || ll.depth < depth {
			return out
		}
		if ll.depth > depth {
			// An unexpected deeper line with no governing parent at this
			// level: consume it as an orphaned paragraph run rather than
			// looping forever.
			b.rep.Warn("unexpected indentation with no enclosing block", ll.cl.Line.Span)
			out = append(out, b.buildParagraphRun(depth+1))
			boundary = false
			continue
		}

		switch ll.cl.Type {
		case LineBlank:
			b.advance()
			boundary = true
		case LineAnnotationEnd:
			b.rep.Warn("stray annotation close with no matching open", ll.cl.Line.Span)
			b.advance()
			boundary = false
		case LineAnnotationStart:
			out = append(out, b.buildAnnotation(depth))
			boundary = false
		case LineDataHeader:
			// An unclaimed data header with no preceding Subject/Annotation
			// context: spec.md §4.6's precedence list has no rule for a bare
			// DataHeader, so it degrades to an ordinary paragraph.
			out = append(out, b.buildParagraphFrom(b.advance()))
			boundary = false
		case LineListItem:
			if boundary {
				out = append(out, b.buildListOrFallback(depth, false)...)
			} else {
				out = append(out, b.buildParagraphRun(depth))
			}
			boundary = false
		case LineSubjectOrListItem:
			if boundary {
				out = append(out, b.buildListOrFallback(depth, true)...)
			} else {
				// List (rule 3) is off the table without a preceding Blank,
				// but Definition/Session (rules 4/5) carry no such
				// precondition, so a SubjectOrListItem line still gets a
				// shot at those before falling to plain paragraph text.
				out = append(out, b.buildSubjectBlock(depth))
			}
			boundary = false
		case LineSubject:
			if el := b.tryBuildVerbatim(depth); el != nil {
				out = append(out, el)
			} else {
				out = append(out, b.buildSubjectBlock(depth))
			}
			boundary = false
		default: // LineParagraph, LineDialog
			out = append(out, b.buildParagraphRun(depth))
			boundary = false
		}
	}
}

// buildParagraphRun merges one or more contiguous Paragraph/Dialog lines at
// depth into a single Paragraph, one TextContent per source line. It also
// absorbs ListItem/SubjectOrListItem lines as plain text: a run only ever
// continues past the first line without an intervening Blank, so by
// spec.md §4.6 rule 3 a list can never legally start partway through it —
// folding those lines in here is what keeps "intro\n- a\n- b" a single
// Paragraph rather than a Paragraph followed by a List.
func (b *builder) buildParagraphRun(depth int) Element {
	var lines []TextContent
	var span Span
	first := true
	for {
		ll, ok := b.peek()
		if !ok || ll.depth != depth {
			break
		}
		switch ll.cl.Type {
		case LineParagraph, LineDialog, LineListItem, LineSubjectOrListItem:
		default:
			return &Paragraph{base: base{SpanVal: span}, Lines: lines}
		}
		b.advance()
		lineSpan := ll.cl.Line.Span
		lines = append(lines, NewTextContent(lineSpan, b.text(lineSpan)))
		if first {
			span = lineSpan
			first = false
		} else {
			span = span.Merge(lineSpan)
		}
	}
	return &Paragraph{base: base{SpanVal: span}, Lines: lines}
}

func (b *builder) buildParagraphFrom(ll leveledLine) Element {
	sp := ll.cl.Line.Span
	return &Paragraph{base: base{SpanVal: sp}, Lines: []TextContent{NewTextContent(sp, b.text(sp))}}
}

// buildSubjectBlock resolves a bare Subject line into a Session (subject,
// blank, indented children), a Definition (subject, indented children with
// no intervening blank), or a degraded Paragraph if neither follows.
func (b *builder) buildSubjectBlock(depth int) Element {
	head := b.advance()
	titleSpan := head.cl.Line.Span
	title := NewTextContent(titleSpan, b.text(titleSpan))

	next, ok := b.peek()
	if !ok {
		b.rep.Warn("subject line with no following block", titleSpan)
		return &Paragraph{base: base{SpanVal: titleSpan}, Lines: []TextContent{title}}
	}

	if next.cl.Type == LineBlank {
		save := b.pos
		for {
			n, ok := b.peek()
			if !ok || n.cl.Type != LineBlank {
				break
			}
			b.advance()
		}
		after, ok := b.peek()
		if ok && after.depth == depth+1 {
			children := b.buildChildren(depth + 1)
			span := titleSpan
			if len(children) > 0 {
				span = span.Merge(children[len(children)-1].Span())
			}
			return &Session{base: base{SpanVal: span}, Title: title, Children: children}
		}
		b.pos = save
	}

	if next.depth == depth+1 {
		children := b.buildChildren(depth + 1)
		children = b.sanitize(children, true, false)
		span := titleSpan
		if len(children) > 0 {
			span = span.Merge(children[len(children)-1].Span())
		}
		return &Definition{base: base{SpanVal: span}, Subject: title, Children: children}
	}

	b.rep.Warn("subject line with no following block", titleSpan)
	return &Paragraph{base: base{SpanVal: titleSpan}, Lines: []TextContent{title}}
}

// buildListOrFallback gathers consecutive sibling ListItem/SubjectOrListItem
// lines at depth sharing one marker style into a List. SubjectOrListItem
// lines ending the grammar ambiguously fall back to buildSubjectBlock when
// fewer than two siblings share the style (spec.md §4.5's backtracking rule).
func (b *builder) buildListOrFallback(depth int, ambiguous bool) []Element {
	style := mustMarker(b.lines[b.pos].cl).Style
	count := b.countListSiblings(depth, style)
	if count < 2 {
		if ambiguous {
			return []Element{b.buildSubjectBlock(depth)}
		}
		ll := b.advance()
		b.rep.Warn("single list item with no siblings, degraded to paragraph", ll.cl.Line.Span)
		return []Element{b.buildParagraphFrom(ll)}
	}

	var items []*ListItemNode
	var span Span
	first := true
	for {
		ll, ok := b.peek()
		if !ok || ll.depth != depth {
			break
		}
		if ll.cl.Type != LineListItem && ll.cl.Type != LineSubjectOrListItem {
			break
		}
		marker := mustMarker(ll.cl)
		if marker.Style != style {
			break
		}
		b.advance()
		headSpan := ll.cl.Head
		itemSpan := ll.cl.Line.Span
		var children []Element
		if n, ok := b.peek(); ok && n.depth == depth+1 {
			children = b.buildChildren(depth + 1)
			if len(children) > 0 {
				itemSpan = itemSpan.Merge(children[len(children)-1].Span())
			}
		}
		items = append(items, &ListItemNode{
			Marker:   marker,
			Head:     NewTextContent(headSpan, b.text(headSpan)),
			Children: children,
			SpanVal:  itemSpan,
		})
		if first {
			span = itemSpan
			first = false
		} else {
			span = span.Merge(itemSpan)
		}
	}
	return []Element{&List{base: base{SpanVal: span}, Style: style, Items: items}}
}

// countListSiblings reports how many consecutive same-style ListItem /
// SubjectOrListItem lines at depth begin at the current cursor position,
// without consuming anything.
func (b *builder) countListSiblings(depth int, style ListStyle) int {
	count := 0
	i := b.pos
	for i < len(b.lines) {
		ll := b.lines[i]
		if ll.depth < depth {
			break
		}
		if ll.depth > depth {
			i++
			continue
		}
		if ll.cl.Type != LineListItem && ll.cl.Type != LineSubjectOrListItem {
			break
		}
		if mustMarker(ll.cl).Style != style {
			break
		}
		count++
		i++
	}
	return count
}

func mustMarker(cl ClassifiedLine) ListMarker {
	if cl.Marker != nil {
		return *cl.Marker
	}
	return ListMarker{}
}

// buildAnnotation handles all three annotation forms. The single-line form
// (HasTrailer) is self-contained. With no trailer, a child block at
// depth+1 means the block form, which requires a same-depth
// LineAnnotationEnd to close it; with no trailer and no child at depth+1,
// this is the bare Marker form (`:: label ::` standing alone) — Body is
// nil, and no closer is expected or searched for.
func (b *builder) buildAnnotation(depth int) Element {
	ll := b.advance()
	header := ll.cl.Header
	lineSpan := ll.cl.Line.Span

	if ll.cl.HasTrailer {
		tc := NewTextContent(ll.cl.Trailer, b.text(ll.cl.Trailer))
		return &Annotation{
			base: base{SpanVal: lineSpan},
			Data: header,
			Body: &AnnotationBody{Inline: &tc},
		}
	}

	n, hasChild := b.peek()
	if !hasChild || n.depth != depth+1 {
		return &Annotation{base: base{SpanVal: lineSpan}, Data: header, Body: nil}
	}

	children := b.sanitize(b.buildChildren(depth+1), true, true)

	span := lineSpan
	if len(children) > 0 {
		span = span.Merge(children[len(children)-1].Span())
	}

	if end, ok := b.peek(); ok && end.depth == depth && end.cl.Type == LineAnnotationEnd {
		b.advance()
		span = span.Merge(end.cl.Line.Span)
	} else {
		b.rep.Warn("annotation block not closed with '::'", lineSpan)
	}

	return &Annotation{
		base: base{SpanVal: span},
		Data: header,
		Body: &AnnotationBody{Block: children},
	}
}

// sanitize enforces spec.md §3/§8's nesting invariants on a freshly built
// child sequence: a Definition subtree contains no Session at any depth
// (banSession), and an Annotation.Block body contains no Session and no
// nested Annotation at any depth (banSession and banAnnotation both set).
// "At any depth" includes inside ListItem children, which Walk/childrenOf
// do not reach, so this walks List itself rather than reusing Walk. Each
// banned node found is demoted to a Paragraph and reported via rep.Caution.
func (b *builder) sanitize(els []Element, banSession, banAnnotation bool) []Element {
	for i, el := range els {
		els[i] = b.sanitizeElement(el, banSession, banAnnotation)
	}
	return els
}

func (b *builder) sanitizeElement(el Element, banSession, banAnnotation bool) Element {
	switch n := el.(type) {
	case *Session:
		if banSession {
			b.rep.Caution("session nested inside a definition or annotation block, degraded to paragraph", n.Span())
			return b.degradeToParagraph(n.Span(), n.Title)
		}
		n.Children = b.sanitize(n.Children, banSession, banAnnotation)
		return n
	case *Definition:
		// The ban applies "at any depth" regardless of how far it's nested,
		// so a Definition's own children are always checked for Session.
		n.Children = b.sanitize(n.Children, true, banAnnotation)
		return n
	case *Annotation:
		if banAnnotation {
			b.rep.Caution("annotation nested inside an annotation block, degraded to paragraph", n.Span())
			return b.degradeToParagraph(n.Span(), b.annotationHeadText(n))
		}
		if n.Body != nil && n.Body.Block != nil {
			n.Body.Block = b.sanitize(n.Body.Block, true, true)
		}
		return n
	case *List:
		for _, item := range n.Items {
			item.Children = b.sanitize(item.Children, banSession, banAnnotation)
		}
		return n
	default:
		return el
	}
}

// degradeToParagraph builds a single-line Paragraph spanning the whole
// demoted subtree, matching spec.md §4.6's general degradation rule: the
// entire candidate is retried as a paragraph, not just its opening line.
func (b *builder) degradeToParagraph(span Span, head TextContent) Element {
	return &Paragraph{base: base{SpanVal: span}, Lines: []TextContent{head}}
}

// annotationHeadText returns a demoted Annotation's best available text:
// its inline trailer when present, otherwise its own header line's raw
// source text, mirroring how buildAnnotation reads a header line.
func (b *builder) annotationHeadText(n *Annotation) TextContent {
	if n.Body != nil && n.Body.Inline != nil {
		return *n.Body.Inline
	}
	span := n.Span()
	return NewTextContent(span, b.text(span))
}

// tryBuildVerbatim implements spec.md §4.6 rule 1. The cursor must be on a
// Subject line at depth. It looks ahead for: the subject, an optional
// Blank, then one or more raw lines at the indentation wall (depth+1,
// "subject_indent + 1 step"), repeated for any further (subject, body)
// pairs that share the same wall, terminated by a DataHeader back at
// depth. Raw content is collected byte-exactly regardless of how S4
// classified those interior lines — the Verbatim reading of the source
// overrides the ordinary classifier. If no terminating DataHeader is
// found at this depth, it returns nil and consumes nothing, leaving the
// Subject line to be retried as a Definition/Session/paragraph.
func (b *builder) tryBuildVerbatim(depth int) Element {
	save := b.pos
	openSpan := b.lines[b.pos].cl.Line.Span

	var pairs []VerbatimPair
	for {
		ll, ok := b.peek()
		if !ok || ll.depth != depth || ll.cl.Type != LineSubject {
			b.pos = save
			return nil
		}
		subjSpan := ll.cl.Line.Span
		subject := NewTextContent(subjSpan, b.text(subjSpan))
		b.advance()

		if n, ok := b.peek(); ok && n.depth == depth && n.cl.Type == LineBlank {
			b.advance()
		}

		var bodyLines []leveledLine
		for {
			n, ok := b.peek()
			if !ok || n.depth <= depth {
				break
			}
			bodyLines = append(bodyLines, n)
			b.advance()
		}
		if len(bodyLines) == 0 {
			b.pos = save
			return nil
		}
		body, bodySpan := joinRawLines(bodyLines, b.src)
		pairs = append(pairs, VerbatimPair{Subject: subject, Body: body, BodySpan: bodySpan})

		closer, ok := b.peek()
		if !ok || closer.depth != depth {
			b.pos = save
			return nil
		}
		if closer.cl.Type == LineDataHeader {
			b.advance()
			span := openSpan.Merge(closer.cl.Line.Span)
			return &Verbatim{
				base:    base{SpanVal: span},
				Pairs:   pairs,
				Closing: *closer.cl.Header,
			}
		}
		if closer.cl.Type != LineSubject {
			b.pos = save
			return nil
		}
		// Another Subject at the same depth: a further (subject, body) pair
		// sharing this closing DataHeader. Loop and absorb it.
	}
}

// joinRawLines returns the byte-exact source slice spanning a run of raw
// body lines. Each Line's span already includes its own trailing newline,
// so a plain span merge (not a '\n'-joined concatenation of per-line text)
// reproduces the original bytes exactly, per spec.md §4.6.
func joinRawLines(lines []leveledLine, src []byte) (string, Span) {
	if len(lines) == 0 {
		return "", Span{}
	}
	span := lines[0].cl.Line.Span
	for _, ll := range lines[1:] {
		span = span.Merge(ll.cl.Line.Span)
	}
	return span.Slice(src), span
}
