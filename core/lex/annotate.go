package lex

// AttachAnnotations is S7: it walks the S6 tree and relocates every
// *Annotation out of its container's Children into a target's
// AnnotationsSlot, per spec.md §4.7's three-rule precedence:
//  1. the previous non-annotation sibling in the same Children list,
//  2. the Document itself, if the annotation has no such sibling and sits
//     at the document's top level,
//  3. otherwise the enclosing container element.
func AttachAnnotations(doc *Document) {
	doc.Children = attachList(doc.Children, true, doc, doc)
}

// attachList detaches every *Annotation from children, attaching each to
// its resolved target, then recurses into the remaining elements so nested
// annotations are resolved the same way at every depth.
func attachList(children []Element, isDocLevel bool, fallback Element, doc *Document) []Element {
	var out []Element
	for _, el := range children {
		ann, ok := el.(*Annotation)
		if !ok {
			out = append(out, el)
			continue
		}
		var target Element
		switch {
		case len(out) > 0:
			target = out[len(out)-1]
		case isDocLevel:
			target = doc
		default:
			target = fallback
		}
		slot := target.AnnotationsSlot()
		*slot = append(*slot, ann)
	}
	for _, el := range out {
		descend(el, doc)
	}
	return out
}

func descend(el Element, doc *Document) {
	switch n := el.(type) {
	case *Session:
		n.Children = attachList(n.Children, false, n, doc)
	case *Definition:
		n.Children = attachList(n.Children, false, n, doc)
	case *Annotation:
		if n.Body != nil {
			n.Body.Block = attachList(n.Body.Block, false, n, doc)
		}
	case *List:
		for _, item := range n.Items {
			item.Children = attachList(item.Children, false, n, doc)
		}
	}
}
