package lex

import (
	"encoding/json"
	"fmt"
)

// ElementKind names an Element's concrete type: "Document", "Session",
// "Definition", "List", "Paragraph", "Verbatim", or "Annotation". Exported
// for the `ast-tag` CLI transform, which walks a parsed tree and prints a
// flat list of node kinds in document order.
func ElementKind(e Element) string {
	return elementKind(e)
}

// elementKind is ElementKind's implementation, also used internally to tag
// MarshalDocumentJSON's envelopes.
func elementKind(e Element) string {
	switch e.(type) {
	case *Document:
		return "Document"
	case *Session:
		return "Session"
	case *Definition:
		return "Definition"
	case *List:
		return "List"
	case *Paragraph:
		return "Paragraph"
	case *Verbatim:
		return "Verbatim"
	case *Annotation:
		return "Annotation"
	default:
		return fmt.Sprintf("%T", e)
	}
}

// MarshalJSON gives InlineKind its string name in JSON output instead of
// its underlying int, matching String().
func (k InlineKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *InlineKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i := InlineText; i <= InlineReference; i++ {
		if i.String() == s {
			*k = i
			return nil
		}
	}
	return fmt.Errorf("lex: unknown inline kind %q", s)
}

// MarshalJSON gives ReferenceKind its string name in JSON output.
func (k ReferenceKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ReferenceKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i := RefUnsure; i <= RefGeneral; i++ {
		if i.String() == s {
			*k = i
			return nil
		}
	}
	return fmt.Errorf("lex: unknown reference kind %q", s)
}

// elementEnvelope is the tagged-union wire shape for one Element: "type"
// names the concrete kind, "data" holds that kind's own JSON shape. Needed
// because encoding/json cannot round-trip an interface-typed field (every
// []Element slot in the tree) without an explicit discriminator.
type elementEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// jsonDocument, jsonSession, etc. mirror the exported shape of each
// Element concrete type, replacing "Children []Element" with
// "[]elementEnvelope" so nested children carry their own type tag.
type jsonDocument struct {
	Span        Span              `json:"span"`
	Title       *TextContent      `json:"title,omitempty"`
	Children    []elementEnvelope `json:"children"`
	Annotations []json.RawMessage `json:"annotations,omitempty"`
}

type jsonSession struct {
	Span        Span              `json:"span"`
	Annotations []json.RawMessage `json:"annotations,omitempty"`
	Title       TextContent       `json:"title"`
	Children    []elementEnvelope `json:"children"`
}

type jsonDefinition struct {
	Span        Span              `json:"span"`
	Annotations []json.RawMessage `json:"annotations,omitempty"`
	Subject     TextContent       `json:"subject"`
	Children    []elementEnvelope `json:"children"`
}

type jsonListItem struct {
	Marker   ListMarker        `json:"marker"`
	Head     TextContent       `json:"head"`
	Children []elementEnvelope `json:"children,omitempty"`
	Span     Span              `json:"span"`
}

type jsonList struct {
	Span        Span              `json:"span"`
	Annotations []json.RawMessage `json:"annotations,omitempty"`
	Style       ListStyle         `json:"style"`
	Items       []jsonListItem    `json:"items"`
}

type jsonParagraph struct {
	Span        Span              `json:"span"`
	Annotations []json.RawMessage `json:"annotations,omitempty"`
	Lines       []TextContent     `json:"lines"`
}

type jsonVerbatimPair struct {
	Subject  TextContent `json:"subject"`
	Body     string      `json:"body"`
	BodySpan Span        `json:"body_span"`
}

type jsonVerbatim struct {
	Span        Span               `json:"span"`
	Annotations []json.RawMessage  `json:"annotations,omitempty"`
	Pairs       []jsonVerbatimPair `json:"pairs"`
	Closing     DataHeader         `json:"closing"`
}

type jsonAnnotationBody struct {
	Inline *TextContent      `json:"inline,omitempty"`
	Block  []elementEnvelope `json:"block,omitempty"`
}

type jsonAnnotation struct {
	Span        Span                `json:"span"`
	Annotations []json.RawMessage   `json:"annotations,omitempty"`
	Data        *DataHeader         `json:"data"`
	Body        *jsonAnnotationBody `json:"body"`
}

// MarshalDocumentJSON renders a Document as the `ast-json` transform's
// payload: a tagged-union tree with every node's span and content.
func MarshalDocumentJSON(doc *Document) ([]byte, error) {
	children, err := marshalChildren(doc.Children)
	if err != nil {
		return nil, err
	}
	anns, err := marshalAnnotations(doc.Annotations)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonDocument{Span: doc.SpanVal, Title: doc.Title, Children: children, Annotations: anns})
}

func marshalChildren(els []Element) ([]elementEnvelope, error) {
	out := make([]elementEnvelope, 0, len(els))
	for _, el := range els {
		env, err := marshalElement(el)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, nil
}

func marshalAnnotations(anns []*Annotation) ([]json.RawMessage, error) {
	if len(anns) == 0 {
		return nil, nil
	}
	out := make([]json.RawMessage, 0, len(anns))
	for _, a := range anns {
		env, err := marshalElement(a)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(env)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func marshalElement(el Element) (elementEnvelope, error) {
	var payload interface{}
	switch n := el.(type) {
	case *Session:
		children, err := marshalChildren(n.Children)
		if err != nil {
			return elementEnvelope{}, err
		}
		anns, err := marshalAnnotations(n.Annotations)
		if err != nil {
			return elementEnvelope{}, err
		}
		payload = jsonSession{Span: n.SpanVal, Annotations: anns, Title: n.Title, Children: children}
	case *Definition:
		children, err := marshalChildren(n.Children)
		if err != nil {
			return elementEnvelope{}, err
		}
		anns, err := marshalAnnotations(n.Annotations)
		if err != nil {
			return elementEnvelope{}, err
		}
		payload = jsonDefinition{Span: n.SpanVal, Annotations: anns, Subject: n.Subject, Children: children}
	case *List:
		items := make([]jsonListItem, 0, len(n.Items))
		for _, it := range n.Items {
			children, err := marshalChildren(it.Children)
			if err != nil {
				return elementEnvelope{}, err
			}
			items = append(items, jsonListItem{Marker: it.Marker, Head: it.Head, Children: children, Span: it.SpanVal})
		}
		anns, err := marshalAnnotations(n.Annotations)
		if err != nil {
			return elementEnvelope{}, err
		}
		payload = jsonList{Span: n.SpanVal, Annotations: anns, Style: n.Style, Items: items}
	case *Paragraph:
		anns, err := marshalAnnotations(n.Annotations)
		if err != nil {
			return elementEnvelope{}, err
		}
		payload = jsonParagraph{Span: n.SpanVal, Annotations: anns, Lines: n.Lines}
	case *Verbatim:
		pairs := make([]jsonVerbatimPair, 0, len(n.Pairs))
		for _, p := range n.Pairs {
			pairs = append(pairs, jsonVerbatimPair{Subject: p.Subject, Body: p.Body, BodySpan: p.BodySpan})
		}
		anns, err := marshalAnnotations(n.Annotations)
		if err != nil {
			return elementEnvelope{}, err
		}
		payload = jsonVerbatim{Span: n.SpanVal, Annotations: anns, Pairs: pairs, Closing: n.Closing}
	case *Annotation:
		var body *jsonAnnotationBody
		if n.Body != nil {
			block, err := marshalChildren(n.Body.Block)
			if err != nil {
				return elementEnvelope{}, err
			}
			body = &jsonAnnotationBody{Inline: n.Body.Inline, Block: block}
		}
		anns, err := marshalAnnotations(n.Annotations)
		if err != nil {
			return elementEnvelope{}, err
		}
		payload = jsonAnnotation{Span: n.SpanVal, Annotations: anns, Data: n.Data, Body: body}
	default:
		return elementEnvelope{}, fmt.Errorf("lex: cannot marshal element of type %T", el)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return elementEnvelope{}, err
	}
	return elementEnvelope{Type: elementKind(el), Data: data}, nil
}

// UnmarshalDocumentJSON parses the output of MarshalDocumentJSON back into
// a Document. Annotations are restored still resident on their former
// target's Annotations slot, exactly where S7 had moved them.
func UnmarshalDocumentJSON(data []byte) (*Document, error) {
	var jd jsonDocument
	if err := json.Unmarshal(data, &jd); err != nil {
		return nil, err
	}
	children, err := unmarshalChildren(jd.Children)
	if err != nil {
		return nil, err
	}
	anns, err := unmarshalAnnotations(jd.Annotations)
	if err != nil {
		return nil, err
	}
	return &Document{base: base{SpanVal: jd.Span, Annotations: anns}, Title: jd.Title, Children: children}, nil
}

func unmarshalChildren(envs []elementEnvelope) ([]Element, error) {
	out := make([]Element, 0, len(envs))
	for _, env := range envs {
		el, err := unmarshalElement(env)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

func unmarshalAnnotations(raws []json.RawMessage) ([]*Annotation, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	out := make([]*Annotation, 0, len(raws))
	for _, raw := range raws {
		var env elementEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, err
		}
		el, err := unmarshalElement(env)
		if err != nil {
			return nil, err
		}
		ann, ok := el.(*Annotation)
		if !ok {
			return nil, fmt.Errorf("lex: annotation slot held a %T", el)
		}
		out = append(out, ann)
	}
	return out, nil
}

func unmarshalElement(env elementEnvelope) (Element, error) {
	switch env.Type {
	case "Session":
		var js jsonSession
		if err := json.Unmarshal(env.Data, &js); err != nil {
			return nil, err
		}
		children, err := unmarshalChildren(js.Children)
		if err != nil {
			return nil, err
		}
		anns, err := unmarshalAnnotations(js.Annotations)
		if err != nil {
			return nil, err
		}
		return &Session{base: base{SpanVal: js.Span, Annotations: anns}, Title: js.Title, Children: children}, nil
	case "Definition":
		var jd jsonDefinition
		if err := json.Unmarshal(env.Data, &jd); err != nil {
			return nil, err
		}
		children, err := unmarshalChildren(jd.Children)
		if err != nil {
			return nil, err
		}
		anns, err := unmarshalAnnotations(jd.Annotations)
		if err != nil {
			return nil, err
		}
		return &Definition{base: base{SpanVal: jd.Span, Annotations: anns}, Subject: jd.Subject, Children: children}, nil
	case "List":
		var jl jsonList
		if err := json.Unmarshal(env.Data, &jl); err != nil {
			return nil, err
		}
		items := make([]*ListItemNode, 0, len(jl.Items))
		for _, ji := range jl.Items {
			children, err := unmarshalChildren(ji.Children)
			if err != nil {
				return nil, err
			}
			items = append(items, &ListItemNode{Marker: ji.Marker, Head: ji.Head, Children: children, SpanVal: ji.Span})
		}
		anns, err := unmarshalAnnotations(jl.Annotations)
		if err != nil {
			return nil, err
		}
		return &List{base: base{SpanVal: jl.Span, Annotations: anns}, Style: jl.Style, Items: items}, nil
	case "Paragraph":
		var jp jsonParagraph
		if err := json.Unmarshal(env.Data, &jp); err != nil {
			return nil, err
		}
		anns, err := unmarshalAnnotations(jp.Annotations)
		if err != nil {
			return nil, err
		}
		return &Paragraph{base: base{SpanVal: jp.Span, Annotations: anns}, Lines: jp.Lines}, nil
	case "Verbatim":
		var jv jsonVerbatim
		if err := json.Unmarshal(env.Data, &jv); err != nil {
			return nil, err
		}
		pairs := make([]VerbatimPair, 0, len(jv.Pairs))
		for _, jp := range jv.Pairs {
			pairs = append(pairs, VerbatimPair{Subject: jp.Subject, Body: jp.Body, BodySpan: jp.BodySpan})
		}
		anns, err := unmarshalAnnotations(jv.Annotations)
		if err != nil {
			return nil, err
		}
		return &Verbatim{base: base{SpanVal: jv.Span, Annotations: anns}, Pairs: pairs, Closing: jv.Closing}, nil
	case "Annotation":
		var ja jsonAnnotation
		if err := json.Unmarshal(env.Data, &ja); err != nil {
			return nil, err
		}
		var body *AnnotationBody
		if ja.Body != nil {
			block, err := unmarshalChildren(ja.Body.Block)
			if err != nil {
				return nil, err
			}
			body = &AnnotationBody{Inline: ja.Body.Inline, Block: block}
		}
		anns, err := unmarshalAnnotations(ja.Annotations)
		if err != nil {
			return nil, err
		}
		return &Annotation{base: base{SpanVal: ja.Span, Annotations: anns}, Data: ja.Data, Body: body}, nil
	default:
		return nil, fmt.Errorf("lex: unknown element type %q", env.Type)
	}
}
