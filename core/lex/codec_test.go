package lex

import (
	"encoding/json"
	"testing"
)

func TestElementKind_EveryConcreteType(t *testing.T) {
	cases := []struct {
		el   Element
		want string
	}{
		{&Document{}, "Document"},
		{&Session{}, "Session"},
		{&Definition{}, "Definition"},
		{&List{}, "List"},
		{&Paragraph{}, "Paragraph"},
		{&Verbatim{}, "Verbatim"},
		{&Annotation{}, "Annotation"},
	}
	for _, c := range cases {
		if got := ElementKind(c.el); got != c.want {
			t.Errorf("ElementKind(%T) = %q, want %q", c.el, got, c.want)
		}
	}
}

func TestMarshalUnmarshalDocumentJSON_RoundTrip(t *testing.T) {
	doc, _, err := Parse([]byte("Title\n\nCache:\n    A place to put things.\n\n- first\n- second\n\nExample:\n    raw body\n:: end\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	data, err := MarshalDocumentJSON(doc)
	if err != nil {
		t.Fatalf("MarshalDocumentJSON() error = %v", err)
	}

	got, err := UnmarshalDocumentJSON(data)
	if err != nil {
		t.Fatalf("UnmarshalDocumentJSON() error = %v", err)
	}

	if got.Title == nil || got.Title.Raw != doc.Title.Raw {
		t.Errorf("round-tripped Title = %+v, want %+v", got.Title, doc.Title)
	}
	if len(got.Children) != len(doc.Children) {
		t.Fatalf("round-tripped %d children, want %d", len(got.Children), len(doc.Children))
	}
	for i := range doc.Children {
		if ElementKind(got.Children[i]) != ElementKind(doc.Children[i]) {
			t.Errorf("child %d kind = %s, want %s", i, ElementKind(got.Children[i]), ElementKind(doc.Children[i]))
		}
	}
}

func TestMarshalUnmarshalDocumentJSON_AnnotationsSurvive(t *testing.T) {
	ann := &Annotation{Data: &DataHeader{Label: "note"}}
	para := &Paragraph{Lines: []TextContent{NewTextContent(Span{0, 4}, "text")}}
	para.Annotations = []*Annotation{ann}
	doc := &Document{Children: []Element{para}}

	data, err := MarshalDocumentJSON(doc)
	if err != nil {
		t.Fatalf("MarshalDocumentJSON() error = %v", err)
	}
	got, err := UnmarshalDocumentJSON(data)
	if err != nil {
		t.Fatalf("UnmarshalDocumentJSON() error = %v", err)
	}
	gotPara, ok := got.Children[0].(*Paragraph)
	if !ok {
		t.Fatalf("child type = %T, want *Paragraph", got.Children[0])
	}
	if len(gotPara.Annotations) != 1 || gotPara.Annotations[0].Data.Label != "note" {
		t.Errorf("Annotations = %+v, want one annotation labeled %q", gotPara.Annotations, "note")
	}
}

func TestInlineKind_JSONRoundTrip(t *testing.T) {
	for k := InlineText; k <= InlineReference; k++ {
		data, err := json.Marshal(k)
		if err != nil {
			t.Fatalf("Marshal(%v) error = %v", k, err)
		}
		var got InlineKind
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", data, err)
		}
		if got != k {
			t.Errorf("round-tripped %v, want %v", got, k)
		}
	}
}

func TestInlineKind_UnmarshalUnknownErrors(t *testing.T) {
	var k InlineKind
	if err := json.Unmarshal([]byte(`"NotAKind"`), &k); err == nil {
		t.Error("Unmarshal(unknown kind) = nil error, want an error")
	}
}

func TestReferenceKind_JSONRoundTrip(t *testing.T) {
	for k := RefUnsure; k <= RefGeneral; k++ {
		data, err := json.Marshal(k)
		if err != nil {
			t.Fatalf("Marshal(%v) error = %v", k, err)
		}
		var got ReferenceKind
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", data, err)
		}
		if got != k {
			t.Errorf("round-tripped %v, want %v", got, k)
		}
	}
}
