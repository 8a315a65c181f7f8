package main

import (
	"strings"
	"testing"

	"github.com/lexlang/lex/core/lex"
)

const sampleSource = "Title line\n\nIntroduction:\n    A short body.\n\nCache:\n    Temporary storage.\n"

func TestRender_UnknownTransform(t *testing.T) {
	if _, err := render([]byte(sampleSource), "no-such-transform", lex.WithIndentConfig(lex.DefaultIndentConfig())); err == nil {
		t.Fatal("render() with an unknown transform: want error, got nil")
	}
}

func TestRender_TokenCoreJSON(t *testing.T) {
	out, err := render([]byte(sampleSource), "token-core-json", lex.WithIndentConfig(lex.DefaultIndentConfig()))
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if !strings.Contains(out, `"kind"`) {
		t.Errorf("token-core-json output missing \"kind\" field: %s", out)
	}
}

func TestRender_TokenLineSimple(t *testing.T) {
	out, err := render([]byte(sampleSource), "token-line-simple", lex.WithIndentConfig(lex.DefaultIndentConfig()))
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if !strings.Contains(out, "Blank") {
		t.Errorf("token-line-simple output missing a Blank classification: %s", out)
	}
}

func TestRender_ASTJSON(t *testing.T) {
	out, err := render([]byte(sampleSource), "ast-json", lex.WithIndentConfig(lex.DefaultIndentConfig()))
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if !strings.Contains(out, `"type"`) {
		t.Errorf("ast-json output missing a tagged-union \"type\" field: %s", out)
	}
}

func TestRender_ASTTag(t *testing.T) {
	out, err := render([]byte(sampleSource), "ast-tag", lex.WithIndentConfig(lex.DefaultIndentConfig()))
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if !strings.Contains(out, "Document") {
		t.Errorf("ast-tag output missing the Document root: %s", out)
	}
}

func TestRender_ASTTreeviz(t *testing.T) {
	out, err := render([]byte(sampleSource), "ast-treeviz", lex.WithIndentConfig(lex.DefaultIndentConfig()))
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if out == "" {
		t.Error("ast-treeviz output is empty")
	}
}

func TestRender_IRJSONSkipsInline(t *testing.T) {
	out, err := render([]byte(sampleSource), "ir-json", lex.WithIndentConfig(lex.DefaultIndentConfig()))
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if out == "" {
		t.Error("ir-json output is empty")
	}
}
