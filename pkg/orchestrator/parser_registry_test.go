package orchestrator

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formset/pkg/model"
	"github.com/goliatone/go-formset/pkg/source"
)

func nopParser() model.Parser {
	return model.ParserFunc(func(context.Context, source.Document) ([]model.Model, error) {
		return nil, nil
	})
}

func TestParserRegistry_RegisterAndGet(t *testing.T) {
	registry := NewParserRegistry()
	registry.MustRegister(" OpenAPI ", nopParser(), HasKey("openapi"))

	if _, err := registry.Get("openapi"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := registry.Register("openapi", nopParser(), nil); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := registry.Register("", nopParser(), nil); err == nil {
		t.Fatalf("expected missing name error")
	}
	if err := registry.Register("nil", nil, nil); err == nil {
		t.Fatalf("expected missing parser error")
	}
	if _, err := registry.Get("graphql"); err == nil {
		t.Fatalf("expected unknown parser error")
	}
}

func TestParserRegistry_Detect(t *testing.T) {
	registry := NewParserRegistry()
	registry.MustRegister(FormatOpenAPI, nopParser(), HasKey("openapi", "swagger"))
	registry.MustRegister(FormatModels, nopParser(), HasKey("models"))
	registry.MustRegister("manual", nopParser(), nil)

	cases := map[string][]string{
		"openapi: 3.0.3\ncomponents: {}\n": {FormatOpenAPI},
		`{"swagger": "2.0"}`:               {FormatOpenAPI},
		"models:\n  - name: Article\n":     {FormatModels},
		"title: other\n":                   nil,
	}
	for raw, want := range cases {
		doc := source.MustNewDocument(source.FromFile("doc.yaml"), []byte(raw))
		got, err := registry.Detect(doc)
		if err != nil {
			t.Fatalf("detect %q: %v", raw, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("detect %q mismatch (-want +got):\n%s", raw, diff)
		}
	}

	if diff := cmp.Diff([]string{"manual", FormatModels, FormatOpenAPI}, registry.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectJSONSchema(t *testing.T) {
	cases := map[string]bool{
		`{"$schema": "https://json-schema.org/draft/2020-12/schema"}`: true,
		`{"$defs": {}}`:                         true,
		`{"swagger": "2.0", "definitions": {}}`: false,
		`{"title": "x"}`:                        false,
	}
	for raw, want := range cases {
		keys, err := topLevelKeys(source.MustNewDocument(source.FromFile("doc.json"), []byte(raw)))
		if err != nil {
			t.Fatalf("keys %q: %v", raw, err)
		}
		if got := detectJSONSchema(keys); got != want {
			t.Fatalf("detect %q: want %v got %v", raw, want, got)
		}
	}
}

func TestParserRegistry_DetectRejectsNonMapping(t *testing.T) {
	registry := NewParserRegistry()
	doc := source.MustNewDocument(source.FromFile("list.yaml"), []byte("- a\n- b\n"))
	if _, err := registry.Detect(doc); err == nil {
		t.Fatalf("expected decode error for a sequence document")
	}
}
