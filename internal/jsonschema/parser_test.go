package jsonschema

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formset/pkg/model"
	"github.com/goliatone/go-formset/pkg/source"
	"github.com/goliatone/go-formset/pkg/testsupport"
)

func loadFixture(t *testing.T, name string) source.Document {
	t.Helper()
	path := filepath.Join("testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return source.MustNewDocument(source.FromFile(path), raw)
}

func TestParserModels(t *testing.T) {
	models, err := New().Models(context.Background(), loadFixture(t, "blog.schema.json"))
	if err != nil {
		t.Fatalf("models: %v", err)
	}

	var names []string
	for _, m := range models {
		names = append(names, m.Name)
	}
	if diff := cmp.Diff([]string{"Article", "Author", "Tag"}, names); diff != "" {
		t.Fatalf("model names mismatch (-want +got):\n%s", diff)
	}

	article := models[0]
	if article.Table != "articles" || article.App != "blog" {
		t.Fatalf("unexpected table/app %q/%q", article.Table, article.App)
	}

	want := []model.Field{
		{Name: "author", Kind: model.FieldKindForeignKey, Relationship: &model.Relationship{Kind: model.RelationshipBelongsTo, Target: "Author"}},
		{Name: "contact", Kind: model.FieldKindText, Blank: true, Validate: "email"},
		{Name: "price", Kind: model.FieldKindDecimal, Null: true, Blank: true, MaxDigits: 6, DecimalPlaces: 2},
		{Name: "published_on", Kind: model.FieldKindDate, Blank: true},
		{Name: "status", Kind: model.FieldKindText, Blank: true, Default: "draft", HasDefault: true, Choices: []model.Choice{{Value: "draft", Label: "draft"}, {Value: "published", Label: "published"}}},
		{Name: "tags", Kind: model.FieldKindManyToMany, Blank: true, Relationship: &model.Relationship{Kind: model.RelationshipManyToMany, Target: "Tag", Table: "tags", TargetKey: "slug"}},
		{Name: "title", Kind: model.FieldKindChar, Label: "Title", MaxLength: 20},
	}
	if diff := cmp.Diff(want, article.Fields, cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".DefaultFunc"
	}, cmp.Ignore())); diff != "" {
		t.Fatalf("article fields mismatch (-want +got):\n%s", diff)
	}
}

func TestParserRegistryResolvesRelations(t *testing.T) {
	registry := testsupport.MustRegistry(t, New(), filepath.Join("testdata", "blog.schema.json"))
	article, err := registry.Lookup("Article")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	author, err := article.Field("author")
	if err != nil {
		t.Fatalf("field: %v", err)
	}
	if author.Relationship.Table != "authors" {
		t.Fatalf("expected author table to resolve, got %q", author.Relationship.Table)
	}
}

func TestParserRootSchemaWithTitle(t *testing.T) {
	raw := []byte(`{"$schema":"https://json-schema.org/draft/2020-12/schema","title":"Note","type":"object","properties":{"body":{"type":"string"}}}`)
	doc := source.MustNewDocument(source.FromFile("note.json"), raw)
	models, err := New().Models(context.Background(), doc)
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	if len(models) != 1 || models[0].Name != "Note" {
		t.Fatalf("expected root Note model, got %+v", models)
	}
}

func TestParserRejectsSchemasWithoutObjects(t *testing.T) {
	doc := source.MustNewDocument(source.FromFile("empty.json"), []byte(`{"$schema":"https://json-schema.org/draft/2020-12/schema","type":"string"}`))
	_, err := New().Models(context.Background(), doc)
	if err == nil || !strings.Contains(err.Error(), "declares no object schemas") {
		t.Fatalf("expected no object schemas error, got %v", err)
	}
}
