package openapi

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formset/pkg/model"
	"github.com/goliatone/go-formset/pkg/source"
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
	models, err := New(Options{}).Models(context.Background(), loadFixture(t, "blog.yaml"))
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
		{Name: "author_id", Kind: model.FieldKindForeignKey, Relationship: &model.Relationship{Kind: model.RelationshipBelongsTo, Target: "Author"}},
		{Name: "contact", Kind: model.FieldKindText, Blank: true, Validate: "email"},
		{Name: "price", Kind: model.FieldKindDecimal, Null: true, Blank: true, MaxDigits: 6, DecimalPlaces: 2},
		{Name: "published_on", Kind: model.FieldKindDate, Blank: true},
		{Name: "status", Kind: model.FieldKindText, Blank: true, Default: "draft", HasDefault: true, Choices: []model.Choice{{Value: "draft", Label: "draft"}, {Value: "published", Label: "published"}}},
		{Name: "tags", Kind: model.FieldKindManyToMany, Blank: true, Relationship: &model.Relationship{Kind: model.RelationshipManyToMany, Target: "Tag", Table: "tags", TargetKey: "slug"}},
		{Name: "title", Kind: model.FieldKindChar, MaxLength: 20},
	}
	if diff := cmp.Diff(want, article.Fields, cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".DefaultFunc"
	}, cmp.Ignore())); diff != "" {
		t.Fatalf("article fields mismatch (-want +got):\n%s", diff)
	}
}

func TestParserRegistryResolvesTables(t *testing.T) {
	models, err := New(Options{}).Models(context.Background(), loadFixture(t, "blog.yaml"))
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	registry, err := model.NewRegistry(models...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if err := registry.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	article, err := registry.Lookup("blog.Article")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	field, err := article.Field("author_id")
	if err != nil {
		t.Fatalf("field: %v", err)
	}
	if field.Relationship.Table != "authors" || field.Relationship.TargetKey != "id" {
		t.Fatalf("unexpected relationship %+v", field.Relationship)
	}
}

func TestParserSelectedSchemas(t *testing.T) {
	models, err := New(Options{Schemas: []string{"Tag"}}).Models(context.Background(), loadFixture(t, "blog.yaml"))
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	if len(models) != 1 || models[0].Name != "Tag" {
		t.Fatalf("unexpected models %+v", models)
	}
}

func TestParserRejectsDocumentsWithoutSchemas(t *testing.T) {
	doc := source.MustNewDocument(source.FromFile("empty.yaml"), []byte("openapi: 3.0.3\ninfo: {title: x, version: '1'}\npaths: {}\n"))
	if _, err := New(Options{}).Models(context.Background(), doc); err == nil {
		t.Fatalf("expected error")
	}
}
