package orchestrator_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formset/pkg/model"
	"github.com/goliatone/go-formset/pkg/orchestrator"
	"github.com/goliatone/go-formset/pkg/relations"
	"github.com/goliatone/go-formset/pkg/source"
	"github.com/goliatone/go-formset/pkg/testsupport"
)

func blogKeys() *relations.StaticSource {
	return relations.NewStaticSource(map[string][]any{
		"authors": {1, 2},
		"tags":    {"go", "db"},
	})
}

func TestOrchestrator_Validate_ArticleIssues(t *testing.T) {
	ctx := testsupport.Context()
	gen := orchestrator.New(orchestrator.WithKeySource(blogKeys()))

	out, err := gen.Validate(ctx, orchestrator.Request{
		Source: source.FromFile(filepath.Join("testdata", "blog.yaml")),
		Model:  "blog.Article",
		Data:   testsupport.MustReadFrame(t, filepath.Join("testdata", "articles.csv")),
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if out.Valid {
		t.Fatalf("expected invalid report")
	}
	if out.Rows != 3 || out.Model != "Article" || out.ID == "" {
		t.Fatalf("unexpected report header: %+v", out)
	}

	testsupport.AssertGoldenJSON(t, filepath.Join("testdata", "article_issues.golden.json"), out.Issues)
}

func TestOrchestrator_Validate_PolishMessages(t *testing.T) {
	ctx := testsupport.Context()
	gen := orchestrator.New(orchestrator.WithKeySource(blogKeys()), orchestrator.WithLocale("pl"))

	out, err := gen.Validate(ctx, orchestrator.Request{
		Source: source.FromFile(filepath.Join("testdata", "blog.yaml")),
		Model:  "Article",
		Fields: []string{"status"},
		Data:   testsupport.MustReadFrame(t, filepath.Join("testdata", "articles.csv")),
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(out.Issues) != 1 {
		t.Fatalf("expected a single status issue, got %+v", out.Issues)
	}
	want := "Komórka zawiera dane które nie zgadzają się z możliwymi wartościami!"
	if out.Issues[0].Message != want {
		t.Fatalf("expected polish message, got %q", out.Issues[0].Message)
	}
}

func TestOrchestrator_Validate_SharesRelationCache(t *testing.T) {
	ctx := testsupport.Context()
	gen := orchestrator.New(orchestrator.WithKeySource(blogKeys()))
	registry, err := gen.Registry(ctx, orchestrator.Request{
		Source: source.FromFile(filepath.Join("testdata", "blog.yaml")),
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	data := testsupport.MustReadFrame(t, filepath.Join("testdata", "articles.csv"))
	for i := 0; i < 3; i++ {
		if _, err := gen.Validate(ctx, orchestrator.Request{Registry: registry, Model: "Article", Data: data}); err != nil {
			t.Fatalf("validate run %d: %v", i, err)
		}
	}

	stats := gen.Cache().Stats()
	if stats.Loads != 2 {
		t.Fatalf("expected one load per relation table, got %+v", stats)
	}
	if stats.Hits != 4 {
		t.Fatalf("expected later runs to hit the cache, got %+v", stats)
	}
}

func TestOrchestrator_Validate_WithPresetTransformer(t *testing.T) {
	ctx := testsupport.Context()
	preset, err := orchestrator.NewJSONPresetTransformer(testsupport.ReadFixture(t, filepath.Join("testdata", "presets.json")))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	gen := orchestrator.New(
		orchestrator.WithKeySource(blogKeys()),
		orchestrator.WithSchemaTransformer(preset),
	)

	out, err := gen.Validate(ctx, orchestrator.Request{
		Source: source.FromFile(filepath.Join("testdata", "blog.yaml")),
		Model:  "Article",
		Data:   testsupport.MustReadFrame(t, filepath.Join("testdata", "articles.csv")),
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	var got []string
	for _, issue := range out.Issues {
		got = append(got, issue.Field)
	}
	if diff := cmp.Diff([]string{"author", "status", "tags"}, got); diff != "" {
		t.Fatalf("issue fields mismatch (-want +got):\n%s", diff)
	}
}

func TestOrchestrator_Validate_RequiresData(t *testing.T) {
	gen := orchestrator.New()
	_, err := gen.Validate(testsupport.Context(), orchestrator.Request{
		Source: source.FromFile(filepath.Join("testdata", "blog.yaml")),
		Model:  "Article",
	})
	if err == nil || !strings.Contains(err.Error(), "data frame is required") {
		t.Fatalf("expected missing data error, got %v", err)
	}
}

func TestOrchestrator_Validate_UnknownModel(t *testing.T) {
	gen := orchestrator.New(orchestrator.WithKeySource(blogKeys()))
	_, err := gen.Validate(testsupport.Context(), orchestrator.Request{
		Source: source.FromFile(filepath.Join("testdata", "blog.yaml")),
		Model:  "Comment",
		Data:   testsupport.MustReadFrame(t, filepath.Join("testdata", "articles.csv")),
	})
	if !errors.Is(err, model.ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestOrchestrator_Inspect_DescribesColumns(t *testing.T) {
	gen := orchestrator.New()
	columns, err := gen.Inspect(testsupport.Context(), orchestrator.Request{
		Source: source.FromFile(filepath.Join("testdata", "blog.yaml")),
		Model:  "Article",
	})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}

	want := []orchestrator.ColumnInfo{
		{Name: "title", Kind: model.FieldKindChar, Label: "Title", Checks: []string{"max_length(10)"}},
		{Name: "status", Kind: model.FieldKindChar, Label: "Status", Default: "draft", Checks: []string{"is_in(2 values)"}},
		{Name: "author", Kind: model.FieldKindForeignKey, Label: "Author", Coerce: true, Relation: "authors.id", Checks: []string{"is_in(0 values)"}},
		{Name: "tags", Kind: model.FieldKindManyToMany, Label: "Tags", Nullable: true, Coerce: true, Relation: "tags.slug", Checks: []string{"is_in(0 values)"}},
	}
	if diff := cmp.Diff(want, columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestOrchestrator_Inspect_DetectsOpenAPI(t *testing.T) {
	gen := orchestrator.New(orchestrator.WithKeySource(blogKeys()))
	columns, err := gen.Inspect(testsupport.Context(), orchestrator.Request{
		Source: source.FromFile(filepath.Join("testdata", "blog.openapi.yaml")),
		Model:  "Article",
		Fields: []string{"author_id", "tags"},
	})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(columns) != 2 {
		t.Fatalf("expected two columns, got %+v", columns)
	}
	if columns[0].Relation != "authors.id" || columns[0].Kind != model.FieldKindForeignKey {
		t.Fatalf("unexpected author column: %+v", columns[0])
	}
	if columns[1].Relation != "tags.slug" || columns[1].Checks[0] != "is_in(2 values)" {
		t.Fatalf("unexpected tags column: %+v", columns[1])
	}
}

func TestOrchestrator_Registry_DetectsJSONSchema(t *testing.T) {
	gen := orchestrator.New()
	registry, err := gen.Registry(testsupport.Context(), orchestrator.Request{
		Source: source.FromFile(filepath.Join("testdata", "blog.schema.json")),
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if diff := cmp.Diff([]string{"Article", "Author", "Tag"}, registry.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestOrchestrator_Registry_FromDocument(t *testing.T) {
	doc := testsupport.LoadDocument(t, filepath.Join("testdata", "blog.yaml"))
	gen := orchestrator.New()

	registry, err := gen.Registry(testsupport.Context(), orchestrator.Request{Document: &doc})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if diff := cmp.Diff([]string{"Article", "Author", "Tag"}, registry.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestOrchestrator_Registry_ExplicitFormat(t *testing.T) {
	doc := source.MustNewDocument(source.FromFile("inline.yaml"), []byte("models: []\n"))
	called := false
	custom := model.ParserFunc(func(ctx context.Context, doc source.Document) ([]model.Model, error) {
		called = true
		return []model.Model{{Name: "Inline", Fields: []model.Field{{Name: "code", Kind: model.FieldKindChar}}}}, nil
	})
	gen := orchestrator.New(orchestrator.WithParser("inline", custom, nil))

	registry, err := gen.Registry(testsupport.Context(), orchestrator.Request{Document: &doc, Format: "Inline"})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if !called || registry.Len() != 1 {
		t.Fatalf("expected custom parser to run, got %v models", registry.Names())
	}
}

func TestOrchestrator_Registry_AmbiguousDetection(t *testing.T) {
	doc := testsupport.LoadDocument(t, filepath.Join("testdata", "blog.yaml"))
	shadow := model.ParserFunc(func(context.Context, source.Document) ([]model.Model, error) {
		return nil, nil
	})
	gen := orchestrator.New(orchestrator.WithParser("shadow", shadow, orchestrator.HasKey("models")))

	_, err := gen.Registry(testsupport.Context(), orchestrator.Request{Document: &doc})
	if err == nil || !strings.Contains(err.Error(), "multiple parsers matched") {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
}

func TestOrchestrator_Registry_UndetectableDocument(t *testing.T) {
	doc := source.MustNewDocument(source.FromFile("notes.yaml"), []byte("title: nothing here\n"))

	_, err := orchestrator.New().Registry(testsupport.Context(), orchestrator.Request{Document: &doc})
	if err == nil || !strings.Contains(err.Error(), "unable to detect format") {
		t.Fatalf("expected detection error, got %v", err)
	}

	gen := orchestrator.New(orchestrator.WithDefaultFormat(orchestrator.FormatModels))
	_, err = gen.Registry(testsupport.Context(), orchestrator.Request{Document: &doc})
	if err == nil || !strings.Contains(err.Error(), "declares no models") {
		t.Fatalf("expected the default parser to run, got %v", err)
	}
}
