// Package formset validates tabular data against model definitions, the way
// a model form validates a single submission.
package formset

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-formset/internal/jsonschema"
	internalLoader "github.com/goliatone/go-formset/internal/loader"
	"github.com/goliatone/go-formset/internal/modeldef"
	"github.com/goliatone/go-formset/internal/openapi"
	"github.com/goliatone/go-formset/pkg/frame"
	"github.com/goliatone/go-formset/pkg/model"
	"github.com/goliatone/go-formset/pkg/orchestrator"
	"github.com/goliatone/go-formset/pkg/report"
	"github.com/goliatone/go-formset/pkg/source"
)

// OpenAPIOptions tunes the OpenAPI component parser.
type OpenAPIOptions = openapi.Options

// NewLoader constructs a loader using the internal implementation while
// keeping the concrete type hidden from consumers.
func NewLoader(options ...source.LoaderOption) source.Loader {
	cfg := source.NewLoaderOptions(options...)
	return internalLoader.New(cfg)
}

// NewOpenAPIParser constructs a parser for OpenAPI component schemas.
func NewOpenAPIParser(options OpenAPIOptions) model.Parser {
	return openapi.New(options)
}

// NewModelParser constructs a parser for YAML/JSON model definitions.
func NewModelParser() model.Parser {
	return modeldef.New()
}

// NewJSONSchemaParser constructs a parser for JSON Schema definitions.
func NewJSONSchemaParser() model.Parser {
	return jsonschema.New()
}

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Validate loads the model document at src and validates data against
// modelName. It is the simplest entry point for callers that only need a
// report.
func Validate(ctx context.Context, src source.Source, modelName string, data *frame.Frame, options ...orchestrator.Option) (report.Report, error) {
	gen := orchestrator.New(options...)
	return gen.Validate(ctx, orchestrator.Request{
		Source: src,
		Model:  modelName,
		Data:   data,
	})
}

// ValidateDocument validates data using a pre-loaded document, bypassing the
// loader stage.
func ValidateDocument(ctx context.Context, doc source.Document, modelName string, data *frame.Frame, options ...orchestrator.Option) (report.Report, error) {
	gen := orchestrator.New(options...)
	return gen.Validate(ctx, orchestrator.Request{
		Document: &doc,
		Model:    modelName,
		Data:     data,
	})
}

// EmbeddedTemplates exposes the built-in report templates so callers can
// reuse or extend them without importing the report package directly.
func EmbeddedTemplates() fs.FS {
	return report.TemplatesFS()
}
