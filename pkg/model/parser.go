package model

import (
	"context"

	"github.com/goliatone/go-formset/pkg/source"
)

// Parser turns a loaded document into model definitions. Implementations live
// under internal/ (YAML/JSON definitions, OpenAPI components).
type Parser interface {
	Models(ctx context.Context, doc source.Document) ([]Model, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(ctx context.Context, doc source.Document) ([]Model, error)

// Models calls fn.
func (fn ParserFunc) Models(ctx context.Context, doc source.Document) ([]Model, error) {
	return fn(ctx, doc)
}
