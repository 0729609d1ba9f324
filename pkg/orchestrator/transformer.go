package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-formset/pkg/model"
)

// Transformer mutates a parsed model before it is registered. Implementations
// can relabel fields, tighten limits, or attach validation tags.
type Transformer interface {
	Transform(ctx context.Context, m *model.Model) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, m *model.Model) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, m *model.Model) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, m)
}

// Chain runs transformers in order, stopping at the first error.
func Chain(transformers ...Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, m *model.Model) error {
		for _, t := range transformers {
			if t == nil {
				continue
			}
			if err := t.Transform(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// JSONPresetTransformer applies declarative overrides loaded from a JSON file.
// Models missing from the preset are left untouched:
//
//	{
//	  "models": {
//	    "Article": {
//	      "table": "blog_articles",
//	      "fields": {
//	        "title": {"label": "Headline", "maxLength": 80, "validate": "ascii"},
//	        "views": {"default": 0, "null": true}
//	      }
//	    }
//	  }
//	}
type JSONPresetTransformer struct {
	document jsonTransformDocument
}

type jsonTransformDocument struct {
	Models map[string]jsonModelPatch `json:"models"`
}

type jsonModelPatch struct {
	Table  string                    `json:"table"`
	Fields map[string]jsonFieldPatch `json:"fields"`
}

type jsonFieldPatch struct {
	Label         string          `json:"label"`
	Help          string          `json:"help"`
	MaxLength     *int            `json:"maxLength"`
	MaxDigits     *int            `json:"maxDigits"`
	DecimalPlaces *int            `json:"decimalPlaces"`
	Null          *bool           `json:"null"`
	Blank         *bool           `json:"blank"`
	Validate      *string         `json:"validate"`
	Default       json.RawMessage `json:"default"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document jsonTransformDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a JSON transformer document from the
// provided filesystem path.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform applies the patches registered for m.Name onto m.
func (t *JSONPresetTransformer) Transform(ctx context.Context, m *model.Model) error {
	if m == nil {
		return errors.New("json preset transformer: model is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	patch, ok := t.document.Models[m.Name]
	if !ok {
		return nil
	}
	if table := strings.TrimSpace(patch.Table); table != "" {
		m.Table = table
	}
	for name, fieldPatch := range patch.Fields {
		field, err := m.Field(name)
		if err != nil {
			return fmt.Errorf("json preset transformer: %w", err)
		}
		if err := applyFieldPatch(field, fieldPatch); err != nil {
			return fmt.Errorf("json preset transformer: %s.%s: %w", m.Name, name, err)
		}
	}
	return nil
}

func applyFieldPatch(field *model.Field, patch jsonFieldPatch) error {
	if patch.Label != "" {
		field.Label = patch.Label
	}
	if patch.Help != "" {
		field.Help = patch.Help
	}
	if patch.MaxLength != nil {
		field.MaxLength = *patch.MaxLength
	}
	if patch.MaxDigits != nil {
		field.MaxDigits = *patch.MaxDigits
	}
	if patch.DecimalPlaces != nil {
		field.DecimalPlaces = *patch.DecimalPlaces
	}
	if patch.Null != nil {
		field.Null = *patch.Null
	}
	if patch.Blank != nil {
		field.Blank = *patch.Blank
	}
	if patch.Validate != nil {
		field.Validate = strings.TrimSpace(*patch.Validate)
	}
	if len(patch.Default) > 0 {
		value, err := decodeDefault(patch.Default)
		if err != nil {
			return err
		}
		field.Default = value
		field.HasDefault = true
	}
	return nil
}

// decodeDefault keeps integral JSON numbers as int64 so they compare equal to
// integers read from frames.
func decodeDefault(raw json.RawMessage) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode default: %w", err)
	}
	number, ok := value.(json.Number)
	if !ok {
		return value, nil
	}
	if i, err := number.Int64(); err == nil {
		return i, nil
	}
	return number.Float64()
}
