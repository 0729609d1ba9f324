// Package openapi turns the component schemas of an OpenAPI document into
// model definitions.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formset/pkg/model"
	"github.com/goliatone/go-formset/pkg/source"
)

const (
	extensionNamespace = "x-formset"
	extTable           = extensionNamespace + "-table"
	extApp             = extensionNamespace + "-app"
	extValidate        = extensionNamespace + "-validate"
	extMaxDigits       = extensionNamespace + "-max-digits"
	extDecimalPlaces   = extensionNamespace + "-decimal-places"
	extSkip            = extensionNamespace + "-skip"
	componentPrefix    = "#/components/schemas/"
)

// Options tunes the parser.
type Options struct {
	// Schemas restricts parsing to the named components.
	Schemas []string
	// Validate runs the kin-openapi document validation first.
	Validate bool
}

// Parser implements model.Parser over kin-openapi.
type Parser struct {
	options Options
}

var _ model.Parser = (*Parser)(nil)

// New constructs a Parser with the given options.
func New(options Options) *Parser {
	return &Parser{options: options}
}

// Models converts every object schema under components.schemas into a model.
func (p *Parser) Models(ctx context.Context, doc source.Document) ([]model.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	document, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if p.options.Validate {
		if err := document.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi parser: validate: %w", err)
		}
	}
	if document.Components == nil || len(document.Components.Schemas) == 0 {
		return nil, errors.New("openapi parser: document does not contain any component schemas")
	}

	names := p.schemaNames(document.Components.Schemas)
	models := make([]model.Model, 0, len(names))
	for _, name := range names {
		ref := document.Components.Schemas[name]
		if ref == nil || ref.Value == nil || !isObject(ref.Value) {
			continue
		}
		if skip, _ := extensionBool(ref.Value.Extensions, extSkip); skip {
			continue
		}
		m, err := convertModel(name, ref.Value)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	if len(models) == 0 {
		return nil, errors.New("openapi parser: no object schemas extracted")
	}
	return models, nil
}

func (p *Parser) schemaNames(schemas openapi3.Schemas) []string {
	if len(p.options.Schemas) > 0 {
		return append([]string(nil), p.options.Schemas...)
	}
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func convertModel(name string, schema *openapi3.Schema) (model.Model, error) {
	ext := mergedExtensions(schema)
	m := model.Model{
		Name:  name,
		Table: extensionString(ext, extTable),
		App:   extensionString(ext, extApp),
	}

	required := make(map[string]struct{}, len(schema.Required))
	for _, prop := range schema.Required {
		required[prop] = struct{}{}
	}

	props := propagateRelationships(schema.Properties)
	propNames := make([]string, 0, len(props))
	for prop := range props {
		propNames = append(propNames, prop)
	}
	sort.Strings(propNames)

	for _, prop := range propNames {
		field, ok := convertField(prop, props[prop])
		if !ok {
			continue
		}
		if _, isRequired := required[prop]; !isRequired {
			field.Blank = true
		}
		m.Fields = append(m.Fields, field)
	}
	if err := model.Validate(m); err != nil {
		return model.Model{}, fmt.Errorf("openapi parser: schema %s: %w", name, err)
	}
	return m, nil
}

func convertField(name string, prop property) (model.Field, bool) {
	field := model.Field{Name: name}
	if prop.schema != nil {
		field.Help = prop.schema.Description
		field.Label = prop.schema.Title
	}

	if rel := prop.relationship(); rel != nil {
		field.Kind = model.KindForRelationship(rel.Kind)
		field.Relationship = rel
		if prop.schema != nil {
			field.Null = prop.schema.Nullable
		}
		return field, true
	}
	if prop.schema == nil || prop.hidden {
		return model.Field{}, false
	}

	src := prop.schema
	kind, ok := kindFor(src)
	if !ok {
		return model.Field{}, false
	}
	field.Kind = kind
	field.Null = src.Nullable
	if src.MaxLength != nil {
		field.MaxLength = int(*src.MaxLength)
	}
	for _, value := range src.Enum {
		if value == nil {
			continue
		}
		field.Choices = append(field.Choices, model.Choice{Value: value, Label: fmt.Sprint(value)})
	}
	if src.Default != nil {
		field.Default = src.Default
		field.HasDefault = true
	}

	ext := mergedExtensions(src)
	field.Validate = extensionString(ext, extValidate)
	field.MaxDigits = extensionInt(ext, extMaxDigits)
	field.DecimalPlaces = extensionInt(ext, extDecimalPlaces)
	return field, true
}

func kindFor(schema *openapi3.Schema) (model.FieldKind, bool) {
	types := schemaTypes(schema.Type)
	format := strings.ToLower(schema.Format)
	switch {
	case hasType(types, openapi3.TypeString):
		switch format {
		case "date":
			return model.FieldKindDate, true
		case "date-time":
			return model.FieldKindDateTime, true
		case "decimal":
			return model.FieldKindDecimal, true
		}
		if schema.MaxLength != nil {
			return model.FieldKindChar, true
		}
		return model.FieldKindText, true
	case hasType(types, openapi3.TypeInteger):
		return model.FieldKindInteger, true
	case hasType(types, openapi3.TypeNumber):
		if format == "decimal" {
			return model.FieldKindDecimal, true
		}
		return model.FieldKindFloat, true
	case hasType(types, openapi3.TypeBoolean):
		return model.FieldKindBoolean, true
	default:
		return "", false
	}
}

func schemaTypes(types *openapi3.Types) []string {
	if types == nil {
		return nil
	}
	return types.Slice()
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

func isObject(schema *openapi3.Schema) bool {
	types := schemaTypes(schema.Type)
	return (len(types) == 0 && len(schema.Properties) > 0) || hasType(types, openapi3.TypeObject)
}

// mergedExtensions returns the schema extensions merged with those of its
// allOf members, the schema's own keys winning.
func mergedExtensions(schema *openapi3.Schema) map[string]any {
	out := make(map[string]any)
	var walk func(refs openapi3.SchemaRefs)
	walk = func(refs openapi3.SchemaRefs) {
		for _, ref := range refs {
			if ref == nil || ref.Value == nil {
				continue
			}
			walk(ref.Value.AllOf)
			for key, value := range ref.Value.Extensions {
				out[key] = value
			}
		}
	}
	walk(schema.AllOf)
	for key, value := range schema.Extensions {
		out[key] = value
	}
	return out
}

func extensionString(ext map[string]any, key string) string {
	if value, ok := ext[key].(string); ok {
		return strings.TrimSpace(value)
	}
	if nested, ok := ext[extensionNamespace].(map[string]any); ok {
		if value, ok := nested[strings.TrimPrefix(key, extensionNamespace+"-")].(string); ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func extensionInt(ext map[string]any, key string) int {
	switch value := ext[key].(type) {
	case float64:
		return int(value)
	case int:
		return value
	case int64:
		return int(value)
	}
	return 0
}

func extensionBool(ext map[string]any, key string) (bool, bool) {
	value, ok := ext[key].(bool)
	return value, ok
}
