// Package jsonschema reads model definitions from the object schemas of a
// JSON Schema document ($defs or definitions).
package jsonschema

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

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
	extRelationships   = "x-relationships"
)

var definitionKeys = []string{"$defs", "definitions"}

// Parser implements model.Parser for JSON Schema documents. YAML encoded
// schemas are accepted too.
type Parser struct{}

var _ model.Parser = Parser{}

// New returns a Parser.
func New() Parser {
	return Parser{}
}

// Models converts each object definition into a model. A root schema with a
// title and properties becomes a model as well.
func (Parser) Models(ctx context.Context, doc source.Document) ([]model.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var root map[string]any
	if err := doc.Decode(&root); err != nil {
		return nil, fmt.Errorf("jsonschema parser: %w", err)
	}

	defs := definitions(root)
	if title, ok := root["title"].(string); ok && isObject(root) {
		if _, exists := defs[title]; !exists {
			defs[title] = root
		}
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("jsonschema parser: %s declares no object schemas", doc.Location())
	}

	models := make([]model.Model, 0, len(defs))
	for _, name := range sortedKeys(defs) {
		schema, ok := defs[name].(map[string]any)
		if !ok || !isObject(schema) {
			continue
		}
		if skip, _ := schema[extSkip].(bool); skip {
			continue
		}
		m, err := convertModel(name, schema)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	if len(models) == 0 {
		return nil, errors.New("jsonschema parser: no object schemas extracted")
	}
	return models, nil
}

func definitions(root map[string]any) map[string]any {
	out := make(map[string]any)
	for _, key := range definitionKeys {
		defs, ok := root[key].(map[string]any)
		if !ok {
			continue
		}
		for name, schema := range defs {
			if _, exists := out[name]; !exists {
				out[name] = schema
			}
		}
	}
	return out
}

func convertModel(name string, schema map[string]any) (model.Model, error) {
	m := model.Model{
		Name:  name,
		Table: stringValue(schema, extTable),
		App:   stringValue(schema, extApp),
	}
	required := make(map[string]struct{})
	if list, ok := schema["required"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				required[s] = struct{}{}
			}
		}
	}

	props, _ := schema["properties"].(map[string]any)
	for _, prop := range sortedKeys(props) {
		propSchema, ok := props[prop].(map[string]any)
		if !ok {
			continue
		}
		field, ok := convertField(prop, propSchema)
		if !ok {
			continue
		}
		if _, isRequired := required[prop]; !isRequired {
			field.Blank = true
		}
		m.Fields = append(m.Fields, field)
	}
	if err := model.Validate(m); err != nil {
		return model.Model{}, fmt.Errorf("jsonschema parser: schema %s: %w", name, err)
	}
	return m, nil
}

func convertField(name string, schema map[string]any) (model.Field, bool) {
	types := schemaTypes(schema)
	field := model.Field{
		Name:  name,
		Label: stringValue(schema, "title"),
		Help:  stringValue(schema, "description"),
		Null:  hasType(types, "null"),
	}

	if rel := relationship(schema, types); rel != nil {
		field.Kind = model.KindForRelationship(rel.Kind)
		field.Relationship = rel
		return field, true
	}

	kind, ok := kindFor(schema, types)
	if !ok {
		return model.Field{}, false
	}
	field.Kind = kind
	if n, ok := toInt(schema["maxLength"]); ok {
		field.MaxLength = n
	}
	if values, ok := schema["enum"].([]any); ok {
		for _, value := range values {
			if value == nil {
				field.Null = true
				continue
			}
			field.Choices = append(field.Choices, model.Choice{Value: value, Label: fmt.Sprint(value)})
		}
	}
	if value, ok := schema["default"]; ok {
		field.Default = value
		field.HasDefault = true
	}
	field.Validate = stringValue(schema, extValidate)
	field.MaxDigits, _ = toInt(schema[extMaxDigits])
	field.DecimalPlaces, _ = toInt(schema[extDecimalPlaces])
	return field, true
}

// relationship reads x-relationships, falling back to a $ref (or an array of
// $ref items for many-to-many).
func relationship(schema map[string]any, types []string) *model.Relationship {
	target := refTarget(schema["$ref"])
	kind := model.RelationshipBelongsTo
	if hasType(types, "array") {
		if items, ok := schema["items"].(map[string]any); ok {
			target = refTarget(items["$ref"])
			kind = model.RelationshipManyToMany
		}
	}

	ext, _ := schema[extRelationships].(map[string]any)
	if len(ext) == 0 {
		if target == "" {
			return nil
		}
		return &model.Relationship{Kind: kind, Target: target}
	}

	rel := &model.Relationship{Kind: kind, Target: target}
	if value := stringValue(ext, "type"); value != "" {
		if parsed, ok := model.NormalizeRelationshipKind(value); ok {
			rel.Kind = parsed
		}
	}
	if value := stringValue(ext, "target"); value != "" {
		rel.Target = refTarget(value)
		if rel.Target == "" {
			rel.Target = value
		}
	}
	rel.Table = stringValue(ext, "table")
	rel.TargetKey = stringValue(ext, "key")
	if rel.Target == "" {
		return nil
	}
	return rel
}

// refTarget returns the definition name of a local $ref.
func refTarget(value any) string {
	ref, ok := value.(string)
	if !ok {
		return ""
	}
	for _, key := range definitionKeys {
		prefix := "#/" + key + "/"
		if strings.HasPrefix(ref, prefix) {
			return strings.TrimPrefix(ref, prefix)
		}
	}
	return ""
}

func kindFor(schema map[string]any, types []string) (model.FieldKind, bool) {
	format := strings.ToLower(stringValue(schema, "format"))
	switch {
	case hasType(types, "string"):
		switch format {
		case "date":
			return model.FieldKindDate, true
		case "date-time":
			return model.FieldKindDateTime, true
		case "decimal":
			return model.FieldKindDecimal, true
		}
		if _, ok := schema["maxLength"]; ok {
			return model.FieldKindChar, true
		}
		return model.FieldKindText, true
	case hasType(types, "integer"):
		return model.FieldKindInteger, true
	case hasType(types, "number"):
		if format == "decimal" {
			return model.FieldKindDecimal, true
		}
		return model.FieldKindFloat, true
	case hasType(types, "boolean"):
		return model.FieldKindBoolean, true
	default:
		return "", false
	}
}

func schemaTypes(schema map[string]any) []string {
	switch value := schema["type"].(type) {
	case string:
		return []string{value}
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

func isObject(schema map[string]any) bool {
	types := schemaTypes(schema)
	_, hasProps := schema["properties"].(map[string]any)
	return (len(types) == 0 && hasProps) || hasType(types, "object")
}

func stringValue(payload map[string]any, key string) string {
	if value, ok := payload[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	}
	return 0, false
}

func sortedKeys(payload map[string]any) []string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
