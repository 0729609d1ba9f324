package model

import (
	"errors"
	"fmt"
	"strings"
)

// FieldKind enumerates the field types a model can declare.
type FieldKind string

const (
	FieldKindChar       FieldKind = "char"
	FieldKindText       FieldKind = "text"
	FieldKindInteger    FieldKind = "integer"
	FieldKindFloat      FieldKind = "float"
	FieldKindDecimal    FieldKind = "decimal"
	FieldKindBoolean    FieldKind = "boolean"
	FieldKindDate       FieldKind = "date"
	FieldKindDateTime   FieldKind = "datetime"
	FieldKindForeignKey FieldKind = "foreignKey"
	FieldKindOneToOne   FieldKind = "oneToOne"
	FieldKindManyToMany FieldKind = "manyToMany"
)

var knownKinds = map[FieldKind]struct{}{
	FieldKindChar:       {},
	FieldKindText:       {},
	FieldKindInteger:    {},
	FieldKindFloat:      {},
	FieldKindDecimal:    {},
	FieldKindBoolean:    {},
	FieldKindDate:       {},
	FieldKindDateTime:   {},
	FieldKindForeignKey: {},
	FieldKindOneToOne:   {},
	FieldKindManyToMany: {},
}

// Valid reports whether the kind is one of the known FieldKind values.
func (k FieldKind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

// ErrFieldNotFound is returned when a model has no field with the requested
// name.
var ErrFieldNotFound = errors.New("model: field does not exist")

// Choice is a single allowed value for a field, with an optional display label.
type Choice struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Field describes a single model column.
type Field struct {
	Name          string        `json:"name"`
	Kind          FieldKind     `json:"kind"`
	Label         string        `json:"label,omitempty"`
	Help          string        `json:"help,omitempty"`
	MaxLength     int           `json:"maxLength,omitempty"`
	MaxDigits     int           `json:"maxDigits,omitempty"`
	DecimalPlaces int           `json:"decimalPlaces,omitempty"`
	Null          bool          `json:"null,omitempty"`
	Blank         bool          `json:"blank,omitempty"`
	Choices       []Choice      `json:"choices,omitempty"`
	Default       any           `json:"default,omitempty"`
	HasDefault    bool          `json:"hasDefault,omitempty"`
	Validate      string        `json:"validate,omitempty"`
	Relationship  *Relationship `json:"relationship,omitempty"`

	// DefaultFunc produces a fresh default on every call and wins over Default.
	DefaultFunc func() any `json:"-"`
}

// Nullable reports whether empty values are acceptable for the field.
func (f Field) Nullable() bool {
	return f.Null || f.Blank
}

// IsRelation reports whether the field references rows of another model.
func (f Field) IsRelation() bool {
	switch f.Kind {
	case FieldKindForeignKey, FieldKindOneToOne, FieldKindManyToMany:
		return true
	default:
		return false
	}
}

// IsMany reports whether a cell holds several related keys.
func (f Field) IsMany() bool {
	return f.Kind == FieldKindManyToMany
}

// Coerce reports whether column values are converted before checks run.
func (f Field) Coerce() bool {
	return f.Kind == FieldKindDecimal || f.IsRelation()
}

// DefaultValue returns the value a blank cell is seeded with. The boolean is
// false when the field declares no default.
func (f Field) DefaultValue() (any, bool) {
	if f.DefaultFunc != nil {
		return f.DefaultFunc(), true
	}
	if f.HasDefault {
		return f.Default, true
	}
	return nil, false
}

// ChoiceValues returns the raw values of the declared choices.
func (f Field) ChoiceValues() []any {
	if len(f.Choices) == 0 {
		return nil
	}
	out := make([]any, 0, len(f.Choices))
	for _, choice := range f.Choices {
		out = append(out, choice.Value)
	}
	return out
}

// Key identifies the field across models, e.g. "blog.Article.author".
func (f Field) Key(m *Model) string {
	if m == nil {
		return f.Name
	}
	return m.qualifiedName() + "." + f.Name
}

// Model groups the fields of a single table.
type Model struct {
	Name   string  `json:"name"`
	App    string  `json:"app,omitempty"`
	Table  string  `json:"table,omitempty"`
	Fields []Field `json:"fields"`
}

// Field returns the named field, or an error wrapping ErrFieldNotFound.
func (m *Model) Field(name string) (*Field, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: %q (nil model)", ErrFieldNotFound, name)
	}
	trimmed := strings.TrimSpace(name)
	for idx := range m.Fields {
		if m.Fields[idx].Name == trimmed {
			return &m.Fields[idx], nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no field named %q", ErrFieldNotFound, m.qualifiedName(), trimmed)
}

// FieldNames lists field names in declaration order.
func (m *Model) FieldNames() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.Fields))
	for _, field := range m.Fields {
		names = append(names, field.Name)
	}
	return names
}

// TableName returns the explicit table or the lower-cased model name.
func (m *Model) TableName() string {
	if m == nil {
		return ""
	}
	if table := strings.TrimSpace(m.Table); table != "" {
		return table
	}
	return strings.ToLower(m.Name)
}

func (m *Model) qualifiedName() string {
	if m.App == "" {
		return m.Name
	}
	return m.App + "." + m.Name
}
