package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formset/pkg/frame"
	"github.com/goliatone/go-formset/pkg/model"
	"github.com/goliatone/go-formset/pkg/relations"
	"github.com/goliatone/go-formset/pkg/validation"
)

// AllFields selects every model field in Meta.Fields.
const AllFields = "__all__"

// ErrNoKeySource is returned when a model form has relation fields but
// neither a relation cache nor a key source.
var ErrNoKeySource = errors.New("form: relation fields need a relation cache or key source")

// Meta selects the model and fields a ModelForm validates.
type Meta struct {
	Model   *model.Model
	Fields  []string
	Exclude []string
}

// ModelForm is a Form whose defaults and checks come from a model.
type ModelForm struct {
	*Form

	meta   Meta
	fields []model.Field
	schema *validation.Schema
}

// NewModelForm resolves meta against the model, loads related keys and
// builds the validation schema. Unknown field names fail with
// model.ErrFieldNotFound.
func NewModelForm(ctx context.Context, meta Meta, data *frame.Frame, opts ...Option) (*ModelForm, error) {
	if meta.Model == nil {
		return nil, errors.New("form: model is required")
	}
	cfg := newOptions(opts)

	fields, err := resolveFields(meta)
	if err != nil {
		return nil, err
	}

	cache := cfg.cache
	if cache == nil && cfg.keySource != nil {
		cache = relations.New(cfg.keySource, relations.WithLogger(cfg.logger))
	}

	schema := validation.NewSchema()
	for _, field := range fields {
		column, err := buildColumn(ctx, meta.Model, field, cache, cfg.requiredChecks)
		if err != nil {
			return nil, err
		}
		schema.Add(column)
	}

	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, field.Name)
	}

	formOpts := append([]Option{WithDefaults(modelDefaults(fields))}, opts...)
	formOpts = append(formOpts, WithSchema(schema))

	cfg.logger.Debug().
		Str("model", meta.Model.Name).
		Int("fields", len(fields)).
		Msg("model form built")

	return &ModelForm{
		Form:   New(names, data, formOpts...),
		meta:   meta,
		fields: fields,
		schema: schema,
	}, nil
}

// Model returns the form's model.
func (m *ModelForm) Model() *model.Model {
	return m.meta.Model
}

// ModelFields returns the resolved model fields in form order.
func (m *ModelForm) ModelFields() []model.Field {
	return append([]model.Field(nil), m.fields...)
}

// Columns exposes the derived validation columns.
func (m *ModelForm) Columns() []validation.Column {
	return m.schema.Columns()
}

func resolveFields(meta Meta) ([]model.Field, error) {
	names := meta.Fields
	if len(names) == 0 || (len(names) == 1 && strings.TrimSpace(names[0]) == AllFields) {
		names = meta.Model.FieldNames()
	}
	excluded := make(map[string]struct{}, len(meta.Exclude))
	for _, name := range meta.Exclude {
		excluded[strings.TrimSpace(name)] = struct{}{}
	}

	out := make([]model.Field, 0, len(names))
	for _, name := range names {
		if _, skip := excluded[strings.TrimSpace(name)]; skip {
			continue
		}
		field, err := meta.Model.Field(name)
		if err != nil {
			return nil, fmt.Errorf("form: %w", err)
		}
		out = append(out, *field)
	}
	return out, nil
}

func buildColumn(ctx context.Context, m *model.Model, field model.Field, cache *relations.Cache, required bool) (validation.Column, error) {
	var checks []validation.Check
	if field.MaxLength > 0 {
		checks = append(checks, validation.MaxLength(field.Name, field.MaxLength))
	}
	if field.IsRelation() {
		if cache == nil {
			return validation.Column{}, fmt.Errorf("%w: %s", ErrNoKeySource, field.Key(m))
		}
		lookup, err := relations.LookupFor(m, field)
		if err != nil {
			return validation.Column{}, err
		}
		keys, err := cache.Keys(ctx, lookup)
		if err != nil {
			return validation.Column{}, fmt.Errorf("form: %w", err)
		}
		checks = append(checks, validation.IsIn(field.Name, keys))
	}
	if len(field.Choices) > 0 {
		checks = append(checks, validation.IsIn(field.Name, field.ChoiceValues()))
	}
	if field.Kind == model.FieldKindDecimal && (field.MaxDigits > 0 || field.DecimalPlaces > 0) {
		checks = append(checks, validation.DecimalDigits(field.Name, field.MaxDigits, field.DecimalPlaces))
	}
	if tag := strings.TrimSpace(field.Validate); tag != "" {
		checks = append(checks, validation.Tag(field.Name, tag))
	}
	if required && !field.Nullable() {
		if _, hasDefault := field.DefaultValue(); !hasDefault {
			checks = append(checks, validation.Required(field.Name))
		}
	}
	return validation.Column{
		Name:     field.Name,
		Kind:     field.Kind,
		Checks:   checks,
		Coerce:   field.Coerce(),
		Nullable: field.Nullable(),
	}, nil
}

func modelDefaults(fields []model.Field) DefaultFunc {
	index := make(map[string]model.Field, len(fields))
	for _, field := range fields {
		index[field.Name] = field
	}
	return func(name string) (any, bool) {
		field, ok := index[name]
		if !ok {
			return nil, false
		}
		return field.DefaultValue()
	}
}
