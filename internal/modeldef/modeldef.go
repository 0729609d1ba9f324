// Package modeldef parses model definition documents written in YAML or
// JSON.
package modeldef

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formset/pkg/model"
	"github.com/goliatone/go-formset/pkg/source"
)

type document struct {
	Models []modelDef `yaml:"models"`
}

type modelDef struct {
	Name   string     `yaml:"name"`
	App    string     `yaml:"app"`
	Table  string     `yaml:"table"`
	Fields []fieldDef `yaml:"fields"`
}

type fieldDef struct {
	Name          string       `yaml:"name"`
	Kind          string       `yaml:"kind"`
	Label         string       `yaml:"label"`
	Help          string       `yaml:"help"`
	MaxLength     int          `yaml:"max_length"`
	MaxDigits     int          `yaml:"max_digits"`
	DecimalPlaces int          `yaml:"decimal_places"`
	Null          bool         `yaml:"null"`
	Blank         bool         `yaml:"blank"`
	Choices       []choiceDef  `yaml:"choices"`
	Default       yaml.Node    `yaml:"default"`
	Validate      string       `yaml:"validate"`
	Relation      *relationDef `yaml:"relation"`
}

type choiceDef struct {
	Value any    `yaml:"value"`
	Label string `yaml:"label"`
}

type relationDef struct {
	Target string `yaml:"target"`
	Table  string `yaml:"table"`
	Key    string `yaml:"key"`
	Kind   string `yaml:"kind"`
}

// Parser reads the models document format:
//
//	models:
//	  - name: Article
//	    fields:
//	      - {name: title, kind: char, max_length: 20}
type Parser struct{}

var _ model.Parser = Parser{}

// New returns a Parser.
func New() Parser {
	return Parser{}
}

// Models decodes doc. JSON documents are accepted since JSON is valid YAML.
func (Parser) Models(ctx context.Context, doc source.Document) ([]model.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var parsed document
	if err := doc.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("modeldef: %w", err)
	}
	if len(parsed.Models) == 0 {
		return nil, fmt.Errorf("modeldef: %s declares no models", doc.Location())
	}

	out := make([]model.Model, 0, len(parsed.Models))
	for _, def := range parsed.Models {
		m, err := def.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (def modelDef) toModel() (model.Model, error) {
	m := model.Model{
		Name:  strings.TrimSpace(def.Name),
		App:   strings.TrimSpace(def.App),
		Table: strings.TrimSpace(def.Table),
	}
	for _, fd := range def.Fields {
		field, err := fd.toField()
		if err != nil {
			return model.Model{}, fmt.Errorf("modeldef: model %s: %w", m.Name, err)
		}
		m.Fields = append(m.Fields, field)
	}
	if err := model.Validate(m); err != nil {
		return model.Model{}, fmt.Errorf("modeldef: %w", err)
	}
	return m, nil
}

func (fd fieldDef) toField() (model.Field, error) {
	field := model.Field{
		Name:          strings.TrimSpace(fd.Name),
		Kind:          model.FieldKind(strings.TrimSpace(fd.Kind)),
		Label:         fd.Label,
		Help:          fd.Help,
		MaxLength:     fd.MaxLength,
		MaxDigits:     fd.MaxDigits,
		DecimalPlaces: fd.DecimalPlaces,
		Null:          fd.Null,
		Blank:         fd.Blank,
		Validate:      strings.TrimSpace(fd.Validate),
	}

	for _, choice := range fd.Choices {
		label := choice.Label
		if label == "" {
			label = fmt.Sprint(choice.Value)
		}
		field.Choices = append(field.Choices, model.Choice{Value: choice.Value, Label: label})
	}

	if !fd.Default.IsZero() {
		var value any
		if err := fd.Default.Decode(&value); err != nil {
			return model.Field{}, fmt.Errorf("field %s: default: %w", field.Name, err)
		}
		field.Default = value
		field.HasDefault = true
	}

	if fd.Relation != nil {
		rel := &model.Relationship{
			Target:    strings.TrimSpace(fd.Relation.Target),
			Table:     strings.TrimSpace(fd.Relation.Table),
			TargetKey: strings.TrimSpace(fd.Relation.Key),
		}
		kindName := fd.Relation.Kind
		if kindName == "" {
			kindName = string(field.Kind)
		}
		if kind, ok := model.NormalizeRelationshipKind(kindName); ok {
			rel.Kind = kind
		} else {
			rel.Kind = model.RelationshipBelongsTo
		}
		if field.Kind == "" {
			field.Kind = model.KindForRelationship(rel.Kind)
		}
		field.Relationship = rel
	}
	return field, nil
}
