package model

import (
	"strings"
	"unicode"
)

// RelationshipKind enumerates how a field points at another model.
type RelationshipKind string

const (
	RelationshipBelongsTo  RelationshipKind = "belongsTo"
	RelationshipManyToMany RelationshipKind = "manyToMany"
)

const (
	CardinalityOne  = "one"
	CardinalityMany = "many"

	defaultTargetKey = "id"
)

// Relationship captures the target of a relation field. Table and TargetKey
// locate the keys a relation cache loads for membership checks.
type Relationship struct {
	Kind        RelationshipKind `json:"kind"`
	Target      string           `json:"target"`
	Table       string           `json:"table,omitempty"`
	TargetKey   string           `json:"targetKey,omitempty"`
	Cardinality string           `json:"cardinality,omitempty"`
}

// NormalizeRelationshipKind maps the spellings accepted in model documents
// (foreignKey, belongs_to, hasMany, many-to-many, ...) onto a RelationshipKind.
func NormalizeRelationshipKind(raw string) (RelationshipKind, bool) {
	switch normaliseKey(raw) {
	case "belongsto", "foreignkey", "fk", "hasone", "onetoone":
		return RelationshipBelongsTo, true
	case "manytomany", "m2m", "hasmany":
		return RelationshipManyToMany, true
	default:
		return "", false
	}
}

// KindForRelationship returns the field kind a relationship implies.
func KindForRelationship(kind RelationshipKind) FieldKind {
	if kind == RelationshipManyToMany {
		return FieldKindManyToMany
	}
	return FieldKindForeignKey
}

func deriveCardinality(kind RelationshipKind) string {
	switch kind {
	case RelationshipManyToMany:
		return CardinalityMany
	case RelationshipBelongsTo:
		return CardinalityOne
	default:
		return ""
	}
}

// ensureRelationship fills the derived relationship attributes for relation
// fields: kind from the field kind, cardinality, and the default target key.
func ensureRelationship(field *Field) {
	if field == nil || field.Relationship == nil {
		return
	}
	rel := field.Relationship
	if rel.Kind == "" {
		if field.Kind == FieldKindManyToMany {
			rel.Kind = RelationshipManyToMany
		} else {
			rel.Kind = RelationshipBelongsTo
		}
	}
	if rel.Cardinality == "" {
		rel.Cardinality = deriveCardinality(rel.Kind)
	}
	rel.Cardinality = strings.ToLower(rel.Cardinality)
	if strings.TrimSpace(rel.TargetKey) == "" {
		rel.TargetKey = defaultTargetKey
	}
	rel.Target = targetName(rel.Target)
}

// targetName reduces JSON pointers such as "#/components/schemas/Author" to the
// model name.
func targetName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

func cloneRelationship(rel *Relationship) *Relationship {
	if rel == nil {
		return nil
	}
	cloned := *rel
	return &cloned
}

func normaliseKey(raw string) string {
	var builder strings.Builder
	builder.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			builder.WriteRune(unicode.ToLower(r))
		}
	}
	return builder.String()
}
