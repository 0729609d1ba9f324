package openapi

import (
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formset/pkg/model"
)

const (
	relationshipExtensionKey = "x-relationships"

	relationshipTypeAttr       = "type"
	relationshipTargetAttr     = "target"
	relationshipForeignKeyAttr = "foreignKey"
	relationshipTableAttr      = "table"
	relationshipKeyAttr        = "key"
)

var relationshipKeyLookup = map[string]string{
	"type":       relationshipTypeAttr,
	"kind":       relationshipTypeAttr,
	"target":     relationshipTargetAttr,
	"foreignkey": relationshipForeignKeyAttr,
	"foreignid":  relationshipForeignKeyAttr,
	"table":      relationshipTableAttr,
	"key":        relationshipKeyAttr,
	"targetkey":  relationshipKeyAttr,
}

// property is a component property plus the relationship metadata it hosts.
type property struct {
	schema *openapi3.Schema
	ref    string
	rel    map[string]string
	// hidden marks object properties whose relationship moved to a sibling
	// foreign key column.
	hidden bool
}

// relationship builds the model relationship of the property, from the
// x-relationships extension or, failing that, from a $ref to another
// component (an array of refs is many-to-many).
func (p property) relationship() *model.Relationship {
	if len(p.rel) > 0 {
		kind, ok := model.NormalizeRelationshipKind(p.rel[relationshipTypeAttr])
		if !ok {
			kind = model.RelationshipBelongsTo
		}
		target := p.rel[relationshipTargetAttr]
		if target == "" {
			target = p.refTarget()
		}
		if target == "" {
			return nil
		}
		return &model.Relationship{
			Kind:      kind,
			Target:    strings.TrimPrefix(target, componentPrefix),
			Table:     p.rel[relationshipTableAttr],
			TargetKey: p.rel[relationshipKeyAttr],
		}
	}
	if p.hidden {
		return nil
	}
	if strings.HasPrefix(p.ref, componentPrefix) && p.schema != nil && isObject(p.schema) {
		return &model.Relationship{Kind: model.RelationshipBelongsTo, Target: strings.TrimPrefix(p.ref, componentPrefix)}
	}
	if p.schema != nil && hasType(schemaTypes(p.schema.Type), openapi3.TypeArray) && p.schema.Items != nil {
		items := p.schema.Items
		if strings.HasPrefix(items.Ref, componentPrefix) && items.Value != nil && isObject(items.Value) {
			return &model.Relationship{Kind: model.RelationshipManyToMany, Target: strings.TrimPrefix(p.schema.Items.Ref, componentPrefix)}
		}
	}
	return nil
}

func (p property) refTarget() string {
	if p.ref != "" {
		return p.ref
	}
	if p.schema != nil && p.schema.Items != nil {
		return p.schema.Items.Ref
	}
	return ""
}

// propagateRelationships reads the relationship extension of every property
// and moves it onto the sibling named by foreignKey, so the key column carries
// the relation and the object property drops out of the model.
func propagateRelationships(props openapi3.Schemas) map[string]property {
	out := make(map[string]property, len(props))
	for name, ref := range props {
		if ref == nil {
			continue
		}
		p := property{schema: ref.Value, ref: ref.Ref}
		// Extensions next to a $ref live on the reference, not the target.
		ext := ref.Extensions
		if ref.Ref == "" && ref.Value != nil {
			ext = mergedExtensions(ref.Value)
		}
		p.rel = normaliseRelationshipExtension(ext[relationshipExtensionKey])
		out[name] = p
	}

	for name, p := range out {
		fk := p.rel[relationshipForeignKeyAttr]
		if fk == "" || fk == name {
			continue
		}
		host, ok := out[fk]
		if !ok {
			continue
		}
		rel := make(map[string]string, len(p.rel))
		for key, value := range p.rel {
			rel[key] = value
		}
		if rel[relationshipTargetAttr] == "" {
			rel[relationshipTargetAttr] = p.refTarget()
		}
		host.rel = rel
		out[fk] = host

		p.rel = nil
		p.hidden = true
		out[name] = p
	}
	return out
}

func normaliseRelationshipExtension(value any) map[string]string {
	raw, ok := value.(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	normalised := make(map[string]string)
	for key, val := range raw {
		canonical, ok := relationshipKeyLookup[normaliseKey(key)]
		if !ok {
			continue
		}
		if str, ok := val.(string); ok && str != "" {
			normalised[canonical] = str
		}
	}
	if len(normalised) == 0 {
		return nil
	}
	return normalised
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
