// Package model describes the model metadata forms validate against: fields,
// their kinds, length limits, choices, defaults, and relationships to other
// models. It plays the role of an ORM's model `_meta`: ModelForms look fields up
// by name, derive column checks from them, and resolve defaults through
// Field.DefaultValue. Relationship tables are resolved once a Registry is
// complete so relation caches can query the right table.
package model
