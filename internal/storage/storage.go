// Package storage holds the helpers shared by the database backed key
// sources.
package storage

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-formset/pkg/relations"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// CheckLookup rejects table or column names that are not plain identifiers.
func CheckLookup(lookup relations.Lookup) error {
	if !identifier.MatchString(lookup.Table) {
		return fmt.Errorf("storage: invalid table name %q", lookup.Table)
	}
	if !identifier.MatchString(lookup.TargetKey) || strings.Contains(lookup.TargetKey, ".") {
		return fmt.Errorf("storage: invalid key column %q", lookup.TargetKey)
	}
	return nil
}

// Quote double-quotes each dotted part of an identifier checked by
// CheckLookup.
func Quote(name string) string {
	parts := strings.Split(name, ".")
	for idx, part := range parts {
		parts[idx] = `"` + part + `"`
	}
	return strings.Join(parts, ".")
}

// Normalise converts driver values into the shapes relation checks compare.
func Normalise(value any) any {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case int32:
		return int64(v)
	case int:
		return int64(v)
	default:
		return v
	}
}
