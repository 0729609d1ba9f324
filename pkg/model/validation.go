package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errModelNameMissing = errors.New("model: name is required")
	errFieldNameMissing = errors.New("model: field name is required")
)

// Validate checks a model definition for structural mistakes before forms are
// built from it.
func Validate(m Model) error {
	if strings.TrimSpace(m.Name) == "" {
		return errModelNameMissing
	}

	seen := make(map[string]struct{}, len(m.Fields))
	for _, field := range m.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return fmt.Errorf("%w (model %s)", errFieldNameMissing, m.Name)
		}
		if _, exists := seen[name]; exists {
			return fmt.Errorf("model: %s declares field %q twice", m.Name, name)
		}
		seen[name] = struct{}{}

		if err := validateField(field); err != nil {
			return fmt.Errorf("model: %s.%s: %w", m.Name, name, err)
		}
	}
	return nil
}

func validateField(field Field) error {
	if !field.Kind.Valid() {
		return fmt.Errorf("unknown kind %q", field.Kind)
	}
	if field.MaxLength < 0 {
		return errors.New("max_length must not be negative")
	}
	if field.MaxDigits < 0 || field.DecimalPlaces < 0 {
		return errors.New("max_digits and decimal_places must not be negative")
	}
	if field.MaxDigits > 0 && field.DecimalPlaces > field.MaxDigits {
		return errors.New("decimal_places must not exceed max_digits")
	}
	if field.IsRelation() {
		if field.Relationship == nil || strings.TrimSpace(field.Relationship.Target) == "" {
			return errors.New("relation fields require a relationship target")
		}
	}
	return nil
}
