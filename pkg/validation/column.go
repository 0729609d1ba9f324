package validation

import (
	"github.com/goliatone/go-formset/pkg/frame"
	"github.com/goliatone/go-formset/pkg/i18n"
	"github.com/goliatone/go-formset/pkg/model"
)

// Column runs a list of checks against one frame column.
type Column struct {
	Name     string
	Kind     model.FieldKind
	Checks   []Check
	Coerce   bool
	Nullable bool
}

// Options returns the attributes handed to every check.
func (c Column) Options() ColumnOptions {
	return ColumnOptions{Kind: c.Kind, Coerce: c.Coerce, Nullable: c.Nullable}
}

// Validate coerces the column in place when requested and applies every
// check. Rows whose value could not be coerced get a coerce error and are
// left out of the checks.
func (c Column) Validate(f *frame.Frame, loc i18n.Localizer) *ErrorSet {
	errs := NewErrorSet()
	if f == nil || !f.HasColumn(c.Name) {
		return errs
	}
	loc = localizer(loc)

	values := f.Column(c.Name)
	skip := make([]bool, len(values))
	if c.Coerce {
		for idx, value := range values {
			coerced, err := Coerce(c.Kind, value)
			if err != nil {
				skip[idx] = true
				errs.Add(idx, c.Name, NewError(CodeCoerce, loc.Sprintf(i18n.KeyCoerce, stringValue(value), string(c.Kind))))
				continue
			}
			values[idx] = coerced
			_ = f.Set(idx, c.Name, coerced)
		}
	}

	opts := c.Options()
	for _, check := range c.Checks {
		if check == nil {
			continue
		}
		passed := check.Validate(values, opts)
		explainer, explains := check.(Explainer)
		var shared *Error
		for idx, ok := range passed {
			if ok || skip[idx] {
				continue
			}
			if explains {
				errs.Add(idx, c.Name, explainer.Explain(values[idx], loc))
				continue
			}
			if shared == nil {
				shared = check.Error(loc)
			}
			errs.Add(idx, c.Name, shared)
		}
	}
	return errs
}
