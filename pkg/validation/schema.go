package validation

import (
	"context"

	"github.com/goliatone/go-formset/pkg/frame"
	"github.com/goliatone/go-formset/pkg/i18n"
)

// Schema is an ordered set of columns validated together against a frame.
type Schema struct {
	columns []Column
}

// NewSchema returns a schema over columns, in order.
func NewSchema(columns ...Column) *Schema {
	return &Schema{columns: append([]Column(nil), columns...)}
}

// Add appends a column.
func (s *Schema) Add(column Column) {
	s.columns = append(s.columns, column)
}

// Columns returns a copy of the schema's columns.
func (s *Schema) Columns() []Column {
	if s == nil {
		return nil
	}
	return append([]Column(nil), s.columns...)
}

// Column returns the column named name.
func (s *Schema) Column(name string) (Column, bool) {
	if s != nil {
		for _, column := range s.columns {
			if column.Name == name {
				return column, true
			}
		}
	}
	return Column{}, false
}

// Validate runs every column present in the frame. The returned set holds an
// entry for every row; the frame is valid iff no column reported an error.
func (s *Schema) Validate(ctx context.Context, f *frame.Frame, loc i18n.Localizer) (*ErrorSet, bool, error) {
	errs := NewErrorSet()
	if f == nil {
		return errs, true, nil
	}
	errs.Seed(f.Len())
	if s == nil {
		return errs, true, nil
	}

	valid := true
	for _, column := range s.columns {
		if err := ctx.Err(); err != nil {
			return errs, false, err
		}
		if !f.HasColumn(column.Name) {
			continue
		}
		columnErrs := column.Validate(f, loc)
		if !columnErrs.Empty() {
			valid = false
		}
		errs.Merge(columnErrs)
	}
	return errs, valid, nil
}
