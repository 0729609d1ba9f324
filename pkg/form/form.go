package form

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/goliatone/go-formset/pkg/frame"
	"github.com/goliatone/go-formset/pkg/i18n"
	"github.com/goliatone/go-formset/pkg/validation"
)

// CodeUnknownColumn marks frame columns rejected by WithStrictColumns.
const CodeUnknownColumn = "unknown_column"

// Form validates a frame of rows field by field.
type Form struct {
	fields []string
	data   *frame.Frame
	opts   options

	run sync.Mutex

	mu        sync.Mutex
	validated bool
	valid     bool
	tainted   bool
	cleaned   *frame.Frame
	errors    *validation.ErrorSet
}

// New returns a form over data. When fields is empty every column of data is
// a field.
func New(fields []string, data *frame.Frame, opts ...Option) *Form {
	if data == nil {
		data = frame.New(nil, nil)
	}
	if len(fields) == 0 {
		fields = data.Columns()
	}
	return &Form{
		fields: append([]string(nil), fields...),
		data:   data,
		opts:   newOptions(opts),
		errors: validation.NewErrorSet(),
	}
}

// Fields returns the field names in cleaning order.
func (f *Form) Fields() []string {
	return append([]string(nil), f.fields...)
}

// Data returns the frame the form was built with.
func (f *Form) Data() *frame.Frame {
	return f.data
}

// Localizer returns the localizer used for error messages.
func (f *Form) Localizer() i18n.Localizer {
	return f.opts.localizer
}

// IsValid cleans and validates the rows on the first call and memoises the
// outcome. Infrastructure failures are returned as errors and roll the form
// back to its state before the call, so a retry starts clean.
func (f *Form) IsValid(ctx context.Context) (bool, error) {
	f.run.Lock()
	defer f.run.Unlock()

	f.mu.Lock()
	if f.validated {
		valid := f.valid && !f.tainted
		f.mu.Unlock()
		return valid, nil
	}
	before, tainted := f.errors.Clone(), f.tainted
	f.mu.Unlock()

	valid, err := f.validate(ctx)
	if err != nil {
		f.mu.Lock()
		f.errors, f.tainted, f.cleaned = before, tainted, nil
		f.mu.Unlock()
		f.opts.logger.Error().Err(err).Int("rows", f.data.Len()).Msg("form validation failed")
		return false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.validated = true
	f.valid = valid
	f.opts.logger.Debug().
		Int("rows", f.data.Len()).
		Int("errors", f.errors.Count()).
		Bool("valid", valid && !f.tainted).
		Msg("form validated")
	return f.valid && !f.tainted, nil
}

func (f *Form) validate(ctx context.Context) (bool, error) {
	cleaned, rowErrs, err := f.cleanRows(ctx)
	if err != nil {
		return false, err
	}

	f.mu.Lock()
	f.cleaned = cleaned
	f.errors.Merge(rowErrs)
	f.mu.Unlock()

	valid := rowErrs.Empty()
	if f.opts.strictColumns {
		for _, column := range f.data.Columns() {
			if !f.hasField(column) {
				f.AddError("", validation.NewError(CodeUnknownColumn, f.opts.localizer.Sprintf(i18n.KeyUnknownColumn, column)))
			}
		}
	}

	for _, clean := range f.opts.formCleaners {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if err := clean(ctx, f); err != nil {
			if !validation.IsValidationError(err) {
				return false, fmt.Errorf("form: clean: %w", err)
			}
			f.AddError("", err)
		}
	}

	if f.opts.schema != nil {
		schemaErrs, schemaValid, err := f.opts.schema.Validate(ctx, cleaned, f.opts.localizer)
		if err != nil {
			return false, err
		}
		f.mu.Lock()
		f.errors.Merge(schemaErrs)
		f.mu.Unlock()
		valid = valid && schemaValid
	}
	return valid, nil
}

func (f *Form) cleanRows(ctx context.Context) (*frame.Frame, *validation.ErrorSet, error) {
	errs := validation.NewErrorSet()
	errs.Seed(f.data.Len())
	rows := make([]frame.Row, 0, f.data.Len())

	for idx := 0; idx < f.data.Len(); idx++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		source := f.data.Row(idx)
		row := make(frame.Row, len(f.fields))
		for _, field := range f.fields {
			value, _ := f.defaultValue(field)
			if candidate, ok := source[field]; ok && present(candidate) {
				value = candidate
			}
			value = f.sanitize(value)
			row[field] = value

			clean, ok := f.opts.cleaners[field]
			if !ok {
				continue
			}
			out, err := clean(ctx, RowContext{Row: idx, Field: field, Value: value, Data: row})
			if err != nil {
				if !validation.IsValidationError(err) {
					return nil, nil, fmt.Errorf("form: clean %s (row %d): %w", field, idx, err)
				}
				errs.Add(idx, field, err)
				continue
			}
			row[field] = out
		}
		rows = append(rows, row)
	}
	return frame.New(f.fields, rows), errs, nil
}

func (f *Form) defaultValue(field string) (any, bool) {
	if f.opts.defaults == nil {
		return nil, false
	}
	return f.opts.defaults(field)
}

func (f *Form) sanitize(value any) any {
	if f.opts.sanitizer == nil {
		return value
	}
	if s, ok := value.(string); ok {
		return f.opts.sanitizer.Sanitize(s)
	}
	return value
}

func (f *Form) hasField(name string) bool {
	for _, field := range f.fields {
		if field == name {
			return true
		}
	}
	return false
}

// AddError records a form-level error. The field is accepted for parity with
// row errors; form-level errors are always filed under "__all__".
func (f *Form) AddError(field string, err error) {
	_ = field
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors.AddNonField(err)
	f.tainted = true
}

// AddRowError records an error against a row. An empty field files it under
// "__all__" within the row.
func (f *Form) AddRowError(row int, field string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors.Add(row, field, err)
	f.tainted = true
}

// Errors returns a snapshot of the collected errors. Later AddError or
// AddRowError calls do not show up in a snapshot already taken.
func (f *Form) Errors() *validation.ErrorSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors.Clone()
}

// CleanedData returns the cleaned rows, after coercion. It is nil until the
// form has been validated.
func (f *Form) CleanedData() []frame.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cleaned == nil {
		return nil
	}
	return f.cleaned.Records()
}

// Frame returns the cleaned frame, or nil before validation.
func (f *Form) Frame() *frame.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleaned
}

// present reports whether a row value overrides the default. Zero numbers and
// false count as present.
func present(value any) bool {
	if frame.IsNull(value) {
		return false
	}
	if s, ok := value.(string); ok {
		return s != ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	default:
		return true
	}
}
