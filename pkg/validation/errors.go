package validation

import (
	"encoding/json"
	"errors"
	"sort"
	"strconv"
)

// NonFieldErrors is the key collecting errors that do not belong to a single
// field, matching the form error convention.
const NonFieldErrors = "__all__"

// Common error codes.
const (
	CodeInvalid       = "invalid"
	CodeInvalidChoice = "invalid_choice"
	CodeMaxLength     = "max_length"
	CodeMaxDigits     = "max_digits"
	CodeMaxPlaces     = "max_decimal_places"
	CodeMaxWhole      = "max_whole_digits"
	CodeRequired      = "required"
	CodeTag           = "tag"
	CodeCoerce        = "coerce"
)

// Error is a data validation failure. It never signals an infrastructure
// problem; those are returned as plain Go errors.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
}

// NewError builds an Error with the given code and message.
func NewError(code, message string) *Error {
	if code == "" {
		code = CodeInvalid
	}
	return &Error{Code: code, Message: message}
}

// WithParam returns the error after recording a parameter.
func (e *Error) WithParam(key string, value any) *Error {
	if e.Params == nil {
		e.Params = make(map[string]any)
	}
	e.Params[key] = value
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// AsError unwraps err into an *Error, converting plain errors into an invalid
// code error carrying their message. It returns nil for nil.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var verr *Error
	if errors.As(err, &verr) {
		return verr
	}
	return NewError(CodeInvalid, err.Error())
}

// IsValidationError reports whether err is or wraps an *Error.
func IsValidationError(err error) bool {
	var verr *Error
	return errors.As(err, &verr)
}

// FieldErrors maps field names to their errors.
type FieldErrors map[string][]*Error

// ErrorSet collects errors per row and field, plus form-level errors.
type ErrorSet struct {
	Rows     map[int]FieldErrors
	NonField []*Error
}

// NewErrorSet returns an empty set.
func NewErrorSet() *ErrorSet {
	return &ErrorSet{Rows: make(map[int]FieldErrors)}
}

// Seed creates an empty entry for rows 0..n-1 so every row shows up in the
// output, including clean ones.
func (s *ErrorSet) Seed(n int) {
	s.ensure()
	for idx := 0; idx < n; idx++ {
		if _, ok := s.Rows[idx]; !ok {
			s.Rows[idx] = FieldErrors{}
		}
	}
}

// Add appends err under (row, field). An empty field files the error under
// NonFieldErrors within the row.
func (s *ErrorSet) Add(row int, field string, err error) {
	verr := AsError(err)
	if verr == nil {
		return
	}
	if field == "" {
		field = NonFieldErrors
	}
	s.ensure()
	fields, ok := s.Rows[row]
	if !ok {
		fields = FieldErrors{}
		s.Rows[row] = fields
	}
	fields[field] = append(fields[field], verr)
}

// AddNonField appends a form-level error.
func (s *ErrorSet) AddNonField(err error) {
	if verr := AsError(err); verr != nil {
		s.NonField = append(s.NonField, verr)
	}
}

// Merge appends every error of other into s.
func (s *ErrorSet) Merge(other *ErrorSet) {
	if other == nil {
		return
	}
	s.ensure()
	for row, fields := range other.Rows {
		if _, ok := s.Rows[row]; !ok {
			s.Rows[row] = FieldErrors{}
		}
		for field, errs := range fields {
			s.Rows[row][field] = append(s.Rows[row][field], errs...)
		}
	}
	s.NonField = append(s.NonField, other.NonField...)
}

// Clone returns a copy of s that shares the *Error values but none of the
// maps or slices.
func (s *ErrorSet) Clone() *ErrorSet {
	out := NewErrorSet()
	if s == nil {
		return out
	}
	for row, fields := range s.Rows {
		copied := make(FieldErrors, len(fields))
		for field, errs := range fields {
			copied[field] = append([]*Error(nil), errs...)
		}
		out.Rows[row] = copied
	}
	out.NonField = append([]*Error(nil), s.NonField...)
	return out
}

// Row returns the errors of a single row (nil when the row has none).
func (s *ErrorSet) Row(row int) FieldErrors {
	if s == nil {
		return nil
	}
	fields := s.Rows[row]
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Empty reports whether no errors were recorded. Seeded empty rows do not
// count.
func (s *ErrorSet) Empty() bool {
	return s.Count() == 0
}

// Count returns the number of recorded errors.
func (s *ErrorSet) Count() int {
	if s == nil {
		return 0
	}
	total := len(s.NonField)
	for _, fields := range s.Rows {
		for _, errs := range fields {
			total += len(errs)
		}
	}
	return total
}

// Issue is a flattened error entry. Row is nil for form-level errors.
type Issue struct {
	Row     *int   `json:"row,omitempty" yaml:"row,omitempty"`
	Field   string `json:"field,omitempty" yaml:"field,omitempty"`
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// Issues flattens the set ordered by row, then field, then insertion order.
// Form-level errors come last.
func (s *ErrorSet) Issues() []Issue {
	if s == nil {
		return nil
	}
	rows := make([]int, 0, len(s.Rows))
	for row := range s.Rows {
		rows = append(rows, row)
	}
	sort.Ints(rows)

	var out []Issue
	for _, row := range rows {
		fields := s.Rows[row]
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, verr := range fields[name] {
				idx := row
				out = append(out, Issue{Row: &idx, Field: name, Code: verr.Code, Message: verr.Message})
			}
		}
	}
	for _, verr := range s.NonField {
		out = append(out, Issue{Field: NonFieldErrors, Code: verr.Code, Message: verr.Message})
	}
	return out
}

// Messages returns the error messages in the row/field/list shape used by form
// errors, with form-level messages under NonFieldErrors.
func (s *ErrorSet) Messages() map[string]any {
	out := make(map[string]any)
	if s == nil {
		return out
	}
	for row, fields := range s.Rows {
		rowOut := make(map[string][]string, len(fields))
		for field, errs := range fields {
			for _, verr := range errs {
				rowOut[field] = append(rowOut[field], verr.Message)
			}
		}
		out[strconv.Itoa(row)] = rowOut
	}
	if len(s.NonField) > 0 {
		messages := make([]string, 0, len(s.NonField))
		for _, verr := range s.NonField {
			messages = append(messages, verr.Message)
		}
		out[NonFieldErrors] = messages
	}
	return out
}

// MarshalJSON encodes the set as {"0": {"field": ["msg"]}, "__all__": ["msg"]}.
func (s *ErrorSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Messages())
}

func (s *ErrorSet) ensure() {
	if s.Rows == nil {
		s.Rows = make(map[int]FieldErrors)
	}
}
