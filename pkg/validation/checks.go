package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/goliatone/go-formset/pkg/frame"
	"github.com/goliatone/go-formset/pkg/i18n"
	"github.com/goliatone/go-formset/pkg/model"
)

// ColumnOptions carries the column attributes a check needs to evaluate its
// values.
type ColumnOptions struct {
	Kind     model.FieldKind
	Coerce   bool
	Nullable bool
}

// Check validates a whole column at once and reports one pass flag per row.
type Check interface {
	Name() string
	Validate(values []any, opts ColumnOptions) []bool
	Error(loc i18n.Localizer) *Error
}

// Explainer is implemented by checks whose failure message depends on the
// failing value.
type Explainer interface {
	Explain(value any, loc i18n.Localizer) *Error
}

// passNull applies the shared null rule: a null cell passes iff the column is
// nullable. It returns handled=false for non-null cells.
func passNull(value any, opts ColumnOptions) (pass bool, handled bool) {
	if frame.IsNull(value) {
		return opts.Nullable, true
	}
	return false, false
}

func localizer(loc i18n.Localizer) i18n.Localizer {
	if loc == nil {
		return i18n.Default()
	}
	return loc
}

// IsInCheck passes values that belong to an allowed set.
type IsInCheck struct {
	Field   string
	Allowed []any

	once sync.Once
	keys map[string]struct{}
}

// IsIn builds a membership check over allowed.
func IsIn(field string, allowed []any) *IsInCheck {
	return &IsInCheck{Field: field, Allowed: allowed}
}

func (c *IsInCheck) Name() string { return "is_in" }

func (c *IsInCheck) Validate(values []any, opts ColumnOptions) []bool {
	c.once.Do(func() {
		c.keys = make(map[string]struct{}, len(c.Allowed))
		for _, value := range c.Allowed {
			c.keys[KeyOf(value)] = struct{}{}
		}
	})

	out := make([]bool, len(values))
	for idx, value := range values {
		if pass, ok := passNull(value, opts); ok {
			out[idx] = pass
			continue
		}
		out[idx] = c.contains(value)
	}
	return out
}

func (c *IsInCheck) contains(value any) bool {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for idx := 0; idx < rv.Len(); idx++ {
			if _, ok := c.keys[KeyOf(rv.Index(idx).Interface())]; !ok {
				return false
			}
		}
		return true
	}
	_, ok := c.keys[KeyOf(value)]
	return ok
}

func (c *IsInCheck) Error(loc i18n.Localizer) *Error {
	return NewError(CodeInvalidChoice, localizer(loc).Sprintf(i18n.KeyInvalidChoice))
}

// MaxLengthCheck limits the rune length of the value's string form.
type MaxLengthCheck struct {
	Field string
	Limit int
}

// MaxLength builds a length check.
func MaxLength(field string, limit int) *MaxLengthCheck {
	return &MaxLengthCheck{Field: field, Limit: limit}
}

func (c *MaxLengthCheck) Name() string { return "max_length" }

func (c *MaxLengthCheck) Validate(values []any, opts ColumnOptions) []bool {
	out := make([]bool, len(values))
	for idx, value := range values {
		if pass, ok := passNull(value, opts); ok {
			out[idx] = pass
			continue
		}
		out[idx] = utf8.RuneCountInString(stringValue(value)) <= c.Limit
	}
	return out
}

func (c *MaxLengthCheck) Error(loc i18n.Localizer) *Error {
	return NewError(CodeMaxLength, localizer(loc).Sprintf(i18n.KeyMaxLength, c.Limit)).
		WithParam("max_length", c.Limit)
}

// DecimalDigitsCheck bounds the total digits and decimal places of a number.
// A zero MaxDigits disables the digit bounds. Places bounds the decimal places
// whenever either limit is set, so MaxDigits 3 with Places 0 accepts integers
// only.
type DecimalDigitsCheck struct {
	Field     string
	MaxDigits int
	Places    int
}

// DecimalDigits builds a digit count check.
func DecimalDigits(field string, maxDigits, places int) *DecimalDigitsCheck {
	return &DecimalDigitsCheck{Field: field, MaxDigits: maxDigits, Places: places}
}

func (c *DecimalDigitsCheck) Name() string { return "decimal_digits" }

func (c *DecimalDigitsCheck) Validate(values []any, opts ColumnOptions) []bool {
	out := make([]bool, len(values))
	for idx, value := range values {
		if pass, ok := passNull(value, opts); ok {
			out[idx] = pass
			continue
		}
		out[idx] = c.violation(value) == ""
	}
	return out
}

func (c *DecimalDigitsCheck) Error(loc i18n.Localizer) *Error {
	return NewError(CodeMaxDigits, localizer(loc).Sprintf(i18n.KeyMaxDigits, c.MaxDigits)).
		WithParam("max_digits", c.MaxDigits)
}

// Explain reports which bound value breaks.
func (c *DecimalDigitsCheck) Explain(value any, loc i18n.Localizer) *Error {
	loc = localizer(loc)
	switch c.violation(value) {
	case CodeInvalid:
		return NewError(CodeInvalid, loc.Sprintf(i18n.KeyInvalidDecimal))
	case CodeMaxPlaces:
		return NewError(CodeMaxPlaces, loc.Sprintf(i18n.KeyMaxDecimalPlaces, c.Places)).
			WithParam("decimal_places", c.Places)
	case CodeMaxWhole:
		whole := c.MaxDigits - c.Places
		return NewError(CodeMaxWhole, loc.Sprintf(i18n.KeyMaxWholeDigits, whole)).
			WithParam("max_whole_digits", whole)
	default:
		return c.Error(loc)
	}
}

// violation returns the code of the first bound value breaks, or "".
func (c *DecimalDigitsCheck) violation(value any) string {
	d, err := coerceDecimal(value)
	if err != nil {
		return CodeInvalid
	}
	digits, places := digitCounts(d)
	whole := digits - places
	if c.MaxDigits > 0 && digits > c.MaxDigits {
		return CodeMaxDigits
	}
	if (c.MaxDigits > 0 || c.Places > 0) && places > c.Places {
		return CodeMaxPlaces
	}
	if c.MaxDigits > 0 && whole > c.MaxDigits-c.Places {
		return CodeMaxWhole
	}
	return ""
}

// digitCounts follows the decimal validator rules: trailing zeros after the
// point count, leading zeros do not, and a value below one has no whole
// digits.
func digitCounts(d decimal.Decimal) (digits, places int) {
	exp := int(d.Exponent())
	coefficient := strings.TrimPrefix(d.Coefficient().String(), "-")
	length := len(coefficient)
	if coefficient == "0" {
		length = 1
	}
	if exp >= 0 {
		return length + exp, 0
	}
	places = -exp
	if places > length {
		return places, places
	}
	return length, places
}

// TagCheck applies a validator tag expression to every non-null value.
type TagCheck struct {
	Field string
	Tag   string
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func tagValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Tag builds a validator tag check, e.g. Tag("email", "email").
func Tag(field, tag string) *TagCheck {
	return &TagCheck{Field: field, Tag: tag}
}

func (c *TagCheck) Name() string { return "tag" }

func (c *TagCheck) Validate(values []any, opts ColumnOptions) []bool {
	out := make([]bool, len(values))
	v := tagValidator()
	for idx, value := range values {
		if pass, ok := passNull(value, opts); ok {
			out[idx] = pass
			continue
		}
		if d, isDecimal := value.(decimal.Decimal); isDecimal {
			value = d.InexactFloat64()
		}
		out[idx] = v.Var(value, c.Tag) == nil
	}
	return out
}

func (c *TagCheck) Error(loc i18n.Localizer) *Error {
	return NewError(CodeTag, localizer(loc).Sprintf(i18n.KeyTag, c.Tag)).
		WithParam("tag", c.Tag)
}

// RequiredCheck fails null cells and empty strings regardless of nullability.
type RequiredCheck struct {
	Field string
}

// Required builds a presence check.
func Required(field string) *RequiredCheck {
	return &RequiredCheck{Field: field}
}

func (c *RequiredCheck) Name() string { return "required" }

func (c *RequiredCheck) Validate(values []any, _ ColumnOptions) []bool {
	out := make([]bool, len(values))
	for idx, value := range values {
		if frame.IsNull(value) {
			continue
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		out[idx] = true
	}
	return out
}

func (c *RequiredCheck) Error(loc i18n.Localizer) *Error {
	return NewError(CodeRequired, localizer(loc).Sprintf(i18n.KeyRequired))
}

// Describe returns a short human readable form of check.
func Describe(check Check) string {
	switch c := check.(type) {
	case nil:
		return ""
	case *IsInCheck:
		return fmt.Sprintf("is_in(%d values)", len(c.Allowed))
	case *MaxLengthCheck:
		return fmt.Sprintf("max_length(%d)", c.Limit)
	case *DecimalDigitsCheck:
		return fmt.Sprintf("decimal_digits(%d,%d)", c.MaxDigits, c.Places)
	case *TagCheck:
		return fmt.Sprintf("tag(%s)", c.Tag)
	default:
		return check.Name()
	}
}
