package validation

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/goliatone/go-formset/pkg/frame"
	"github.com/goliatone/go-formset/pkg/model"
)

// Coerce converts a non-null cell to the representation checks compare
// against: decimal.Decimal for decimal fields, a key (int64 or string) for
// single relations and a []any of keys for many-to-many cells. Other kinds are
// returned unchanged.
func Coerce(kind model.FieldKind, value any) (any, error) {
	if frame.IsNull(value) {
		return nil, nil
	}
	switch kind {
	case model.FieldKindDecimal:
		return coerceDecimal(value)
	case model.FieldKindForeignKey, model.FieldKindOneToOne:
		return coerceKey(value)
	case model.FieldKindManyToMany:
		keys, err := coerceKeys(value)
		if err != nil || keys == nil {
			return nil, err
		}
		return keys, nil
	default:
		return value, nil
	}
}

func coerceDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return decimal.Decimal{}, fmt.Errorf("not a finite number: %v", v)
		}
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	}
	raw, err := cast.ToStringE(value)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(strings.TrimSpace(raw))
}

func coerceKey(value any) (any, error) {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return n, nil
		}
		return trimmed, nil
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("not an integral key: %v", v)
		}
		if math.Abs(v) >= 1<<63 {
			return nil, fmt.Errorf("key out of range: %v", v)
		}
		return int64(v), nil
	case float32:
		return coerceKey(float64(v))
	case decimal.Decimal:
		if !v.IsInteger() {
			return nil, fmt.Errorf("not an integral key: %s", v)
		}
		if n := v.BigInt(); n.IsInt64() {
			return n.Int64(), nil
		}
		return nil, fmt.Errorf("key out of range: %s", v)
	case bool:
		return nil, fmt.Errorf("not a key: %v", v)
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return nil, fmt.Errorf("not a key: %v", value)
	}
	return cast.ToInt64E(value)
}

func coerceKeys(value any) ([]any, error) {
	var items []any
	switch v := value.(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				items = append(items, trimmed)
			}
		}
	default:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			items = []any{value}
			break
		}
		items = make([]any, 0, rv.Len())
		for idx := 0; idx < rv.Len(); idx++ {
			items = append(items, rv.Index(idx).Interface())
		}
	}

	out := make([]any, 0, len(items))
	for _, item := range items {
		key, err := coerceKey(item)
		if err != nil {
			return nil, err
		}
		out = append(out, key)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// KeyOf returns a canonical string for membership tests, so 3, int64(3),
// 3.0 and "3" all compare equal.
func KeyOf(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		trimmed := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return strconv.FormatInt(n, 10)
		}
		return trimmed
	case decimal.Decimal:
		return v.String()
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<63 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return KeyOf(float64(v))
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	}
	if n, err := cast.ToInt64E(value); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprint(value)
}

// stringValue renders a cell for length checks.
func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case decimal.Decimal:
		return v.String()
	}
	if s, err := cast.ToStringE(value); err == nil {
		return s
	}
	return fmt.Sprint(value)
}
