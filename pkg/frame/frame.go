// Package frame holds the tabular data forms validate: ordered columns over a
// zero-based row index, with CSV and JSON readers.
package frame

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Row is a single record keyed by column name.
type Row map[string]any

// Frame is an ordered set of columns over a slice of rows. Rows are addressed
// by their position, starting at zero.
type Frame struct {
	columns []string
	rows    []Row
}

// New builds a frame over the given columns. Rows are copied; keys outside the
// column list are dropped.
func New(columns []string, rows []Row) *Frame {
	f := &Frame{
		columns: append([]string(nil), columns...),
		rows:    make([]Row, len(rows)),
	}
	for idx, row := range rows {
		f.rows[idx] = project(row, f.columns)
	}
	return f
}

// FromRecords builds a frame from plain maps. When no columns are given the
// sorted union of the record keys is used.
func FromRecords(records []map[string]any, columns ...string) *Frame {
	if len(columns) == 0 {
		columns = unionKeys(records)
	}
	rows := make([]Row, len(records))
	for idx, record := range records {
		rows[idx] = Row(record)
	}
	return New(columns, rows)
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.rows)
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.columns...)
}

// HasColumn reports whether name is one of the frame's columns.
func (f *Frame) HasColumn(name string) bool {
	if f == nil {
		return false
	}
	for _, column := range f.columns {
		if column == name {
			return true
		}
	}
	return false
}

// Column returns the values of a column, one per row. Missing cells are nil.
func (f *Frame) Column(name string) []any {
	if f == nil {
		return nil
	}
	out := make([]any, len(f.rows))
	for idx, row := range f.rows {
		out[idx] = row[name]
	}
	return out
}

// Value returns a single cell.
func (f *Frame) Value(row int, column string) any {
	if f == nil || row < 0 || row >= len(f.rows) {
		return nil
	}
	return f.rows[row][column]
}

// Set overwrites a single cell.
func (f *Frame) Set(row int, column string, value any) error {
	if f == nil || row < 0 || row >= len(f.rows) {
		return fmt.Errorf("frame: row %d out of range", row)
	}
	if !f.HasColumn(column) {
		return fmt.Errorf("frame: unknown column %q", column)
	}
	f.rows[row][column] = value
	return nil
}

// Row returns a copy of the row at idx.
func (f *Frame) Row(idx int) Row {
	if f == nil || idx < 0 || idx >= len(f.rows) {
		return nil
	}
	return project(f.rows[idx], f.columns)
}

// Records returns copies of every row.
func (f *Frame) Records() []Row {
	if f == nil {
		return nil
	}
	out := make([]Row, len(f.rows))
	for idx, row := range f.rows {
		out[idx] = project(row, f.columns)
	}
	return out
}

// IsNull reports whether a cell is empty: nil, a nil pointer/slice/map, or NaN.
func IsNull(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case float64:
		return math.IsNaN(v)
	case float32:
		return math.IsNaN(float64(v))
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

func project(row Row, columns []string) Row {
	out := make(Row, len(columns))
	for _, column := range columns {
		if value, ok := row[column]; ok {
			out[column] = value
		} else {
			out[column] = nil
		}
	}
	return out
}

func unionKeys(records []map[string]any) []string {
	seen := make(map[string]struct{})
	for _, record := range records {
		for key := range record {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
