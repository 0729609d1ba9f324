package frame

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// ReadCSV reads a frame whose first record is the header. Empty cells become
// nil so they behave like missing values.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("frame: csv input is empty")
		}
		return nil, fmt.Errorf("frame: read csv header: %w", err)
	}
	columns := make([]string, len(header))
	for idx, name := range header {
		columns[idx] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frame: read csv row %d: %w", len(rows), err)
		}
		row := make(Row, len(columns))
		for idx, column := range columns {
			if idx >= len(record) || record[idx] == "" {
				row[column] = nil
				continue
			}
			row[column] = record[idx]
		}
		rows = append(rows, row)
	}

	return New(columns, rows), nil
}

// ReadJSON reads a JSON array of objects. Integral numbers become int64 and
// the rest become decimal.Decimal, keeping the digits as written so 1.10
// still has two decimal places.
func ReadJSON(r io.Reader, columns ...string) (*Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("frame: read json: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var records []map[string]any
	if err := decoder.Decode(&records); err != nil {
		return nil, fmt.Errorf("frame: decode json: %w", err)
	}
	for _, record := range records {
		for key, value := range record {
			record[key] = normaliseJSON(value)
		}
	}
	return FromRecords(records, columns...), nil
}

func normaliseJSON(value any) any {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if d, err := decimal.NewFromString(v.String()); err == nil {
			return d
		}
		return v.String()
	case []any:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = normaliseJSON(item)
		}
		return out
	case map[string]any:
		for key, item := range v {
			v[key] = normaliseJSON(item)
		}
		return v
	default:
		return value
	}
}
