package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type Request struct {
	SQL      string
	RowLimit int
}

type Result struct {
	Columns   []string
	Rows      [][]any
	Truncated bool
	Duration  time.Duration
}

type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
}

// OrderedRow is one result row whose JSON object keeps column order.
// encoding/json sorts map keys, which would scramble the table headers
// the client derives from the first row.
type OrderedRow struct {
	Columns []string
	Values  []any
}

func (r OrderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, column := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(column)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var value any
		if i < len(r.Values) {
			value = r.Values[i]
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode column %q: %w", column, err)
		}
		buf.Write(encoded)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// OrderedRows wraps every row of result. Duplicate column names keep only
// their first occurrence so the output stays a valid JSON object.
func (r Result) OrderedRows() []OrderedRow {
	keep := make([]int, 0, len(r.Columns))
	seen := make(map[string]struct{}, len(r.Columns))
	for i, column := range r.Columns {
		if _, dup := seen[column]; dup {
			continue
		}
		seen[column] = struct{}{}
		keep = append(keep, i)
	}
	columns := make([]string, len(keep))
	for j, i := range keep {
		columns[j] = r.Columns[i]
	}

	rows := make([]OrderedRow, 0, len(r.Rows))
	for _, values := range r.Rows {
		picked := make([]any, len(keep))
		for j, i := range keep {
			if i < len(values) {
				picked[j] = values[i]
			}
		}
		rows = append(rows, OrderedRow{Columns: columns, Values: picked})
	}
	return rows
}
