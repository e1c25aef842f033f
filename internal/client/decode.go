package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"

	"github.com/datawhisper/datawhisper/internal/table"
)

const (
	detailField = "detail"
	sqlField    = "sql_query"
	rowsField   = "results"
)

// extractDetail returns the string detail of an error body, or the fallback
// message when the body is not JSON or carries no string detail.
func extractDetail(body []byte) string {
	if !isJSONObject(body) {
		return FallbackErrorMessage
	}
	value, dataType, _, err := jsonparser.Get(body, detailField)
	if err != nil || dataType != jsonparser.String {
		return FallbackErrorMessage
	}
	detail, err := jsonparser.ParseString(value)
	if err != nil || detail == "" {
		return FallbackErrorMessage
	}
	return detail
}

func decodeResponse(body []byte) (Response, error) {
	if !isJSONObject(body) {
		return Response{}, &MalformedResponseError{Reason: "body is not a JSON object"}
	}

	sqlValue, sqlType, _, err := jsonparser.Get(body, sqlField)
	if err != nil {
		return Response{}, &MalformedResponseError{Reason: "missing field " + sqlField}
	}
	var translated string
	switch sqlType {
	case jsonparser.String:
		translated, err = jsonparser.ParseString(sqlValue)
		if err != nil {
			return Response{}, &MalformedResponseError{Reason: fmt.Sprintf("decode %s: %v", sqlField, err)}
		}
	case jsonparser.Null:
	default:
		return Response{}, &MalformedResponseError{Reason: sqlField + " is not a string"}
	}

	_, rowsType, _, err := jsonparser.Get(body, rowsField)
	if err != nil {
		return Response{}, &MalformedResponseError{Reason: "missing field " + rowsField}
	}
	if rowsType != jsonparser.Array {
		return Response{}, &MalformedResponseError{Reason: rowsField + " is not an array"}
	}

	rows := make([]table.Row, 0)
	var rowErr error
	_, err = jsonparser.ArrayEach(body, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if rowErr != nil {
			return
		}
		if dataType != jsonparser.Object {
			rowErr = fmt.Errorf("row %d is not an object", len(rows))
			return
		}
		row, err := decodeRow(value)
		if err != nil {
			rowErr = fmt.Errorf("row %d: %w", len(rows), err)
			return
		}
		rows = append(rows, row)
	}, rowsField)
	if rowErr == nil && err != nil {
		rowErr = err
	}
	if rowErr != nil {
		return Response{}, &MalformedResponseError{Reason: rowErr.Error()}
	}

	return Response{TranslatedQuery: translated, Rows: rows}, nil
}

// decodeRow walks the object in source order so the first row can dictate
// column order.
func decodeRow(object []byte) (table.Row, error) {
	var row table.Row
	err := jsonparser.ObjectEach(object, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		name := string(key)
		cell, err := decodeCell(value, dataType)
		if err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}
		row.Set(name, cell)
		return nil
	})
	return row, err
}

func decodeCell(value []byte, dataType jsonparser.ValueType) (table.Cell, error) {
	switch dataType {
	case jsonparser.String:
		text, err := jsonparser.ParseString(value)
		if err != nil {
			return table.Cell{}, err
		}
		return table.Text(text), nil
	case jsonparser.Number:
		return table.Number(string(value)), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(value)
		if err != nil {
			return table.Cell{}, err
		}
		return table.Boolean(b), nil
	case jsonparser.Null:
		return table.Null(), nil
	case jsonparser.Object, jsonparser.Array:
		// Nested values are shown as their compact JSON text.
		var compact bytes.Buffer
		if err := json.Compact(&compact, value); err != nil {
			return table.Cell{}, err
		}
		return table.Text(compact.String()), nil
	default:
		return table.Cell{}, errors.New("unsupported value type")
	}
}

func isJSONObject(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}
