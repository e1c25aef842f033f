package client

import (
	"reflect"
	"testing"

	"github.com/datawhisper/datawhisper/internal/table"
)

func TestDecodeResponseCellKinds(t *testing.T) {
	body := []byte(`{
		"results": [{"name":"Aé","score":12.50,"active":true,"deleted":false,"note":null,"tags":["x", "y"]}],
		"sql_query": "SELECT \"name\" FROM t"
	}`)
	resp, err := decodeResponse(body)
	if err != nil {
		t.Fatalf("decodeResponse() error = %v", err)
	}
	if resp.TranslatedQuery != `SELECT "name" FROM t` {
		t.Fatalf("TranslatedQuery = %q", resp.TranslatedQuery)
	}
	row := resp.Rows[0]
	want := map[string]struct {
		kind table.Kind
		text string
	}{
		"name":    {table.KindText, "Aé"},
		"score":   {table.KindNumber, "12.50"},
		"active":  {table.KindBoolean, "true"},
		"deleted": {table.KindBoolean, "false"},
		"note":    {table.KindNull, "null"},
		"tags":    {table.KindText, `["x","y"]`},
	}
	for name, expected := range want {
		cell, ok := row.Get(name)
		if !ok {
			t.Fatalf("missing column %q", name)
		}
		if cell.Kind() != expected.kind || cell.String() != expected.text {
			t.Fatalf("%s = (%s, %q), want (%s, %q)", name, cell.Kind(), cell.String(), expected.kind, expected.text)
		}
	}
	if keys := row.Keys(); !reflect.DeepEqual(keys, []string{"name", "score", "active", "deleted", "note", "tags"}) {
		t.Fatalf("keys = %v", keys)
	}
}

func TestDecodeResponseNullSQLIsEmpty(t *testing.T) {
	resp, err := decodeResponse([]byte(`{"sql_query":null,"results":[]}`))
	if err != nil {
		t.Fatalf("decodeResponse() error = %v", err)
	}
	if resp.TranslatedQuery != "" {
		t.Fatalf("TranslatedQuery = %q", resp.TranslatedQuery)
	}
}

func TestExtractDetailIgnoresNestedDetail(t *testing.T) {
	got := extractDetail([]byte(`{"error":{"detail":"nested"}}`))
	if got != FallbackErrorMessage {
		t.Fatalf("extractDetail() = %q", got)
	}
}
