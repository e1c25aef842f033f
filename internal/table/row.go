package table

import (
	"bytes"
	"encoding/json"
)

type Field struct {
	Name  string
	Value Cell
}

// Row is one flat record of a result set. Fields keep the order in which the
// keys appeared in the source object.
type Row struct {
	fields []Field
}

func NewRow(fields ...Field) Row {
	return Row{fields: append([]Field(nil), fields...)}
}

// Set replaces the value of an existing key in place or appends a new key.
func (r *Row) Set(name string, value Cell) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

func (r Row) Get(name string) (Cell, bool) {
	for _, field := range r.fields {
		if field.Name == name {
			return field.Value, true
		}
	}
	return Cell{}, false
}

func (r Row) Keys() []string {
	keys := make([]string, 0, len(r.fields))
	for _, field := range r.fields {
		keys = append(keys, field.Name)
	}
	return keys
}

func (r Row) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

func (r Row) Len() int { return len(r.fields) }

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := field.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
