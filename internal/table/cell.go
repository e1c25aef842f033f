package table

import (
	"encoding/json"
	"strconv"
)

type Kind int

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	default:
		return "null"
	}
}

// Cell is one displayable value of a result row. Numbers keep their JSON
// literal so large integers and decimals render exactly as the service sent them.
type Cell struct {
	kind    Kind
	text    string
	boolean bool
}

func Null() Cell { return Cell{kind: KindNull} }

func Text(value string) Cell { return Cell{kind: KindText, text: value} }

func Boolean(value bool) Cell { return Cell{kind: KindBoolean, boolean: value} }

// Number builds a numeric cell from a JSON number literal.
func Number(literal string) Cell { return Cell{kind: KindNumber, text: literal} }

func Int(value int64) Cell { return Number(strconv.FormatInt(value, 10)) }

func Float(value float64) Cell { return Number(strconv.FormatFloat(value, 'f', -1, 64)) }

func (c Cell) Kind() Kind { return c.kind }

func (c Cell) IsNull() bool { return c.kind == KindNull }

// String is the single textual rendering used by every output surface.
func (c Cell) String() string {
	switch c.kind {
	case KindText, KindNumber:
		return c.text
	case KindBoolean:
		return strconv.FormatBool(c.boolean)
	default:
		return "null"
	}
}

func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindText:
		return json.Marshal(c.text)
	case KindNumber:
		if c.text == "" {
			return []byte("0"), nil
		}
		return []byte(c.text), nil
	case KindBoolean:
		return []byte(strconv.FormatBool(c.boolean)), nil
	default:
		return []byte("null"), nil
	}
}
