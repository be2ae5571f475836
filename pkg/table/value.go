// Package table provides the in-memory tabular model of a dataset file and
// the store that loads and rewrites it.
package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the type held by a Value.
type Kind int

const (
	// KindNull is the single representation of a missing value.
	KindNull Kind = iota
	// KindString is a text value.
	KindString
	// KindNumber is a numeric value.
	KindNumber
)

// Value is a single cell: a string, a number or null.
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	// raw keeps the literal a number was parsed from, so it is written back unchanged.
	raw string
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number returns a number value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// ParseNumber parses a numeric literal, keeping its text for serialization.
// NaN and infinities are rejected.
func ParseNumber(s string) (Value, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, false
	}
	return Value{kind: KindNumber, num: f, raw: s}, true
}

// Kind returns the kind of v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Float returns the numeric value and whether v is a number.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Text returns the cell text of v: empty for null, the literal for numbers.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if v.raw != "" {
			return v.raw
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if v.kind == KindNull {
		return "<null>"
	}
	return v.Text()
}

// Equal reports whether two values hold the same data.
// Numbers compare by value, so 3 and 3.0 are equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	default:
		return true
	}
}

// Matches reports whether v identifies the given key text.
// A cell matches when its text equals key, or when both are numbers of equal value.
func (v Value) Matches(key string) bool {
	if v.kind == KindNull {
		return false
	}
	if v.Text() == key {
		return true
	}
	if v.kind != KindNumber {
		return false
	}
	k, ok := ParseNumber(key)
	return ok && k.num == v.num
}

// MarshalJSON encodes null as null, numbers as JSON numbers and strings as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	default:
		return []byte("null"), nil
	}
}

// FromJSON converts a decoded JSON value into a Value.
// Decoders should use UseNumber so json.Number keeps the literal.
func FromJSON(x interface{}) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case json.Number:
		v, ok := ParseNumber(t.String())
		if !ok {
			return Value{}, fmt.Errorf("invalid number %q", t.String())
		}
		return v, nil
	case float64:
		return Number(t), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case bool:
		return String(strconv.FormatBool(t)), nil
	default:
		return Value{}, fmt.Errorf("unsupported value of type %T", x)
	}
}
