package kv

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a quantity field written by loosely typed clients. It keeps the
// original token so strict readers can tell a JSON number from numeric text.
type Number struct {
	raw   json.RawMessage
	value float64
	isNum bool
}

// NewNumber wraps a float as a JSON number.
func NewNumber(v float64) Number {
	return Number{value: v, isNum: true}
}

// UnmarshalJSON never fails; unexpected tokens are kept raw.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '"' {
		var f float64
		if err := json.Unmarshal(trimmed, &f); err == nil {
			n.value, n.isNum = f, true
			return nil
		}
	}
	n.raw = append(json.RawMessage(nil), trimmed...)
	return nil
}

// MarshalJSON writes the value back in the shape it was read.
func (n Number) MarshalJSON() ([]byte, error) {
	switch {
	case n.isNum:
		return json.Marshal(n.value)
	case n.raw != nil:
		return n.raw, nil
	default:
		return []byte("null"), nil
	}
}

// IsZero reports an absent field.
func (n Number) IsZero() bool {
	return !n.isNum && n.raw == nil
}

// Numeric returns the value only when the field is a JSON number.
func (n Number) Numeric() (float64, bool) {
	return n.value, n.isNum
}

// Float returns the JSON number or 0.
func (n Number) Float() float64 {
	if !n.isNum {
		return 0
	}
	return n.value
}

// Coerce converts the field the way a browser Number() call would, mapping NaN to 0.
func (n Number) Coerce() float64 {
	if n.isNum {
		return n.value
	}
	if n.raw == nil {
		return 0
	}
	switch n.raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(n.raw, &s); err != nil {
			return 0
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0
		}
		return f
	case 't':
		return 1
	default:
		return 0
	}
}

// Truthy mirrors loose truthiness: non-zero numbers, non-empty text, true, objects.
func (n Number) Truthy() bool {
	if n.isNum {
		return n.value != 0 && !math.IsNaN(n.value)
	}
	if n.raw == nil {
		return false
	}
	switch n.raw[0] {
	case '"':
		return len(n.raw) > 2
	case 'f':
		return false
	default:
		return true
	}
}

// Text is a string field that also accepts numbers and booleans.
type Text string

// UnmarshalJSON never fails; objects, arrays and null decode as empty text.
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			*t = Text(s)
		}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err == nil {
			*t = Text(strconv.FormatBool(b))
		}
	case '{', '[', 'n':
	default:
		var f float64
		if err := json.Unmarshal(trimmed, &f); err == nil {
			*t = Text(strconv.FormatFloat(f, 'f', -1, 64))
		}
	}
	return nil
}

// String returns the text.
func (t Text) String() string {
	return string(t)
}

// Objects is an array of records that skips elements it cannot decode. A value
// that is not an array decodes as empty.
type Objects[T any] []T

// UnmarshalJSON never fails.
func (o *Objects[T]) UnmarshalJSON(data []byte) error {
	*o = nil
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil
	}
	*o = DecodeObjects[T](elems)
	return nil
}

// DecodeObjects decodes each object element into T, dropping the rest.
func DecodeObjects[T any](elems []json.RawMessage) []T {
	out := make([]T, 0, len(elems))
	for _, raw := range elems {
		if !isObject(raw) {
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Flag is a boolean field. Numbers and the strings "true"/"false" are accepted;
// anything else reads as false.
type Flag bool

// UnmarshalJSON never fails.
func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = false
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case 't':
		*f = Flag(bytes.Equal(trimmed, []byte("true")))
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			*f = Flag(strings.EqualFold(strings.TrimSpace(s), "true"))
		}
	case 'f', 'n', '{', '[':
	default:
		var v float64
		if err := json.Unmarshal(trimmed, &v); err == nil {
			*f = v != 0
		}
	}
	return nil
}
