package geo

import (
	"strconv"

	"github.com/paulmach/orb/geojson"
)

// Kind tags the scalar held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

// Value is a scalar feature property: string, number, bool or null.
// Nested objects and arrays are treated as null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// Null is the absent value.
var Null = Value{}

// String wraps s.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps n.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// ValueOf converts a decoded JSON value into a Value.
func ValueOf(v any) Value {
	switch t := v.(type) {
	case string:
		return String(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case bool:
		return Bool(t)
	default:
		return Null
	}
}

// Kind returns the tag.
func (v Value) Kind() Kind { return v.kind }

// Truthy reports whether the value carries data: non-empty strings, non-zero
// numbers and true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindString:
		return v.str != ""
	case KindNumber:
		return v.num != 0
	case KindBool:
		return v.b
	}
	return false
}

// Text renders the value as display text.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return ""
}

// Properties is a typed view over a feature property bag.
type Properties map[string]Value

// PropertiesOf converts the properties of f. A nil feature or a nil bag
// yields nil, which reads as "no data" everywhere.
func PropertiesOf(f *geojson.Feature) Properties {
	if f == nil || f.Properties == nil {
		return nil
	}
	props := make(Properties, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = ValueOf(v)
	}
	return props
}

// Text returns the display text for key when it carries data.
func (p Properties) Text(key string) (string, bool) {
	v, ok := p[key]
	if !ok || !v.Truthy() {
		return "", false
	}
	return v.Text(), true
}

// First returns the text of the first key in keys that carries data.
func (p Properties) First(keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := p.Text(k); ok {
			return s, true
		}
	}
	return "", false
}
