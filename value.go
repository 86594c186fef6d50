package flagstate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ValueKind tags the dynamic type carried by a Value.
type ValueKind int

const (
	// KindUndefined marks an absent value. It is the zero kind so an unset
	// FeatureState.Value never compares equal to an explicit null.
	KindUndefined ValueKind = iota
	KindNull
	KindBool
	KindNumber
	KindString
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "undefined"
	}
}

// maxSafeInteger mirrors the largest integer a float64 represents exactly.
const maxSafeInteger = 1<<53 - 1

// Value is the typed value of a feature state: null, boolean, number or string.
type Value struct {
	kind ValueKind
	b    bool
	n    float64
	s    string
}

// Null returns an explicit null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// ValueOf converts a decoded Go value into a Value. Unsupported types return an
// error rather than being stringified.
func ValueOf(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case float64:
		return Number(v), nil
	case float32:
		return Number(float64(v)), nil
	case int:
		return Number(float64(v)), nil
	case int32:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case uint:
		return Number(float64(v)), nil
	case uint64:
		return Number(float64(v)), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("flagstate: invalid number %q: %w", v.String(), err)
		}
		return Number(f), nil
	default:
		return Value{}, fmt.Errorf("flagstate: unsupported value type %T", raw)
	}
}

// Kind reports the tag of v.
func (v Value) Kind() ValueKind { return v.kind }

// IsDefined reports whether v carries anything other than Undefined.
func (v Value) IsDefined() bool { return v.kind != KindUndefined }

// AsBool returns the boolean payload and whether v is a Bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the numeric payload and whether v is a Number.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string payload and whether v is a String.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Interface returns the Go representation (nil, bool, float64 or string).
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	default:
		return nil
	}
}

// Equal is strict typed equality: Number(1) != String("1") and
// Undefined != Null.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	default:
		return true
	}
}

func (v Value) String() string {
	return Stringify(v)
}

// Stringify renders v the way the diff renderer expects: true/false, null,
// the shortest numeric literal, or the raw string. Undefined renders as
// "undefined".
func Stringify(v Value) string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return formatNumber(v.n)
	case KindString:
		return v.s
	default:
		return "undefined"
	}
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case math.Abs(n) >= 1e21:
		return strconv.FormatFloat(n, 'g', -1, 64)
	default:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
}

// Normalize applies typed value resolution: digits-only strings become numbers
// (unless they exceed the safe integer range), "true"/"false" become booleans,
// and Undefined collapses to Null. Other values pass through unchanged.
func Normalize(v Value) Value {
	switch v.kind {
	case KindUndefined:
		return Null()
	case KindString:
		switch v.s {
		case "true":
			return Bool(true)
		case "false":
			return Bool(false)
		}
		if !isDigits(v.s) {
			return v
		}
		n, err := strconv.ParseFloat(v.s, 64)
		if err != nil || n > maxSafeInteger {
			return v
		}
		return Number(n)
	default:
		return v
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MarshalJSON encodes v as a raw JSON scalar. Undefined encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return nil, fmt.Errorf("flagstate: cannot encode %s as JSON", formatNumber(v.n))
		}
		return json.Marshal(v.n)
	case KindString:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts raw JSON scalars and the backend's typed value object.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := ValueFromWire(data)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// WireValue is the backend's typed representation of a feature state value.
type WireValue struct {
	Type         string   `json:"type"`
	StringValue  *string  `json:"string_value,omitempty"`
	IntegerValue *int64   `json:"integer_value,omitempty"`
	BooleanValue *bool    `json:"boolean_value,omitempty"`
	FloatValue   *float64 `json:"float_value,omitempty"`
}

// Wire type tags used by the backend.
const (
	WireTypeString  = "unicode"
	WireTypeInteger = "int"
	WireTypeBoolean = "bool"
	WireTypeFloat   = "float"
)

// ValueFromWire decodes either a raw JSON scalar or a WireValue object.
func ValueFromWire(data []byte) (Value, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Value{}, nil
	}
	if trimmed[0] == '{' {
		var wire WireValue
		if err := json.Unmarshal(trimmed, &wire); err != nil {
			return Value{}, fmt.Errorf("flagstate: decode wire value: %w", err)
		}
		return wire.Value(), nil
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("flagstate: decode value: %w", err)
	}
	return ValueOf(raw)
}

// Value converts the wire object into a typed Value.
func (w WireValue) Value() Value {
	switch w.Type {
	case WireTypeInteger:
		if w.IntegerValue == nil {
			return Null()
		}
		return Number(float64(*w.IntegerValue))
	case WireTypeFloat:
		if w.FloatValue == nil {
			return Null()
		}
		return Number(*w.FloatValue)
	case WireTypeBoolean:
		if w.BooleanValue == nil {
			return Null()
		}
		return Bool(*w.BooleanValue)
	default:
		if w.StringValue == nil {
			return Null()
		}
		return String(*w.StringValue)
	}
}

// ToWire converts v into the backend's typed representation. Whole numbers in
// the safe integer range are sent as integers.
func ToWire(v Value) WireValue {
	switch v.kind {
	case KindBool:
		b := v.b
		return WireValue{Type: WireTypeBoolean, BooleanValue: &b}
	case KindNumber:
		if v.n == math.Trunc(v.n) && math.Abs(v.n) <= maxSafeInteger {
			i := int64(v.n)
			return WireValue{Type: WireTypeInteger, IntegerValue: &i}
		}
		f := v.n
		return WireValue{Type: WireTypeFloat, FloatValue: &f}
	case KindString:
		s := v.s
		return WireValue{Type: WireTypeString, StringValue: &s}
	default:
		return WireValue{Type: WireTypeString}
	}
}
