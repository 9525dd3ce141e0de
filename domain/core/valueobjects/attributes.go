package valueobjects

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ValueKind discriminates the closed set of attribute value types
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindMap
)

// Value is a single attribute value: string, number, boolean, nested
// mapping, or null. Keeping the variant closed preserves payload
// flexibility without resorting to untyped interface{} values.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	m    Attributes
}

// Attributes is an opaque attribute payload carried by nodes and edges.
// It is always replaced wholesale on update, never merged.
type Attributes map[string]Value

// Null returns the null value
func Null() Value {
	return Value{kind: KindNull}
}

// String constructs a string value
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number constructs a numeric value
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// Bool constructs a boolean value
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Map constructs a nested mapping value
func Map(m Attributes) Value {
	return Value{kind: KindMap, m: m}
}

// Kind returns the value's discriminator
func (v Value) Kind() ValueKind {
	return v.kind
}

// AsString returns the string payload and whether the value holds one
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsNumber returns the numeric payload and whether the value holds one
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsBool returns the boolean payload and whether the value holds one
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsMap returns the nested mapping and whether the value holds one
func (v Value) AsMap() (Attributes, bool) {
	return v.m, v.kind == KindMap
}

// IsNull reports whether the value is null
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Equals performs a deep structural comparison
func (v Value) Equals(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindMap:
		return v.m.Equals(other.m)
	default:
		return true
	}
}

// Clone returns a deep copy of the value
func (v Value) Clone() Value {
	if v.kind == KindMap {
		return Value{kind: KindMap, m: v.m.Clone()}
	}
	return v
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindMap:
		return json.Marshal(v.m)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := fromInterface(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func fromInterface(raw interface{}) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(val), nil
	case float64:
		return Number(val), nil
	case bool:
		return Bool(val), nil
	case map[string]interface{}:
		m := make(Attributes, len(val))
		for k, nested := range val {
			decoded, err := fromInterface(nested)
			if err != nil {
				return Value{}, err
			}
			m[k] = decoded
		}
		return Map(m), nil
	default:
		return Value{}, fmt.Errorf("unsupported attribute value type %T", raw)
	}
}

// Equals performs a deep structural comparison of two payloads
func (a Attributes) Equals(other Attributes) bool {
	if len(a) != len(other) {
		return false
	}
	for k, v := range a {
		ov, ok := other[k]
		if !ok || !v.Equals(ov) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the payload. A nil receiver clones to nil.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v.Clone()
	}
	return out
}

// UnmarshalJSON implements json.Unmarshaler, rejecting non-object payloads
func (a *Attributes) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("attributes must be a JSON object")
	}
	out := make(Attributes, len(raw))
	for k, msg := range raw {
		var v Value
		if err := v.UnmarshalJSON(msg); err != nil {
			return err
		}
		out[k] = v
	}
	*a = out
	return nil
}
