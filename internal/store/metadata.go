package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies the concrete type stored in a metadata Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindNumber
	KindBool
	KindMap
)

// Value is a small tagged value for document metadata. The closed set of
// kinds (string, number, bool, nested mapping) replaces the untyped
// dictionaries the ingestion API accepts on the wire.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
	Map  Metadata
}

// Metadata is an open-ended key/value mapping attached to a document. It is
// opaque to the index and the search path.
type Metadata map[string]Value

// String returns a string Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Map returns a nested mapping Value.
func Map(m Metadata) Value { return Value{Kind: KindMap, Map: m} }

// AsString returns the string value and whether the kind matches.
func (v Value) AsString() (string, bool) {
	return v.Str, v.Kind == KindString
}

// AsNumber returns the numeric value and whether the kind matches.
func (v Value) AsNumber() (float64, bool) {
	return v.Num, v.Kind == KindNumber
}

// AsBool returns the boolean value and whether the kind matches.
func (v Value) AsBool() (bool, bool) {
	return v.Bool, v.Kind == KindBool
}

// AsMap returns the nested mapping and whether the kind matches.
func (v Value) AsMap() (Metadata, bool) {
	return v.Map, v.Kind == KindMap
}

// MarshalJSON writes the natural JSON form of the value, so persisted
// metadata and API responses look like plain JSON objects.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindMap:
		return json.Marshal(v.Map)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON reads the natural JSON form back into a tagged value.
// Arrays and nulls are outside the supported set and are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty metadata value")
	}

	switch data[0] {
	case '"':
		v.Kind = KindString
		return json.Unmarshal(data, &v.Str)
	case '{':
		v.Kind = KindMap
		v.Map = Metadata{}
		return json.Unmarshal(data, &v.Map)
	case 't', 'f':
		v.Kind = KindBool
		return json.Unmarshal(data, &v.Bool)
	case '[', 'n':
		return fmt.Errorf("unsupported metadata value: %s", string(data))
	default:
		v.Kind = KindNumber
		return json.Unmarshal(data, &v.Num)
	}
}
