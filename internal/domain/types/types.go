// Package types contains common types used across the application.
package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind discriminates the representations a data-point value can take.
type Kind int

// Value kinds. Scouting data points are free-form, so the wire format
// allows strings, numbers, booleans, null, and nested objects.
const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
)

// Value is a tagged union holding a single data-point value.
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	obj  Fields
}

// Fields is an open map of named data points.
type Fields map[string]Value

// View is the nested-map shape exchanged with clients. TeamData is keyed
// by team number; TIMData is keyed by match number, then team number.
// Both key levels are strings on the wire.
type View struct {
	TeamData map[string]Fields            `json:"teamData"`
	TIMData  map[string]map[string]Fields `json:"timData"`
}

// NewView returns a View with empty, non-nil maps.
func NewView() View {
	return View{
		TeamData: map[string]Fields{},
		TIMData:  map[string]map[string]Fields{},
	}
}

// Null returns the null Value.
func Null() Value { return Value{} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Object returns a nested-map Value.
func Object(f Fields) Value { return Value{kind: KindObject, obj: f} }

// Kind reports which representation the Value holds.
func (v Value) Kind() Kind { return v.kind }

// StringVal returns the string representation; valid only for KindString.
func (v Value) StringVal() string { return v.str }

// NumberVal returns the numeric representation; valid only for KindNumber.
func (v Value) NumberVal() float64 { return v.num }

// BoolVal returns the boolean representation; valid only for KindBool.
func (v Value) BoolVal() bool { return v.b }

// ObjectVal returns the nested map; valid only for KindObject.
func (v Value) ObjectVal() Fields { return v.obj }

// Equal reports deep equality of two values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindObject:
		return v.obj.Equal(o.obj)
	}
	return false
}

// Equal reports deep equality of two field maps. A nil map equals an
// empty one.
func (f Fields) Equal(o Fields) bool {
	if len(f) != len(o) {
		return false
	}
	for k, v := range f {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the value in its natural JSON representation.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindObject:
		return json.Marshal(v.obj)
	}
	return nil, fmt.Errorf("unknown value kind %d", v.kind)
}

// UnmarshalJSON decodes any scalar, null, or object into the matching kind.
// JSON arrays are not part of the data-point contract and are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	decoded, err := fromAny(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func fromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("decode number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case map[string]any:
		obj := make(Fields, len(t))
		for k, inner := range t {
			iv, err := fromAny(inner)
			if err != nil {
				return Value{}, err
			}
			obj[k] = iv
		}
		return Object(obj), nil
	default:
		return Value{}, errors.New("unsupported value type; expected scalar, null, or object")
	}
}
