package codec

import (
	"fmt"
	"math"
)

// ValueKind discriminates the self-describing Value variant that backs
// GeoJSON's untyped properties tree (spec §4.4, §9 "Dynamic property
// trees": modeled as a tagged variant, not a reflection facility).
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueNumber
	ValueString
	ValueList
	ValueMap
)

// Value is a recursive JSON value: null, boolean, finite double, string,
// ordered list, or string-keyed map. Map key order is not preserved across
// the wire (spec §4.4) — GeoJSON does not require it either.
type Value struct {
	Kind   ValueKind
	Bool   bool
	Number float64
	String string
	List   []Value
	Map    map[string]Value
}

// Null is the shared zero-ish value for an explicit JSON null.
func Null() Value { return Value{Kind: ValueNull} }

// valueFromAny converts a tree produced by encoding/json.Unmarshal into
// interface{} (so: nil, bool, float64, string, []interface{},
// map[string]interface{}) into a Value, failing closed on anything else
// (NaN/Inf cannot occur from json.Unmarshal, but a caller constructing the
// tree by hand could introduce one, so it is still checked).
func valueFromAny(v interface{}) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Value{Kind: ValueBool, Bool: t}, nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return Value{}, ErrUnrepresentableNumber
		}
		return Value{Kind: ValueNumber, Number: t}, nil
	case string:
		return Value{Kind: ValueString, String: t}, nil
	case []interface{}:
		list := make([]Value, len(t))
		for i, item := range t {
			val, err := valueFromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = val
		}
		return Value{Kind: ValueList, List: list}, nil
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			val, err := valueFromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf(".%s: %w", k, err)
			}
			m[k] = val
		}
		return Value{Kind: ValueMap, Map: m}, nil
	default:
		return Value{}, fmt.Errorf("unsupported property value type %T", v)
	}
}

// toAny converts a Value back to the interface{} shape encoding/json.Marshal
// expects, the inverse of valueFromAny.
func (v Value) toAny() interface{} {
	switch v.Kind {
	case ValueNull:
		return nil
	case ValueBool:
		return v.Bool
	case ValueNumber:
		return v.Number
	case ValueString:
		return v.String
	case ValueList:
		out := make([]interface{}, len(v.List))
		for i, item := range v.List {
			out[i] = item.toAny()
		}
		return out
	case ValueMap:
		out := make(map[string]interface{}, len(v.Map))
		for k, item := range v.Map {
			out[k] = item.toAny()
		}
		return out
	default:
		return nil
	}
}

// isEmptyMap reports whether v is the empty-map value, used to implement
// the documented properties:null <-> {} asymmetry (spec §4.4).
func (v Value) isEmptyMap() bool {
	return v.Kind == ValueMap && len(v.Map) == 0
}
