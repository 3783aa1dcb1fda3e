package codec

import (
	"bytes"
	"fmt"
	"sort"
)

// Wire-level field numbers for a Value message. A kind byte is always
// written so the decoder knows which of the remaining fields to expect
// even when it carries a zero value (false, 0.0, "", empty list/map all
// still need to round-trip distinctly from "absent").
const (
	valueFieldKind   = 1
	valueFieldBool   = 2
	valueFieldNumber = 3
	valueFieldString = 4
	valueFieldList   = 5
	valueFieldMap    = 6
)

const (
	mapEntryFieldKey   = 1
	mapEntryFieldValue = 2
)

// encodeValue serializes a Value to its wire-level Value message bytes.
func encodeValue(v Value) []byte {
	var buf bytes.Buffer
	putUint32Field(&buf, valueFieldKind, uint32(v.Kind))
	switch v.Kind {
	case ValueBool:
		b := uint64(0)
		if v.Bool {
			b = 1
		}
		putTag(&buf, valueFieldBool, wireVarint)
		putUvarint(&buf, b)
	case ValueNumber:
		putDoubleField(&buf, valueFieldNumber, v.Number)
	case ValueString:
		putLenDelimited(&buf, valueFieldString, []byte(v.String))
	case ValueList:
		for _, item := range v.List {
			putLenDelimited(&buf, valueFieldList, encodeValue(item))
		}
	case ValueMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			putLenDelimited(&buf, valueFieldMap, encodeMapEntry(k, v.Map[k]))
		}
	}
	return buf.Bytes()
}

func encodeMapEntry(key string, v Value) []byte {
	var buf bytes.Buffer
	putLenDelimited(&buf, mapEntryFieldKey, []byte(key))
	putLenDelimited(&buf, mapEntryFieldValue, encodeValue(v))
	return buf.Bytes()
}

// decodeValue is the inverse of encodeValue, tolerant of unknown fields
// (spec §4.8 / P6).
func decodeValue(data []byte) (Value, error) {
	r := newWireReader(data)
	v := Value{}
	haveKind := false
	for !r.done() {
		field, wt, err := r.readTag()
		if err != nil {
			return Value{}, err
		}
		switch field {
		case valueFieldKind:
			n, err := r.readUvarint()
			if err != nil {
				return Value{}, err
			}
			v.Kind = ValueKind(n)
			haveKind = true
		case valueFieldBool:
			n, err := r.readUvarint()
			if err != nil {
				return Value{}, err
			}
			v.Bool = n != 0
		case valueFieldNumber:
			n, err := r.readFixed64()
			if err != nil {
				return Value{}, err
			}
			v.Number = n
		case valueFieldString:
			data, err := r.readLenDelimited()
			if err != nil {
				return Value{}, err
			}
			v.String = string(data)
		case valueFieldList:
			data, err := r.readLenDelimited()
			if err != nil {
				return Value{}, err
			}
			item, err := decodeValue(data)
			if err != nil {
				return Value{}, err
			}
			v.List = append(v.List, item)
		case valueFieldMap:
			data, err := r.readLenDelimited()
			if err != nil {
				return Value{}, err
			}
			key, item, err := decodeMapEntry(data)
			if err != nil {
				return Value{}, err
			}
			if v.Map == nil {
				v.Map = make(map[string]Value)
			}
			v.Map[key] = item
		default:
			if err := r.skip(wt); err != nil {
				return Value{}, err
			}
		}
	}
	if !haveKind {
		return Value{}, fmt.Errorf("value message missing kind field: %w", ErrMalformedRecord)
	}
	if v.Kind < ValueNull || v.Kind > ValueMap {
		return Value{}, fmt.Errorf("unknown value kind tag %d: %w", v.Kind, ErrMalformedRecord)
	}
	if v.Kind == ValueList && v.List == nil {
		v.List = []Value{}
	}
	if v.Kind == ValueMap && v.Map == nil {
		v.Map = map[string]Value{}
	}
	return v, nil
}

func decodeMapEntry(data []byte) (string, Value, error) {
	r := newWireReader(data)
	var key string
	var val Value
	haveVal := false
	for !r.done() {
		field, wt, err := r.readTag()
		if err != nil {
			return "", Value{}, err
		}
		switch field {
		case mapEntryFieldKey:
			data, err := r.readLenDelimited()
			if err != nil {
				return "", Value{}, err
			}
			key = string(data)
		case mapEntryFieldValue:
			data, err := r.readLenDelimited()
			if err != nil {
				return "", Value{}, err
			}
			val, err = decodeValue(data)
			if err != nil {
				return "", Value{}, err
			}
			haveVal = true
		default:
			if err := r.skip(wt); err != nil {
				return "", Value{}, err
			}
		}
	}
	if !haveVal {
		return "", Value{}, fmt.Errorf("map entry missing value field: %w", ErrMalformedRecord)
	}
	return key, val, nil
}

// mapValue builds a ValueMap from a plain Go map, used when assembling
// "extra" unrecognized-key captures.
func mapValue(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{Kind: ValueMap, Map: m}
}
