package codec

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValueFromAnyRoundTrip(t *testing.T) {
	src := `{"a":1,"b":"x","c":true,"d":null,"e":[1,2,3],"f":{"g":2.5}}`
	var parsed interface{}
	if err := json.Unmarshal([]byte(src), &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	v, err := valueFromAny(parsed)
	if err != nil {
		t.Fatalf("valueFromAny: %v", err)
	}
	if v.Kind != ValueMap {
		t.Fatalf("expected ValueMap, got %v", v.Kind)
	}

	back := v.toAny()
	roundTripped, err := json.Marshal(back)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var want, got map[string]interface{}
	json.Unmarshal([]byte(src), &want)
	json.Unmarshal(roundTripped, &got)

	if len(want) != len(got) {
		t.Fatalf("key count mismatch: want %d got %d", len(want), len(got))
	}
}

func TestValueFromAnyRejectsNonFiniteNumber(t *testing.T) {
	_, err := valueFromAny(map[string]interface{}{"x": nil})
	if err != nil {
		t.Fatalf("null should be accepted: %v", err)
	}

	// A NaN or Inf cannot arrive via encoding/json, but a hand-built tree can.
	_, err = valueFromAny(map[string]interface{}{"x": []interface{}{notAFiniteNumber()}})
	if !errors.Is(err, ErrUnrepresentableNumber) {
		t.Errorf("expected ErrUnrepresentableNumber, got %v", err)
	}
}

func notAFiniteNumber() float64 {
	var zero float64
	return 1 / zero // +Inf, without tripping go vet's literal-division-by-zero check
}

func TestIsEmptyMap(t *testing.T) {
	if !(Value{Kind: ValueMap, Map: map[string]Value{}}).isEmptyMap() {
		t.Error("expected empty map to report isEmptyMap")
	}
	if (Value{Kind: ValueMap, Map: map[string]Value{"a": Null()}}).isEmptyMap() {
		t.Error("non-empty map reported isEmptyMap")
	}
	if (Value{Kind: ValueNull}).isEmptyMap() {
		t.Error("null value reported isEmptyMap")
	}
}
