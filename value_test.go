package flagstate

import (
	"encoding/json"
	"testing"
)

func TestValueEqualIsTyped(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same string", String("on"), String("on"), true},
		{"number vs numeric string", Number(1), String("1"), false},
		{"bool vs string", Bool(false), String("false"), false},
		{"undefined vs null", Value{}, Null(), false},
		{"null vs null", Null(), Null(), true},
		{"undefined vs undefined", Value{}, Value{}, true},
		{"numbers", Number(2.5), Number(2.5), true},
		{"different bools", Bool(true), Bool(false), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.want {
				t.Fatalf("Equal(%v, %v): want %v got %v", tc.a, tc.b, tc.want, got)
			}
		})
	}
}

func TestStringify(t *testing.T) {
	cases := []struct {
		value Value
		want  string
	}{
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Null(), "null"},
		{Number(42), "42"},
		{Number(1.5), "1.5"},
		{Number(-0.25), "-0.25"},
		{String("hello"), "hello"},
		{Value{}, "undefined"},
	}
	for _, tc := range cases {
		if got := Stringify(tc.value); got != tc.want {
			t.Fatalf("Stringify(%#v): want %q got %q", tc.value, tc.want, got)
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input Value
		want  Value
	}{
		{"digits become numbers", String("123"), Number(123)},
		{"leading zeros", String("007"), Number(7)},
		{"true string", String("true"), Bool(true)},
		{"false string", String("false"), Bool(false)},
		{"negative stays string", String("-1"), String("-1")},
		{"decimal stays string", String("1.5"), String("1.5")},
		{"unsafe integer stays string", String("9007199254740993"), String("9007199254740993")},
		{"plain string", String("blue"), String("blue")},
		{"empty string", String(""), String("")},
		{"undefined becomes null", Value{}, Null()},
		{"number untouched", Number(3), Number(3)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.input); !got.Equal(tc.want) {
				t.Fatalf("Normalize(%#v): want %#v got %#v", tc.input, tc.want, got)
			}
		})
	}
}

func TestValueFromWire(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    Value
	}{
		{"raw string", `"on"`, String("on")},
		{"raw number", `12`, Number(12)},
		{"raw bool", `true`, Bool(true)},
		{"raw null", `null`, Null()},
		{"typed string", `{"type":"unicode","string_value":"blue"}`, String("blue")},
		{"typed int", `{"type":"int","integer_value":7}`, Number(7)},
		{"typed bool", `{"type":"bool","boolean_value":false}`, Bool(false)},
		{"typed float", `{"type":"float","float_value":0.5}`, Number(0.5)},
		{"typed missing payload", `{"type":"unicode"}`, Null()},
		{"empty", ``, Value{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValueFromWire([]byte(tc.payload))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("want %#v got %#v", tc.want, got)
			}
		})
	}

	if _, err := ValueFromWire([]byte(`[1,2]`)); err == nil {
		t.Fatalf("expected arrays to be rejected")
	}
}

func TestFeatureStateJSON(t *testing.T) {
	payload := `{
		"id": 10,
		"feature": 3,
		"environment": 1,
		"enabled": true,
		"feature_state_value": {"type": "int", "integer_value": 5},
		"feature_segment": {"segment": 9, "priority": 0, "segment_name": "Beta"}
	}`
	var state FeatureState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !state.Value.Equal(Number(5)) {
		t.Fatalf("expected typed integer value, got %#v", state.Value)
	}
	if !state.IsSegmentOverride() || state.FeatureSegment.Name != "Beta" {
		t.Fatalf("expected segment override, got %#v", state.FeatureSegment)
	}

	encoded, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded FeatureState
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal round trip: %v", err)
	}
	if !decoded.Value.Equal(state.Value) {
		t.Fatalf("value changed across round trip: %#v", decoded.Value)
	}

	var nullState FeatureState
	if err := json.Unmarshal([]byte(`{"feature":1,"feature_state_value":null}`), &nullState); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if nullState.Value.Kind() != KindNull {
		t.Fatalf("expected explicit null, got %s", nullState.Value.Kind())
	}
}

func TestToWire(t *testing.T) {
	if wire := ToWire(Number(4)); wire.Type != WireTypeInteger || *wire.IntegerValue != 4 {
		t.Fatalf("expected integer wire value, got %#v", wire)
	}
	if wire := ToWire(Number(4.5)); wire.Type != WireTypeFloat {
		t.Fatalf("expected float wire value, got %#v", wire)
	}
	if got := ToWire(String("x")).Value(); !got.Equal(String("x")) {
		t.Fatalf("string wire round trip failed: %#v", got)
	}
	if got := ToWire(Bool(true)).Value(); !got.Equal(Bool(true)) {
		t.Fatalf("bool wire round trip failed: %#v", got)
	}
}

func TestFeatureStateClone(t *testing.T) {
	identity := 4
	original := &FeatureState{
		ID:                 1,
		Feature:            2,
		Value:              String("v"),
		MultivariateValues: []MultivariateFeatureStateValue{{MultivariateOption: 1, PercentageAllocation: 30}},
		FeatureSegment:     &FeatureSegment{Segment: 3, Priority: 1},
		Identity:           &identity,
	}
	clone := original.Clone()
	clone.FeatureSegment.Priority = 5
	clone.MultivariateValues[0].PercentageAllocation = 90
	*clone.Identity = 8

	if original.FeatureSegment.Priority != 1 || original.MultivariateValues[0].PercentageAllocation != 30 || *original.Identity != 4 {
		t.Fatalf("clone shares memory with original: %#v", original)
	}
	if !clone.Value.Equal(String("v")) {
		t.Fatalf("clone lost value: %#v", clone.Value)
	}
}
