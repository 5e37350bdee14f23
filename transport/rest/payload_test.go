package rest

import (
	"encoding/json"
	"testing"
)

func TestCanonicalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"missing", "", "null"},
		{"whitespace", `{ "id" : 7 }`, `{"id":7}`},
		{"sorted keys", `{"b":1,"a":{"d":true,"c":null}}`, `{"a":{"c":null,"d":true},"b":1}`},
		{"string", `"by boat"`, `"by boat"`},
		{"no html escaping", `{"html":"<a & b>"}`, `{"html":"<a & b>"}`},
		{"trailing zeros", `2.50`, `2.5`},
		{"integral float", `1e2`, `100.0`},
		{"float with point", `3.0`, `3.0`},
		{"negative zero float", `-0.0`, `-0.0`},
		{"large exponent", `1E17`, `1e17`},
		{"large mantissa", `1.25e20`, `1.25e20`},
		{"small", `0.00012`, `0.00012`},
		{"tiny", `-0.0000001`, `-1e-7`},
		{"big integer", `18446744073709551615`, `18446744073709551615`},
		{"beyond uint64", `18446744073709551616`, `1.8446744073709552e19`},
		{"array", `[1, 2.0, "x"]`, `[1,2.0,"x"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := canonicalJSON(json.RawMessage(tt.in))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCanonicalJSONRejectsOutOfRangeNumbers(t *testing.T) {
	if _, err := canonicalJSON(json.RawMessage(`{"n":1e400}`)); err == nil {
		t.Error("expected an error for a number beyond float64")
	}
}
