package canonjson

import (
	"encoding/json"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"sorted_keys", `{"b": 1, "a": 2, "c": {"z": true, "y": false}}`, `{"a":2,"b":1,"c":{"y":false,"z":true}}`},
		{"whitespace_stripped", "{\n  \"a\" : [ 1 , 2 ] \n}", `{"a":[1,2]}`},
		{"integral_floats", `{"n": 1.0}`, `{"n":1}`},
		{"fraction", `{"n": 0.1}`, `{"n":0.1}`},
		{"decimal", `{"n": 123.45}`, `{"n":123.45}`},
		{"big_exponent", `{"n": 1e21}`, `{"n":1e21}`},
		{"small_exponent", `{"n": 1e-7}`, `{"n":1e-7}`},
		{"negative", `{"n": -10}`, `{"n":-10}`},
		{"null_and_bool", `[null, true, false]`, `[null,true,false]`},
		{"escapes", `{"s": "a\"b\\c\nd"}`, `{"s":"a\"b\\c\nd"}`},
		{"unicode_literal", `{"s": "café"}`, `{"s":"café"}`},
		{"empty", `{}`, `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Canonicalize([]byte(tc.input))
			if err != nil {
				t.Fatalf("canonicalize: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestCanonicalize_Stable(t *testing.T) {
	a, err := Canonicalize([]byte(`{"x": 1, "y": [2, 3]}`))
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	b, err := Canonicalize(a)
	if err != nil {
		t.Fatalf("re-canonicalize: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("canonical form must be a fixed point: %s vs %s", a, b)
	}
}

func TestCanonicalize_RejectsTrailingData(t *testing.T) {
	if _, err := Canonicalize([]byte(`{"a":1} {"b":2}`)); err == nil {
		t.Fatal("trailing data must be rejected")
	}
	if _, err := Canonicalize([]byte(`{"a":`)); err == nil {
		t.Fatal("truncated JSON must be rejected")
	}
}

func TestCanonicalizeAny(t *testing.T) {
	got, err := CanonicalizeAny(map[string]any{"b": 1, "a": "x"})
	if err != nil {
		t.Fatalf("canonicalize any: %v", err)
	}
	if string(got) != `{"a":"x","b":1}` {
		t.Fatalf("got %s", got)
	}

	raw := json.RawMessage(`{"z": 0, "a": 0}`)
	got, err = CanonicalizeAny(raw)
	if err != nil {
		t.Fatalf("canonicalize raw: %v", err)
	}
	if string(got) != `{"a":0,"z":0}` {
		t.Fatalf("got %s", got)
	}
}
