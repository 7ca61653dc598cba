package core

import (
	"encoding/json"
	"testing"
)

func TestAmountUnmarshalJSON(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		present bool
		valid   bool
		value   float64
	}{
		{"json number", `{"amount": 1500.75}`, true, true, 1500.75},
		{"numeric string", `{"amount": "1500.75"}`, true, true, 1500.75},
		{"integer", `{"amount": 42}`, true, true, 42},
		{"zero", `{"amount": 0}`, true, true, 0},
		{"null", `{"amount": null}`, false, false, 0},
		{"missing key", `{}`, false, false, 0},
		{"non-numeric string", `{"amount": "abc"}`, true, false, 0},
		{"empty string", `{"amount": ""}`, true, false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var payload struct {
				Amount Amount `json:"amount"`
			}
			if err := json.Unmarshal([]byte(tc.body), &payload); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if payload.Amount.Present != tc.present {
				t.Fatalf("Present = %v, want %v", payload.Amount.Present, tc.present)
			}
			if payload.Amount.Valid != tc.valid {
				t.Fatalf("Valid = %v, want %v", payload.Amount.Valid, tc.valid)
			}
			if payload.Amount.Value != tc.value {
				t.Fatalf("Value = %v, want %v", payload.Amount.Value, tc.value)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	if v, err := ParseAmount("123.45"); err != nil || v != 123.45 {
		t.Fatalf("got %v, %v", v, err)
	}
	if v, err := ParseAmount(" 10 "); err != nil || v != 10 {
		t.Fatalf("got %v, %v", v, err)
	}
	if _, err := ParseAmount("nope"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{5, "5.00"},
		{1500.75, "1500.75"},
		{1234.5, "1234.50"},
		{-3.5, "-3.50"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.in); got != tc.want {
			t.Errorf("FormatAmount(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
