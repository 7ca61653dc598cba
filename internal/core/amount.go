// Package core provides the domain types shared by every layer.
//
// This file contains amount parsing and formatting. The wire format accepts
// monetary amounts either as JSON numbers or as numeric strings, and always
// emits them formatted to two decimals.
package core

import (
	"bytes"
	"strconv"
	"strings"
)

// Amount is a monetary value as received from a client. It unmarshals from
// either a JSON number or a quoted numeric string; a present-but-non-numeric
// value is recorded as invalid instead of aborting the decode, so the service
// can answer with the InvalidAmount taxonomy error rather than a generic
// decoding failure.
type Amount struct {
	Value   float64
	Valid   bool
	Present bool
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	a.Present = true
	s := string(bytes.TrimSpace(data))
	if s == "null" {
		a.Present = false
		return nil
	}
	s = strings.Trim(s, `"`)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	a.Value = v
	a.Valid = true
	return nil
}

// ParseAmount parses a query-string amount value.
func ParseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, ErrInvalidAmount("invalid value in 'amount'")
	}
	return v, nil
}

// FormatAmount renders a monetary value with exactly two decimals, matching
// the output contract of every money-carrying response field.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
