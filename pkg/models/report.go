// Package models defines the data shapes flowing through the fundamentals
// pipeline: loosely typed financial statement fields, per-period reports,
// and the normalized records for dividends, insider trades, shares
// outstanding, market cap, and news sentiment.
package models

import (
	"encoding/json"
	"math"
	"strconv"
)

// FieldValue is a single statement field as delivered by the provider:
// a numeric string ("350018000000"), a bare number, a sentinel like
// "None", or null. It keeps the raw JSON scalar so reports round-trip
// unchanged, and parses defensively on demand.
type FieldValue struct {
	raw json.RawMessage
}

// Number builds a FieldValue holding a finite float.
func Number(f float64) FieldValue {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return FieldValue{raw: json.RawMessage(strconv.FormatFloat(f, 'g', -1, 64))}
}

// NumberPtr builds a numeric FieldValue, or null when f is nil.
// Derived metrics use this: nil means "insufficient input".
func NumberPtr(f *float64) FieldValue {
	if f == nil {
		return Null()
	}
	return Number(*f)
}

// Text builds a FieldValue holding a string scalar.
func Text(s string) FieldValue {
	b, _ := json.Marshal(s)
	return FieldValue{raw: b}
}

// Null is the absent value.
func Null() FieldValue {
	return FieldValue{raw: json.RawMessage("null")}
}

// IsNull reports whether the value is absent or JSON null.
func (v FieldValue) IsNull() bool {
	return len(v.raw) == 0 || string(v.raw) == "null"
}

// Float parses the value as a finite float. Quoted numerics parse the
// same as bare numbers; "None", empty, null, and non-finite values are
// all absent.
func (v FieldValue) Float() (float64, bool) {
	if v.IsNull() {
		return 0, false
	}
	s := string(v.raw)
	if len(s) >= 2 && s[0] == '"' {
		var err error
		s, err = strconv.Unquote(s)
		if err != nil {
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Text returns the value as a plain string (unquoting JSON strings).
// Null yields "".
func (v FieldValue) Text() string {
	if v.IsNull() {
		return ""
	}
	s := string(v.raw)
	if len(s) >= 2 && s[0] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}

// UnmarshalJSON keeps the raw scalar verbatim.
func (v *FieldValue) UnmarshalJSON(b []byte) error {
	v.raw = append(json.RawMessage(nil), b...)
	return nil
}

// MarshalJSON emits the original scalar, or null when never set.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// FinancialReport is one fiscal period of one statement type, or one row
// of shares/dividend/insider data. Keys are provider-defined; no field
// is guaranteed present.
type FinancialReport map[string]FieldValue

// Clone returns a shallow copy of the report.
func (r FinancialReport) Clone() FinancialReport {
	out := make(FinancialReport, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// FiscalDateEnding returns the period-end date field, "" when absent.
func (r FinancialReport) FiscalDateEnding() string {
	return r["fiscalDateEnding"].Text()
}

// Fundamentals is the enriched per-ticker fundamentals series.
type Fundamentals struct {
	Annual    []FinancialReport `json:"annual"`
	Quarterly []FinancialReport `json:"quarterly"`
}
