// Package safemath provides null-safe arithmetic over loosely typed
// scalars as returned by financial data providers. Values may be numbers,
// numeric strings, "None", empty, or absent; every operation parses its
// operands defensively and returns nil instead of NaN or Inf.
package safemath

import (
	"math"
	"strconv"
)

// Floater is implemented by scalar types that can report their numeric
// value, such as models.FieldValue.
type Floater interface {
	Float() (float64, bool)
}

// Parse converts a loosely typed scalar into a finite float.
// Returns false for nil, non-numeric strings, and non-finite values.
func Parse(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return finite(f)
	case *float64:
		if x == nil {
			return 0, false
		}
		return finite(*x)
	case Floater:
		return x.Float()
	default:
		return 0, false
	}
}

// Div returns a/b, or nil when either operand is non-finite or b is zero.
func Div(a, b any) *float64 {
	x, okA := Parse(a)
	y, okB := Parse(b)
	if !okA || !okB || y == 0 {
		return nil
	}
	q := x / y
	return &q
}

// Sum adds all operands. A single non-finite operand invalidates the
// whole sum: partial sums over gappy statement data are misleading, so
// the policy is fail-fast rather than best-effort.
func Sum(vals ...any) *float64 {
	var sum float64
	for _, v := range vals {
		n, ok := Parse(v)
		if !ok {
			return nil
		}
		sum += n
	}
	return &sum
}

// Sub returns a-b, or nil when either operand is non-finite.
func Sub(a, b any) *float64 {
	x, okA := Parse(a)
	y, okB := Parse(b)
	if !okA || !okB {
		return nil
	}
	d := x - y
	return &d
}

func finite(f float64) (float64, bool) {
	// NaN and ±Inf are "absent", not values.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
