package core

// convert.go provides value coercion for loosely-typed row values.
//
// Rule semantics are defined in terms of lenient numeric and date coercion:
//   - "" coerces to 0, a missing value coerces to NaN
//   - hex/octal/binary literals and Infinity are numbers
//   - dates are recognised from a fixed list of ISO, US and long-form layouts
//
// Values reaching these helpers are string (CSV), json.Number, bool and
// nested values (JSON), float64 (calculated fields) or nil (missing).

import (
	"encoding/json"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a valid decimal numeric format.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Date layouts tried in order. Inputs without a zone are read as UTC.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-1-2",
	"2006/01/02", "2006/1/2", "2006.01.02",
	"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
	"1/2/2006 15:04:05", "01/02/2006 15:04:05",
	"Jan 2, 2006", "January 2, 2006", "Jan 2 2006", "2 Jan 2006", "02 Jan 2006", "2 January 2006",
	"Mon Jan 2 2006", "Mon, 02 Jan 2006",
	time.RFC1123, time.RFC1123Z, time.RFC850, time.ANSIC,
	"2006-01",
	"2006",
}

// toNumber coerces a row value to a float64. Returns NaN when the value
// has no numeric reading. A missing value (nil) is NaN.
func toNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return math.NaN()
	case float64:
		return x
	case int:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		return parseNumber(x)
	default:
		return math.NaN()
	}
}

// parseNumber parses a numeric string the way a lenient Number() cast does.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}

	if !numericRegex.MatchString(s) {
		return math.NaN()
	}

	// Out-of-range values come back as ±Inf or 0, which is the wanted reading
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// toText renders a row value as a string. Missing values render as "".
func toText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatNumber(x)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return x.String()
		}
		return formatNumber(f)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// formatNumber renders a float64 in shortest round-trip form:
// integers without a fraction, exponents without zero padding.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, ok := strings.Cut(s, "e")
	if !ok {
		return s
	}
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mant + "e" + sign + digits
}

// toFixed renders f with exactly places fraction digits. The exact binary
// value is rounded, and a tie goes away from zero.
// f must be finite and below 1e21 in magnitude.
func toFixed(f float64, places int) string {
	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(places)), nil)
	scaled := new(big.Rat).SetFloat64(f)
	scaled.Mul(scaled, new(big.Rat).SetInt(scale))

	n, rem := new(big.Int).QuoRem(scaled.Num(), scaled.Denom(), new(big.Int))
	if rem.Lsh(rem, 1).Cmp(scaled.Denom()) >= 0 {
		n.Add(n, big.NewInt(1))
	}

	digits := n.String()
	if places == 0 {
		return sign + digits
	}
	if len(digits) <= places {
		digits = strings.Repeat("0", places-len(digits)+1) + digits
	}
	cut := len(digits) - places
	return sign + digits[:cut] + "." + digits[cut:]
}

// parseDate parses a row value as a date.
func parseDate(v any) (time.Time, bool) {
	var s string
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case string:
		s = strings.TrimSpace(x)
	case float64, json.Number:
		// Numbers are epoch milliseconds
		ms := toNumber(x)
		if math.IsNaN(ms) || math.IsInf(ms, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)).UTC(), true
	default:
		s = strings.TrimSpace(toText(x))
	}

	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
