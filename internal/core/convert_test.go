package core

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{"missing", nil, math.NaN()},
		{"empty string is zero", "", 0},
		{"whitespace is zero", "   ", 0},
		{"integer", "42", 42},
		{"padded", " 42 ", 42},
		{"decimal", "3.5", 3.5},
		{"leading dot", ".5", 0.5},
		{"exponent", "1e3", 1000},
		{"negative", "-7", -7},
		{"hex literal", "0x1F", 31},
		{"binary literal", "0b101", 5},
		{"infinity", "Infinity", math.Inf(1)},
		{"thousands separator", "1,000", math.NaN()},
		{"currency", "$10", math.NaN()},
		{"word", "abc", math.NaN()},
		{"json number", json.Number("120"), 120},
		{"float", 2.25, 2.25},
		{"true", true, 1},
		{"false", false, 0},
		{"nested value", []any{"a"}, math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toNumber(tt.input)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got), "toNumber(%v) = %v, want NaN", tt.input, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToText(t *testing.T) {
	a, b := 0.1, 0.2 // runtime sum; the constant 0.1 + 0.2 is exactly 0.3

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"missing", nil, ""},
		{"string", "Aluva", "Aluva"},
		{"integral float", 200.0, "200"},
		{"fraction", a + b, "0.30000000000000004"},
		{"large", 1e21, "1e+21"},
		{"small", 1e-7, "1e-7"},
		{"nan", math.NaN(), "NaN"},
		{"json number", json.Number("120"), "120"},
		{"json decimal", json.Number("1.50"), "1.5"},
		{"bool", true, "true"},
		{"object", map[string]any{"a": 1}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toText(tt.input))
		})
	}
}

func TestToFixed(t *testing.T) {
	tests := []struct {
		input  float64
		places int
		want   string
	}{
		{0, 2, "0.00"},
		{3.14159, 2, "3.14"},
		{0.125, 2, "0.13"},
		{10.125, 2, "10.13"},
		{2.5, 0, "3"},
		{-2.5, 0, "-3"},
		{1.45, 1, "1.4"}, // 1.45 is stored just below the tie
		{0.5, 0, "1"},
		{0.004, 2, "0.00"},
		{-0.004, 2, "-0.00"},
		{1234.5678, 3, "1234.568"},
		{7, 3, "7.000"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v@%d", tt.input, tt.places), func(t *testing.T) {
			assert.Equal(t, tt.want, toFixed(tt.input, tt.places))
		})
	}
}

func TestParseDate(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name   string
		input  any
		want   time.Time
		wantOK bool
	}{
		{"iso date", "2024-01-01", day(2024, 1, 1), true},
		{"iso datetime with zone", "2024-03-05T23:30:00Z", time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC), true},
		{"iso datetime without zone", "2024-03-05T10:00:00", time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), true},
		{"us date", "01/15/2024", day(2024, 1, 15), true},
		{"short us date", "1/5/2024", day(2024, 1, 5), true},
		{"long form", "Jan 2, 2024", day(2024, 1, 2), true},
		{"year month", "2024-06", day(2024, 6, 1), true},
		{"epoch millis", json.Number("86400000"), day(1970, 1, 2), true},
		{"garbage", "not a date", time.Time{}, false},
		{"empty", "", time.Time{}, false},
		{"missing", nil, time.Time{}, false},
		{"impossible day", "2024-02-30", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseDate(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "parseDate(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
