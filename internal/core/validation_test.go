package core

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecks(t *testing.T) {
	tests := []struct {
		name  string
		check Check
		value any
		want  bool
	}{
		{"required missing", Required{}, nil, false},
		{"required empty", Required{}, "", false},
		{"required zero string", Required{}, "0", true},
		{"required json number", Required{}, json.Number("0"), true},
		{"required false", Required{}, false, true},

		{"numeric integer", Numeric{}, "150", true},
		{"numeric word", Numeric{}, "abc", false},
		{"numeric empty coerces to zero", Numeric{}, "", true},
		{"numeric missing", Numeric{}, nil, false},

		{"date iso", Date{}, "2024-01-01", true},
		{"date garbage", Date{}, "yesterday", false},
		{"date missing", Date{}, nil, false},

		{"email ok", Email{}, "a.b@metro.example", true},
		{"email no domain dot", Email{}, "a@metro", false},
		{"email spaces", Email{}, "a b@metro.example", false},
		{"email missing", Email{}, nil, false},

		{"regex match", Regex{Pattern: regexp.MustCompile(`^[A-Z]{3}\d+$`)}, "BUS42", true},
		{"regex miss", Regex{Pattern: regexp.MustCompile(`^[A-Z]{3}\d+$`)}, "bus42", false},
		{"regex without pattern", Regex{}, "anything", true},

		{"range inside", Range{Min: Float(0), Max: Float(10)}, "5", true},
		{"range below", Range{Min: Float(0)}, "-1", false},
		{"range above", Range{Max: Float(10)}, json.Number("11"), false},
		{"range bound inclusive", Range{Min: Float(0), Max: Float(10)}, "10", true},
		{"range not numeric passes", Range{Min: Float(0)}, "abc", true},
		{"range missing passes", Range{Min: Float(0)}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check.Passes(tt.value))
		})
	}
}

func TestValidateRow_Status(t *testing.T) {
	validations := []ValidationRule{
		{Field: "station", Message: "Station name is required", Check: Required{}},
		{Field: "count", Message: "Count must be numeric", Check: Numeric{}},
	}

	tests := []struct {
		name       string
		row        *Fields
		wantStatus ValidationStatus
		wantErrors []string
	}{
		{
			name:       "all pass",
			row:        FieldsFromPairs("station", "Aluva", "count", "3"),
			wantStatus: StatusValid,
		},
		{
			name:       "only soft failure is a warning",
			row:        FieldsFromPairs("station", "Aluva", "count", "x"),
			wantStatus: StatusWarning,
			wantErrors: []string{"count: Count must be numeric"},
		},
		{
			name:       "required failure stays invalid after a soft failure",
			row:        FieldsFromPairs("station", "", "count", "x"),
			wantStatus: StatusInvalid,
			wantErrors: []string{"station: Station name is required", "count: Count must be numeric"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateRow(tt.row, validations)
			assert.Equal(t, tt.wantStatus, got.Status)

			var msgs []string
			for _, e := range got.Errors {
				msgs = append(msgs, e.Error())
			}
			assert.Equal(t, tt.wantErrors, msgs)
		})
	}
}

func TestValidateRow_SoftFailureBeforeRequired(t *testing.T) {
	// A warning raised first is escalated, never the other way round.
	validations := []ValidationRule{
		{Field: "count", Message: "Count must be numeric", Check: Numeric{}},
		{Field: "station", Message: "Station name is required", Check: Required{}},
		{Field: "email", Message: "Bad email", Check: Email{}},
	}

	got := ValidateRow(FieldsFromPairs("count", "x", "email", "nope"), validations)

	assert.Equal(t, StatusInvalid, got.Status)
	assert.Len(t, got.Errors, 3, "every check runs")
}

func TestValidationRule_MarshalJSON(t *testing.T) {
	rule := ValidationRule{Field: "amount", Message: "Amount must be positive", Check: Range{Min: Float(0)}}

	b, err := json.Marshal(rule)
	require.NoError(t, err)
	assert.Equal(t, `{"field":"amount","type":"range","params":{"min":0},"message":"Amount must be positive"}`, string(b))
}
