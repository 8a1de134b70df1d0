package core

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRecordID(t *testing.T) {
	now := time.UnixMilli(1704067200000)

	id := NewRecordID("Operations", now)

	assert.Regexp(t, regexp.MustCompile(`^Operations-1704067200000-[0-9a-f]{9}$`), id)
	assert.NotEqual(t, id, NewRecordID("Operations", now))
}

func TestProcessRecord(t *testing.T) {
	rule := ProcessingRule{
		ID:       "hr",
		Category: "HR Data",
		Validations: []ValidationRule{
			{Field: "employee_id", Message: "Employee ID is required", Check: Required{}},
		},
		Transformations: []TransformationRule{
			{Field: "hired", Op: DateFormat{Layout: "YYYY-MM-DD"}},
			{Field: "employee_id", Op: PrefixFormat{Prefix: "EMP-"}},
		},
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("IST", 19800))
	meta := RecordMeta{Department: "HR", Project: "payroll", Source: "staff.csv"}

	t.Run("valid row", func(t *testing.T) {
		rec := ProcessRecord(FieldsFromPairs("employee_id", "7", "hired", "2023-02-01"), rule, meta, now)

		assert.Equal(t, StatusValid, rec.ValidationStatus)
		assert.Empty(t, rec.ValidationErrors)
		assert.NotNil(t, rec.ValidationErrors)
		assert.Equal(t, "HR Data", rec.Category)
		assert.Equal(t, "staff.csv", rec.Source)
		assert.Equal(t, time.UTC, rec.Timestamp.Location())

		id, _ := rec.ProcessedData.Get("employee_id")
		assert.Equal(t, "EMP-7", id)
		orig, _ := rec.OriginalData.Get("employee_id")
		assert.Equal(t, "7", orig)
	})

	t.Run("transformation error downgrades to warning", func(t *testing.T) {
		rec := ProcessRecord(FieldsFromPairs("employee_id", "7", "hired", "soon"), rule, meta, now)

		assert.Equal(t, StatusWarning, rec.ValidationStatus)
		assert.Equal(t, []string{"Transformation error on hired: RangeError: Invalid time value"}, rec.ValidationErrors)
	})

	t.Run("invalid stays invalid", func(t *testing.T) {
		rec := ProcessRecord(FieldsFromPairs("hired", "soon"), rule, meta, now)

		assert.Equal(t, StatusInvalid, rec.ValidationStatus)
		assert.Equal(t, []string{
			"employee_id: Employee ID is required",
			"Transformation error on hired: RangeError: Invalid time value",
		}, rec.ValidationErrors)
	})

	t.Run("nil row", func(t *testing.T) {
		rec := ProcessRecord(nil, rule, meta, now)
		assert.Equal(t, StatusInvalid, rec.ValidationStatus)
		assert.NotNil(t, rec.OriginalData)
	})
}
