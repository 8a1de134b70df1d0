package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRules() []ProcessingRule {
	return []ProcessingRule{
		{ID: "ops-passenger", Department: "Operations", Category: "Passenger Data", FilePattern: MustPattern(`passenger|ridership`)},
		{ID: "ops-schedule", Department: "Operations", Category: "Schedule Data", FilePattern: PatternKeywords{"timetable", "schedule"}},
		{ID: "fin-revenue", Department: "Finance", Category: "Financial Data", FilePattern: MustPattern(`revenue`)},
		{ID: "ops-misc", Department: "Operations", Category: "Misc"},
	}
}

func TestRuleRegistry_FindRule(t *testing.T) {
	reg := NewRuleRegistry(testRules())

	tests := []struct {
		name       string
		filename   string
		department string
		wantID     string
		wantOK     bool
	}{
		{"regex match", "Passenger_Counts.csv", "Operations", "ops-passenger", true},
		{"keyword match", "weekday_TIMETABLE.json", "Operations", "ops-schedule", true},
		{"no match falls back to first rule", "notes.csv", "Operations", "ops-passenger", true},
		{"pattern of another department ignored", "revenue.csv", "Operations", "ops-passenger", true},
		{"other department", "revenue_q1.csv", "Finance", "fin-revenue", true},
		{"unknown department", "passenger.csv", "Marketing", "", false},
		{"department is case sensitive", "passenger.csv", "operations", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := reg.FindRule(tt.filename, tt.department)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, rule.ID)
		})
	}
}

func TestRuleRegistry_RulesIsRepeatable(t *testing.T) {
	reg := NewRuleRegistry(testRules())

	first := reg.Rules("Operations")
	first[0].ID = "mutated"
	second := reg.Rules("Operations")

	require.Len(t, second, 3)
	assert.Equal(t, "ops-passenger", second[0].ID, "callers cannot change registry contents")

	all := reg.Rules("")
	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"ops-passenger", "ops-schedule", "ops-misc", "fin-revenue"}, ids)
	assert.Empty(t, reg.Rules("Marketing"))
}

func TestRuleRegistry_Departments(t *testing.T) {
	reg := NewRuleRegistry(testRules())

	assert.Equal(t, []string{"Operations", "Finance"}, reg.Departments())
	assert.Equal(t, 4, reg.RuleCount())
}

func TestRuleRegistry_Empty(t *testing.T) {
	reg := NewRuleRegistry(nil)

	_, ok := reg.FindRule("x.csv", "Operations")
	assert.False(t, ok)
	assert.NotNil(t, reg.Rules(""))
	assert.Empty(t, reg.Departments())
}

func TestPatterns(t *testing.T) {
	p, err := CompilePattern(`^maint_\d+`)
	require.NoError(t, err)
	assert.True(t, p.Matches("MAINT_2024.csv"))
	assert.False(t, p.Matches("old_maint_2024.csv"))
	assert.Equal(t, `^maint_\d+`, p.String())

	_, err = CompilePattern(`(unclosed`)
	assert.Error(t, err)

	var zero PatternRegexp
	assert.False(t, zero.Matches("anything"))

	kw := PatternKeywords{"", "Staff"}
	assert.True(t, kw.Matches("all_staff.csv"))
	assert.False(t, kw.Matches("payroll.csv"), "empty keywords never match")
	assert.Equal(t, "|Staff", kw.String())
}

func TestCategorizeFile(t *testing.T) {
	tests := []struct {
		filename   string
		category   string
		confidence float64
	}{
		{"Daily_Ridership.csv", "Passenger Data", 0.9},
		{"bus_repair_log.json", "Maintenance Records", 0.9},
		{"q1_revenue.csv", "Financial Data", 0.9},
		{"staff_roster.csv", "HR Data", 0.9},
		{"incident_2024.json", "Safety Reports", 0.9},
		{"weekday_timetable.csv", "Schedule Data", 0.8},
		{"asset_register.csv", "Asset Management", 0.8},
		{"customer_feedback.csv", "Customer Data", 0.8},
		{"passenger_feedback.csv", "Passenger Data", 0.9},
		{"data.csv", "General Data", 0.5},
		{"", "General Data", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := CategorizeFile(tt.filename)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.confidence, got.Confidence)
		})
	}
}
